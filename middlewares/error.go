package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"invoicing-backend/config"
	"invoicing-backend/models"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// 1) Fiber errors (use their status code + message)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		// 2) Validation errors (422 + per-field info)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				out[fe.Field()] = fe.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "validation failed",
				"errors":  out,
			})
		}
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "validation failed",
				"errors":  ve.Fields,
			})
		}

		// 3) Domain lookups
		if models.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
		}
		if models.IsAlreadyExists(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		}

		// 4) Unknown errors (500)
		config.LogError(logger, "http", "ErrorHandler", c.Method()+" "+c.Path(), nil, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
}
