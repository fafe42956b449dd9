package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"invoicing-backend/utils"
)

var validate = utils.NewValidator()

// BindAndValidate parses the request body into dst, trims its string fields
// and validates it.
// Returns fiber.ErrBadRequest for parse errors and a validator.ValidationErrors for validation issues.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizeDTO(dst)
	utils.NormalizePtrDTO(dst)
	return validate.Struct(dst)
}
