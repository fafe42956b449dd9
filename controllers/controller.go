package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"invoicing-backend/export"
	"invoicing-backend/invoicing"
	"invoicing-backend/models"
	"invoicing-backend/store"
	"invoicing-backend/utils"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Controller holds the collaborators every handler needs.
type Controller struct {
	Store       store.Store
	Service     *invoicing.Service
	Drafts      *invoicing.Registry
	Sharer      *export.Sharer
	Export      export.Options
	PhoneRegion string
	Logger      *logrus.Logger
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// paging reads limit/offset query params.
func paging(c *fiber.Ctx) (limit, offset int) {
	limit = utils.ParseIntDefault(c.Query("limit"), defaultLimit)
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}
	offset = utils.ParseIntDefault(c.Query("offset"), 0)
	return limit, offset
}

// indexParam reads a non-negative int route param; anything else is a 422 on field.
func indexParam(c *fiber.Ctx, name string) (int, error) {
	i, err := strconv.Atoi(c.Params(name))
	if err != nil || i < 0 {
		ve := models.NewValidationError()
		ve.Add(name, "must be a non-negative integer")
		return 0, ve
	}
	return i, nil
}
