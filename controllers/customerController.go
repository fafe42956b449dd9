package controllers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/store"
	"invoicing-backend/utils"
)

type CustomerInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"required,max=32"`
	Email string `json:"email" validate:"omitempty,email"`
}

type CustomerPatch struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// normalizePhone stores numbers in E.164 so lookups by phone are exact.
func (h *Controller) normalizePhone(raw string) (string, error) {
	phone, err := utils.NormalizePhone(raw, h.PhoneRegion)
	if err != nil {
		ve := models.NewValidationError()
		ve.Add("phone", err.Error())
		return "", ve
	}
	return phone, nil
}

func (h *Controller) CreateCustomer(c *fiber.Ctx) error {
	var input CustomerInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	phone, err := h.normalizePhone(input.Phone)
	if err != nil {
		return err
	}

	customer := models.Customer{
		Name:  input.Name,
		Phone: phone,
		Email: input.Email,
	}
	if err := h.Store.CreateCustomer(c.UserContext(), &customer); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func (h *Controller) UpdateCustomer(c *fiber.Ctx) error {
	var patch CustomerPatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}

	ctx := c.UserContext()
	customer, err := h.Store.GetCustomer(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	if patch.Name != nil {
		customer.Name = *patch.Name
	}
	if patch.Phone != nil {
		phone, err := h.normalizePhone(*patch.Phone)
		if err != nil {
			return err
		}
		customer.Phone = phone
	}
	if patch.Email != nil {
		customer.Email = *patch.Email
	}

	if err := h.Store.UpdateCustomer(ctx, customer); err != nil {
		return err
	}
	return c.JSON(customer)
}

func (h *Controller) GetCustomers(c *fiber.Ctx) error {
	limit, offset := paging(c)
	customers, err := h.Store.ListCustomers(c.UserContext(), store.ListOpts{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"customers": customers,
		"message":   "success",
	})
}

func (h *Controller) GetCustomer(c *fiber.Ctx) error {
	customer, err := h.Store.GetCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

// GetCustomerByPhone accepts any format the region understands, e.g.
// "98765 43210" or "%2B919876543210".
func (h *Controller) GetCustomerByPhone(c *fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("phone"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone")
	}
	phone, err := h.normalizePhone(raw)
	if err != nil {
		return err
	}
	customer, err := h.Store.GetCustomerByPhone(c.UserContext(), phone)
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

func (h *Controller) DeleteCustomer(c *fiber.Ctx) error {
	if err := h.Store.DeleteCustomer(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
