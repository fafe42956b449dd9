package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"invoicing-backend/models"
	"invoicing-backend/store"
	"invoicing-backend/utils"
)

// InvoiceResponse adds the derived payment fields to a stored invoice.
type InvoiceResponse struct {
	*models.Invoice
	RoundedTotal decimal.Decimal    `json:"rounded_total"`
	DueAmount    decimal.Decimal    `json:"due_amount"`
	Balance      models.BalanceInfo `json:"balance"`
}

func invoiceResponse(inv *models.Invoice) InvoiceResponse {
	return InvoiceResponse{
		Invoice:      inv,
		RoundedTotal: utils.RoundUnit(inv.Total),
		DueAmount:    inv.DueAmount(),
		Balance:      inv.Balance(),
	}
}

func (h *Controller) GetInvoices(c *fiber.Ctx) error {
	limit, offset := paging(c)
	invoices, err := h.Store.ListInvoices(c.UserContext(), store.InvoiceListOpts{
		CustomerID: c.Query("customer_id"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}

	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceResponse(inv))
	}
	return c.JSON(fiber.Map{
		"invoices": out,
		"message":  "success",
	})
}

func (h *Controller) GetInvoice(c *fiber.Ctx) error {
	inv, err := h.Store.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(invoiceResponse(inv))
}

// GetInvoiceVersions lists the snapshots taken before each edit, oldest first.
func (h *Controller) GetInvoiceVersions(c *fiber.Ctx) error {
	versions, err := h.Store.ListVersions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"versions": versions,
		"message":  "success",
	})
}

// EditInvoice opens an edit-mode draft on a stored invoice.
func (h *Controller) EditInvoice(c *fiber.Ctx) error {
	form, err := h.Service.LoadForm(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return h.reply(c, fiber.StatusCreated, h.Drafts.Open(form), nil)
}
