package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"invoicing-backend/config"
	"invoicing-backend/export"
	"invoicing-backend/invoicing"
	"invoicing-backend/models"
	"invoicing-backend/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func sendFile(c *fiber.Ctx, name, contentType string, data []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(data)
}

func (h *Controller) render(c *fiber.Ctx, inv *models.Invoice, format string) error {
	view, err := export.NewView(inv, h.Export)
	if err != nil {
		return err
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = export.PDF(view)
		contentType = "application/pdf"
	default:
		data, err = export.PNG(view, h.Export)
		contentType = "image/png"
	}
	if err != nil {
		config.LogError(h.Logger, "export", "render", format, inv.ID, err)
		return err
	}
	return sendFile(c, export.Filename(inv.ID, format), contentType, data)
}

func (h *Controller) InvoicePDF(c *fiber.Ctx) error {
	inv, err := h.Store.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return h.render(c, inv, "pdf")
}

func (h *Controller) InvoicePNG(c *fiber.Ctx) error {
	inv, err := h.Store.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return h.render(c, inv, "png")
}

// draftPreview renders the draft as it would be submitted, under its display label.
func (h *Controller) draftPreview(c *fiber.Ctx, format string) error {
	d, err := h.Drafts.Get(c.Params("id"))
	if err != nil {
		return err
	}
	var inv *models.Invoice
	_ = d.Do(func(f *invoicing.Form) error {
		inv = f.Invoice(f.Label())
		return nil
	})
	return h.render(c, inv, format)
}

func (h *Controller) DraftPDF(c *fiber.Ctx) error { return h.draftPreview(c, "pdf") }

func (h *Controller) DraftPNG(c *fiber.Ctx) error { return h.draftPreview(c, "png") }

// ShareInvoice never fails once the invoice exists: without a working upload
// the response carries a message link instead.
func (h *Controller) ShareInvoice(c *fiber.Ctx) error {
	ctx := c.UserContext()
	inv, err := h.Store.GetInvoice(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	view, err := export.NewView(inv, h.Export)
	if err != nil {
		return err
	}

	png, err := export.PNG(view, h.Export)
	if err != nil {
		config.LogError(h.Logger, "export", "ShareInvoice", "render png", inv.ID, err)
		png = nil
	}
	return c.JSON(h.Sharer.Share(ctx, view, png))
}

// ExportLedger downloads every invoice as a spreadsheet, newest first.
func (h *Controller) ExportLedger(c *fiber.Ctx) error {
	invoices, err := h.Store.ListInvoices(c.UserContext(), store.InvoiceListOpts{
		CustomerID: c.Query("customer_id"),
	})
	if err != nil {
		return err
	}
	data, err := export.LedgerXLSX(invoices)
	if err != nil {
		config.LogError(h.Logger, "export", "ExportLedger", "build xlsx", len(invoices), err)
		return err
	}
	return sendFile(c, "invoices.xlsx", xlsxContentType, data)
}
