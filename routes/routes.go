package routes

import (
	"github.com/gofiber/fiber/v2"

	"invoicing-backend/controllers"
	"invoicing-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, h *controllers.Controller, idem middlewares.IdempotencyStore) {
	api := app.Group("/api")
	api.Get("/health", controllers.Health)

	// Idempotency guard for every mutating request carrying Idempotency-Key
	api.Use(middlewares.Idempotency(idem))

	// Products
	api.Post("/products", h.CreateProduct)
	api.Get("/products", h.GetProducts)
	api.Get("/products/low-stock", h.GetLowStock)
	api.Get("/products/:id", h.GetProduct)
	api.Put("/products/:id", h.UpdateProduct)
	api.Delete("/products/:id", h.DeleteProduct)
	api.Post("/products/:id/stock", h.AdjustStock)

	// Customers
	api.Post("/customers", h.CreateCustomer)
	api.Get("/customers", h.GetCustomers)
	api.Get("/customers/by-phone/:phone", h.GetCustomerByPhone)
	api.Get("/customers/:id", h.GetCustomer)
	api.Put("/customers/:id", h.UpdateCustomer)
	api.Delete("/customers/:id", h.DeleteCustomer)

	// Invoices (ledger is append/replace only)
	api.Get("/invoices", h.GetInvoices)
	api.Get("/invoices/export.xlsx", h.ExportLedger)
	api.Get("/invoices/:id", h.GetInvoice)
	api.Get("/invoices/:id/versions", h.GetInvoiceVersions)
	api.Get("/invoices/:id/pdf", h.InvoicePDF)
	api.Get("/invoices/:id/png", h.InvoicePNG)
	api.Post("/invoices/:id/share", h.ShareInvoice)
	api.Post("/invoices/:id/draft", h.EditInvoice)

	// Drafts (invoice form sessions)
	api.Post("/drafts", h.CreateDraft)
	api.Get("/drafts/:id", h.GetDraft)
	api.Delete("/drafts/:id", h.DiscardDraft)
	api.Post("/drafts/:id/items", h.AddLine)
	api.Put("/drafts/:id/items/:index", h.UpdateLine)
	api.Delete("/drafts/:id/items/:index", h.RemoveLine)
	api.Put("/drafts/:id/customer", h.SetDraftCustomer)
	api.Put("/drafts/:id/details", h.SetDraftDetails)
	api.Put("/drafts/:id/amount-paid", h.EditAmountPaid)
	api.Put("/drafts/:id/due-amount", h.EditDueAmount)
	api.Post("/drafts/:id/commit/:field", h.CommitField)
	api.Get("/drafts/:id/pdf", h.DraftPDF)
	api.Get("/drafts/:id/png", h.DraftPNG)
	api.Post("/drafts/:id/submit", h.SubmitDraft)
}
