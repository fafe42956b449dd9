package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"invoicing-backend/invoicing"
	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/payment"
	"invoicing-backend/utils"
)

const dateLayout = "2006-01-02"

type LineInput struct {
	ProductID       *string         `json:"product_id" validate:"omitempty,min=1"`
	Label           *string         `json:"label" validate:"omitempty,max=200"`
	Quantity        *utils.Quantity `json:"quantity"`
	UnitPrice       *utils.Amount   `json:"unit_price"`
	DiscountPercent *utils.Amount   `json:"discount_percent"`
}

type CustomerSelection struct {
	CustomerID string `json:"customer_id"`
	Phone      string `json:"phone"`
}

type DetailsInput struct {
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMode *string `json:"payment_mode" validate:"omitempty,oneof=Cash UPI Card"`
}

type AmountInput struct {
	Value utils.Amount `json:"value"`
}

// SubmitResponse carries the ledger entry and the draft, now in edit mode.
type SubmitResponse struct {
	Invoice InvoiceResponse    `json:"invoice"`
	Draft   invoicing.Snapshot `json:"draft"`
}

func amountPtr(a *utils.Amount) *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := a.Decimal
	return &d
}

func quantityPtr(q *utils.Quantity) *int {
	if q == nil {
		return nil
	}
	n := q.Value
	return &n
}

// reply renders the draft's settled state.
func (h *Controller) reply(c *fiber.Ctx, status int, d *invoicing.Draft, writes []payment.Write) error {
	var snap invoicing.Snapshot
	_ = d.Do(func(f *invoicing.Form) error {
		snap = f.Snapshot(writes)
		return nil
	})
	snap.DraftID = d.ID
	return c.Status(status).JSON(snap)
}

// mutate runs one trigger on the draft named in the route and replies with
// the snapshot taken under the same lock.
func (h *Controller) mutate(c *fiber.Ctx, fn func(f *invoicing.Form) ([]payment.Write, error)) error {
	d, err := h.Drafts.Get(c.Params("id"))
	if err != nil {
		return err
	}

	var snap invoicing.Snapshot
	err = d.Do(func(f *invoicing.Form) error {
		writes, err := fn(f)
		if err != nil {
			return err
		}
		snap = f.Snapshot(writes)
		return nil
	})
	if err != nil {
		return err
	}
	snap.DraftID = d.ID
	return c.JSON(snap)
}

func (h *Controller) CreateDraft(c *fiber.Ctx) error {
	d := h.Drafts.Open(h.Service.NewForm())
	return h.reply(c, fiber.StatusCreated, d, nil)
}

func (h *Controller) GetDraft(c *fiber.Ctx) error {
	d, err := h.Drafts.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return h.reply(c, fiber.StatusOK, d, nil)
}

func (h *Controller) DiscardDraft(c *fiber.Ctx) error {
	if err := h.Drafts.Discard(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Controller) AddLine(c *fiber.Ctx) error {
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		return f.AddLine(), nil
	})
}

func (h *Controller) UpdateLine(c *fiber.Ctx) error {
	i, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	var input LineInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	update := invoicing.LineUpdate{
		ProductID:       input.ProductID,
		Label:           input.Label,
		Quantity:        quantityPtr(input.Quantity),
		UnitPrice:       amountPtr(input.UnitPrice),
		DiscountPercent: amountPtr(input.DiscountPercent),
	}
	ctx := c.UserContext()
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		return h.Service.UpdateLine(ctx, f, i, update)
	})
}

func (h *Controller) RemoveLine(c *fiber.Ctx) error {
	i, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		return f.RemoveLine(i)
	})
}

func (h *Controller) SetDraftCustomer(c *fiber.Ctx) error {
	var input CustomerSelection
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	ctx := c.UserContext()
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		return nil, h.Service.SelectCustomer(ctx, f, input.CustomerID, input.Phone)
	})
}

func (h *Controller) SetDraftDetails(c *fiber.Ctx) error {
	var input DetailsInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	var date time.Time
	if input.Date != nil {
		parsed, err := time.Parse(dateLayout, *input.Date)
		if err != nil {
			ve := models.NewValidationError()
			ve.Add("date", "datetime")
			return ve
		}
		date = parsed
	}
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		if input.Date != nil {
			f.SetDate(date)
		}
		if input.PaymentMode != nil {
			f.SetPaymentMode(models.PaymentMode(*input.PaymentMode))
		}
		return nil, nil
	})
}

func (h *Controller) EditAmountPaid(c *fiber.Ctx) error {
	var input AmountInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		return f.EditAmountPaid(input.Value.Decimal), nil
	})
}

func (h *Controller) EditDueAmount(c *fiber.Ctx) error {
	var input AmountInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		return f.EditDueAmount(input.Value.Decimal), nil
	})
}

// CommitField is the blur of a payment input: it rounds the field to whole units.
func (h *Controller) CommitField(c *fiber.Ctx) error {
	field, ok := payment.ParseField(c.Params("field"))
	if !ok {
		ve := models.NewValidationError()
		ve.Add("field", "oneof amount_paid due_amount")
		return ve
	}
	return h.mutate(c, func(f *invoicing.Form) ([]payment.Write, error) {
		return f.Commit(field), nil
	})
}

func (h *Controller) SubmitDraft(c *fiber.Ctx) error {
	d, err := h.Drafts.Get(c.Params("id"))
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	var (
		resp    SubmitResponse
		created bool
	)
	err = d.Do(func(f *invoicing.Form) error {
		created = f.Mode() == invoicing.ModeCreate
		inv, err := h.Service.Submit(ctx, f)
		if err != nil {
			return err
		}
		resp.Invoice = invoiceResponse(inv)
		resp.Draft = f.Snapshot(nil)
		return nil
	})
	if err != nil {
		return err
	}
	resp.Draft.DraftID = d.ID

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(resp)
}
