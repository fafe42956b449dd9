// Package invoicing holds the invoice form: line items, totals and payment
// state for one invoice being created or edited, and the submit that turns it
// into a ledger entry with matching stock movements.
package invoicing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"invoicing-backend/models"
	"invoicing-backend/payment"
	"invoicing-backend/pricing"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Form is not safe for concurrent use; the draft registry serializes access.
type Form struct {
	mode        Mode
	label       string
	date        time.Time
	customer    *models.Customer
	paymentMode models.PaymentMode
	items       []models.LineItem

	totals  pricing.Totals
	payment *payment.Reconciler

	// original is the ledger copy being edited; nil in create mode.
	original *models.Invoice
}

// NewCreateForm starts a blank invoice with one empty line, assumed fully paid.
func NewCreateForm(label string, date time.Time) *Form {
	f := &Form{
		mode:        ModeCreate,
		label:       label,
		date:        date,
		paymentMode: models.PaymentCash,
		items:       []models.LineItem{{Quantity: 1}},
	}
	f.totals = pricing.ComputeTotals(f.items)
	f.payment = payment.NewForCreate(f.totals.Total)
	return f
}

// NewEditForm loads a finalized invoice for a full re-submit.
func NewEditForm(inv *models.Invoice) *Form {
	original := inv.Clone()
	f := &Form{
		mode:        ModeEdit,
		label:       inv.ID,
		date:        inv.Date,
		paymentMode: inv.PaymentMode,
		items:       inv.Clone().Items,
		original:    original,
	}
	if inv.CustomerID != "" {
		f.customer = &models.Customer{Id: inv.CustomerID, Name: inv.CustomerName, Phone: inv.CustomerPhone}
	}
	f.totals = pricing.ComputeTotals(f.items)
	paid := inv.AmountPaid
	f.payment = payment.NewForEdit(inv.Total, &paid)
	return f
}

func (f *Form) Mode() Mode                 { return f.mode }
func (f *Form) Label() string              { return f.label }
func (f *Form) Customer() *models.Customer { return f.customer }
func (f *Form) Totals() pricing.Totals     { return f.totals }
func (f *Form) Payment() payment.State     { return f.payment.State() }
func (f *Form) Len() int                   { return len(f.items) }

func (f *Form) Items() []models.LineItem {
	out := make([]models.LineItem, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Form) Line(i int) (models.LineItem, error) {
	if err := f.checkIndex(i); err != nil {
		return models.LineItem{}, err
	}
	return f.items[i], nil
}

func (f *Form) checkIndex(i int) error {
	if i < 0 || i >= len(f.items) {
		ve := models.NewValidationError()
		ve.Add("index", fmt.Sprintf("no line %d (have %d)", i, len(f.items)))
		return ve
	}
	return nil
}

// AddLine appends an empty, unresolved line. It does not move the totals.
func (f *Form) AddLine() []payment.Write {
	f.items = append(f.items, models.LineItem{Quantity: 1})
	return f.itemsChanged()
}

func (f *Form) RemoveLine(i int) ([]payment.Write, error) {
	if err := f.checkIndex(i); err != nil {
		return nil, err
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return f.itemsChanged(), nil
}

func (f *Form) SetLine(i int, item models.LineItem) ([]payment.Write, error) {
	if err := f.checkIndex(i); err != nil {
		return nil, err
	}
	f.items[i] = item
	return f.itemsChanged(), nil
}

func (f *Form) itemsChanged() []payment.Write {
	f.totals = pricing.ComputeTotals(f.items)
	return f.payment.ItemsChanged(f.totals.Total)
}

func (f *Form) SetCustomer(c *models.Customer) {
	cp := *c
	f.customer = &cp
}

func (f *Form) SetDate(t time.Time) { f.date = t }

func (f *Form) SetPaymentMode(m models.PaymentMode) { f.paymentMode = m }

func (f *Form) EditAmountPaid(v decimal.Decimal) []payment.Write {
	return f.payment.EditAmountPaid(v)
}

func (f *Form) EditDueAmount(v decimal.Decimal) []payment.Write {
	return f.payment.EditDueAmount(v)
}

func (f *Form) Commit(field payment.Field) []payment.Write {
	return f.payment.Commit(field)
}

// Invoice builds the finalized document. id is ignored in edit mode.
func (f *Form) Invoice(id string) *models.Invoice {
	if f.mode == ModeEdit {
		id = f.original.ID
	}
	inv := &models.Invoice{
		ID:          id,
		Date:        f.date,
		Items:       f.Items(),
		Subtotal:    f.totals.Subtotal,
		Discount:    f.totals.Discount,
		Total:       f.totals.Total,
		PaymentMode: f.paymentMode,
		AmountPaid:  f.payment.State().AmountPaid,
	}
	if f.customer != nil {
		inv.CustomerID = f.customer.Id
		inv.CustomerName = f.customer.Name
		inv.CustomerPhone = f.customer.Phone
	}
	return inv
}

// Snapshot is the settled, read-only view of a form after one trigger.
type Snapshot struct {
	DraftID      string             `json:"draft_id,omitempty"`
	Label        string             `json:"label"`
	Mode         Mode               `json:"mode"`
	Date         time.Time          `json:"date"`
	Customer     *models.Customer   `json:"customer"`
	PaymentMode  models.PaymentMode `json:"payment_mode"`
	Items        []models.LineItem  `json:"items"`
	Lines        []pricing.Line     `json:"lines"`
	Totals       pricing.Totals     `json:"totals"`
	RoundedTotal decimal.Decimal    `json:"rounded_total"`
	Payment      payment.State      `json:"payment"`
	Balance      models.BalanceInfo `json:"balance"`
	Writes       []payment.Write    `json:"writes"`
}

func (f *Form) Snapshot(writes []payment.Write) Snapshot {
	items := f.Items()
	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		if item.Resolved() {
			lines[i] = pricing.ComputeLine(item)
		}
	}
	if writes == nil {
		writes = []payment.Write{}
	}
	var customer *models.Customer
	if f.customer != nil {
		cp := *f.customer
		customer = &cp
	}
	preview := f.Invoice(f.label)
	return Snapshot{
		Label:        f.label,
		Mode:         f.mode,
		Date:         f.date,
		Customer:     customer,
		PaymentMode:  f.paymentMode,
		Items:        items,
		Lines:        lines,
		Totals:       f.totals,
		RoundedTotal: f.totals.Rounded(),
		Payment:      f.payment.State(),
		Balance:      preview.Balance(),
		Writes:       writes,
	}
}
