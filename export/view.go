// Package export renders invoices for download and sharing: PDF, PNG, XLSX,
// and the share flow with its message-link fallback.
package export

import (
	"fmt"

	"github.com/shopspring/decimal"

	"invoicing-backend/models"
	"invoicing-backend/pricing"
	"invoicing-backend/utils"
)

// Options carry the shop details printed on every document.
type Options struct {
	ShopName string
	Currency string
	// Scale multiplies the PNG resolution; 0 means 2.
	Scale int
}

type ViewLine struct {
	Description     string
	Custom          bool
	Quantity        int
	UnitPrice       string
	DiscountPercent string
	Net             string
}

// View is everything a rendered invoice shows, already formatted.
type View struct {
	ShopName      string
	Currency      string
	InvoiceID     string
	Date          string
	CustomerName  string
	CustomerPhone string
	PaymentMode   string
	Lines         []ViewLine
	Subtotal      string
	Discount      string
	Total         string
	RoundedTotal  string
	AmountPaid    string
	BalanceLabel  string
	BalanceValue  string
}

// Money formats an amount as "<CUR> 0.00".
func Money(currency string, d decimal.Decimal) string {
	return fmt.Sprintf("%s %s", currency, d.StringFixed(2))
}

// NewView formats inv. An invoice without a customer cannot be exported.
func NewView(inv *models.Invoice, opts Options) (View, error) {
	if inv.CustomerID == "" {
		ve := models.NewValidationError()
		ve.Add("customer_id", "select a customer before exporting")
		return View{}, ve
	}

	cur := opts.Currency
	v := View{
		ShopName:      opts.ShopName,
		Currency:      cur,
		InvoiceID:     inv.ID,
		Date:          inv.Date.Format("02 Jan 2006"),
		CustomerName:  inv.CustomerName,
		CustomerPhone: inv.CustomerPhone,
		PaymentMode:   string(inv.PaymentMode),
		Subtotal:      Money(cur, inv.Subtotal),
		Discount:      Money(cur, inv.Discount),
		Total:         Money(cur, inv.Total),
		RoundedTotal:  Money(cur, utils.RoundUnit(inv.Total)),
		AmountPaid:    Money(cur, inv.AmountPaid),
	}

	balance := inv.Balance()
	v.BalanceLabel = balance.Label
	v.BalanceValue = Money(cur, balance.Value)

	for _, item := range inv.Items {
		if !item.Resolved() {
			continue
		}
		line := pricing.ComputeLine(item)
		_, custom := item.Ref.(models.CustomRef)
		v.Lines = append(v.Lines, ViewLine{
			Description:     item.Description,
			Custom:          custom,
			Quantity:        item.Quantity,
			UnitPrice:       Money(cur, item.UnitPrice),
			DiscountPercent: item.DiscountPercent.String() + "%",
			Net:             Money(cur, line.Net),
		})
	}
	return v, nil
}

func (o Options) scale() int {
	if o.Scale <= 0 {
		return 2
	}
	return o.Scale
}

// Filename is the download name for an exported invoice.
func Filename(invoiceID, ext string) string {
	return fmt.Sprintf("Invoice-%s.%s", invoiceID, ext)
}
