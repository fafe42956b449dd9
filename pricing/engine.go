// Package pricing turns invoice line items into totals.
package pricing

import (
	"github.com/shopspring/decimal"

	"invoicing-backend/models"
	"invoicing-backend/utils"
)

// Totals are derived from line items and never stored on their own.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Rounded is the whole-unit total payment fields are settled against.
func (t Totals) Rounded() decimal.Decimal {
	return utils.RoundUnit(t.Total)
}

// Line is the per-row breakdown shown in previews.
type Line struct {
	Gross    decimal.Decimal `json:"gross"`
	Discount decimal.Decimal `json:"discount"`
	Net      decimal.Decimal `json:"net"`
}

// ComputeLine prices a single row. Negative price, quantity or percent count as zero.
// The percent is not clamped to 100; callers validate it.
func ComputeLine(item models.LineItem) Line {
	price := utils.NonNegative(item.UnitPrice)
	qty := item.Quantity
	if qty < 0 {
		qty = 0
	}
	percent := utils.NonNegative(item.DiscountPercent)

	gross := price.Mul(decimal.NewFromInt(int64(qty)))
	discount := gross.Mul(percent).Div(utils.Hundred)
	return Line{Gross: gross, Discount: discount, Net: gross.Sub(discount)}
}

// ComputeTotals sums the rows that have a resolved reference; unresolved rows
// are skipped entirely. It has no side effects.
func ComputeTotals(items []models.LineItem) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range items {
		if !item.Resolved() {
			continue
		}
		line := ComputeLine(item)
		subtotal = subtotal.Add(line.Gross)
		discount = discount.Add(line.Discount)
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}
