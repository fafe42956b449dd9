package database

import (
	"time"

	"github.com/shopspring/decimal"

	"invoicing-backend/models"
	"invoicing-backend/utils"
)

// invoiceRow is the live state of a ledger invoice.
type invoiceRow struct {
	ID            string              `gorm:"primaryKey;size:32"`
	Number        int                 `gorm:"uniqueIndex;not null"`
	Date          time.Time           `gorm:"index"`
	CustomerID    string              `gorm:"index;size:64"`
	CustomerName  string
	CustomerPhone string              `gorm:"size:32"`
	Items         []invoiceItemRow    `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Subtotal      decimal.Decimal     `gorm:"type:numeric(14,4)"`
	Discount      decimal.Decimal     `gorm:"type:numeric(14,4)"`
	Total         decimal.Decimal     `gorm:"type:numeric(14,4)"`
	PaymentMode   string              `gorm:"size:16"`
	AmountPaid    decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (invoiceRow) TableName() string { return "invoices" }

type invoiceItemRow struct {
	ID              uint            `gorm:"primaryKey"`
	InvoiceID       string          `gorm:"index;size:32;not null"`
	Position        int             `gorm:"not null"`
	Kind            string          `gorm:"size:16;not null"`
	ProductID       *string         `gorm:"index;size:64"`
	Label           string
	Description     string
	UnitPrice       decimal.Decimal `gorm:"type:numeric(12,2)"`
	Quantity        int
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2)"`
}

func (invoiceItemRow) TableName() string { return "invoice_items" }

func toRow(inv *models.Invoice) *invoiceRow {
	number, _ := models.InvoiceNumber(inv.ID)
	row := &invoiceRow{
		ID:            inv.ID,
		Number:        number,
		Date:          inv.Date,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		CustomerPhone: inv.CustomerPhone,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Total:         inv.Total,
		PaymentMode:   string(inv.PaymentMode),
		AmountPaid:    decimal.NewNullDecimal(inv.AmountPaid),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	row.Items = toItemRows(inv.ID, inv.Items)
	return row
}

func toItemRows(invoiceID string, items []models.LineItem) []invoiceItemRow {
	rows := make([]invoiceItemRow, 0, len(items))
	for i, item := range items {
		kind, productID, label := models.RefParts(item.Ref)
		r := invoiceItemRow{
			InvoiceID:       invoiceID,
			Position:        i,
			Kind:            string(kind),
			Label:           label,
			Description:     item.Description,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
		}
		if productID != "" {
			r.ProductID = &productID
		}
		rows = append(rows, r)
	}
	return rows
}

// fromRow expects Items ordered by position. Rows written before payments
// were tracked have no amount paid and are read as paid in full.
func fromRow(row *invoiceRow) *models.Invoice {
	inv := &models.Invoice{
		ID:            row.ID,
		Date:          row.Date,
		CustomerID:    row.CustomerID,
		CustomerName:  row.CustomerName,
		CustomerPhone: row.CustomerPhone,
		Items:         make([]models.LineItem, 0, len(row.Items)),
		Subtotal:      row.Subtotal,
		Discount:      row.Discount,
		Total:         row.Total,
		PaymentMode:   models.PaymentMode(row.PaymentMode),
		AmountPaid:    utils.RoundUnit(row.Total),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.AmountPaid.Valid {
		inv.AmountPaid = row.AmountPaid.Decimal
	}
	for _, r := range row.Items {
		var productID string
		if r.ProductID != nil {
			productID = *r.ProductID
		}
		inv.Items = append(inv.Items, models.LineItem{
			Ref:             models.RefFromParts(models.RefKind(r.Kind), productID, r.Label),
			Description:     r.Description,
			UnitPrice:       r.UnitPrice,
			Quantity:        r.Quantity,
			DiscountPercent: r.DiscountPercent,
		})
	}
	return inv
}
