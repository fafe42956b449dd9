package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"invoicing-backend/utils"
)

type PaymentMode string

const (
	PaymentCash PaymentMode = "Cash"
	PaymentUPI  PaymentMode = "UPI"
	PaymentCard PaymentMode = "Card"
)

const invoicePrefix = "INV-"

// FormatInvoiceID renders ledger sequence number n as an invoice id.
func FormatInvoiceID(n int) string {
	return fmt.Sprintf("%s%d", invoicePrefix, n)
}

// InvoiceNumber extracts the sequence number from an id like "INV-1002".
func InvoiceNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, invoicePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Invoice is a finalized document owned by the ledger. It is replaced
// wholesale on edit, never patched. The due amount is not stored; see DueAmount.
type Invoice struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Items         []LineItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DueAmount is always re-derived from the rounded total.
func (inv *Invoice) DueAmount() decimal.Decimal {
	return utils.RoundUnit(inv.Total).Sub(inv.AmountPaid)
}

// BalanceInfo is the display hint for what is still owed, or the change to hand back.
type BalanceInfo struct {
	IsDue bool            `json:"is_due"`
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

var minDue = decimal.New(1, -2)

func (inv *Invoice) Balance() BalanceInfo {
	due := inv.Total.Sub(inv.AmountPaid)
	if due.GreaterThanOrEqual(minDue) {
		return BalanceInfo{IsDue: true, Label: "Balance Due", Value: due}
	}
	return BalanceInfo{Label: "Change", Value: due.Abs()}
}

// Clone returns a deep copy so stores never hand out their own item slices.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	out.Items = make([]LineItem, len(inv.Items))
	copy(out.Items, inv.Items)
	return &out
}

// CatalogQuantities reports the stock each catalog product on the invoice consumed.
func (inv *Invoice) CatalogQuantities() map[string]int {
	qty := make(map[string]int)
	for _, item := range inv.Items {
		if ref, ok := item.Ref.(CatalogRef); ok {
			qty[ref.ProductID] += item.Quantity
		}
	}
	return qty
}

// InvoiceVersion is an immutable snapshot of an invoice taken before it was replaced.
type InvoiceVersion struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	InvoiceID string         `json:"invoice_id" gorm:"index:idx_invoice_versions_invoice_id_version_no,unique,priority:1"`
	VersionNo int            `json:"version_no" gorm:"not null;index:idx_invoice_versions_invoice_id_version_no,unique,priority:2"`
	Snapshot  datatypes.JSON `json:"snapshot"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewInvoiceVersion serializes inv as version n.
func NewInvoiceVersion(inv *Invoice, n int, at time.Time) (InvoiceVersion, error) {
	blob, err := json.Marshal(inv)
	if err != nil {
		return InvoiceVersion{}, err
	}
	return InvoiceVersion{
		InvoiceID: inv.ID,
		VersionNo: n,
		Snapshot:  datatypes.JSON(blob),
		CreatedAt: at,
	}, nil
}
