package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type RefKind string

const (
	RefCatalog RefKind = "catalog"
	RefCustom  RefKind = "custom"
)

// ItemRef says what a line item sells: a catalog product or an ad-hoc entry.
// A nil ItemRef marks a row the user has not finished filling in.
type ItemRef interface {
	Kind() RefKind
	isItemRef()
}

type CatalogRef struct {
	ProductID string
}

func (CatalogRef) Kind() RefKind { return RefCatalog }
func (CatalogRef) isItemRef()    {}

type CustomRef struct {
	Label string
}

func (CustomRef) Kind() RefKind { return RefCustom }
func (CustomRef) isItemRef()    {}

// RefFromParts rebuilds a reference from its flattened form. Unknown or
// incomplete parts give nil.
func RefFromParts(kind RefKind, productID, label string) ItemRef {
	switch kind {
	case RefCatalog:
		if productID != "" {
			return CatalogRef{ProductID: productID}
		}
	case RefCustom:
		if label != "" {
			return CustomRef{Label: label}
		}
	}
	return nil
}

// RefParts flattens a reference for storage and JSON.
func RefParts(ref ItemRef) (kind RefKind, productID, label string) {
	switch r := ref.(type) {
	case CatalogRef:
		return RefCatalog, r.ProductID, ""
	case CustomRef:
		return RefCustom, "", r.Label
	}
	return "", "", ""
}

// LineItem is one row of an invoice.
type LineItem struct {
	Ref             ItemRef
	Description     string
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
}

func (item LineItem) Resolved() bool {
	return item.Ref != nil
}

func (item LineItem) String() string {
	kind, id, label := RefParts(item.Ref)
	return fmt.Sprintf("%s(%s%s) x%d @ %s -%s%%", kind, id, label, item.Quantity, item.UnitPrice, item.DiscountPercent)
}

type lineItemJSON struct {
	Kind            RefKind         `json:"kind,omitempty"`
	ProductID       string          `json:"product_id,omitempty"`
	Label           string          `json:"label,omitempty"`
	Description     string          `json:"description"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func (item LineItem) MarshalJSON() ([]byte, error) {
	kind, productID, label := RefParts(item.Ref)
	return json.Marshal(lineItemJSON{
		Kind:            kind,
		ProductID:       productID,
		Label:           label,
		Description:     item.Description,
		UnitPrice:       item.UnitPrice,
		Quantity:        item.Quantity,
		DiscountPercent: item.DiscountPercent,
	})
}

func (item *LineItem) UnmarshalJSON(b []byte) error {
	var w lineItemJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*item = LineItem{
		Ref:             RefFromParts(w.Kind, w.ProductID, w.Label),
		Description:     w.Description,
		UnitPrice:       w.UnitPrice,
		Quantity:        w.Quantity,
		DiscountPercent: w.DiscountPercent,
	}
	return nil
}
