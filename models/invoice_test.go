package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestInvoiceDueAmountUsesRoundedTotal(t *testing.T) {
	inv := &Invoice{Total: dec("7347.2"), AmountPaid: dec("7000")}
	assert.Equal(t, "347", inv.DueAmount().String())

	inv.AmountPaid = dec("7347")
	assert.True(t, inv.DueAmount().IsZero())
}

func TestInvoiceBalance(t *testing.T) {
	tests := []struct {
		name  string
		total string
		paid  string
		isDue bool
		label string
		value string
	}{
		{"balance due", "7347.2", "7000", true, "Balance Due", "347.2"},
		{"change", "6799.15", "7000", false, "Change", "200.85"},
		{"settled to the cent", "100", "100", false, "Change", "0"},
		{"sub-cent remainder", "100.005", "100", false, "Change", "0.005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := (&Invoice{Total: dec(tt.total), AmountPaid: dec(tt.paid)}).Balance()
			assert.Equal(t, tt.isDue, b.IsDue)
			assert.Equal(t, tt.label, b.Label)
			assert.True(t, dec(tt.value).Equal(b.Value), "got %s", b.Value)
		})
	}
}

func TestInvoiceCloneIsDeep(t *testing.T) {
	inv := &Invoice{ID: "INV-1", Items: []LineItem{{Ref: CatalogRef{ProductID: "p"}, Quantity: 1}}}
	cp := inv.Clone()
	cp.Items[0].Quantity = 5
	assert.Equal(t, 1, inv.Items[0].Quantity)
}

func TestCatalogQuantitiesSkipsCustomItems(t *testing.T) {
	inv := &Invoice{Items: []LineItem{
		{Ref: CatalogRef{ProductID: "p1"}, Quantity: 2},
		{Ref: CustomRef{Label: "Alteration"}, Quantity: 1},
		{Ref: CatalogRef{ProductID: "p1"}, Quantity: 1},
	}}
	assert.Equal(t, map[string]int{"p1": 3}, inv.CatalogQuantities())
}

func TestLineItemJSONKeepsVariant(t *testing.T) {
	items := []LineItem{
		{Ref: CatalogRef{ProductID: "prod-001"}, UnitPrice: dec("4999"), Quantity: 1, DiscountPercent: dec("10")},
		{Ref: CustomRef{Label: "Stitching"}, UnitPrice: dec("250"), Quantity: 2},
		{Quantity: 1},
	}
	blob, err := json.Marshal(items)
	require.NoError(t, err)

	var back []LineItem
	require.NoError(t, json.Unmarshal(blob, &back))
	require.Len(t, back, 3)
	assert.Equal(t, CatalogRef{ProductID: "prod-001"}, back[0].Ref)
	assert.Equal(t, CustomRef{Label: "Stitching"}, back[1].Ref)
	assert.Nil(t, back[2].Ref)
	assert.False(t, back[2].Resolved())
}

func TestRefFromPartsRejectsIncomplete(t *testing.T) {
	assert.Nil(t, RefFromParts(RefCatalog, "", "x"))
	assert.Nil(t, RefFromParts(RefCustom, "p", ""))
	assert.Nil(t, RefFromParts("other", "p", "x"))
}

func TestNewInvoiceVersion(t *testing.T) {
	inv := &Invoice{ID: "INV-1000", Total: dec("10")}
	v, err := NewInvoiceVersion(inv, 2, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "INV-1000", v.InvoiceID)
	assert.Equal(t, 2, v.VersionNo)
	assert.Contains(t, string(v.Snapshot), `"id":"INV-1000"`)
}

func TestErrors(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewNotFound("invoice", "INV-9"))
	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrNotFound))

	ve := NewValidationError()
	assert.NoError(t, ve.OrNil())
	ve.Add("items[0].reference", "required")
	ve.Add("customer", "required")
	assert.True(t, IsValidation(fmt.Errorf("submit: %w", ve.OrNil())))
	assert.Equal(t, "validation failed: customer: required; items[0].reference: required", ve.Error())
}
