package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing-backend/models"
)

func invoiceOf(lines map[string]int) *models.Invoice {
	inv := &models.Invoice{}
	for _, id := range SortedKeys(lines) {
		inv.Items = append(inv.Items, models.LineItem{Ref: models.CatalogRef{ProductID: id}, Quantity: lines[id]})
	}
	inv.Items = append(inv.Items, models.LineItem{Ref: models.CustomRef{Label: "Stitching"}, Quantity: 1})
	return inv
}

func TestPlanStockRestoresBeforeTaking(t *testing.T) {
	stock := map[string]int{"prod-001": 15, "prod-003": 25}
	lookup := func(id string) (int, bool) {
		q, ok := stock[id]
		return q, ok
	}

	prev := invoiceOf(map[string]int{"prod-001": 1, "prod-003": 2, "prod-gone": 4})
	next := invoiceOf(map[string]int{"prod-003": 5})

	moves, skipped, err := PlanStock(prev, next, lookup)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-gone"}, skipped)
	assert.Equal(t, []StockMove{
		{ProductID: "prod-001", Delta: 1, Quantity: 16},
		{ProductID: "prod-003", Delta: 2, Quantity: 27},
		{ProductID: "prod-003", Delta: -5, Quantity: 22},
	}, moves)

	// Stock may go negative.
	moves, _, err = PlanStock(nil, invoiceOf(map[string]int{"prod-001": 20}), lookup)
	require.NoError(t, err)
	assert.Equal(t, []StockMove{{ProductID: "prod-001", Delta: -20, Quantity: -5}}, moves)

	_, _, err = PlanStock(nil, invoiceOf(map[string]int{"prod-gone": 1}), lookup)
	assert.True(t, models.IsNotFound(err))
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Page(items, 2, 2))
	assert.Equal(t, items, Page(items, 0, 0))
	assert.Empty(t, Page(items, 9, 2))
}
