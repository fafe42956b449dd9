// Package store declares the collaborators the invoicing core talks to.
package store

import (
	"context"
	"sort"

	"invoicing-backend/models"
)

// ListOpts filters and pages list queries. Query matches case-insensitively
// against the entity's searchable fields.
type ListOpts struct {
	Query  string
	Limit  int
	Offset int
}

// InvoiceListOpts adds a customer filter. Invoices list newest first.
type InvoiceListOpts struct {
	CustomerID string
	Limit      int
	Offset     int
}

// Catalog holds products and their stock.
type Catalog interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, opts ListOpts) ([]*models.Product, error)
	ListLowStock(ctx context.Context) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	// AdjustStock adds delta (negative when stock leaves) and returns the new quantity.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

// Directory holds customers.
type Directory interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	ListCustomers(ctx context.Context, opts ListOpts) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
}

// Ledger is the authoritative list of finalized invoices. Stored invoices are
// never patched; a replacing Post swaps the whole document and keeps the old
// one as a version.
type Ledger interface {
	// Append records an invoice as is, without moving stock.
	Append(ctx context.Context, inv *models.Invoice) error
	Post(ctx context.Context, p Posting) (*Posted, error)
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, opts InvoiceListOpts) ([]*models.Invoice, error)
	ListVersions(ctx context.Context, id string) ([]models.InvoiceVersion, error)
}

// Posting is a submitted invoice. It is written to the ledger and its catalog
// quantities leave stock as one unit: either all of it applies or none does.
type Posting struct {
	Invoice *models.Invoice
	// Replace swaps the stored invoice with the same ID. Otherwise the invoice
	// is appended, numbered by the ledger when its ID is empty.
	Replace bool
}

// StockMove is one stock change made by a posting. Quantity is the stock after it.
type StockMove struct {
	ProductID string
	Delta     int
	Quantity  int
}

type Posted struct {
	Invoice *models.Invoice
	// Previous is the invoice that was replaced, as the ledger held it.
	Previous *models.Invoice
	Moves    []StockMove
	// Skipped lists products of Previous no longer in the catalog.
	Skipped []string
}

// PlanStock orders the stock moves of a posting. The quantities of prev go
// back first, then those of next leave. stock reports a product's current
// quantity. A product missing from the catalog is skipped when restoring and
// is a *models.NotFoundError when taking.
func PlanStock(prev, next *models.Invoice, stock func(id string) (int, bool)) ([]StockMove, []string, error) {
	current := make(map[string]int)
	lookup := func(id string) (int, bool) {
		if q, ok := current[id]; ok {
			return q, true
		}
		return stock(id)
	}

	var (
		moves   []StockMove
		skipped []string
	)
	if prev != nil {
		restore := prev.CatalogQuantities()
		for _, id := range SortedKeys(restore) {
			q, ok := lookup(id)
			if !ok {
				skipped = append(skipped, id)
				continue
			}
			current[id] = q + restore[id]
			moves = append(moves, StockMove{ProductID: id, Delta: restore[id], Quantity: current[id]})
		}
	}

	take := next.CatalogQuantities()
	for _, id := range SortedKeys(take) {
		q, ok := lookup(id)
		if !ok {
			return nil, nil, models.NewNotFound("product", id)
		}
		current[id] = q - take[id]
		moves = append(moves, StockMove{ProductID: id, Delta: -take[id], Quantity: current[id]})
	}
	return moves, skipped, nil
}

// SortedKeys returns the keys of m in order, so stock rows are always
// touched in the same sequence.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store is everything the composition root hands out.
type Store interface {
	Catalog
	Directory
	Ledger
	Close() error
}

// Page applies offset/limit to an already filtered slice. Limit 0 means no limit.
func Page[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
