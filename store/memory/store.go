// Package memory is the default, process-local implementation of store.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"invoicing-backend/models"
	"invoicing-backend/store"
)

// An empty ledger hands out INV-1000 first.
const invoiceBase = 999

type Store struct {
	mu sync.RWMutex

	products  map[string]*models.Product
	customers map[string]*models.Customer

	invoices map[string]*models.Invoice
	versions map[string][]models.InvoiceVersion
	lastNo   int

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products:  make(map[string]*models.Product),
		customers: make(map[string]*models.Customer),
		invoices:  make(map[string]*models.Invoice),
		versions:  make(map[string][]models.InvoiceVersion),
		lastNo:    invoiceBase,
		now:       time.Now,
	}
}

func (s *Store) Close() error { return nil }

// Catalog

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.AssignID()
	if _, exists := s.products[p.Id]; exists {
		return fmt.Errorf("product %s: %w", p.Id, models.ErrAlreadyExists)
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.products[p.Id] = &cp
	return nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, models.NewNotFound("product", id)
}

func (s *Store) ListProducts(_ context.Context, opts store.ListOpts) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(opts.Query)
	result := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return store.Page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListLowStock(_ context.Context) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Product, 0)
	for _, p := range s.products {
		if p.LowStock() {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Quantity < result[j].Quantity })
	return result, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.Id]
	if !ok {
		return models.NewNotFound("product", p.Id)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	cp := *p
	s.products[p.Id] = &cp
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return models.NewNotFound("product", id)
	}
	delete(s.products, id)
	return nil
}

// AdjustStock lets stock go negative: an invoice for goods already handed
// over is still recorded.
func (s *Store) AdjustStock(_ context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return 0, models.NewNotFound("product", id)
	}
	p.Quantity += delta
	p.UpdatedAt = s.now()
	return p.Quantity, nil
}

// Directory

func (s *Store) CreateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.AssignID()
	if _, exists := s.customers[c.Id]; exists {
		return fmt.Errorf("customer %s: %w", c.Id, models.ErrAlreadyExists)
	}
	if err := s.checkPhoneLocked(c); err != nil {
		return err
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.customers[c.Id] = &cp
	return nil
}

func (s *Store) checkPhoneLocked(c *models.Customer) error {
	for _, other := range s.customers {
		if other.Id != c.Id && other.Phone == c.Phone {
			ve := models.NewValidationError()
			ve.Add("phone", "already registered to another customer")
			return ve
		}
	}
	return nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, models.NewNotFound("customer", id)
}

func (s *Store) GetCustomerByPhone(_ context.Context, phone string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customers {
		if c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.NewNotFound("customer", phone)
}

func (s *Store) ListCustomers(_ context.Context, opts store.ListOpts) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(opts.Query)
	result := make([]*models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, q) {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return store.Page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[c.Id]
	if !ok {
		return models.NewNotFound("customer", c.Id)
	}
	if err := s.checkPhoneLocked(c); err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	cp := *c
	s.customers[c.Id] = &cp
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return models.NewNotFound("customer", id)
	}
	delete(s.customers, id)
	return nil
}

// Ledger

func (s *Store) Append(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(inv)
}

func (s *Store) appendLocked(inv *models.Invoice) error {
	if _, exists := s.invoices[inv.ID]; exists {
		return fmt.Errorf("invoice %s: %w", inv.ID, models.ErrAlreadyExists)
	}
	if n, ok := models.InvoiceNumber(inv.ID); ok && n > s.lastNo {
		s.lastNo = n
	}
	now := s.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

// replaceLocked keeps prev as the next version of the invoice.
func (s *Store) replaceLocked(prev, inv *models.Invoice) error {
	id := prev.ID
	now := s.now()
	version, err := models.NewInvoiceVersion(prev, len(s.versions[id])+1, now)
	if err != nil {
		return err
	}
	version.ID = uint(len(s.versions[id]) + 1)
	s.versions[id] = append(s.versions[id], version)

	inv.CreatedAt = prev.CreatedAt
	inv.UpdatedAt = now
	s.invoices[id] = inv.Clone()
	return nil
}

// Post runs under the write lock, so the replaced invoice it restores stock
// from is the one the ledger holds at that moment. Stock may go negative: an
// invoice for goods already handed over is still recorded.
func (s *Store) Post(_ context.Context, p store.Posting) (*store.Posted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := p.Invoice.Clone()
	var prev *models.Invoice
	if p.Replace {
		cur, ok := s.invoices[inv.ID]
		if !ok {
			return nil, models.NewNotFound("invoice", inv.ID)
		}
		prev = cur.Clone()
	} else if inv.ID == "" {
		inv.ID = models.FormatInvoiceID(s.lastNo + 1)
	}

	moves, skipped, err := store.PlanStock(prev, inv, func(id string) (int, bool) {
		if product, ok := s.products[id]; ok {
			return product.Quantity, true
		}
		return 0, false
	})
	if err != nil {
		return nil, err
	}

	if prev != nil {
		err = s.replaceLocked(prev, inv)
	} else {
		err = s.appendLocked(inv)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, m := range moves {
		product := s.products[m.ProductID]
		product.Quantity = m.Quantity
		product.UpdatedAt = now
	}
	return &store.Posted{Invoice: inv.Clone(), Previous: prev, Moves: moves, Skipped: skipped}, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[id]; ok {
		return inv.Clone(), nil
	}
	return nil, models.NewNotFound("invoice", id)
}

func (s *Store) ListInvoices(_ context.Context, opts store.InvoiceListOpts) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if opts.CustomerID != "" && inv.CustomerID != opts.CustomerID {
			continue
		}
		result = append(result, inv.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return newerFirst(result[i], result[j]) })
	return store.Page(result, opts.Offset, opts.Limit), nil
}

func newerFirst(a, b *models.Invoice) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	an, _ := models.InvoiceNumber(a.ID)
	bn, _ := models.InvoiceNumber(b.ID)
	return an > bn
}

func (s *Store) ListVersions(_ context.Context, id string) ([]models.InvoiceVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.invoices[id]; !ok {
		return nil, models.NewNotFound("invoice", id)
	}
	out := make([]models.InvoiceVersion, len(s.versions[id]))
	copy(out, s.versions[id])
	return out, nil
}
