package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoicing-backend/models"
	"invoicing-backend/store"
)

// An empty ledger hands out INV-1000 first.
const invoiceBase = 999

// Store implements store.Store on gorm.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// notFound maps gorm.ErrRecordNotFound to a typed domain error.
func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFound(entity, id)
	}
	return err
}

func duplicate(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s %s: %w", entity, id, models.ErrAlreadyExists)
	}
	return err
}

func like(q string) string {
	return "%" + strings.ToLower(q) + "%"
}

func page(db *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		db = db.Offset(offset)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	return db
}

// Catalog

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	p.AssignID()
	return duplicate(s.db.WithContext(ctx).Create(p).Error, "product", p.Id)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, opts store.ListOpts) ([]*models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if opts.Query != "" {
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like(opts.Query), like(opts.Query))
	}
	var out []*models.Product
	if err := page(q.Order("name"), opts.Offset, opts.Limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	var out []*models.Product
	err := s.db.WithContext(ctx).
		Where("quantity <= min_stock_alert").
		Order("quantity").
		Find(&out).Error
	return out, err
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", p.Id).
		Select("*").Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFound("product", p.Id)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFound("product", id)
	}
	return nil
}

// AdjustStock is a single UPDATE, so concurrent corrections never lose a delta.
func (s *Store) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var qty int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ?", id).
			Update("quantity", gorm.Expr("quantity + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFound("product", id)
		}
		return tx.Model(&models.Product{}).Where("id = ?", id).Select("quantity").Scan(&qty).Error
	})
	return qty, err
}

// Directory

func phoneTaken() error {
	ve := models.NewValidationError()
	ve.Add("phone", "already registered to another customer")
	return ve
}

func (s *Store) checkPhone(tx *gorm.DB, c *models.Customer) error {
	var n int64
	if err := tx.Model(&models.Customer{}).Where("phone = ? AND id <> ?", c.Phone, c.Id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return phoneTaken()
	}
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.AssignID()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkPhone(tx, c); err != nil {
			return err
		}
		err := tx.Create(c).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return phoneTaken()
		}
		return err
	})
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "customer", id)
	}
	return &c, nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).First(&c, "phone = ?", phone).Error; err != nil {
		return nil, notFound(err, "customer", phone)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context, opts store.ListOpts) ([]*models.Customer, error) {
	q := s.db.WithContext(ctx).Model(&models.Customer{})
	if opts.Query != "" {
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ?", like(opts.Query), like(opts.Query))
	}
	var out []*models.Customer
	if err := page(q.Order("name"), opts.Offset, opts.Limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkPhone(tx, c); err != nil {
			return err
		}
		res := tx.Model(&models.Customer{}).
			Where("id = ?", c.Id).
			Select("name", "phone", "email", "updated_at").
			Updates(c)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return phoneTaken()
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFound("customer", c.Id)
		}
		return nil
	})
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFound("customer", id)
	}
	return nil
}

// Ledger

// nextInvoiceID does not reserve the number; a concurrent append of the same
// id fails with ErrAlreadyExists.
func nextInvoiceID(tx *gorm.DB) (string, error) {
	var last int
	err := tx.Model(&invoiceRow{}).
		Select("COALESCE(MAX(number), ?)", invoiceBase).
		Scan(&last).Error
	if err != nil {
		return "", err
	}
	return models.FormatInvoiceID(last + 1), nil
}

func (s *Store) Append(ctx context.Context, inv *models.Invoice) error {
	return appendInvoice(s.db.WithContext(ctx), inv)
}

func appendInvoice(tx *gorm.DB, inv *models.Invoice) error {
	if inv.ID == "" {
		id, err := nextInvoiceID(tx)
		if err != nil {
			return err
		}
		inv.ID = id
	}
	row := toRow(inv)
	if err := tx.Create(row).Error; err != nil {
		return duplicate(err, "invoice", inv.ID)
	}
	inv.CreatedAt, inv.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

// replaceInvoice swaps the invoice and its items, keeping the locked previous
// state as the next InvoiceVersion. It returns that previous state.
func replaceInvoice(tx *gorm.DB, inv *models.Invoice) (*models.Invoice, error) {
	var prevRow invoiceRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", orderedItems).
		First(&prevRow, "id = ?", inv.ID).Error
	if err != nil {
		return nil, notFound(err, "invoice", inv.ID)
	}
	prev := fromRow(&prevRow)

	var n int64
	if err := tx.Model(&models.InvoiceVersion{}).Where("invoice_id = ?", inv.ID).Count(&n).Error; err != nil {
		return nil, err
	}
	version, err := models.NewInvoiceVersion(prev, int(n)+1, tx.NowFunc())
	if err != nil {
		return nil, err
	}
	if err := tx.Create(&version).Error; err != nil {
		return nil, err
	}

	if err := tx.Where("invoice_id = ?", inv.ID).Delete(&invoiceItemRow{}).Error; err != nil {
		return nil, err
	}

	inv.CreatedAt = prevRow.CreatedAt
	row := toRow(inv)
	if err := tx.Omit("Items").Save(row).Error; err != nil {
		return nil, err
	}
	if len(row.Items) > 0 {
		if err := tx.Create(&row.Items).Error; err != nil {
			return nil, err
		}
	}
	inv.UpdatedAt = row.UpdatedAt
	return prev, nil
}

type stockRow struct {
	ID       string
	Quantity int
}

// lockStock reads the quantities of ids with their rows locked until the
// transaction ends.
func lockStock(tx *gorm.DB, ids []string) (map[string]int, error) {
	stock := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return stock, nil
	}
	var rows []stockRow
	err := tx.Model(&models.Product{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "quantity").
		Where("id IN ?", ids).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stock[r.ID] = r.Quantity
	}
	return stock, nil
}

// Post writes the invoice and moves stock in one transaction. Replacing
// locks the stored invoice first, so stock is restored from what the ledger
// held at that moment rather than from whatever the caller loaded earlier.
func (s *Store) Post(ctx context.Context, p store.Posting) (*store.Posted, error) {
	inv := p.Invoice.Clone()
	out := &store.Posted{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p.Replace {
			out.Previous, err = replaceInvoice(tx, inv)
		} else {
			err = appendInvoice(tx, inv)
		}
		if err != nil {
			return err
		}

		touched := inv.CatalogQuantities()
		if out.Previous != nil {
			for id := range out.Previous.CatalogQuantities() {
				touched[id] = 0
			}
		}
		stock, err := lockStock(tx, store.SortedKeys(touched))
		if err != nil {
			return err
		}
		out.Moves, out.Skipped, err = store.PlanStock(out.Previous, inv, func(id string) (int, bool) {
			q, ok := stock[id]
			return q, ok
		})
		if err != nil {
			return err
		}

		for _, m := range out.Moves {
			err := tx.Model(&models.Product{}).
				Where("id = ?", m.ProductID).
				Update("quantity", gorm.Expr("quantity + ?", m.Delta)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Invoice = inv
	return out, nil
}

func orderedItems(db *gorm.DB) *gorm.DB { return db.Order("position") }

func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var row invoiceRow
	if err := s.db.WithContext(ctx).Preload("Items", orderedItems).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "invoice", id)
	}
	return fromRow(&row), nil
}

func (s *Store) ListInvoices(ctx context.Context, opts store.InvoiceListOpts) ([]*models.Invoice, error) {
	q := s.db.WithContext(ctx).Model(&invoiceRow{}).Preload("Items", orderedItems)
	if opts.CustomerID != "" {
		q = q.Where("customer_id = ?", opts.CustomerID)
	}
	var rows []invoiceRow
	if err := page(q.Order("date DESC").Order("number DESC"), opts.Offset, opts.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Invoice, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out, nil
}

func (s *Store) ListVersions(ctx context.Context, id string) ([]models.InvoiceVersion, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&invoiceRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.NewNotFound("invoice", id)
	}
	var versions []models.InvoiceVersion
	err := s.db.WithContext(ctx).Where("invoice_id = ?", id).Order("version_no").Find(&versions).Error
	return versions, err
}
