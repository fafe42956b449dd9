package invoicing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"invoicing-backend/config"
	"invoicing-backend/models"
	"invoicing-backend/payment"
	"invoicing-backend/store"
	"invoicing-backend/utils"
)

const moduleName = "invoicing"

var validate = utils.NewValidator()

// Service wires forms to the catalog, directory and ledger.
type Service struct {
	catalog     store.Catalog
	directory   store.Directory
	ledger      store.Ledger
	logger      *logrus.Logger
	phoneRegion string
	now         func() time.Time
}

func NewService(catalog store.Catalog, directory store.Directory, ledger store.Ledger, logger *logrus.Logger, phoneRegion string) *Service {
	return &Service{
		catalog:     catalog,
		directory:   directory,
		ledger:      ledger,
		logger:      logger,
		phoneRegion: phoneRegion,
		now:         time.Now,
	}
}

// NewForm opens a create-mode form dated today.
func (s *Service) NewForm() *Form {
	label := fmt.Sprintf("DRAFT-%d", 1000+rand.Intn(9000))
	return NewCreateForm(label, s.now())
}

// LoadForm opens an edit-mode form. A missing invoice is a *models.NotFoundError.
func (s *Service) LoadForm(ctx context.Context, invoiceID string) (*Form, error) {
	inv, err := s.ledger.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return NewEditForm(inv), nil
}

// LineUpdate changes one line. Nil fields are left alone. Selecting a product
// copies its name, selling price and discount before the explicit overrides apply.
type LineUpdate struct {
	ProductID       *string
	Label           *string
	Quantity        *int
	UnitPrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

func (s *Service) UpdateLine(ctx context.Context, f *Form, i int, u LineUpdate) ([]payment.Write, error) {
	item, err := f.Line(i)
	if err != nil {
		return nil, err
	}

	switch {
	case u.ProductID != nil:
		p, err := s.catalog.GetProduct(ctx, *u.ProductID)
		if err != nil {
			return nil, err
		}
		item.Ref = models.CatalogRef{ProductID: p.Id}
		item.Description = p.Name
		item.UnitPrice = p.SellingPrice
		item.DiscountPercent = p.DiscountPercent
	case u.Label != nil:
		label := strings.TrimSpace(*u.Label)
		item.Ref = models.RefFromParts(models.RefCustom, "", label)
		item.Description = label
	}

	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.UnitPrice != nil {
		item.UnitPrice = *u.UnitPrice
	}
	if u.DiscountPercent != nil {
		item.DiscountPercent = *u.DiscountPercent
	}
	return f.SetLine(i, item)
}

// SelectCustomer sets the form's customer by id, or by phone when id is empty.
func (s *Service) SelectCustomer(ctx context.Context, f *Form, id, phone string) error {
	var (
		c   *models.Customer
		err error
	)
	switch {
	case id != "":
		c, err = s.directory.GetCustomer(ctx, id)
	case phone != "":
		var normalized string
		normalized, err = utils.NormalizePhone(phone, s.phoneRegion)
		if err != nil {
			ve := models.NewValidationError()
			ve.Add("phone", err.Error())
			return ve
		}
		c, err = s.directory.GetCustomerByPhone(ctx, normalized)
	default:
		ve := models.NewValidationError()
		ve.Add("customer_id", "customer id or phone is required")
		return ve
	}
	if err != nil {
		return err
	}
	f.SetCustomer(c)
	return nil
}

type submittedLine struct {
	Kind     models.RefKind `json:"ref" validate:"required,oneof=catalog custom"`
	Quantity int            `json:"quantity" validate:"min=1"`
}

type submission struct {
	CustomerID  string             `json:"customer_id" validate:"required"`
	PaymentMode models.PaymentMode `json:"payment_mode" validate:"required,oneof=Cash UPI Card"`
	Items       []submittedLine    `json:"items" validate:"required,min=1,dive"`
}

// check validates the form without touching any store.
func (f *Form) check() *models.ValidationError {
	sub := submission{PaymentMode: f.paymentMode}
	if f.customer != nil {
		sub.CustomerID = f.customer.Id
	}
	for _, item := range f.items {
		kind, _, _ := models.RefParts(item.Ref)
		sub.Items = append(sub.Items, submittedLine{Kind: kind, Quantity: item.Quantity})
	}

	ve := models.NewValidationError()
	var verrs validator.ValidationErrors
	if err := validate.Struct(sub); errors.As(err, &verrs) {
		for _, fe := range verrs {
			ve.Add(fieldPath(fe.Namespace()), fe.Tag())
		}
	}

	for i, item := range f.items {
		if item.UnitPrice.IsNegative() {
			ve.Add(fmt.Sprintf("items[%d].unit_price", i), "min")
		}
		if item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(utils.Hundred) {
			ve.Add(fmt.Sprintf("items[%d].discount_percent", i), "range")
		}
	}
	if f.payment.State().AmountPaid.IsNegative() {
		ve.Add("amount_paid", "min")
	}
	return ve
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// Submit validates the form and posts it to the ledger. Nothing is written
// unless every check passes. The ledger write and the stock it moves are one
// unit: in edit mode the quantities of the invoice being replaced go back
// first, then the new quantities leave.
func (s *Service) Submit(ctx context.Context, f *Form) (*models.Invoice, error) {
	ve := f.check()

	if f.customer != nil {
		c, err := s.directory.GetCustomer(ctx, f.customer.Id)
		switch {
		case models.IsNotFound(err):
			ve.Add("customer_id", "unknown customer")
		case err != nil:
			return nil, err
		default:
			f.SetCustomer(c)
		}
	}

	products := make(map[string]*models.Product)
	for i, item := range f.items {
		ref, ok := item.Ref.(models.CatalogRef)
		if !ok {
			continue
		}
		if _, seen := products[ref.ProductID]; seen {
			continue
		}
		p, err := s.catalog.GetProduct(ctx, ref.ProductID)
		switch {
		case models.IsNotFound(err):
			ve.Add(fmt.Sprintf("items[%d].product_id", i), "unknown product")
		case err != nil:
			return nil, err
		default:
			products[p.Id] = p
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	posted, err := s.ledger.Post(ctx, store.Posting{
		Invoice: f.Invoice(""),
		Replace: f.mode == ModeEdit,
	})
	if err != nil {
		config.LogError(s.logger, moduleName, "Submit", "post invoice", f.label, err)
		return nil, err
	}
	s.logStock(posted, products)

	inv := posted.Invoice
	s.logger.WithFields(logrus.Fields{
		"module":    moduleName,
		"invoiceId": inv.ID,
		"mode":      f.mode,
		"total":     inv.Total.String(),
		"items":     len(inv.Items),
	}).Info("invoice submitted")

	// The form now edits what it just stored, with the amount paid held fixed.
	f.mode = ModeEdit
	f.label = inv.ID
	f.original = inv.Clone()
	paid := inv.AmountPaid
	f.payment = payment.NewForEdit(inv.Total, &paid)
	return inv, nil
}

func (s *Service) logStock(posted *store.Posted, products map[string]*models.Product) {
	for _, id := range posted.Skipped {
		s.logger.WithFields(logrus.Fields{"module": moduleName, "productId": id}).
			Warn("product removed from catalog, stock not restored")
	}
	for _, m := range posted.Moves {
		p, ok := products[m.ProductID]
		if !ok || m.Delta >= 0 || m.Quantity > p.MinStockAlert {
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"module":    moduleName,
			"productId": m.ProductID,
			"name":      p.Name,
			"quantity":  m.Quantity,
		}).Warn("low stock")
	}
}
