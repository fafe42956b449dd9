package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invoicing-backend/models"
	"invoicing-backend/pricing"
	"invoicing-backend/utils"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func demoProducts() []*models.Product {
	return []*models.Product{
		{Id: "prod-001", Name: "Elegant Silk Saree", Category: "Saree", SKU: "SAR001", Size: models.SizeFreeSize, Color: "Royal Blue", PurchasePrice: d(2500), SellingPrice: d(4999), DiscountPercent: d(10), Quantity: 15, MinStockAlert: 5, ImageURL: "https://picsum.photos/seed/saree1/400/400"},
		{Id: "prod-002", Name: "Designer Anarkali Gown", Category: "Gown", SKU: "GWN001", Size: models.SizeM, Color: "Maroon", PurchasePrice: d(4000), SellingPrice: d(7999), DiscountPercent: d(15), Quantity: 8, MinStockAlert: 3, ImageURL: "https://picsum.photos/seed/gown1/400/400"},
		{Id: "prod-003", Name: "Cotton Comfort Kurti", Category: "Kurti", SKU: "KUR001", Size: models.SizeL, Color: "Yellow", PurchasePrice: d(800), SellingPrice: d(1499), DiscountPercent: d(5), Quantity: 25, MinStockAlert: 10, ImageURL: "https://picsum.photos/seed/kurti1/400/400"},
		{Id: "prod-004", Name: "Classic Bandhgala Suit", Category: "Suit", SKU: "SUT001", Size: models.SizeXL, Color: "Black", PurchasePrice: d(5000), SellingPrice: d(9999), DiscountPercent: d(0), Quantity: 12, MinStockAlert: 5, ImageURL: "https://picsum.photos/seed/suit1/400/400"},
		{Id: "prod-005", Name: "Printed Georgette Saree", Category: "Saree", SKU: "SAR002", Size: models.SizeFreeSize, Color: "Pink", PurchasePrice: d(1200), SellingPrice: d(2499), DiscountPercent: d(0), Quantity: 5, MinStockAlert: 5, ImageURL: "https://picsum.photos/seed/saree2/400/400"},
		{Id: "prod-006", Name: "Hand-embroidered Kurti", Category: "Kurti", SKU: "KUR002", Size: models.SizeS, Color: "White", PurchasePrice: d(1500), SellingPrice: d(2999), DiscountPercent: d(10), Quantity: 3, MinStockAlert: 2, ImageURL: "https://picsum.photos/seed/kurti2/400/400"},
	}
}

func demoCustomers() []*models.Customer {
	return []*models.Customer{
		{Id: "cust-001", Name: "Ravi Kumar", Phone: "9876543210", Email: "ravi@example.com"},
		{Id: "cust-002", Name: "Sunita Sharma", Phone: "9876543211", Email: "sunita@example.com"},
		{Id: "cust-003", Name: "Anjali Verma", Phone: "9876543212", Email: "anjali@example.com"},
	}
}

func catalogLine(p *models.Product, qty int) models.LineItem {
	return models.LineItem{
		Ref:             models.CatalogRef{ProductID: p.Id},
		Description:     p.Name,
		UnitPrice:       p.SellingPrice,
		Quantity:        qty,
		DiscountPercent: p.DiscountPercent,
	}
}

// SeedDemo loads the demo catalog, customers and two past invoices. It is a
// no-op when the first demo product already exists. Seeded invoices do not
// move stock.
func SeedDemo(ctx context.Context, st Store, phoneRegion string, now time.Time) error {
	if _, err := st.GetProduct(ctx, "prod-001"); err == nil {
		return nil
	} else if !models.IsNotFound(err) {
		return err
	}

	products := demoProducts()
	byID := make(map[string]*models.Product, len(products))
	for _, p := range products {
		if err := st.CreateProduct(ctx, p); err != nil {
			return err
		}
		byID[p.Id] = p
	}

	customers := demoCustomers()
	byCust := make(map[string]*models.Customer, len(customers))
	for _, c := range customers {
		phone, err := utils.NormalizePhone(c.Phone, phoneRegion)
		if err != nil {
			return err
		}
		c.Phone = phone
		if err := st.CreateCustomer(ctx, c); err != nil {
			return err
		}
		byCust[c.Id] = c
	}

	invoices := []struct {
		id       string
		daysAgo  int
		customer string
		items    []models.LineItem
		mode     models.PaymentMode
		paid     decimal.Decimal
	}{
		{"INV-1000", 2, "cust-001", []models.LineItem{catalogLine(byID["prod-001"], 1), catalogLine(byID["prod-003"], 2)}, models.PaymentCard, d(7347.2)},
		{"INV-1001", 1, "cust-002", []models.LineItem{catalogLine(byID["prod-002"], 1)}, models.PaymentUPI, d(7000)},
	}
	for _, seed := range invoices {
		c := byCust[seed.customer]
		totals := pricing.ComputeTotals(seed.items)
		inv := &models.Invoice{
			ID:            seed.id,
			Date:          now.AddDate(0, 0, -seed.daysAgo),
			CustomerID:    c.Id,
			CustomerName:  c.Name,
			CustomerPhone: c.Phone,
			Items:         seed.items,
			Subtotal:      totals.Subtotal,
			Discount:      totals.Discount,
			Total:         totals.Total,
			PaymentMode:   seed.mode,
			AmountPaid:    seed.paid,
		}
		if err := st.Append(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}
