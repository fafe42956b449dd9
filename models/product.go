package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Size string

const (
	SizeS        Size = "S"
	SizeM        Size = "M"
	SizeL        Size = "L"
	SizeXL       Size = "XL"
	SizeFreeSize Size = "Free Size"
)

// Product is a catalog entry. Quantity is the stock on hand.
type Product struct {
	Id              string          `json:"id" gorm:"primaryKey"`
	Name            string          `json:"name" gorm:"not null"`
	Category        string          `json:"category"`
	SKU             string          `json:"sku" gorm:"index"`
	Size            Size            `json:"size"`
	Color           string          `json:"color"`
	PurchasePrice   decimal.Decimal `json:"purchase_price" gorm:"type:numeric(12,2)"`
	SellingPrice    decimal.Decimal `json:"selling_price" gorm:"type:numeric(12,2)"`
	DiscountPercent decimal.Decimal `json:"discount_percent" gorm:"type:numeric(5,2)"`
	Quantity        int             `json:"quantity"`
	MinStockAlert   int             `json:"min_stock_alert"`
	ImageURL        string          `json:"image_url"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	product.AssignID()
	return
}

// AssignID gives the product a UUID v4 unless it already has one.
func (product *Product) AssignID() {
	if product.Id == "" {
		product.Id = uuid.NewString()
	}
	if product.ImageURL == "" {
		seed := product.SKU
		if seed == "" {
			seed = product.Id
		}
		product.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/400/400", seed)
	}
}

// LowStock reports whether stock is at or below the alert threshold.
func (product *Product) LowStock() bool {
	return product.Quantity <= product.MinStockAlert
}
