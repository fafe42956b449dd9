package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/store"
	"invoicing-backend/utils"
)

type ProductInput struct {
	Name            string       `json:"name" validate:"required,max=200"`
	Category        string       `json:"category" validate:"max=100"`
	SKU             string       `json:"sku" validate:"max=64"`
	Size            string       `json:"size" validate:"omitempty,oneof=S M L XL 'Free Size'"`
	Color           string       `json:"color" validate:"max=50"`
	PurchasePrice   utils.Amount `json:"purchase_price"`
	SellingPrice    utils.Amount `json:"selling_price"`
	DiscountPercent utils.Amount `json:"discount_percent"`
	Quantity        int          `json:"quantity" validate:"min=0"`
	MinStockAlert   int          `json:"min_stock_alert" validate:"min=0"`
	ImageURL        string       `json:"image_url" validate:"omitempty,url"`
}

// ProductPatch is a partial update. Absent keys keep their stored value.
type ProductPatch struct {
	Name            *string       `json:"name" validate:"omitempty,min=1,max=200"`
	Category        *string       `json:"category" validate:"omitempty,max=100"`
	SKU             *string       `json:"sku" validate:"omitempty,max=64"`
	Size            *string       `json:"size" validate:"omitempty,oneof=S M L XL 'Free Size'"`
	Color           *string       `json:"color" validate:"omitempty,max=50"`
	PurchasePrice   *utils.Amount `json:"purchase_price"`
	SellingPrice    *utils.Amount `json:"selling_price"`
	DiscountPercent *utils.Amount `json:"discount_percent"`
	MinStockAlert   *int          `json:"min_stock_alert" validate:"omitempty,min=0"`
	ImageURL        *string       `json:"image_url" validate:"omitempty,url"`
}

type StockInput struct {
	Delta int `json:"delta" validate:"required"`
}

// checkPrices rejects negative prices and discounts outside [0, 100].
func checkPrices(purchase, selling, discount decimal.Decimal) error {
	ve := models.NewValidationError()
	if purchase.IsNegative() {
		ve.Add("purchase_price", "min")
	}
	if selling.IsNegative() {
		ve.Add("selling_price", "min")
	}
	if discount.IsNegative() || discount.GreaterThan(utils.Hundred) {
		ve.Add("discount_percent", "range")
	}
	return ve.OrNil()
}

func (h *Controller) CreateProduct(c *fiber.Ctx) error {
	var input ProductInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if err := checkPrices(input.PurchasePrice.Decimal, input.SellingPrice.Decimal, input.DiscountPercent.Decimal); err != nil {
		return err
	}

	product := models.Product{
		Name:            input.Name,
		Category:        input.Category,
		SKU:             input.SKU,
		Size:            models.Size(input.Size),
		Color:           input.Color,
		PurchasePrice:   input.PurchasePrice.Decimal,
		SellingPrice:    input.SellingPrice.Decimal,
		DiscountPercent: input.DiscountPercent.Decimal,
		Quantity:        input.Quantity,
		MinStockAlert:   input.MinStockAlert,
		ImageURL:        input.ImageURL,
	}
	if err := h.Store.CreateProduct(c.UserContext(), &product); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *Controller) GetProducts(c *fiber.Ctx) error {
	limit, offset := paging(c)
	products, err := h.Store.ListProducts(c.UserContext(), store.ListOpts{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"products": products,
		"message":  "success",
	})
}

func (h *Controller) GetLowStock(c *fiber.Ctx) error {
	products, err := h.Store.ListLowStock(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"products": products,
		"message":  "success",
	})
}

func (h *Controller) GetProduct(c *fiber.Ctx) error {
	product, err := h.Store.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *Controller) UpdateProduct(c *fiber.Ctx) error {
	var patch ProductPatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}

	ctx := c.UserContext()
	product, err := h.Store.GetProduct(ctx, c.Params("id"))
	if err != nil {
		return err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.SKU != nil {
		product.SKU = *patch.SKU
	}
	if patch.Size != nil {
		product.Size = models.Size(*patch.Size)
	}
	if patch.Color != nil {
		product.Color = *patch.Color
	}
	if patch.PurchasePrice != nil {
		product.PurchasePrice = patch.PurchasePrice.Decimal
	}
	if patch.SellingPrice != nil {
		product.SellingPrice = patch.SellingPrice.Decimal
	}
	if patch.DiscountPercent != nil {
		product.DiscountPercent = patch.DiscountPercent.Decimal
	}
	if patch.MinStockAlert != nil {
		product.MinStockAlert = *patch.MinStockAlert
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}
	if err := checkPrices(product.PurchasePrice, product.SellingPrice, product.DiscountPercent); err != nil {
		return err
	}

	if err := h.Store.UpdateProduct(ctx, product); err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *Controller) DeleteProduct(c *fiber.Ctx) error {
	if err := h.Store.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdjustStock applies a manual stock correction (restock, shrinkage).
func (h *Controller) AdjustStock(c *fiber.Ctx) error {
	var input StockInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	id := c.Params("id")
	qty, err := h.Store.AdjustStock(c.UserContext(), id, input.Delta)
	if err != nil {
		return err
	}
	h.Logger.WithFields(logrus.Fields{
		"module":    "catalog",
		"productId": id,
		"delta":     input.Delta,
		"quantity":  qty,
	}).Info("stock adjusted")
	return c.JSON(fiber.Map{"id": id, "quantity": qty})
}
