package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicing-backend/config"
	"invoicing-backend/models"
)

var opts = Options{ShopName: "Kavya Boutique", Currency: "INR"}

func sampleInvoice() *models.Invoice {
	return &models.Invoice{
		ID:            "INV-1001",
		Date:          time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC),
		CustomerID:    "cust-002",
		CustomerName:  "Sunita Sharma",
		CustomerPhone: "+919876543211",
		Items: []models.LineItem{
			{Ref: models.CatalogRef{ProductID: "prod-002"}, Description: "Designer Anarkali Gown", UnitPrice: decimal.NewFromInt(7999), Quantity: 1, DiscountPercent: decimal.NewFromInt(15)},
			{Quantity: 1},
		},
		Subtotal:    decimal.NewFromInt(7999),
		Discount:    decimal.RequireFromString("1199.85"),
		Total:       decimal.RequireFromString("6799.15"),
		PaymentMode: models.PaymentUPI,
		AmountPaid:  decimal.NewFromInt(7000),
	}
}

func sampleView(t *testing.T) View {
	t.Helper()
	v, err := NewView(sampleInvoice(), opts)
	require.NoError(t, err)
	return v
}

func TestNewView(t *testing.T) {
	v := sampleView(t)
	assert.Equal(t, "09 Mar 2025", v.Date)
	assert.Equal(t, "INR 6799.15", v.Total)
	assert.Equal(t, "INR 6799.00", v.RoundedTotal)
	assert.Equal(t, "Change", v.BalanceLabel)
	assert.Equal(t, "INR 200.85", v.BalanceValue)

	// The unfinished second row is not shown.
	require.Len(t, v.Lines, 1)
	assert.Equal(t, "INR 6799.15", v.Lines[0].Net)
	assert.Equal(t, "15%", v.Lines[0].DiscountPercent)
}

func TestNewViewNeedsCustomer(t *testing.T) {
	inv := sampleInvoice()
	inv.CustomerID = ""
	_, err := NewView(inv, opts)
	assert.True(t, models.IsValidation(err))
}

func TestSummaryText(t *testing.T) {
	want := "*Invoice Summary from Kavya Boutique*\n" +
		"-----------------------------\n" +
		"Invoice ID: INV-1001\n" +
		"Customer: Sunita Sharma\n" +
		"Total Amount: INR 6799.15\n" +
		"-----------------------------\n" +
		"Thank you for your business!"
	assert.Equal(t, want, SummaryText(sampleView(t)))
}

func TestMessageLink(t *testing.T) {
	link := MessageLink("Total Amount: INR 1+1\nok")
	assert.True(t, strings.HasPrefix(link, "https://wa.me/?text="))
	assert.Contains(t, link, "Total%20Amount%3A%20INR%201%2B1%0Aok")
	assert.NotContains(t, link, "+")
}

func TestPDF(t *testing.T) {
	b, err := PDF(sampleView(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestPNGIsScaled(t *testing.T) {
	b, err := PNG(sampleView(t), opts)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, pngWidth*2, img.Bounds().Dx())

	b, err = PNG(sampleView(t), Options{Scale: 1})
	require.NoError(t, err)
	img, err = imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, pngWidth, img.Bounds().Dx())
}

func TestLedgerXLSX(t *testing.T) {
	b, err := LedgerXLSX([]*models.Invoice{sampleInvoice()})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(ledgerSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice", header)

	id, err := f.GetCellValue(ledgerSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "INV-1001", id)

	total, err := f.GetCellValue(ledgerSheet, "I2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "6799.15", total)

	balance, err := f.GetCellValue(ledgerSheet, "L2")
	require.NoError(t, err)
	assert.Equal(t, "Change", balance)
}

type fakeUploader struct {
	err  error
	name string
}

func (f *fakeUploader) Upload(_ context.Context, objectName string, _ []byte, _ string) (string, error) {
	f.name = objectName
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + objectName, nil
}

func TestShareUploads(t *testing.T) {
	up := &fakeUploader{}
	res := NewSharer(up, config.NewNopLogger()).Share(context.Background(), sampleView(t), []byte("png"))
	assert.Equal(t, ShareUpload, res.Method)
	assert.Equal(t, "https://cdn.example.com/"+up.name, res.URL)
	assert.True(t, strings.HasPrefix(up.name, "invoices/INV-1001-"))
}

func TestShareFallsBackToMessage(t *testing.T) {
	v := sampleView(t)

	failing := NewSharer(&fakeUploader{err: errors.New("bucket gone")}, config.NewNopLogger())
	res := failing.Share(context.Background(), v, []byte("png"))
	assert.Equal(t, ShareMessage, res.Method)
	assert.Equal(t, MessageLink(SummaryText(v)), res.URL)
	assert.Equal(t, SummaryText(v), res.Message)

	res = NewSharer(nil, config.NewNopLogger()).Share(context.Background(), v, []byte("png"))
	assert.Equal(t, ShareMessage, res.Method)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Invoice-INV-1001.pdf", Filename("INV-1001", "pdf"))
}
