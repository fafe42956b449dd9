package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders v as a single A4 page (more if the item table overflows).
func PDF(v View) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+v.InvoiceID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(v.ShopName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Invoice: "+v.InvoiceID, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Date: "+v.Date, "", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr(v.CustomerName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, v.CustomerPhone, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{80, 20, 32, 22, 36}
	headers := []string{"Item", "Qty", "Price", "Disc.", "Amount"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, line := range v.Lines {
		desc := line.Description
		if line.Custom {
			desc += " (custom)"
		}
		pdf.CellFormat(widths[0], 7, tr(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprint(line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, line.UnitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, line.DiscountPercent, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, line.Net, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totals := [][2]string{
		{"Subtotal", v.Subtotal},
		{"Discount", v.Discount},
		{"Total", v.Total},
		{"Payment (" + v.PaymentMode + ")", v.AmountPaid},
		{v.BalanceLabel, v.BalanceValue},
	}
	for i, row := range totals {
		style := ""
		if i == 2 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 11)
		pdf.CellFormat(154, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(36, 7, row[1], "", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 6, "Thank you for your business!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
