package export

import (
	"github.com/xuri/excelize/v2"

	"invoicing-backend/models"
)

const ledgerSheet = "Invoices"

var ledgerHeaders = []string{
	"Invoice", "Date", "Customer", "Phone", "Payment Mode", "Items",
	"Subtotal", "Discount", "Total", "Amount Paid", "Due", "Balance",
}

// LedgerXLSX writes one row per invoice, in the order given.
func LedgerXLSX(invoices []*models.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	for i, h := range ledgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(ledgerSheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(ledgerHeaders), 1)
	if err := f.SetCellStyle(ledgerSheet, "A1", last, bold); err != nil {
		return nil, err
	}

	for r, inv := range invoices {
		rowNo := r + 2
		balance := inv.Balance()
		values := []any{
			inv.ID,
			inv.Date.Format("2006-01-02"),
			inv.CustomerName,
			inv.CustomerPhone,
			string(inv.PaymentMode),
			len(inv.Items),
			inv.Subtotal.InexactFloat64(),
			inv.Discount.InexactFloat64(),
			inv.Total.InexactFloat64(),
			inv.AmountPaid.InexactFloat64(),
			inv.DueAmount().InexactFloat64(),
			balance.Label,
		}
		for c, value := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNo)
			f.SetCellValue(ledgerSheet, cell, value)
		}
		from, _ := excelize.CoordinatesToCellName(7, rowNo)
		to, _ := excelize.CoordinatesToCellName(11, rowNo)
		if err := f.SetCellStyle(ledgerSheet, from, to, money); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(ledgerSheet, "A", "L", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
