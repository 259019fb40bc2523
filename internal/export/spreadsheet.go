package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"bhasapos/backend/internal/domain"
)

const (
	BillsSheet = "Bills"
	ItemsSheet = "Items"

	SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	billHeadings = []string{"ID", "Invoice No", "Date", "Time", "Customer Name", "Mobile Number", "Payment Mode", "Item Count", "Total"}
	itemHeadings = []string{"Bill ID", "Invoice No", "Sr.", "Item", "Price"}
)

// Spreadsheet writes bills, one row each, in the order given, plus an Items
// sheet with one row per line item.
func Spreadsheet(bills []domain.SavedBill) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", BillsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, err
	}

	if err := writeRow(f, BillsSheet, 1, toCells(billHeadings)); err != nil {
		return nil, err
	}
	if err := writeRow(f, ItemsSheet, 1, toCells(itemHeadings)); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, bill := range bills {
		err := writeRow(f, BillsSheet, i+2, []any{
			bill.ID,
			bill.InvoiceNumber,
			bill.Date,
			bill.Time,
			bill.CustomerName,
			bill.CustomerPhone,
			string(bill.PaymentMode),
			len(bill.Items),
			bill.Total.InexactFloat64(),
		})
		if err != nil {
			return nil, err
		}
		for serial, item := range bill.Items {
			err := writeRow(f, ItemsSheet, itemRow, []any{
				bill.ID,
				bill.InvoiceNumber,
				serial + 1,
				item.Name,
				item.Price.InexactFloat64(),
			})
			if err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toCells(headings []string) []any {
	cells := make([]any, len(headings))
	for i, h := range headings {
		cells[i] = h
	}
	return cells
}
