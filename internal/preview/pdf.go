package preview

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders an A4 bill. The core fonts are cp1252, so the rupee sign is
// printed as "Rs." and other text goes through the cp1252 translator.
func PDF(p Preview) ([]byte, error) {
	currency := asciiCurrency(p.Currency)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+p.InvoiceNumber, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(p.ShopName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range p.AddressLines {
		pdf.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
	}
	if p.ShopPhone != "" {
		pdf.CellFormat(0, 5, tr("Ph: "+p.ShopPhone), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
	rule(pdf)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(85, 6, "Invoice No:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date & Time:", "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(85, 6, tr(p.InvoiceNumber), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(p.Date+" "+p.Time), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	for _, field := range [][2]string{
		{"Customer Name: ", p.CustomerName},
		{"Mobile Number: ", p.CustomerPhone},
		{"Payment Mode: ", p.PaymentMode},
	} {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, field[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(field[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	rule(pdf)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 7, "Sr.", "B", 0, "L", false, 0, "")
	pdf.CellFormat(110, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Price (%s)", currency), "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if len(p.Rows) == 0 {
		pdf.CellFormat(0, 14, p.EmptyMessage, "B", 1, "C", false, 0, "")
	}
	for _, row := range p.Rows {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", row.Serial), "B", 0, "L", false, 0, "")
		pdf.CellFormat(110, 7, tr(row.Item), "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, currency+row.Price, "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(85, 8, "Total Amount:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, currency+p.Total, "", 1, "R", false, 0, "")
	pdf.Ln(6)
	rule(pdf)

	pdf.SetFont("Arial", "", 10)
	for _, line := range p.FooterLines {
		pdf.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rule(pdf *gofpdf.Fpdf) {
	x, y := pdf.GetXY()
	left, _, right, _ := pdf.GetMargins()
	width, _ := pdf.GetPageSize()
	pdf.Line(left, y, width-right, y)
	pdf.SetXY(x, y+3)
}
