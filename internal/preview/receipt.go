package preview

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ReceiptWidth fits a 58mm thermal roll.
const ReceiptWidth = 32

// TextLines lays the preview out as fixed-width receipt lines.
func TextLines(p Preview) []string {
	rule := strings.Repeat("=", ReceiptWidth)
	thin := strings.Repeat("-", ReceiptWidth)

	lines := []string{center(p.ShopName)}
	for _, line := range p.AddressLines {
		lines = append(lines, center(line))
	}
	if p.ShopPhone != "" {
		lines = append(lines, center("Ph: "+p.ShopPhone))
	}
	lines = append(lines,
		rule,
		"Invoice No: "+p.InvoiceNumber,
		"Date: "+p.Date+" "+p.Time,
		"Customer: "+p.CustomerName,
		"Mobile: "+p.CustomerPhone,
		"Payment: "+p.PaymentMode,
		thin,
		spread("Sr. Item", "Price"),
		thin,
	)
	if len(p.Rows) == 0 {
		lines = append(lines, center(p.EmptyMessage))
	}
	for _, row := range p.Rows {
		lines = append(lines, spread(fmt.Sprintf("%d. %s", row.Serial, row.Item), p.Currency+row.Price))
	}
	lines = append(lines,
		thin,
		spread("Total Amount:", p.Currency+p.Total),
		rule,
	)
	for _, line := range p.FooterLines {
		lines = append(lines, center(line))
	}
	return append(lines, "")
}

func Text(p Preview) string {
	return strings.Join(TextLines(p), "\n")
}

// ESCPOS wraps the receipt lines in printer init and partial cut commands.
// Thermal printers lack the rupee glyph, so it is printed as "Rs.".
func ESCPOS(p Preview) []byte {
	p.Currency = asciiCurrency(p.Currency)
	escpos := []byte{0x1b, 0x40}
	for _, line := range TextLines(p) {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	return append(escpos, 0x1d, 0x56, 0x41, 0x10)
}

func asciiCurrency(symbol string) string {
	if symbol == "₹" {
		return "Rs."
	}
	return symbol
}

func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= ReceiptWidth {
		return s
	}
	return strings.Repeat(" ", (ReceiptWidth-n)/2) + s
}

func spread(left string, right string) string {
	gap := ReceiptWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
