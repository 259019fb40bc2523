// Package preview projects a bill into the printable layout shared by the
// live bill and archived records.
package preview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/domain"
)

const (
	Placeholder = "-"
	EmptyRow    = "No items added yet"
)

type Format string

const (
	FormatHTML   Format = "html"
	FormatPDF    Format = "pdf"
	FormatText   Format = "text"
	FormatESCPOS Format = "escpos"
)

var ErrUnknownFormat = errors.New("unknown preview format")

// ParseFormat defaults to html for an empty value.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatText, "txt":
		return FormatText, nil
	case FormatESCPOS:
		return FormatESCPOS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
}

type Row struct {
	Serial int    `json:"serial"`
	Item   string `json:"item"`
	Price  string `json:"price"`
}

// Preview is display-ready: every value is already formatted.
type Preview struct {
	ShopName      string   `json:"shop_name"`
	AddressLines  []string `json:"address_lines"`
	ShopPhone     string   `json:"shop_phone,omitempty"`
	Currency      string   `json:"currency"`
	InvoiceNumber string   `json:"invoice_number"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	PaymentMode   string   `json:"payment_mode"`
	Rows          []Row    `json:"rows"`
	EmptyMessage  string   `json:"empty_message,omitempty"`
	Total         string   `json:"total"`
	FooterLines   []string `json:"footer_lines"`
}

// Render projects bill with its total recomputed from items. The caller
// supplies the stamp: now for the live bill, the captured stamp for a record.
func Render(shop config.Shop, bill domain.Bill, stamp domain.Stamp) Preview {
	return project(shop, bill, bill.ComputeTotal(), stamp)
}

// RenderSaved projects an archived record at its frozen total and captured stamp.
func RenderSaved(shop config.Shop, saved domain.SavedBill) Preview {
	return project(shop, saved.Bill, saved.Total, saved.Stamp)
}

func project(shop config.Shop, bill domain.Bill, total decimal.Decimal, stamp domain.Stamp) Preview {
	p := Preview{
		ShopName:      shop.Name,
		AddressLines:  append([]string(nil), shop.AddressLines...),
		ShopPhone:     shop.Phone,
		Currency:      shop.CurrencySymbol,
		InvoiceNumber: orPlaceholder(bill.InvoiceNumber),
		Date:          orPlaceholder(stamp.Date),
		Time:          orPlaceholder(stamp.Time),
		CustomerName:  orPlaceholder(bill.CustomerName),
		CustomerPhone: orPlaceholder(bill.CustomerPhone),
		PaymentMode:   orPlaceholder(string(bill.PaymentMode)),
		Rows:          make([]Row, 0, len(bill.Items)),
		Total:         total.StringFixed(2),
		FooterLines:   append([]string(nil), shop.FooterLines...),
	}
	for i, item := range bill.Items {
		p.Rows = append(p.Rows, Row{Serial: i + 1, Item: item.Name, Price: item.Price.StringFixed(2)})
	}
	if len(p.Rows) == 0 {
		p.EmptyMessage = EmptyRow
	}
	return p
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return Placeholder
	}
	return value
}
