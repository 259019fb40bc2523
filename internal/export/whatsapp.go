// Package export turns finalized bills into outbound artifacts: the WhatsApp
// share link and the archive spreadsheet.
package export

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ttacon/libphonenumber"

	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/domain"
)

const whatsAppBase = "https://wa.me/"

var ErrInvalidPhone = errors.New("invalid phone number")

// WhatsAppMessage renders the share text for a finalized bill.
func WhatsAppMessage(shop config.Shop, bill domain.SavedBill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", shop.Name)
	fmt.Fprintf(&b, "Invoice: %s\n", bill.InvoiceNumber)
	fmt.Fprintf(&b, "Date: %s\n\n", bill.Date)
	fmt.Fprintf(&b, "Customer: %s\n\n", bill.CustomerName)
	b.WriteString("*Items:*\n")
	for _, item := range bill.Items {
		fmt.Fprintf(&b, "%s - %s%s\n", item.Name, shop.CurrencySymbol, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n*Total: %s%s*\n\n", shop.CurrencySymbol, bill.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment Mode: %s", bill.PaymentMode)
	if len(shop.FooterLines) > 0 {
		fmt.Fprintf(&b, "\n\n%s", shop.FooterLines[0])
	}
	return b.String()
}

// NormalizePhone reduces phone to the local subscriber number and checks it
// is dialable in the shop's region.
func NormalizePhone(shop config.Shop, phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) > 10 && strings.HasPrefix(digits, shop.CountryCode) {
		digits = strings.TrimPrefix(digits, shop.CountryCode)
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}

	parsed, err := libphonenumber.Parse(digits, shop.PhoneRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPhone, phone, err)
	}
	if !libphonenumber.IsValidNumber(parsed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return digits, nil
}

// WhatsAppLink builds the click-to-chat link with the shop's country code in
// front of the local number.
func WhatsAppLink(shop config.Shop, phone string, message string) (string, error) {
	local, err := NormalizePhone(shop, phone)
	if err != nil {
		return "", err
	}
	// QueryEscape encodes spaces as "+", which wa.me shows literally.
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return whatsAppBase + shop.CountryCode + local + "?text=" + text, nil
}
