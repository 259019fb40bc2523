package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Shop is the header, footer and locale data printed on every bill.
type Shop struct {
	Name           string   `mapstructure:"name"`
	AddressLines   []string `mapstructure:"address_lines"`
	Phone          string   `mapstructure:"phone"`
	CountryCode    string   `mapstructure:"country_code"`
	PhoneRegion    string   `mapstructure:"phone_region"`
	CurrencySymbol string   `mapstructure:"currency_symbol"`
	FooterLines    []string `mapstructure:"footer_lines"`
}

func DefaultShop() Shop {
	return Shop{
		Name: "BHASA MENS WEAR",
		AddressLines: []string{
			"Near Chatrapati Shivaji Maharaj Chowk",
			"Nandura, Dist. Buldhana, Maharashtra 443404",
		},
		CountryCode:    "91",
		PhoneRegion:    "IN",
		CurrencySymbol: "₹",
		FooterLines:    []string{"Thank you for shopping with us!", "Visit Again"},
	}
}

// LoadShop reads the [shop] table of a TOML profile. Keys missing from the
// file keep their DefaultShop values.
func LoadShop(path string) (Shop, error) {
	shop := DefaultShop()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return shop, fmt.Errorf("read shop profile %s: %w", path, err)
	}
	var loaded Shop
	if err := v.UnmarshalKey("shop", &loaded); err != nil {
		return shop, fmt.Errorf("decode shop profile %s: %w", path, err)
	}
	return shop.merge(loaded), nil
}

func (s Shop) merge(o Shop) Shop {
	if o.Name != "" {
		s.Name = o.Name
	}
	if len(o.AddressLines) > 0 {
		s.AddressLines = o.AddressLines
	}
	if o.Phone != "" {
		s.Phone = o.Phone
	}
	if o.CountryCode != "" {
		s.CountryCode = o.CountryCode
	}
	if o.PhoneRegion != "" {
		s.PhoneRegion = o.PhoneRegion
	}
	if o.CurrencySymbol != "" {
		s.CurrencySymbol = o.CurrencySymbol
	}
	if len(o.FooterLines) > 0 {
		s.FooterLines = o.FooterLines
	}
	return s
}
