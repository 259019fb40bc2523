package billing

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/xid"
)

var (
	ErrMissingField       = errors.New("missing field")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrIncompleteBill     = errors.New("incomplete bill")
	ErrInvalidPaymentMode = errors.New("invalid payment mode")
	ErrInvalidField       = errors.New("invalid field")
)

type Purpose int

const (
	PurposePrint Purpose = iota
	PurposeWhatsApp
)

type State string

const (
	StateEmpty    State = "empty"
	StateBuilding State = "building"
	StateReady    State = "ready"
	StateExported State = "exported"
)

// GenerateInvoiceNumber formats INV<yyyymmdd><suffix>, suffix zero-padded to
// three digits. Numbers are display identifiers only.
func GenerateInvoiceNumber(now time.Time, suffix int) string {
	if suffix < 0 {
		suffix = -suffix
	}
	return fmt.Sprintf("INV%s%03d", now.Format("20060102"), suffix%1000)
}

type Option func(*Builder)

// WithClock replaces time.Now for invoice dates and finalize stamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithSuffix replaces the random invoice suffix source.
func WithSuffix(suffix func() int) Option {
	return func(b *Builder) {
		if suffix != nil {
			b.suffix = suffix
		}
	}
}

// Builder holds one bill under construction. It is not safe for concurrent
// use; callers serialize access.
type Builder struct {
	now    func() time.Time
	suffix func() int

	invoiceNumber string
	customerName  string
	customerPhone string
	paymentMode   domain.PaymentMode
	items         []domain.LineItem

	touched    bool
	exported   bool
	archivedID string
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:    time.Now,
		suffix: func() int { return rand.IntN(1000) },
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Reset()
	return b
}

func (b *Builder) InvoiceNumber() string {
	return b.invoiceNumber
}

func (b *Builder) PaymentMode() domain.PaymentMode {
	return b.paymentMode
}

func (b *Builder) SetCustomer(name string, phone string) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == b.customerName && phone == b.customerPhone {
		return
	}
	b.customerName = name
	b.customerPhone = phone
	b.changed()
}

func (b *Builder) SetPaymentMode(raw string) error {
	mode, ok := domain.ParsePaymentMode(raw)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMode, raw)
	}
	if mode != b.paymentMode {
		b.paymentMode = mode
		b.changed()
	}
	return nil
}

// AddItem validates and appends one line item. On error the items are left
// untouched.
func (b *Builder) AddItem(name string, priceText string) (domain.LineItem, error) {
	name = strings.TrimSpace(name)
	priceText = strings.TrimSpace(priceText)
	if name == "" {
		return domain.LineItem{}, fmt.Errorf("%w: item is required", ErrMissingField)
	}
	if priceText == "" {
		return domain.LineItem{}, fmt.Errorf("%w: price is required", ErrMissingField)
	}

	price, err := ParsePrice(priceText)
	if err != nil {
		return domain.LineItem{}, err
	}

	item := domain.LineItem{
		ID:    xid.New("item"),
		Name:  domain.CanonicalGarment(name),
		Price: price,
	}
	b.items = append(b.items, item)
	b.changed()
	return item, nil
}

// RemoveItem drops the item with id. Unknown ids are ignored.
func (b *Builder) RemoveItem(id string) {
	idx := slices.IndexFunc(b.items, func(item domain.LineItem) bool { return item.ID == id })
	if idx < 0 {
		return
	}
	b.items = slices.Delete(b.items, idx, idx+1)
	b.changed()
}

func (b *Builder) Items() []domain.LineItem {
	out := slices.Clone(b.items)
	if out == nil {
		out = []domain.LineItem{}
	}
	return out
}

func (b *Builder) Total() decimal.Decimal {
	return b.Snapshot().ComputeTotal()
}

// Reset starts a new bill: customer and items cleared, payment mode back to
// Cash, fresh invoice number.
func (b *Builder) Reset() {
	b.customerName = ""
	b.customerPhone = ""
	b.items = nil
	b.paymentMode = domain.DefaultPaymentMode
	b.invoiceNumber = GenerateInvoiceNumber(b.now(), b.suffix())
	b.touched = false
	b.exported = false
	b.archivedID = ""
}

// Snapshot copies the current bill fields.
func (b *Builder) Snapshot() domain.Bill {
	return domain.Bill{
		InvoiceNumber: b.invoiceNumber,
		CustomerName:  b.customerName,
		CustomerPhone: b.customerPhone,
		Items:         b.Items(),
		PaymentMode:   b.paymentMode,
	}
}

// Finalize checks the bill is complete for purpose and returns a snapshot
// stamped with the current time. It does not archive; the returned record has
// no id.
func (b *Builder) Finalize(purpose Purpose) (domain.SavedBill, error) {
	var missing []string
	if b.customerName == "" {
		missing = append(missing, "customer name")
	}
	if purpose == PurposeWhatsApp && b.customerPhone == "" {
		missing = append(missing, "customer phone")
	}
	if len(b.items) == 0 {
		missing = append(missing, "items")
	}
	if len(missing) > 0 {
		return domain.SavedBill{}, fmt.Errorf("%w: %s required", ErrIncompleteBill, strings.Join(missing, ", "))
	}

	return domain.NewSavedBill("", b.Snapshot(), domain.StampAt(b.now())), nil
}

func (b *Builder) State() State {
	switch {
	case b.exported:
		return StateExported
	case len(b.items) > 0:
		return StateReady
	case b.touched:
		return StateBuilding
	default:
		return StateEmpty
	}
}

// MarkArchived records the archive id of the last finalized snapshot and
// moves the bill to exported. Any later change to the bill clears both.
func (b *Builder) MarkArchived(id string) {
	b.archivedID = id
	b.exported = true
}

func (b *Builder) ArchivedID() string {
	return b.archivedID
}

func (b *Builder) changed() {
	b.touched = true
	b.exported = false
	b.archivedID = ""
}

// Price input limits. Amounts are plain decimals: no sign, no exponent.
const (
	MaxPriceIntegerDigits  = 9
	MaxPriceFractionDigits = 4
)

var plainPrice = regexp.MustCompile(`^(\d+)(?:\.(\d*))?$|^\.(\d+)$`)

// ParsePrice accepts plain decimals with an optional rupee prefix and
// thousands separators, e.g. "799.50", "₹1,299", "Rs 450".
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "₹")
	if len(s) >= 2 && strings.EqualFold(s[:2], "rs") {
		s = strings.TrimPrefix(s[2:], ".")
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is negative", ErrInvalidPrice, raw)
	}

	m := plainPrice.FindStringSubmatch(s)
	if m == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrInvalidPrice, raw)
	}
	integer := strings.TrimLeft(m[1], "0")
	fraction := m[2] + m[3]
	if len(integer) > MaxPriceIntegerDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is too large", ErrInvalidPrice, raw)
	}
	if len(fraction) > MaxPriceFractionDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: %q has too many decimal places", ErrInvalidPrice, raw)
	}

	price, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrInvalidPrice, raw)
	}
	return price, nil
}
