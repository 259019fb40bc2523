package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted records keep prices as JSON numbers, e.g. {"price": 799.5}.
	decimal.MarshalJSONWithoutQuotes = true
}

// Date and time layouts captured on archived bills (en-IN style).
const (
	StampDateLayout = "02/01/2006"
	StampTimeLayout = "03:04 pm"
)

type PaymentMode string

const (
	PaymentCash         PaymentMode = "Cash"
	PaymentUPI          PaymentMode = "UPI"
	PaymentCard         PaymentMode = "Card"
	PaymentBankTransfer PaymentMode = "Bank Transfer"
)

const DefaultPaymentMode = PaymentCash

var PaymentModes = []PaymentMode{PaymentCash, PaymentUPI, PaymentCard, PaymentBankTransfer}

// ParsePaymentMode matches case-insensitively and returns the canonical mode.
func ParsePaymentMode(raw string) (PaymentMode, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, mode := range PaymentModes {
		if strings.EqualFold(trimmed, string(mode)) {
			return mode, true
		}
	}
	return "", false
}

// Garments is the closed catalog offered at the counter.
var Garments = []string{"Shirt", "Pant", "T-Shirt", "Under Garments", "Night Pant", "Others"}

// CanonicalGarment returns the catalog spelling of name when it is a catalog
// entry, otherwise the trimmed input.
func CanonicalGarment(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, garment := range Garments {
		if strings.EqualFold(trimmed, garment) {
			return garment
		}
	}
	return trimmed
}

type LineItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"item"`
	Price decimal.Decimal `json:"price"`
}

// Bill is the shape shared by the active bill and archived records.
type Bill struct {
	InvoiceNumber string      `json:"invoiceNumber"`
	CustomerName  string      `json:"customerName"`
	CustomerPhone string      `json:"customerPhone"`
	Items         []LineItem  `json:"items"`
	PaymentMode   PaymentMode `json:"paymentMode"`
}

// ComputeTotal sums item prices. It is recomputed on every call.
func (b Bill) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.Price)
	}
	return total
}

// Clone returns a copy whose items slice is not shared with b.
func (b Bill) Clone() Bill {
	out := b
	out.Items = slices.Clone(b.Items)
	if out.Items == nil {
		out.Items = []LineItem{}
	}
	return out
}

// Stamp is the wall-clock date and time a preview is drawn at.
type Stamp struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func StampAt(t time.Time) Stamp {
	return Stamp{Date: t.Format(StampDateLayout), Time: t.Format(StampTimeLayout)}
}

// SavedBill is the flattened archive record:
// {id, invoiceNumber, customerName, customerPhone, items, paymentMode, total, date, time}.
type SavedBill struct {
	ID string `json:"id"`
	Bill
	Total decimal.Decimal `json:"total"`
	Stamp
}

// NewSavedBill snapshots bill at capturedAt and freezes its total.
func NewSavedBill(id string, bill Bill, capturedAt Stamp) SavedBill {
	snapshot := bill.Clone()
	return SavedBill{
		ID:    id,
		Bill:  snapshot,
		Total: snapshot.ComputeTotal(),
		Stamp: capturedAt,
	}
}

func (s SavedBill) Clone() SavedBill {
	out := s
	out.Bill = s.Bill.Clone()
	return out
}

// Session replaces the browser's "isAuthenticated" flag. It is created on
// login and removed on logout.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type CustomerUpdateRequest struct {
	CustomerName  *string `json:"customerName,omitempty" validate:"omitempty,max=80"`
	CustomerPhone *string `json:"customerPhone,omitempty" validate:"omitempty,number,len=10"`
	PaymentMode   *string `json:"paymentMode,omitempty"`
}

type AddItemRequest struct {
	Item  string `json:"item"`
	Price string `json:"price"`
}

type ActiveBillResponse struct {
	Bill
	Total       decimal.Decimal `json:"total"`
	State       string          `json:"state"`
	ArchivedID  string          `json:"archivedId,omitempty"`
	LastAddedID string          `json:"lastAddedId,omitempty"`
}

type PrintResponse struct {
	SavedBill   SavedBill `json:"bill"`
	Format      string    `json:"format"`
	ContentType string    `json:"-"`
	FileName    string    `json:"file_name"`
	Document    []byte    `json:"-"`
	// EscposBase64 is set for the escpos format only.
	EscposBase64 string `json:"escpos_base64,omitempty"`
	PreviewText  string `json:"preview_text,omitempty"`
}

type WhatsAppResponse struct {
	SavedBill SavedBill `json:"bill"`
	Link      string    `json:"link"`
	Message   string    `json:"message"`
}

type BillListResponse struct {
	Bills []SavedBill `json:"bills"`
}

type CatalogResponse struct {
	Items        []string      `json:"items"`
	PaymentModes []PaymentMode `json:"payment_modes"`
	Default      PaymentMode   `json:"default_payment_mode"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
