package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"bhasapos/backend/internal/billing"
	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/export"
	"bhasapos/backend/internal/preview"
	"bhasapos/backend/internal/store"
)

const moduleName = "service"

var ErrNoSession = errors.New("no active session")

type sessionContextKey struct{}

func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(domain.Session)
	return session, ok
}

type Option func(*Service)

// WithClock replaces time.Now for bill stamps and invoice dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBuilderOptions is applied to every active bill the service creates.
func WithBuilderOptions(opts ...billing.Option) Option {
	return func(s *Service) {
		s.builderOpts = append(s.builderOpts, opts...)
	}
}

// Service keeps one active bill per login session and moves finalized bills
// into the archive.
type Service struct {
	repo        store.Repository
	shop        config.Shop
	logger      logrus.FieldLogger
	validate    *validator.Validate
	now         func() time.Time
	builderOpts []billing.Option

	// mu serializes every operation on the builders; a Builder is not safe
	// for concurrent use.
	mu       sync.Mutex
	builders map[string]*billing.Builder
}

func New(repo store.Repository, shop config.Shop, logger logrus.FieldLogger, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Service{
		repo:     repo,
		shop:     shop,
		logger:   logger.WithField("module", moduleName),
		validate: validator.New(),
		now:      time.Now,
		builders: make(map[string]*billing.Builder),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Shop() config.Shop {
	return s.shop
}

func (s *Service) Catalog() domain.CatalogResponse {
	return domain.CatalogResponse{
		Items:        append([]string(nil), domain.Garments...),
		PaymentModes: append([]domain.PaymentMode(nil), domain.PaymentModes...),
		Default:      domain.DefaultPaymentMode,
	}
}

// builderLocked returns the session's active bill, creating it on first use.
func (s *Service) builderLocked(ctx context.Context) (*billing.Builder, error) {
	session, ok := SessionFromContext(ctx)
	if !ok || session.ID == "" {
		return nil, ErrNoSession
	}
	if b, ok := s.builders[session.ID]; ok {
		return b, nil
	}
	opts := append([]billing.Option{billing.WithClock(s.now)}, s.builderOpts...)
	b := billing.NewBuilder(opts...)
	s.builders[session.ID] = b
	return b, nil
}

func activeBill(b *billing.Builder) domain.ActiveBillResponse {
	return domain.ActiveBillResponse{
		Bill:       b.Snapshot(),
		Total:      b.Total(),
		State:      string(b.State()),
		ArchivedID: b.ArchivedID(),
	}
}

func (s *Service) ActiveBill(ctx context.Context) (domain.ActiveBillResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.ActiveBillResponse{}, err
	}
	return activeBill(b), nil
}

// UpdateCustomer changes only the fields present in req.
func (s *Service) UpdateCustomer(ctx context.Context, req domain.CustomerUpdateRequest) (domain.ActiveBillResponse, error) {
	check := req
	if req.CustomerPhone != nil {
		// An empty phone clears the field and is not checked.
		phone := strings.TrimSpace(*req.CustomerPhone)
		check.CustomerPhone = &phone
		if phone == "" {
			check.CustomerPhone = nil
		}
	}
	if err := s.validate.Struct(check); err != nil {
		return domain.ActiveBillResponse{}, invalidField(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.ActiveBillResponse{}, err
	}

	if req.PaymentMode != nil {
		if err := b.SetPaymentMode(*req.PaymentMode); err != nil {
			return domain.ActiveBillResponse{}, err
		}
	}
	current := b.Snapshot()
	name, phone := current.CustomerName, current.CustomerPhone
	if req.CustomerName != nil {
		name = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		phone = *req.CustomerPhone
	}
	b.SetCustomer(name, phone)
	return activeBill(b), nil
}

func (s *Service) AddItem(ctx context.Context, req domain.AddItemRequest) (domain.ActiveBillResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.ActiveBillResponse{}, err
	}
	item, err := b.AddItem(req.Item, req.Price)
	if err != nil {
		return domain.ActiveBillResponse{}, err
	}
	resp := activeBill(b)
	resp.LastAddedID = item.ID
	return resp, nil
}

func (s *Service) RemoveItem(ctx context.Context, itemID string) (domain.ActiveBillResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.ActiveBillResponse{}, err
	}
	b.RemoveItem(strings.TrimSpace(itemID))
	return activeBill(b), nil
}

// NewBill discards the active bill and starts a fresh one. The archive is
// not touched.
func (s *Service) NewBill(ctx context.Context) (domain.ActiveBillResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.ActiveBillResponse{}, err
	}
	b.Reset()
	return activeBill(b), nil
}

// SaveBill finalizes the active bill for print and archives it.
func (s *Service) SaveBill(ctx context.Context) (domain.SavedBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.SavedBill{}, err
	}
	snapshot, err := b.Finalize(billing.PurposePrint)
	if err != nil {
		return domain.SavedBill{}, err
	}
	return s.archiveLocked(ctx, b, snapshot)
}

// PrintBill archives the active bill and renders it in format.
func (s *Service) PrintBill(ctx context.Context, rawFormat string) (domain.PrintResponse, error) {
	format, err := preview.ParseFormat(rawFormat)
	if err != nil {
		return domain.PrintResponse{}, fmt.Errorf("%w: %v", billing.ErrInvalidField, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.PrintResponse{}, err
	}
	snapshot, err := b.Finalize(billing.PurposePrint)
	if err != nil {
		return domain.PrintResponse{}, err
	}
	saved, err := s.archiveLocked(ctx, b, snapshot)
	if err != nil {
		return domain.PrintResponse{}, err
	}
	return s.printResponse(saved, format)
}

func (s *Service) printResponse(saved domain.SavedBill, format preview.Format) (domain.PrintResponse, error) {
	projection := preview.RenderSaved(s.shop, saved)
	doc, err := preview.Encode(projection, format, fileBase(saved))
	if err != nil {
		return domain.PrintResponse{}, err
	}
	resp := domain.PrintResponse{
		SavedBill:   saved,
		Format:      string(doc.Format),
		ContentType: doc.ContentType,
		FileName:    doc.FileName,
		Document:    doc.Body,
	}
	if format == preview.FormatESCPOS {
		resp.EscposBase64 = base64.StdEncoding.EncodeToString(doc.Body)
		resp.PreviewText = preview.Text(projection)
	}
	return resp, nil
}

// SendWhatsApp finalizes the active bill for WhatsApp, checks the phone and
// archives it. Nothing is archived when the phone is rejected.
func (s *Service) SendWhatsApp(ctx context.Context) (domain.WhatsAppResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return domain.WhatsAppResponse{}, err
	}
	snapshot, err := b.Finalize(billing.PurposeWhatsApp)
	if err != nil {
		return domain.WhatsAppResponse{}, err
	}
	if _, err := export.NormalizePhone(s.shop, snapshot.CustomerPhone); err != nil {
		return domain.WhatsAppResponse{}, err
	}

	saved, err := s.archiveLocked(ctx, b, snapshot)
	if err != nil {
		return domain.WhatsAppResponse{}, err
	}
	message := export.WhatsAppMessage(s.shop, saved)
	link, err := export.WhatsAppLink(s.shop, saved.CustomerPhone, message)
	if err != nil {
		return domain.WhatsAppResponse{}, err
	}
	return domain.WhatsAppResponse{SavedBill: saved, Link: link, Message: message}, nil
}

// archiveLocked appends snapshot unless the unchanged bill was archived
// already, in which case the existing record is returned.
func (s *Service) archiveLocked(ctx context.Context, b *billing.Builder, snapshot domain.SavedBill) (domain.SavedBill, error) {
	if id := b.ArchivedID(); id != "" {
		existing, err := s.repo.GetBill(ctx, id)
		if err == nil {
			return *existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			config.LogError(s.logger, moduleName, "archiveLocked", "lookup archived bill", map[string]string{"id": id}, err)
			return domain.SavedBill{}, err
		}
	}

	saved, err := s.repo.AppendBill(ctx, snapshot.Bill, snapshot.Stamp)
	if err != nil {
		config.LogError(s.logger, moduleName, "archiveLocked", "append bill", map[string]string{"invoice": snapshot.InvoiceNumber}, err)
		return domain.SavedBill{}, err
	}
	b.MarkArchived(saved.ID)
	s.logger.WithFields(logrus.Fields{
		"id":      saved.ID,
		"invoice": saved.InvoiceNumber,
		"total":   saved.Total.StringFixed(2),
	}).Info("bill archived")
	return *saved, nil
}

// PreviewActive projects the active bill at the current wall-clock time.
func (s *Service) PreviewActive(ctx context.Context) (preview.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builderLocked(ctx)
	if err != nil {
		return preview.Preview{}, err
	}
	return preview.Render(s.shop, b.Snapshot(), domain.StampAt(s.now())), nil
}

func (s *Service) RenderActive(ctx context.Context, rawFormat string) (preview.Document, error) {
	format, err := preview.ParseFormat(rawFormat)
	if err != nil {
		return preview.Document{}, fmt.Errorf("%w: %v", billing.ErrInvalidField, err)
	}
	p, err := s.PreviewActive(ctx)
	if err != nil {
		return preview.Document{}, err
	}
	name := "bill-preview"
	if p.InvoiceNumber != preview.Placeholder {
		name = p.InvoiceNumber
	}
	return preview.Encode(p, format, name)
}

// ListBills returns the archive in storage order, or newest first when order
// is "newest".
func (s *Service) ListBills(ctx context.Context, order string) ([]domain.SavedBill, error) {
	newest, err := parseOrder(order)
	if err != nil {
		return nil, err
	}
	bills, err := s.repo.ListBills(ctx)
	if err != nil {
		config.LogError(s.logger, moduleName, "ListBills", "list bills", nil, err)
		return nil, err
	}
	if newest {
		bills = store.Newest(bills)
	}
	return bills, nil
}

func parseOrder(order string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "stored":
		return false, nil
	case "newest":
		return true, nil
	}
	return false, fmt.Errorf("%w: order must be stored or newest", billing.ErrInvalidField)
}

func (s *Service) GetBill(ctx context.Context, id string) (domain.SavedBill, error) {
	saved, err := s.repo.GetBill(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.SavedBill{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteBill(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteBill(ctx, id); err != nil {
		config.LogError(s.logger, moduleName, "DeleteBill", "delete bill", map[string]string{"id": id}, err)
		return err
	}
	s.logger.WithField("id", id).Info("bill deleted")
	return nil
}

// PreviewBill projects an archived bill at its captured date and time.
func (s *Service) PreviewBill(ctx context.Context, id string) (preview.Preview, error) {
	saved, err := s.GetBill(ctx, id)
	if err != nil {
		return preview.Preview{}, err
	}
	return preview.RenderSaved(s.shop, saved), nil
}

func (s *Service) RenderBill(ctx context.Context, id string, rawFormat string) (preview.Document, error) {
	format, err := preview.ParseFormat(rawFormat)
	if err != nil {
		return preview.Document{}, fmt.Errorf("%w: %v", billing.ErrInvalidField, err)
	}
	saved, err := s.GetBill(ctx, id)
	if err != nil {
		return preview.Document{}, err
	}
	return preview.Encode(preview.RenderSaved(s.shop, saved), format, fileBase(saved))
}

// ExportBills renders the archive as an XLSX workbook.
func (s *Service) ExportBills(ctx context.Context, order string) ([]byte, error) {
	bills, err := s.ListBills(ctx, order)
	if err != nil {
		return nil, err
	}
	return export.Spreadsheet(bills)
}

// EndSession drops the session's active bill. Unsaved items are discarded.
func (s *Service) EndSession(sessionID string) {
	s.mu.Lock()
	delete(s.builders, sessionID)
	s.mu.Unlock()
}

func fileBase(saved domain.SavedBill) string {
	if saved.InvoiceNumber != "" {
		return saved.InvoiceNumber
	}
	return saved.ID
}

func invalidField(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", billing.ErrInvalidField, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return fmt.Errorf("%w: %s", billing.ErrInvalidField, strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "len":
		return fe.Field() + " must be " + fe.Param() + " digits"
	case "number":
		return fe.Field() + " must contain digits only"
	}
	return fe.Field() + " is invalid"
}
