package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/store"
	"bhasapos/backend/internal/xid"
)

// Store keeps the archive and the counter accounts in process memory. Records
// are lost on restart.
type Store struct {
	mu              sync.RWMutex
	bills           []domain.SavedBill
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial accounts for dev/demo mode. Passwords come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; when unset, dev defaults are
// used and a warning is logged.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logrus.WithField("module", "memory-store").
			Warn("using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithField("module", "memory-store").Fatalf("hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New returns an empty archive without any accounts.
func New() *Store {
	return &Store{
		bills:           make([]domain.SavedBill, 0, 32),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns an empty archive with the admin and cashier accounts.
func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()
	return s
}

func (s *Store) AppendBill(_ context.Context, bill domain.Bill, capturedAt domain.Stamp) (*domain.SavedBill, error) {
	saved := domain.NewSavedBill(xid.New("bill"), bill, capturedAt)

	s.mu.Lock()
	s.bills = append(s.bills, saved)
	s.mu.Unlock()

	out := saved.Clone()
	return &out, nil
}

func (s *Store) ListBills(_ context.Context) ([]domain.SavedBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bills := make([]domain.SavedBill, 0, len(s.bills))
	for _, bill := range s.bills {
		bills = append(bills, bill.Clone())
	}
	return bills, nil
}

func (s *Store) GetBill(_ context.Context, id string) (*domain.SavedBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	out := s.bills[idx].Clone()
	return &out, nil
}

func (s *Store) DeleteBill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		s.bills = slices.Delete(s.bills, idx, idx+1)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.bills, func(bill domain.SavedBill) bool { return bill.ID == id })
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidUser
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidUser
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidUser
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
