package httpapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bhasapos/backend/internal/cache"
	"bhasapos/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func plainAdminStore() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      "admin",
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := plainAdminStore()

	manager := NewAuthManager("test-secret", time.Hour, store, nil)
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, _ := store.ListUsers(context.Background())
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, plainAdminStore(), nil)

	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "nope"})
	if !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "admin123"})
	if !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestParseTokenFollowsSessionStore(t *testing.T) {
	sessions := cache.NewMemorySessionStore()
	manager := NewAuthManager("test-secret", time.Hour, plainAdminStore(), sessions)
	ctx := context.Background()

	resp, err := manager.Login(ctx, domain.LoginRequest{Username: "Admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	session, err := manager.ParseToken(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if session.Username != "admin" || session.Role != "admin" || !strings.HasPrefix(session.ID, "sess-") {
		t.Fatalf("unexpected session %+v", session)
	}

	if err := manager.Logout(ctx, session); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := manager.ParseToken(ctx, resp.AccessToken); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected token to be rejected after logout, got %v", err)
	}
}

func TestParseTokenRejectsForeignSignatureAndExpiry(t *testing.T) {
	ctx := context.Background()
	sessions := cache.NewMemorySessionStore()
	issuer := NewAuthManager("other-secret", time.Hour, plainAdminStore(), sessions)
	resp, err := issuer.Login(ctx, domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	verifier := NewAuthManager("test-secret", time.Hour, plainAdminStore(), sessions)
	if _, err := verifier.ParseToken(ctx, resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := issuer.ParseToken(ctx, resp.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestCreateCashierStoresPasswordHash(t *testing.T) {
	store := plainAdminStore()
	manager := NewAuthManager("test-secret", time.Hour, store, nil)
	ctx := context.Background()

	created, err := manager.CreateCashier(ctx, domain.CashierCreateRequest{Username: " Kasir01 ", Password: "kasir123"})
	if err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}
	if created.Username != "kasir01" || created.Role != "cashier" || !created.Active {
		t.Fatalf("unexpected cashier %+v", created)
	}

	saved := store.users["kasir01"]
	if saved.Password == "kasir123" || !isPasswordHash(saved.Password) {
		t.Fatalf("expected stored cashier password to be hashed, got %q", saved.Password)
	}

	if _, err := manager.Login(ctx, domain.LoginRequest{Username: "kasir01", Password: "kasir123"}); err != nil {
		t.Fatalf("cashier login failed: %v", err)
	}

	cashiers := manager.ListCashiers(ctx)
	if len(cashiers) != 1 || cashiers[0].Username != "kasir01" {
		t.Fatalf("expected one cashier, got %+v", cashiers)
	}
}

func TestCreateCashierValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, plainAdminStore(), nil)
	ctx := context.Background()

	cases := []domain.CashierCreateRequest{
		{Username: "abc", Password: "secret1"},
		{Username: "two words", Password: "secret1"},
		{Username: "cashier2", Password: "123"},
		{Username: "admin", Password: "secret1"},
	}
	for _, req := range cases {
		if _, err := manager.CreateCashier(ctx, req); err == nil {
			t.Fatalf("expected %+v to be rejected", req)
		}
	}
}
