package memory

import (
	"context"
	"errors"
	"testing"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/store"
	"bhasapos/backend/internal/store/storetest"
)

func TestArchiveContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository {
		return New()
	})
}

func TestSeededUsers(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-pass")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-pass")

	s := NewSeeded()
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].Username != "admin" || users[1].Username != "cashier" {
		t.Fatalf("expected admin and cashier sorted, got %+v", users)
	}
	if users[0].Password == "admin-pass" {
		t.Fatalf("expected seeded password to be hashed")
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateUser(ctx, domain.UserAccount{Username: " Priya ", Password: "hash"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, domain.UserAccount{Username: "priya", Password: "hash"}); !errors.Is(err, store.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser on duplicate, got %v", err)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 1 || users[0].Role != "cashier" || !users[0].Active {
		t.Fatalf("unexpected users %+v", users)
	}
	if err := s.UpdateUserPassword(ctx, "ghost", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
