package store

import (
	"context"
	"errors"
	"fmt"

	"bhasapos/backend/internal/domain"
)

// StorageKey is the namespaced key the key-value archive keeps its records under.
const StorageKey = "savedBills"

var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	ErrInvalidUser = errors.New("invalid user")
)

// Repository is the Bill Archive. Records come back in storage order (append
// order, newest last) and are copies: callers cannot mutate stored records.
type Repository interface {
	AppendBill(ctx context.Context, bill domain.Bill, capturedAt domain.Stamp) (*domain.SavedBill, error)
	ListBills(ctx context.Context) ([]domain.SavedBill, error)
	GetBill(ctx context.Context, id string) (*domain.SavedBill, error)
	DeleteBill(ctx context.Context, id string) error
}

// UserStore holds counter login accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// Persistence wraps a storage failure so callers can match ErrPersistence.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// Newest returns a copy of bills in reverse storage order.
func Newest(bills []domain.SavedBill) []domain.SavedBill {
	out := make([]domain.SavedBill, len(bills))
	for i, bill := range bills {
		out[len(bills)-1-i] = bill
	}
	return out
}
