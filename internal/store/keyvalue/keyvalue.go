// Package keyvalue keeps the whole archive as one JSON array under a single
// namespaced key of a Medium.
//
// Every mutation reads the full collection, changes it and writes it back.
// There is no locking across that cycle, so two concurrent writers can lose an
// append. This is a known limitation of the single-counter deployment.
package keyvalue

import (
	"context"
	"encoding/json"
	"slices"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/store"
	"bhasapos/backend/internal/xid"
)

type Store struct {
	medium Medium
	key    string
}

func New(medium Medium) *Store {
	return &Store{medium: medium, key: store.StorageKey}
}

func (s *Store) load(ctx context.Context) ([]domain.SavedBill, error) {
	raw, found, err := s.medium.Get(ctx, s.key)
	if err != nil {
		return nil, store.Persistence("read "+s.key, err)
	}
	bills := []domain.SavedBill{}
	if !found || len(raw) == 0 {
		return bills, nil
	}
	if err := json.Unmarshal(raw, &bills); err != nil {
		return nil, store.Persistence("decode "+s.key, err)
	}
	if bills == nil {
		bills = []domain.SavedBill{}
	}
	return bills, nil
}

func (s *Store) save(ctx context.Context, bills []domain.SavedBill) error {
	raw, err := json.Marshal(bills)
	if err != nil {
		return store.Persistence("encode "+s.key, err)
	}
	if err := s.medium.Set(ctx, s.key, raw); err != nil {
		return store.Persistence("write "+s.key, err)
	}
	return nil
}

func (s *Store) AppendBill(ctx context.Context, bill domain.Bill, capturedAt domain.Stamp) (*domain.SavedBill, error) {
	bills, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	saved := domain.NewSavedBill(xid.New("bill"), bill, capturedAt)
	if err := s.save(ctx, append(bills, saved)); err != nil {
		return nil, err
	}
	out := saved.Clone()
	return &out, nil
}

func (s *Store) ListBills(ctx context.Context) ([]domain.SavedBill, error) {
	return s.load(ctx)
}

func (s *Store) GetBill(ctx context.Context, id string) (*domain.SavedBill, error) {
	bills, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(bills, func(bill domain.SavedBill) bool { return bill.ID == id })
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	return &bills[idx], nil
}

func (s *Store) DeleteBill(ctx context.Context, id string) error {
	bills, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(bills, func(bill domain.SavedBill) bool { return bill.ID == id })
	if len(kept) == len(bills) {
		return nil
	}
	return s.save(ctx, kept)
}
