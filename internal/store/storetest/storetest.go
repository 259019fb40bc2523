// Package storetest holds the archive behaviour every store.Repository must
// share. Implementation packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/store"
)

// CapturedAt is the stamp archive tests append with.
var CapturedAt = domain.Stamp{Date: "17/10/2026", Time: "11:05 am"}

// Run exercises repo factories; newRepo must return an empty archive.
func Run(t *testing.T, newRepo func(t *testing.T) store.Repository) {
	t.Helper()

	t.Run("append then get round trips the record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		saved, err := repo.AppendBill(ctx, SampleBill("Ravi"), CapturedAt)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if saved.ID == "" {
			t.Fatalf("expected archive id to be assigned")
		}
		if !saved.Total.Equal(decimal.RequireFromString("1298.50")) {
			t.Fatalf("expected frozen total 1298.50, got %s", saved.Total)
		}

		got, err := repo.GetBill(ctx, saved.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.CustomerName != "Ravi" || got.InvoiceNumber != "INV20261017042" {
			t.Fatalf("unexpected record %+v", got)
		}
		if got.Date != CapturedAt.Date || got.Time != CapturedAt.Time {
			t.Fatalf("expected captured stamp, got %+v", got.Stamp)
		}
		if len(got.Items) != 2 || got.Items[0].Name != "Shirt" || got.Items[1].Name != "Pant" {
			t.Fatalf("expected items in order, got %+v", got.Items)
		}
		if !got.Items[1].Price.Equal(decimal.RequireFromString("799.5")) {
			t.Fatalf("expected price 799.5, got %s", got.Items[1].Price)
		}
		if !got.Total.Equal(saved.Total) {
			t.Fatalf("expected total %s, got %s", saved.Total, got.Total)
		}
		if got.PaymentMode != domain.PaymentUPI {
			t.Fatalf("expected UPI, got %s", got.PaymentMode)
		}
	})

	t.Run("sub-paisa prices and large totals are stored exactly", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		bill := SampleBill("Ravi")
		bill.Items = []domain.LineItem{
			{ID: "item-1", Name: "Others", Price: decimal.RequireFromString("0.125")},
			{ID: "item-2", Name: "Others", Price: decimal.RequireFromString("999999999.9999")},
			{ID: "item-3", Name: "Others", Price: decimal.RequireFromString("999999999.9999")},
		}
		want := decimal.RequireFromString("2000000000.1248")

		saved, err := repo.AppendBill(ctx, bill, CapturedAt)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		got, err := repo.GetBill(ctx, saved.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.Total.Equal(want) || !saved.Total.Equal(want) {
			t.Fatalf("expected exact total %s, got saved %s stored %s", want, saved.Total, got.Total)
		}
		if !got.Total.Equal(got.ComputeTotal()) {
			t.Fatalf("stored total %s differs from item sum %s", got.Total, got.ComputeTotal())
		}
		if !got.Items[0].Price.Equal(decimal.RequireFromString("0.125")) {
			t.Fatalf("expected price 0.125, got %s", got.Items[0].Price)
		}
	})

	t.Run("list keeps storage order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		empty, err := repo.ListBills(ctx)
		if err != nil {
			t.Fatalf("list empty: %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("expected empty archive, got %d", len(empty))
		}

		names := []string{"Asha", "Ravi", "Imran"}
		for _, name := range names {
			if _, err := repo.AppendBill(ctx, SampleBill(name), CapturedAt); err != nil {
				t.Fatalf("append %s: %v", name, err)
			}
		}

		bills, err := repo.ListBills(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(bills) != len(names) {
			t.Fatalf("expected %d bills, got %d", len(names), len(bills))
		}
		for i, name := range names {
			if bills[i].CustomerName != name {
				t.Fatalf("position %d: expected %s, got %s", i, name, bills[i].CustomerName)
			}
		}
		if bills[0].ID == bills[1].ID || bills[1].ID == bills[2].ID {
			t.Fatalf("expected unique ids")
		}
	})

	t.Run("delete removes only the target", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, _ := repo.AppendBill(ctx, SampleBill("Asha"), CapturedAt)
		second, _ := repo.AppendBill(ctx, SampleBill("Ravi"), CapturedAt)

		if err := repo.DeleteBill(ctx, first.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetBill(ctx, first.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		bills, err := repo.ListBills(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(bills) != 1 || bills[0].ID != second.ID {
			t.Fatalf("expected only second bill to remain, got %+v", bills)
		}
	})

	t.Run("delete of unknown id is a no-op", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if _, err := repo.AppendBill(ctx, SampleBill("Asha"), CapturedAt); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := repo.DeleteBill(ctx, "bill-unknown"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		bills, _ := repo.ListBills(ctx)
		if len(bills) != 1 {
			t.Fatalf("expected archive unchanged, got %d", len(bills))
		}
	})

	t.Run("get of unknown id is not found", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.GetBill(context.Background(), "bill-unknown"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("stored records are isolated from callers", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		bill := SampleBill("Ravi")
		saved, err := repo.AppendBill(ctx, bill, CapturedAt)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		bill.Items[0].Name = "Changed"
		saved.Items[1].Name = "Changed"

		got, err := repo.GetBill(ctx, saved.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Items[0].Name != "Shirt" || got.Items[1].Name != "Pant" {
			t.Fatalf("stored record was mutated: %+v", got.Items)
		}
	})
}

// SampleBill is the Shirt 499.00 + Pant 799.50 bill used across archive tests.
func SampleBill(customer string) domain.Bill {
	return domain.Bill{
		InvoiceNumber: "INV20261017042",
		CustomerName:  customer,
		CustomerPhone: "9876543210",
		Items: []domain.LineItem{
			{ID: "item-1", Name: "Shirt", Price: decimal.RequireFromString("499.00")},
			{ID: "item-2", Name: "Pant", Price: decimal.RequireFromString("799.50")},
		},
		PaymentMode: domain.PaymentUPI,
	}
}
