package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/xid"
)

func TestMemorySessionLifecycle(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	session := domain.Session{ID: "sess-1", Username: "cashier", Role: "cashier", ExpiresAt: time.Now().Add(time.Hour)}

	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx, "sess-1")
	if err != nil || !ok || got.Username != "cashier" {
		t.Fatalf("expected live session, got %+v %v %v", got, ok, err)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "sess-1"); ok {
		t.Fatalf("expected session to be gone after delete")
	}
}

func TestMemorySessionExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Put(context.Background(), domain.Session{ID: "sess-1", ExpiresAt: now.Add(time.Minute)})
	now = now.Add(2 * time.Minute)

	if _, ok, _ := store.Get(context.Background(), "sess-1"); ok {
		t.Fatalf("expected expired session to be hidden")
	}
	_ = store.Put(context.Background(), domain.Session{ID: "sess-2", ExpiresAt: now.Add(time.Minute)})
	if _, present := store.sessions["sess-1"]; present {
		t.Fatalf("expected expired session to be swept")
	}
}

func TestRedisSessionLifecycle(t *testing.T) {
	addr := os.Getenv("BHASAPOS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set BHASAPOS_TEST_REDIS_ADDR to run redis integration test")
	}

	store := NewRedisSessionStore(addr, "", 0)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	id := xid.New("sess-it")
	if err := store.Put(ctx, domain.Session{ID: id, Username: "admin", Role: "admin", ExpiresAt: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx, id)
	if err != nil || !ok || got.Role != "admin" {
		t.Fatalf("expected stored session, got %+v %v %v", got, ok, err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, id); ok {
		t.Fatalf("expected session to be gone after delete")
	}
}
