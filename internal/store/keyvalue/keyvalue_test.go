package keyvalue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/store"
	"bhasapos/backend/internal/store/storetest"
	"bhasapos/backend/internal/xid"
)

var stamp = domain.Stamp{Date: "17/10/2026", Time: "11:05 am"}

func TestFileArchiveContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository {
		return New(NewFileMedium(t.TempDir()))
	})
}

func TestRedisArchiveContract(t *testing.T) {
	addr := os.Getenv("BHASAPOS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set BHASAPOS_TEST_REDIS_ADDR to run redis integration test")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := PingRedis(context.Background(), client); err != nil {
		t.Fatalf("ping redis: %v", err)
	}

	storetest.Run(t, func(t *testing.T) store.Repository {
		prefix := xid.New("bhasapos-test") + ":"
		t.Cleanup(func() {
			_ = client.Del(context.Background(), prefix+store.StorageKey).Err()
		})
		return New(NewRedisMedium(client, prefix))
	})
}

func TestFileLayoutMatchesRecordFormat(t *testing.T) {
	dir := t.TempDir()
	s := New(NewFileMedium(dir))

	if _, err := s.AppendBill(context.Background(), storetest.SampleBill("Ravi"), stamp); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "savedBills.json"))
	if err != nil {
		t.Fatalf("read archive file: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("archive is not a JSON array: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	for _, key := range []string{"id", "invoiceNumber", "customerName", "customerPhone", "items", "paymentMode", "total", "date", "time"} {
		if _, ok := records[0][key]; !ok {
			t.Fatalf("record missing key %q: %s", key, raw)
		}
	}
	items := records[0]["items"].([]any)
	first := items[0].(map[string]any)
	if first["item"] != "Shirt" {
		t.Fatalf("expected item key to hold the garment name, got %v", first)
	}
	if _, ok := first["price"].(float64); !ok {
		t.Fatalf("expected numeric price, got %T", first["price"])
	}
}

func TestCorruptArchiveSurfacesPersistenceError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "savedBills.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	s := New(NewFileMedium(dir))

	if _, err := s.ListBills(context.Background()); !errors.Is(err, store.ErrPersistence) {
		t.Fatalf("expected ErrPersistence on list, got %v", err)
	}
	if _, err := s.AppendBill(context.Background(), storetest.SampleBill("Ravi"), stamp); !errors.Is(err, store.ErrPersistence) {
		t.Fatalf("expected ErrPersistence on append, got %v", err)
	}
}

type failingMedium struct {
	stored []byte
}

func (m *failingMedium) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return m.stored, m.stored != nil, nil
}

func (m *failingMedium) Set(_ context.Context, _ string, _ []byte) error {
	return errors.New("quota exceeded")
}

func TestWriteFailureSurfacesPersistenceError(t *testing.T) {
	medium := &failingMedium{stored: []byte(`[{"id":"bill-1","items":[]}]`)}
	s := New(medium)

	_, err := s.AppendBill(context.Background(), storetest.SampleBill("Ravi"), stamp)
	if !errors.Is(err, store.ErrPersistence) || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected wrapped persistence error, got %v", err)
	}
	if err := s.DeleteBill(context.Background(), "bill-1"); !errors.Is(err, store.ErrPersistence) {
		t.Fatalf("expected ErrPersistence on delete, got %v", err)
	}
	if err := s.DeleteBill(context.Background(), "bill-absent"); err != nil {
		t.Fatalf("delete of absent id should not write, got %v", err)
	}
}

func TestFileMediumRejectsPathKeys(t *testing.T) {
	m := NewFileMedium(t.TempDir())
	if err := m.Set(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatalf("expected invalid key error")
	}
}
