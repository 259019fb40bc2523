package backend

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/store/storetest"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func TestOpenFileArchive(t *testing.T) {
	cfg := config.Config{ArchiveBackend: config.ArchiveFile, ArchiveDir: t.TempDir()}

	archive, err := Open(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })

	saved, err := archive.Bills.AppendBill(context.Background(), storetest.SampleBill("Ravi"), storetest.CapturedAt)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	// A second open of the same directory sees the record.
	reopened, err := Open(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Bills.GetBill(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.CustomerName != "Ravi" {
		t.Fatalf("unexpected record %+v", got)
	}

	users, err := archive.Users.ListUsers(context.Background())
	if err != nil || len(users) == 0 {
		t.Fatalf("expected seeded accounts, got %v %v", users, err)
	}
}

func TestOpenMemoryArchive(t *testing.T) {
	archive, err := Open(context.Background(), config.Config{ArchiveBackend: config.ArchiveMemory}, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if archive.Backend != config.ArchiveMemory {
		t.Fatalf("unexpected backend %q", archive.Backend)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenRejectsMisconfiguration(t *testing.T) {
	cases := []struct {
		cfg  config.Config
		want string
	}{
		{config.Config{ArchiveBackend: config.ArchiveRedis}, "REDIS_ADDR"},
		{config.Config{ArchiveBackend: config.ArchivePostgres}, "DATABASE_URL"},
		{config.Config{ArchiveBackend: "sqlite"}, "unknown ARCHIVE_BACKEND"},
	}
	for _, tc := range cases {
		_, err := Open(context.Background(), tc.cfg, quietLogger())
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("backend %q: expected error mentioning %s, got %v", tc.cfg.ArchiveBackend, tc.want, err)
		}
	}
}
