package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/service"
	"bhasapos/backend/internal/store"
	"bhasapos/backend/internal/store/memory"
	"bhasapos/backend/internal/store/storetest"
)

func newTestApp(t *testing.T) (*bytes.Buffer, func(args ...string) error, []string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := memory.New()
	var ids []string
	for _, customer := range []string{"Ravi", "Sunil"} {
		saved, err := repo.AppendBill(context.Background(), storetest.SampleBill(customer), storetest.CapturedAt)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, saved.ID)
	}

	svc := service.New(repo, config.DefaultShop(), logger)
	out := &bytes.Buffer{}
	run := func(args ...string) error {
		out.Reset()
		return newApp(svc, out).Run(append([]string{"billctl"}, args...))
	}
	return out, run, ids
}

func TestListOrder(t *testing.T) {
	out, run, ids := newTestApp(t)

	if err := run("list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Index(out.String(), ids[0]) > strings.Index(out.String(), ids[1]) {
		t.Fatalf("expected storage order:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "1298.50") {
		t.Fatalf("expected totals in listing:\n%s", out.String())
	}

	if err := run("list", "--newest"); err != nil {
		t.Fatalf("list --newest: %v", err)
	}
	if strings.Index(out.String(), ids[1]) > strings.Index(out.String(), ids[0]) {
		t.Fatalf("expected newest first:\n%s", out.String())
	}
}

func TestShowAndPreview(t *testing.T) {
	out, run, ids := newTestApp(t)

	if err := run("show", ids[0]); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), `"customerName": "Ravi"`) {
		t.Fatalf("unexpected show output:\n%s", out.String())
	}

	if err := run("preview", ids[1]); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out.String(), "Sunil") || !strings.Contains(out.String(), storetest.CapturedAt.Date) {
		t.Fatalf("unexpected preview:\n%s", out.String())
	}

	if err := run("preview", "--format", "html", ids[1]); err != nil {
		t.Fatalf("preview html: %v", err)
	}
	if !strings.Contains(out.String(), "<html") {
		t.Fatalf("expected html document")
	}

	if err := run("show"); err == nil {
		t.Fatalf("expected missing id to fail")
	}
	if err := run("show", "bill-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndExport(t *testing.T) {
	out, run, ids := newTestApp(t)

	if err := run("delete", ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := run("list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out.String(), ids[0]) || !strings.Contains(out.String(), ids[1]) {
		t.Fatalf("expected only the second bill to remain:\n%s", out.String())
	}

	path := filepath.Join(t.TempDir(), "bills.xlsx")
	if err := run("export", "--out", path); err != nil {
		t.Fatalf("export: %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("PK")) {
		t.Fatalf("expected xlsx zip payload")
	}
}
