package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "pdfs")
	a, err := NewLocalArchive(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	loc, err := a.Save(ctx, "Copy_2301_CS101.pdf", strings.NewReader("%PDF-1.3 test"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if loc.Size != 13 || loc.Path != filepath.Join(dir, "Copy_2301_CS101.pdf") {
		t.Errorf("Unexpected location %+v", loc)
	}

	rc, err := a.Open(ctx, loc.Name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.3 test" {
		t.Errorf("Unexpected content %q", data)
	}

	// overwrite keeps a single file
	if _, err := a.Save(ctx, loc.Name, strings.NewReader("v2")); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected one file without temp leftovers, got %d", len(entries))
	}

	if err := a.Delete(ctx, loc.Name); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := a.Open(ctx, loc.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := a.Delete(ctx, loc.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocalArchive_RejectsUnsafeNames(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, name := range []string{"", ".", "..", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		if _, err := a.Save(context.Background(), name, strings.NewReader("x")); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestLocalArchive_CancelledContext(t *testing.T) {
	a, _ := NewLocalArchive(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Save(ctx, "x.pdf", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewAzureArchive(t *testing.T) {
	if _, err := NewAzureArchive("account", "%%%not-base64", "exam-scans", ""); err == nil {
		t.Error("Expected invalid key to be rejected")
	}

	a, err := NewAzureArchive("devstoreaccount1", "a2V5", "exam-scans", "http://127.0.0.1:10000/devstoreaccount1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := a.blobURL("Copy_1.pdf"); got != "http://127.0.0.1:10000/devstoreaccount1/exam-scans/Copy_1.pdf" {
		t.Errorf("Unexpected blob url %q", got)
	}
	if _, err := a.Save(context.Background(), "../x.pdf", strings.NewReader("x")); err == nil {
		t.Error("Expected unsafe name to be rejected before any request")
	}
}
