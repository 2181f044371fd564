package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openclaw/agent-memory/internal/memory"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	cfg := memory.Config{
		DataDir:          t.TempDir(),
		MaxRecallResults: 50,
		MaxListResults:   200,
		MaxContextItems:  10,
	}
	s, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNew_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	cfg := memory.Config{
		DataDir:          dir,
		MaxRecallResults: 50,
		MaxListResults:   200,
		MaxContextItems:  10,
	}
	s, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "memory.db")); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := memory.Config{
		DataDir:          dir,
		MaxRecallResults: 50,
		MaxListResults:   200,
		MaxContextItems:  10,
	}

	s1, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	id, err := s1.Remember(memory.RememberParams{Content: "persists across reopen"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	s1.Close()

	// Reopen — schema creation must be idempotent and data must persist.
	s2, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	fact, err := s2.GetFact(id)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if fact == nil {
		t.Fatal("fact not found after reopen")
	}
	if fact.Content != "persists across reopen" {
		t.Errorf("content = %q", fact.Content)
	}
}

func TestNew_CreatesMissingDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "memory")
	s, err := memory.New(memory.Config{
		DataDir:          dir,
		MaxRecallResults: 50,
		MaxListResults:   200,
		MaxContextItems:  10,
	})
	if err != nil {
		t.Fatalf("New() with missing dir: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("data dir not created: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := memory.Truncate("hello", 10); got != "hello" {
		t.Errorf("short string truncated: %q", got)
	}
	if got := memory.Truncate("hello world", 8); got != "hello wo..." {
		t.Errorf("Truncate = %q, want %q", got, "hello wo...")
	}
}
