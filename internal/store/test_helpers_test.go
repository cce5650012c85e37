package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/contactq/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithKeyGenerator(testutil.NewSequentialKeys("key").Next))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createSeededStore creates a store holding testdata/contacts.yaml.
func createSeededStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	f, err := LoadFixture(filepath.Join("testdata", "contacts.yaml"))
	if err != nil {
		t.Fatalf("LoadFixture() failed: %v", err)
	}
	if _, err := s.Seed(context.Background(), f); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s
}
