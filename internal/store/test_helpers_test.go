package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/roach88/sieve/internal/sample"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createPeopleTable creates a "people" table holding the shared fixtures.
func createPeopleTable(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateTable(ctx, "people", reflect.TypeOf(sample.Person{})); err != nil {
		t.Fatalf("CreateTable() failed: %v", err)
	}
	records := make([]any, 0, 4)
	for _, p := range sample.People() {
		records = append(records, p)
	}
	if err := s.Insert(ctx, "people", records...); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
}
