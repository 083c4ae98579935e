package watcher

import (
	"testing"

	"github.com/blackwell-systems/uassist/internal/guidmap"
	"github.com/blackwell-systems/uassist/internal/store"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

// setupTestStore creates an in-memory SQLite store for tests and registers
// cleanup with t.Cleanup so callers don't need explicit defer.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("setupTestStore: open: %v", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		t.Fatalf("setupTestStore: schema: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testDecoder(t *testing.T) *userassist.Decoder {
	t.Helper()
	table, err := guidmap.Default()
	if err != nil {
		t.Fatalf("guidmap.Default: %v", err)
	}
	return userassist.NewDecoder(table)
}
