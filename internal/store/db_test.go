package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/uassist/internal/userassist"
)

// TestListRuns_NoSchema_ReturnsErrNotInitialized verifies that calling
// ListRuns on a fresh DB (no CreateSchema) returns ErrNotInitialized.
func TestListRuns_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	// No CreateSchema: simulate an uninitialized database.
	_, err = s.ListRuns()
	if err == nil {
		t.Fatal("ListRuns() should return an error on uninitialized DB")
	}
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListRuns() error = %v; want errors.Is(err, ErrNotInitialized) to be true", err)
	}
}

// TestListRecords_NoSchema_ReturnsErrNotInitialized verifies the same for
// record queries.
func TestListRecords_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	_, err = s.ListRecords("anything")
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListRecords() error = %v; want ErrNotInitialized", err)
	}
}

func TestErrNotInitialized_ErrorMessage(t *testing.T) {
	if !strings.Contains(ErrNotInitialized.Error(), "uassist") {
		t.Errorf("ErrNotInitialized message %q should tell the user which command to run", ErrNotInitialized.Error())
	}
}

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return store
}

func sampleRecords() []*userassist.Record {
	return []*userassist.Record{
		{
			ProgramName:     "{System}\\mspaint.exe",
			RunCounter:      5,
			FocusCount:      7,
			FocusTimeMS:     90_000,
			FocusTime:       "0d, 0h, 1m, 30s",
			LastExecutedRaw: 132539328000000000,
			LastExecuted:    "2021-01-01 00:00:00 UTC",
		},
		{
			ProgramName: "UEME_RUNPATH",
			RunCounter:  1,
			FocusTime:   "0d, 0h, 0m, 0s",
		},
	}
}

func TestNew(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store.db should not be nil")
	}
}

func TestCreateSchema(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	// Verify tables exist by querying sqlite_master
	for _, table := range []string{"runs", "records"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	for _, index := range []string{"idx_records_run", "idx_records_program", "idx_runs_started"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", index, err)
		}
	}

	// Idempotent
	if err := store.CreateSchema(); err != nil {
		t.Errorf("second CreateSchema() failed: %v", err)
	}
}

func TestInsertAndGetRun(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := store.InsertRun(&Run{
		Source:        "hive:/evidence/NTUSER.DAT",
		StartedAt:     started,
		RecordCount:   2,
		ExcludedCount: 1,
		SkippedCount:  3,
		OutputPath:    "outputs/offline_parsed_userassist.csv",
	})
	if err != nil {
		t.Fatalf("InsertRun() failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("generated run ID %q should be a UUID", id)
	}

	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if run.Source != "hive:/evidence/NTUSER.DAT" || !run.StartedAt.Equal(started) {
		t.Errorf("unexpected run %+v", run)
	}
	if run.RecordCount != 2 || run.ExcludedCount != 1 || run.SkippedCount != 3 {
		t.Errorf("unexpected counts %+v", run)
	}

	// Prefix lookup
	byPrefix, err := store.GetRun(id[:8])
	if err != nil {
		t.Fatalf("GetRun(prefix) failed: %v", err)
	}
	if byPrefix.ID != id {
		t.Errorf("GetRun(prefix) = %s, want %s", byPrefix.ID, id)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetRun("does-not-exist")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, src := range []string{"first", "second", "third"} {
		if _, err := store.InsertRun(&Run{Source: src, StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("InsertRun() failed: %v", err)
		}
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].Source != "third" || runs[2].Source != "first" {
		t.Errorf("runs not ordered newest first: %s, %s, %s", runs[0].Source, runs[1].Source, runs[2].Source)
	}
}

func TestSaveRunAndListRecords(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	id, err := store.SaveRun(&Run{Source: "live"}, sampleRecords())
	if err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}

	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if run.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", run.RecordCount)
	}

	records, err := store.ListRecords(id)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	want := sampleRecords()[0]
	got := records[0]
	if *got != *want {
		t.Errorf("record round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if records[1].LastExecuted != "" {
		t.Errorf("never-executed record LastExecuted = %q, want empty", records[1].LastExecuted)
	}
}

func TestDeleteRun_CascadesRecords(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	id, err := store.SaveRun(&Run{Source: "live"}, sampleRecords())
	if err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	if err := store.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun() failed: %v", err)
	}

	records, err := store.ListRecords(id)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected records to be deleted with run, got %d", len(records))
	}

	if err := store.DeleteRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("second DeleteRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestGetRun_PrefixIsLiteral(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	if _, err := store.SaveRun(&Run{ID: "abc_def", Source: "live"}, nil); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}

	for _, id := range []string{"%", "a%", "_", "abc%", ""} {
		if _, err := store.GetRun(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("GetRun(%q) error = %v, want ErrRunNotFound", id, err)
		}
	}

	run, err := store.GetRun("abc_")
	if err != nil {
		t.Fatalf("GetRun(literal prefix) failed: %v", err)
	}
	if run.ID != "abc_def" {
		t.Errorf("GetRun(literal prefix) = %s, want abc_def", run.ID)
	}
}

func TestSaveRun_Atomic(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	// Make the record insert fail after the run row was written.
	if _, err := store.db.Exec("DROP TABLE records"); err != nil {
		t.Fatalf("failed to drop records table: %v", err)
	}

	if _, err := store.SaveRun(&Run{Source: "live"}, sampleRecords()); err == nil {
		t.Fatal("SaveRun() should fail without a records table")
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no run left behind, got %d", len(runs))
	}
}
