package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nishad/encode-audit/internal/errors"
)

// Helper to create a temporary ledger
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("ENCODE_AUDIT_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("ENCODE_AUDIT_STATE_HOME", filepath.Join(dir, "state"))

	store, err := Open(filepath.Join(dir, "runs", "history.db"))
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStartAndFinishRun(t *testing.T) {
	store := setupTestStore(t)

	run := &Run{
		Server:    "https://www.encodeproject.org",
		Filters:   map[string][]string{"status": {"released", "submitted"}},
		Outfile:   "Error_Count.xlsx",
		AllAudits: true,
	}
	if err := store.StartRun(run); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected run ID to be assigned")
	}
	if run.Status != StatusRunning {
		t.Errorf("expected status running, got %q", run.Status)
	}

	if err := store.FinishRun(run.ID, "https://www.encodeproject.org/matrix/?type=Experiment", 12, 30, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected completed, got %q", got.Status)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished_at to be set")
	}
	if got.Rows != 12 || got.Fetches != 30 {
		t.Errorf("expected 12 rows and 30 fetches, got %d and %d", got.Rows, got.Fetches)
	}
	if len(got.Filters["status"]) != 2 || got.Filters["status"][1] != "submitted" {
		t.Errorf("filters not round-tripped: %v", got.Filters)
	}
	if !got.AllAudits || got.AllAssays {
		t.Errorf("unexpected flags: all_audits=%v all_assays=%v", got.AllAudits, got.AllAssays)
	}
}

func TestFinishRunFailed(t *testing.T) {
	store := setupTestStore(t)

	run := &Run{}
	if err := store.StartRun(run); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := store.FinishRun(run.ID, "", 0, 1, fmt.Errorf("connection reset")); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != StatusFailed || got.Error != "connection reset" {
		t.Errorf("expected failed run with error, got %q / %q", got.Status, got.Error)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := setupTestStore(t)
	if err := store.FinishRun("missing", "", 0, 0, nil); !errors.IsKind(err, errors.KindStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.GetRun("missing"); !errors.IsKind(err, errors.KindStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestRecordAndListCells(t *testing.T) {
	store := setupTestStore(t)

	run := &Run{}
	if err := store.StartRun(run); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	for _, c := range []Cell{
		{RunID: run.ID, BiosampleType: "tissue", BiosampleName: "liver", Column: "Short RNA-seq", Total: 2, Error: 1},
		{RunID: run.ID, BiosampleType: "tissue", BiosampleName: "liver", Column: "Long RNA-seq", Total: 3, NotCompliant: 2},
	} {
		if err := store.RecordCell(c); err != nil {
			t.Fatalf("RecordCell failed: %v", err)
		}
	}

	cells, err := store.Cells(run.ID)
	if err != nil {
		t.Fatalf("Cells failed: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0].Column != "Short RNA-seq" || cells[1].NotCompliant != 2 {
		t.Errorf("unexpected cells %+v", cells)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &Run{ID: fmt.Sprintf("run-%d", i), StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.StartRun(run); err != nil {
			t.Fatalf("StartRun failed: %v", err)
		}
	}

	runs, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].FinishedAt != nil {
		t.Error("running entry should have no finish time")
	}
}

func TestOpenCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENCODE_AUDIT_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("ENCODE_AUDIT_STATE_HOME", filepath.Join(dir, "state"))

	path := filepath.Join(dir, "custom", "nested", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	for _, d := range []string{
		filepath.Join(dir, "config"),
		filepath.Join(dir, "state"),
		filepath.Join(dir, "custom", "nested"),
	} {
		if _, err := os.Stat(d); err != nil {
			t.Errorf("expected directory %q: %v", d, err)
		}
	}
	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}
}
