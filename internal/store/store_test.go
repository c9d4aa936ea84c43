package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kanbase/internal/sheet"
)

var seedTime = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := sheet.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	s := New(backend)
	if err := s.Seed(seedTime); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	return s
}

func TestAppendFillsMissingColumns(t *testing.T) {
	s := newTestStore(t)

	err := s.Append(TableTickets, Record{"id": "KAN-1", "title": "First", "rogue": "dropped"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	recs, err := s.List(TableTickets)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d tickets, want 1", len(recs))
	}

	rec := recs[0]
	if rec["id"] != "KAN-1" || rec["title"] != "First" {
		t.Errorf("record = %v", rec)
	}
	if rec["priority"] != "" || rec["status"] != "" {
		t.Errorf("missing columns should read empty, got %v", rec)
	}
	if _, ok := rec["rogue"]; ok {
		t.Error("field outside the schema must be dropped")
	}
}

func TestUpdateByIDMerges(t *testing.T) {
	s := newTestStore(t)
	s.Append(TableTickets, Record{"id": "KAN-1", "title": "First", "status": "backlog"})

	merged, err := s.UpdateByID(TableTickets, "KAN-1", Record{"status": "todo"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if merged["status"] != "todo" {
		t.Errorf("merged status = %q, want todo", merged["status"])
	}
	if merged["title"] != "First" {
		t.Errorf("merged title = %q, want First", merged["title"])
	}

	recs, _ := s.List(TableTickets)
	if recs[0]["status"] != "todo" {
		t.Errorf("persisted status = %q, want todo", recs[0]["status"])
	}
}

func TestUpdateByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateByID(TableTickets, "KAN-999", Record{"title": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateByIDFirstMatchWins(t *testing.T) {
	s := newTestStore(t)
	s.Append(TableTickets, Record{"id": "KAN-1", "title": "first copy"})
	s.Append(TableTickets, Record{"id": "KAN-1", "title": "second copy"})

	if _, err := s.UpdateByID(TableTickets, "KAN-1", Record{"title": "updated"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	recs, _ := s.List(TableTickets)
	if recs[0]["title"] != "updated" {
		t.Errorf("first row title = %q, want updated", recs[0]["title"])
	}
	if recs[1]["title"] != "second copy" {
		t.Errorf("second row title = %q, want untouched", recs[1]["title"])
	}
}

func TestDeleteByIDIdempotent(t *testing.T) {
	s := newTestStore(t)
	s.Append(TableTickets, Record{"id": "KAN-1", "title": "First"})

	if err := s.DeleteByID(TableTickets, "KAN-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Deleting again is a no-op, not an error.
	if err := s.DeleteByID(TableTickets, "KAN-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	recs, _ := s.List(TableTickets)
	if len(recs) != 0 {
		t.Errorf("got %d tickets, want 0", len(recs))
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Setting("projectKey")
	if err != nil || !ok || v != "KAN" {
		t.Errorf("projectKey = %q, %v, %v; want KAN", v, ok, err)
	}

	if _, ok, _ := s.Setting("missing"); ok {
		t.Error("missing key should not exist")
	}

	if err := s.SetSetting("projectKey", "WEB"); err != nil {
		t.Fatalf("set existing: %v", err)
	}
	if err := s.SetSetting("theme", "dark"); err != nil {
		t.Fatalf("set new: %v", err)
	}

	v, _, _ = s.Setting("projectKey")
	if v != "WEB" {
		t.Errorf("projectKey = %q, want WEB", v)
	}
	v, ok, _ = s.Setting("theme")
	if !ok || v != "dark" {
		t.Errorf("theme = %q, %v; want dark", v, ok)
	}
}

func TestSeedDefaults(t *testing.T) {
	s := newTestStore(t)

	counter, _, _ := s.Setting("ticketCounter")
	if counter != "100" {
		t.Errorf("ticketCounter = %q, want 100", counter)
	}

	columns, _ := s.List(TableColumns)
	if len(columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(columns))
	}
	wantIDs := []string{"todo", "progress", "done"}
	for i, rec := range columns {
		if rec["id"] != wantIDs[i] {
			t.Errorf("column %d = %q, want %q", i, rec["id"], wantIDs[i])
		}
	}

	sprints, _ := s.List(TableSprints)
	if len(sprints) != 1 {
		t.Fatalf("got %d sprints, want 1", len(sprints))
	}
	if sprints[0]["id"] != "s1" || sprints[0]["status"] != "active" {
		t.Errorf("sprint = %v", sprints[0])
	}
	if sprints[0]["startDate"] == "" {
		t.Error("seeded sprint should have a start date")
	}
}

func TestSeedIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.Seed(seedTime.Add(time.Hour)); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	settings, _ := s.List(TableSettings)
	columns, _ := s.List(TableColumns)
	sprints, _ := s.List(TableSprints)
	if len(settings) != 2 || len(columns) != 3 || len(sprints) != 1 {
		t.Errorf("reseed changed row counts: %d settings, %d columns, %d sprints",
			len(settings), len(columns), len(sprints))
	}
}
