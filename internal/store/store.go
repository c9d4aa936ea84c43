// Package store implements the generic record store: schema-driven mapping
// between positional sheet rows and named-field records, with id-keyed
// update and delete on top of linear scans.
package store

import (
	"errors"
	"fmt"
	"time"

	"kanbase/internal/sheet"
)

// ErrNotFound is returned when an update targets a record that does not
// exist. Deletes are idempotent and never return it.
var ErrNotFound = errors.New("record not found")

// Record is one row's field values keyed by column name.
type Record map[string]string

// Store reads and writes schema-ordered rows through the sheet backend.
// It performs no locking of its own; the mutation gateway serializes
// writers above this layer.
type Store struct {
	backend *sheet.Backend
}

// New creates a store over an open backend.
func New(backend *sheet.Backend) *Store {
	return &Store{backend: backend}
}

// List returns every data row of a table as a record, in row order.
func (s *Store) List(table string) ([]Record, error) {
	cols, ok := Schemas[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	rows, err := s.backend.Rows(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, fromRow(cols, row))
	}
	return out, nil
}

// Append writes one new row. Declared columns missing from the record are
// written as empty strings; fields outside the schema are dropped.
func (s *Store) Append(table string, rec Record) error {
	cols, ok := Schemas[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	return s.backend.AppendRow(table, toRow(cols, rec))
}

// UpdateByID locates the first row whose key column equals id, writes each
// field present in partial to its column cell, and returns the merged
// record. Returns ErrNotFound if no row matches.
func (s *Store) UpdateByID(table, id string, partial Record) (Record, error) {
	cols, ok := Schemas[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	rows, err := s.backend.Rows(table)
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(rows); i++ {
		if len(rows[i]) == 0 || rows[i][0] != id {
			continue
		}
		merged := fromRow(cols, rows[i])
		for j, col := range cols {
			val, present := partial[col]
			if !present {
				continue
			}
			if err := s.backend.UpdateCell(table, i, j, val); err != nil {
				return nil, err
			}
			merged[col] = val
		}
		return merged, nil
	}
	return nil, fmt.Errorf("%s %q: %w", table, id, ErrNotFound)
}

// DeleteByID removes the first row whose key column equals id. Deleting an
// absent id is a no-op.
func (s *Store) DeleteByID(table, id string) error {
	rows, err := s.backend.Rows(table)
	if err != nil {
		return err
	}
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && rows[i][0] == id {
			return s.backend.DeleteRow(table, i)
		}
	}
	return nil
}

// RowCount returns a table's row count, header row included.
func (s *Store) RowCount(table string) (int, error) {
	return s.backend.RowCount(table)
}

// Setting returns the value of a settings key and whether it exists.
func (s *Store) Setting(key string) (string, bool, error) {
	recs, err := s.List(TableSettings)
	if err != nil {
		return "", false, err
	}
	for _, rec := range recs {
		if rec["key"] == key {
			return rec["value"], true, nil
		}
	}
	return "", false, nil
}

// SetSetting writes a settings key, inserting it if absent.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.UpdateByID(TableSettings, key, Record{"value": value})
	if errors.Is(err, ErrNotFound) {
		return s.Append(TableSettings, Record{"key": key, "value": value})
	}
	return err
}

// fromRow maps a positional row to a record. The mapping is total: columns
// beyond the row's width read as empty strings.
func fromRow(cols []string, row []string) Record {
	rec := make(Record, len(cols))
	for i, col := range cols {
		if i < len(row) {
			rec[col] = row[i]
		} else {
			rec[col] = ""
		}
	}
	return rec
}

// toRow maps a record to a positional row in schema column order.
func toRow(cols []string, rec Record) []string {
	row := make([]string, len(cols))
	for i, col := range cols {
		row[i] = rec[col]
	}
	return row
}

// Seed provisions table headers and first-run defaults: the project key and
// ticket counter, the three default workflow columns, and one active
// sprint. Calling it on an already-seeded backend changes nothing.
func (s *Store) Seed(now time.Time) error {
	for _, table := range tableOrder {
		if err := s.backend.EnsureTable(table, Schemas[table]); err != nil {
			return err
		}
	}

	settings, err := s.List(TableSettings)
	if err != nil {
		return err
	}
	if len(settings) == 0 {
		if err := s.Append(TableSettings, Record{"key": "projectKey", "value": "KAN"}); err != nil {
			return err
		}
		if err := s.Append(TableSettings, Record{"key": "ticketCounter", "value": "100"}); err != nil {
			return err
		}
	}

	columns, err := s.List(TableColumns)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		defaults := []Record{
			{"id": "todo", "title": "To Do", "orderIndex": "0"},
			{"id": "progress", "title": "In Progress", "orderIndex": "1"},
			{"id": "done", "title": "Done", "orderIndex": "2"},
		}
		for _, rec := range defaults {
			if err := s.Append(TableColumns, rec); err != nil {
				return err
			}
		}
	}

	sprints, err := s.List(TableSprints)
	if err != nil {
		return err
	}
	if len(sprints) == 0 {
		err := s.Append(TableSprints, Record{
			"id":        "s1",
			"name":      "Sprint 1",
			"status":    "active",
			"startDate": now.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}

	return nil
}
