// Package sheet provides the tabular persistence backend: named tables of
// positional rows with a header row, plus a process-wide advisory lock.
// Rows are addressed by index (row 0 is the header) and cells by column
// index; higher layers give cells their meaning.
package sheet

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Backend stores named tables as ordered rows of string cells in a single
// SQLite file. The row model stays positional on purpose: readers receive
// every row in order and do their own scanning, like a spreadsheet range.
type Backend struct {
	db   *sql.DB
	lock *Lock
}

// Open opens or creates the backing SQLite file at the given path.
func Open(path string) (*Backend, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sheet_rows (
		    tbl TEXT NOT NULL,
		    pos INTEGER NOT NULL,
		    cells TEXT NOT NULL,
		    PRIMARY KEY (tbl, pos)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sheet_rows table: %w", err)
	}

	return &Backend{db: db, lock: NewLock()}, nil
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Lock returns the backend's advisory lock.
func (b *Backend) Lock() *Lock {
	return b.lock
}

// Rows returns every row of a table in order, header row first.
func (b *Backend) Rows(table string) ([][]string, error) {
	rows, err := b.db.Query(`SELECT cells FROM sheet_rows WHERE tbl = ? ORDER BY pos`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows of %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(data), &cells); err != nil {
			return nil, fmt.Errorf("corrupt row in %s: %w", table, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

// RowCount returns the number of rows in a table, header row included.
func (b *Backend) RowCount(table string) (int, error) {
	var n int
	row := b.db.QueryRow(`SELECT COUNT(*) FROM sheet_rows WHERE tbl = ?`, table)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

// AppendRow appends one row after the last row of the table.
func (b *Backend) AppendRow(table string, cells []string) error {
	data, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	_, err = b.db.Exec(`
		INSERT INTO sheet_rows (tbl, pos, cells)
		SELECT ?, COALESCE(MAX(pos), -1) + 1, ? FROM sheet_rows WHERE tbl = ?
	`, table, string(data), table)
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", table, err)
	}
	return nil
}

// UpdateCell overwrites a single cell, addressed by row and column index.
// Row 0 is the header row.
func (b *Backend) UpdateCell(table string, rowIdx, colIdx int, value string) error {
	pos, cells, err := b.rowAt(table, rowIdx)
	if err != nil {
		return err
	}
	if colIdx < 0 || colIdx >= len(cells) {
		return fmt.Errorf("column %d out of range in %s row %d", colIdx, table, rowIdx)
	}

	cells[colIdx] = value
	data, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	_, err = b.db.Exec(`UPDATE sheet_rows SET cells = ? WHERE tbl = ? AND pos = ?`, string(data), table, pos)
	if err != nil {
		return fmt.Errorf("failed to update cell in %s: %w", table, err)
	}
	return nil
}

// DeleteRow removes the row at the given index; subsequent rows shift up.
func (b *Backend) DeleteRow(table string, rowIdx int) error {
	pos, _, err := b.rowAt(table, rowIdx)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(`DELETE FROM sheet_rows WHERE tbl = ? AND pos = ?`, table, pos)
	if err != nil {
		return fmt.Errorf("failed to delete row from %s: %w", table, err)
	}
	return nil
}

// EnsureTable writes the header row if the table has no rows yet.
func (b *Backend) EnsureTable(table string, header []string) error {
	n, err := b.RowCount(table)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return b.AppendRow(table, header)
}

// rowAt resolves a positional row index to its stored position and cells.
func (b *Backend) rowAt(table string, rowIdx int) (int, []string, error) {
	if rowIdx < 0 {
		return 0, nil, fmt.Errorf("row %d out of range in %s", rowIdx, table)
	}
	row := b.db.QueryRow(`
		SELECT pos, cells FROM sheet_rows WHERE tbl = ? ORDER BY pos LIMIT 1 OFFSET ?
	`, table, rowIdx)

	var pos int
	var data string
	if err := row.Scan(&pos, &data); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil, fmt.Errorf("row %d out of range in %s", rowIdx, table)
		}
		return 0, nil, fmt.Errorf("failed to read row %d of %s: %w", rowIdx, table, err)
	}

	var cells []string
	if err := json.Unmarshal([]byte(data), &cells); err != nil {
		return 0, nil, fmt.Errorf("corrupt row in %s: %w", table, err)
	}
	return pos, cells, nil
}
