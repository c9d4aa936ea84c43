package board

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kanbase/internal/store"
)

var lowerCaser = cases.Lower(language.Und)

// slugify derives a column id from its title: lower-case, with every rune
// outside [a-z0-9] replaced by '-'.
func slugify(title string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, lowerCaser.String(title))
}

// AddColumn creates a workflow column. Creation is idempotent on the
// derived id: if a column with that id exists it is returned unchanged and
// no row is written. A new column is placed after the highest existing
// order index.
func (b *Board) AddColumn(title string) (Column, error) {
	id := slugify(title)

	recs, err := b.store.List(store.TableColumns)
	if err != nil {
		return Column{}, err
	}

	next := 0
	for _, rec := range recs {
		col := columnFromRecord(rec)
		if col.ID == id {
			return col, nil
		}
		if col.OrderIndex >= next {
			next = col.OrderIndex + 1
		}
	}

	col := Column{ID: id, Title: title, OrderIndex: next}
	if err := b.store.Append(store.TableColumns, col.toRecord()); err != nil {
		return Column{}, err
	}
	return col, nil
}

// DeleteColumn removes a workflow column. Tickets in the column are moved
// to the backlog and detached from their sprint before the column row is
// removed, so no ticket ever references a deleted column.
func (b *Board) DeleteColumn(id string) error {
	tickets, err := b.store.List(store.TableTickets)
	if err != nil {
		return err
	}
	ts := b.timestamp()
	for _, rec := range tickets {
		if rec["status"] != id {
			continue
		}
		partial := store.Record{"status": StatusBacklog, "sprintId": "", "updated": ts}
		if _, err := b.store.UpdateByID(store.TableTickets, rec["id"], partial); err != nil {
			return err
		}
	}

	return b.store.DeleteByID(store.TableColumns, id)
}

// ReorderColumns sets each listed column's order index to its position in
// orderedIDs. Columns not listed keep their prior index; no renumbering or
// permutation check is performed, a partial list is the caller's problem.
func (b *Board) ReorderColumns(orderedIDs []string) error {
	position := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}

	recs, err := b.store.List(store.TableColumns)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		pos, ok := position[rec["id"]]
		if !ok {
			continue
		}
		partial := store.Record{"orderIndex": strconv.Itoa(pos)}
		if _, err := b.store.UpdateByID(store.TableColumns, rec["id"], partial); err != nil {
			return err
		}
	}
	return nil
}
