// Package board implements the domain core of the tracker: the ticket id
// sequencer, the workflow column graph, the sprint lifecycle, and the
// mutation gateway that serializes all writes behind the advisory lock.
package board

import (
	"log/slog"
	"sort"
	"time"

	"kanbase/internal/store"
)

// Board implements the domain operations over the record store. Its
// methods assume the caller holds the gateway lock; the board itself
// performs no locking.
type Board struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a board over a seeded store.
func New(st *store.Store, logger *slog.Logger) *Board {
	return &Board{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// timestamp returns the current time in the persisted ISO-8601 form.
func (b *Board) timestamp() string {
	return b.now().UTC().Format(time.RFC3339)
}

// Snapshot is the full board state returned by loadInitialData.
type Snapshot struct {
	Tickets  []Ticket          `json:"tickets"`
	Sprints  []Sprint          `json:"sprints"`
	Columns  []Column          `json:"columns"`
	Settings map[string]string `json:"settings"`
}

// Snapshot reads the whole board. It does not take the gateway lock, so a
// snapshot may observe state mid-write; callers accept that staleness.
func (b *Board) Snapshot() (Snapshot, error) {
	ticketRecs, err := b.store.List(store.TableTickets)
	if err != nil {
		return Snapshot{}, err
	}
	sprintRecs, err := b.store.List(store.TableSprints)
	if err != nil {
		return Snapshot{}, err
	}
	columnRecs, err := b.store.List(store.TableColumns)
	if err != nil {
		return Snapshot{}, err
	}
	settingRecs, err := b.store.List(store.TableSettings)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Tickets:  make([]Ticket, 0, len(ticketRecs)),
		Sprints:  make([]Sprint, 0, len(sprintRecs)),
		Columns:  make([]Column, 0, len(columnRecs)),
		Settings: make(map[string]string, len(settingRecs)),
	}
	for _, rec := range ticketRecs {
		snap.Tickets = append(snap.Tickets, ticketFromRecord(rec))
	}
	for _, rec := range sprintRecs {
		snap.Sprints = append(snap.Sprints, sprintFromRecord(rec))
	}
	for _, rec := range columnRecs {
		snap.Columns = append(snap.Columns, columnFromRecord(rec))
	}
	for _, rec := range settingRecs {
		snap.Settings[rec["key"]] = rec["value"]
	}

	sort.Slice(snap.Columns, func(i, j int) bool {
		return snap.Columns[i].OrderIndex < snap.Columns[j].OrderIndex
	})

	return snap, nil
}

// Ticket returns a ticket by id.
func (b *Board) Ticket(id string) (Ticket, bool, error) {
	recs, err := b.store.List(store.TableTickets)
	if err != nil {
		return Ticket{}, false, err
	}
	for _, rec := range recs {
		if rec["id"] == id {
			return ticketFromRecord(rec), true, nil
		}
	}
	return Ticket{}, false, nil
}
