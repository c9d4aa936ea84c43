package board

import (
	"fmt"

	"kanbase/internal/store"
)

// SprintRotation is the result of completing a sprint.
type SprintRotation struct {
	CompletedSprintID string `json:"completedSprintId"`
	NewSprint         Sprint `json:"newSprint"`
}

// CompleteSprint closes the active sprint and opens its successor: the
// active sprint is marked completed, a new active sprint is created, and
// unfinished tickets of the closed sprint move to the new one. Tickets in
// the done column keep their old sprint id and are not restamped.
//
// The new sprint's number is the header-inclusive row count of the sprints
// table at creation time. That ties numbering to table size rather than a
// persisted counter; if sprint rows were ever deleted the numbering could
// repeat. No delete operation exists today.
func (b *Board) CompleteSprint() (SprintRotation, error) {
	sprints, err := b.store.List(store.TableSprints)
	if err != nil {
		return SprintRotation{}, err
	}

	var active []Sprint
	for _, rec := range sprints {
		if rec["status"] == SprintActive {
			active = append(active, sprintFromRecord(rec))
		}
	}
	if len(active) != 1 {
		return SprintRotation{}, ErrNoActiveSprint
	}
	current := active[0]

	now := b.timestamp()
	partial := store.Record{"status": SprintCompleted, "completedDate": now}
	if _, err := b.store.UpdateByID(store.TableSprints, current.ID, partial); err != nil {
		return SprintRotation{}, err
	}

	n, err := b.store.RowCount(store.TableSprints)
	if err != nil {
		return SprintRotation{}, err
	}
	next := Sprint{
		ID:        fmt.Sprintf("s%d", n),
		Name:      fmt.Sprintf("Sprint %d", n),
		Status:    SprintActive,
		StartDate: now,
	}
	if err := b.store.Append(store.TableSprints, next.toRecord()); err != nil {
		return SprintRotation{}, err
	}

	tickets, err := b.store.List(store.TableTickets)
	if err != nil {
		return SprintRotation{}, err
	}
	for _, rec := range tickets {
		if rec["sprintId"] != current.ID || rec["status"] == StatusDone {
			continue
		}
		carry := store.Record{"sprintId": next.ID}
		if _, err := b.store.UpdateByID(store.TableTickets, rec["id"], carry); err != nil {
			return SprintRotation{}, err
		}
	}

	b.logger.Info("sprint completed", "closed", current.ID, "opened", next.ID)
	return SprintRotation{CompletedSprintID: current.ID, NewSprint: next}, nil
}
