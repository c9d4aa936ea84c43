package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"kanbase/internal/store"
)

func newTestGateway(t *testing.T) (*Gateway, *store.Store) {
	t.Helper()
	b, st, backend := newTestBoard(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGateway(b, backend.Lock(), logger), st
}

func execute(t *testing.T, g *Gateway, action string, payload any) any {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	result, err := g.Execute(action, data)
	if err != nil {
		t.Fatalf("%s: %v", action, err)
	}
	return result
}

func TestExecuteEndToEnd(t *testing.T) {
	g, _ := newTestGateway(t)

	created := execute(t, g, ActionCreateTicket, CreateTicketRequest{Title: "Fix bug"}).(Ticket)
	if created.ID != "KAN-101" {
		t.Errorf("id = %q, want KAN-101", created.ID)
	}
	if created.Status != StatusBacklog {
		t.Errorf("status = %q, want backlog", created.Status)
	}
	if created.Priority != DefaultPriority {
		t.Errorf("priority = %q, want Medium", created.Priority)
	}
	if created.Created == "" || created.Created != created.Updated {
		t.Errorf("timestamps = %q / %q", created.Created, created.Updated)
	}

	status := "todo"
	updated := execute(t, g, ActionUpdateTicket, UpdateTicketRequest{ID: "KAN-101", Status: &status}).(Ticket)
	if updated.Status != "todo" {
		t.Errorf("status = %q, want todo", updated.Status)
	}
	if updated.Updated == created.Updated {
		t.Error("updated timestamp should change on mutation")
	}
	if updated.Title != "Fix bug" || updated.Priority != DefaultPriority {
		t.Errorf("unrelated fields changed: %+v", updated)
	}

	deleted := execute(t, g, ActionDeleteTicket, DeleteTicketRequest{ID: "KAN-101"}).(DeleteTicketResult)
	if deleted.ID != "KAN-101" {
		t.Errorf("deleted id = %q", deleted.ID)
	}

	snap := execute(t, g, ActionLoadInitialData, nil).(Snapshot)
	if len(snap.Tickets) != 0 {
		t.Errorf("tickets after delete = %v", snap.Tickets)
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.Execute("explodeBoard", nil)
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}

func TestExecuteUpdateMissingTicket(t *testing.T) {
	g, _ := newTestGateway(t)

	data, _ := json.Marshal(UpdateTicketRequest{ID: "KAN-404"})
	_, err := g.Execute(ActionUpdateTicket, data)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}

func TestExecuteDeleteMissingTicketSucceeds(t *testing.T) {
	g, _ := newTestGateway(t)

	data, _ := json.Marshal(DeleteTicketRequest{ID: "KAN-404"})
	if _, err := g.Execute(ActionDeleteTicket, data); err != nil {
		t.Errorf("delete of missing ticket should be a no-op, got %v", err)
	}
}

func TestExecuteBusy(t *testing.T) {
	g, _ := newTestGateway(t)
	g.lockWait = 25 * time.Millisecond

	if !g.lock.TryAcquire(time.Second) {
		t.Fatal("setup: could not take lock")
	}
	defer g.lock.Release()

	data, _ := json.Marshal(CreateColumnRequest{Title: "QA"})
	_, err := g.Execute(ActionCreateColumn, data)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
}

func TestExecuteSerializesSequencer(t *testing.T) {
	g, st := newTestGateway(t)

	const workers = 20
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data, _ := json.Marshal(CreateTicketRequest{Title: fmt.Sprintf("t%d", n)})
			result, err := g.Execute(ActionCreateTicket, data)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			ids <- result.(Ticket).ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id issued: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Errorf("issued %d ids, want %d", len(seen), workers)
	}

	counter, _, _ := st.Setting(SettingTicketCounter)
	if counter != "120" {
		t.Errorf("counter = %q, want 120", counter)
	}
}

func TestExecuteUpdateSettingsRekeys(t *testing.T) {
	g, st := newTestGateway(t)

	execute(t, g, ActionCreateTicket, CreateTicketRequest{Title: "a"})
	result := execute(t, g, ActionUpdateSettings, UpdateSettingsRequest{ProjectKey: "WEB"}).(SuccessResult)
	if !result.Success {
		t.Error("expected success")
	}

	recs, _ := st.List(store.TableTickets)
	if recs[0]["id"] != "WEB-101" {
		t.Errorf("id = %q, want WEB-101", recs[0]["id"])
	}

	// The sequencer picks up the new prefix immediately.
	next := execute(t, g, ActionCreateTicket, CreateTicketRequest{Title: "b"}).(Ticket)
	if next.ID != "WEB-102" {
		t.Errorf("next id = %q, want WEB-102", next.ID)
	}
}

func TestExecuteColumnLifecycle(t *testing.T) {
	g, _ := newTestGateway(t)

	col := execute(t, g, ActionCreateColumn, CreateColumnRequest{Title: "QA Review"}).(Column)
	if col.ID != "qa-review" || col.OrderIndex != 3 {
		t.Errorf("column = %+v", col)
	}

	execute(t, g, ActionReorderColumns, ReorderColumnsRequest{
		NewOrderIDs: []string{"qa-review", "todo", "progress", "done"},
	})

	snap := execute(t, g, ActionLoadInitialData, nil).(Snapshot)
	if snap.Columns[0].ID != "qa-review" {
		t.Errorf("columns = %v", snap.Columns)
	}

	execute(t, g, ActionDeleteColumn, DeleteColumnRequest{ID: "qa-review"})
	snap = execute(t, g, ActionLoadInitialData, nil).(Snapshot)
	if len(snap.Columns) != 3 {
		t.Errorf("columns after delete = %v", snap.Columns)
	}
}

func TestExecuteCompleteSprint(t *testing.T) {
	g, _ := newTestGateway(t)

	rotation := execute(t, g, ActionCompleteSprint, nil).(SprintRotation)
	if rotation.CompletedSprintID != "s1" || rotation.NewSprint.ID != "s2" {
		t.Errorf("rotation = %+v", rotation)
	}
}
