package board

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"kanbase/internal/sheet"
	"kanbase/internal/store"
)

// Recognized dispatch actions.
const (
	ActionLoadInitialData = "loadInitialData"
	ActionCreateTicket    = "createTicket"
	ActionUpdateTicket    = "updateTicket"
	ActionDeleteTicket    = "deleteTicket"
	ActionCreateColumn    = "createColumn"
	ActionDeleteColumn    = "deleteColumn"
	ActionReorderColumns  = "reorderColumns"
	ActionCompleteSprint  = "completeSprint"
	ActionUpdateSettings  = "updateSettings"
)

// defaultLockWait bounds how long an action waits for the write lock.
const defaultLockWait = 10 * time.Second

// Gateway is the single entry point for mutations. Every write action runs
// under the backend's advisory lock, so writes are fully serialized; the
// sequencer and sprint lifecycle rely on that. loadInitialData reads
// without the lock and may observe an in-flight write.
type Gateway struct {
	board    *Board
	lock     *sheet.Lock
	logger   *slog.Logger
	lockWait time.Duration
}

// NewGateway creates a gateway over a board and the backend's lock.
func NewGateway(b *Board, lock *sheet.Lock, logger *slog.Logger) *Gateway {
	return &Gateway{
		board:    b,
		lock:     lock,
		logger:   logger,
		lockWait: defaultLockWait,
	}
}

// CreateTicketRequest carries the optional fields of a new ticket.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	SprintID    string `json:"sprintId"`
	Due         string `json:"due"`
}

// UpdateTicketRequest carries a partial update; nil fields are untouched.
type UpdateTicketRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
	Assignee    *string `json:"assignee"`
	SprintID    *string `json:"sprintId"`
	Due         *string `json:"due"`
}

// DeleteTicketRequest names the ticket to delete.
type DeleteTicketRequest struct {
	ID string `json:"id"`
}

// DeleteTicketResult echoes the deleted id.
type DeleteTicketResult struct {
	ID string `json:"id"`
}

// CreateColumnRequest names the new column.
type CreateColumnRequest struct {
	Title string `json:"title"`
}

// DeleteColumnRequest names the column to delete.
type DeleteColumnRequest struct {
	ID string `json:"id"`
}

// ReorderColumnsRequest lists column ids in their new display order.
type ReorderColumnsRequest struct {
	NewOrderIDs []string `json:"newOrderIds"`
}

// UpdateSettingsRequest carries optional setting changes.
type UpdateSettingsRequest struct {
	ProjectKey string `json:"projectKey"`
}

// SuccessResult is the bare acknowledgement shape.
type SuccessResult struct {
	Success bool `json:"success"`
}

// Execute dispatches one action. Write actions acquire the lock first and
// release it on every exit path; if the lock is not acquired within the
// wait window the action is never attempted and ErrBusy is returned.
func (g *Gateway) Execute(action string, data json.RawMessage) (any, error) {
	if action == ActionLoadInitialData {
		snap, err := g.board.Snapshot()
		observeAction(action, err)
		if err != nil {
			return nil, err
		}
		return snap, nil
	}

	waitStart := time.Now()
	if !g.lock.TryAcquire(g.lockWait) {
		lockTimeouts.Inc()
		g.logger.Warn("lock wait timed out", "action", action)
		return nil, ErrBusy
	}
	lockWaitSeconds.Observe(time.Since(waitStart).Seconds())
	defer g.lock.Release()

	result, err := g.dispatch(action, data)
	observeAction(action, err)
	if err != nil {
		g.logger.Error("action failed", "action", action, "error", err)
		return nil, err
	}
	return result, nil
}

func (g *Gateway) dispatch(action string, data json.RawMessage) (any, error) {
	switch action {
	case ActionCreateTicket:
		var req CreateTicketRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return g.createTicket(req)

	case ActionUpdateTicket:
		var req UpdateTicketRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return g.updateTicket(req)

	case ActionDeleteTicket:
		var req DeleteTicketRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		if err := g.board.store.DeleteByID(store.TableTickets, req.ID); err != nil {
			return nil, err
		}
		return DeleteTicketResult{ID: req.ID}, nil

	case ActionCreateColumn:
		var req CreateColumnRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return g.board.AddColumn(req.Title)

	case ActionDeleteColumn:
		var req DeleteColumnRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		if err := g.board.DeleteColumn(req.ID); err != nil {
			return nil, err
		}
		return SuccessResult{Success: true}, nil

	case ActionReorderColumns:
		var req ReorderColumnsRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		if err := g.board.ReorderColumns(req.NewOrderIDs); err != nil {
			return nil, err
		}
		return SuccessResult{Success: true}, nil

	case ActionCompleteSprint:
		return g.board.CompleteSprint()

	case ActionUpdateSettings:
		var req UpdateSettingsRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		if req.ProjectKey != "" {
			if err := g.board.RekeyProject(req.ProjectKey); err != nil {
				return nil, err
			}
		}
		return SuccessResult{Success: true}, nil

	default:
		return nil, fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}
}

// createTicket issues the next sequencer id, fills defaults, and appends
// the ticket row.
func (g *Gateway) createTicket(req CreateTicketRequest) (Ticket, error) {
	id, err := g.board.NextTicketID()
	if err != nil {
		return Ticket{}, err
	}

	now := g.board.timestamp()
	t := Ticket{
		ID:          id,
		Title:       req.Title,
		Priority:    req.Priority,
		Status:      req.Status,
		Description: req.Description,
		Assignee:    req.Assignee,
		SprintID:    req.SprintID,
		Due:         req.Due,
		Created:     now,
		Updated:     now,
	}
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	if t.Status == "" {
		t.Status = StatusBacklog
	}

	if err := g.board.store.Append(store.TableTickets, t.toRecord()); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// updateTicket writes the present fields and stamps updated.
func (g *Gateway) updateTicket(req UpdateTicketRequest) (Ticket, error) {
	partial := store.Record{"updated": g.board.timestamp()}
	set := func(col string, v *string) {
		if v != nil {
			partial[col] = *v
		}
	}
	set("title", req.Title)
	set("priority", req.Priority)
	set("status", req.Status)
	set("description", req.Description)
	set("assignee", req.Assignee)
	set("sprintId", req.SprintID)
	set("due", req.Due)

	merged, err := g.board.store.UpdateByID(store.TableTickets, req.ID, partial)
	if err != nil {
		return Ticket{}, err
	}
	return ticketFromRecord(merged), nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
