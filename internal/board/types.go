package board

import (
	"strconv"

	"kanbase/internal/store"
)

// Reserved status and setting values.
const (
	StatusBacklog = "backlog"
	StatusDone    = "done"

	SprintActive    = "active"
	SprintCompleted = "completed"

	SettingProjectKey    = "projectKey"
	SettingTicketCounter = "ticketCounter"

	// DefaultProjectKey is used when no projectKey setting exists.
	DefaultProjectKey = "KAN"

	// DefaultPriority is assigned to tickets created without one.
	DefaultPriority = "Medium"
)

// Ticket is a work item. Status references a workflow column id or the
// backlog sentinel; SprintID references a sprint id or is empty.
type Ticket struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	SprintID    string `json:"sprintId"`
	Due         string `json:"due"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

func ticketFromRecord(rec store.Record) Ticket {
	return Ticket{
		ID:          rec["id"],
		Title:       rec["title"],
		Priority:    rec["priority"],
		Status:      rec["status"],
		Description: rec["description"],
		Assignee:    rec["assignee"],
		SprintID:    rec["sprintId"],
		Due:         rec["due"],
		Created:     rec["created"],
		Updated:     rec["updated"],
	}
}

func (t Ticket) toRecord() store.Record {
	return store.Record{
		"id":          t.ID,
		"title":       t.Title,
		"priority":    t.Priority,
		"status":      t.Status,
		"description": t.Description,
		"assignee":    t.Assignee,
		"sprintId":    t.SprintID,
		"due":         t.Due,
		"created":     t.Created,
		"updated":     t.Updated,
	}
}

// Sprint is a bounded work period. At most one sprint is active at a time.
type Sprint struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	CompletedDate string `json:"completedDate"`
}

func sprintFromRecord(rec store.Record) Sprint {
	return Sprint{
		ID:            rec["id"],
		Name:          rec["name"],
		Status:        rec["status"],
		StartDate:     rec["startDate"],
		EndDate:       rec["endDate"],
		CompletedDate: rec["completedDate"],
	}
}

func (sp Sprint) toRecord() store.Record {
	return store.Record{
		"id":            sp.ID,
		"name":          sp.Name,
		"status":        sp.Status,
		"startDate":     sp.StartDate,
		"endDate":       sp.EndDate,
		"completedDate": sp.CompletedDate,
	}
}

// Column is a workflow stage. OrderIndex defines progression order; values
// are unique per snapshot but need not be contiguous.
type Column struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"orderIndex"`
}

func columnFromRecord(rec store.Record) Column {
	idx, _ := strconv.Atoi(rec["orderIndex"])
	return Column{
		ID:         rec["id"],
		Title:      rec["title"],
		OrderIndex: idx,
	}
}

func (c Column) toRecord() store.Record {
	return store.Record{
		"id":         c.ID,
		"title":      c.Title,
		"orderIndex": strconv.Itoa(c.OrderIndex),
	}
}
