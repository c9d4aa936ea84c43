package store

// Table names.
const (
	TableTickets  = "tickets"
	TableSprints  = "sprints"
	TableColumns  = "columns"
	TableSettings = "settings"
)

// tableOrder fixes the provisioning order of the tables.
var tableOrder = []string{TableTickets, TableSprints, TableColumns, TableSettings}

// Schemas maps each table to its ordered column list. The first column of
// every table is its lookup key. Storage order is declared once here;
// readers access cells by column name only.
var Schemas = map[string][]string{
	TableTickets:  {"id", "title", "priority", "status", "description", "assignee", "sprintId", "due", "created", "updated"},
	TableSprints:  {"id", "name", "status", "startDate", "endDate", "completedDate"},
	TableColumns:  {"id", "title", "orderIndex"},
	TableSettings: {"key", "value"},
}
