package webhooks

import (
	"log/slog"
	"time"
)

type EventType string
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	RunStarted   EventType = "run.started"
	RunCompleted EventType = "run.completed"
	RunFailed    EventType = "run.failed"
	// RunLocked is sent when a run is turned away because another one holds the warehouse.
	RunLocked EventType = "run.locked"

	TableCompleted EventType = "table.completed"
	TableFailed    EventType = "table.failed"
)

type EventMetadata struct {
	Severity Severity
	Category string
	Message  string
}

var eventMetadataMap = map[EventType]EventMetadata{
	RunStarted:   {SeverityInfo, "run", "Merge run started"},
	RunCompleted: {SeverityInfo, "run", "Merge run completed"},
	RunFailed:    {SeverityError, "run", "Merge run aborted"},
	RunLocked:    {SeverityWarning, "run", "Merge run skipped, warehouse is locked"},

	TableCompleted: {SeverityInfo, "table", "Table merged"},
	TableFailed:    {SeverityError, "table", "Table merge failed"},
}

func GetEventMetadata(eventType EventType) EventMetadata {
	if metadata, ok := eventMetadataMap[eventType]; ok {
		return metadata
	}
	slog.Error("Unknown event type", slog.String("eventType", string(eventType)))
	return EventMetadata{SeverityInfo, "operation", "Unknown event type"}
}

type Event struct {
	ID         string         `json:"id"`
	Event      string         `json:"event"`
	Timestamp  time.Time      `json:"timestamp"`
	Properties map[string]any `json:"properties"`
}

// TableProperties are attached to table events.
type TableProperties struct {
	Table     string `json:"table"`
	Inserted  int    `json:"inserted"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}
