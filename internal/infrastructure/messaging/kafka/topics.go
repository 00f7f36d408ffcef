package kafka

import (
	"time"

	"github.com/google/uuid"
)

// Topic constants for import-lifecycle events.
const (
	TopicImportCompleted = "molimport.import.completed"
)

// EventEnvelope standardises every message molimport publishes: a typed
// payload plus routing and tracing metadata.
type EventEnvelope struct {
	EventID   uuid.UUID   `json:"event_id"`
	EventType string      `json:"event_type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// newEnvelope wraps payload with fresh event metadata.
func newEnvelope(eventType string, payload interface{}) EventEnvelope {
	return EventEnvelope{
		EventID:   uuid.New(),
		EventType: eventType,
		Source:    "molimport",
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
