// Package audit records admission decisions for compliance review:
// every transaction accepted into or refused from the mempool leaves
// an audit event.
package audit

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Event is a single admission decision.
type Event struct {
	EventID   string            `json:"eventId"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"eventType"` // e.g. "TxAdmission", "BlockValidation"
	EntityID  string            `json:"entityId"`  // txId or blockHash
	Result    string            `json:"result"`    // "accepted" or "rejected"
	Reason    string            `json:"reason"`    // rejection constraint, empty on success
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger is the interface for recording audit events.
type Logger interface {
	LogEvent(event Event)
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType, entityID, result, reason string) Event {
	return Event{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		EntityID:  entityID,
		Result:    result,
		Reason:    reason,
	}
}

// LogrusLogger emits audit events to the structured log.
type LogrusLogger struct{}

func NewLogrusLogger() Logger {
	return &LogrusLogger{}
}

func (l *LogrusLogger) LogEvent(event Event) {
	log.WithFields(log.Fields{
		"eventId":   event.EventID,
		"eventType": event.EventType,
		"entityId":  event.EntityID,
		"result":    event.Result,
		"reason":    event.Reason,
	}).Info("audit event")
}
