package types

import "time"

// EventType identifies the kind of lifecycle event fanned out to viewers.
type EventType string

const (
	EventLogLine           EventType = "log_line"
	EventKPIUpdate         EventType = "kpi_update"
	EventCallReceived      EventType = "call_received"
	EventExecutionComplete EventType = "execution_complete"
	EventExecutionError    EventType = "execution_error"
)

// Event is the envelope broadcast to every connected viewer. Delivery is
// at-most-once, FIFO per viewer relative to publish order.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(kind EventType, message string, payload interface{}) Event {
	return Event{
		Type:      kind,
		Timestamp: time.Now(),
		Message:   message,
		Payload:   payload,
	}
}
