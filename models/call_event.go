package models

import (
	"encoding/json"
	"time"
)

// Event types with pipeline significance. A hangup marks the call finished
// and feeds the CDR fan-out; answered drives the external agent status.
const (
	EventTypeAnswered = "answered"
	EventTypeHangup   = "hangup"
)

// CallEvent is one event row from the upstream event log. event_id is the
// upstream natural key; events may reference calls that have not been
// ingested yet.
// Table: call_events
type CallEvent struct {
	EventID   int64           `gorm:"primaryKey;autoIncrement:false;column:event_id" json:"event_id"`
	CallID    int64           `gorm:"not null;index:idx_call_events_call_id" json:"call_id"`
	EventType string          `gorm:"size:32;not null" json:"event_type"`
	Payload   json.RawMessage `gorm:"type:jsonb" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CallEvent) TableName() string { return "call_events" }

// CallEventFilter provides filter fields for repository queries
type CallEventFilter struct {
	EventID   *int64
	CallID    *int64
	EventType *string
}

// FinishedCall marks a call known to be complete but not yet fanned out to
// every CDR producer. Markers are read repeatedly, never consumed, so each
// producer tracks its own pending state independently.
// Table: finished_calls
type FinishedCall struct {
	CallID int64 `gorm:"primaryKey;autoIncrement:false" json:"call_id"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (FinishedCall) TableName() string { return "finished_calls" }
