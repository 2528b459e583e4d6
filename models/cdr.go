package models

import (
	"time"

	"github.com/lib/pq"
)

// CDR is the internally persisted call detail record. It is fully derived
// from the joined call data and always replaced as a whole on upload.
// Table: cdrs
type CDR struct {
	CallID       string         `gorm:"primaryKey;size:32" json:"call_id"`
	CallStart    time.Time      `gorm:"not null" json:"call_start"`
	CallEnd      *time.Time     `json:"call_end,omitempty"`
	CallerNumber string         `gorm:"size:20;not null" json:"caller_number"`
	CalleeNumber string         `gorm:"size:20;not null" json:"callee_number"`
	DurationSec  int            `gorm:"not null;default:0" json:"duration_sec"`
	CallResult   string         `gorm:"size:32;not null" json:"call_result"`
	CallEvents   pq.StringArray `gorm:"type:text[];not null" json:"call_events"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CDR) TableName() string { return "cdrs" }

// CDRFilter provides filter fields for repository queries
type CDRFilter struct {
	CallID     *string
	CallResult *string
}
