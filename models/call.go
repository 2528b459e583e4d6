package models

import "time"

// Call is one telephony call as reported by the upstream call source.
// Rows keep the upstream id as primary key so repeated fetches overwrite
// in place instead of duplicating.
// Table: calls
type Call struct {
	ID           int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt   *time.Time `gorm:"index:idx_calls_finished_at" json:"finished_at,omitempty"`
	CallerNumber string     `gorm:"size:20;not null" json:"caller_number"`
	CalleeNumber string     `gorm:"size:20;not null" json:"callee_number"`
	UserID       int64      `gorm:"not null;index:idx_calls_user_id" json:"user_id"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Call) TableName() string { return "calls" }

// CallFilter provides filter fields for repository queries
type CallFilter struct {
	ID           *int64
	Status       *string
	UserID       *int64
	FinishedOnly *bool
	StartedAfter *time.Time
}
