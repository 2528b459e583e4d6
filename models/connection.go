package models

import "time"

// Connection is one leg attempt of a call towards a phone. answered_at and
// finished_at stay null until the leg reaches those states.
// Table: connections
type Connection struct {
	ConnectionID int64      `gorm:"primaryKey;autoIncrement:false;column:connection_id" json:"connection_id"`
	CallID       int64      `gorm:"not null;index:idx_connections_call_id" json:"call_id"`
	Phone        string     `gorm:"size:20;not null" json:"phone"`
	InitiatedAt  time.Time  `gorm:"not null" json:"initiated_at"`
	AnsweredAt   *time.Time `json:"answered_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Connection) TableName() string { return "connections" }

// ConnectionFilter provides filter fields for repository queries
type ConnectionFilter struct {
	ConnectionID *int64
	CallID       *int64
	Phone        *string
}
