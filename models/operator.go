package models

import "time"

// Operator is a call-center agent record from the upstream directory.
// Calls reference operators through their user_id.
// Table: operators
type Operator struct {
	OperatorID int64  `gorm:"primaryKey;autoIncrement:false;column:operator_id" json:"operator_id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Extension  string `gorm:"size:16;not null" json:"extension"`
	Email      string `gorm:"size:255;not null" json:"email"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Operator) TableName() string { return "operators" }

// OperatorFilter provides filter fields for repository queries
type OperatorFilter struct {
	OperatorID *int64
	Email      *string
}
