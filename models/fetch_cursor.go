package models

import "time"

// FetchCursor is the durable resume point of one source fetcher. One row
// per worker identity, upserted after every successfully stored page.
// Table: data_fetchers
type FetchCursor struct {
	ID     string `gorm:"primaryKey;size:64" json:"id"`
	Cursor int64  `gorm:"not null;default:0" json:"cursor"`

	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (FetchCursor) TableName() string { return "data_fetchers" }
