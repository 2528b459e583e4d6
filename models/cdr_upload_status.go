package models

import "time"

// CDRUploadState enumerates the per-producer delivery state of a call id.
// The transition is strictly pending -> uploaded.
type CDRUploadState string

const (
	CDRUploadStatePending  CDRUploadState = "pending"
	CDRUploadStateUploaded CDRUploadState = "uploaded"
)

// CDRUploadStatus is one (producer, call) delivery obligation. Every CDR
// producer fans finished calls into its own rows and works them off in
// bounded batches until each is uploaded.
// Table: cdr_upload_info
type CDRUploadStatus struct {
	CDRType      string         `gorm:"primaryKey;size:64;column:cdr_type" json:"cdr_type"`
	CallID       int64          `gorm:"primaryKey;autoIncrement:false" json:"call_id"`
	UploadStatus CDRUploadState `gorm:"size:16;not null;default:'pending';index:idx_cdr_upload_info_status" json:"upload_status"`
	UploadedAt   *time.Time     `json:"uploaded_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CDRUploadStatus) TableName() string { return "cdr_upload_info" }
