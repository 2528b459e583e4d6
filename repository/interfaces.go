// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"call-flow-processor/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// CallRepository defines operations for upstream call rows
type CallRepository interface {
	UpsertBatch(ctx context.Context, calls []*models.Call) error
	ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.Call, error)
	ByFilter(ctx context.Context, filter models.CallFilter, orderBy string, limit, offset int) ([]*models.Call, error)
	Summary(ctx context.Context) (*CallSummary, error)
}

// CallSummary aggregates finished calls for the statistics endpoint
type CallSummary struct {
	TotalCalls           int64   `json:"total_calls"`
	AnsweredCalls        int64   `json:"answered_calls"`
	AvgDurationSeconds   float64 `json:"avg_duration_seconds"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
}

// CallEventRepository defines operations for the upstream event log
type CallEventRepository interface {
	// SaveBatch upserts events and, in the same transaction, inserts a
	// finished-call marker for every hangup event in the batch.
	SaveBatch(ctx context.Context, events []*models.CallEvent) error
	ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.CallEvent, error)
}

// ConnectionRepository defines operations for call legs
type ConnectionRepository interface {
	UpsertBatch(ctx context.Context, connections []*models.Connection) error
	ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.Connection, error)
}

// OperatorRepository defines operations for the operator directory
type OperatorRepository interface {
	UpsertBatch(ctx context.Context, operators []*models.Operator) error
	ByOperatorIDs(ctx context.Context, operatorIDs []int64) ([]*models.Operator, error)
	ListAll(ctx context.Context) ([]*models.Operator, error)
	CallStats(ctx context.Context) ([]*OperatorCallStats, error)
}

// OperatorCallStats aggregates finished calls per operator for the
// statistics endpoint. Operators without calls appear with zero counts.
type OperatorCallStats struct {
	OperatorName           string  `json:"operator_name"`
	CallCount              int64   `json:"call_count"`
	AvgCallDurationSeconds float64 `json:"avg_call_duration_seconds"`
}

// CDRRepository defines operations for internally stored CDRs
type CDRRepository interface {
	UpsertBatch(ctx context.Context, cdrs []*models.CDR) error
	ByCallIDs(ctx context.Context, callIDs []string) ([]*models.CDR, error)
}

// FetchCursorRepository defines the durable cursor store for source fetchers
type FetchCursorRepository interface {
	// Cursor returns the stored cursor for a worker identity, or 0 when
	// no row exists. Errors are returned so callers can decide to degrade.
	Cursor(ctx context.Context, workerID string) (int64, error)
	UpdateCursor(ctx context.Context, workerID string, cursor int64) error
}

// CDRUploadStatusRepository tracks per-producer delivery state of finished calls
type CDRUploadStatusRepository interface {
	FinishedCallIDs(ctx context.Context) ([]int64, error)
	UpsertPending(ctx context.Context, producerID string, callIDs []int64) error
	PendingCallIDs(ctx context.Context, producerID string, limit int) ([]int64, error)
	MarkUploaded(ctx context.Context, producerID string, callIDs []int64) error
	// PruneFinishedCalls removes markers already uploaded by every listed
	// producer. Run by the optional marker pruner worker.
	PruneFinishedCalls(ctx context.Context, producerIDs []string) (int64, error)
}
