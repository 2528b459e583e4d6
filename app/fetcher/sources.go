package fetcher

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"call-flow-processor/config"
	"call-flow-processor/models"
	"call-flow-processor/repository"
)

// Worker identities for the four source fetchers. They key the cursor
// table and the distributed lease, so renaming them resets progress.
const (
	CallWorkerID       = "call-data-fetcher"
	CallEventWorkerID  = "call-event-data-fetcher"
	ConnectionWorkerID = "connection-data-fetcher"
	OperatorWorkerID   = "operator-data-fetcher"
)

type callRecord struct {
	ID           int64      `json:"id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	CallerNumber string     `json:"caller_number"`
	CalleeNumber string     `json:"callee_number"`
	UserID       int64      `json:"user_id"`
}

// NewCallFetcher polls the upstream call source.
func NewCallFetcher(cfg config.SourceConfig, cursors repository.FetchCursorRepository, calls repository.CallRepository, logger *log.Logger) *Fetcher[models.Call] {
	return New(
		CallWorkerID,
		cfg,
		cursors,
		logger,
		func(raw json.RawMessage) (*models.Call, error) {
			var rec callRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, err
			}
			if rec.ID == 0 {
				return nil, fmt.Errorf("call record without id")
			}
			return &models.Call{
				ID:           rec.ID,
				Status:       rec.Status,
				StartedAt:    rec.StartedAt,
				FinishedAt:   rec.FinishedAt,
				CallerNumber: rec.CallerNumber,
				CalleeNumber: rec.CalleeNumber,
				UserID:       rec.UserID,
			}, nil
		},
		calls.UpsertBatch,
		func(c *models.Call) int64 { return c.ID },
	)
}

type callEventRecord struct {
	EventID   int64           `json:"event_id"`
	CallID    int64           `json:"call_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// NewCallEventFetcher polls the upstream event log. Storing a page also
// inserts finished-call markers for hangup events (see CallEventRepository).
func NewCallEventFetcher(cfg config.SourceConfig, cursors repository.FetchCursorRepository, events repository.CallEventRepository, logger *log.Logger) *Fetcher[models.CallEvent] {
	return New(
		CallEventWorkerID,
		cfg,
		cursors,
		logger,
		func(raw json.RawMessage) (*models.CallEvent, error) {
			var rec callEventRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, err
			}
			if rec.EventID == 0 {
				return nil, fmt.Errorf("event record without event_id")
			}
			return &models.CallEvent{
				EventID:   rec.EventID,
				CallID:    rec.CallID,
				EventType: rec.EventType,
				Payload:   rec.Payload,
			}, nil
		},
		events.SaveBatch,
		func(e *models.CallEvent) int64 { return e.EventID },
	)
}

type connectionRecord struct {
	ConnectionID int64      `json:"connection_id"`
	CallID       int64      `json:"call_id"`
	Phone        string     `json:"phone"`
	InitiatedAt  time.Time  `json:"initiated_at"`
	AnsweredAt   *time.Time `json:"answered_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}

// NewConnectionFetcher polls the upstream connection source.
func NewConnectionFetcher(cfg config.SourceConfig, cursors repository.FetchCursorRepository, connections repository.ConnectionRepository, logger *log.Logger) *Fetcher[models.Connection] {
	return New(
		ConnectionWorkerID,
		cfg,
		cursors,
		logger,
		func(raw json.RawMessage) (*models.Connection, error) {
			var rec connectionRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, err
			}
			if rec.ConnectionID == 0 {
				return nil, fmt.Errorf("connection record without connection_id")
			}
			return &models.Connection{
				ConnectionID: rec.ConnectionID,
				CallID:       rec.CallID,
				Phone:        rec.Phone,
				InitiatedAt:  rec.InitiatedAt,
				AnsweredAt:   rec.AnsweredAt,
				FinishedAt:   rec.FinishedAt,
			}, nil
		},
		connections.UpsertBatch,
		func(c *models.Connection) int64 { return c.ConnectionID },
	)
}

type operatorRecord struct {
	OperatorID int64  `json:"operator_id"`
	Name       string `json:"name"`
	Extension  string `json:"extension"`
	Email      string `json:"email"`
}

// NewOperatorFetcher polls the upstream operator directory.
func NewOperatorFetcher(cfg config.SourceConfig, cursors repository.FetchCursorRepository, operators repository.OperatorRepository, logger *log.Logger) *Fetcher[models.Operator] {
	return New(
		OperatorWorkerID,
		cfg,
		cursors,
		logger,
		func(raw json.RawMessage) (*models.Operator, error) {
			var rec operatorRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, err
			}
			if rec.OperatorID == 0 {
				return nil, fmt.Errorf("operator record without operator_id")
			}
			return &models.Operator{
				OperatorID: rec.OperatorID,
				Name:       rec.Name,
				Extension:  rec.Extension,
				Email:      rec.Email,
			}, nil
		},
		operators.UpsertBatch,
		func(o *models.Operator) int64 { return o.OperatorID },
	)
}
