package models

import (
	"encoding/json"
	"time"
)

// Agent status and end reason values emitted on external CDRs.
const (
	AgentStatusAnswered = "ANSWERED"
	AgentStatusNoAnswer = "NO_ANSWER"

	EndReasonCompleted = "COMPLETED"
)

// ExternalCDR is the externally shipped call detail record. It is never
// persisted locally; the batch is serialized, POSTed and discarded.
// Timestamps go over the wire as Unix seconds.
type ExternalCDR struct {
	CallID       string     `json:"call_id"`
	CallStart    time.Time  `json:"-"`
	CallEnd      *time.Time `json:"-"`
	CallerNumber string     `json:"caller_number"`
	OperatorID   *string    `json:"operator_id,omitempty"`
	OperatorName *string    `json:"operator_name,omitempty"`
	AgentStatus  string     `json:"agent_status"`
	WaitSec      int        `json:"wait_sec"`
	TalkSec      int        `json:"talk_sec"`
	EndReason    string     `json:"end_reason"`
}

// MarshalJSON flattens the timestamps to epoch seconds alongside the
// regular fields. A missing call end serializes as 0.
func (e ExternalCDR) MarshalJSON() ([]byte, error) {
	type alias ExternalCDR
	var end int64
	if e.CallEnd != nil {
		end = e.CallEnd.Unix()
	}
	return json.Marshal(struct {
		alias
		CallStart int64 `json:"call_start"`
		CallEnd   int64 `json:"call_end"`
	}{
		alias:     alias(e),
		CallStart: e.CallStart.Unix(),
		CallEnd:   end,
	})
}
