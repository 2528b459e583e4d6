package uploader

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"call-flow-processor/config"
	"call-flow-processor/models"
	"call-flow-processor/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datasetFor(call *models.Call, events []*models.CallEvent, conns []*models.Connection, ops []*models.Operator) *callDataset {
	ds := &callDataset{
		calls:       map[int64]*models.Call{call.ID: call},
		events:      make(map[int64][]*models.CallEvent),
		connections: make(map[int64][]*models.Connection),
		operators:   make(map[int64]*models.Operator),
	}
	for _, ev := range events {
		ds.events[ev.CallID] = append(ds.events[ev.CallID], ev)
	}
	for _, conn := range conns {
		ds.connections[conn.CallID] = append(ds.connections[conn.CallID], conn)
	}
	for _, op := range ops {
		ds.operators[op.OperatorID] = op
	}
	return ds
}

func TestBuildExternalCDRAnsweredCall(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(65 * time.Second)
	call := &models.Call{
		ID:           100,
		Status:       "finished",
		StartedAt:    start,
		FinishedAt:   &end,
		CallerNumber: "+4911111",
		UserID:       7,
	}
	answered := start.Add(5 * time.Second)
	ds := datasetFor(call,
		[]*models.CallEvent{
			{EventID: 1, CallID: 100, EventType: models.EventTypeAnswered},
			{EventID: 2, CallID: 100, EventType: models.EventTypeHangup},
		},
		[]*models.Connection{
			{ConnectionID: 1, CallID: 100, InitiatedAt: start, AnsweredAt: &answered, FinishedAt: &end},
		},
		[]*models.Operator{{OperatorID: 7, Name: "Alice"}},
	)

	cdr := buildExternalCDR(call, ds)

	assert.Equal(t, "100", cdr.CallID)
	assert.Equal(t, models.AgentStatusAnswered, cdr.AgentStatus)
	assert.Equal(t, models.EndReasonCompleted, cdr.EndReason)
	assert.Equal(t, 5, cdr.WaitSec)
	assert.Equal(t, 60, cdr.TalkSec)
	require.NotNil(t, cdr.OperatorID)
	assert.Equal(t, "7", *cdr.OperatorID)
	require.NotNil(t, cdr.OperatorName)
	assert.Equal(t, "Alice", *cdr.OperatorName)
}

func TestBuildExternalCDRUnansweredCall(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	call := &models.Call{
		ID:        101,
		Status:    "no_answer",
		StartedAt: start,
		UserID:    999, // not in the operator directory
	}
	ds := datasetFor(call, nil, nil, nil)

	cdr := buildExternalCDR(call, ds)

	assert.Equal(t, models.AgentStatusNoAnswer, cdr.AgentStatus)
	assert.Equal(t, "no_answer", cdr.EndReason, "without a hangup event the call status is the end reason")
	assert.Equal(t, 0, cdr.WaitSec)
	assert.Equal(t, 0, cdr.TalkSec)
	assert.Nil(t, cdr.OperatorID, "unknown operators are omitted, not fatal")
	assert.Nil(t, cdr.OperatorName)
}

func TestBuildExternalCDRConnectionNeverAnswered(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Second)
	call := &models.Call{ID: 102, Status: "abandoned", StartedAt: start, FinishedAt: &end}
	ds := datasetFor(call, nil,
		[]*models.Connection{{ConnectionID: 2, CallID: 102, InitiatedAt: start, FinishedAt: &end}},
		nil,
	)

	cdr := buildExternalCDR(call, ds)
	assert.Equal(t, 0, cdr.WaitSec)
	assert.Equal(t, 0, cdr.TalkSec)
}

func newExternalTestUploader(t *testing.T, sinkURL string, status *fakeStatus, calls []*models.Call) *Uploader[*models.ExternalCDR] {
	t.Helper()
	cfg := config.ProducersConfig{
		BatchSize:         10,
		ExternalUploadURL: sinkURL,
		ExternalTimeout:   time.Second,
	}
	return NewExternalCDRUploader(cfg, status,
		&fakeCallRepo{calls: calls},
		&fakeEventRepo{},
		&fakeConnRepo{},
		&fakeOpRepo{},
		nil,
	)
}

func TestExternalUploaderMarksUploadedOnSuccess(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	status := newFakeStatus()
	status.pending[ExternalWorkerID] = []int64{100}
	u := newExternalTestUploader(t, srv.URL, status, []*models.Call{
		{ID: 100, Status: "finished", StartedAt: start, FinishedAt: utils.ToPtr(start.Add(time.Minute))},
	})

	require.NoError(t, u.RunCycle(context.Background()))
	assert.Equal(t, []int64{100}, status.uploaded[ExternalWorkerID])

	var wire []map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Len(t, wire, 1)
	assert.Equal(t, "100", wire[0]["call_id"])
	assert.Equal(t, float64(start.Unix()), wire[0]["call_start"], "timestamps ship as epoch seconds")
	assert.Equal(t, float64(start.Add(time.Minute).Unix()), wire[0]["call_end"])
}

func TestExternalUploaderLeavesBatchPendingOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	status := newFakeStatus()
	status.pending[ExternalWorkerID] = []int64{100}
	u := newExternalTestUploader(t, srv.URL, status, []*models.Call{
		{ID: 100, Status: "finished", StartedAt: time.Now().UTC()},
	})

	require.NoError(t, u.RunCycle(context.Background()), "a rejected upload is retried next cycle")
	assert.Empty(t, status.uploaded[ExternalWorkerID])
}
