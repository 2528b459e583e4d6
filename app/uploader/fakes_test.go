package uploader

import (
	"context"
	"sync"

	"call-flow-processor/models"
	"call-flow-processor/repository"
)

// In-memory repository fakes shared by the producer tests.

type fakeStatus struct {
	mu          sync.Mutex
	finished    []int64
	finishedErr error
	pending     map[string][]int64
	pendingErr  error
	upserted    map[string][]int64
	uploaded    map[string][]int64
	markErr     error
	pruned      int64
	pruneErr    error
}

func newFakeStatus() *fakeStatus {
	return &fakeStatus{
		pending:  make(map[string][]int64),
		upserted: make(map[string][]int64),
		uploaded: make(map[string][]int64),
	}
}

func (s *fakeStatus) FinishedCallIDs(ctx context.Context) ([]int64, error) {
	return s.finished, s.finishedErr
}

func (s *fakeStatus) UpsertPending(ctx context.Context, producerID string, callIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted[producerID] = append(s.upserted[producerID], callIDs...)
	return nil
}

func (s *fakeStatus) PendingCallIDs(ctx context.Context, producerID string, limit int) ([]int64, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	ids := s.pending[producerID]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *fakeStatus) MarkUploaded(ctx context.Context, producerID string, callIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.uploaded[producerID] = append(s.uploaded[producerID], callIDs...)
	return nil
}

func (s *fakeStatus) PruneFinishedCalls(ctx context.Context, producerIDs []string) (int64, error) {
	return s.pruned, s.pruneErr
}

type fakeCallRepo struct {
	calls []*models.Call
	err   error
}

func (r *fakeCallRepo) UpsertBatch(ctx context.Context, calls []*models.Call) error { return nil }

func (r *fakeCallRepo) ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.Call, error) {
	return r.calls, r.err
}

func (r *fakeCallRepo) ByFilter(ctx context.Context, filter models.CallFilter, orderBy string, limit, offset int) ([]*models.Call, error) {
	return r.calls, r.err
}

func (r *fakeCallRepo) Summary(ctx context.Context) (*repository.CallSummary, error) {
	return &repository.CallSummary{}, nil
}

type fakeEventRepo struct {
	events []*models.CallEvent
	err    error
}

func (r *fakeEventRepo) SaveBatch(ctx context.Context, events []*models.CallEvent) error { return nil }

func (r *fakeEventRepo) ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.CallEvent, error) {
	return r.events, r.err
}

type fakeConnRepo struct {
	connections []*models.Connection
	err         error
}

func (r *fakeConnRepo) UpsertBatch(ctx context.Context, connections []*models.Connection) error {
	return nil
}

func (r *fakeConnRepo) ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.Connection, error) {
	return r.connections, r.err
}

type fakeOpRepo struct {
	operators []*models.Operator
	err       error
}

func (r *fakeOpRepo) UpsertBatch(ctx context.Context, operators []*models.Operator) error { return nil }

func (r *fakeOpRepo) ByOperatorIDs(ctx context.Context, operatorIDs []int64) ([]*models.Operator, error) {
	return r.operators, r.err
}

func (r *fakeOpRepo) ListAll(ctx context.Context) ([]*models.Operator, error) {
	return r.operators, r.err
}

func (r *fakeOpRepo) CallStats(ctx context.Context) ([]*repository.OperatorCallStats, error) {
	return nil, nil
}
