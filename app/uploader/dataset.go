package uploader

import (
	"context"

	"call-flow-processor/models"
	"call-flow-processor/repository"
)

// callDataset holds the four relations joined for one producer batch,
// indexed for per-call assembly. Event and connection order is the
// repository load order (event id / connection id ascending).
type callDataset struct {
	calls       map[int64]*models.Call
	events      map[int64][]*models.CallEvent
	connections map[int64][]*models.Connection
	operators   map[int64]*models.Operator
}

func loadCallDataset(
	ctx context.Context,
	callIDs []int64,
	callRepo repository.CallRepository,
	eventRepo repository.CallEventRepository,
	connRepo repository.ConnectionRepository,
	opRepo repository.OperatorRepository,
) (*callDataset, error) {
	ds := &callDataset{
		calls:       make(map[int64]*models.Call),
		events:      make(map[int64][]*models.CallEvent),
		connections: make(map[int64][]*models.Connection),
		operators:   make(map[int64]*models.Operator),
	}

	calls, err := callRepo.ByCallIDs(ctx, callIDs)
	if err != nil {
		return nil, err
	}
	for _, call := range calls {
		ds.calls[call.ID] = call
	}

	events, err := eventRepo.ByCallIDs(ctx, callIDs)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		ds.events[ev.CallID] = append(ds.events[ev.CallID], ev)
	}

	connections, err := connRepo.ByCallIDs(ctx, callIDs)
	if err != nil {
		return nil, err
	}
	for _, conn := range connections {
		ds.connections[conn.CallID] = append(ds.connections[conn.CallID], conn)
	}

	userIDs := make([]int64, 0, len(calls))
	seen := make(map[int64]struct{}, len(calls))
	for _, call := range calls {
		if _, ok := seen[call.UserID]; ok {
			continue
		}
		seen[call.UserID] = struct{}{}
		userIDs = append(userIDs, call.UserID)
	}
	operators, err := opRepo.ByOperatorIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for _, op := range operators {
		ds.operators[op.OperatorID] = op
	}

	return ds, nil
}

// eventTypes returns the ordered event-type list of a call.
func (ds *callDataset) eventTypes(callID int64) []string {
	events := ds.events[callID]
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.EventType)
	}
	return types
}

// hasEvent reports whether the call has at least one event of the type.
func (ds *callDataset) hasEvent(callID int64, eventType string) bool {
	for _, ev := range ds.events[callID] {
		if ev.EventType == eventType {
			return true
		}
	}
	return false
}

// firstConnection returns the first stored connection of the call, or nil.
func (ds *callDataset) firstConnection(callID int64) *models.Connection {
	conns := ds.connections[callID]
	if len(conns) == 0 {
		return nil
	}
	return conns[0]
}
