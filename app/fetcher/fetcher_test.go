package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"call-flow-processor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCursors struct {
	mu       sync.Mutex
	cursors  map[string]int64
	readErr  error
	writeErr error
	writes   int
}

func newMemCursors() *memCursors {
	return &memCursors{cursors: make(map[string]int64)}
}

func (m *memCursors) Cursor(ctx context.Context, workerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.cursors[workerID], nil
}

func (m *memCursors) UpdateCursor(ctx context.Context, workerID string, cursor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.cursors[workerID] = cursor
	return nil
}

type testRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestFetcher(endpoint string, cursors *memCursors, store func(context.Context, []*testRecord) error) *Fetcher[testRecord] {
	cfg := config.SourceConfig{
		Endpoint:   endpoint,
		FetchLimit: 10,
		Timeout:    time.Second,
	}
	return New(
		"test-fetcher",
		cfg,
		cursors,
		nil,
		func(raw json.RawMessage) (*testRecord, error) {
			var rec testRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, err
			}
			if rec.ID == 0 {
				return nil, fmt.Errorf("record without id")
			}
			return &rec, nil
		},
		store,
		func(r *testRecord) int64 { return r.ID },
	)
}

func TestFetcherStoresPageAndAdvancesCursor(t *testing.T) {
	var gotCursor, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.URL.Query().Get("cursor")
		gotLimit = r.URL.Query().Get("limit")
		fmt.Fprint(w, `[{"id":3,"name":"a"},{"id":7,"name":"b"},{"id":5,"name":"c"}]`)
	}))
	defer srv.Close()

	cursors := newMemCursors()
	cursors.cursors["test-fetcher"] = 2

	var stored []*testRecord
	f := newTestFetcher(srv.URL, cursors, func(ctx context.Context, batch []*testRecord) error {
		stored = batch
		return nil
	})

	require.NoError(t, f.RunCycle(context.Background()))

	assert.Equal(t, "2", gotCursor)
	assert.Equal(t, "10", gotLimit)
	require.Len(t, stored, 3)
	assert.Equal(t, int64(7), cursors.cursors["test-fetcher"], "cursor advances to the max id in the page")
}

func TestFetcherAbsorbsUpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "payload is not an array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"id":1}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			cursors := newMemCursors()
			cursors.cursors["test-fetcher"] = 9

			storeCalls := 0
			f := newTestFetcher(srv.URL, cursors, func(ctx context.Context, batch []*testRecord) error {
				storeCalls++
				return nil
			})

			require.NoError(t, f.RunCycle(context.Background()))
			assert.Equal(t, 0, storeCalls, "a discarded page must not be stored")
			assert.Equal(t, int64(9), cursors.cursors["test-fetcher"], "cursor must not move")
		})
	}
}

func TestFetcherSkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":0},"garbage",{"id":4,"name":"ok"}]`)
	}))
	defer srv.Close()

	cursors := newMemCursors()
	var stored []*testRecord
	f := newTestFetcher(srv.URL, cursors, func(ctx context.Context, batch []*testRecord) error {
		stored = batch
		return nil
	})

	require.NoError(t, f.RunCycle(context.Background()))
	require.Len(t, stored, 1)
	assert.Equal(t, int64(4), stored[0].ID)
	assert.Equal(t, int64(4), cursors.cursors["test-fetcher"])
}

func TestFetcherPropagatesStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":11}]`)
	}))
	defer srv.Close()

	cursors := newMemCursors()
	f := newTestFetcher(srv.URL, cursors, func(ctx context.Context, batch []*testRecord) error {
		return errors.New("db down")
	})

	err := f.RunCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, cursors.writes, "cursor must not move past unstored rows")
}

func TestFetcherEmptyPageLeavesCursorUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	cursors := newMemCursors()
	cursors.cursors["test-fetcher"] = 42

	f := newTestFetcher(srv.URL, cursors, func(ctx context.Context, batch []*testRecord) error {
		t.Fatal("store must not be called for an empty page")
		return nil
	})

	require.NoError(t, f.RunCycle(context.Background()))
	assert.Equal(t, 0, cursors.writes)
}

func TestFetcherDegradesToZeroCursorOnReadFailure(t *testing.T) {
	var gotCursor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.URL.Query().Get("cursor")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	cursors := newMemCursors()
	cursors.readErr = errors.New("cursor table unavailable")

	f := newTestFetcher(srv.URL, cursors, func(ctx context.Context, batch []*testRecord) error { return nil })

	require.NoError(t, f.RunCycle(context.Background()))
	assert.Equal(t, "0", gotCursor, "unreadable cursor degrades to a full re-fetch")
}

func TestFetcherToleratesCursorWriteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":6}]`)
	}))
	defer srv.Close()

	cursors := newMemCursors()
	cursors.writeErr = errors.New("write failed")

	stored := 0
	f := newTestFetcher(srv.URL, cursors, func(ctx context.Context, batch []*testRecord) error {
		stored += len(batch)
		return nil
	})

	require.NoError(t, f.RunCycle(context.Background()), "cursor write failure only repeats the page next cycle")
	assert.Equal(t, 1, stored)
}
