package uploader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploaderFansOutAndDelivers(t *testing.T) {
	status := newFakeStatus()
	status.finished = []int64{1, 2, 3}
	status.pending["p"] = []int64{1, 2, 3}

	var collected []int64
	var delivered []string
	u := NewUploader("p", status, 10, nil,
		func(ctx context.Context, callIDs []int64) ([]string, error) {
			collected = callIDs
			return []string{"r1", "r2", "r3"}, nil
		},
		func(ctx context.Context, batch []string) error {
			delivered = batch
			return nil
		},
	)

	require.NoError(t, u.RunCycle(context.Background()))
	assert.Equal(t, []int64{1, 2, 3}, status.upserted["p"], "finished calls fan out into pending rows")
	assert.Equal(t, []int64{1, 2, 3}, collected)
	assert.Equal(t, []string{"r1", "r2", "r3"}, delivered)
}

func TestUploaderAbsorbsDeliveryFailure(t *testing.T) {
	status := newFakeStatus()
	status.pending["p"] = []int64{1}

	uploads := 0
	u := NewUploader("p", status, 10, nil,
		func(ctx context.Context, callIDs []int64) ([]string, error) {
			return []string{"r1"}, nil
		},
		func(ctx context.Context, batch []string) error {
			uploads++
			return errors.New("sink unavailable")
		},
	)

	require.NoError(t, u.RunCycle(context.Background()), "delivery failure must not kill the cycle")
	assert.Equal(t, 1, uploads)
	assert.Empty(t, status.uploaded["p"], "failed batch stays pending")
}

func TestUploaderPropagatesStateMachineFailures(t *testing.T) {
	t.Run("finished list fails", func(t *testing.T) {
		status := newFakeStatus()
		status.finishedErr = errors.New("db down")
		u := NewUploader("p", status, 10, nil,
			func(ctx context.Context, callIDs []int64) ([]string, error) { return nil, nil },
			func(ctx context.Context, batch []string) error { return nil },
		)
		require.Error(t, u.RunCycle(context.Background()))
	})

	t.Run("pending list fails", func(t *testing.T) {
		status := newFakeStatus()
		status.pendingErr = errors.New("db down")
		u := NewUploader("p", status, 10, nil,
			func(ctx context.Context, callIDs []int64) ([]string, error) { return nil, nil },
			func(ctx context.Context, batch []string) error { return nil },
		)
		require.Error(t, u.RunCycle(context.Background()))
	})

	t.Run("collect fails", func(t *testing.T) {
		status := newFakeStatus()
		status.pending["p"] = []int64{1}
		u := NewUploader("p", status, 10, nil,
			func(ctx context.Context, callIDs []int64) ([]string, error) {
				return nil, errors.New("join failed")
			},
			func(ctx context.Context, batch []string) error { return nil },
		)
		require.Error(t, u.RunCycle(context.Background()))
	})
}

func TestUploaderSkipsDeliveryWithoutPendingWork(t *testing.T) {
	status := newFakeStatus()

	u := NewUploader("p", status, 10, nil,
		func(ctx context.Context, callIDs []int64) ([]string, error) {
			t.Fatal("collect must not run without pending calls")
			return nil, nil
		},
		func(ctx context.Context, batch []string) error {
			t.Fatal("upload must not run without pending calls")
			return nil
		},
	)

	require.NoError(t, u.RunCycle(context.Background()))
}

func TestUploaderRespectsBatchSize(t *testing.T) {
	status := newFakeStatus()
	status.pending["p"] = []int64{1, 2, 3, 4, 5}

	var collected []int64
	u := NewUploader("p", status, 2, nil,
		func(ctx context.Context, callIDs []int64) ([]string, error) {
			collected = callIDs
			return []string{"a", "b"}, nil
		},
		func(ctx context.Context, batch []string) error { return nil },
	)

	require.NoError(t, u.RunCycle(context.Background()))
	assert.Equal(t, []int64{1, 2}, collected)
}
