package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLease struct {
	mu        sync.Mutex
	available bool
	seq       int
	acquires  int
	releases  int
	renews    int
}

func (l *fakeLease) Acquire(ctx context.Context, workerID string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if !l.available {
		return "", false, nil
	}
	l.seq++
	return "token", true, nil
}

func (l *fakeLease) Renew(ctx context.Context, workerID, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.renews++
	return l.available, nil
}

func (l *fakeLease) Release(ctx context.Context, workerID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	return nil
}

func (l *fakeLease) stats() (acquires, releases int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquires, l.releases
}

type fakeRunner struct {
	cycles  atomic.Int64
	cycleFn func(n int64) error
}

func (r *fakeRunner) ID() string { return "test-worker" }

func (r *fakeRunner) RunCycle(ctx context.Context) error {
	n := r.cycles.Add(1)
	if r.cycleFn != nil {
		return r.cycleFn(n)
	}
	return nil
}

func TestEngineDoesNotRunWithoutLease(t *testing.T) {
	ls := &fakeLease{available: false}
	runner := &fakeRunner{}
	engine := NewEngine(runner, ls, 2*time.Millisecond, time.Second, nil)

	stop := engine.Start(context.Background())
	require.Eventually(t, func() bool {
		acquires, _ := ls.stats()
		return acquires >= 3
	}, time.Second, time.Millisecond)
	stop()

	assert.Equal(t, int64(0), runner.cycles.Load(), "runner must not run while the lease is held elsewhere")
}

func TestEngineRunsCyclesWhileHoldingLease(t *testing.T) {
	ls := &fakeLease{available: true}
	runner := &fakeRunner{}
	engine := NewEngine(runner, ls, 2*time.Millisecond, time.Second, nil)

	stop := engine.Start(context.Background())
	require.Eventually(t, func() bool {
		return runner.cycles.Load() >= 3
	}, time.Second, time.Millisecond)
	stop()

	_, releases := ls.stats()
	assert.GreaterOrEqual(t, releases, 1, "stopping must release the lease")
}

func TestEngineReleasesLeaseOnCycleError(t *testing.T) {
	ls := &fakeLease{available: true}
	runner := &fakeRunner{
		cycleFn: func(n int64) error {
			if n == 1 {
				return errors.New("boom")
			}
			return nil
		},
	}
	engine := NewEngine(runner, ls, 2*time.Millisecond, time.Second, nil)

	stop := engine.Start(context.Background())
	require.Eventually(t, func() bool {
		return runner.cycles.Load() >= 2
	}, time.Second, time.Millisecond)
	stop()

	acquires, releases := ls.stats()
	// Failed cycle drops the lease and a fresh acquire precedes the retry.
	assert.GreaterOrEqual(t, releases, 2)
	assert.GreaterOrEqual(t, acquires, 2)
}

func TestEngineStopWaitsForInFlightCycle(t *testing.T) {
	ls := &fakeLease{available: true}
	entered := make(chan struct{})
	var finished atomic.Bool
	var once sync.Once
	runner := &fakeRunner{
		cycleFn: func(n int64) error {
			once.Do(func() { close(entered) })
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	}
	engine := NewEngine(runner, ls, time.Millisecond, time.Second, nil)

	stop := engine.Start(context.Background())
	<-entered
	stop()

	assert.True(t, finished.Load(), "stop must wait for the in-flight cycle")
}
