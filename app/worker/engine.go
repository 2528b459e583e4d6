// Package worker provides the leader-elected polling loop shared by all
// background workers.
package worker

import (
	"context"
	"log"
	"time"

	"call-flow-processor/app/lease"
)

// Runner is one unit of background work with a fleet-wide identity.
type Runner interface {
	ID() string
	RunCycle(ctx context.Context) error
}

// Engine repeatedly runs a Runner while holding the distributed lease for
// its identity. If the lease is held elsewhere the runner is never
// invoked; the engine just retries after the poll interval.
type Engine struct {
	runner   Runner
	lease    lease.Lease
	interval time.Duration
	ttl      time.Duration
	logger   *log.Logger
}

func NewEngine(runner Runner, ls lease.Lease, interval, ttl time.Duration, logger *log.Logger) *Engine {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		runner:   runner,
		lease:    ls,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
	}
}

// Start launches the loop in a background goroutine and returns a stop
// function. Stopping cancels the loop, waits for the in-flight cycle to
// finish and releases the lease.
func (e *Engine) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		e.run(ctx)
	}()

	return func() {
		cancel()
		<-done
	}
}

func (e *Engine) run(ctx context.Context) {
	id := e.runner.ID()
	var token string
	held := false

	defer func() {
		if held {
			// Release on a fresh context; the loop context is already cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := e.lease.Release(releaseCtx, id, token); err != nil {
				e.logger.Printf("worker %s: lease release failed: %v", id, err)
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		if held {
			ok, err := e.lease.Renew(ctx, id, token, e.ttl)
			if err != nil {
				e.logger.Printf("worker %s: lease renew failed: %v", id, err)
			}
			if err != nil || !ok {
				held = false
				leaseHeld.WithLabelValues(id).Set(0)
			}
		}
		if !held {
			t, ok, err := e.lease.Acquire(ctx, id, e.ttl)
			if err != nil {
				e.logger.Printf("worker %s: lease acquire failed: %v", id, err)
			}
			if err != nil || !ok {
				if !sleepCtx(ctx, e.interval) {
					return
				}
				continue
			}
			token = t
			held = true
			leaseHeld.WithLabelValues(id).Set(1)
			e.logger.Printf("worker %s: lease acquired", id)
		}

		if err := e.runner.RunCycle(ctx); err != nil {
			// Fatal-to-cycle failure. Drop the lease and start over from
			// durable state after the backoff.
			cyclesTotal.WithLabelValues(id, "error").Inc()
			e.logger.Printf("worker %s: cycle failed: %v", id, err)
			if relErr := e.lease.Release(ctx, id, token); relErr != nil {
				e.logger.Printf("worker %s: lease release failed: %v", id, relErr)
			}
			held = false
			leaseHeld.WithLabelValues(id).Set(0)
		} else {
			cyclesTotal.WithLabelValues(id, "ok").Inc()
		}

		if !sleepCtx(ctx, e.interval) {
			return
		}
	}
}

// sleepCtx sleeps for d, returning false when the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
