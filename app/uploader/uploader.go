// Package uploader produces call detail records from ingested call data
// and delivers them to the internal store or the external HTTP sink.
package uploader

import (
	"context"
	"fmt"
	"log"

	"call-flow-processor/repository"
)

// Uploader is one CDR producer. Each cycle fans newly finished calls into
// its own pending rows, assembles records for a bounded pending batch and
// hands them to the sink. Delivery failures leave the batch pending; the
// next cycle retries, relying on idempotent destination writes.
type Uploader[T any] struct {
	id        string
	status    repository.CDRUploadStatusRepository
	batchSize int
	logger    *log.Logger

	collect func(ctx context.Context, callIDs []int64) ([]T, error)
	// upload delivers the batch and marks the delivered call ids
	// uploaded. A returned error means the batch stays pending.
	upload func(ctx context.Context, batch []T) error
}

func NewUploader[T any](
	id string,
	status repository.CDRUploadStatusRepository,
	batchSize int,
	logger *log.Logger,
	collect func(context.Context, []int64) ([]T, error),
	upload func(context.Context, []T) error,
) *Uploader[T] {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Uploader[T]{
		id:        id,
		status:    status,
		batchSize: batchSize,
		logger:    logger,
		collect:   collect,
		upload:    upload,
	}
}

func (u *Uploader[T]) ID() string { return u.id }

func (u *Uploader[T]) RunCycle(ctx context.Context) error {
	// Fan out every known finished call into this producer's pending
	// rows. The marker set is shared; the upsert is a no-op for calls
	// already tracked.
	finished, err := u.status.FinishedCallIDs(ctx)
	if err != nil {
		return fmt.Errorf("%s: list finished calls: %w", u.id, err)
	}
	if len(finished) > 0 {
		if err := u.status.UpsertPending(ctx, u.id, finished); err != nil {
			return fmt.Errorf("%s: fan out pending: %w", u.id, err)
		}
	}

	pending, err := u.status.PendingCallIDs(ctx, u.id, u.batchSize)
	if err != nil {
		return fmt.Errorf("%s: list pending calls: %w", u.id, err)
	}
	pendingBatch.WithLabelValues(u.id).Set(float64(len(pending)))
	if len(pending) == 0 {
		return nil
	}

	batch, err := u.collect(ctx, pending)
	if err != nil {
		return fmt.Errorf("%s: collect batch: %w", u.id, err)
	}
	if len(batch) == 0 {
		return nil
	}

	if err := u.upload(ctx, batch); err != nil {
		// Delivery failure is retryable. The batch stays pending and is
		// reselected next cycle.
		uploadFailuresTotal.WithLabelValues(u.id).Inc()
		u.logger.Printf("%s: upload batch of %d failed: %v", u.id, len(batch), err)
		return nil
	}
	recordsUploadedTotal.WithLabelValues(u.id).Add(float64(len(batch)))
	return nil
}
