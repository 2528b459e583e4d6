package uploader

import (
	"context"
	"log"
	"strconv"

	"call-flow-processor/models"
	"call-flow-processor/repository"
	"gorm.io/gorm"
)

// InternalWorkerID keys the internal producer's lease and pending rows.
const InternalWorkerID = "internal_cdr"

// NewInternalCDRUploader builds the producer that materializes CDRs into
// the local cdrs table. The CDR upsert and the pending->uploaded
// transition commit in one transaction, so a failed batch rolls back
// whole and stays pending.
func NewInternalCDRUploader(
	db *gorm.DB,
	status repository.CDRUploadStatusRepository,
	callRepo repository.CallRepository,
	eventRepo repository.CallEventRepository,
	connRepo repository.ConnectionRepository,
	opRepo repository.OperatorRepository,
	cdrRepo repository.CDRRepository,
	batchSize int,
	logger *log.Logger,
) *Uploader[*models.CDR] {
	collect := func(ctx context.Context, callIDs []int64) ([]*models.CDR, error) {
		ds, err := loadCallDataset(ctx, callIDs, callRepo, eventRepo, connRepo, opRepo)
		if err != nil {
			return nil, err
		}
		return collectInternalCDRs(callIDs, ds), nil
	}

	upload := func(ctx context.Context, batch []*models.CDR) error {
		callIDs := make([]int64, 0, len(batch))
		for _, cdr := range batch {
			id, err := strconv.ParseInt(cdr.CallID, 10, 64)
			if err != nil {
				continue
			}
			callIDs = append(callIDs, id)
		}
		return repository.WithTransaction(ctx, db, func(txCtx context.Context) error {
			if err := cdrRepo.UpsertBatch(txCtx, batch); err != nil {
				return err
			}
			return status.MarkUploaded(txCtx, InternalWorkerID, callIDs)
		})
	}

	return NewUploader(InternalWorkerID, status, batchSize, logger, collect, upload)
}

// collectInternalCDRs assembles internal CDRs for the batch. Calls not
// yet ingested and calls without an attributable operator are skipped;
// their pending rows stay until the joinable data arrives.
func collectInternalCDRs(callIDs []int64, ds *callDataset) []*models.CDR {
	result := make([]*models.CDR, 0, len(callIDs))
	for _, callID := range callIDs {
		call, ok := ds.calls[callID]
		if !ok {
			continue
		}
		if _, ok := ds.operators[call.UserID]; !ok {
			continue
		}

		durationSec := 0
		if call.FinishedAt != nil {
			durationSec = int(call.FinishedAt.Sub(call.StartedAt).Seconds())
		}
		result = append(result, &models.CDR{
			CallID:       strconv.FormatInt(call.ID, 10),
			CallStart:    call.StartedAt,
			CallEnd:      call.FinishedAt,
			CallerNumber: call.CallerNumber,
			CalleeNumber: call.CalleeNumber,
			DurationSec:  durationSec,
			CallResult:   call.Status,
			CallEvents:   ds.eventTypes(callID),
		})
	}
	return result
}
