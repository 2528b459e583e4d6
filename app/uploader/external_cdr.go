package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"call-flow-processor/config"
	"call-flow-processor/models"
	"call-flow-processor/repository"
	"call-flow-processor/utils"
)

// ExternalWorkerID keys the external producer's lease and pending rows.
const ExternalWorkerID = "external_cdr"

// NewExternalCDRUploader builds the producer that ships externally
// formatted CDRs to the configured HTTP sink. Only a 200 or 201 response
// confirms delivery; anything else leaves the batch pending. The sink is
// expected to upsert by call id, so a retried POST is safe.
func NewExternalCDRUploader(
	cfg config.ProducersConfig,
	status repository.CDRUploadStatusRepository,
	callRepo repository.CallRepository,
	eventRepo repository.CallEventRepository,
	connRepo repository.ConnectionRepository,
	opRepo repository.OperatorRepository,
	logger *log.Logger,
) *Uploader[*models.ExternalCDR] {
	client := &http.Client{Timeout: cfg.ExternalTimeout}

	collect := func(ctx context.Context, callIDs []int64) ([]*models.ExternalCDR, error) {
		ds, err := loadCallDataset(ctx, callIDs, callRepo, eventRepo, connRepo, opRepo)
		if err != nil {
			return nil, err
		}

		result := make([]*models.ExternalCDR, 0, len(callIDs))
		for _, callID := range callIDs {
			call, ok := ds.calls[callID]
			if !ok {
				continue
			}
			result = append(result, buildExternalCDR(call, ds))
		}
		return result, nil
	}

	upload := func(ctx context.Context, batch []*models.ExternalCDR) error {
		payload, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("marshal batch: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.ExternalUploadURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("upload http status: %d", resp.StatusCode)
		}

		callIDs := make([]int64, 0, len(batch))
		for _, cdr := range batch {
			id, err := strconv.ParseInt(cdr.CallID, 10, 64)
			if err != nil {
				continue
			}
			callIDs = append(callIDs, id)
		}
		return status.MarkUploaded(ctx, ExternalWorkerID, callIDs)
	}

	return NewUploader(ExternalWorkerID, status, cfg.BatchSize, logger, collect, upload)
}

// buildExternalCDR assembles one externally formatted record. A missing
// operator does not exclude the call; its fields just stay absent.
func buildExternalCDR(call *models.Call, ds *callDataset) *models.ExternalCDR {
	cdr := &models.ExternalCDR{
		CallID:       strconv.FormatInt(call.ID, 10),
		CallStart:    call.StartedAt,
		CallEnd:      call.FinishedAt,
		CallerNumber: call.CallerNumber,
		AgentStatus:  models.AgentStatusNoAnswer,
		EndReason:    call.Status,
	}

	if op, ok := ds.operators[call.UserID]; ok {
		cdr.OperatorID = utils.ToPtr(strconv.FormatInt(op.OperatorID, 10))
		cdr.OperatorName = utils.ToPtr(op.Name)
	}

	if ds.hasEvent(call.ID, models.EventTypeAnswered) {
		cdr.AgentStatus = models.AgentStatusAnswered
	}
	if ds.hasEvent(call.ID, models.EventTypeHangup) {
		cdr.EndReason = models.EndReasonCompleted
	}

	if conn := ds.firstConnection(call.ID); conn != nil {
		if conn.AnsweredAt != nil {
			cdr.WaitSec = int(conn.AnsweredAt.Sub(conn.InitiatedAt).Seconds())
			if conn.FinishedAt != nil {
				cdr.TalkSec = int(conn.FinishedAt.Sub(*conn.AnsweredAt).Seconds())
			}
		}
	}
	return cdr
}
