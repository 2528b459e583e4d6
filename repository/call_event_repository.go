package repository

import (
	"context"
	"fmt"

	"call-flow-processor/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CallEventRepositoryImpl implements CallEventRepository
type CallEventRepositoryImpl struct {
	*BaseRepository[models.CallEvent, models.CallEventFilter]
}

func NewCallEventRepository(db *gorm.DB) CallEventRepository {
	return &CallEventRepositoryImpl{BaseRepository: NewBaseRepository[models.CallEvent, models.CallEventFilter](db)}
}

// SaveBatch upserts the events and inserts a finished-call marker for every
// hangup in the batch. Both writes share one transaction so completion
// detection can never be lost between them.
func (r *CallEventRepositoryImpl) SaveBatch(ctx context.Context, events []*models.CallEvent) error {
	if len(events) == 0 {
		return nil
	}
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"call_id":    clause.Expr{SQL: "EXCLUDED.call_id"},
			"event_type": clause.Expr{SQL: "EXCLUDED.event_type"},
			"payload":    clause.Expr{SQL: "EXCLUDED.payload"},
			"updated_at": clause.Expr{SQL: "(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"},
		}),
	}).CreateInBatches(events, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert call events: %w", err)
	}

	var markers []*models.FinishedCall
	seen := make(map[int64]struct{})
	for _, ev := range events {
		if ev.EventType != models.EventTypeHangup {
			continue
		}
		if _, ok := seen[ev.CallID]; ok {
			continue
		}
		seen[ev.CallID] = struct{}{}
		markers = append(markers, &models.FinishedCall{CallID: ev.CallID})
	}
	if len(markers) > 0 {
		err = db.Clauses(clause.OnConflict{DoNothing: true}).Create(markers).Error
		if err != nil {
			return fmt.Errorf("failed to insert finished call markers: %w", err)
		}
	}
	return nil
}

// ByCallIDs returns events for the given calls ordered by event id, which
// matches the upstream arrival order.
func (r *CallEventRepositoryImpl) ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.CallEvent, error) {
	if len(callIDs) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var rows []*models.CallEvent
	if err := db.Where("call_id IN ?", callIDs).Order("event_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
