package repository

import (
	"context"
	"fmt"

	"call-flow-processor/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CallRepositoryImpl implements CallRepository
type CallRepositoryImpl struct {
	*BaseRepository[models.Call, models.CallFilter]
}

func NewCallRepository(db *gorm.DB) CallRepository {
	return &CallRepositoryImpl{BaseRepository: NewBaseRepository[models.Call, models.CallFilter](db)}
}

// UpsertBatch inserts or fully overwrites calls by their upstream id, so a
// re-fetched page is a no-op beyond the overwrite.
func (r *CallRepositoryImpl) UpsertBatch(ctx context.Context, calls []*models.Call) error {
	if len(calls) == 0 {
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
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":        clause.Expr{SQL: "EXCLUDED.status"},
			"started_at":    clause.Expr{SQL: "EXCLUDED.started_at"},
			"finished_at":   clause.Expr{SQL: "EXCLUDED.finished_at"},
			"caller_number": clause.Expr{SQL: "EXCLUDED.caller_number"},
			"callee_number": clause.Expr{SQL: "EXCLUDED.callee_number"},
			"user_id":       clause.Expr{SQL: "EXCLUDED.user_id"},
			"updated_at":    clause.Expr{SQL: "(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"},
		}),
	}).CreateInBatches(calls, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert calls: %w", err)
	}
	return nil
}

func (r *CallRepositoryImpl) ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.Call, error) {
	if len(callIDs) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var rows []*models.Call
	if err := db.Where("id IN ?", callIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CallRepositoryImpl) applyFilter(db *gorm.DB, f models.CallFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.FinishedOnly != nil && *f.FinishedOnly {
		db = db.Where("finished_at IS NOT NULL")
	}
	if f.StartedAfter != nil {
		db = db.Where("started_at >= ?", *f.StartedAfter)
	}
	return db
}

func (r *CallRepositoryImpl) ByFilter(ctx context.Context, filter models.CallFilter, orderBy string, limit, offset int) ([]*models.Call, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Call{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Call
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Summary aggregates finished calls. Answered means at least one answered
// event was recorded for the call; durations are whole seconds between
// start and finish.
func (r *CallRepositoryImpl) Summary(ctx context.Context) (*CallSummary, error) {
	db := r.getDB(ctx)
	var out CallSummary
	err := db.Raw(`
		SELECT
			COUNT(*) AS total_calls,
			COUNT(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM call_events e
				WHERE e.call_id = calls.id AND e.event_type = ?
			)) AS answered_calls,
			COALESCE(ROUND(AVG(EXTRACT(EPOCH FROM finished_at - started_at))), 0) AS avg_duration_seconds,
			COALESCE(ROUND(SUM(EXTRACT(EPOCH FROM finished_at - started_at))), 0) AS total_duration_seconds
		FROM calls
		WHERE finished_at IS NOT NULL`,
		models.EventTypeAnswered,
	).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate call summary: %w", err)
	}
	return &out, nil
}
