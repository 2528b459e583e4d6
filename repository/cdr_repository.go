package repository

import (
	"context"
	"fmt"

	"call-flow-processor/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CDRRepositoryImpl implements CDRRepository
type CDRRepositoryImpl struct {
	*BaseRepository[models.CDR, models.CDRFilter]
}

func NewCDRRepository(db *gorm.DB) CDRRepository {
	return &CDRRepositoryImpl{BaseRepository: NewBaseRepository[models.CDR, models.CDRFilter](db)}
}

// UpsertBatch fully replaces CDRs by call id. CDRs are derived data, so a
// re-delivered batch overwrites every column.
func (r *CDRRepositoryImpl) UpsertBatch(ctx context.Context, cdrs []*models.CDR) error {
	if len(cdrs) == 0 {
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
		Columns: []clause.Column{{Name: "call_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"call_start":    clause.Expr{SQL: "EXCLUDED.call_start"},
			"call_end":      clause.Expr{SQL: "EXCLUDED.call_end"},
			"caller_number": clause.Expr{SQL: "EXCLUDED.caller_number"},
			"callee_number": clause.Expr{SQL: "EXCLUDED.callee_number"},
			"duration_sec":  clause.Expr{SQL: "EXCLUDED.duration_sec"},
			"call_result":   clause.Expr{SQL: "EXCLUDED.call_result"},
			"call_events":   clause.Expr{SQL: "EXCLUDED.call_events"},
			"updated_at":    clause.Expr{SQL: "(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"},
		}),
	}).CreateInBatches(cdrs, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cdrs: %w", err)
	}
	return nil
}

func (r *CDRRepositoryImpl) ByCallIDs(ctx context.Context, callIDs []string) ([]*models.CDR, error) {
	if len(callIDs) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var rows []*models.CDR
	if err := db.Where("call_id IN ?", callIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
