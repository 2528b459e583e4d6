package repository

import (
	"context"
	"fmt"

	"call-flow-processor/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConnectionRepositoryImpl implements ConnectionRepository
type ConnectionRepositoryImpl struct {
	*BaseRepository[models.Connection, models.ConnectionFilter]
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &ConnectionRepositoryImpl{BaseRepository: NewBaseRepository[models.Connection, models.ConnectionFilter](db)}
}

func (r *ConnectionRepositoryImpl) UpsertBatch(ctx context.Context, connections []*models.Connection) error {
	if len(connections) == 0 {
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
		Columns: []clause.Column{{Name: "connection_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"call_id":      clause.Expr{SQL: "EXCLUDED.call_id"},
			"phone":        clause.Expr{SQL: "EXCLUDED.phone"},
			"initiated_at": clause.Expr{SQL: "EXCLUDED.initiated_at"},
			"answered_at":  clause.Expr{SQL: "EXCLUDED.answered_at"},
			"finished_at":  clause.Expr{SQL: "EXCLUDED.finished_at"},
			"updated_at":   clause.Expr{SQL: "(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"},
		}),
	}).CreateInBatches(connections, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert connections: %w", err)
	}
	return nil
}

func (r *ConnectionRepositoryImpl) ByCallIDs(ctx context.Context, callIDs []int64) ([]*models.Connection, error) {
	if len(callIDs) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var rows []*models.Connection
	if err := db.Where("call_id IN ?", callIDs).Order("connection_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
