package repository

import (
	"context"
	"errors"
	"fmt"

	"call-flow-processor/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FetchCursorRepositoryImpl implements FetchCursorRepository
type FetchCursorRepositoryImpl struct {
	*BaseRepository[models.FetchCursor, struct{}]
}

func NewFetchCursorRepository(db *gorm.DB) FetchCursorRepository {
	return &FetchCursorRepositoryImpl{BaseRepository: NewBaseRepository[models.FetchCursor, struct{}](db)}
}

func (r *FetchCursorRepositoryImpl) Cursor(ctx context.Context, workerID string) (int64, error) {
	db := r.getDB(ctx)
	var row models.FetchCursor
	if err := db.First(&row, "id = ?", workerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cursor for %s: %w", workerID, err)
	}
	return row.Cursor, nil
}

func (r *FetchCursorRepositoryImpl) UpdateCursor(ctx context.Context, workerID string, cursor int64) error {
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
			"cursor":     cursor,
			"updated_at": clause.Expr{SQL: "(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"},
		}),
	}).Create(&models.FetchCursor{ID: workerID, Cursor: cursor}).Error
	if err != nil {
		return fmt.Errorf("failed to update cursor for %s: %w", workerID, err)
	}
	return nil
}
