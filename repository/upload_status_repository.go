package repository

import (
	"context"
	"fmt"

	"call-flow-processor/models"
	"call-flow-processor/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CDRUploadStatusRepositoryImpl implements CDRUploadStatusRepository
type CDRUploadStatusRepositoryImpl struct {
	*BaseRepository[models.CDRUploadStatus, struct{}]
}

func NewCDRUploadStatusRepository(db *gorm.DB) CDRUploadStatusRepository {
	return &CDRUploadStatusRepositoryImpl{BaseRepository: NewBaseRepository[models.CDRUploadStatus, struct{}](db)}
}

// FinishedCallIDs returns every finished-call marker. The marker set is
// shared by all producers and never consumed here.
func (r *CDRUploadStatusRepositoryImpl) FinishedCallIDs(ctx context.Context) ([]int64, error) {
	db := r.getDB(ctx)
	var ids []int64
	err := db.Model(&models.FinishedCall{}).Order("call_id ASC").Pluck("call_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list finished calls: %w", err)
	}
	return ids, nil
}

// UpsertPending inserts a pending row per call id for the producer. Rows
// that already exist, pending or uploaded, are left untouched.
func (r *CDRUploadStatusRepositoryImpl) UpsertPending(ctx context.Context, producerID string, callIDs []int64) error {
	if len(callIDs) == 0 {
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

	rows := make([]*models.CDRUploadStatus, 0, len(callIDs))
	for _, id := range callIDs {
		rows = append(rows, &models.CDRUploadStatus{
			CDRType:      producerID,
			CallID:       id,
			UploadStatus: models.CDRUploadStatePending,
		})
	}
	err = db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert pending rows for %s: %w", producerID, err)
	}
	return nil
}

func (r *CDRUploadStatusRepositoryImpl) PendingCallIDs(ctx context.Context, producerID string, limit int) ([]int64, error) {
	db := r.getDB(ctx)
	var ids []int64
	query := db.Model(&models.CDRUploadStatus{}).
		Where("cdr_type = ? AND upload_status = ?", producerID, models.CDRUploadStatePending).
		Order("call_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("call_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending calls for %s: %w", producerID, err)
	}
	return ids, nil
}

// MarkUploaded moves rows pending -> uploaded. Rows already uploaded are
// not touched, so uploaded_at keeps the first confirmation time.
func (r *CDRUploadStatusRepositoryImpl) MarkUploaded(ctx context.Context, producerID string, callIDs []int64) error {
	if len(callIDs) == 0 {
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

	now := utils.UTCNow()
	err = db.Model(&models.CDRUploadStatus{}).
		Where("cdr_type = ? AND call_id IN ? AND upload_status = ?", producerID, callIDs, models.CDRUploadStatePending).
		Updates(map[string]any{
			"upload_status": models.CDRUploadStateUploaded,
			"uploaded_at":   now,
			"updated_at":    now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark uploaded for %s: %w", producerID, err)
	}
	return nil
}

// PruneFinishedCalls deletes markers whose call id is uploaded for every
// listed producer and returns the number of rows removed.
func (r *CDRUploadStatusRepositoryImpl) PruneFinishedCalls(ctx context.Context, producerIDs []string) (int64, error) {
	if len(producerIDs) == 0 {
		return 0, nil
	}
	db := r.getDB(ctx)
	res := db.Exec(`
		DELETE FROM finished_calls fc
		WHERE (
			SELECT COUNT(*) FROM cdr_upload_info u
			WHERE u.call_id = fc.call_id
			  AND u.cdr_type IN ?
			  AND u.upload_status = ?
		) = ?`,
		producerIDs, models.CDRUploadStateUploaded, len(producerIDs),
	)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune finished calls: %w", res.Error)
	}
	return res.RowsAffected, nil
}
