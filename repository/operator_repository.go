package repository

import (
	"context"
	"fmt"

	"call-flow-processor/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OperatorRepositoryImpl implements OperatorRepository
type OperatorRepositoryImpl struct {
	*BaseRepository[models.Operator, models.OperatorFilter]
}

func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &OperatorRepositoryImpl{BaseRepository: NewBaseRepository[models.Operator, models.OperatorFilter](db)}
}

func (r *OperatorRepositoryImpl) UpsertBatch(ctx context.Context, operators []*models.Operator) error {
	if len(operators) == 0 {
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
		Columns: []clause.Column{{Name: "operator_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       clause.Expr{SQL: "EXCLUDED.name"},
			"extension":  clause.Expr{SQL: "EXCLUDED.extension"},
			"email":      clause.Expr{SQL: "EXCLUDED.email"},
			"updated_at": clause.Expr{SQL: "(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"},
		}),
	}).CreateInBatches(operators, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert operators: %w", err)
	}
	return nil
}

func (r *OperatorRepositoryImpl) ByOperatorIDs(ctx context.Context, operatorIDs []int64) ([]*models.Operator, error) {
	if len(operatorIDs) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var rows []*models.Operator
	if err := db.Where("operator_id IN ?", operatorIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *OperatorRepositoryImpl) ListAll(ctx context.Context) ([]*models.Operator, error) {
	db := r.getDB(ctx)
	var rows []*models.Operator
	if err := db.Order("operator_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CallStats aggregates finished calls per operator. The left join keeps
// operators with no calls in the output with zero counts.
func (r *OperatorRepositoryImpl) CallStats(ctx context.Context) ([]*OperatorCallStats, error) {
	db := r.getDB(ctx)
	var rows []*OperatorCallStats
	err := db.Raw(`
		SELECT
			o.name AS operator_name,
			COUNT(c.id) AS call_count,
			COALESCE(ROUND(AVG(EXTRACT(EPOCH FROM c.finished_at - c.started_at))), 0) AS avg_call_duration_seconds
		FROM operators o
		LEFT JOIN calls c ON c.user_id = o.operator_id AND c.finished_at IS NOT NULL
		GROUP BY o.operator_id, o.name
		ORDER BY o.operator_id`,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate operator stats: %w", err)
	}
	return rows, nil
}
