package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CurveRepository 曲线仓储，每个 (指数, 参考日) 是一份完整快照
type CurveRepository struct {
	db *db.DB
}

var _ domain.CurveRepository = (*CurveRepository)(nil)

// NewCurveRepository 创建曲线仓储
func NewCurveRepository(database *db.DB) *CurveRepository {
	return &CurveRepository{db: database}
}

// Save 在一个事务内替换该参考日的全部点
func (r *CurveRepository) Save(ctx context.Context, curve *domain.Ettj) error {
	rows := toPointModels(curve)
	refDate := dateOnly(curve.ReferenceDate)

	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("index_name = ? AND reference_date = ?", curve.Index, refDate).
			Delete(&EttjPointModel{}).Error; err != nil {
			return fmt.Errorf("delete previous snapshot: %w", err)
		}
		// 并发导入同一快照时以后写入者为准
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "index_name"}, {Name: "reference_date"}, {Name: "business_days"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
		}).Create(&rows).Error
	})
}

// GetLatest 返回最新参考日的曲线
func (r *CurveRepository) GetLatest(ctx context.Context, index string) (*domain.Ettj, error) {
	var latest sql.NullTime
	err := r.db.WithContext(ctx).
		Model(&EttjPointModel{}).
		Where("index_name = ?", index).
		Select("MAX(reference_date)").
		Scan(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("query latest reference date of %s: %w", index, err)
	}
	if !latest.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrCurveNotFound, index)
	}

	var rows []EttjPointModel
	err = r.db.WithContext(ctx).
		Where("index_name = ? AND reference_date = ?", index, latest.Time).
		Order("business_days ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load curve %s: %w", index, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCurveNotFound, index)
	}
	return toEttj(index, latest.Time, rows), nil
}

// GetCurve 目前所有期限共用最新快照
func (r *CurveRepository) GetCurve(ctx context.Context, index string, _ int) (*domain.Ettj, error) {
	return r.GetLatest(ctx, index)
}
