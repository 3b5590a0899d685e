package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/db"
)

type holidayRepository struct {
	db *db.DB
}

// NewHolidayRepository 创建节假日仓储
func NewHolidayRepository(database *db.DB) domain.HolidayRepository {
	return &holidayRepository{db: database}
}

// ListHolidays 返回 [from, to) 内的节假日
func (r *holidayRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var rows []HolidayModel
	err := r.db.WithContext(ctx).
		Where("day >= ? AND day < ?", dateOnly(from), dateOnly(to)).
		Order("day ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}

	days := make([]time.Time, 0, len(rows))
	for _, h := range rows {
		days = append(days, dateOnly(h.Day))
	}
	return days, nil
}
