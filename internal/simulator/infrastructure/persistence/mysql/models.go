// Package mysql 投资模拟服务的关系型存储，驱动由 pkg/db 选择（mysql 或 postgres）
package mysql

import (
	"time"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"gorm.io/gorm"
)

// EttjPointModel 曲线点表映射，(index_name, reference_date, business_days) 唯一
type EttjPointModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	IndexName     string    `gorm:"column:index_name;type:varchar(32);not null;uniqueIndex:uk_ettj_point,priority:1;index:idx_ettj_index_ref,priority:1"`
	ReferenceDate time.Time `gorm:"column:reference_date;type:date;not null;uniqueIndex:uk_ettj_point,priority:2;index:idx_ettj_index_ref,priority:2"`
	BusinessDays  int       `gorm:"column:business_days;not null;uniqueIndex:uk_ettj_point,priority:3"`
	Rate          float64   `gorm:"column:rate;type:decimal(16,10);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (EttjPointModel) TableName() string { return "ettj_points" }

// HolidayModel 节假日表映射
type HolidayModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Day       time.Time `gorm:"column:day;type:date;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;type:varchar(100)"`
	CreatedAt time.Time
}

func (HolidayModel) TableName() string { return "holidays" }

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EttjPointModel{}, &HolidayModel{})
}

// --- mapping helpers ---

func toPointModels(curve *domain.Ettj) []EttjPointModel {
	refDate := dateOnly(curve.ReferenceDate)
	models := make([]EttjPointModel, 0, len(curve.Points))
	for _, p := range curve.Points {
		models = append(models, EttjPointModel{
			IndexName:     curve.Index,
			ReferenceDate: refDate,
			BusinessDays:  p.BusinessDays,
			Rate:          p.Rate,
		})
	}
	return models
}

// toEttj 行需要已按 business_days 升序
func toEttj(index string, refDate time.Time, rows []EttjPointModel) *domain.Ettj {
	points := make([]domain.CurvePoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, domain.CurvePoint{BusinessDays: r.BusinessDays, Rate: r.Rate})
	}
	return &domain.Ettj{Index: index, ReferenceDate: dateOnly(refDate), Points: points}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
