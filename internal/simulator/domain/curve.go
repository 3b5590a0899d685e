package domain

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// CurvePoint 曲线上的一个观测点
type CurvePoint struct {
	BusinessDays int     `json:"business_days"`
	Rate         float64 `json:"rate"` // 年化利率，0.1325 表示 13.25%
}

// Ettj 利率期限结构（基准收益率曲线）
// 点按 BusinessDays 升序排列，至少一个点且期限不重复
type Ettj struct {
	Index         string       `json:"index"`
	ReferenceDate time.Time    `json:"reference_date"`
	Points        []CurvePoint `json:"points"`
}

// NewEttj 构建并校验曲线，输入点顺序任意
func NewEttj(index string, referenceDate time.Time, points []CurvePoint) (*Ettj, error) {
	if index == "" {
		return nil, fmt.Errorf("%w: index is required", ErrCurveData)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: curve %s has no points", ErrCurveData, index)
	}

	sorted := make([]CurvePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BusinessDays < sorted[j].BusinessDays })

	for i, p := range sorted {
		if p.BusinessDays < 0 {
			return nil, fmt.Errorf("%w: curve %s has negative tenor %d", ErrCurveData, index, p.BusinessDays)
		}
		if i > 0 && sorted[i-1].BusinessDays == p.BusinessDays {
			return nil, fmt.Errorf("%w: curve %s has duplicate tenor %d", ErrCurveData, index, p.BusinessDays)
		}
		if err := checkRate(index, p); err != nil {
			return nil, err
		}
	}

	return &Ettj{Index: index, ReferenceDate: referenceDate, Points: sorted}, nil
}

// Validate 校验从外部协作方拿到的曲线
func (e *Ettj) Validate() error {
	if e == nil || len(e.Points) == 0 {
		return fmt.Errorf("%w: empty curve", ErrCurveData)
	}
	for i, p := range e.Points {
		if i > 0 && e.Points[i-1].BusinessDays >= p.BusinessDays {
			return fmt.Errorf("%w: curve %s is not strictly sorted at tenor %d", ErrCurveData, e.Index, p.BusinessDays)
		}
		if err := checkRate(e.Index, p); err != nil {
			return err
		}
	}
	return nil
}

// checkRate 利率必须有限且高于 -100%
func checkRate(index string, p CurvePoint) error {
	if !isFinite(p.Rate) || p.Rate <= -1 {
		return fmt.Errorf("%w: curve %s has unusable rate %v at tenor %d", ErrCurveData, index, p.Rate, p.BusinessDays)
	}
	return nil
}

// RateProjection 曲线对目标期限的取值方式：DirectRate 或 InterpolationCandidate
type RateProjection interface {
	isRateProjection()
}

// DirectRate 直接取曲线上的利率，不做插值
type DirectRate struct {
	Point CurvePoint
}

// InterpolationCandidate 需要在两个锚点间做指数插值
type InterpolationCandidate struct {
	Left  CurvePoint
	Right CurvePoint
}

func (DirectRate) isRateProjection()             {}
func (InterpolationCandidate) isRateProjection() {}

// Projection 为目标工作日数选择取值方式。
// 单点曲线直接返回该点；目标为 0 时返回最短期限点；
// 其余情况返回包住目标的两个相邻点，目标在曲线外时取最近的两个边界点。
func (e *Ettj) Projection(targetBusinessDays int) (RateProjection, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if targetBusinessDays < 0 {
		return nil, fmt.Errorf("%w: target business days %d is negative", ErrInvalidInput, targetBusinessDays)
	}

	if len(e.Points) == 1 {
		return DirectRate{Point: e.Points[0]}, nil
	}
	if targetBusinessDays == 0 {
		return DirectRate{Point: e.Points[0]}, nil
	}

	left, right := e.bracket(targetBusinessDays)
	return InterpolationCandidate{Left: left, Right: right}, nil
}

// bracket 二分查找第一个期限 >= target 的点
func (e *Ettj) bracket(target int) (CurvePoint, CurvePoint) {
	idx := sort.Search(len(e.Points), func(i int) bool {
		return e.Points[i].BusinessDays >= target
	})

	switch {
	case idx <= 0:
		return e.Points[0], e.Points[1]
	case idx >= len(e.Points):
		return e.Points[len(e.Points)-2], e.Points[len(e.Points)-1]
	default:
		return e.Points[idx-1], e.Points[idx]
	}
}

// CurveProvider 曲线提供方。businessDays 可用于选择合适的快照
type CurveProvider interface {
	GetCurve(ctx context.Context, index string, businessDays int) (*Ettj, error)
}

// CurveRepository 曲线持久化
type CurveRepository interface {
	CurveProvider
	Save(ctx context.Context, curve *Ettj) error
	GetLatest(ctx context.Context, index string) (*Ettj, error)
}
