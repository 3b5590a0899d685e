package application

import (
	"fmt"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
)

const (
	ProjectionDirect       = "direct"
	ProjectionInterpolated = "interpolated"
)

// RateProjectionDTO 曲线在目标期限上的取值
type RateProjectionDTO struct {
	Index         string  `json:"index"`
	BusinessDays  int     `json:"business_days"`
	Rate          float64 `json:"rate"`
	Method        string  `json:"method"`
	ReferenceDate string  `json:"reference_date"`
}

// projectRate 按曲线给出的取值方式计算目标期限的年化利率。
// 单点曲线和 0 工作日直接取点，不会调用插值器。
func projectRate(curve *domain.Ettj, businessDays int, interpolator domain.RateInterpolator) (float64, string, error) {
	projection, err := curve.Projection(businessDays)
	if err != nil {
		return 0, "", err
	}

	switch p := projection.(type) {
	case domain.DirectRate:
		return p.Point.Rate, ProjectionDirect, nil
	case domain.InterpolationCandidate:
		rate, err := interpolator.InterpolateExponential(domain.InterpolationInput{
			Left:               p.Left,
			Right:              p.Right,
			TargetBusinessDays: businessDays,
		})
		if err != nil {
			return 0, "", err
		}
		return rate, ProjectionInterpolated, nil
	default:
		return 0, "", fmt.Errorf("%w: unknown projection %T", domain.ErrCurveData, projection)
	}
}
