package domain

import (
	"fmt"
	"math"
)

// DefaultAnnualizationBase 一年的工作日数
const DefaultAnnualizationBase = 252

// InterpolationInput 两个锚点与目标工作日数
type InterpolationInput struct {
	Left               CurvePoint
	Right              CurvePoint
	TargetBusinessDays int
}

// RateInterpolator 利率插值器
type RateInterpolator interface {
	InterpolateExponential(input InterpolationInput) (float64, error)
}

// InterpolationEngine 指数（几何）插值：在工作日维度上对累计因子的对数做线性插值。
// 无状态，可并发使用
type InterpolationEngine struct {
	base float64
}

// NewInterpolationEngine base <= 0 时使用 252
func NewInterpolationEngine(base int) *InterpolationEngine {
	if base <= 0 {
		base = DefaultAnnualizationBase
	}
	return &InterpolationEngine{base: float64(base)}
}

// Base 年化基数
func (e *InterpolationEngine) Base() int {
	return int(e.base)
}

// InterpolateExponential 计算目标期限的年化利率，允许外推
func (e *InterpolationEngine) InterpolateExponential(input InterpolationInput) (float64, error) {
	left, right, target := input.Left, input.Right, input.TargetBusinessDays

	if left.BusinessDays == right.BusinessDays {
		return 0, fmt.Errorf("%w: interpolation anchors share tenor %d", ErrInvalidInput, left.BusinessDays)
	}
	if target == 0 {
		return 0, fmt.Errorf("%w: target business days must not be zero", ErrInvalidInput)
	}
	if target < 0 || left.BusinessDays < 0 || right.BusinessDays < 0 {
		return 0, fmt.Errorf("%w: negative business days (left=%d, right=%d, target=%d)", ErrInvalidInput, left.BusinessDays, right.BusinessDays, target)
	}
	if left.Rate <= -1 || right.Rate <= -1 {
		return 0, fmt.Errorf("%w: anchor rates must be above -100%% (left=%v, right=%v)", ErrInvalidInput, left.Rate, right.Rate)
	}

	logLeft := e.logFactor(left)
	logRight := e.logFactor(right)

	weight := float64(target-left.BusinessDays) / float64(right.BusinessDays-left.BusinessDays)
	logTarget := logLeft + (logRight-logLeft)*weight

	rate := math.Expm1(logTarget * e.base / float64(target))
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: interpolated rate is not finite for target %d", ErrInvalidInput, target)
	}
	return rate, nil
}

// logFactor ln((1+r)^(d/base))
func (e *InterpolationEngine) logFactor(p CurvePoint) float64 {
	return float64(p.BusinessDays) / e.base * math.Log1p(p.Rate)
}
