package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
)

func TestInterpolateExponential_ReturnsAnchorRatesAtAnchors(t *testing.T) {
	engine := domain.NewInterpolationEngine(252)
	left := domain.CurvePoint{BusinessDays: 21, Rate: 0.1050}
	right := domain.CurvePoint{BusinessDays: 252, Rate: 0.1325}

	atLeft, err := engine.InterpolateExponential(domain.InterpolationInput{Left: left, Right: right, TargetBusinessDays: 21})
	require.NoError(t, err)
	assert.InDelta(t, 0.1050, atLeft, 1e-12)

	atRight, err := engine.InterpolateExponential(domain.InterpolationInput{Left: left, Right: right, TargetBusinessDays: 252})
	require.NoError(t, err)
	assert.InDelta(t, 0.1325, atRight, 1e-12)
}

func TestInterpolateExponential_MidpointBetweenAnchors(t *testing.T) {
	engine := domain.NewInterpolationEngine(domain.DefaultAnnualizationBase)

	rate, err := engine.InterpolateExponential(domain.InterpolationInput{
		Left:               domain.CurvePoint{BusinessDays: 30, Rate: 0.10},
		Right:              domain.CurvePoint{BusinessDays: 60, Rate: 0.12},
		TargetBusinessDays: 45,
	})
	require.NoError(t, err)
	assert.Greater(t, rate, 0.10)
	assert.Less(t, rate, 0.12)
}

func TestInterpolateExponential_MonotonicInsideBracket(t *testing.T) {
	engine := domain.NewInterpolationEngine(252)
	left := domain.CurvePoint{BusinessDays: 30, Rate: 0.10}
	right := domain.CurvePoint{BusinessDays: 60, Rate: 0.12}

	prev := left.Rate
	for target := left.BusinessDays; target <= right.BusinessDays; target++ {
		rate, err := engine.InterpolateExponential(domain.InterpolationInput{Left: left, Right: right, TargetBusinessDays: target})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rate, prev-1e-12, "target %d", target)
		assert.GreaterOrEqual(t, rate, left.Rate-1e-12)
		assert.LessOrEqual(t, rate, right.Rate+1e-12)
		prev = rate
	}
}

func TestInterpolateExponential_Extrapolates(t *testing.T) {
	engine := domain.NewInterpolationEngine(252)
	left := domain.CurvePoint{BusinessDays: 30, Rate: 0.10}
	right := domain.CurvePoint{BusinessDays: 60, Rate: 0.12}

	beyond, err := engine.InterpolateExponential(domain.InterpolationInput{Left: left, Right: right, TargetBusinessDays: 90})
	require.NoError(t, err)
	assert.Greater(t, beyond, 0.12)

	before, err := engine.InterpolateExponential(domain.InterpolationInput{Left: left, Right: right, TargetBusinessDays: 10})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(before))
	assert.False(t, math.IsInf(before, 0))
}

func TestInterpolateExponential_OrderOfAnchorsDoesNotMatter(t *testing.T) {
	engine := domain.NewInterpolationEngine(252)
	a := domain.CurvePoint{BusinessDays: 30, Rate: 0.10}
	b := domain.CurvePoint{BusinessDays: 60, Rate: 0.12}

	ab, err := engine.InterpolateExponential(domain.InterpolationInput{Left: a, Right: b, TargetBusinessDays: 40})
	require.NoError(t, err)
	ba, err := engine.InterpolateExponential(domain.InterpolationInput{Left: b, Right: a, TargetBusinessDays: 40})
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, 1e-12)
}

func TestInterpolateExponential_BaseCancelsOut(t *testing.T) {
	left := domain.CurvePoint{BusinessDays: 30, Rate: 0.10}
	right := domain.CurvePoint{BusinessDays: 90, Rate: 0.12}
	input := domain.InterpolationInput{Left: left, Right: right, TargetBusinessDays: 60}

	r252, err := domain.NewInterpolationEngine(252).InterpolateExponential(input)
	require.NoError(t, err)
	r360, err := domain.NewInterpolationEngine(360).InterpolateExponential(input)
	require.NoError(t, err)

	assert.Equal(t, 252, domain.NewInterpolationEngine(0).Base())
	assert.Equal(t, 360, domain.NewInterpolationEngine(360).Base())
	// anchors and target share the same base, so the annualized result does not depend on it
	assert.InDelta(t, r252, r360, 1e-12)
}

func TestInterpolateExponential_InvalidInput(t *testing.T) {
	engine := domain.NewInterpolationEngine(252)

	tests := []struct {
		name  string
		input domain.InterpolationInput
	}{
		{
			name: "equal anchors",
			input: domain.InterpolationInput{
				Left:               domain.CurvePoint{BusinessDays: 30, Rate: 0.10},
				Right:              domain.CurvePoint{BusinessDays: 30, Rate: 0.12},
				TargetBusinessDays: 30,
			},
		},
		{
			name: "zero target",
			input: domain.InterpolationInput{
				Left:               domain.CurvePoint{BusinessDays: 30, Rate: 0.10},
				Right:              domain.CurvePoint{BusinessDays: 60, Rate: 0.12},
				TargetBusinessDays: 0,
			},
		},
		{
			name: "negative target",
			input: domain.InterpolationInput{
				Left:               domain.CurvePoint{BusinessDays: 30, Rate: 0.10},
				Right:              domain.CurvePoint{BusinessDays: 60, Rate: 0.12},
				TargetBusinessDays: -5,
			},
		},
		{
			name: "rate at minus one hundred percent",
			input: domain.InterpolationInput{
				Left:               domain.CurvePoint{BusinessDays: 30, Rate: -1},
				Right:              domain.CurvePoint{BusinessDays: 60, Rate: 0.12},
				TargetBusinessDays: 45,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := engine.InterpolateExponential(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, rate)
		})
	}
}
