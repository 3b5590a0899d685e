package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/application"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
)

var refDate = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

type simulationFixture struct {
	calendar     *fakeCalendar
	curves       *fakeCurves
	interpolator *countingInterpolator
	publisher    *fakePublisher
	service      *application.SimulationService
}

func newSimulationFixture(t *testing.T, days domain.BusinessDayCount, curves ...*domain.Ettj) *simulationFixture {
	t.Helper()
	f := &simulationFixture{
		calendar:     &fakeCalendar{count: days},
		curves:       newFakeCurves(curves...),
		interpolator: newCountingInterpolator(),
		publisher:    &fakePublisher{},
	}
	f.service = application.NewSimulationService(
		f.calendar,
		f.curves,
		f.interpolator,
		domain.NewInvestmentSimulator(domain.DefaultAnnualizationBase, nil),
		f.publisher,
		nil,
		discardLogger(),
	)
	return f
}

func curve(t *testing.T, index string, points ...domain.CurvePoint) *domain.Ettj {
	t.Helper()
	c, err := domain.NewEttj(index, refDate, points)
	require.NoError(t, err)
	return c
}

func command(index string) application.SimulateInvestmentCommand {
	return application.SimulateInvestmentCommand{
		Index:          index,
		MaturityDate:   time.Date(2027, 10, 18, 0, 0, 0, 0, time.UTC),
		InvestedAmount: decimal.NewFromInt(1000),
		Rate:           1,
		IsTaxFree:      true,
	}
}

func TestSimulateInvestment_SinglePointCurveSkipsInterpolation(t *testing.T) {
	f := newSimulationFixture(t,
		domain.BusinessDayCount{BusinessDays: 252, CalendarDays: 365},
		curve(t, "PRE", domain.CurvePoint{BusinessDays: 500, Rate: 0.10}),
	)

	result, err := f.service.SimulateInvestment(context.Background(), command("PRE"))
	require.NoError(t, err)

	assert.Equal(t, 0, f.interpolator.calls)
	assert.Equal(t, 0.10, result.ProjectedRate)
	assert.InDelta(t, 1100.0, result.GrossAmount.InexactFloat64(), 1e-9)
}

func TestSimulateInvestment_InterpolatesBetweenBracketingPoints(t *testing.T) {
	f := newSimulationFixture(t,
		domain.BusinessDayCount{BusinessDays: 45, CalendarDays: 63},
		curve(t, "CDI",
			domain.CurvePoint{BusinessDays: 30, Rate: 0.10},
			domain.CurvePoint{BusinessDays: 60, Rate: 0.12},
			domain.CurvePoint{BusinessDays: 252, Rate: 0.13},
		),
	)

	result, err := f.service.SimulateInvestment(context.Background(), command("CDI"))
	require.NoError(t, err)

	require.Equal(t, 1, f.interpolator.calls)
	input := f.interpolator.inputs[0]
	assert.Equal(t, 30, input.Left.BusinessDays)
	assert.Equal(t, 60, input.Right.BusinessDays)
	assert.Equal(t, 45, input.TargetBusinessDays)
	assert.Greater(t, result.ProjectedRate, 0.10)
	assert.Less(t, result.ProjectedRate, 0.12)
}

func TestSimulateInvestment_EmptyCurveIsCurveDataError(t *testing.T) {
	f := newSimulationFixture(t, domain.BusinessDayCount{BusinessDays: 10, CalendarDays: 14})
	f.curves.curves["CDI"] = &domain.Ettj{Index: "CDI", ReferenceDate: refDate}

	result, err := f.service.SimulateInvestment(context.Background(), command("CDI"))
	assert.ErrorIs(t, err, domain.ErrCurveData)
	assert.Nil(t, result)
	assert.Equal(t, 0, f.interpolator.calls)
	assert.Empty(t, f.publisher.events)
}

func TestSimulateInvestment_RejectsInvalidCommandBeforeCalendar(t *testing.T) {
	f := newSimulationFixture(t, domain.BusinessDayCount{BusinessDays: 10, CalendarDays: 14})

	tests := []struct {
		name   string
		mutate func(*application.SimulateInvestmentCommand)
	}{
		{"missing index", func(c *application.SimulateInvestmentCommand) { c.Index = "" }},
		{"zero amount", func(c *application.SimulateInvestmentCommand) { c.InvestedAmount = decimal.Zero }},
		{"negative amount", func(c *application.SimulateInvestmentCommand) { c.InvestedAmount = decimal.NewFromInt(-1) }},
		{"zero contract rate", func(c *application.SimulateInvestmentCommand) { c.Rate = 0 }},
		{"missing maturity", func(c *application.SimulateInvestmentCommand) { c.MaturityDate = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := command("CDI")
			tt.mutate(&cmd)

			_, err := f.service.SimulateInvestment(context.Background(), cmd)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, f.calendar.calls)
}

func TestSimulateInvestment_PropagatesCollaboratorErrors(t *testing.T) {
	f := newSimulationFixture(t, domain.BusinessDayCount{})
	f.calendar.err = domain.ErrInvalidInput

	_, err := f.service.SimulateInvestment(context.Background(), command("CDI"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.calendar.err = nil
	_, err = f.service.SimulateInvestment(context.Background(), command("MISSING"))
	assert.ErrorIs(t, err, domain.ErrCurveNotFound)
}

func TestSimulateInvestment_ZeroBusinessDaysReturnsPrincipal(t *testing.T) {
	f := newSimulationFixture(t,
		domain.BusinessDayCount{BusinessDays: 0, CalendarDays: 1},
		curve(t, "CDI",
			domain.CurvePoint{BusinessDays: 21, Rate: 0.11},
			domain.CurvePoint{BusinessDays: 252, Rate: 0.13},
		),
	)
	cmd := command("CDI")
	cmd.IsTaxFree = false

	result, err := f.service.SimulateInvestment(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, 0, f.interpolator.calls)
	assert.True(t, result.NetAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, result.TaxAmount.IsZero())
}

func TestSimulateInvestment_PublishesEvent(t *testing.T) {
	f := newSimulationFixture(t,
		domain.BusinessDayCount{BusinessDays: 252, CalendarDays: 365},
		curve(t, "PRE", domain.CurvePoint{BusinessDays: 252, Rate: 0.10}),
	)
	cmd := command("PRE")
	cmd.IsTaxFree = false

	_, err := f.service.SimulateInvestment(context.Background(), cmd)
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	published := f.publisher.events[0]
	assert.Equal(t, domain.InvestmentSimulatedEventType, published.eventType)
	assert.Equal(t, "PRE", published.key)

	event, ok := published.event.(domain.InvestmentSimulatedEvent)
	require.True(t, ok)
	assert.Equal(t, application.ProjectionDirect, event.ProjectionMethod)
	assert.Equal(t, "1100.00", event.GrossAmount)
	assert.Equal(t, "17.50", event.TaxAmount)
	assert.Equal(t, "1082.50", event.NetAmount)
	assert.NotEmpty(t, event.EventID)
}

func TestSimulateInvestment_PublishFailureDoesNotFailQuote(t *testing.T) {
	f := newSimulationFixture(t,
		domain.BusinessDayCount{BusinessDays: 252, CalendarDays: 365},
		curve(t, "PRE", domain.CurvePoint{BusinessDays: 252, Rate: 0.10}),
	)
	f.publisher.err = errors.New("broker unavailable")

	result, err := f.service.SimulateInvestment(context.Background(), command("PRE"))
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestSimulateInvestment_Idempotent(t *testing.T) {
	f := newSimulationFixture(t,
		domain.BusinessDayCount{BusinessDays: 377, CalendarDays: 548},
		curve(t, "CDI",
			domain.CurvePoint{BusinessDays: 126, Rate: 0.1125},
			domain.CurvePoint{BusinessDays: 504, Rate: 0.1210},
		),
	)
	cmd := command("CDI")
	cmd.Rate = 1.1
	cmd.IsTaxFree = false

	first, err := f.service.SimulateInvestment(context.Background(), cmd)
	require.NoError(t, err)
	second, err := f.service.SimulateInvestment(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
