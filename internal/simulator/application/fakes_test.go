package application_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCalendar struct {
	count domain.BusinessDayCount
	err   error
	calls int
}

func (f *fakeCalendar) CountBusinessDays(_ context.Context, _ time.Time) (domain.BusinessDayCount, error) {
	f.calls++
	return f.count, f.err
}

type fakeCurves struct {
	curves map[string]*domain.Ettj
	err    error
	saved  []*domain.Ettj
}

func newFakeCurves(curves ...*domain.Ettj) *fakeCurves {
	f := &fakeCurves{curves: make(map[string]*domain.Ettj)}
	for _, c := range curves {
		f.curves[c.Index] = c
	}
	return f
}

func (f *fakeCurves) GetCurve(ctx context.Context, index string, _ int) (*domain.Ettj, error) {
	return f.GetLatest(ctx, index)
}

func (f *fakeCurves) GetLatest(_ context.Context, index string) (*domain.Ettj, error) {
	if f.err != nil {
		return nil, f.err
	}
	curve, ok := f.curves[index]
	if !ok {
		return nil, domain.ErrCurveNotFound
	}
	return curve, nil
}

func (f *fakeCurves) Save(_ context.Context, curve *domain.Ettj) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, curve)
	f.curves[curve.Index] = curve
	return nil
}

// countingInterpolator 记录插值调用次数
type countingInterpolator struct {
	engine *domain.InterpolationEngine
	calls  int
	inputs []domain.InterpolationInput
}

func newCountingInterpolator() *countingInterpolator {
	return &countingInterpolator{engine: domain.NewInterpolationEngine(domain.DefaultAnnualizationBase)}
}

func (c *countingInterpolator) InterpolateExponential(input domain.InterpolationInput) (float64, error) {
	c.calls++
	c.inputs = append(c.inputs, input)
	return c.engine.InterpolateExponential(input)
}

type publishedEvent struct {
	eventType string
	key       string
	event     any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, eventType, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{eventType: eventType, key: key, event: event})
	return nil
}

type fakeHolidays struct {
	days     []time.Time
	err      error
	calls    int
	from, to time.Time
}

func (f *fakeHolidays) ListHolidays(_ context.Context, from, to time.Time) ([]time.Time, error) {
	f.calls++
	f.from, f.to = from, to
	return f.days, f.err
}
