package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/metrics"
)

// SimulationService 投资模拟编排：日历 -> 曲线 -> 取值 -> 复利与扣税
type SimulationService struct {
	calendar       domain.CalendarProvider
	curves         domain.CurveProvider
	interpolator   domain.RateInterpolator
	simulator      *domain.InvestmentSimulator
	eventPublisher domain.EventPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewSimulationService 创建模拟服务，eventPublisher 与 metrics 可为空
func NewSimulationService(
	calendar domain.CalendarProvider,
	curves domain.CurveProvider,
	interpolator domain.RateInterpolator,
	simulator *domain.InvestmentSimulator,
	eventPublisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SimulationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulationService{
		calendar:       calendar,
		curves:         curves,
		interpolator:   interpolator,
		simulator:      simulator,
		eventPublisher: eventPublisher,
		metrics:        m,
		logger:         logger,
	}
}

// SimulateInvestment 模拟到期收益。单点曲线直接使用该点利率，否则做指数插值
func (s *SimulationService) SimulateInvestment(ctx context.Context, cmd SimulateInvestmentCommand) (*domain.InvestmentResult, error) {
	start := time.Now()
	result, method, err := s.simulate(ctx, cmd)
	s.metrics.RecordSimulation(cmd.Index, outcomeOf(err), time.Since(start))
	if err != nil {
		s.logger.WarnContext(ctx, "investment simulation failed", "index", cmd.Index, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "investment simulated",
		"index", cmd.Index,
		"method", method,
		"business_days", result.BusinessDays,
		"projected_rate", result.ProjectedRate,
		"net_amount", result.NetAmount.String(),
	)
	s.publishSimulated(ctx, cmd, result, method)
	return result, nil
}

func (s *SimulationService) simulate(ctx context.Context, cmd SimulateInvestmentCommand) (*domain.InvestmentResult, string, error) {
	if err := cmd.Validate(); err != nil {
		return nil, "", err
	}

	days, err := s.calendar.CountBusinessDays(ctx, cmd.MaturityDate)
	if err != nil {
		return nil, "", err
	}

	curve, err := s.curves.GetCurve(ctx, cmd.Index, days.BusinessDays)
	if err != nil {
		return nil, "", err
	}

	rate, method, err := projectRate(curve, days.BusinessDays, s.interpolator)
	if err != nil {
		return nil, "", err
	}
	if method == ProjectionInterpolated {
		s.metrics.RecordInterpolation()
	}

	params := domain.NewInvestmentParameters(cmd.InvestedAmount, rate, days, cmd.Rate, cmd.IsTaxFree)
	result, err := s.simulator.Simulate(params)
	if err != nil {
		return nil, "", err
	}
	return result, method, nil
}

// publishSimulated 事件发布失败只记录日志，不影响报价
func (s *SimulationService) publishSimulated(ctx context.Context, cmd SimulateInvestmentCommand, result *domain.InvestmentResult, method string) {
	if s.eventPublisher == nil {
		return
	}

	event := domain.InvestmentSimulatedEvent{
		EventID:          uuid.NewString(),
		Index:            cmd.Index,
		MaturityDate:     cmd.MaturityDate.Format(time.DateOnly),
		InvestedAmount:   cmd.InvestedAmount.String(),
		ContractRate:     cmd.Rate,
		ProjectedRate:    result.ProjectedRate,
		EffectiveRate:    result.EffectiveRate,
		ProjectionMethod: method,
		GrossAmount:      result.GrossAmount.StringFixed(2),
		NetAmount:        result.NetAmount.StringFixed(2),
		TaxAmount:        result.TaxAmount.StringFixed(2),
		IsTaxFree:        cmd.IsTaxFree,
		BusinessDays:     result.BusinessDays,
		CalendarDays:     result.CalendarDays,
		OccurredOn:       time.Now().UTC(),
	}

	if err := s.eventPublisher.Publish(ctx, domain.InvestmentSimulatedEventType, cmd.Index, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish InvestmentSimulatedEvent", "index", cmd.Index, "error", err)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrCurveData):
		return "curve_data"
	case errors.Is(err, domain.ErrCurveNotFound):
		return "curve_not_found"
	default:
		return "error"
	}
}
