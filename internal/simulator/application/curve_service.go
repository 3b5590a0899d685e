package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/metrics"
)

// CurveService 曲线命令与查询服务
type CurveService struct {
	repo           domain.CurveRepository
	interpolator   domain.RateInterpolator
	eventPublisher domain.EventPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewCurveService 创建曲线服务
func NewCurveService(
	repo domain.CurveRepository,
	interpolator domain.RateInterpolator,
	eventPublisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CurveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CurveService{
		repo:           repo,
		interpolator:   interpolator,
		eventPublisher: eventPublisher,
		metrics:        m,
		logger:         logger,
	}
}

// CurveDTO 曲线 DTO
type CurveDTO struct {
	Index         string              `json:"index"`
	ReferenceDate string              `json:"reference_date"`
	Points        []domain.CurvePoint `json:"points"`
}

func toCurveDTO(curve *domain.Ettj) *CurveDTO {
	points := make([]domain.CurvePoint, len(curve.Points))
	copy(points, curve.Points)
	return &CurveDTO{
		Index:         curve.Index,
		ReferenceDate: curve.ReferenceDate.Format(time.DateOnly),
		Points:        points,
	}
}

// ImportCurve 校验并保存曲线快照，同一指数同一参考日重复导入会覆盖
func (s *CurveService) ImportCurve(ctx context.Context, cmd ImportCurveCommand) (*CurveDTO, error) {
	source := cmd.Source
	if source == "" {
		source = "unknown"
	}

	curve, err := domain.NewEttj(cmd.Index, cmd.ReferenceDate, cmd.Points)
	if err != nil {
		s.metrics.RecordCurveImport(source, "rejected")
		return nil, err
	}

	if err := s.repo.Save(ctx, curve); err != nil {
		s.metrics.RecordCurveImport(source, "error")
		return nil, fmt.Errorf("save curve %s: %w", curve.Index, err)
	}
	s.metrics.RecordCurveImport(source, "ok")

	s.logger.InfoContext(ctx, "curve imported",
		"index", curve.Index,
		"reference_date", curve.ReferenceDate.Format(time.DateOnly),
		"points", len(curve.Points),
		"source", source,
	)

	if s.eventPublisher != nil {
		event := domain.CurveImportedEvent{
			EventID:       uuid.NewString(),
			Index:         curve.Index,
			ReferenceDate: curve.ReferenceDate.Format(time.DateOnly),
			PointCount:    len(curve.Points),
			Source:        source,
			OccurredOn:    time.Now().UTC(),
		}
		if err := s.eventPublisher.Publish(ctx, domain.CurveImportedEventType, curve.Index, event); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish CurveImportedEvent", "index", curve.Index, "error", err)
		}
	}

	return toCurveDTO(curve), nil
}

// GetCurve 获取指数最新的曲线快照
func (s *CurveService) GetCurve(ctx context.Context, index string) (*CurveDTO, error) {
	if index == "" {
		return nil, fmt.Errorf("%w: index is required", domain.ErrInvalidInput)
	}
	curve, err := s.repo.GetLatest(ctx, index)
	if err != nil {
		return nil, err
	}
	if err := curve.Validate(); err != nil {
		return nil, err
	}
	return toCurveDTO(curve), nil
}

// ProjectRate 计算指数在目标工作日上的年化利率
func (s *CurveService) ProjectRate(ctx context.Context, q ProjectRateQuery) (*RateProjectionDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	curve, err := s.repo.GetCurve(ctx, q.Index, q.BusinessDays)
	if err != nil {
		return nil, err
	}

	rate, method, err := projectRate(curve, q.BusinessDays, s.interpolator)
	if err != nil {
		return nil, err
	}
	if method == ProjectionInterpolated {
		s.metrics.RecordInterpolation()
	}

	return &RateProjectionDTO{
		Index:         q.Index,
		BusinessDays:  q.BusinessDays,
		Rate:          rate,
		Method:        method,
		ReferenceDate: curve.ReferenceDate.Format(time.DateOnly),
	}, nil
}
