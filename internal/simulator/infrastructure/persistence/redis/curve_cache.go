// Package redis 曲线读缓存，装饰关系型曲线仓储
package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/metrics"
)

const keyPrefix = "simulator:curve:"

// JSONCache 曲线缓存依赖的最小接口，*cache.RedisCache 实现了它
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedCurveRepository 读穿缓存。缓存故障时直接回源，不影响报价
type CachedCurveRepository struct {
	next    domain.CurveRepository
	cache   JSONCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ domain.CurveRepository = (*CachedCurveRepository)(nil)

// NewCachedCurveRepository 创建缓存装饰器
func NewCachedCurveRepository(next domain.CurveRepository, cache JSONCache, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *CachedCurveRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCurveRepository{next: next, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

func cacheKey(index string) string {
	return keyPrefix + index
}

// GetCurve 所有期限共用最新快照
func (r *CachedCurveRepository) GetCurve(ctx context.Context, index string, _ int) (*domain.Ettj, error) {
	return r.GetLatest(ctx, index)
}

// GetLatest 先查缓存，未命中回源并回填
func (r *CachedCurveRepository) GetLatest(ctx context.Context, index string) (*domain.Ettj, error) {
	key := cacheKey(index)

	var cached domain.Ettj
	found, err := r.cache.GetJSON(ctx, key, &cached)
	switch {
	case err != nil:
		r.metrics.RecordCurveCache("error")
		r.logger.WarnContext(ctx, "curve cache read failed", "index", index, "error", err)
	case found && cached.Validate() == nil:
		r.metrics.RecordCurveCache("hit")
		return &cached, nil
	default:
		r.metrics.RecordCurveCache("miss")
	}

	curve, err := r.next.GetLatest(ctx, index)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetJSON(ctx, key, curve, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "curve cache write failed", "index", index, "error", err)
	}
	return curve, nil
}

// Save 写库后失效缓存
func (r *CachedCurveRepository) Save(ctx context.Context, curve *domain.Ettj) error {
	if err := r.next.Save(ctx, curve); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, cacheKey(curve.Index)); err != nil {
		r.logger.WarnContext(ctx, "curve cache invalidation failed", "index", curve.Index, "error", err)
	}
	return nil
}
