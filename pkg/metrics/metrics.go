// Package metrics 提供 Prometheus 指标，覆盖 HTTP 请求、模拟结果、插值次数与曲线缓存命中
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/simulatorcalc/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 模拟次数，按指数与结果区分
	SimulationsTotal *prometheus.CounterVec
	// 模拟耗时
	SimulationDuration prometheus.Histogram
	// 插值次数
	InterpolationsTotal prometheus.Counter

	// 曲线缓存请求，result 为 hit/miss/error
	CurveCacheRequestsTotal *prometheus.CounterVec
	// 曲线导入次数
	CurveImportsTotal *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulator",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simulator",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulator",
			Subsystem: serviceName,
			Name:      "simulations_total",
			Help:      "Total investment simulations",
		}, []string{"index", "outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simulator",
			Subsystem: serviceName,
			Name:      "simulation_duration_seconds",
			Help:      "Investment simulation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		InterpolationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simulator",
			Subsystem: serviceName,
			Name:      "interpolations_total",
			Help:      "Total exponential interpolations",
		}),

		CurveCacheRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulator",
			Subsystem: serviceName,
			Name:      "curve_cache_requests_total",
			Help:      "Curve cache lookups by result",
		}, []string{"result"}),
		CurveImportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulator",
			Subsystem: serviceName,
			Name:      "curve_imports_total",
			Help:      "Curve snapshots imported by source and outcome",
		}, []string{"source", "outcome"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SimulationsTotal,
		m.SimulationDuration,
		m.InterpolationsTotal,
		m.CurveCacheRequestsTotal,
		m.CurveImportsTotal,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// NewServer 创建 Prometheus HTTP 服务器，由调用方负责启动与关闭
func NewServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ListenAndServe 启动指标服务器，正常关闭时返回 nil
func ListenAndServe(srv *http.Server) error {
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// 以下方法允许 nil 接收者，便于测试中不注入指标

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSimulation 记录一次模拟
func (m *Metrics) RecordSimulation(index, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SimulationsTotal.WithLabelValues(index, outcome).Inc()
	m.SimulationDuration.Observe(duration.Seconds())
}

// RecordInterpolation 记录一次插值
func (m *Metrics) RecordInterpolation() {
	if m == nil {
		return
	}
	m.InterpolationsTotal.Inc()
}

// RecordCurveCache 记录曲线缓存查询结果
func (m *Metrics) RecordCurveCache(result string) {
	if m == nil {
		return
	}
	m.CurveCacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordCurveImport 记录曲线导入
func (m *Metrics) RecordCurveImport(source, outcome string) {
	if m == nil {
		return
	}
	m.CurveImportsTotal.WithLabelValues(source, outcome).Inc()
}
