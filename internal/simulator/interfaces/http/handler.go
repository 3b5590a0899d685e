// Package http 投资模拟服务的 REST 接口
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/application"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/logger"
	"github.com/wyfcoding/simulatorcalc/pkg/response"
	"github.com/wyfcoding/simulatorcalc/pkg/utils"
)

// Simulator 投资模拟用例
type Simulator interface {
	SimulateInvestment(ctx context.Context, cmd application.SimulateInvestmentCommand) (*domain.InvestmentResult, error)
}

// CurveManager 曲线查询与导入用例
type CurveManager interface {
	ImportCurve(ctx context.Context, cmd application.ImportCurveCommand) (*application.CurveDTO, error)
	GetCurve(ctx context.Context, index string) (*application.CurveDTO, error)
	ProjectRate(ctx context.Context, q application.ProjectRateQuery) (*application.RateProjectionDTO, error)
}

// Handler HTTP 处理器
type Handler struct {
	simulator    Simulator
	curves       CurveManager
	defaultIndex string
}

// NewHandler 创建 HTTP 处理器
func NewHandler(simulator Simulator, curves CurveManager) *Handler {
	return &Handler{simulator: simulator, curves: curves}
}

// WithDefaultIndex 请求未指定 index 时使用
func (h *Handler) WithDefaultIndex(index string) *Handler {
	h.defaultIndex = strings.TrimSpace(index)
	return h
}

// RegisterRoutes 注册路由，adminAuth 保护曲线写接口，为空时不鉴权
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, adminAuth gin.HandlerFunc) {
	router.POST("/simulations", h.SimulateInvestment)

	curves := router.Group("/curves")
	{
		curves.GET("/:index", h.GetCurve)
		curves.GET("/:index/rate", h.ProjectRate)

		put := []gin.HandlerFunc{h.ImportCurve}
		if adminAuth != nil {
			put = append([]gin.HandlerFunc{adminAuth}, put...)
		}
		curves.PUT("/:index", put...)
	}
}

// SimulateRequest 投资模拟请求，invested_amount 可为数字或字符串
type SimulateRequest struct {
	Index          string          `json:"index"`
	MaturityDate   string          `json:"maturity_date" binding:"required"`
	InvestedAmount decimal.Decimal `json:"invested_amount"`
	Rate           float64         `json:"rate"`
	IsTaxFree      bool            `json:"is_tax_free"`
}

// SimulateResponse 金额保留两位小数
type SimulateResponse struct {
	Index         string  `json:"index"`
	MaturityDate  string  `json:"maturity_date"`
	Principal     string  `json:"principal"`
	GrossAmount   string  `json:"gross_amount"`
	NetAmount     string  `json:"net_amount"`
	GrossIncome   string  `json:"gross_income"`
	TaxAmount     string  `json:"tax_amount"`
	TaxRate       float64 `json:"tax_rate"`
	ProjectedRate float64 `json:"projected_rate"`
	EffectiveRate float64 `json:"effective_rate"`
	BusinessDays  int     `json:"business_days"`
	CalendarDays  int     `json:"calendar_days"`
}

// SimulateInvestment POST /simulations
func (h *Handler) SimulateInvestment(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	maturity, err := parseDate(req.MaturityDate)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "maturity_date must be YYYY-MM-DD", nil)
		return
	}

	index := strings.TrimSpace(req.Index)
	if index == "" {
		index = h.defaultIndex
	}
	if index == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "index is required", nil)
		return
	}

	cmd := application.SimulateInvestmentCommand{
		Index:          index,
		MaturityDate:   maturity,
		InvestedAmount: req.InvestedAmount,
		Rate:           req.Rate,
		IsTaxFree:      req.IsTaxFree,
	}

	result, err := h.simulator.SimulateInvestment(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "simulate investment", err)
		return
	}

	response.Success(c, SimulateResponse{
		Index:         cmd.Index,
		MaturityDate:  maturity.Format(time.DateOnly),
		Principal:     result.Principal.StringFixed(2),
		GrossAmount:   result.GrossAmount.StringFixed(2),
		NetAmount:     result.NetAmount.StringFixed(2),
		GrossIncome:   result.GrossIncome().StringFixed(2),
		TaxAmount:     result.TaxAmount.StringFixed(2),
		TaxRate:       result.TaxRate,
		ProjectedRate: result.ProjectedRate,
		EffectiveRate: result.EffectiveRate,
		BusinessDays:  result.BusinessDays,
		CalendarDays:  result.CalendarDays,
	})
}

// GetCurve GET /curves/:index
func (h *Handler) GetCurve(c *gin.Context) {
	curve, err := h.curves.GetCurve(c.Request.Context(), indexParam(c))
	if err != nil {
		h.fail(c, "get curve", err)
		return
	}
	response.Success(c, curve)
}

// ProjectRate GET /curves/:index/rate?business_days=N
func (h *Handler) ProjectRate(c *gin.Context) {
	bd, err := strconv.Atoi(c.Query("business_days"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "business_days must be an integer", nil)
		return
	}

	projection, err := h.curves.ProjectRate(c.Request.Context(), application.ProjectRateQuery{
		Index:        indexParam(c),
		BusinessDays: bd,
	})
	if err != nil {
		h.fail(c, "project rate", err)
		return
	}
	response.Success(c, projection)
}

// ImportCurveRequest 曲线快照
type ImportCurveRequest struct {
	ReferenceDate string              `json:"reference_date" binding:"required"`
	Points        []domain.CurvePoint `json:"points" binding:"required"`
}

// ImportCurve PUT /curves/:index
func (h *Handler) ImportCurve(c *gin.Context) {
	var req ImportCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	refDate, err := parseDate(req.ReferenceDate)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "reference_date must be YYYY-MM-DD", nil)
		return
	}

	curve, err := h.curves.ImportCurve(c.Request.Context(), application.ImportCurveCommand{
		Index:         indexParam(c),
		ReferenceDate: refDate,
		Points:        req.Points,
		Source:        "http",
	})
	if err != nil {
		h.fail(c, "import curve", err)
		return
	}
	response.Success(c, curve)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, ew := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "op", op, "error", err)
	} else {
		logger.Debug(c.Request.Context(), "request rejected", "op", op, "error", err)
	}
	response.Error(c, status, ew)
}

// classify 领域错误到 HTTP 状态码
func classify(err error) (int, *utils.ErrorWrapper) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, utils.NewErrorWrapper("INVALID_ARGUMENT", err.Error(), err)
	case errors.Is(err, domain.ErrCurveNotFound):
		return http.StatusNotFound, utils.NewErrorWrapper("CURVE_NOT_FOUND", err.Error(), err)
	case errors.Is(err, domain.ErrCurveData):
		return http.StatusUnprocessableEntity, utils.NewErrorWrapper("INVALID_CURVE", err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, utils.NewErrorWrapper("TIMEOUT", "request timed out", err)
	default:
		return http.StatusInternalServerError, utils.NewErrorWrapper("INTERNAL", "internal server error", err)
	}
}

func indexParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("index"))
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
}
