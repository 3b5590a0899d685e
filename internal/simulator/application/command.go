// Package application 投资模拟服务应用层
package application

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
)

// SimulateInvestmentCommand 投资模拟命令
type SimulateInvestmentCommand struct {
	Index          string
	MaturityDate   time.Time
	InvestedAmount decimal.Decimal
	Rate           float64 // 合同利率，相对基准的倍数
	IsTaxFree      bool
}

// Validate 校验命令
func (c SimulateInvestmentCommand) Validate() error {
	if strings.TrimSpace(c.Index) == "" {
		return fmt.Errorf("%w: index is required", domain.ErrInvalidInput)
	}
	if c.MaturityDate.IsZero() {
		return fmt.Errorf("%w: maturity date is required", domain.ErrInvalidInput)
	}
	if !c.InvestedAmount.IsPositive() {
		return fmt.Errorf("%w: invested amount must be positive, got %s", domain.ErrInvalidInput, c.InvestedAmount)
	}
	if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) || c.Rate <= 0 {
		return fmt.Errorf("%w: contract rate must be a positive number, got %v", domain.ErrInvalidInput, c.Rate)
	}
	return nil
}

// ImportCurveCommand 曲线导入命令
type ImportCurveCommand struct {
	Index         string
	ReferenceDate time.Time
	Points        []domain.CurvePoint
	Source        string // http 或 kafka
}

// ProjectRateQuery 利率查询
type ProjectRateQuery struct {
	Index        string
	BusinessDays int
}

// Validate 校验查询
func (q ProjectRateQuery) Validate() error {
	if strings.TrimSpace(q.Index) == "" {
		return fmt.Errorf("%w: index is required", domain.ErrInvalidInput)
	}
	if q.BusinessDays < 0 {
		return fmt.Errorf("%w: business days must not be negative, got %d", domain.ErrInvalidInput, q.BusinessDays)
	}
	return nil
}
