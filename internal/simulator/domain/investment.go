package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// InvestmentParameters 单次模拟的输入
type InvestmentParameters struct {
	Principal           decimal.Decimal
	ProjectedAnnualRate float64
	DayCount            BusinessDayCount
	ContractRate        float64 // 基准的倍数，1.05 表示 105% CDI；固定利率时传 1
	IsTaxExempt         bool
}

// NewInvestmentParameters 构造函数
func NewInvestmentParameters(principal decimal.Decimal, projectedRate float64, dayCount BusinessDayCount, contractRate float64, isTaxExempt bool) InvestmentParameters {
	return InvestmentParameters{
		Principal:           principal,
		ProjectedAnnualRate: projectedRate,
		DayCount:            dayCount,
		ContractRate:        contractRate,
		IsTaxExempt:         isTaxExempt,
	}
}

// InvestmentResult 模拟结果
type InvestmentResult struct {
	Principal     decimal.Decimal `json:"principal"`
	GrossAmount   decimal.Decimal `json:"gross_amount"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TaxRate       float64         `json:"tax_rate"`
	ProjectedRate float64         `json:"projected_rate"`
	EffectiveRate float64         `json:"effective_rate"`
	BusinessDays  int             `json:"business_days"`
	CalendarDays  int             `json:"calendar_days"`
}

// GrossIncome 毛收益
func (r *InvestmentResult) GrossIncome() decimal.Decimal {
	return r.GrossAmount.Sub(r.Principal)
}

// InvestmentSimulator 按工作日复利计算投资回报并扣税。无状态
type InvestmentSimulator struct {
	base     float64
	taxTable *TaxTable
}

// NewInvestmentSimulator 构造函数，taxTable 为空时使用默认累退表
func NewInvestmentSimulator(base int, taxTable *TaxTable) *InvestmentSimulator {
	if base <= 0 {
		base = DefaultAnnualizationBase
	}
	if taxTable == nil {
		taxTable, _ = NewTaxTable(DefaultTaxBrackets())
	}
	return &InvestmentSimulator{base: float64(base), taxTable: taxTable}
}

// Simulate 计算毛额、税额与净额
func (s *InvestmentSimulator) Simulate(params InvestmentParameters) (*InvestmentResult, error) {
	if !params.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidInput, params.Principal)
	}
	days := params.DayCount
	if days.BusinessDays < 0 || days.CalendarDays < 0 {
		return nil, fmt.Errorf("%w: negative day counts (business=%d, calendar=%d)", ErrInvalidInput, days.BusinessDays, days.CalendarDays)
	}
	if !isFinite(params.ProjectedAnnualRate) || !isFinite(params.ContractRate) {
		return nil, fmt.Errorf("%w: rates must be finite", ErrInvalidInput)
	}

	effectiveRate := params.ProjectedAnnualRate * params.ContractRate
	if !isFinite(effectiveRate) {
		return nil, fmt.Errorf("%w: effective rate overflows (%v x %v)", ErrInvalidInput, params.ProjectedAnnualRate, params.ContractRate)
	}
	result := &InvestmentResult{
		Principal:     params.Principal,
		ProjectedRate: params.ProjectedAnnualRate,
		EffectiveRate: effectiveRate,
		BusinessDays:  days.BusinessDays,
		CalendarDays:  days.CalendarDays,
	}

	if days.BusinessDays == 0 {
		result.GrossAmount = params.Principal
		result.NetAmount = params.Principal
		result.TaxAmount = decimal.Zero
		return result, nil
	}

	if effectiveRate <= -1 {
		return nil, fmt.Errorf("%w: effective rate %v is at or below -100%%", ErrInvalidInput, effectiveRate)
	}
	factor := math.Pow(1+effectiveRate, float64(days.BusinessDays)/s.base)
	if !isFinite(factor) {
		return nil, fmt.Errorf("%w: compounding factor is not finite", ErrInvalidInput)
	}

	gross := params.Principal.Mul(decimal.NewFromFloat(factor))
	tax := decimal.Zero
	if !params.IsTaxExempt {
		result.TaxRate = s.taxTable.RateFor(days.CalendarDays)
		income := gross.Sub(params.Principal)
		// 亏损不征税
		if income.IsPositive() {
			tax = income.Mul(decimal.NewFromFloat(result.TaxRate))
		}
	}

	result.GrossAmount = gross
	result.TaxAmount = tax
	result.NetAmount = gross.Sub(tax)
	return result, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
