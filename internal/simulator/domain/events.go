package domain

import (
	"context"
	"time"
)

const (
	InvestmentSimulatedEventType = "simulator.investment_simulated"
	CurveImportedEventType       = "simulator.curve_imported"
)

// InvestmentSimulatedEvent 投资模拟完成事件
type InvestmentSimulatedEvent struct {
	EventID          string    `json:"event_id"`
	Index            string    `json:"index"`
	MaturityDate     string    `json:"maturity_date"`
	InvestedAmount   string    `json:"invested_amount"`
	ContractRate     float64   `json:"contract_rate"`
	ProjectedRate    float64   `json:"projected_rate"`
	EffectiveRate    float64   `json:"effective_rate"`
	ProjectionMethod string    `json:"projection_method"`
	GrossAmount      string    `json:"gross_amount"`
	NetAmount        string    `json:"net_amount"`
	TaxAmount        string    `json:"tax_amount"`
	IsTaxFree        bool      `json:"is_tax_free"`
	BusinessDays     int       `json:"business_days"`
	CalendarDays     int       `json:"calendar_days"`
	OccurredOn       time.Time `json:"occurred_on"`
}

// CurveImportedEvent 曲线快照导入事件
type CurveImportedEvent struct {
	EventID       string    `json:"event_id"`
	Index         string    `json:"index"`
	ReferenceDate string    `json:"reference_date"`
	PointCount    int       `json:"point_count"`
	Source        string    `json:"source"`
	OccurredOn    time.Time `json:"occurred_on"`
}

// EventPublisher 领域事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, event any) error
}
