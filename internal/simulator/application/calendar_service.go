package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
)

// CalendarService 工作日日历，节假日来自仓储和配置的并集
type CalendarService struct {
	holidayRepo domain.HolidayRepository
	configured  []time.Time
	now         func() time.Time
	maxHorizon  int
	logger      *slog.Logger
}

// CalendarOption 日历选项
type CalendarOption func(*CalendarService)

// WithClock 替换当前时间来源
func WithClock(now func() time.Time) CalendarOption {
	return func(s *CalendarService) {
		s.now = now
	}
}

// WithHolidays 追加配置的节假日
func WithHolidays(days ...time.Time) CalendarOption {
	return func(s *CalendarService) {
		s.configured = append(s.configured, days...)
	}
}

// WithMaxHorizon 到期日最多距今多少年，非正数忽略
func WithMaxHorizon(years int) CalendarOption {
	return func(s *CalendarService) {
		if years > 0 {
			s.maxHorizon = years
		}
	}
}

// NewCalendarService 创建日历服务，holidayRepo 可为空
func NewCalendarService(holidayRepo domain.HolidayRepository, logger *slog.Logger, opts ...CalendarOption) *CalendarService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CalendarService{
		holidayRepo: holidayRepo,
		now:         time.Now,
		maxHorizon:  domain.DefaultMaxHorizonYears,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CountBusinessDays 统计 [今天, 到期日) 的工作日与自然日
func (s *CalendarService) CountBusinessDays(ctx context.Context, maturityDate time.Time) (domain.BusinessDayCount, error) {
	today := domain.TruncateToDay(s.now())
	maturity := domain.TruncateToDay(maturityDate)
	if limit := today.AddDate(s.maxHorizon, 0, 0); maturity.After(limit) {
		return domain.BusinessDayCount{}, fmt.Errorf("%w: maturity date %s is beyond %s (%d years)",
			domain.ErrInvalidInput, maturity.Format(time.DateOnly), limit.Format(time.DateOnly), s.maxHorizon)
	}

	holidays := domain.NewHolidaySet(s.configured...)
	if s.holidayRepo != nil && !maturity.Before(today) {
		days, err := s.holidayRepo.ListHolidays(ctx, today, maturity)
		if err != nil {
			return domain.BusinessDayCount{}, fmt.Errorf("list holidays: %w", err)
		}
		for _, d := range days {
			holidays.Add(d)
		}
	}

	count, err := domain.CountBusinessDays(today, maturity, holidays)
	if err != nil {
		return domain.BusinessDayCount{}, err
	}

	s.logger.DebugContext(ctx, "business days counted",
		"maturity_date", maturity.Format(time.DateOnly),
		"business_days", count.BusinessDays,
		"calendar_days", count.CalendarDays,
	)
	return count, nil
}
