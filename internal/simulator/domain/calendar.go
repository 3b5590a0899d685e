package domain

import (
	"context"
	"fmt"
	"time"
)

// BusinessDayCount 从今天到到期日的工作日与自然日计数
type BusinessDayCount struct {
	BusinessDays int `json:"business_days"`
	CalendarDays int `json:"calendar_days"`
}

// NewBusinessDayCount 校验 0 <= businessDays <= calendarDays
func NewBusinessDayCount(businessDays, calendarDays int) (BusinessDayCount, error) {
	if businessDays < 0 || calendarDays < 0 {
		return BusinessDayCount{}, fmt.Errorf("%w: day counts must not be negative (business=%d, calendar=%d)", ErrInvalidInput, businessDays, calendarDays)
	}
	if calendarDays < businessDays {
		return BusinessDayCount{}, fmt.Errorf("%w: calendar days %d below business days %d", ErrInvalidInput, calendarDays, businessDays)
	}
	return BusinessDayCount{BusinessDays: businessDays, CalendarDays: calendarDays}, nil
}

// CalendarProvider 工作日日历
type CalendarProvider interface {
	CountBusinessDays(ctx context.Context, maturityDate time.Time) (BusinessDayCount, error)
}

// HolidayRepository 节假日仓储
type HolidayRepository interface {
	ListHolidays(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

// DefaultMaxHorizonYears 默认的最长模拟期限
const DefaultMaxHorizonYears = 50

// HolidaySet 以当日 UTC 零点为键的节假日集合
type HolidaySet map[time.Time]struct{}

// NewHolidaySet 构建节假日集合
func NewHolidaySet(days ...time.Time) HolidaySet {
	set := make(HolidaySet, len(days))
	for _, d := range days {
		set.Add(d)
	}
	return set
}

// Add 添加节假日
func (s HolidaySet) Add(day time.Time) {
	s[TruncateToDay(day)] = struct{}{}
}

// Contains 判断是否为节假日
func (s HolidaySet) Contains(day time.Time) bool {
	_, ok := s[TruncateToDay(day)]
	return ok
}

// IsBusinessDay 非周末且非节假日
func (s HolidaySet) IsBusinessDay(day time.Time) bool {
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return false
	}
	return !s.Contains(day)
}

// CountBusinessDays 统计 [from, to) 区间的工作日数以及自然日数。
// 两个日期都截断到日，to 早于 from 时返回 ErrInvalidInput。
func CountBusinessDays(from, to time.Time, holidays HolidaySet) (BusinessDayCount, error) {
	start := TruncateToDay(from)
	end := TruncateToDay(to)
	if end.Before(start) {
		return BusinessDayCount{}, fmt.Errorf("%w: maturity %s is before %s", ErrInvalidInput, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	businessDays := 0
	calendarDays := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		calendarDays++
		if holidays.IsBusinessDay(d) {
			businessDays++
		}
	}
	return NewBusinessDayCount(businessDays, calendarDays)
}

// TruncateToDay 取日期部分，按 UTC 零点表示
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
