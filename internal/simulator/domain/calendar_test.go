package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCountBusinessDays_SkipsWeekends(t *testing.T) {
	// Monday 2026-10-19 to Monday 2026-10-26
	count, err := domain.CountBusinessDays(day(2026, 10, 19), day(2026, 10, 26), domain.NewHolidaySet())
	require.NoError(t, err)

	assert.Equal(t, 5, count.BusinessDays)
	assert.Equal(t, 7, count.CalendarDays)
}

func TestCountBusinessDays_SkipsHolidays(t *testing.T) {
	holidays := domain.NewHolidaySet(day(2026, 11, 2), day(2026, 11, 20))

	count, err := domain.CountBusinessDays(day(2026, 10, 30), day(2026, 11, 30), holidays)
	require.NoError(t, err)

	// 21 weekdays in [Oct 30, Nov 30) minus two holidays
	assert.Equal(t, 19, count.BusinessDays)
	assert.Equal(t, 31, count.CalendarDays)
}

func TestCountBusinessDays_IgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
	to := time.Date(2026, 10, 20, 0, 1, 0, 0, time.UTC)

	count, err := domain.CountBusinessDays(from, to, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count.BusinessDays)
	assert.Equal(t, 1, count.CalendarDays)
}

func TestCountBusinessDays_SameDayIsZero(t *testing.T) {
	count, err := domain.CountBusinessDays(day(2026, 10, 19), day(2026, 10, 19), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BusinessDayCount{}, count)
}

func TestCountBusinessDays_PastMaturity(t *testing.T) {
	_, err := domain.CountBusinessDays(day(2026, 10, 19), day(2026, 10, 1), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewBusinessDayCount_Invariants(t *testing.T) {
	_, err := domain.NewBusinessDayCount(10, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = domain.NewBusinessDayCount(-1, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	count, err := domain.NewBusinessDayCount(5, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, count.BusinessDays)
}

func TestHolidaySet_MatchesAnyTimeOfDay(t *testing.T) {
	holidays := domain.NewHolidaySet(time.Date(2026, 11, 20, 18, 45, 0, 0, time.UTC))

	assert.True(t, holidays.Contains(day(2026, 11, 20)))
	assert.True(t, holidays.Contains(time.Date(2026, 11, 20, 23, 59, 59, 0, time.UTC)))
	assert.False(t, holidays.Contains(day(2026, 11, 21)))
	assert.False(t, holidays.IsBusinessDay(day(2026, 11, 20)))
}

func TestTruncateToDay(t *testing.T) {
	sp := time.FixedZone("BRT", -3*3600)
	got := domain.TruncateToDay(time.Date(2026, 10, 18, 22, 30, 0, 0, sp))

	assert.Equal(t, day(2026, 10, 18), got)
}
