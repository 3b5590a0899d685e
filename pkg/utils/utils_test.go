package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wyfcoding/simulatorcalc/pkg/utils"
)

var errTransient = errors.New("transient")

func TestRetryWithBackoff_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := utils.RetryWithBackoff(context.Background(), 3, time.Millisecond, 5*time.Millisecond, nil, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := utils.RetryWithBackoff(context.Background(), 5, time.Millisecond, time.Millisecond,
		func(err error) bool { return !errors.Is(err, permanent) },
		func() error {
			calls++
			return permanent
		})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ReturnsLastError(t *testing.T) {
	calls := 0
	err := utils.RetryWithBackoff(context.Background(), 2, time.Millisecond, time.Millisecond, nil, func() error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := utils.RetryWithBackoff(ctx, 10, time.Hour, time.Hour, nil, func() error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestErrorWrapper(t *testing.T) {
	cause := errors.New("boom")
	ew := utils.NewErrorWrapper("INTERNAL", "simulation failed", cause).WithDetails(map[string]string{"index": "CDI"})

	assert.Equal(t, "[INTERNAL] simulation failed: boom", ew.Error())
	assert.ErrorIs(t, ew, cause)
	assert.NotNil(t, ew.Details)
}
