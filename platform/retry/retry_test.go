package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadcall_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.Nop(), "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	err := Do(context.Background(), logger.Nop(), "database connection", 2, time.Millisecond, func() error {
		return errors.New("refused")
	})
	require.Error(t, err)
	assert.Equal(t, "database connection: refused", err.Error())
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, logger.Nop(), "op", 5, time.Millisecond, func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDoRejectsZeroAttempts(t *testing.T) {
	assert.Error(t, Do(context.Background(), logger.Nop(), "op", 0, time.Millisecond, func() error { return nil }))
}
