package recovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
)

func newTestHandler() (*RecoveryHandler, *[]time.Duration) {
	var slept []time.Duration
	rh := NewRecoveryHandler(nil)
	rh.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return rh, &slept
}

func TestExecuteWithRecoveryRetriesConflicts(t *testing.T) {
	rh, slept := newTestHandler()

	calls := 0
	err := rh.ExecuteWithRecovery(context.Background(), "ledger", "record", func() error {
		calls++
		if calls < 3 {
			return ledgererrors.NewConflictError("file_storage", "save", "stale")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
}

func TestExecuteWithRecoveryGivesUpAfterMaxRetries(t *testing.T) {
	rh, _ := newTestHandler()

	calls := 0
	err := rh.ExecuteWithRecovery(context.Background(), "ledger", "record", func() error {
		calls++
		return fmt.Errorf("save: %w", ledgererrors.NewConflictError("file_storage", "save", "stale"))
	})

	require.Error(t, err)
	assert.True(t, ledgererrors.IsConflict(err))
	assert.Equal(t, 4, calls)
}

func TestExecuteWithRecoveryDoesNotRetryOtherErrors(t *testing.T) {
	tests := map[string]error{
		"plain":      errors.New("boom"),
		"validation": ledgererrors.NewValidationError("trade_manager", "close_trade", "bad pnl"),
		"risk limit": ledgererrors.NewRiskLimitError("risk_manager", "check", "daily loss"),
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			rh, slept := newTestHandler()
			calls := 0
			err := rh.ExecuteWithRecovery(context.Background(), "ledger", "record", func() error {
				calls++
				return want
			})
			assert.Same(t, want, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, *slept)
		})
	}
}

func TestExecuteWithRecoveryStopsOnCancelledContext(t *testing.T) {
	rh, _ := newTestHandler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rh.ExecuteWithRecovery(ctx, "ledger", "record", func() error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelayIsCapped(t *testing.T) {
	rh := NewRecoveryHandler(nil)
	assert.Equal(t, 10*time.Millisecond, rh.calculateDelay(0))
	assert.Equal(t, 80*time.Millisecond, rh.calculateDelay(3))
	assert.Equal(t, 200*time.Millisecond, rh.calculateDelay(10))
}
