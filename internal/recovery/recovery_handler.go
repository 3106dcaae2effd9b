package recovery

import (
	"context"
	"fmt"
	"time"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
)

// RecoveryHandler retries read-modify-write operations that failed with a
// retryable error (a stale version). Everything else is returned at once.
type RecoveryHandler struct {
	retryConfig RetryConfig
	logger      Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// RetryConfig defines retry behavior for different error categories
type RetryConfig struct {
	MaxRetries map[ledgererrors.ErrorCategory]int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// Logger interface for recovery handler
type Logger interface {
	Warning(format string, args ...interface{})
	Info(format string, args ...interface{})
}

// RecoveryResult represents the decision taken for one failed attempt
type RecoveryResult struct {
	Retry   bool
	Delay   time.Duration
	Message string
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: map[ledgererrors.ErrorCategory]int{
			ledgererrors.ErrorCategoryConflict: 3,
		},
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   200 * time.Millisecond,
		Multiplier: 2,
	}
}

// NewRecoveryHandler creates a handler with the default retry policy. logger may be nil.
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return NewRecoveryHandlerWithConfig(logger, DefaultRetryConfig())
}

func NewRecoveryHandlerWithConfig(logger Logger, cfg RetryConfig) *RecoveryHandler {
	return &RecoveryHandler{
		retryConfig: cfg,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// HandleError decides whether attempt (0-based) of operation should be retried
func (rh *RecoveryHandler) HandleError(err error, component, operation string, attempt int) *RecoveryResult {
	lerr := ledgererrors.AsLedgerError(err)
	if lerr == nil || !lerr.IsRetryable() {
		return &RecoveryResult{Message: fmt.Sprintf("%s.%s failed with non-retryable error", component, operation)}
	}

	category := lerr.Category
	maxRetries := rh.retryConfig.MaxRetries[category]
	if attempt >= maxRetries {
		return &RecoveryResult{
			Message: fmt.Sprintf("maximum retry attempts (%d) exceeded for %s errors", maxRetries, category),
		}
	}

	return &RecoveryResult{
		Retry:   true,
		Delay:   rh.calculateDelay(attempt),
		Message: fmt.Sprintf("retrying %s.%s (attempt %d) after %s error", component, operation, attempt+2, category),
	}
}

func (rh *RecoveryHandler) calculateDelay(attempt int) time.Duration {
	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= rh.retryConfig.Multiplier
	}
	delay := time.Duration(float64(rh.retryConfig.BaseDelay) * multiplier)
	if delay > rh.retryConfig.MaxDelay {
		delay = rh.retryConfig.MaxDelay
	}
	return delay
}

// ExecuteWithRecovery runs fn until it succeeds, fails with a non-retryable
// error, runs out of retries, or ctx is done. fn must redo the whole
// load-modify-save cycle on every call.
func (rh *RecoveryHandler) ExecuteWithRecovery(
	ctx context.Context,
	component, operation string,
	fn func() error,
) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 0 && rh.logger != nil {
				rh.logger.Info("Operation %s.%s succeeded after %d attempts", component, operation, attempt+1)
			}
			return nil
		}

		result := rh.HandleError(err, component, operation, attempt)
		if !result.Retry {
			return err
		}

		if rh.logger != nil {
			rh.logger.Warning("%s", result.Message)
		}
		if err := rh.sleep(ctx, result.Delay); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
