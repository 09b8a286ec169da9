package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/testutil/observability/testdoubles"
)

func Test_RetryWithExponentialBackoff_SucceedsWithoutRetry(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	meta, err := RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, ErrorTypeNone, meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetriesTransientConflict(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.Join(ledger.ErrTransientConflict, errors.New("40001"))
		}
		return nil
	}

	// act
	meta, err := RetryWithExponentialBackoff(context.Background(), fn, WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, ErrorTypeNone, meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_FailsFastOnDomainErrors(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return ledger.ErrBookUnavailable
	}

	// act
	meta, err := RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, ledger.ErrBookUnavailable)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, ErrorTypeOther, meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_RetriesStorageUnavailableOnlyWhenEnabled(t *testing.T) {
	// arrange
	writeCalls, readCalls := 0, 0
	write := func(_ context.Context) error {
		writeCalls++
		return ledger.ErrStorageUnavailable
	}
	read := func(_ context.Context) error {
		readCalls++
		if readCalls < 2 {
			return ledger.ErrStorageUnavailable
		}
		return nil
	}

	// act
	_, writeErr := RetryWithExponentialBackoff(context.Background(), write, WithBaseDelay(time.Millisecond))
	_, readErr := RetryWithExponentialBackoff(context.Background(), read,
		WithBaseDelay(time.Millisecond),
		WithRetryOnStorageUnavailable(),
	)

	// assert
	assert.ErrorIs(t, writeErr, ledger.ErrStorageUnavailable)
	assert.Equal(t, 1, writeCalls, "the outcome of a write is unknown, it must not be repeated")
	assert.NoError(t, readErr)
	assert.Equal(t, 2, readCalls)
}

func Test_RetryWithExponentialBackoff_ReportsExhaustion(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	fn := func(_ context.Context) error { return ledger.ErrTransientConflict }

	// act
	meta, err := RetryWithExponentialBackoff(context.Background(), fn,
		WithMaxAttempts(3),
		WithBaseDelay(time.Millisecond),
		WithJitterFactor(0),
		WithMetrics(metrics, "BorrowBook"),
	)

	// assert
	assert.ErrorIs(t, err, ledger.ErrTransientConflict)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, ErrorTypeTransientConflict, meta.LastErrorType)
	assert.GreaterOrEqual(t, meta.TotalDelay, 3*time.Millisecond)

	assert.True(t, metrics.HasCounterRecordForMetric(RetriesMetric).
		WithLabel(LogAttrOperationType, "BorrowBook").
		WithLabel(LogAttrAttemptNumber, "2").
		WithLabel(LogAttrErrorType, ErrorTypeTransientConflict).
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(MaxRetriesReachedMetric).
		WithLabel(LogAttrFinalErrorType, ErrorTypeTransientConflict).
		Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(RetryDelayMetric).
		WithLabel(LogAttrAttemptNumber, "1").
		Assert())
}

func Test_RetryWithExponentialBackoff_StopsWhenContextIsCanceled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		cancel()
		return ledger.ErrTransientConflict
	}

	// act
	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ledger.ErrTransientConflict)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, ErrorTypeCanceled, meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	fn := func(_ context.Context) error { return nil }
	ctx := context.Background()

	_, err := RetryWithExponentialBackoff(ctx, fn, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(-time.Second))
	assert.ErrorIs(t, err, ErrNegativeBaseDelay)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithJitterFactor(1.5))
	assert.ErrorIs(t, err, ErrInvalidJitterFactor)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithMetrics(nil, "BorrowBook"))
	assert.ErrorIs(t, err, ErrNilMetricsCollector)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithMetrics(testdoubles.NewMetricsCollectorSpy(false), ""))
	assert.ErrorIs(t, err, ErrEmptyOperationType)
}
