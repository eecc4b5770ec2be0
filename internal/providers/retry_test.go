package providers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE 1: ERROR CLASSIFICATION
// ============================================================================

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusUnprocessableEntity, false},
	}

	for _, tc := range cases {
		err := classifyStatus("satellite", tc.status, fmt.Errorf("status %d", tc.status))
		assert.Equal(t, tc.transient, IsTransient(err), "status %d", tc.status)
	}
}

func TestIsTransient_PlainErrorIsPermanent(t *testing.T) {
	assert.False(t, IsTransient(fmt.Errorf("malformed response")))
}

func TestIsTransient_DeadlineExceeded(t *testing.T) {
	assert.True(t, IsTransient(context.DeadlineExceeded))
}

// ============================================================================
// TEST SUITE 2: RETRY LOOP
// ============================================================================

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "satellite", 3, time.Millisecond, func(context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "satellite", 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return classifyStatus("satellite", http.StatusServiceUnavailable, fmt.Errorf("unavailable"))
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_DoesNotRetryPermanentFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "ocr", 3, time.Millisecond, func(context.Context) error {
		calls++
		return classifyStatus("ocr", http.StatusBadRequest, fmt.Errorf("bad geometry"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "4xx is permanent; a retry would waste the provider quota")
}

func TestWithRetry_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "satellite", 3, time.Millisecond, func(context.Context) error {
		calls++
		return classifyStatus("satellite", http.StatusInternalServerError, fmt.Errorf("boom"))
	})

	assert.Error(t, err)
	assert.Equal(t, 4, calls, "initial attempt plus three retries")
	assert.Contains(t, err.Error(), "exhausted")
}

func TestWithRetry_CancellationStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	start := time.Now()
	err := withRetry(ctx, "satellite", 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return classifyStatus("satellite", http.StatusInternalServerError, fmt.Errorf("boom"))
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second, "cancellation must interrupt the backoff sleep")
}
