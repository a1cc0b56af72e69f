package embeddings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/curator/internal/common"
)

func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 1.5,
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), common.GetLogger(), fastRetryConfig(5), func() error {
		calls++
		if calls < 3 {
			return Retryable(fmt.Errorf("temporarily unavailable"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_FatalErrorFailsImmediately(t *testing.T) {
	calls := 0
	fatal := fmt.Errorf("invalid api key")
	err := WithRetry(context.Background(), common.GetLogger(), fastRetryConfig(5), func() error {
		calls++
		return fatal
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustsAttemptCap(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), common.GetLogger(), fastRetryConfig(5), func() error {
		calls++
		return fmt.Errorf("error 429: quota exceeded")
	})
	require.Error(t, err)
	assert.Equal(t, 5, calls)
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, common.GetLogger(), fastRetryConfig(5), func() error {
		return Retryable(fmt.Errorf("should not matter"))
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(errors.New("boom"))))
	assert.True(t, IsRetryable(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, IsRetryable(errors.New("RESOURCE_EXHAUSTED")))
	assert.True(t, IsRetryable(errors.New("quota exceeded for project")))
	assert.False(t, IsRetryable(errors.New("invalid request")))
	assert.False(t, IsRetryable(nil))
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: rate limited. Please retry in 45.38s., Status: RESOURCE_EXHAUSTED")
	assert.InDelta(t, 45.38, ExtractRetryDelay(err).Seconds(), 0.01)

	assert.Zero(t, ExtractRetryDelay(errors.New("no delay here")))
}

func TestCalculateBackoff_MultiplierAndCap(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    10 * time.Second,
		MaxBackoff:        90 * time.Second,
		BackoffMultiplier: 1.5,
	}

	assert.Equal(t, 10*time.Second, config.CalculateBackoff(0, 0))
	assert.Equal(t, 15*time.Second, config.CalculateBackoff(1, 0))
	assert.Equal(t, 90*time.Second, config.CalculateBackoff(10, 0))
}
