package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/pkg/apperror"
	"github.com/Ironclad/ironclad/pkg/logger"
)

func serverFailure() *apperror.Error {
	return apperror.New(apperror.KindServerError, "convex", errors.New("502"))
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	assert.True(t, b.Allow())
	assert.True(t, b.RecordFailure(serverFailure()))
	assert.True(t, b.RecordFailure(serverFailure()))
	assert.True(t, b.Allow())

	b.RecordFailure(serverFailure())
	assert.False(t, b.Allow())

	stats := b.Stats()
	assert.True(t, stats.Open)
	assert.Equal(t, 3, stats.Failures)
	assert.Equal(t, 3, stats.Threshold)
	assert.Positive(t, stats.CooldownLeft)
	assert.NotEmpty(t, stats.LastError)
}

func TestBreaker_IgnoresCallerErrors(t *testing.T) {
	b := NewBreaker(1, time.Minute)

	assert.False(t, b.RecordFailure(apperror.New(apperror.KindNotFound, "convex", nil)))
	assert.False(t, b.RecordFailure(apperror.New(apperror.KindNotAuthenticated, "convex", nil)))
	assert.False(t, b.RecordFailure(apperror.New(apperror.KindRateLimited, "convex", nil)))
	assert.False(t, b.RecordFailure(nil))
	assert.True(t, b.Allow())
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := NewBreaker(2, time.Minute)
	b.RecordFailure(serverFailure())
	b.RecordSuccess()
	b.RecordFailure(serverFailure())

	assert.True(t, b.Allow())
	assert.Equal(t, 1, b.Stats().Failures)
}

func TestBreaker_ClosesAfterCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	b.RecordFailure(apperror.New(apperror.KindNetworkUnavailable, "lancedb", nil))
	assert.False(t, b.Allow())

	now = now.Add(61 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, 0, b.Stats().Failures)
}

func TestClient_BreakerShortCircuits(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New("tavily", Policy{MaxAttempts: 1, BreakerThreshold: 2, BreakerCooldown: time.Minute},
		logger.NewTestLogger(t))
	require.NotNil(t, client.Breaker())

	for i := 0; i < 2; i++ {
		_, err := client.Do(context.Background(), getRequest(server.URL))
		require.Error(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	_, err := client.Do(context.Background(), getRequest(server.URL))
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "open circuit skips the backend")

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindServerError, appErr.Kind)
	assert.False(t, appErr.Retryable)
	assert.Positive(t, appErr.RetryAfter)
}

func TestClient_BreakerDisabledByDefault(t *testing.T) {
	client := New("convex", Policy{MaxAttempts: 1}, logger.NewTestLogger(t))
	assert.Nil(t, client.Breaker())
}
