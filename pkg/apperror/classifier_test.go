package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  Kind
		retryable bool
		wantMsg   string
	}{
		{"unauthorized", 401, `{"errorMessage":"bad deploy key"}`, KindNotAuthenticated, false, "bad deploy key"},
		{"forbidden", 403, `{"error":{"message":"not allowed"}}`, KindNotAuthorized, false, "not allowed"},
		{"forbidden quota", 403, `{"message":"Monthly quota exhausted"}`, KindQuotaExceeded, false, "Monthly quota exhausted"},
		{"payment required", 402, `{"error":{"message":"Insufficient credits"}}`, KindQuotaExceeded, false, "Insufficient credits"},
		{"not found", 404, `{"errorMessage":"Could not find function orders:list"}`, KindNotFound, false, "Could not find function orders:list"},
		{"bad request", 400, `{"detail":"query is required"}`, KindInvalidInput, false, "query is required"},
		{"rate limited", 429, `{}`, KindRateLimited, true, "Too Many Requests"},
		{"openai quota", 429, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`, KindQuotaExceeded, false, "You exceeded your current quota"},
		{"server error", 500, `oops`, KindServerError, true, "oops"},
		{"bad gateway", 502, ``, KindServerError, true, "Bad Gateway"},
		{"teapot", 418, ``, KindUnknown, false, "I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromStatus("convex", tt.status, []byte(tt.body), nil)
			require.NotNil(t, e)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, tt.status, e.HTTPStatus)
			assert.Equal(t, tt.wantMsg, e.Message)
			assert.NotEmpty(t, e.UserMessage)
			assert.NotEmpty(t, e.Severity)
		})
	}
}

func TestFromStatus_RetryAfter(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "7")

	e := FromStatus("openrouter", http.StatusTooManyRequests, nil, header)
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.Equal(t, 7*time.Second, e.RetryAfter)
	assert.Equal(t, RecoveryRetry, e.Recovery)
}

func TestParseRetryAfter_HTTPDate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	header := http.Header{}
	header.Set("Retry-After", now.Add(30*time.Second).Format(http.TimeFormat))

	assert.Equal(t, 30*time.Second, parseRetryAfter(header, now))
	assert.Equal(t, time.Duration(0), parseRetryAfter(http.Header{}, now))
	assert.Equal(t, time.Duration(0), parseRetryAfter(nil, now))
}

func TestFromTransport(t *testing.T) {
	t.Run("network", func(t *testing.T) {
		err := &url.Error{Op: "Post", URL: "https://x", Err: errors.New("connection refused")}
		e := FromTransport("tavily", err)
		assert.Equal(t, KindNetworkUnavailable, e.Kind)
		assert.True(t, e.Retryable)
		assert.Equal(t, RecoveryCheckConnection, e.Recovery)
	})

	t.Run("canceled is not retryable", func(t *testing.T) {
		err := &url.Error{Op: "Post", URL: "https://x", Err: context.Canceled}
		e := FromTransport("tavily", err)
		assert.Equal(t, KindUnknown, e.Kind)
		assert.False(t, e.Retryable)
	})

	t.Run("already classified passes through", func(t *testing.T) {
		orig := New(KindQuotaExceeded, "openai", nil)
		assert.Same(t, orig, FromTransport("openai", fmt.Errorf("wrapped: %w", orig)))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, FromTransport("x", nil))
	})
}

func TestErrorsIsAndAs(t *testing.T) {
	e := FromStatus("convex", 503, []byte(`{"errorMessage":"overloaded"}`), nil)
	wrapped := fmt.Errorf("fetch orders: %w", e)

	assert.True(t, errors.Is(wrapped, ErrServerError))
	assert.False(t, errors.Is(wrapped, ErrRateLimited))
	assert.True(t, IsRetryable(wrapped))

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, 503, got.HTTPStatus)
	assert.Equal(t, "convex: server_error (status 503): overloaded", got.Error())
}

func TestNotFound(t *testing.T) {
	e := NotFound("convex", "inquiry", "inq_123")
	assert.Equal(t, KindNotFound, e.Kind)
	assert.Equal(t, "inquiry", e.Entity)
	assert.Equal(t, "The inquiry could not be found.", e.UserMessage)
	assert.Contains(t, e.Error(), "inquiry not found: inq_123")
	assert.True(t, errors.Is(e, ErrNotFound))
}

func TestDecode(t *testing.T) {
	e := Decode("lancedb", errors.New("unexpected EOF"))
	assert.Equal(t, KindDataCorrupted, e.Kind)
	assert.Equal(t, SeverityCritical, e.Severity)
	assert.False(t, e.Retryable)
}
