package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// messagePaths are tried in order to pull a human-readable message out of an
// error body. Convex, OpenAI, OpenRouter and Tavily each use one of these.
var messagePaths = []string{"errorMessage", "error.message", "message", "detail", "error"}

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(service string, status int, body []byte, header http.Header) *Error {
	msg := extractMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := errors.New(msg)

	var e *Error
	switch {
	case status == http.StatusUnauthorized:
		e = New(KindNotAuthenticated, service, cause)
	case status == http.StatusPaymentRequired:
		e = New(KindQuotaExceeded, service, cause)
	case status == http.StatusForbidden:
		if mentionsQuota(msg) {
			e = New(KindQuotaExceeded, service, cause)
		} else {
			e = New(KindNotAuthorized, service, cause)
		}
	case status == http.StatusNotFound:
		e = New(KindNotFound, service, cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e = New(KindInvalidInput, service, cause)
	case status == http.StatusTooManyRequests:
		if mentionsQuota(msg) {
			e = New(KindQuotaExceeded, service, cause)
		} else {
			e = New(KindRateLimited, service, cause)
			e.RetryAfter = parseRetryAfter(header, time.Now())
		}
	case status == http.StatusRequestTimeout || status >= 500:
		e = New(KindServerError, service, cause)
	default:
		e = New(KindUnknown, service, cause)
	}
	e.HTTPStatus = status
	return e
}

// FromTransport classifies an error returned by http.Client.Do.
func FromTransport(service string, err error) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if errors.Is(err, context.Canceled) {
		return New(KindUnknown, service, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindNetworkUnavailable, service, err)
	}
	// *url.Error satisfies net.Error, so every failed Do lands here.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return New(KindNetworkUnavailable, service, err)
	}
	return New(KindUnknown, service, err)
}

// Decode wraps a JSON decoding failure of a 2xx body.
func Decode(service string, err error) *Error {
	return New(KindDataCorrupted, service, fmt.Errorf("failed to decode response: %w", err))
}

// InvalidResponse reports a structurally valid body that does not carry what
// the caller needs.
func InvalidResponse(service, msg string) *Error {
	return New(KindInvalidResponse, service, errors.New(msg))
}

// InvalidInput reports a request rejected before it reaches the network.
func InvalidInput(service, msg string) *Error {
	return New(KindInvalidInput, service, errors.New(msg))
}

func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(truncate(string(body), 512))
	}
	for _, path := range messagePaths {
		r := gjson.GetBytes(body, path)
		if r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

func mentionsQuota(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "insufficient credits") ||
		strings.Contains(lower, "insufficient_quota")
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(header http.Header, now time.Time) time.Duration {
	if header == nil {
		return 0
	}
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
