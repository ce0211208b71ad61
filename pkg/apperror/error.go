package apperror

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the flat taxonomy shared by every backend client.
type Kind string

const (
	KindNotAuthenticated   Kind = "not_authenticated"
	KindNotAuthorized      Kind = "not_authorized"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidResponse    Kind = "invalid_response"
	KindDataCorrupted      Kind = "data_corrupted"
	KindRateLimited        Kind = "rate_limited"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindServerError        Kind = "server_error"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindUnknown            Kind = "unknown"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Recovery is the action a client is expected to offer the user.
type Recovery string

const (
	RecoveryNone            Recovery = ""
	RecoveryRetry           Recovery = "retry"
	RecoveryCheckConnection Recovery = "check_connection"
	RecoverySignIn          Recovery = "sign_in"
	RecoveryContactSupport  Recovery = "contact_support"
	RecoveryCustom          Recovery = "custom"
)

// Error is a classified backend failure.
type Error struct {
	Kind        Kind
	Severity    Severity
	Retryable   bool
	Service     string // convex, openrouter, lancedb, openai, tavily
	HTTPStatus  int
	Entity      string // set for KindNotFound
	Message     string // raw server/transport message
	UserMessage string
	Recovery    Recovery
	Suggestion  string
	RetryAfter  time.Duration
	Original    error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Service != "" {
		prefix = e.Service + ": " + prefix
	}
	switch {
	case e.HTTPStatus != 0 && e.Message != "":
		return fmt.Sprintf("%s (status %d): %s", prefix, e.HTTPStatus, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	case e.Original != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Original)
	default:
		return prefix
	}
}

func (e *Error) Unwrap() error {
	return e.Original
}

// Is matches on Kind so callers can write errors.Is(err, apperror.ErrRateLimited).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Service == "" && t.HTTPStatus == 0 && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotAuthenticated   = &Error{Kind: KindNotAuthenticated}
	ErrNotAuthorized      = &Error{Kind: KindNotAuthorized}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrInvalidResponse    = &Error{Kind: KindInvalidResponse}
	ErrDataCorrupted      = &Error{Kind: KindDataCorrupted}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrQuotaExceeded      = &Error{Kind: KindQuotaExceeded}
	ErrServerError        = &Error{Kind: KindServerError}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

type profile struct {
	severity    Severity
	retryable   bool
	userMessage string
	recovery    Recovery
	suggestion  string
}

var profiles = map[Kind]profile{
	KindNotAuthenticated:   {SeverityError, false, "Your session has expired. Please sign in again.", RecoverySignIn, "Sign in again to continue."},
	KindNotAuthorized:      {SeverityError, false, "You don't have permission to perform this action.", RecoveryContactSupport, "Ask an administrator to grant access."},
	KindNotFound:           {SeverityWarning, false, "The requested item could not be found.", RecoveryNone, "It may have been deleted or moved."},
	KindInvalidInput:       {SeverityWarning, false, "Some of the information provided is invalid.", RecoveryCustom, "Check the request and try again."},
	KindInvalidResponse:    {SeverityError, false, "The server returned an unexpected response.", RecoveryContactSupport, "Contact support if this keeps happening."},
	KindDataCorrupted:      {SeverityCritical, false, "The data received could not be read.", RecoveryContactSupport, "Contact support if this keeps happening."},
	KindRateLimited:        {SeverityWarning, true, "Too many requests. Please wait a moment.", RecoveryRetry, "Wait a few seconds and try again."},
	KindQuotaExceeded:      {SeverityError, false, "The usage quota for this service has been reached.", RecoveryContactSupport, "Upgrade the plan or wait for the quota to reset."},
	KindServerError:        {SeverityError, true, "The server encountered an error.", RecoveryRetry, "Try again in a moment."},
	KindNetworkUnavailable: {SeverityWarning, true, "Unable to reach the server.", RecoveryCheckConnection, "Check your internet connection."},
	KindUnknown:            {SeverityError, false, "An unexpected error occurred.", RecoveryRetry, "Try again."},
}

// New builds an Error with the default severity, retryability and user-facing
// text for the kind.
func New(kind Kind, service string, cause error) *Error {
	p, ok := profiles[kind]
	if !ok {
		p = profiles[KindUnknown]
		kind = KindUnknown
	}
	e := &Error{
		Kind:        kind,
		Severity:    p.severity,
		Retryable:   p.retryable,
		Service:     service,
		UserMessage: p.userMessage,
		Recovery:    p.recovery,
		Suggestion:  p.suggestion,
		Original:    cause,
	}
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

// NotFound reports a missing entity by id.
func NotFound(service, entity, id string) *Error {
	e := New(KindNotFound, service, nil)
	e.Entity = entity
	e.Message = fmt.Sprintf("%s not found: %s", entity, id)
	e.UserMessage = fmt.Sprintf("The %s could not be found.", entity)
	return e
}

// As extracts an *Error from any wrapped chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is a classified error flagged retryable.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Retryable
}
