package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/internal/http/middleware"
	"github.com/Ironclad/ironclad/pkg/apperror"
	"github.com/Ironclad/ironclad/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
	Recovery  string `json:"recovery,omitempty"`
}

const kindTurnInProgress = "turn_in_progress"

// classifyError maps an error to a status code and response body.
func classifyError(err error) (int, ErrorResponse, *apperror.Error) {
	var (
		validation domain.ValidationError
		notFound   *domain.ErrNotFound
		busy       *domain.ErrTurnInProgress
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorResponse{
			Error: validation.Message, Kind: string(apperror.KindInvalidInput), Recovery: string(apperror.RecoveryCustom),
		}, nil
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse{
			Error: err.Error(), Kind: string(apperror.KindNotFound),
		}, nil
	case errors.As(err, &busy):
		return http.StatusConflict, ErrorResponse{
			Error: "Another message is still being processed for this session.", Kind: kindTurnInProgress,
			Retryable: true, Recovery: string(apperror.RecoveryRetry),
		}, nil
	case errors.Is(err, domain.ErrAnalyticsNotConfigured):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(), Kind: string(apperror.KindServerError), Recovery: string(apperror.RecoveryContactSupport),
		}, nil
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{
			Error: "The request timed out.", Kind: string(apperror.KindNetworkUnavailable),
			Retryable: true, Recovery: string(apperror.RecoveryRetry),
		}, nil
	}

	if appErr, ok := apperror.As(err); ok {
		return statusForKind(appErr.Kind), ErrorResponse{
			Error:     firstNonEmpty(appErr.UserMessage, appErr.Error()),
			Kind:      string(appErr.Kind),
			Retryable: appErr.Retryable,
			Recovery:  string(appErr.Recovery),
		}, appErr
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: err.Error(), Kind: string(apperror.KindUnknown), Recovery: string(apperror.RecoveryRetry),
	}, nil
}

// statusForKind maps backend error kinds onto the status returned to the
// client. Upstream failures surface as 502/503.
func statusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotAuthenticated:
		return http.StatusUnauthorized
	case apperror.KindNotAuthorized:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInvalidInput:
		return http.StatusBadRequest
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests
	case apperror.KindQuotaExceeded, apperror.KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	case apperror.KindServerError, apperror.KindInvalidResponse, apperror.KindDataCorrupted:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs err and writes the error envelope. 5xx are logged as
// errors, the rest as warnings.
func writeError(w http.ResponseWriter, log logger.Logger, r *http.Request, err error) {
	status, body, appErr := classifyError(err)

	fields := map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
		"kind":   body.Kind,
		"error":  err.Error(),
	}
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		fields["user_id"] = user.ID
	}
	if status >= http.StatusInternalServerError {
		log.WithFields(fields).Error("Request failed")
	} else {
		log.WithFields(fields).Warn("Request rejected")
	}

	if appErr != nil && appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(appErr.RetryAfter.Seconds()))))
	}
	writeJSON(w, status, body)
}

// WriteJSONError writes an error envelope for failures detected in the
// handler itself.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	kind := apperror.KindInvalidInput
	if statusCode >= http.StatusInternalServerError {
		kind = apperror.KindServerError
	}
	writeJSON(w, statusCode, ErrorResponse{Error: message, Kind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("invalid request body")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
