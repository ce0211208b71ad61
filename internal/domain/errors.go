package domain

import (
	"errors"
	"fmt"
)

// ErrAnalyticsNotConfigured is returned by reporting calls when no
// analytics database is configured.
var ErrAnalyticsNotConfigured = errors.New("analytics database is not configured")

type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// ErrTurnInProgress is returned when a second turn is started on a session
// while another is still running and the caller asked not to wait.
type ErrTurnInProgress struct {
	SessionID string
}

func (e *ErrTurnInProgress) Error() string {
	return fmt.Sprintf("a turn is already in progress for session %s", e.SessionID)
}
