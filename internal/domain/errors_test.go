package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrNotFound_Error(t *testing.T) {
	err := &ErrNotFound{Entity: "order", ID: "IC-1001"}
	assert.Equal(t, "order not found with ID: IC-1001", err.Error())

	var target *ErrNotFound
	assert.True(t, errors.As(error(err), &target))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("message is required")
	assert.Equal(t, "validation error: message is required", err.Error())

	var ve ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "message is required", ve.Message)
}

func TestErrTurnInProgress(t *testing.T) {
	err := &ErrTurnInProgress{SessionID: "s1"}
	assert.Contains(t, err.Error(), "s1")
}
