package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := ErrNotFound.WithMessage("invitation not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))

	wrapped := fmt.Errorf("loading dashboard: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestWithInternalKeepsSentinelUntouched(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrUpload.WithInternal(cause)

	assert.Nil(t, ErrUpload.Internal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upload_error: Upload failed (disk full)", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
}

func TestNewValidationDetails(t *testing.T) {
	err := NewValidation("missing fields", map[string]string{"bride_name": "required"})

	require.NotNil(t, err.Details)
	assert.Equal(t, "required", err.Details["bride_name"])
	assert.Nil(t, ErrValidation.Details)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestAs(t *testing.T) {
	assert.Nil(t, As(errors.New("plain")))

	got := As(fmt.Errorf("ctx: %w", NewNotFound("invitation")))
	require.NotNil(t, got)
	assert.Equal(t, "invitation not found", got.Message)
}
