package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_KeepsDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("move: %w", NewForbidden("access denied"))

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeForbidden, de.Code)
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	de := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	cause := errors.New("boom")
	de := ToDomainError(cause)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, de, cause)
}

func TestNewInvalidTransition_Details(t *testing.T) {
	err := NewInvalidTransition("etapa-lead", "etapa-entrega")
	assert.True(t, HasCode(err, CodeInvalidTransition))
	de := ToDomainError(err)
	assert.Equal(t, "etapa-lead", de.Details["from_stage_id"])
	assert.Equal(t, "etapa-entrega", de.Details["to_stage_id"])
}

func TestHasCode_PlainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("x"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}
