package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"gocausal/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := ConfigInvalid("DISCOVERY_DEPTH must be an integer")
	wrapped := Wrap(base, "failed to load discovery configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.True(t, IsAppError(wrapped))
	assert.Contains(t, wrapped.Error(), "DISCOVERY_DEPTH")
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapClassifiesDomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{core.NewParameterError("alpha", "1 is outside [0, 1)"), CodeConfigInvalid, http.StatusBadRequest},
		{core.NewKnowledgeError("unknown variable"), CodeConfigInvalid, http.StatusBadRequest},
		{fmt.Errorf("%w: row 3", core.ErrMissingValue), CodeInvalidInput, http.StatusBadRequest},
		{core.NewNotFoundError("run", "abc"), CodeNotFound, http.StatusNotFound},
		{stderrors.New("disk on fire"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		wrapped := Wrap(tt.err, "discovery failed")
		assert.Equal(t, tt.code, GetCode(wrapped), tt.err.Error())
		assert.Equal(t, tt.status, HTTPStatus(wrapped), tt.err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
	assert.Nil(t, WithCode(CodeNotFound, nil))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("connection refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.Equal(t, "connection refused", err.Error())
}

func TestErrorMessageNotRepeated(t *testing.T) {
	cause := stderrors.New("connection refused")

	assert.Equal(t, "connection refused", (&AppError{Code: CodeDatabaseError, Cause: cause}).Error())
	assert.Equal(t, "saving run: connection refused", Wrap(cause, "saving run").Error())
	assert.Equal(t, "bad alpha", WithCode(CodeConfigInvalid, New(CodeInvalidInput, "bad alpha")).Error())

	err := WithCode(CodeDatabaseError, cause)
	assert.ErrorIs(t, err, cause)
}
