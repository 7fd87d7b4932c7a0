package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateErrorFormatting(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(cause, ErrOutput, "failed to write output").
		WithContext("path", "out.srt").
		WithContext("batch", 2)

	assert.Equal(t, "[Output] failed to write output | context: batch=2, path=out.srt | cause: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("run: %w", err)
	assert.True(t, IsErrorType(wrapped, ErrOutput))
	assert.False(t, IsErrorType(wrapped, ErrInput))
	assert.False(t, IsErrorType(cause, ErrOutput))
}

func TestDefaultErrorHandler(t *testing.T) {
	h := NewDefaultErrorHandler()
	assert.True(t, h.Handle(NewError(ErrQuota, "exhausted")))
	assert.False(t, h.Handle(errors.New("plain")))

	for _, typ := range []ErrorType{ErrInput, ErrConfig, ErrTransport, ErrQuota, ErrValidation, ErrOutput, ErrInterrupted, ErrAborted, ErrUnknown} {
		assert.NotEmpty(t, h.GetAdvice(NewError(typ, "x")), typ.String())
	}
	assert.Equal(t, "Interrupted", ErrInterrupted.String())
}
