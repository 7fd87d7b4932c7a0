package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

type ErrorType int

const (
	ErrInput ErrorType = iota
	ErrConfig
	ErrTransport
	ErrQuota
	ErrValidation
	ErrOutput
	ErrInterrupted
	ErrAborted
	ErrUnknown
)

// TranslateError is the typed error returned by the orchestrator.
type TranslateError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *TranslateError {
	return &TranslateError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *TranslateError {
	return &TranslateError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *TranslateError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(ctxParts)
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *TranslateError) Unwrap() error {
	return e.Cause
}

func (e *TranslateError) WithContext(key string, value any) *TranslateError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrInput:
		return "Input"
	case ErrConfig:
		return "Config"
	case ErrTransport:
		return "Transport"
	case ErrQuota:
		return "Quota"
	case ErrValidation:
		return "Validation"
	case ErrOutput:
		return "Output"
	case ErrInterrupted:
		return "Interrupted"
	case ErrAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

type ErrorHandler interface {
	Handle(err error) bool
	GetAdvice(err *TranslateError) string
}

type DefaultErrorHandler struct{}

func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{}
}

// Handle logs err with advice. It returns false for untyped errors.
func (h *DefaultErrorHandler) Handle(err error) bool {
	var tErr *TranslateError
	if !errors.As(err, &tErr) {
		log.Error("Unknown Error: %v", err)
		return false
	}

	advice := h.GetAdvice(tErr)
	log.Error("Error Detail: %v\n advice: %s", err, advice)

	return true
}

// GetAdvice returns error handling advice
func (h *DefaultErrorHandler) GetAdvice(err *TranslateError) string {
	switch err.Type {
	case ErrInput:
		return "Please check that the input path points to a readable SRT file"
	case ErrConfig:
		return "Please check the API keys, target language and the configuration file or environment variables"
	case ErrTransport:
		return "Please check network connectivity and the Gemini API status"
	case ErrQuota:
		return "The API quota is exhausted; add a secondary key or wait before retrying"
	case ErrValidation:
		return "The model returned unusable output; try a smaller batch size or a different model"
	case ErrOutput:
		return "Please ensure the output directory exists and has write permissions"
	case ErrInterrupted:
		return "Progress was saved; run the same command again to resume"
	case ErrAborted:
		return "Partial output and progress were saved; fix the cause and run again to resume"
	default:
		return "Please review detailed error information and check relevant configuration and files"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var tErr *TranslateError
	if errors.As(err, &tErr) {
		return tErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *TranslateError {
	return NewErrorWithCause(errorType, message, err)
}
