package llm

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// IsQuotaError reports whether err is a rate-limit or quota rejection.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := asAPIError(err); ok {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted")
}

// RetryDelay returns the retry hint carried by a Google RetryInfo detail,
// or zero when there is none.
func RetryDelay(err error) time.Duration {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0
	}
	for _, detail := range apiErr.Details {
		typ, _ := detail["@type"].(string)
		if !strings.HasSuffix(typ, "google.rpc.RetryInfo") {
			continue
		}
		raw, _ := detail["retryDelay"].(string)
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

func asAPIError(err error) (*genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr, true
	}
	return nil, false
}
