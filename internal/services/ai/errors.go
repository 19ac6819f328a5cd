package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/api/googleapi"
)

// ErrEmptyCompletion is returned when the provider answers without any text
var ErrEmptyCompletion = errors.New("no choices in response")

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	IsPermanent bool // true for quota/billing errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// CompletionError wraps any failure of the completion service (network, timeout, provider error)
type CompletionError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion service %s failed during %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// IsCompletionError reports whether err came from the completion service
func IsCompletionError(err error) bool {
	var ce *CompletionError
	return errors.As(err, &ce)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError extracts API error details from an SDK error
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		apiErr := &APIError{
			StatusCode: sdkErr.StatusCode,
			Message:    sdkErr.Message,
			Type:       sdkErr.Type,
			Code:       sdkErr.Code,
		}
		if apiErr.Message == "" {
			apiErr.Message = sdkErr.Error()
		}
		apiErr.IsPermanent = apiErr.Code == "insufficient_quota"
		return apiErr
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		apiErr := &APIError{
			StatusCode: gErr.Code,
			Message:    gErr.Message,
			Type:       "googleapi_error",
		}
		if len(gErr.Errors) > 0 {
			apiErr.Code = gErr.Errors[0].Reason
		}
		if apiErr.Message == "" {
			apiErr.Message = gErr.Error()
		}
		apiErr.IsPermanent = apiErr.StatusCode == http.StatusTooManyRequests && strings.Contains(strings.ToLower(gErr.Body), "billing")
		return apiErr
	}

	// Other SDKs embed the status code and a JSON body in the message
	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}
	apiErr := &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    errStr,
		Type:       "rate_limit_error",
	}
	if jsonStart := strings.Index(errStr, "{"); jsonStart != -1 {
		jsonStr := errStr[jsonStart:]
		if jsonEnd := strings.LastIndex(jsonStr, "}"); jsonEnd != -1 {
			var errorData struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}
			if json.Unmarshal([]byte(jsonStr[:jsonEnd+1]), &errorData) == nil {
				apiErr.Message = errorData.Message
				apiErr.Type = errorData.Type
				apiErr.Code = errorData.Code
				apiErr.IsPermanent = errorData.Code == "insufficient_quota"
			}
		}
	}
	return apiErr
}

// wrapCompletionError converts a provider failure into a *CompletionError
func wrapCompletionError(provider, operation string, err error) error {
	if apiErr := ExtractAPIError(err); apiErr != nil {
		err = fmt.Errorf("%w: %w", apiErr, err)
	}
	return &CompletionError{Provider: provider, Operation: operation, Err: err}
}
