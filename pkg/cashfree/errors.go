package cashfree

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from Cashfree.
type APIError struct {
	Status  int
	Code    string
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("cashfree: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("cashfree: %d: %s", e.Status, e.Message)
}

// Temporary reports whether retrying the call later may succeed.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Code = payload.Code
		apiErr.Type = payload.Type
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
