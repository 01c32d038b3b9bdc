package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GenericFailure is surfaced when a failed response carries no detail.
const GenericFailure = "request failed"

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Detail is the backend's "detail" (or "error") field, verbatim when it
	// was a string. Empty when the body carried neither.
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message())
}

// Message returns the detail when present, otherwise GenericFailure.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return GenericFailure
}

func newAPIError(status int, body []byte) *APIError {
	var errResp struct {
		Detail json.RawMessage `json:"detail"`
		Error  json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if d := rawText(errResp.Detail); d != "" {
			return &APIError{StatusCode: status, Detail: d}
		}
		if d := rawText(errResp.Error); d != "" {
			return &APIError{StatusCode: status, Detail: d}
		}
		return &APIError{StatusCode: status}
	}
	return &APIError{StatusCode: status, Detail: strings.TrimSpace(string(body))}
}

// rawText returns a JSON string's value, or the compact JSON text of any
// other non-null value (validation errors arrive as arrays).
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// errorText renders the loosely typed error value of a tree response.
func errorText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// StatusMessage maps an error returned by a Backend call to the one-line
// operator-facing status used by the navigator and the CLI.
func StatusMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.As(err, &apiErr):
		return "Error: " + apiErr.Message()
	default:
		return "Error connecting to server"
	}
}
