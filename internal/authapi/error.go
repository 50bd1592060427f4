package authapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is the normalized failure shape produced on every failure path of the
// client. Status is zero when no response reached the server.
type Error struct {
	Detail   string `json:"detail"`
	Status   int    `json:"status,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Detail
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Endpoint != "" {
		msg = e.Endpoint + ": " + msg
	}
	return msg
}

// transportError wraps a network-level failure (no response at all) so callers
// still have exactly one failure shape to handle.
func transportError(endpoint string, err error) *Error {
	return &Error{
		Detail:   fmt.Sprintf("request failed: %v", err),
		Endpoint: endpoint,
	}
}

// responseError normalizes a non-2xx response. The server speaks
// {"detail": "..."}; anything else is replaced with a synthesized
// "HTTP <status>: <statusText>" detail.
func responseError(endpoint string, status int, body []byte) *Error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &Error{Detail: payload.Detail, Status: status, Endpoint: endpoint}
	}
	return &Error{
		Detail:   fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
		Status:   status,
		Endpoint: endpoint,
	}
}
