// Package apierr decodes error responses from the upstream leads and CRM
// services into one error type the handlers can map back onto HTTP.
package apierr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx upstream response. Detail carries the user-facing
// message, already rewritten into friendlier guidance where we recognize it.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Detail)
}

// FromResponse reads a non-2xx body and builds an APIError. Upstreams put
// their message in a "detail" field; anything else falls back to a generic
// message so we never surface raw JSON to a user.
func FromResponse(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	detail := ""
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		detail = parsed.Detail
	}
	if detail == "" {
		detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	return &APIError{Status: resp.StatusCode, Detail: Friendly(detail)}
}

// Friendly rewrites known upstream phrasings into actionable guidance.
func Friendly(detail string) string {
	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "reconnect"):
		return "Your email connection has expired. Please reconnect your account and try again."
	case strings.Contains(detail, "No valid"):
		return "No valid email connection found. Please connect an email account first."
	case strings.Contains(lower, "permission"):
		return "Your account is missing a required permission. Please reconnect and grant access."
	}
	return detail
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == status
}
