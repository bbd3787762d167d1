// Package provider classifies HTTP failures from AI provider APIs into
// the domain's transient and permanent errors.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// maxBodyInError bounds how much of a response body is quoted in an error.
const maxBodyInError = 512

// StatusError maps a non-2xx response to an error.
// 429 wraps domain.ErrRateLimited and 5xx wraps domain.ErrProviderUnavailable;
// both are retried. Anything else is permanent.
func StatusError(name string, status int, body []byte) error {
	msg := errorMessage(body)
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w (status %d): %s", name, domain.ErrRateLimited, status, msg)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w (status %d): %s", name, domain.ErrProviderUnavailable, status, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: authentication failed (status %d): %s", name, status, msg)
	default:
		return fmt.Errorf("%s: request rejected (status %d): %s", name, status, msg)
	}
}

// TransportError wraps a failed round trip. Context errors pass through so
// callers can tell cancellation from an unreachable provider.
func TransportError(name string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %w", name, domain.ErrProviderUnavailable, err)
}

// errorMessage extracts {"error": {"message": ...}} or {"error": "..."}
// from a provider response, falling back to the raw body.
func errorMessage(body []byte) string {
	var structured struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &structured) == nil && len(structured.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(structured.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
		var s string
		if json.Unmarshal(structured.Error, &s) == nil && s != "" {
			return s
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBodyInError {
		msg = msg[:maxBodyInError] + "..."
	}
	return msg
}
