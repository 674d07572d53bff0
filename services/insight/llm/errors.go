// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable indicates no inference backend passed its health probe.
// Not retried; the caller must start or configure a backend first.
var ErrUnavailable = errors.New("no inference backend available")

// TransportError wraps a network or HTTP-level generation failure.
//
// StatusCode is 0 for pure network errors (connection refused, timeout).
type TransportError struct {
	// Backend is the backend name that produced the failure.
	Backend string

	// StatusCode is the HTTP status, 0 when the request never completed.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transport failed with status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transport failed: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the failure class is worth another attempt:
// network errors, 5xx, and rate limiting. Other 4xx statuses indicate a
// request problem that a retry cannot fix.
func (e *TransportError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode >= 500 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests
}
