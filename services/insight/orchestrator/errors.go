// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/SensoryInsight/services/insight/llm"
	"github.com/AleutianAI/SensoryInsight/services/insight/parser"
)

// ErrNoData indicates an analysis request with no log records. Surfaced
// immediately, before any network activity.
var ErrNoData = errors.New("no log records to analyze")

// AttemptsError wraps the final transport failure with the number of
// attempts made before giving up.
type AttemptsError struct {
	// Attempts is the total number of transport attempts.
	Attempts int

	// Err is the last attempt's failure.
	Err error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *AttemptsError) Unwrap() error { return e.Err }

// isRetryable classifies an attempt failure for the retry policy.
// Transport failures are retryable per their status class; parse
// failures and backend unavailability are not.
func isRetryable(err error) bool {
	var transportErr *llm.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable()
	}

	var malformed *parser.MalformedResponseError
	var empty *parser.EmptyResponseError
	if errors.As(err, &malformed) || errors.As(err, &empty) {
		return false
	}
	if errors.Is(err, llm.ErrUnavailable) {
		return false
	}
	return false
}
