// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import "fmt"

// MalformedResponseError indicates the model's output could not be
// parsed into a structured report. It is not retryable: the transport
// succeeded, the content is just unusable.
type MalformedResponseError struct {
	// Reason describes what made the response unusable.
	Reason string

	// Snippet is a short prefix of the raw response for diagnostics.
	Snippet string
}

func (e *MalformedResponseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("malformed model response: %s", e.Reason)
	}
	return fmt.Sprintf("malformed model response: %s (starts with %q)", e.Reason, e.Snippet)
}

// EmptyResponseError indicates the model returned no completion choices
// or an empty content string. Not retryable.
type EmptyResponseError struct {
	// Detail names where the emptiness was observed.
	Detail string
}

func (e *EmptyResponseError) Error() string {
	if e.Detail == "" {
		return "model returned an empty response"
	}
	return fmt.Sprintf("model returned an empty response: %s", e.Detail)
}

// snippet returns a short diagnostic prefix of raw text.
func snippet(raw string) string {
	const max = 48
	if len(raw) > max {
		return raw[:max]
	}
	return raw
}
