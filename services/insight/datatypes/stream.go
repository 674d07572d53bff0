// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// StreamEvent is one frame of an SSE analysis stream.
//
// # Description
//
// Events carry a hash chain for integrity: each event's Hash covers its
// content, and PrevHash links to the preceding event so a client can
// detect dropped or reordered frames.
//
// Event types:
//   - "status": progress message (Message)
//   - "token": partial narrative text (Content)
//   - "result": the final validated analysis (Result)
//   - "error": terminal failure (Error)
//   - "done": stream end marker
type StreamEvent struct {
	// Id is a UUID assigned at write time.
	Id string `json:"id"`

	// Type is the event type.
	Type string `json:"type"`

	// CreatedAt is a Unix timestamp in milliseconds.
	CreatedAt int64 `json:"created_at"`

	// Content is partial narrative text (token events).
	Content string `json:"content,omitempty"`

	// Message is a progress message (status events).
	Message string `json:"message,omitempty"`

	// Error is a sanitized failure description (error events).
	Error string `json:"error,omitempty"`

	// Result is the final validated analysis (result events).
	Result *ValidatedAnalysisResult `json:"result,omitempty"`

	// Hash is the SHA-256 hash of this event's content.
	Hash string `json:"hash"`

	// PrevHash is the previous event's Hash, empty for the first event.
	PrevHash string `json:"prev_hash,omitempty"`
}
