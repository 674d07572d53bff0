// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

// SSEWriter writes Server-Sent Events to an HTTP response.
//
// # Description
//
// Abstracts the SSE wire format (event: type\ndata: json\n\n) so the
// streaming handler stays free of response mechanics. Each event is
// assigned a UUID, a millisecond timestamp, and a SHA-256 hash chained
// to the previous event for integrity verification.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; the streaming
// handler emits tokens and keepalives from different goroutines.
type SSEWriter interface {
	// WriteEvent writes one event, populating Id, CreatedAt, Hash, and
	// PrevHash, and flushes immediately.
	WriteEvent(event datatypes.StreamEvent) error

	// WriteStatus writes a progress message.
	WriteStatus(message string) error

	// WriteToken writes a partial-narrative token event.
	WriteToken(content string) error

	// WriteResult writes the final validated analysis.
	WriteResult(result *datatypes.ValidatedAnalysisResult) error

	// WriteError writes a sanitized failure event. The stream should be
	// closed afterwards.
	WriteError(errMsg string) error

	// WriteDone writes the stream-end marker.
	WriteDone() error

	// WriteKeepAlive sends an SSE comment to keep the connection alive
	// through load-balancer idle timeouts. Comments are not part of the
	// hash chain.
	WriteKeepAlive() error
}

// sseWriter implements SSEWriter over an http.ResponseWriter.
//
// Thread-safe via mutex; cannot be reused across requests.
type sseWriter struct {
	writer   http.ResponseWriter
	flusher  http.Flusher
	prevHash string
	mu       sync.Mutex
}

// NewSSEWriter wraps a ResponseWriter for SSE output.
//
// # Outputs
//
//   - SSEWriter: Ready to write events.
//   - error: Non-nil when the ResponseWriter does not support flushing.
func NewSSEWriter(w http.ResponseWriter) (SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}
	return &sseWriter{writer: w, flusher: flusher}, nil
}

func (w *sseWriter) WriteEvent(event datatypes.StreamEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	event.Id = uuid.New().String()
	event.CreatedAt = time.Now().UnixMilli()
	event.PrevHash = w.prevHash
	event.Hash = computeEventHash(event)
	w.prevHash = event.Hash

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// computeEventHash hashes all content fields. Called before the Hash
// field is set.
func computeEventHash(event datatypes.StreamEvent) string {
	resultJSON := ""
	if event.Result != nil {
		if data, err := json.Marshal(event.Result); err == nil {
			resultJSON = string(data)
		}
	}
	hashInput := fmt.Sprintf("%s|%s|%d|%s|%s|%s|%s|%s",
		event.Id,
		event.Type,
		event.CreatedAt,
		event.PrevHash,
		event.Content,
		event.Message,
		event.Error,
		resultJSON,
	)
	hash := sha256.Sum256([]byte(hashInput))
	return hex.EncodeToString(hash[:])
}

func (w *sseWriter) WriteStatus(message string) error {
	return w.WriteEvent(datatypes.StreamEvent{Type: "status", Message: message})
}

func (w *sseWriter) WriteToken(content string) error {
	return w.WriteEvent(datatypes.StreamEvent{Type: "token", Content: content})
}

func (w *sseWriter) WriteResult(result *datatypes.ValidatedAnalysisResult) error {
	return w.WriteEvent(datatypes.StreamEvent{Type: "result", Result: result})
}

func (w *sseWriter) WriteError(errMsg string) error {
	return w.WriteEvent(datatypes.StreamEvent{Type: "error", Error: errMsg})
}

func (w *sseWriter) WriteDone() error {
	return w.WriteEvent(datatypes.StreamEvent{Type: "done"})
}

func (w *sseWriter) WriteKeepAlive() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintf(w.writer, ": ping\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// SetSSEHeaders configures response headers for SSE streaming. Must be
// called before the first write.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

var _ SSEWriter = (*sseWriter)(nil)
