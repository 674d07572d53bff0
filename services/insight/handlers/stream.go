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
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/SensoryInsight/services/insight/observability"
	"github.com/AleutianAI/SensoryInsight/services/insight/orchestrator"
)

// heartbeatInterval keeps SSE connections alive through load-balancer
// idle timeouts (60s for ALB/Nginx defaults).
const heartbeatInterval = 15 * time.Second

// startKeepAlive emits SSE comment pings on the writer every interval
// until the returned stop function is called. stop blocks until the
// goroutine has exited, so the writer is never touched after it
// returns.
func startKeepAlive(writer SSEWriter, interval time.Duration) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := writer.WriteKeepAlive(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// HandleAnalyzeStream runs a regular analysis with SSE streaming.
//
// # Description
//
// Emits token events as narrative fragments arrive, status events for
// retries, a result event with the validated analysis, and a done
// marker. A transport failure mid-stream falls back to a blocking
// request inside the orchestrator; the client still receives the final
// result event.
func HandleAnalyzeStream(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleAnalyzeStream")
		defer span.End()

		var req AnalyzeRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		SetSSEHeaders(c.Writer)
		writer, err := NewSSEWriter(c.Writer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			return
		}

		observability.ActiveStreams.Inc()
		defer observability.ActiveStreams.Dec()

		// The keepalive goroutine must be joined before the handler
		// returns: gin recycles the ResponseWriter, and net/http forbids
		// writes after the handler exits.
		stopKeepAlive := startKeepAlive(writer, heartbeatInterval)
		defer stopKeepAlive()

		if err := writer.WriteStatus("analyzing observations"); err != nil {
			slog.Warn("client disconnected before analysis started", "error", err)
			return
		}

		cb := orchestrator.Callbacks{
			OnChunk: func(fragment string) {
				if err := writer.WriteToken(fragment); err != nil {
					slog.Debug("failed to write token event", "error", err)
				}
			},
			OnRetry: func(attempt, maxAttempts int, reason error) {
				msg := fmt.Sprintf("retrying analysis (attempt %d of %d)", attempt, maxAttempts)
				if err := writer.WriteStatus(msg); err != nil {
					slog.Debug("failed to write status event", "error", err)
				}
			},
		}

		result, err := orch.AnalyzeStream(ctx, req.Logs, req.Crises, req.options(), cb)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("streaming analysis failed", "error", err)
			_, msg := classifyError(err)
			if werr := writer.WriteError(msg); werr != nil {
				slog.Debug("failed to write error event", "error", werr)
			}
			return
		}

		validated := orch.CreateValidatedResult(result, req.Logs, req.Crises)
		if err := writer.WriteResult(validated); err != nil {
			slog.Warn("failed to write result event", "error", err)
			return
		}
		if err := writer.WriteDone(); err != nil {
			slog.Debug("failed to write done event", "error", err)
		}
	}
}
