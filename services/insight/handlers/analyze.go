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
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
	"github.com/AleutianAI/SensoryInsight/services/insight/llm"
	"github.com/AleutianAI/SensoryInsight/services/insight/orchestrator"
	"github.com/AleutianAI/SensoryInsight/services/insight/parser"
)

var tracer = otel.Tracer("insight.handlers")

// analyzeFunc is the shape shared by Analyze and AnalyzeDeep.
type analyzeFunc = func(context.Context, []datatypes.LogRecord, []datatypes.CrisisRecord, datatypes.AnalysisOptions) (*datatypes.AnalysisResult, error)

// HandleAnalyze runs a regular analysis and returns the validated result.
func HandleAnalyze(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return analyzeHandler(orch, "HandleAnalyze", orch.Analyze)
}

// HandleAnalyzeDeep runs a premium-tier analysis with cascade fallback.
func HandleAnalyzeDeep(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return analyzeHandler(orch, "HandleAnalyzeDeep", orch.AnalyzeDeep)
}

func analyzeHandler(orch *orchestrator.Orchestrator, spanName string, analyze analyzeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), spanName)
		defer span.End()

		var req AnalyzeRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("failed to parse the analyze request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := analyze(ctx, req.Logs, req.Crises, req.options())
		if err != nil {
			writeAnalysisError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, orch.CreateValidatedResult(result, req.Logs, req.Crises))
	}
}

// writeAnalysisError maps pipeline failures onto HTTP statuses without
// leaking backend internals.
func writeAnalysisError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	slog.Error("analysis request failed", "error", err)

	status, msg := classifyError(err)
	c.JSON(status, gin.H{"error": msg})
}

// classifyError returns the HTTP status and sanitized message for a
// pipeline failure.
func classifyError(err error) (int, string) {
	var malformed *parser.MalformedResponseError
	var empty *parser.EmptyResponseError
	var attempts *orchestrator.AttemptsError

	switch {
	case errors.Is(err, orchestrator.ErrNoData):
		return http.StatusBadRequest, "no log records to analyze"
	case errors.Is(err, llm.ErrUnavailable):
		return http.StatusServiceUnavailable, "no inference backend available"
	case errors.As(err, &malformed), errors.As(err, &empty):
		return http.StatusBadGateway, "the model returned an unusable response"
	case errors.As(err, &attempts):
		return http.StatusBadGateway, "analysis failed after repeated attempts"
	default:
		return http.StatusInternalServerError, "analysis failed"
	}
}
