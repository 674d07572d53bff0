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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/SensoryInsight/services/insight/orchestrator"
)

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleStatus reports backend availability and cache statistics.
// Backends are probed on every call; results are never cached.
func HandleStatus(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleStatus")
		defer span.End()

		c.JSON(http.StatusOK, orch.BackendStatus(ctx))
	}
}

// HandleClearCache drops all cached analyses.
func HandleClearCache(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracer.Start(c.Request.Context(), "HandleClearCache")
		defer span.End()

		orch.ClearCache()
		c.JSON(http.StatusOK, gin.H{"status": "cache cleared"})
	}
}
