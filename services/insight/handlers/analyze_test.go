// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/SensoryInsight/services/insight/claims"
	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
	"github.com/AleutianAI/SensoryInsight/services/insight/llm"
	"github.com/AleutianAI/SensoryInsight/services/insight/orchestrator"
)

const analysisBody = `{"summary": "Arousal stayed in the moderate band for most observations."}`

func newTestRouter(mock *llm.MockClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	selector := llm.NewSelector(mock, nil, false, nil)
	validator := claims.NewValidator(claims.DefaultTolerances(), nil)
	orch := orchestrator.New(selector, validator, orchestrator.Config{
		PremiumModels: []string{"premium-1"},
		DefaultModel:  "base-model",
		Retry: orchestrator.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			BackoffFactor:  1.0,
		},
	}, nil)

	router := gin.New()
	router.GET("/health", HealthCheck)
	v1 := router.Group("/v1")
	v1.POST("/analyze", HandleAnalyze(orch))
	v1.POST("/analyze/deep", HandleAnalyzeDeep(orch))
	v1.POST("/analyze/stream", HandleAnalyzeStream(orch))
	v1.POST("/validate", HandleValidate(orch))
	v1.GET("/status", HandleStatus(orch))
	v1.DELETE("/cache", HandleClearCache(orch))
	return router
}

func analyzeBody(t *testing.T, n int) []byte {
	t.Helper()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	req := AnalyzeRequest{}
	for i := 0; i < n; i++ {
		req.Logs = append(req.Logs, datatypes.LogRecord{
			ID:        "log-" + string(rune('a'+i)),
			Timestamp: base.AddDate(0, 0, i),
			Setting:   datatypes.SettingHome,
			Arousal:   5,
			Valence:   5,
			Energy:    5,
		})
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return data
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze(t *testing.T) {
	t.Run("returns validated result", func(t *testing.T) {
		mock := llm.NewMockClient().WithDefaultContent(analysisBody)
		router := newTestRouter(mock)

		rec := doRequest(router, http.MethodPost, "/v1/analyze", analyzeBody(t, 3))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var result datatypes.ValidatedAnalysisResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if result.Summary == "" {
			t.Error("summary is empty")
		}
		if result.ModelUsed != "base-model" {
			t.Errorf("ModelUsed = %q, want base-model", result.ModelUsed)
		}
		if result.Citation == "" {
			t.Error("citation is empty")
		}
		if !result.Trustworthy {
			t.Error("Trustworthy = false for claim-free narrative")
		}
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		router := newTestRouter(llm.NewMockClient())
		rec := doRequest(router, http.MethodPost, "/v1/analyze", []byte("{not json"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects empty log set", func(t *testing.T) {
		router := newTestRouter(llm.NewMockClient())
		rec := doRequest(router, http.MethodPost, "/v1/analyze", []byte(`{"logs": []}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("maps backend unavailability to 503", func(t *testing.T) {
		mock := llm.NewMockClient().WithProbeError(errors.New("connection refused"))
		router := newTestRouter(mock)
		rec := doRequest(router, http.MethodPost, "/v1/analyze", analyzeBody(t, 3))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("maps exhausted retries to 502", func(t *testing.T) {
		transportErr := &llm.TransportError{Backend: "mock", StatusCode: 503, Err: errors.New("overloaded")}
		mock := llm.NewMockClient().
			QueueError(transportErr).QueueError(transportErr).QueueError(transportErr)
		router := newTestRouter(mock)
		rec := doRequest(router, http.MethodPost, "/v1/analyze", analyzeBody(t, 3))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("maps unusable model output to 502", func(t *testing.T) {
		mock := llm.NewMockClient().WithDefaultContent("nothing structured here")
		router := newTestRouter(mock)
		rec := doRequest(router, http.MethodPost, "/v1/analyze", analyzeBody(t, 3))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})
}

func TestHandleAnalyzeDeep(t *testing.T) {
	mock := llm.NewMockClient().WithDefaultContent(analysisBody)
	router := newTestRouter(mock)

	rec := doRequest(router, http.MethodPost, "/v1/analyze/deep", analyzeBody(t, 3))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result datatypes.ValidatedAnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.IsDeepAnalysis {
		t.Error("IsDeepAnalysis = false, want true")
	}
	if result.ModelUsed != "premium-1" {
		t.Errorf("ModelUsed = %q, want premium-1", result.ModelUsed)
	}
}

func TestHandleAnalyzeStream(t *testing.T) {
	mock := llm.NewMockClient().WithDefaultContent(analysisBody).WithStreamFragments(3)
	router := newTestRouter(mock)

	rec := doRequest(router, http.MethodPost, "/v1/analyze/stream", analyzeBody(t, 3))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body := rec.Body.String()
	for _, event := range []string{"event: status", "event: token", "event: result", "event: done"} {
		if !strings.Contains(body, event) {
			t.Errorf("stream missing %q", event)
		}
	}
}

func TestHandleValidate(t *testing.T) {
	router := newTestRouter(llm.NewMockClient())

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	req := ValidateRequest{
		Analysis: datatypes.AnalysisResult{
			Summary: "High arousal appeared in 100% of the logged observations.",
		},
	}
	for i := 0; i < 4; i++ {
		req.Logs = append(req.Logs, datatypes.LogRecord{
			ID:        "log-" + string(rune('a'+i)),
			Timestamp: base.AddDate(0, 0, i),
			Setting:   datatypes.SettingHome,
			Arousal:   8,
			Valence:   5,
			Energy:    5,
		})
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	rec := doRequest(router, http.MethodPost, "/v1/validate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result datatypes.ValidatedAnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Validation.TotalClaims != 1 || result.Validation.ValidClaims != 1 {
		t.Errorf("validation = %d/%d, want 1/1",
			result.Validation.ValidClaims, result.Validation.TotalClaims)
	}
	if !result.Trustworthy {
		t.Error("Trustworthy = false, want true")
	}
}

func TestHandleStatus(t *testing.T) {
	mock := llm.NewMockClient()
	router := newTestRouter(mock)

	rec := doRequest(router, http.MethodGet, "/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var status datatypes.BackendStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(status.Backends) != 1 || !status.Backends[0].Available {
		t.Errorf("Backends = %+v, want one available backend", status.Backends)
	}
	if status.DefaultModel != "base-model" {
		t.Errorf("DefaultModel = %q, want base-model", status.DefaultModel)
	}
}

func TestHandleClearCache(t *testing.T) {
	router := newTestRouter(llm.NewMockClient())
	rec := doRequest(router, http.MethodDelete, "/v1/cache", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(llm.NewMockClient())
	rec := doRequest(router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
