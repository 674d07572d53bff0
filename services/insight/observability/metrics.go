// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability holds the Prometheus metrics for the insight
// service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Analysis Requests
// =============================================================================

var (
	// AnalysisRequests counts analysis requests.
	// Labels: kind (regular, deep), outcome (success, error, cache_hit, dedup_join)
	AnalysisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "analysis",
		Name:      "requests_total",
		Help:      "Total analysis requests by kind and outcome",
	}, []string{"kind", "outcome"})

	// AnalysisDuration measures end-to-end analysis latency.
	// Labels: kind, backend
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insight",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Analysis request latency in seconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"kind", "backend"})

	// TransportAttempts counts individual backend generation attempts.
	// Labels: backend, model, status (success, error)
	TransportAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "analysis",
		Name:      "transport_attempts_total",
		Help:      "Total backend generation attempts",
	}, []string{"backend", "model", "status"})

	// Retries counts retry waits taken before a new attempt.
	// Labels: backend
	Retries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "analysis",
		Name:      "retries_total",
		Help:      "Total retries after retryable transport failures",
	}, []string{"backend"})

	// StreamFallbacks counts transparent streaming-to-blocking fallbacks.
	StreamFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "analysis",
		Name:      "stream_fallbacks_total",
		Help:      "Total falls back from streaming to non-streaming transport",
	})

	// ModelDowngrades counts deep analyses served by the default model
	// after the premium cascade was exhausted.
	ModelDowngrades = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "analysis",
		Name:      "model_downgrades_total",
		Help:      "Total deep analyses downgraded to the default model",
	})

	// ValidationVerdicts counts claim-validation verdicts.
	// Labels: verdict (trustworthy, untrustworthy)
	ValidationVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "validation",
		Name:      "verdicts_total",
		Help:      "Total validation verdicts by outcome",
	}, []string{"verdict"})

	// ClaimsChecked tracks the distribution of scored claims per analysis.
	ClaimsChecked = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "insight",
		Subsystem: "validation",
		Name:      "claims_per_analysis",
		Help:      "Distribution of matched claims per validated analysis",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	// CacheEntries tracks the current analysis cache size.
	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "insight",
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Current number of cached analysis results",
	})

	// ActiveStreams tracks currently open SSE analysis streams.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "insight",
		Subsystem: "http",
		Name:      "active_streams",
		Help:      "Number of SSE analysis streams currently open",
	})
)
