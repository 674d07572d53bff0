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

import "time"

// CorrelationStrength classifies how strongly two factors move together.
type CorrelationStrength string

const (
	StrengthWeak     CorrelationStrength = "weak"
	StrengthModerate CorrelationStrength = "moderate"
	StrengthStrong   CorrelationStrength = "strong"
)

// AnalysisKind partitions cache entries and dedup keys.
type AnalysisKind string

const (
	KindRegular AnalysisKind = "regular"
	KindDeep    AnalysisKind = "deep"
)

// Correlation is one factor-pair relationship reported by the model.
type Correlation struct {
	// Factor1 is the first factor name.
	Factor1 string `json:"factor1"`

	// Factor2 is the second factor name.
	Factor2 string `json:"factor2"`

	// Relationship describes the direction ("positive", "inverse", ...).
	Relationship string `json:"relationship"`

	// Strength is weak, moderate, or strong. Unknown values are
	// normalized to moderate at parse time.
	Strength CorrelationStrength `json:"strength"`

	// Description is the model's explanation of the relationship.
	Description string `json:"description"`
}

// AnalysisResult is the structured behavioral-pattern report.
//
// # Description
//
// The narrative fields and correlations come from the model; the metadata
// fields (GeneratedAt, DateRangeStart/End, ModelUsed, IsDeepAnalysis) are
// computed by the orchestrator from the original request and are never
// trusted from model output.
type AnalysisResult struct {
	// TriggerAnalysis is the narrative on trigger patterns.
	TriggerAnalysis string `json:"trigger_analysis"`

	// StrategyEvaluation is the narrative on strategy effectiveness.
	StrategyEvaluation string `json:"strategy_evaluation"`

	// InteroceptionPatterns is the narrative on body-signal patterns.
	InteroceptionPatterns string `json:"interoception_patterns"`

	// Summary is the overall narrative summary.
	Summary string `json:"summary"`

	// Correlations are factor-pair relationships the model identified.
	Correlations []Correlation `json:"correlations,omitempty"`

	// Recommendations are actionable suggestion strings.
	Recommendations []string `json:"recommendations,omitempty"`

	// GeneratedAt is when the analysis was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// DateRangeStart is the earliest input log timestamp.
	DateRangeStart time.Time `json:"date_range_start"`

	// DateRangeEnd is the latest input log timestamp.
	DateRangeEnd time.Time `json:"date_range_end"`

	// ModelUsed identifies the model that produced the narrative.
	ModelUsed string `json:"model_used"`

	// IsDeepAnalysis is true only when a premium-tier model actually
	// produced the narrative. A downgraded deep request reports false.
	IsDeepAnalysis bool `json:"is_deep_analysis"`
}

// HasNarrative reports whether at least one narrative field is populated.
func (r *AnalysisResult) HasNarrative() bool {
	return r.TriggerAnalysis != "" || r.StrategyEvaluation != "" ||
		r.InteroceptionPatterns != "" || r.Summary != ""
}

// NarrativeText concatenates all narrative and recommendation text.
//
// The validation pipeline scans this combined text for numeric claims.
func (r *AnalysisResult) NarrativeText() string {
	text := r.TriggerAnalysis + "\n" + r.StrategyEvaluation + "\n" +
		r.InteroceptionPatterns + "\n" + r.Summary
	for _, c := range r.Correlations {
		text += "\n" + c.Description
	}
	for _, rec := range r.Recommendations {
		text += "\n" + rec
	}
	return text
}

// AnalysisOptions carries per-request knobs for the orchestrator.
type AnalysisOptions struct {
	// ForceRefresh bypasses the cache read (the result is still written).
	ForceRefresh bool `json:"force_refresh"`

	// Profile is optional subject context for the prompt.
	Profile *Profile `json:"profile,omitempty"`
}

// ValidationStatus is the aggregate verdict over all extracted claims.
type ValidationStatus struct {
	// Valid is true when at least 70% of matched claims passed.
	Valid bool `json:"valid"`

	// TotalClaims is the number of claims that matched a statistic.
	TotalClaims int `json:"total_claims"`

	// ValidClaims is the number of matched claims within tolerance.
	ValidClaims int `json:"valid_claims"`

	// Warnings are human-readable failure descriptions.
	Warnings []string `json:"warnings,omitempty"`
}

// ValidatedAnalysisResult composes a report with its validation verdict
// and a data citation describing the sample backing it.
type ValidatedAnalysisResult struct {
	AnalysisResult

	// Validation is the claim-validation verdict.
	Validation ValidationStatus `json:"validation"`

	// Citation is a short human-readable sample-size note.
	Citation string `json:"citation"`

	// Trustworthy mirrors Validation.Valid for callers that only need
	// the boolean.
	Trustworthy bool `json:"trustworthy"`
}

// BackendProbe reports one backend's availability.
type BackendProbe struct {
	// Name is the backend name ("ollama", "openai").
	Name string `json:"name"`

	// Model is the backend's default model.
	Model string `json:"model"`

	// Available is the result of the last health probe.
	Available bool `json:"available"`

	// Detail carries the probe error message when unavailable.
	Detail string `json:"detail,omitempty"`
}

// BackendStatus is the configuration and readiness introspection result.
type BackendStatus struct {
	// Backends lists each configured backend with probe results.
	Backends []BackendProbe `json:"backends"`

	// PremiumModels is the deep-analysis fallback cascade, in order.
	PremiumModels []string `json:"premium_models"`

	// DefaultModel is the fast/free model used for regular analysis
	// and as the final fallback for deep analysis.
	DefaultModel string `json:"default_model"`

	// CacheEntries is the current analysis cache size.
	CacheEntries int `json:"cache_entries"`

	// CacheHitRate is the lifetime cache hit rate (0-1).
	CacheHitRate float64 `json:"cache_hit_rate"`

	// CacheTTL is the configured entry lifetime in time.Duration string
	// form (e.g. "30m0s").
	CacheTTL string `json:"cache_ttl"`
}
