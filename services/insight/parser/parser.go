// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parser normalizes raw model output into a structured
// AnalysisResult.
//
// Models wrap JSON in markdown fences, emit wrong types inside arrays,
// and invent enum values. The parser strips fences, drops non-string
// recommendation entries, and normalizes unknown correlation strengths
// to "moderate" so downstream code never sees an out-of-range value.
// Metadata fields (date range, model, deep flag) are NOT read from the
// model's output; the orchestrator attaches them from the original
// request.
package parser

import (
	"encoding/json"
	"strings"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

// rawResult mirrors the model's expected JSON schema with loose types
// so malformed entries can be sanitized instead of failing the parse.
type rawResult struct {
	TriggerAnalysis       string           `json:"trigger_analysis"`
	StrategyEvaluation    string           `json:"strategy_evaluation"`
	InteroceptionPatterns string           `json:"interoception_patterns"`
	Summary               string           `json:"summary"`
	Correlations          []rawCorrelation `json:"correlations"`
	Recommendations       []any            `json:"recommendations"`
}

type rawCorrelation struct {
	Factor1      string `json:"factor1"`
	Factor2      string `json:"factor2"`
	Relationship string `json:"relationship"`
	Strength     string `json:"strength"`
	Description  string `json:"description"`
}

// Parse extracts a structured report from raw model output.
//
// # Description
//
// Strips an optional surrounding markdown code fence, parses the JSON,
// and sanitizes fields. Fails with *EmptyResponseError on empty input
// and *MalformedResponseError when the text is not valid JSON or lacks
// every narrative field.
//
// # Inputs
//
//   - raw: The model's completion text, fenced or bare.
//
// # Outputs
//
//   - *datatypes.AnalysisResult: Narrative fields only; metadata is the
//     caller's responsibility.
//   - error: *EmptyResponseError or *MalformedResponseError.
//
// Thread Safety: This function is safe for concurrent use.
func Parse(raw string) (*datatypes.AnalysisResult, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &EmptyResponseError{Detail: "empty content string"}
	}

	// Try a direct parse first; fall back to fence extraction.
	var parsed rawResult
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		payload := stripFence(trimmed)
		if err2 := json.Unmarshal([]byte(payload), &parsed); err2 != nil {
			return nil, &MalformedResponseError{
				Reason:  "invalid JSON: " + err.Error(),
				Snippet: snippet(trimmed),
			}
		}
	}

	result := &datatypes.AnalysisResult{
		TriggerAnalysis:       parsed.TriggerAnalysis,
		StrategyEvaluation:    parsed.StrategyEvaluation,
		InteroceptionPatterns: parsed.InteroceptionPatterns,
		Summary:               parsed.Summary,
	}

	if !result.HasNarrative() {
		return nil, &MalformedResponseError{
			Reason:  "response lacks all narrative fields",
			Snippet: snippet(trimmed),
		}
	}

	for _, c := range parsed.Correlations {
		result.Correlations = append(result.Correlations, datatypes.Correlation{
			Factor1:      c.Factor1,
			Factor2:      c.Factor2,
			Relationship: c.Relationship,
			Strength:     normalizeStrength(c.Strength),
			Description:  c.Description,
		})
	}

	// Keep only string entries; non-string entries are dropped silently.
	for _, entry := range parsed.Recommendations {
		if s, ok := entry.(string); ok {
			result.Recommendations = append(result.Recommendations, s)
		}
	}

	return result, nil
}

// stripFence removes a surrounding markdown code fence, with or without
// a language tag. Text without a fence is returned as-is; a fence with
// no closing marker keeps everything after the opener.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		// Some models prepend prose before the fenced JSON.
		if start := strings.Index(text, "```"); start != -1 {
			return stripFence(text[start:])
		}
		return text
	}

	body := text[3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		// Drop the language tag line ("json", "JSON", or empty).
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || strings.EqualFold(tag, "json") {
			body = body[nl+1:]
		}
	}
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// normalizeStrength maps any out-of-range strength value to moderate.
func normalizeStrength(s string) datatypes.CorrelationStrength {
	switch datatypes.CorrelationStrength(strings.ToLower(strings.TrimSpace(s))) {
	case datatypes.StrengthWeak:
		return datatypes.StrengthWeak
	case datatypes.StrengthStrong:
		return datatypes.StrengthStrong
	default:
		return datatypes.StrengthModerate
	}
}
