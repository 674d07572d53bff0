// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package claims

import (
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

func makeLogs(arousals ...int) []datatypes.LogRecord {
	logs := make([]datatypes.LogRecord, len(arousals))
	for i, a := range arousals {
		logs[i] = datatypes.LogRecord{
			ID:        string(rune('a' + i)),
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Setting:   datatypes.SettingHome,
			Arousal:   a,
			Valence:   5,
			Energy:    5,
		}
	}
	return logs
}

func TestValidateAnalysis_AccurateClaim(t *testing.T) {
	logs := makeLogs(8, 8, 8, 8, 8, 8, 8, 8, 8, 8)
	result := &datatypes.AnalysisResult{
		Summary: "100% of logs showed high arousal during the period.",
	}

	v := NewValidator(DefaultTolerances(), nil)
	status := v.ValidateAnalysis(result, logs, nil)

	if !status.Valid {
		t.Errorf("expected valid verdict, warnings: %v", status.Warnings)
	}
	if status.TotalClaims != 1 || status.ValidClaims != 1 {
		t.Errorf("expected 1/1 claims, got %d/%d", status.ValidClaims, status.TotalClaims)
	}
	if len(status.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", status.Warnings)
	}
}

func TestValidateAnalysis_HallucinatedClaim(t *testing.T) {
	logs := makeLogs(8, 3) // actual high-arousal share: 50%
	result := &datatypes.AnalysisResult{
		Summary: "80% of logs showed high arousal.",
	}

	v := NewValidator(DefaultTolerances(), nil)
	status := v.ValidateAnalysis(result, logs, nil)

	if status.Valid {
		t.Error("expected invalid verdict: 0 of 1 claims passed")
	}
	if status.TotalClaims != 1 || status.ValidClaims != 0 {
		t.Errorf("expected 0/1 claims, got %d/%d", status.ValidClaims, status.TotalClaims)
	}

	// One summary warning plus one detail line: the 60% discrepancy
	// exceeds the 30% detail threshold.
	if len(status.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", status.Warnings)
	}
	if !strings.Contains(status.Warnings[1], "80") || !strings.Contains(status.Warnings[1], "50") {
		t.Errorf("detail warning should name claimed and actual values: %q", status.Warnings[1])
	}
}

func TestValidateAnalysis_NoClaims(t *testing.T) {
	logs := makeLogs(5, 6)
	result := &datatypes.AnalysisResult{
		Summary: "Patterns look steady with no notable spikes.",
	}

	v := NewValidator(DefaultTolerances(), nil)
	status := v.ValidateAnalysis(result, logs, nil)

	if !status.Valid {
		t.Error("expected vacuously valid verdict with zero claims")
	}
	if status.TotalClaims != 0 {
		t.Errorf("expected 0 claims, got %d", status.TotalClaims)
	}
}

func TestValidateAnalysis_UnmatchedClaimsDropped(t *testing.T) {
	logs := makeLogs(8, 8, 3, 3)
	result := &datatypes.AnalysisResult{
		// The first claim matches high-arousal; the second names no
		// known statistic and must not count as pass or fail.
		Summary: "High arousal in 50% of logs. Separately, caregiver impressions suggest " +
			"the subjective sense of wellbeing may have climbed by roughly 90 percent.",
	}

	v := NewValidator(DefaultTolerances(), nil)
	status := v.ValidateAnalysis(result, logs, nil)

	if status.TotalClaims != 1 {
		t.Errorf("expected only the matched claim to be scored, got %d", status.TotalClaims)
	}
	if !status.Valid {
		t.Errorf("expected valid verdict, warnings: %v", status.Warnings)
	}
}

func TestValidateAnalysis_SeventyPercentThreshold(t *testing.T) {
	// 10 logs, arousal 8 (high: 100%), energy 5, valence 5, duration 30.
	logs := make([]datatypes.LogRecord, 10)
	for i := range logs {
		logs[i] = datatypes.LogRecord{
			ID:              string(rune('a' + i)),
			Timestamp:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Setting:         datatypes.SettingHome,
			Arousal:         8,
			Valence:         5,
			Energy:          5,
			DurationMinutes: 30,
		}
	}

	// Three matchable claims: two accurate, one hallucinated. 2/3 is
	// below the 70% threshold.
	result := &datatypes.AnalysisResult{
		Summary: "High arousal in 100% of logs. Arousal averaged 8 overall. " +
			"Episodes lasted 90 minutes on average.",
	}

	v := NewValidator(DefaultTolerances(), nil)
	status := v.ValidateAnalysis(result, logs, nil)

	if status.TotalClaims != 3 {
		t.Fatalf("expected 3 scored claims, got %d: %+v", status.TotalClaims, status)
	}
	if status.ValidClaims != 2 {
		t.Errorf("expected 2 valid claims, got %d", status.ValidClaims)
	}
	if status.Valid {
		t.Error("expected invalid verdict: 2/3 is below the 70%% threshold")
	}
}

func TestGenerateCitation(t *testing.T) {
	t.Run("logs crises and day span", func(t *testing.T) {
		logs := make([]datatypes.LogRecord, 25)
		base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		for i := range logs {
			logs[i] = datatypes.LogRecord{
				ID:        string(rune('a' + i)),
				Timestamp: base.AddDate(0, 0, i%7),
				Arousal:   5, Valence: 5, Energy: 5,
			}
		}
		crises := []datatypes.CrisisRecord{
			{ID: "c1", Timestamp: base},
			{ID: "c2", Timestamp: base.AddDate(0, 0, 3)},
		}

		citation := GenerateCitation(logs, crises)
		for _, want := range []string{"25", "2", "7"} {
			if !strings.Contains(citation, want) {
				t.Errorf("citation %q should mention %q", citation, want)
			}
		}
	})

	t.Run("no crises single day", func(t *testing.T) {
		citation := GenerateCitation(makeLogs(5, 6, 7), nil)
		if strings.Contains(citation, "crisis") {
			t.Errorf("citation %q should not mention crises", citation)
		}
		if strings.Contains(citation, "days") {
			t.Errorf("citation %q should not state a single-day span", citation)
		}
		if !strings.Contains(citation, "3") {
			t.Errorf("citation %q should mention the log count", citation)
		}
	})

	t.Run("midnight crossing counts two days", func(t *testing.T) {
		logs := []datatypes.LogRecord{
			{ID: "a", Timestamp: time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC), Arousal: 5, Valence: 5, Energy: 5},
			{ID: "b", Timestamp: time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC), Arousal: 5, Valence: 5, Energy: 5},
		}
		citation := GenerateCitation(logs, nil)
		if !strings.Contains(citation, "over 2 days") {
			t.Errorf("citation %q should span two calendar days", citation)
		}
	})

	t.Run("singular forms", func(t *testing.T) {
		citation := GenerateCitation(makeLogs(5), []datatypes.CrisisRecord{{ID: "c1"}})
		if !strings.Contains(citation, "1 logged observation") {
			t.Errorf("expected singular observation, got %q", citation)
		}
		if !strings.Contains(citation, "1 crisis event") {
			t.Errorf("expected singular crisis, got %q", citation)
		}
	})
}

func TestCreateValidatedResult(t *testing.T) {
	logs := makeLogs(8, 3)
	result := &datatypes.AnalysisResult{
		Summary:   "80% of logs showed high arousal.",
		ModelUsed: "test-model",
	}

	v := NewValidator(DefaultTolerances(), nil)
	validated := v.CreateValidatedResult(result, logs, nil)

	if validated.Trustworthy != validated.Validation.Valid {
		t.Error("Trustworthy must mirror Validation.Valid")
	}
	if validated.Trustworthy {
		t.Error("expected untrustworthy result for hallucinated claim")
	}
	if validated.Citation == "" {
		t.Error("expected a citation")
	}
	if validated.ModelUsed != "test-model" {
		t.Error("embedded result fields must be preserved")
	}
}
