// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package statistics

import (
	"testing"
	"time"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

func makeLog(id string, arousal, valence, energy int) datatypes.LogRecord {
	return datatypes.LogRecord{
		ID:        id,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Setting:   datatypes.SettingHome,
		Arousal:   arousal,
		Valence:   valence,
		Energy:    energy,
	}
}

func TestCompute_EmptyLogs(t *testing.T) {
	stats := Compute(nil, nil)

	if stats.TotalLogs != 0 {
		t.Errorf("expected TotalLogs=0, got %d", stats.TotalLogs)
	}
	if stats.AvgArousal != 0 || stats.AvgValence != 0 || stats.AvgEnergy != 0 {
		t.Errorf("expected zero averages, got %v/%v/%v",
			stats.AvgArousal, stats.AvgValence, stats.AvgEnergy)
	}
	if stats.HighArousalPercentage != 0 || stats.LowEnergyPercentage != 0 {
		t.Error("expected zero percentages on empty input")
	}
	if stats.TriggerFrequency == nil || len(stats.TriggerFrequency) != 0 {
		t.Error("expected empty non-nil trigger frequency map")
	}
	if stats.StrategyStats == nil || len(stats.StrategyStats) != 0 {
		t.Error("expected empty non-nil strategy stats map")
	}
}

func TestCompute_AllHighArousal(t *testing.T) {
	logs := make([]datatypes.LogRecord, 10)
	for i := range logs {
		logs[i] = makeLog(string(rune('a'+i)), 8, 5, 5)
	}

	stats := Compute(logs, nil)

	if stats.HighArousalPercentage != 100 {
		t.Errorf("expected HighArousalPercentage=100, got %d", stats.HighArousalPercentage)
	}
	if stats.AvgArousal != 8.0 {
		t.Errorf("expected AvgArousal=8.0, got %v", stats.AvgArousal)
	}
}

func TestCompute_MixedScales(t *testing.T) {
	logs := []datatypes.LogRecord{
		makeLog("a", 8, 6, 2),
		makeLog("b", 3, 4, 7),
	}

	stats := Compute(logs, nil)

	if stats.HighArousalPercentage != 50 {
		t.Errorf("expected 50%% high arousal, got %d", stats.HighArousalPercentage)
	}
	if stats.LowEnergyPercentage != 50 {
		t.Errorf("expected 50%% low energy, got %d", stats.LowEnergyPercentage)
	}
	if stats.AvgArousal != 5.5 {
		t.Errorf("expected AvgArousal=5.5, got %v", stats.AvgArousal)
	}
	if stats.AvgValence != 5.0 {
		t.Errorf("expected AvgValence=5.0, got %v", stats.AvgValence)
	}
}

func TestCompute_ScaleRounding(t *testing.T) {
	// 7+7+8 = 22, avg 7.333... -> 7.3
	logs := []datatypes.LogRecord{
		makeLog("a", 7, 0, 0),
		makeLog("b", 7, 0, 0),
		makeLog("c", 8, 0, 0),
	}

	stats := Compute(logs, nil)

	if stats.AvgArousal != 7.3 {
		t.Errorf("expected AvgArousal=7.3, got %v", stats.AvgArousal)
	}
}

func TestCompute_TriggerFrequency(t *testing.T) {
	logs := []datatypes.LogRecord{
		{ID: "a", Timestamp: time.Now(), SensoryTriggers: []string{"loud noise"}},
		{ID: "b", Timestamp: time.Now(), SensoryTriggers: []string{"loud noise"}, ContextTriggers: []string{"transition"}},
		{ID: "c", Timestamp: time.Now(), ContextTriggers: []string{"transition"}},
		{ID: "d", Timestamp: time.Now()},
	}

	stats := Compute(logs, nil)

	if got := stats.TriggerFrequency["loud noise"]; got != 50 {
		t.Errorf("expected loud noise at 50%%, got %d", got)
	}
	if got := stats.TriggerFrequency["transition"]; got != 50 {
		t.Errorf("expected transition at 50%%, got %d", got)
	}
}

func TestCompute_TriggerCountedOncePerLog(t *testing.T) {
	// Same tag in both trigger sets must not double-count.
	logs := []datatypes.LogRecord{
		{ID: "a", Timestamp: time.Now(),
			SensoryTriggers: []string{"crowd"},
			ContextTriggers: []string{"crowd"}},
		{ID: "b", Timestamp: time.Now()},
	}

	stats := Compute(logs, nil)

	if got := stats.TriggerFrequency["crowd"]; got != 50 {
		t.Errorf("expected crowd at 50%%, got %d", got)
	}
}

func TestCompute_StrategySuccessRate(t *testing.T) {
	logs := []datatypes.LogRecord{
		{ID: "a", Timestamp: time.Now(), Strategies: []string{"deep pressure"}, StrategyOutcome: datatypes.OutcomeHelped},
		{ID: "b", Timestamp: time.Now(), Strategies: []string{"deep pressure"}, StrategyOutcome: datatypes.OutcomeHelped},
		{ID: "c", Timestamp: time.Now(), Strategies: []string{"deep pressure"}, StrategyOutcome: datatypes.OutcomeEscalated},
		{ID: "d", Timestamp: time.Now(), Strategies: []string{"deep pressure"}}, // no outcome recorded
	}

	stats := Compute(logs, nil)

	entry, ok := stats.StrategyStats["deep pressure"]
	if !ok {
		t.Fatal("expected deep pressure entry")
	}
	if entry.UsageCount != 4 {
		t.Errorf("expected usage count 4, got %d", entry.UsageCount)
	}
	// 2 helped out of 3 recorded outcomes -> 67%
	if entry.SuccessRate != 67 {
		t.Errorf("expected success rate 67, got %d", entry.SuccessRate)
	}
}

func TestCompute_SettingDistribution(t *testing.T) {
	logs := []datatypes.LogRecord{
		makeLog("a", 5, 5, 5),
		makeLog("b", 5, 5, 5),
		{ID: "c", Timestamp: time.Now(), Setting: datatypes.SettingSchool},
	}

	stats := Compute(logs, nil)

	if got := stats.SettingDistribution["home"]; got != 67 {
		t.Errorf("expected home at 67%%, got %d", got)
	}
	if got := stats.SettingDistribution["school"]; got != 33 {
		t.Errorf("expected school at 33%%, got %d", got)
	}
}

func TestCompute_CrisisAggregates(t *testing.T) {
	crises := []datatypes.CrisisRecord{
		{ID: "c1", Timestamp: time.Now(), DurationSeconds: 600, RecoveryMinutes: 20},
		{ID: "c2", Timestamp: time.Now(), DurationSeconds: 300},
	}

	stats := Compute(nil, crises)

	if stats.TotalCrises != 2 {
		t.Errorf("expected 2 crises, got %d", stats.TotalCrises)
	}
	// (600+300)/2 = 450s = 7.5min -> 8
	if stats.AvgCrisisDurationMinutes != 8 {
		t.Errorf("expected avg crisis duration 8 min, got %d", stats.AvgCrisisDurationMinutes)
	}
	// Only c1 recorded recovery.
	if stats.AvgRecoveryMinutes != 20 {
		t.Errorf("expected avg recovery 20 min, got %d", stats.AvgRecoveryMinutes)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	logs := []datatypes.LogRecord{
		{ID: "a", Timestamp: time.Now(), Arousal: 8, Energy: 2,
			SensoryTriggers: []string{"light", "noise"},
			Strategies:      []string{"breaks"}, StrategyOutcome: datatypes.OutcomeHelped},
		{ID: "b", Timestamp: time.Now(), Arousal: 4, Energy: 6,
			ContextTriggers: []string{"noise"}},
	}

	first := Compute(logs, nil)
	second := Compute(logs, nil)

	if first.AvgArousal != second.AvgArousal ||
		first.TriggerFrequency["noise"] != second.TriggerFrequency["noise"] ||
		first.StrategyStats["breaks"] != second.StrategyStats["breaks"] {
		t.Error("expected identical statistics for identical inputs")
	}
}
