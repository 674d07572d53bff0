// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package statistics computes ground-truth aggregate statistics from log
// and crisis records.
//
// The engine is deterministic and total: the same input records always
// produce the same ComputedStatistics, and no input causes an error. The
// claim validator compares model-asserted numbers against these values,
// so rounding here must match the precision used for claim comparison
// (integers for percentages and counts, one decimal for scale averages).
package statistics

import (
	"math"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

const (
	// HighArousalThreshold marks a log as high arousal (scale >= 7).
	HighArousalThreshold = 7

	// LowEnergyThreshold marks a log as low energy (scale <= 3).
	LowEnergyThreshold = 3
)

// StrategyStats holds per-strategy effectiveness numbers.
type StrategyStats struct {
	// SuccessRate is the percentage of uses with a "helped" outcome,
	// over uses that recorded any outcome (0-100, integer).
	SuccessRate int `json:"success_rate"`

	// UsageCount is how many logs applied the strategy.
	UsageCount int `json:"usage_count"`
}

// ComputedStatistics is the ground truth derived from one record set.
//
// It is recomputed on demand and never cached independently of the logs
// that produced it.
type ComputedStatistics struct {
	// TotalLogs is the number of log records.
	TotalLogs int `json:"total_logs"`

	// TotalCrises is the number of crisis records.
	TotalCrises int `json:"total_crises"`

	// AvgArousal, AvgValence, AvgEnergy are scale averages rounded to
	// one decimal.
	AvgArousal float64 `json:"avg_arousal"`
	AvgValence float64 `json:"avg_valence"`
	AvgEnergy  float64 `json:"avg_energy"`

	// HighArousalPercentage is the share of logs with arousal >= 7 (0-100).
	HighArousalPercentage int `json:"high_arousal_percentage"`

	// LowEnergyPercentage is the share of logs with energy <= 3 (0-100).
	LowEnergyPercentage int `json:"low_energy_percentage"`

	// AvgDurationMinutes is the average log duration, rounded to integer.
	AvgDurationMinutes int `json:"avg_duration_minutes"`

	// TriggerFrequency maps each trigger tag (sensory and context) to the
	// percentage of logs it appears in (0-100).
	TriggerFrequency map[string]int `json:"trigger_frequency"`

	// StrategyStats maps each strategy to its success rate and usage count.
	StrategyStats map[string]StrategyStats `json:"strategy_stats"`

	// SettingDistribution maps each setting to the percentage of logs
	// recorded there (0-100).
	SettingDistribution map[string]int `json:"setting_distribution"`

	// AvgCrisisDurationMinutes is the average crisis duration converted
	// from stored seconds to minutes before rounding. Zero without crises.
	AvgCrisisDurationMinutes int `json:"avg_crisis_duration_minutes"`

	// AvgRecoveryMinutes is the average recovery time over crises that
	// recorded one. Zero when none did.
	AvgRecoveryMinutes int `json:"avg_recovery_minutes"`
}

// Compute derives aggregate statistics from the given records.
//
// # Description
//
// Deterministic, total: empty logs yield a structure with all counts and
// averages zeroed and empty (non-nil) frequency maps. Crisis records are
// optional and only affect the crisis fields and TotalCrises.
//
// # Inputs
//
//   - logs: Log records. May be empty or nil.
//   - crises: Crisis records. May be empty or nil.
//
// # Outputs
//
//   - ComputedStatistics: Fully determined by the inputs.
//
// Thread Safety: This function is safe for concurrent use.
func Compute(logs []datatypes.LogRecord, crises []datatypes.CrisisRecord) ComputedStatistics {
	stats := ComputedStatistics{
		TotalLogs:           len(logs),
		TotalCrises:         len(crises),
		TriggerFrequency:    make(map[string]int),
		StrategyStats:       make(map[string]StrategyStats),
		SettingDistribution: make(map[string]int),
	}

	if len(logs) > 0 {
		computeLogAggregates(&stats, logs)
	}
	if len(crises) > 0 {
		computeCrisisAggregates(&stats, crises)
	}
	return stats
}

func computeLogAggregates(stats *ComputedStatistics, logs []datatypes.LogRecord) {
	var arousalSum, valenceSum, energySum, durationSum int
	var highArousal, lowEnergy int

	triggerCounts := make(map[string]int)
	settingCounts := make(map[string]int)
	strategyUses := make(map[string]int)
	strategyOutcomes := make(map[string]int) // uses with any recorded outcome
	strategyHelped := make(map[string]int)

	for _, l := range logs {
		arousalSum += l.Arousal
		valenceSum += l.Valence
		energySum += l.Energy
		durationSum += l.DurationMinutes

		if l.Arousal >= HighArousalThreshold {
			highArousal++
		}
		if l.Energy <= LowEnergyThreshold {
			lowEnergy++
		}

		// A trigger counts once per log even if tagged in both sets.
		seen := make(map[string]bool)
		for _, t := range l.SensoryTriggers {
			seen[t] = true
		}
		for _, t := range l.ContextTriggers {
			seen[t] = true
		}
		for t := range seen {
			triggerCounts[t]++
		}

		if l.Setting != "" {
			settingCounts[string(l.Setting)]++
		}

		for _, s := range l.Strategies {
			strategyUses[s]++
			if l.StrategyOutcome != "" {
				strategyOutcomes[s]++
				if l.StrategyOutcome == datatypes.OutcomeHelped {
					strategyHelped[s]++
				}
			}
		}
	}

	n := len(logs)
	stats.AvgArousal = roundScale(float64(arousalSum) / float64(n))
	stats.AvgValence = roundScale(float64(valenceSum) / float64(n))
	stats.AvgEnergy = roundScale(float64(energySum) / float64(n))
	stats.AvgDurationMinutes = roundPercent(float64(durationSum) / float64(n))
	stats.HighArousalPercentage = percentage(highArousal, n)
	stats.LowEnergyPercentage = percentage(lowEnergy, n)

	for t, c := range triggerCounts {
		stats.TriggerFrequency[t] = percentage(c, n)
	}
	for s, c := range settingCounts {
		stats.SettingDistribution[s] = percentage(c, n)
	}
	for s, uses := range strategyUses {
		entry := StrategyStats{UsageCount: uses}
		if outcomes := strategyOutcomes[s]; outcomes > 0 {
			entry.SuccessRate = percentage(strategyHelped[s], outcomes)
		}
		stats.StrategyStats[s] = entry
	}
}

func computeCrisisAggregates(stats *ComputedStatistics, crises []datatypes.CrisisRecord) {
	var durationSecSum, recoverySum, recoveryCount int
	for _, c := range crises {
		durationSecSum += c.DurationSeconds
		if c.RecoveryMinutes > 0 {
			recoverySum += c.RecoveryMinutes
			recoveryCount++
		}
	}

	// Seconds to minutes before rounding.
	avgSeconds := float64(durationSecSum) / float64(len(crises))
	stats.AvgCrisisDurationMinutes = roundPercent(avgSeconds / 60.0)

	if recoveryCount > 0 {
		stats.AvgRecoveryMinutes = roundPercent(float64(recoverySum) / float64(recoveryCount))
	}
}

// percentage returns round(100*part/total) as an integer.
func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return roundPercent(100 * float64(part) / float64(total))
}

// roundScale rounds to one decimal, the precision used for 0-10 scales.
func roundScale(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundPercent rounds to the nearest integer.
func roundPercent(v float64) int {
	return int(math.Round(v))
}
