// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package claims

import (
	"math"
	"sort"
	"strings"

	"github.com/AleutianAI/SensoryInsight/services/insight/statistics"
)

// statAccessor fetches one statistic from a computed set. The second
// return is false when the statistic is not applicable (e.g. crisis
// averages without crisis records).
type statAccessor func(stats statistics.ComputedStatistics) (float64, bool)

// matchRule binds a keyword set to a statistic accessor for one category.
// All keywords must appear (case-insensitive) in the claim's context
// window for the rule to fire. Rules are evaluated in order; the first
// match wins, so more specific rules come first.
type matchRule struct {
	category Category
	keywords []string
	name     string
	accessor statAccessor
}

// matchRules is the static disambiguation table. Trigger, strategy, and
// setting names are matched dynamically after these rules because they
// depend on the record set (see matchDynamic).
var matchRules = []matchRule{
	// Percentages
	{CategoryPercentage, []string{"high", "arousal"}, "high_arousal_percentage",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.HighArousalPercentage), true
		}},
	{CategoryPercentage, []string{"elevated", "arousal"}, "high_arousal_percentage",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.HighArousalPercentage), true
		}},
	{CategoryPercentage, []string{"low", "energy"}, "low_energy_percentage",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.LowEnergyPercentage), true
		}},

	// Averages
	{CategoryAverage, []string{"arousal"}, "avg_arousal",
		func(s statistics.ComputedStatistics) (float64, bool) { return s.AvgArousal, true }},
	{CategoryAverage, []string{"valence"}, "avg_valence",
		func(s statistics.ComputedStatistics) (float64, bool) { return s.AvgValence, true }},
	{CategoryAverage, []string{"mood"}, "avg_valence",
		func(s statistics.ComputedStatistics) (float64, bool) { return s.AvgValence, true }},
	{CategoryAverage, []string{"energy"}, "avg_energy",
		func(s statistics.ComputedStatistics) (float64, bool) { return s.AvgEnergy, true }},

	// Counts
	{CategoryCount, []string{"crisis"}, "total_crises",
		func(s statistics.ComputedStatistics) (float64, bool) { return float64(s.TotalCrises), true }},
	{CategoryCount, []string{"crises"}, "total_crises",
		func(s statistics.ComputedStatistics) (float64, bool) { return float64(s.TotalCrises), true }},
	{CategoryCount, []string{"log"}, "total_logs",
		func(s statistics.ComputedStatistics) (float64, bool) { return float64(s.TotalLogs), true }},
	{CategoryCount, []string{"entries"}, "total_logs",
		func(s statistics.ComputedStatistics) (float64, bool) { return float64(s.TotalLogs), true }},
	{CategoryCount, []string{"observation"}, "total_logs",
		func(s statistics.ComputedStatistics) (float64, bool) { return float64(s.TotalLogs), true }},

	// Durations. Recovery before crisis: "recovery after a crisis"
	// mentions both, and recovery is the more specific referent.
	{CategoryDuration, []string{"recovery"}, "avg_recovery_minutes",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.AvgRecoveryMinutes), s.AvgRecoveryMinutes > 0
		}},
	{CategoryDuration, []string{"crisis"}, "avg_crisis_duration_minutes",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.AvgCrisisDurationMinutes), s.TotalCrises > 0
		}},
	{CategoryDuration, []string{"lasted"}, "avg_duration_minutes",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.AvgDurationMinutes), true
		}},
	{CategoryDuration, []string{"duration"}, "avg_duration_minutes",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.AvgDurationMinutes), true
		}},
	{CategoryDuration, []string{"episode"}, "avg_duration_minutes",
		func(s statistics.ComputedStatistics) (float64, bool) {
			return float64(s.AvgDurationMinutes), true
		}},
}

// ValidateClaim resolves a claim against the computed statistics.
//
// # Description
//
// Disambiguates which statistic the claim refers to by testing
// case-insensitive keyword membership in the claim's context window,
// then checks |claimed - actual| against the category tolerance.
//
// # Outputs
//
//   - *ClaimValidation: The resolved check, or nil when no statistic
//     could be confidently matched. Unmatched claims are not counted
//     as pass or fail.
//
// Thread Safety: This function is safe for concurrent use.
func ValidateClaim(claim ExtractedClaim, stats statistics.ComputedStatistics, tol Tolerances) *ClaimValidation {
	context := strings.ToLower(claim.Context)

	name, actual, ok := matchStatic(claim.Category, context, stats)
	if !ok {
		name, actual, ok = matchDynamic(claim.Category, context, stats)
	}
	if !ok {
		return nil
	}

	discrepancy := math.Abs(claim.Value - actual)

	var discrepancyPercent float64
	switch {
	case actual != 0:
		discrepancyPercent = 100 * discrepancy / actual
	case claim.Value != 0:
		discrepancyPercent = 100
	}

	return &ClaimValidation{
		Claim:              claim,
		ActualValue:        actual,
		Discrepancy:        discrepancy,
		DiscrepancyPercent: discrepancyPercent,
		IsValid:            discrepancy <= tol.ForCategory(claim.Category),
		MatchedStatistic:   name,
	}
}

// matchStatic walks the ordered rule table.
func matchStatic(category Category, context string, stats statistics.ComputedStatistics) (string, float64, bool) {
	for _, rule := range matchRules {
		if rule.category != category {
			continue
		}
		if !containsAll(context, rule.keywords) {
			continue
		}
		if actual, ok := rule.accessor(stats); ok {
			return rule.name, actual, true
		}
	}
	return "", 0, false
}

// matchDynamic tests record-derived names against the context window.
// A known trigger name resolves to its frequency percentage, a strategy
// name to its success rate, a setting name to its distribution share.
// All of these are percentages, so only percentage claims match.
func matchDynamic(category Category, context string, stats statistics.ComputedStatistics) (string, float64, bool) {
	if category != CategoryPercentage {
		return "", 0, false
	}

	for _, trigger := range sortedKeys(stats.TriggerFrequency) {
		if strings.Contains(context, strings.ToLower(trigger)) {
			return "trigger:" + trigger, float64(stats.TriggerFrequency[trigger]), true
		}
	}
	for _, strategy := range sortedKeys(stats.StrategyStats) {
		if strings.Contains(context, strings.ToLower(strategy)) {
			return "strategy:" + strategy, float64(stats.StrategyStats[strategy].SuccessRate), true
		}
	}
	for _, setting := range sortedKeys(stats.SettingDistribution) {
		if strings.Contains(context, strings.ToLower(setting)) {
			return "setting:" + setting, float64(stats.SettingDistribution[setting]), true
		}
	}
	return "", 0, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsAll(context string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(context, kw) {
			return false
		}
	}
	return true
}
