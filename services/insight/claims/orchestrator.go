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
	"fmt"
	"log/slog"
	"math"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
	"github.com/AleutianAI/SensoryInsight/services/insight/statistics"
)

// trustThreshold is the minimum share of matched claims that must pass
// for an analysis to be considered trustworthy.
const trustThreshold = 0.70

// detailWarningPercent is the discrepancy above which a failing claim
// gets its own warning line in addition to the summary warning.
const detailWarningPercent = 30.0

// Validator runs the full hallucination-validation pipeline: statistics
// computation, claim extraction, per-claim validation, and verdict
// aggregation.
//
// Thread Safety: Validator is immutable after construction and safe for
// concurrent use.
type Validator struct {
	tolerances Tolerances
	log        *slog.Logger
}

// NewValidator creates a Validator with the given tolerances. A nil
// logger falls back to slog.Default().
func NewValidator(tol Tolerances, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{tolerances: tol, log: log}
}

// ValidateAnalysis checks every numeric claim in the report's narrative
// text against statistics recomputed from the source records.
//
// # Description
//
// Claims that match no statistic are dropped from scoring, never counted
// as pass or fail. The verdict is valid when validClaims/totalClaims is
// at least 70%; with zero matched claims the verdict is vacuously valid.
// When any claim fails, the warnings include one summary line plus one
// detail line per failing claim whose discrepancy exceeds 30%.
func (v *Validator) ValidateAnalysis(result *datatypes.AnalysisResult, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord) datatypes.ValidationStatus {
	stats := statistics.Compute(logs, crises)
	extracted := ExtractClaims(result.NarrativeText())

	var checked []ClaimValidation
	for _, claim := range extracted {
		if cv := ValidateClaim(claim, stats, v.tolerances); cv != nil {
			checked = append(checked, *cv)
		}
	}

	status := datatypes.ValidationStatus{TotalClaims: len(checked)}
	var failed []ClaimValidation
	for _, cv := range checked {
		if cv.IsValid {
			status.ValidClaims++
		} else {
			failed = append(failed, cv)
		}
	}

	if status.TotalClaims == 0 {
		status.Valid = true
		return status
	}
	status.Valid = float64(status.ValidClaims)/float64(status.TotalClaims) >= trustThreshold

	if len(failed) > 0 {
		status.Warnings = append(status.Warnings, fmt.Sprintf(
			"%d of %d numeric claims could not be verified against the source data",
			len(failed), status.TotalClaims))
		for _, cv := range failed {
			if cv.DiscrepancyPercent <= detailWarningPercent {
				continue
			}
			status.Warnings = append(status.Warnings, fmt.Sprintf(
				"claim %q states %s but the data shows %s (%.0f%% off, statistic %s)",
				cv.Claim.Text, formatValue(cv.Claim.Value), formatValue(cv.ActualValue),
				cv.DiscrepancyPercent, cv.MatchedStatistic))
		}
	}

	v.log.Debug("analysis validated",
		"total_claims", status.TotalClaims,
		"valid_claims", status.ValidClaims,
		"valid", status.Valid)

	return status
}

// GenerateCitation produces a short human-readable description of the
// sample backing an analysis. Crisis count appears only when nonzero;
// the day span appears only when the logs cover more than one day.
func GenerateCitation(logs []datatypes.LogRecord, crises []datatypes.CrisisRecord) string {
	citation := fmt.Sprintf("Based on %d logged observations", len(logs))
	if len(logs) == 1 {
		citation = "Based on 1 logged observation"
	}
	if len(crises) == 1 {
		citation += " and 1 crisis event"
	} else if len(crises) > 1 {
		citation += fmt.Sprintf(" and %d crisis events", len(crises))
	}
	if _, _, days := datatypes.LogDateRange(logs); days > 1 {
		citation += fmt.Sprintf(" over %d days", days)
	}
	return citation + "."
}

// CreateValidatedResult composes a report with its validation verdict
// and citation.
func (v *Validator) CreateValidatedResult(result *datatypes.AnalysisResult, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord) *datatypes.ValidatedAnalysisResult {
	validation := v.ValidateAnalysis(result, logs, crises)
	return &datatypes.ValidatedAnalysisResult{
		AnalysisResult: *result,
		Validation:     validation,
		Citation:       GenerateCitation(logs, crises),
		Trustworthy:    validation.Valid,
	}
}

// formatValue renders a number without a trailing ".0" for integers.
func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}
