// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package claims implements the hallucination-validation engine: it scans
// model-generated analysis text for numeric assertions, matches each one
// to a ground-truth statistic via keyword heuristics, and checks it within
// a category-specific tolerance.
//
// The pipeline is ExtractClaims -> ValidateClaim (per claim) ->
// ValidateAnalysis (aggregate verdict + warnings + citation). Claims that
// cannot be confidently matched to a statistic are dropped from scoring
// rather than counted as failures.
package claims

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category classifies a numeric assertion found in text.
type Category string

const (
	CategoryPercentage Category = "percentage"
	CategoryAverage    Category = "average"
	CategoryCount      Category = "count"
	CategoryDuration   Category = "duration"
)

// ExtractedClaim is one numeric assertion found in analysis text.
type ExtractedClaim struct {
	// Text is the matched substring (e.g. "73%").
	Text string `json:"text"`

	// Value is the parsed numeric value. Duration values are normalized
	// to minutes at extraction time.
	Value float64 `json:"value"`

	// Category is the claim category.
	Category Category `json:"category"`

	// Context is a fixed-width slice of surrounding text used to
	// disambiguate which statistic the claim refers to.
	Context string `json:"context"`
}

// ClaimValidation is one claim resolved against a statistic.
type ClaimValidation struct {
	// Claim is the extracted claim under test.
	Claim ExtractedClaim `json:"claim"`

	// ActualValue is the matched ground-truth statistic.
	ActualValue float64 `json:"actual_value"`

	// Discrepancy is |claimed - actual|.
	Discrepancy float64 `json:"discrepancy"`

	// DiscrepancyPercent is the discrepancy relative to the actual value
	// (100 when the actual value is zero and the claim is not).
	DiscrepancyPercent float64 `json:"discrepancy_percent"`

	// IsValid is true when the discrepancy is within the category
	// tolerance.
	IsValid bool `json:"is_valid"`

	// MatchedStatistic names the statistic the claim was checked against.
	MatchedStatistic string `json:"matched_statistic"`
}

// Tolerances holds the per-category comparison tolerances.
//
// The values are empirically chosen product configuration, not derived
// constants. They can be overridden from a YAML file via LoadTolerances.
type Tolerances struct {
	// Percentage is the allowed deviation in points for percentage claims.
	Percentage float64 `yaml:"percentage"`

	// Average is the allowed deviation for 0-10 scale averages.
	Average float64 `yaml:"average"`

	// Count is the allowed deviation for count claims.
	Count float64 `yaml:"count"`

	// DurationMinutes is the allowed deviation in minutes.
	DurationMinutes float64 `yaml:"duration_minutes"`
}

// DefaultTolerances returns the shipped tolerance table.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Percentage:      15,
		Average:         1.5,
		Count:           2,
		DurationMinutes: 10,
	}
}

// ForCategory returns the tolerance for the given claim category.
func (t Tolerances) ForCategory(c Category) float64 {
	switch c {
	case CategoryPercentage:
		return t.Percentage
	case CategoryAverage:
		return t.Average
	case CategoryCount:
		return t.Count
	case CategoryDuration:
		return t.DurationMinutes
	default:
		return 0
	}
}

// Validate checks that every tolerance is positive.
func (t Tolerances) Validate() error {
	if t.Percentage <= 0 || t.Average <= 0 || t.Count <= 0 || t.DurationMinutes <= 0 {
		return fmt.Errorf("tolerances must be positive: %+v", t)
	}
	return nil
}

// LoadTolerances reads a tolerance table from a YAML file.
//
// Missing fields keep their default values, so a file may override a
// single tolerance. Any read, parse, or validation error returns the
// default table alongside the error.
func LoadTolerances(path string) (Tolerances, error) {
	t := DefaultTolerances()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("reading tolerances file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		// A yaml.TypeError still populates whatever fields decoded, so
		// discard the partial result rather than install it.
		return DefaultTolerances(), fmt.Errorf("parsing tolerances file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return DefaultTolerances(), err
	}
	return t, nil
}
