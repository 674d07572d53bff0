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
	"regexp"
	"strconv"
)

// contextWindow is the number of characters kept on each side of a match
// for keyword disambiguation.
const contextWindow = 60

// claimPattern binds a compiled regex to a claim category. The first
// capture group must be the numeric value.
type claimPattern struct {
	category Category
	re       *regexp.Regexp

	// scale converts the captured value (e.g. hours to minutes).
	scale float64
}

// Extraction patterns, checked in order. Patterns are category-specific:
// percentages (symbol and written form), averages ("average ... of X" and
// "X/10"), count nouns, and duration nouns with hour conversion.
var claimPatterns = []claimPattern{
	{category: CategoryPercentage, scale: 1,
		re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent\b)`)},
	{category: CategoryAverage, scale: 1,
		re: regexp.MustCompile(`(?i)average\s+(?:\w+\s+){0,3}?of\s+(\d+(?:\.\d+)?)`)},
	{category: CategoryAverage, scale: 1,
		re: regexp.MustCompile(`(?i)averaged?\s+(\d+(?:\.\d+)?)\b`)},
	{category: CategoryAverage, scale: 1,
		re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*10\b`)},
	{category: CategoryCount, scale: 1,
		re: regexp.MustCompile(`(?i)(\d+)\s+(?:logs?|entries|records?|observations?|incidents?|crises|crisis\s+events?|episodes?|times)\b`)},
	{category: CategoryDuration, scale: 1,
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:minutes?|mins?)\b`)},
	{category: CategoryDuration, scale: 60,
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?)\b`)},
}

// ExtractClaims scans text for numeric assertions.
//
// # Description
//
// Applies the category patterns in order, range-bounds values per
// category to reject spurious matches (percentages 0-100, averages 0-10),
// and deduplicates claims sharing the same (category, value) pair keeping
// the first occurrence's context window.
//
// # Inputs
//
//   - text: Free-form analysis text. Empty text yields no claims.
//
// # Outputs
//
//   - []ExtractedClaim: Claims in pattern order, deduplicated.
//
// Thread Safety: This function is safe for concurrent use.
func ExtractClaims(text string) []ExtractedClaim {
	if text == "" {
		return nil
	}

	var out []ExtractedClaim
	seen := make(map[string]bool)

	for _, p := range claimPatterns {
		matches := p.re.FindAllStringSubmatchIndex(text, -1)
		for _, m := range matches {
			raw := text[m[2]:m[3]]
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			value *= p.scale

			if !inRange(p.category, value) {
				continue
			}

			key := string(p.category) + "|" + strconv.FormatFloat(value, 'f', -1, 64)
			if seen[key] {
				continue
			}
			seen[key] = true

			out = append(out, ExtractedClaim{
				Text:     text[m[0]:m[1]],
				Value:    value,
				Category: p.category,
				Context:  contextSlice(text, m[0], m[1]),
			})
		}
	}
	return out
}

// inRange rejects values outside the plausible range for a category.
func inRange(c Category, v float64) bool {
	switch c {
	case CategoryPercentage:
		return v >= 0 && v <= 100
	case CategoryAverage:
		return v >= 0 && v <= 10
	default:
		return v >= 0
	}
}

// contextSlice returns a fixed-width slice of text around [start, end).
func contextSlice(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
