// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the HTTP handlers for the insight service.
package handlers

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

// requestValidate is the validator instance for request datatypes.
var requestValidate = validator.New()

// AnalyzeRequest is the request body for the analyze endpoints.
// Batch sizes are bounded to keep prompt construction tractable.
type AnalyzeRequest struct {
	// Logs are the behavioral observations to analyze.
	Logs []datatypes.LogRecord `json:"logs" validate:"required,min=1,max=5000,dive"`

	// Crises are elevated-severity events in the same window.
	Crises []datatypes.CrisisRecord `json:"crises,omitempty" validate:"max=1000,dive"`

	// ForceRefresh bypasses the analysis cache read.
	ForceRefresh bool `json:"force_refresh"`

	// Profile is optional subject context for the prompt.
	Profile *datatypes.Profile `json:"profile,omitempty"`
}

// Validate checks the request against its validation tags. Call after
// binding the JSON body.
func (r *AnalyzeRequest) Validate() error {
	return requestValidate.Struct(r)
}

// options maps the request knobs onto the orchestrator's option type.
func (r *AnalyzeRequest) options() datatypes.AnalysisOptions {
	return datatypes.AnalysisOptions{
		ForceRefresh: r.ForceRefresh,
		Profile:      r.Profile,
	}
}

// ValidateRequest is the request body for the standalone validation
// endpoint: an analysis to check against its source records.
type ValidateRequest struct {
	// Analysis is the report to validate.
	Analysis datatypes.AnalysisResult `json:"analysis" validate:"required"`

	// Logs are the source observations the report claims to describe.
	Logs []datatypes.LogRecord `json:"logs" validate:"required,min=1,max=5000,dive"`

	// Crises are the source crisis events.
	Crises []datatypes.CrisisRecord `json:"crises,omitempty" validate:"max=1000,dive"`
}

// Validate checks the request against its validation tags.
func (r *ValidateRequest) Validate() error {
	return requestValidate.Struct(r)
}
