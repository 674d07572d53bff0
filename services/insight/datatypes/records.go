// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the shared data structures for the insight
// service: behavioral log records supplied by the record store, the
// structured analysis report produced by the inference pipeline, and the
// validation artifacts produced by the hallucination checker.
//
// The record types are owned by the external store; this service only
// reads them. Analysis and validation types are produced here.
package datatypes

import "time"

// Setting enumerates the context in which an observation was recorded.
type Setting string

const (
	SettingHome      Setting = "home"
	SettingSchool    Setting = "school"
	SettingWork      Setting = "work"
	SettingTherapy   Setting = "therapy"
	SettingOutdoors  Setting = "outdoors"
	SettingTransit   Setting = "transit"
	SettingCommunity Setting = "community"
	SettingOther     Setting = "other"
)

// StrategyOutcome enumerates the observed effect of a regulation strategy.
type StrategyOutcome string

const (
	OutcomeHelped    StrategyOutcome = "helped"
	OutcomeNoChange  StrategyOutcome = "no_change"
	OutcomeEscalated StrategyOutcome = "escalated"
)

// LogRecord is a single behavioral observation.
//
// # Description
//
// One timestamped observation with three bounded 0-10 scales, the setting
// it was observed in, tag sets for triggers and strategies, and an optional
// strategy outcome. Records are immutable once created; the external record
// store owns their lifecycle.
type LogRecord struct {
	// ID uniquely identifies the record.
	ID string `json:"id" validate:"required"`

	// Timestamp is when the observation was made.
	Timestamp time.Time `json:"timestamp" validate:"required"`

	// Setting is the enumerated context (home, school, ...).
	Setting Setting `json:"setting"`

	// Arousal is the physiological activation scale (0-10).
	Arousal int `json:"arousal" validate:"gte=0,lte=10"`

	// Valence is the emotional tone scale (0-10).
	Valence int `json:"valence" validate:"gte=0,lte=10"`

	// Energy is the energy level scale (0-10).
	Energy int `json:"energy" validate:"gte=0,lte=10"`

	// DurationMinutes is how long the observed state lasted.
	DurationMinutes int `json:"duration_minutes" validate:"gte=0"`

	// SensoryTriggers are sensory-input tags (e.g. "loud noise").
	SensoryTriggers []string `json:"sensory_triggers,omitempty"`

	// ContextTriggers are situational tags (e.g. "transition").
	ContextTriggers []string `json:"context_triggers,omitempty"`

	// Strategies are the regulation strategies applied.
	Strategies []string `json:"strategies,omitempty"`

	// StrategyOutcome records whether the strategies helped, if known.
	StrategyOutcome StrategyOutcome `json:"strategy_outcome,omitempty"`

	// Note is free-form caregiver text.
	Note string `json:"note,omitempty"`
}

// CrisisRecord is a single elevated-severity event.
type CrisisRecord struct {
	// ID uniquely identifies the record.
	ID string `json:"id" validate:"required"`

	// Timestamp is when the event began.
	Timestamp time.Time `json:"timestamp" validate:"required"`

	// Setting is the enumerated context.
	Setting Setting `json:"setting"`

	// Type is the crisis type tag (e.g. "meltdown", "shutdown").
	Type string `json:"type"`

	// DurationSeconds is the event duration in seconds.
	DurationSeconds int `json:"duration_seconds" validate:"gte=0"`

	// PeakIntensity is the peak intensity scale (0-10).
	PeakIntensity int `json:"peak_intensity" validate:"gte=0,lte=10"`

	// SensoryTriggers are sensory-input tags preceding the event.
	SensoryTriggers []string `json:"sensory_triggers,omitempty"`

	// ContextTriggers are situational tags preceding the event.
	ContextTriggers []string `json:"context_triggers,omitempty"`

	// Resolution is the outcome tag (e.g. "self_regulated", "co_regulated").
	Resolution string `json:"resolution,omitempty"`

	// RecoveryMinutes is the time to baseline after the event, if recorded.
	RecoveryMinutes int `json:"recovery_minutes,omitempty" validate:"gte=0"`
}

// Profile is optional subject context supplied by the record store.
//
// When present, the prompt builder includes a profile block so the model
// can tailor its narrative. Absent profiles are simply omitted.
type Profile struct {
	// AgeYears is the subject's age, 0 when unknown.
	AgeYears int `json:"age_years,omitempty"`

	// Diagnoses are free-form diagnosis labels.
	Diagnoses []string `json:"diagnoses,omitempty"`

	// CommunicationStyle describes how the subject communicates.
	CommunicationStyle string `json:"communication_style,omitempty"`

	// KnownSensitivities are known sensory sensitivities.
	KnownSensitivities []string `json:"known_sensitivities,omitempty"`
}

// LogDateRange returns the earliest and latest timestamps across the
// logs and the inclusive calendar-day span between them. The span
// counts calendar dates, not 24-hour windows, so a log at 23:00 on
// Monday and one at 01:00 on Tuesday cover two days. Empty input
// returns zero values.
func LogDateRange(logs []LogRecord) (earliest, latest time.Time, days int) {
	if len(logs) == 0 {
		return time.Time{}, time.Time{}, 0
	}
	earliest, latest = logs[0].Timestamp, logs[0].Timestamp
	for _, l := range logs[1:] {
		if l.Timestamp.Before(earliest) {
			earliest = l.Timestamp
		}
		if l.Timestamp.After(latest) {
			latest = l.Timestamp
		}
	}
	return earliest, latest, calendarDays(earliest, latest) + 1
}

// calendarDays returns the number of midnights between two instants,
// comparing each in its own location.
func calendarDays(earliest, latest time.Time) int {
	e := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, time.UTC)
	l := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, time.UTC)
	return int(l.Sub(e).Hours() / 24)
}
