// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompt builds the system/user prompt pair for behavioral
// analysis requests. Pure functions, no network or mutable state.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

// systemTemplate defines the model's role and the required output schema.
// The profile block is omitted entirely when no profile is supplied.
var systemTemplate = template.Must(template.New("system").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(
	`You are a behavioral analyst reviewing sensory-regulation observation logs.
Identify trigger patterns, evaluate regulation strategies, and describe
interoception patterns. Base every numeric statement strictly on the data
provided; do not invent counts, percentages, or averages.
{{if .Profile}}
Subject context:
{{- if .Profile.AgeYears}}
- Age: {{.Profile.AgeYears}} years{{end}}
{{- if .Profile.Diagnoses}}
- Diagnoses: {{join .Profile.Diagnoses ", "}}{{end}}
{{- if .Profile.CommunicationStyle}}
- Communication style: {{.Profile.CommunicationStyle}}{{end}}
{{- if .Profile.KnownSensitivities}}
- Known sensitivities: {{join .Profile.KnownSensitivities ", "}}{{end}}
{{end}}
Respond with a single JSON object using exactly these fields:
{
  "trigger_analysis": string,
  "strategy_evaluation": string,
  "interoception_patterns": string,
  "summary": string,
  "correlations": [{"factor1": string, "factor2": string, "relationship": string, "strength": "weak"|"moderate"|"strong", "description": string}],
  "recommendations": [string]
}
Return only the JSON object, no surrounding prose.`))

// Build produces the system and user prompts for one analysis request.
//
// # Description
//
// The system prompt carries the analyst role, an optional subject
// profile block, and the output schema. The user prompt serializes the
// log and crisis records; the crisis section is omitted when there are
// no crisis records.
//
// # Inputs
//
//   - logs: Log records, non-empty (the orchestrator validates this).
//   - crises: Crisis records. May be empty or nil.
//   - totalDays: Calendar span of the observation window.
//   - profile: Optional subject context. Nil omits the profile block.
//
// # Outputs
//
//   - system: The system prompt.
//   - user: The user prompt.
//
// Thread Safety: This function is safe for concurrent use.
func Build(logs []datatypes.LogRecord, crises []datatypes.CrisisRecord, totalDays int, profile *datatypes.Profile) (system, user string) {
	var buf bytes.Buffer
	// The template only fails on unexported field access, which the
	// data shape rules out.
	_ = systemTemplate.Execute(&buf, struct{ Profile *datatypes.Profile }{profile})
	system = buf.String()

	var b strings.Builder
	fmt.Fprintf(&b, "Observation window: %d logged observations over %d day(s)", len(logs), totalDays)
	if len(crises) > 0 {
		fmt.Fprintf(&b, ", including %d crisis event(s)", len(crises))
	}
	b.WriteString(".\n\nLogs:\n")
	for _, l := range logs {
		writeLog(&b, l)
	}
	if len(crises) > 0 {
		b.WriteString("\nCrisis events:\n")
		for _, c := range crises {
			writeCrisis(&b, c)
		}
	}
	b.WriteString("\nAnalyze the data above and respond in the required JSON schema.")
	return system, b.String()
}

func writeLog(b *strings.Builder, l datatypes.LogRecord) {
	fmt.Fprintf(b, "- %s [%s] arousal=%d valence=%d energy=%d",
		l.Timestamp.Format("2006-01-02 15:04"), l.Setting, l.Arousal, l.Valence, l.Energy)
	if l.DurationMinutes > 0 {
		fmt.Fprintf(b, " duration=%dmin", l.DurationMinutes)
	}
	if len(l.SensoryTriggers) > 0 {
		fmt.Fprintf(b, " sensory_triggers=%s", strings.Join(l.SensoryTriggers, "/"))
	}
	if len(l.ContextTriggers) > 0 {
		fmt.Fprintf(b, " context_triggers=%s", strings.Join(l.ContextTriggers, "/"))
	}
	if len(l.Strategies) > 0 {
		fmt.Fprintf(b, " strategies=%s", strings.Join(l.Strategies, "/"))
		if l.StrategyOutcome != "" {
			fmt.Fprintf(b, " outcome=%s", l.StrategyOutcome)
		}
	}
	if l.Note != "" {
		fmt.Fprintf(b, " note=%q", l.Note)
	}
	b.WriteByte('\n')
}

func writeCrisis(b *strings.Builder, c datatypes.CrisisRecord) {
	fmt.Fprintf(b, "- %s [%s] type=%s duration=%ds peak_intensity=%d",
		c.Timestamp.Format("2006-01-02 15:04"), c.Setting, c.Type, c.DurationSeconds, c.PeakIntensity)
	if len(c.SensoryTriggers) > 0 {
		fmt.Fprintf(b, " sensory_triggers=%s", strings.Join(c.SensoryTriggers, "/"))
	}
	if len(c.ContextTriggers) > 0 {
		fmt.Fprintf(b, " context_triggers=%s", strings.Join(c.ContextTriggers, "/"))
	}
	if c.Resolution != "" {
		fmt.Fprintf(b, " resolution=%s", c.Resolution)
	}
	if c.RecoveryMinutes > 0 {
		fmt.Fprintf(b, " recovery=%dmin", c.RecoveryMinutes)
	}
	b.WriteByte('\n')
}
