// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the inference backend adapters.
//
// Two concrete clients implement the same Client contract: a local
// Ollama engine and the remote OpenAI service. The orchestrator selects
// one by availability probing at call time and never assumes a probe
// result stays valid between requests.
//
// Thread Safety:
//
//	All types in this package are designed for concurrent use.
package llm

import "context"

// GenerationParams carries optional sampling knobs. Nil fields use the
// backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// FragmentFunc receives one decoded text fragment from a streaming
// generation. Returning an error aborts the stream.
type FragmentFunc func(fragment string) error

// Client defines the interface for an inference backend.
//
// Implementations must be safe for concurrent use.
type Client interface {
	// Probe checks backend availability with a short timeout.
	//
	// Outputs:
	//   error - Nil when the backend can serve generation requests.
	Probe(ctx context.Context) error

	// Generate runs a non-streaming completion.
	//
	// Inputs:
	//   ctx - Context for cancellation and timeout
	//   system - The system prompt
	//   user - The user prompt
	//   params - Sampling parameters
	//
	// Outputs:
	//   string - The completion text
	//   error - *TransportError on transport failure
	Generate(ctx context.Context, system, user string, params GenerationParams) (string, error)

	// GenerateStream runs a streaming completion, forwarding each
	// decoded fragment to onFragment and returning the accumulated
	// text once the end-of-stream marker arrives.
	GenerateStream(ctx context.Context, system, user string, params GenerationParams, onFragment FragmentFunc) (string, error)

	// Name returns the backend name (e.g. "ollama", "openai").
	Name() string

	// Model returns the model the client is configured for.
	Model() string

	// WithModel returns a client targeting a different model on the
	// same backend. Used by the deep-analysis fallback cascade.
	WithModel(model string) Client
}
