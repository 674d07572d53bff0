// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"sync"
	"time"
)

// MockClient is a scripted inference backend for testing.
//
// Thread Safety:
//
//	MockClient is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// name is the backend name.
	name string

	// model is the model name.
	model string

	// outcomes are consumed one per generation call, in order. When the
	// queue is empty, defaultContent is returned.
	outcomes []mockOutcome

	// defaultContent is returned when no queued outcomes remain.
	defaultContent string

	// probeErr makes Probe fail.
	probeErr error

	// streamFragments splits streamed content into this many pieces.
	streamFragments int

	// delay adds artificial latency to generation calls.
	delay time.Duration

	// calls records every generation call.
	calls []GenerationCall
}

type mockOutcome struct {
	content string
	err     error
}

// GenerationCall records one Generate or GenerateStream invocation.
type GenerationCall struct {
	System    string
	User      string
	Model     string
	Streaming bool
}

// NewMockClient creates a mock backend.
func NewMockClient() *MockClient {
	return &MockClient{
		name:            "mock",
		model:           "mock-model",
		defaultContent:  `{"summary": "mock analysis"}`,
		streamFragments: 1,
	}
}

// WithName sets the backend name.
func (m *MockClient) WithName(name string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithDefaultContent sets the content returned when the outcome queue
// is empty.
func (m *MockClient) WithDefaultContent(content string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultContent = content
	return m
}

// WithProbeError makes Probe fail.
func (m *MockClient) WithProbeError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeErr = err
	return m
}

// WithStreamFragments splits streamed content into n fragments.
func (m *MockClient) WithStreamFragments(n int) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.streamFragments = n
	}
	return m
}

// WithDelay adds artificial latency to generation calls.
func (m *MockClient) WithDelay(d time.Duration) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// QueueContent queues one successful generation outcome.
func (m *MockClient) QueueContent(content string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, mockOutcome{content: content})
	return m
}

// QueueError queues one failing generation outcome.
func (m *MockClient) QueueError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, mockOutcome{err: err})
	return m
}

// Calls returns a copy of the recorded generation calls.
func (m *MockClient) Calls() []GenerationCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerationCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of generation calls made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Name implements the Client interface.
func (m *MockClient) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Model implements the Client interface.
func (m *MockClient) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// WithModel implements the Client interface. The clone shares the
// outcome queue and call log with the original, so tests can script
// and observe the whole cascade through one mock.
func (m *MockClient) WithModel(model string) Client {
	return &modelView{parent: m, model: model}
}

// Probe implements the Client interface.
func (m *MockClient) Probe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeErr
}

// Generate implements the Client interface.
func (m *MockClient) Generate(ctx context.Context, system, user string, params GenerationParams) (string, error) {
	return m.generate(ctx, system, user, m.model, false, nil)
}

// GenerateStream implements the Client interface.
func (m *MockClient) GenerateStream(ctx context.Context, system, user string, params GenerationParams, onFragment FragmentFunc) (string, error) {
	return m.generate(ctx, system, user, m.model, true, onFragment)
}

func (m *MockClient) generate(ctx context.Context, system, user, model string, streaming bool, onFragment FragmentFunc) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerationCall{System: system, User: user, Model: model, Streaming: streaming})

	outcome := mockOutcome{content: m.defaultContent}
	if len(m.outcomes) > 0 {
		outcome = m.outcomes[0]
		m.outcomes = m.outcomes[1:]
	}
	fragments := m.streamFragments
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if outcome.err != nil {
		return "", outcome.err
	}

	if streaming && onFragment != nil {
		for _, frag := range splitFragments(outcome.content, fragments) {
			if err := onFragment(frag); err != nil {
				return "", err
			}
		}
	}
	return outcome.content, nil
}

// modelView presents a MockClient under a different model name.
type modelView struct {
	parent *MockClient
	model  string
}

func (v *modelView) Name() string  { return v.parent.Name() }
func (v *modelView) Model() string { return v.model }
func (v *modelView) WithModel(model string) Client {
	return &modelView{parent: v.parent, model: model}
}
func (v *modelView) Probe(ctx context.Context) error { return v.parent.Probe(ctx) }

func (v *modelView) Generate(ctx context.Context, system, user string, params GenerationParams) (string, error) {
	return v.parent.generate(ctx, system, user, v.model, false, nil)
}

func (v *modelView) GenerateStream(ctx context.Context, system, user string, params GenerationParams, onFragment FragmentFunc) (string, error) {
	return v.parent.generate(ctx, system, user, v.model, true, onFragment)
}

// splitFragments cuts content into n roughly equal pieces.
func splitFragments(content string, n int) []string {
	if n <= 1 || len(content) < n {
		return []string{content}
	}
	size := len(content) / n
	var out []string
	for i := 0; i < n; i++ {
		start := i * size
		end := start + size
		if i == n-1 {
			end = len(content)
		}
		out = append(out, content[start:end])
	}
	return out
}
