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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// OpenAIClient talks to the remote chat-completion service.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a remote client. An empty baseURL uses the
// service default; a non-empty one targets a compatible gateway.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name implements the Client interface.
func (o *OpenAIClient) Name() string { return "openai" }

// Model implements the Client interface.
func (o *OpenAIClient) Model() string { return o.model }

// WithModel implements the Client interface.
func (o *OpenAIClient) WithModel(model string) Client {
	clone := *o
	clone.model = model
	return &clone
}

// Probe lists the remote models with a short timeout.
//
// Thread Safety: This method is safe for concurrent use.
func (o *OpenAIClient) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai probe failed: %w", err)
	}
	return nil
}

// Generate implements the Client interface.
func (o *OpenAIClient) Generate(ctx context.Context, system, user string, params GenerationParams) (string, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))

	resp, err := o.client.CreateChatCompletion(ctx, o.request(system, user, params, false))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("OpenAI API call failed", "error", err)
		return "", wrapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", nil
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream implements the Client interface.
//
// # Description
//
// The remote service streams server-sent-event frames, each carrying an
// incremental delta fragment. io.EOF from the stream is the sentinel
// done frame; the accumulated text is returned then.
func (o *OpenAIClient) GenerateStream(ctx context.Context, system, user string, params GenerationParams, onFragment FragmentFunc) (string, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.GenerateStream")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))

	stream, err := o.client.CreateChatCompletionStream(ctx, o.request(system, user, params, true))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("OpenAI stream open failed", "error", err)
		return "", wrapOpenAIError(err)
	}
	defer stream.Close()

	var accumulated strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return accumulated.String(), nil
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", wrapOpenAIError(err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		accumulated.WriteString(fragment)
		if onFragment != nil {
			if err := onFragment(fragment); err != nil {
				return "", err
			}
		}
	}
}

func (o *OpenAIClient) request(system, user string, params GenerationParams, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Stream: stream,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}
	return req
}

// wrapOpenAIError converts SDK errors into TransportError so the retry
// policy can classify them by status.
func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{Backend: "openai", StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &TransportError{Backend: "openai", StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &TransportError{Backend: "openai", Err: err}
}
