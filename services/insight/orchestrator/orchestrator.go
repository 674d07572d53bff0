// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator is the top-level entry point for analysis
// requests: cache lookup, request deduplication, retry with backoff,
// the deep-analysis model cascade, and streaming execution.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/SensoryInsight/services/insight/cache"
	"github.com/AleutianAI/SensoryInsight/services/insight/claims"
	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
	"github.com/AleutianAI/SensoryInsight/services/insight/llm"
	"github.com/AleutianAI/SensoryInsight/services/insight/observability"
	"github.com/AleutianAI/SensoryInsight/services/insight/parser"
	"github.com/AleutianAI/SensoryInsight/services/insight/prompt"
)

var tracer = otel.Tracer("insight.orchestrator")

// Callbacks carries the per-request streaming hooks. All fields are
// optional.
type Callbacks struct {
	// OnChunk receives each decoded text fragment as it streams in.
	OnChunk func(fragment string)

	// OnRetry fires before each retry or cascade step.
	OnRetry OnRetryFunc

	// OnComplete receives the final parsed result.
	OnComplete func(*datatypes.AnalysisResult)

	// OnError receives the terminal failure.
	OnError func(error)
}

// Config holds the orchestrator's static configuration.
type Config struct {
	// PremiumModels is the deep-analysis cascade, tried in order.
	PremiumModels []string

	// DefaultModel serves regular analyses and is the final fallback
	// for deep analyses. Empty uses the backend's configured model.
	DefaultModel string

	// CacheTTL is the analysis cache entry lifetime. Zero selects the
	// cache default; out-of-range values are clamped.
	CacheTTL time.Duration

	// CacheSize bounds the analysis cache. Zero selects the default.
	CacheSize int

	// Retry is the transport retry policy for regular analyses.
	Retry RetryConfig

	// Params are the sampling parameters passed to every generation.
	Params llm.GenerationParams
}

// Orchestrator coordinates one process's analysis requests.
//
// # Description
//
// Construct one per process and share it: the dedup group and cache are
// per-instance, so two orchestrators do not share in-flight requests.
// Tests construct isolated instances.
//
// Thread Safety: This type is safe for concurrent use.
type Orchestrator struct {
	selector  *llm.Selector
	cache     *cache.AnalysisCache
	validator *claims.Validator
	group     singleflight.Group
	config    Config
	log       *slog.Logger
}

// New creates an orchestrator. A nil logger falls back to slog.Default.
func New(selector *llm.Selector, validator *claims.Validator, config Config, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if config.Retry.MaxAttempts == 0 {
		config.Retry = DefaultRetryConfig()
	}
	return &Orchestrator{
		selector:  selector,
		cache:     cache.NewAnalysisCache(config.CacheTTL, config.CacheSize),
		validator: validator,
		config:    config,
		log:       log,
	}
}

// Analyze runs a regular analysis.
//
// # Description
//
// Fails fast with ErrNoData on empty logs. Unless options request a
// refresh, a fresh cached result is returned without any network
// activity. Concurrent calls with identical records share one in-flight
// request and receive the same result.
func (o *Orchestrator) Analyze(ctx context.Context, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord, opts datatypes.AnalysisOptions) (*datatypes.AnalysisResult, error) {
	return o.run(ctx, logs, crises, opts, datatypes.KindRegular, Callbacks{})
}

// AnalyzeDeep runs an analysis preferring the premium model tier.
//
// Each premium model is tried once, in order; when all fail, the
// default model serves the request and the result is marked as a
// non-deep (downgraded) analysis.
func (o *Orchestrator) AnalyzeDeep(ctx context.Context, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord, opts datatypes.AnalysisOptions) (*datatypes.AnalysisResult, error) {
	return o.run(ctx, logs, crises, opts, datatypes.KindDeep, Callbacks{})
}

// AnalyzeStream runs a regular analysis with streaming callbacks.
//
// Fragments are forwarded through cb.OnChunk as they arrive; the
// accumulated text is parsed exactly as a non-streamed response. When
// the streaming transport fails, the request transparently falls back
// to non-streaming execution under the same retry policy.
func (o *Orchestrator) AnalyzeStream(ctx context.Context, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord, opts datatypes.AnalysisOptions, cb Callbacks) (*datatypes.AnalysisResult, error) {
	return o.run(ctx, logs, crises, opts, datatypes.KindRegular, cb)
}

// ValidateInsights checks an analysis against its source records.
func (o *Orchestrator) ValidateInsights(result *datatypes.AnalysisResult, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord) datatypes.ValidationStatus {
	status := o.validator.ValidateAnalysis(result, logs, crises)

	verdict := "trustworthy"
	if !status.Valid {
		verdict = "untrustworthy"
	}
	observability.ValidationVerdicts.WithLabelValues(verdict).Inc()
	observability.ClaimsChecked.Observe(float64(status.TotalClaims))
	return status
}

// CreateValidatedResult composes an analysis with its validation
// verdict and data citation.
func (o *Orchestrator) CreateValidatedResult(result *datatypes.AnalysisResult, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord) *datatypes.ValidatedAnalysisResult {
	validation := o.ValidateInsights(result, logs, crises)
	return &datatypes.ValidatedAnalysisResult{
		AnalysisResult: *result,
		Validation:     validation,
		Citation:       claims.GenerateCitation(logs, crises),
		Trustworthy:    validation.Valid,
	}
}

// ClearCache drops all cached analyses.
func (o *Orchestrator) ClearCache() {
	o.cache.Clear()
	observability.CacheEntries.Set(0)
}

// BackendStatus reports configuration and current backend readiness.
func (o *Orchestrator) BackendStatus(ctx context.Context) datatypes.BackendStatus {
	return datatypes.BackendStatus{
		Backends:      o.selector.Probes(ctx),
		PremiumModels: o.config.PremiumModels,
		DefaultModel:  o.config.DefaultModel,
		CacheEntries:  o.cache.Size(),
		CacheHitRate:  o.cache.HitRate(),
		CacheTTL:      o.cache.TTL().String(),
	}
}

// run is the shared request path for all analysis variants.
func (o *Orchestrator) run(ctx context.Context, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord, opts datatypes.AnalysisOptions, kind datatypes.AnalysisKind, cb Callbacks) (*datatypes.AnalysisResult, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("analysis.kind", string(kind)),
		attribute.Int("analysis.logs", len(logs)),
	)

	if len(logs) == 0 {
		span.SetStatus(codes.Error, ErrNoData.Error())
		if cb.OnError != nil {
			cb.OnError(ErrNoData)
		}
		return nil, ErrNoData
	}

	logsHash := cache.ComputeLogsHash(logs, crises)

	if !opts.ForceRefresh {
		if cached, ok := o.cache.Get(logsHash, kind); ok {
			observability.AnalysisRequests.WithLabelValues(string(kind), "cache_hit").Inc()
			o.log.Debug("analysis served from cache", "kind", kind)
			if cb.OnComplete != nil {
				cb.OnComplete(cached)
			}
			return cached, nil
		}
	}

	key := logsHash + "|" + string(kind)
	value, err, shared := o.group.Do(key, func() (any, error) {
		res, execErr := o.execute(ctx, logs, crises, opts, kind, cb)
		if execErr != nil {
			return nil, execErr
		}
		o.cache.Set(logsHash, kind, res)
		observability.CacheEntries.Set(float64(o.cache.Size()))
		return res, nil
	})
	if err != nil {
		observability.AnalysisRequests.WithLabelValues(string(kind), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return nil, err
	}

	outcome := "success"
	if shared {
		outcome = "dedup_join"
	}
	observability.AnalysisRequests.WithLabelValues(string(kind), outcome).Inc()

	result := value.(*datatypes.AnalysisResult)
	if cb.OnComplete != nil {
		cb.OnComplete(result)
	}
	return result, nil
}

// execute performs the network round trip and parse for one request.
// Exactly one goroutine per dedup key runs this at a time.
func (o *Orchestrator) execute(ctx context.Context, logs []datatypes.LogRecord, crises []datatypes.CrisisRecord, opts datatypes.AnalysisOptions, kind datatypes.AnalysisKind, cb Callbacks) (*datatypes.AnalysisResult, error) {
	start := time.Now()

	client, err := o.selector.Select(ctx)
	if err != nil {
		return nil, err
	}

	rangeStart, rangeEnd, totalDays := datatypes.LogDateRange(logs)
	system, user := prompt.Build(logs, crises, totalDays, opts.Profile)

	var raw, modelUsed string
	isDeep := false
	if kind == datatypes.KindDeep {
		raw, modelUsed, isDeep, err = o.runCascade(ctx, client, system, user, cb)
	} else {
		raw, modelUsed, err = o.generateWithRetry(ctx, client, system, user, cb)
	}
	if err != nil {
		return nil, err
	}

	result, err := parser.Parse(raw)
	if err != nil {
		o.log.Error("model response rejected", "error", err, "model", modelUsed)
		return nil, err
	}

	// Metadata comes from the request, never from model output.
	result.GeneratedAt = time.Now().UTC()
	result.DateRangeStart = rangeStart
	result.DateRangeEnd = rangeEnd
	result.ModelUsed = modelUsed
	result.IsDeepAnalysis = isDeep

	observability.AnalysisDuration.WithLabelValues(string(kind), client.Name()).
		Observe(time.Since(start).Seconds())
	o.log.Info("analysis complete",
		"kind", kind,
		"backend", client.Name(),
		"model", modelUsed,
		"duration", time.Since(start))
	return result, nil
}

// generateWithRetry runs the regular-analysis transport with the retry
// policy, wrapping terminal transport failures with the attempt count.
func (o *Orchestrator) generateWithRetry(ctx context.Context, client llm.Client, system, user string, cb Callbacks) (string, string, error) {
	target := client
	if o.config.DefaultModel != "" {
		target = client.WithModel(o.config.DefaultModel)
	}

	// Once streaming fails mid-request, later attempts stay blocking.
	streamBroken := false

	onRetry := func(attempt, maxAttempts int, reason error) {
		observability.Retries.WithLabelValues(target.Name()).Inc()
		o.log.Warn("retrying analysis", "attempt", attempt, "max_attempts", maxAttempts, "error", reason)
		if cb.OnRetry != nil {
			cb.OnRetry(attempt, maxAttempts, reason)
		}
	}

	raw, attempts, err := retry(ctx, o.config.Retry, onRetry, func(ctx context.Context, attempt int) (string, error) {
		text, genErr := o.attemptOnce(ctx, target, system, user, cb, &streamBroken)
		return text, genErr
	})
	if err != nil {
		var transportErr *llm.TransportError
		if errors.As(err, &transportErr) {
			return "", "", &AttemptsError{Attempts: attempts, Err: err}
		}
		return "", "", err
	}
	return raw, target.Model(), nil
}

// runCascade tries each premium model once, then downgrades to the
// default model. The downgraded result is reported as non-deep.
func (o *Orchestrator) runCascade(ctx context.Context, client llm.Client, system, user string, cb Callbacks) (string, string, bool, error) {
	maxAttempts := len(o.config.PremiumModels) + 1

	for i, model := range o.config.PremiumModels {
		streamBroken := false
		raw, err := o.attemptOnce(ctx, client.WithModel(model), system, user, cb, &streamBroken)
		if err == nil {
			return raw, model, true, nil
		}
		o.log.Warn("premium model failed, cascading", "model", model, "error", err)
		if cb.OnRetry != nil {
			cb.OnRetry(i+2, maxAttempts, err)
		}
	}

	target := client
	if o.config.DefaultModel != "" {
		target = client.WithModel(o.config.DefaultModel)
	}
	streamBroken := false
	raw, err := o.attemptOnce(ctx, target, system, user, cb, &streamBroken)
	if err != nil {
		var transportErr *llm.TransportError
		if errors.As(err, &transportErr) {
			return "", "", false, &AttemptsError{Attempts: maxAttempts, Err: err}
		}
		return "", "", false, err
	}
	if len(o.config.PremiumModels) > 0 {
		observability.ModelDowngrades.Inc()
		o.log.Warn("deep analysis downgraded to default model", "model", target.Model())
	}
	return raw, target.Model(), false, nil
}

// attemptOnce performs a single transport attempt, streaming when a
// chunk callback is present and falling back to a blocking request if
// the streaming transport fails.
func (o *Orchestrator) attemptOnce(ctx context.Context, client llm.Client, system, user string, cb Callbacks, streamBroken *bool) (string, error) {
	streaming := cb.OnChunk != nil && !*streamBroken

	var text string
	var err error
	if streaming {
		text, err = client.GenerateStream(ctx, system, user, o.config.Params, func(fragment string) error {
			cb.OnChunk(fragment)
			return nil
		})
		var transportErr *llm.TransportError
		if err != nil && errors.As(err, &transportErr) {
			observability.StreamFallbacks.Inc()
			o.log.Warn("streaming transport failed, falling back to blocking request", "error", err)
			*streamBroken = true
			observability.TransportAttempts.WithLabelValues(client.Name(), client.Model(), "error").Inc()
			text, err = client.Generate(ctx, system, user, o.config.Params)
		}
	} else {
		text, err = client.Generate(ctx, system, user, o.config.Params)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.TransportAttempts.WithLabelValues(client.Name(), client.Model(), status).Inc()
	return text, err
}
