// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package insight assembles the analysis service: configuration,
// telemetry, backend clients, and the HTTP router.
package insight

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/SensoryInsight/services/insight/claims"
	"github.com/AleutianAI/SensoryInsight/services/insight/llm"
	"github.com/AleutianAI/SensoryInsight/services/insight/orchestrator"
	"github.com/AleutianAI/SensoryInsight/services/insight/routes"
)

// Config is the service configuration, read from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// OllamaURL is the local inference engine base URL. Empty disables
	// the local backend.
	OllamaURL string

	// OllamaModel is the model served by the local engine.
	OllamaModel string

	// OpenAIAPIKey enables the remote backend when set.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the remote API endpoint (optional).
	OpenAIBaseURL string

	// AllowRemoteFallback permits using the remote backend when the
	// local engine is configured but unavailable.
	AllowRemoteFallback bool

	// PremiumModels is the deep-analysis cascade, in order.
	PremiumModels []string

	// DefaultModel serves regular analyses and cascade fallback.
	DefaultModel string

	// CacheTTL is the analysis cache entry lifetime.
	CacheTTL time.Duration

	// TolerancesFile optionally overrides the claim tolerances.
	TolerancesFile string

	// OTLPEndpoint is the trace collector address.
	OTLPEndpoint string

	// TraceStdout writes spans to stdout instead of the OTLP
	// collector. Intended for local development.
	TraceStdout bool
}

// ConfigFromEnv reads the configuration from INSIGHT_* variables,
// applying defaults for anything unset.
func ConfigFromEnv() Config {
	cfg := Config{
		Port:           envOr("INSIGHT_PORT", "12310"),
		OllamaURL:      strings.Trim(os.Getenv("INSIGHT_OLLAMA_URL"), "\"' "),
		OllamaModel:    envOr("INSIGHT_OLLAMA_MODEL", "llama3.1:8b"),
		OpenAIAPIKey:   os.Getenv("INSIGHT_OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("INSIGHT_OPENAI_BASE_URL"),
		DefaultModel:   envOr("INSIGHT_DEFAULT_MODEL", "gpt-4o-mini"),
		TolerancesFile: os.Getenv("INSIGHT_TOLERANCES_FILE"),
		OTLPEndpoint:   envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "insight-otel-collector:4317"),
	}

	if models := os.Getenv("INSIGHT_PREMIUM_MODELS"); models != "" {
		for _, m := range strings.Split(models, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.PremiumModels = append(cfg.PremiumModels, m)
			}
		}
	} else {
		cfg.PremiumModels = []string{"gpt-4o"}
	}

	if ttl := os.Getenv("INSIGHT_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.CacheTTL = d
		} else {
			slog.Warn("INSIGHT_CACHE_TTL is not a valid duration, using default", "value", ttl)
		}
	}

	if v := os.Getenv("INSIGHT_ALLOW_REMOTE_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowRemoteFallback = b
		}
	}
	if v := os.Getenv("INSIGHT_TRACE_STDOUT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TraceStdout = b
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// InitTracer configures the trace exporter and returns a shutdown
// function. Spans go to the OTLP collector, or to stdout when
// TraceStdout is set.
func InitTracer(cfg Config) (func(context.Context), error) {
	ctx := context.Background()

	var traceExporter sdktrace.SpanExporter
	if cfg.TraceStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		traceExporter = exporter
	} else {
		conn, err := grpc.NewClient(cfg.OTLPEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, err
		}
		exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, err
		}
		traceExporter = exporter
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("insight-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// BuildOrchestrator wires the backend clients, claim validator, and
// request orchestrator from the configuration.
func BuildOrchestrator(cfg Config, log *slog.Logger) *orchestrator.Orchestrator {
	var local, remote llm.Client
	if cfg.OllamaURL != "" {
		local = llm.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel)
		log.Info("local inference engine configured", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
	}
	if cfg.OpenAIAPIKey != "" {
		remote = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.DefaultModel)
		log.Info("remote inference service configured")
	}
	if local == nil && remote == nil {
		log.Warn("no inference backend configured; analysis requests will fail")
	}

	selector := llm.NewSelector(local, remote, cfg.AllowRemoteFallback, log)

	tolerances := claims.DefaultTolerances()
	if cfg.TolerancesFile != "" {
		loaded, err := claims.LoadTolerances(cfg.TolerancesFile)
		if err != nil {
			log.Warn("failed to load tolerance overrides, using defaults",
				"file", cfg.TolerancesFile, "error", err)
		}
		tolerances = loaded
	}
	validator := claims.NewValidator(tolerances, log)

	return orchestrator.New(selector, validator, orchestrator.Config{
		PremiumModels: cfg.PremiumModels,
		DefaultModel:  cfg.DefaultModel,
		CacheTTL:      cfg.CacheTTL,
		Retry:         orchestrator.DefaultRetryConfig(),
	}, log)
}

// NewRouter builds the gin engine with tracing middleware and all
// service routes registered.
func NewRouter(orch *orchestrator.Orchestrator) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("insight-service"))
	routes.SetupRoutes(router, orch)
	return router
}
