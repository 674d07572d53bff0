// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the initial wait duration before first retry.
	// Default: 1s
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait duration between retries.
	// Default: 30s
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier for exponential backoff.
	// Default: 2.0
	BackoffFactor float64

	// JitterFactor is the maximum jitter as a fraction of backoff (0-1).
	// Adds randomness to prevent thundering herd. Default: 0.2
	JitterFactor float64
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}
}

// RetryFunc is one transport attempt. attempt starts at 1.
type RetryFunc func(ctx context.Context, attempt int) (string, error)

// OnRetryFunc is invoked before each retry with the upcoming attempt
// number, the attempt budget, and the failure that triggered the retry.
type OnRetryFunc func(attempt, maxAttempts int, reason error)

// retry executes fn with exponential backoff.
//
// # Description
//
// Retries only failures isRetryable classifies as transient; anything
// else is surfaced immediately. onRetry fires before each retry wait,
// never before the first attempt. Returns the number of attempts made
// alongside the result.
func retry(ctx context.Context, config RetryConfig, onRetry OnRetryFunc, fn RetryFunc) (string, int, error) {
	backoff := config.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", attempt - 1, err
		}

		text, err := fn(ctx, attempt)
		if err == nil {
			return text, attempt, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == config.MaxAttempts {
			return "", attempt, err
		}

		if onRetry != nil {
			onRetry(attempt+1, config.MaxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return "", attempt, ctx.Err()
		case <-time.After(withJitter(backoff, config.JitterFactor)):
		}
		backoff = nextBackoff(backoff, config.BackoffFactor, config.MaxBackoff)
	}
	return "", config.MaxAttempts, lastErr
}

// withJitter spreads the wait over [base*(1-jitter), base*(1+jitter)].
func withJitter(base time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return base
	}
	jitter := (rand.Float64()*2 - 1) * jitterFactor
	return time.Duration(float64(base) * (1.0 + jitter))
}

// nextBackoff calculates the next backoff value.
func nextBackoff(current time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		return max
	}
	return next
}
