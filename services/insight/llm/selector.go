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
	"log/slog"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

// Selector picks an available backend by probing at call time.
//
// # Description
//
// The local engine is preferred when it probes healthy. On local-engine
// unavailability, the remote service is used only when remote fallback
// is explicitly enabled. Probe results are never cached; availability
// is re-checked on every selection.
//
// Thread Safety: Selector is immutable after construction and safe for
// concurrent use.
type Selector struct {
	local               Client
	remote              Client
	allowRemoteFallback bool
	log                 *slog.Logger
}

// NewSelector creates a selector over an optional local and optional
// remote client. Either may be nil when not configured.
func NewSelector(local, remote Client, allowRemoteFallback bool, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{
		local:               local,
		remote:              remote,
		allowRemoteFallback: allowRemoteFallback,
		log:                 log,
	}
}

// Select returns the backend to use for one request.
//
// Outputs:
//
//   - Client: The healthy backend, local preferred.
//   - error: ErrUnavailable when no configured backend probes healthy.
func (s *Selector) Select(ctx context.Context) (Client, error) {
	if s.local != nil {
		if err := s.local.Probe(ctx); err == nil {
			return s.local, nil
		} else {
			s.log.Debug("local backend probe failed", "error", err)
		}
		if !s.allowRemoteFallback {
			return nil, ErrUnavailable
		}
	}

	if s.remote != nil {
		if err := s.remote.Probe(ctx); err == nil {
			return s.remote, nil
		} else {
			s.log.Debug("remote backend probe failed", "error", err)
		}
	}
	return nil, ErrUnavailable
}

// Probes reports each configured backend's current availability, for
// status introspection.
func (s *Selector) Probes(ctx context.Context) []datatypes.BackendProbe {
	var probes []datatypes.BackendProbe
	for _, c := range []Client{s.local, s.remote} {
		if c == nil {
			continue
		}
		probe := datatypes.BackendProbe{Name: c.Name(), Model: c.Model()}
		if err := c.Probe(ctx); err != nil {
			probe.Detail = err.Error()
		} else {
			probe.Available = true
		}
		probes = append(probes, probe)
	}
	return probes
}
