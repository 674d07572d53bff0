// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

// ComputeLogsHash creates a deterministic digest of the record set.
//
// # Description
//
// Hashes the salient fields of every record: identifiers and scale
// values for logs, identifiers and peak intensity for crises. Identical
// record sets always produce the same key, and changing any scale value
// changes it. Records are hashed in the order given; callers pass
// records in store order, which is stable between calls.
//
// # Outputs
//
//   - string: Hex-encoded digest. Suitable as a cache and dedup key.
//
// Thread Safety: This function is safe for concurrent use.
func ComputeLogsHash(logs []datatypes.LogRecord, crises []datatypes.CrisisRecord) string {
	h := sha256.New()
	for _, l := range logs {
		fmt.Fprintf(h, "l:%s:%d:%d:%d|", l.ID, l.Arousal, l.Valence, l.Energy)
	}
	for _, c := range crises {
		fmt.Fprintf(h, "c:%s:%d|", c.ID, c.PeakIntensity)
	}
	return hex.EncodeToString(h.Sum(nil))
}
