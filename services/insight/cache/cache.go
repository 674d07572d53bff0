// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the TTL-bounded analysis result cache.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/SensoryInsight/services/insight/datatypes"
)

const (
	// DefaultTTL is the entry lifetime when none is configured.
	DefaultTTL = 30 * time.Minute

	// MinTTL and MaxTTL bound the configurable entry lifetime.
	MinTTL = time.Minute
	MaxTTL = time.Hour

	// DefaultMaxSize bounds the number of cached analyses.
	DefaultMaxSize = 256
)

// AnalysisCache caches analysis results with LRU eviction.
//
// # Description
//
// Entries are keyed by (logsHash, kind): a regular and a deep analysis
// of the same records are cached independently and never satisfy each
// other's lookups. Expiry is checked lazily at read time; there is no
// background sweep.
//
// Thread Safety: This type is safe for concurrent use.
type AnalysisCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	lru     *list.List
	ttl     time.Duration
	maxSize int

	hits   atomic.Int64
	misses atomic.Int64
}

// cacheEntry stores one cached analysis result.
type cacheEntry struct {
	key       string
	result    *datatypes.AnalysisResult
	expiresAt time.Time
}

// NewAnalysisCache creates a cache with the given TTL and max size.
//
// TTL values outside [MinTTL, MaxTTL] are clamped; a zero TTL selects
// DefaultTTL. A non-positive maxSize selects DefaultMaxSize.
func NewAnalysisCache(ttl time.Duration, maxSize int) *AnalysisCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < MinTTL {
		ttl = MinTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &AnalysisCache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached result if present and not expired.
//
// Expired entries are removed lazily here. The returned result is a
// copy; callers may mutate it freely.
//
// Thread Safety: This method is safe for concurrent use.
func (c *AnalysisCache) Get(logsHash string, kind datatypes.AnalysisKind) (*datatypes.AnalysisResult, bool) {
	key := entryKey(logsHash, kind)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.entries[key]
	if !exists {
		c.misses.Add(1)
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeElement(elem)
		c.misses.Add(1)
		return nil, false
	}

	c.lru.MoveToFront(elem)
	c.hits.Add(1)
	return copyResult(entry.result), true
}

// Set stores a result, evicting the LRU entry at capacity.
//
// Thread Safety: This method is safe for concurrent use.
func (c *AnalysisCache) Set(logsHash string, kind datatypes.AnalysisKind, result *datatypes.AnalysisResult) {
	if result == nil {
		return
	}

	key := entryKey(logsHash, kind)

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := copyResult(result)

	if elem, exists := c.entries[key]; exists {
		entry := elem.Value.(*cacheEntry)
		entry.result = stored
		entry.expiresAt = time.Now().Add(c.ttl)
		c.lru.MoveToFront(elem)
		return
	}

	for c.lru.Len() >= c.maxSize {
		c.evictOldest()
	}

	elem := c.lru.PushFront(&cacheEntry{
		key:       key,
		result:    stored,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.entries[key] = elem
}

// Clear removes all entries.
//
// Thread Safety: This method is safe for concurrent use.
func (c *AnalysisCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.lru = list.New()
}

// Size returns the current number of entries.
//
// Thread Safety: This method is safe for concurrent use.
func (c *AnalysisCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// TTL returns the configured entry lifetime.
func (c *AnalysisCache) TTL() time.Duration {
	return c.ttl
}

// HitRate returns the lifetime hit rate (0.0-1.0), 0 before any lookup.
//
// Thread Safety: This method is safe for concurrent use.
func (c *AnalysisCache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// copyResult copies a result so cached entries are isolated from caller
// mutations.
func copyResult(src *datatypes.AnalysisResult) *datatypes.AnalysisResult {
	dst := *src
	if src.Correlations != nil {
		dst.Correlations = make([]datatypes.Correlation, len(src.Correlations))
		copy(dst.Correlations, src.Correlations)
	}
	if src.Recommendations != nil {
		dst.Recommendations = make([]string, len(src.Recommendations))
		copy(dst.Recommendations, src.Recommendations)
	}
	return &dst
}

func entryKey(logsHash string, kind datatypes.AnalysisKind) string {
	return logsHash + "|" + string(kind)
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *AnalysisCache) evictOldest() {
	if elem := c.lru.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// removeElement removes an element from both map and list.
// Must be called with lock held.
func (c *AnalysisCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(elem)
}
