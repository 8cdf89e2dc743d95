// Copyright 2026 Bayesgate, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PosteriorCacheTTL is the default TTL for cached inference results.
const PosteriorCacheTTL = 2 * time.Minute

// canonicalJSON sorts map keys so that semantically equal requests hash
// to the same cache key regardless of map iteration order.
var canonicalJSON = sonic.Config{SortMapKeys: true}.Froze()

// PosteriorCache caches inference results for stateless calls.
//
// Eligibility is the caller's responsibility: only calls with no
// carried state and no state write-back are deterministic enough to
// cache. A nil *PosteriorCache is valid and disables caching.
type PosteriorCache struct {
	cache   *ttlcache.Cache[string, *Result]
	sfGroup *singleflight.Group
	logger  *zap.Logger
	cancel  context.CancelFunc

	// Metrics
	hits   atomic.Uint64
	misses atomic.Uint64
	sfHits atomic.Uint64
}

// NewPosteriorCache creates a posterior cache. ttl <= 0 selects
// PosteriorCacheTTL.
func NewPosteriorCache(ttl time.Duration, logger *zap.Logger) *PosteriorCache {
	if ttl <= 0 {
		ttl = PosteriorCacheTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Result](ttl),
	)
	go cache.Start()

	ctx, cancel := context.WithCancel(context.Background())
	pc := &PosteriorCache{
		cache:   cache,
		sfGroup: &singleflight.Group{},
		logger:  logger.Named("posterior_cache"),
		cancel:  cancel,
	}

	// Log cache stats periodically
	go pc.logStats(ctx)

	return pc
}

// Do returns the cached result for (model, input, params) or computes it
// via fn. The second return reports whether the result was served from
// cache or a deduplicated in-flight call.
func (pc *PosteriorCache) Do(model string, input, params map[string]any, fn func() (*Result, error)) (*Result, bool, error) {
	if pc == nil {
		res, err := fn()
		return res, false, err
	}

	key := pc.cacheKey(model, input, params)

	if item := pc.cache.Get(key); item != nil {
		pc.hits.Add(1)
		pc.logger.Debug("Posterior cache hit",
			zap.String("model", model))
		return item.Value(), true, nil
	}

	// Singleflight deduplicates concurrent identical requests
	result, err, shared := pc.sfGroup.Do(key, func() (any, error) {
		pc.misses.Add(1)

		start := time.Now()
		res, err := fn()
		if err != nil {
			return nil, err
		}

		pc.cache.Set(key, res, ttlcache.DefaultTTL)

		pc.logger.Debug("Posterior computed and cached",
			zap.String("model", model),
			zap.Duration("duration", time.Since(start)))

		return res, nil
	})

	if err != nil {
		return nil, false, err
	}

	if shared {
		pc.sfHits.Add(1)
		pc.logger.Debug("Singleflight hit for inference request",
			zap.String("model", model))
	}

	return result.(*Result), shared, nil
}

// cacheKey hashes model + canonical request JSON into a fixed-size key.
func (pc *PosteriorCache) cacheKey(model string, input, params map[string]any) string {
	h := xxhash.New()

	_, _ = h.WriteString(model)
	_, _ = h.WriteString("|")

	if data, err := canonicalJSON.Marshal(input); err == nil {
		_, _ = h.Write(data)
	}
	_, _ = h.WriteString("|")
	if data, err := canonicalJSON.Marshal(params); err == nil {
		_, _ = h.Write(data)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return string(buf[:])
}

// Close stops the cache
func (pc *PosteriorCache) Close() {
	if pc == nil {
		return
	}
	pc.cancel()
	pc.cache.Stop()
}

// logStats logs cache statistics periodically
func (pc *PosteriorCache) logStats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics := pc.cache.Metrics()
			if metrics.Hits > 0 || metrics.Misses > 0 {
				hitRate := float64(0)
				total := metrics.Hits + metrics.Misses
				if total > 0 {
					hitRate = float64(metrics.Hits) / float64(total) * 100
				}
				pc.logger.Info("Posterior cache stats",
					zap.Uint64("hits", metrics.Hits),
					zap.Uint64("misses", metrics.Misses),
					zap.Float64("hit_rate_pct", hitRate),
					zap.Int("items", pc.cache.Len()))
			}
		}
	}
}

// CacheStats holds posterior cache statistics.
type CacheStats struct {
	Hits             uint64 `json:"hits"`
	Misses           uint64 `json:"misses"`
	SingleflightHits uint64 `json:"singleflight_hits"`
	Items            int    `json:"items"`
}

// Stats returns cache statistics.
func (pc *PosteriorCache) Stats() CacheStats {
	if pc == nil {
		return CacheStats{}
	}
	return CacheStats{
		Hits:             pc.hits.Load(),
		Misses:           pc.misses.Load(),
		SingleflightHits: pc.sfHits.Load(),
		Items:            pc.cache.Len(),
	}
}
