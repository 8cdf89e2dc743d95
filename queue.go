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

package bayesgate

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic/encoder"
	"go.uber.org/zap"

	"github.com/bayesgate/bayesgate/lib/kservev2"
)

var (
	// ErrQueueFull is returned when the wait queue has no room left.
	ErrQueueFull = errors.New("request queue is full")

	// ErrRequestTimeout is returned when a request waited longer than the
	// configured queue timeout without getting a slot.
	ErrRequestTimeout = errors.New("request timed out waiting in queue")
)

// RequestQueueConfig controls admission to the inference paths.
type RequestQueueConfig struct {
	// MaxConcurrentRequests is the number of requests processed at once.
	MaxConcurrentRequests int
	// MaxQueueSize bounds how many requests may wait for a slot. Zero
	// means no waiting is allowed beyond the concurrency limit.
	MaxQueueSize int
	// RequestTimeout bounds how long a request may wait in the queue.
	// Zero means wait until the request context is done.
	RequestTimeout time.Duration
}

// RequestQueue bounds concurrent inference work. Requests past the
// concurrency limit wait in FIFO-ish order on the slot channel; requests
// past the queue bound are rejected immediately so callers can back off.
type RequestQueue struct {
	config RequestQueueConfig
	logger *zap.Logger

	slots  chan struct{}
	queued atomic.Int64
	active atomic.Int64
}

// QueueStats is a point-in-time snapshot of queue occupancy.
type QueueStats struct {
	CurrentQueued int64 `json:"current_queued"`
	CurrentActive int64 `json:"current_active"`
	MaxConcurrent int   `json:"max_concurrent"`
	MaxQueueSize  int   `json:"max_queue_size"`
}

// NewRequestQueue returns a queue with the given limits. A non-positive
// concurrency limit falls back to 8.
func NewRequestQueue(config RequestQueueConfig, logger *zap.Logger) *RequestQueue {
	if config.MaxConcurrentRequests <= 0 {
		config.MaxConcurrentRequests = 8
	}
	return &RequestQueue{
		config: config,
		logger: logger,
		slots:  make(chan struct{}, config.MaxConcurrentRequests),
	}
}

// Acquire blocks until a processing slot is free, the queue timeout
// fires, or ctx is done. On success the returned release function must be
// called exactly once, typically via defer.
func (q *RequestQueue) Acquire(ctx context.Context) (func(), error) {
	select {
	case q.slots <- struct{}{}:
		q.active.Add(1)
		return q.releaseFunc(), nil
	default:
	}

	if int(q.queued.Load()) >= q.config.MaxQueueSize {
		q.logger.Warn("rejecting request, queue full",
			zap.Int64("queued", q.queued.Load()),
			zap.Int("max_queue_size", q.config.MaxQueueSize))
		return nil, ErrQueueFull
	}
	q.queued.Add(1)
	defer q.queued.Add(-1)

	wait := ctx
	if q.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, q.config.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	select {
	case q.slots <- struct{}{}:
		q.active.Add(1)
		RecordQueueWaitTime(time.Since(start).Seconds())
		return q.releaseFunc(), nil
	case <-wait.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		q.logger.Warn("request timed out in queue",
			zap.Duration("timeout", q.config.RequestTimeout))
		return nil, ErrRequestTimeout
	}
}

func (q *RequestQueue) releaseFunc() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			q.active.Add(-1)
			<-q.slots
		})
	}
}

// Stats returns current queue occupancy.
func (q *RequestQueue) Stats() QueueStats {
	return QueueStats{
		CurrentQueued: q.queued.Load(),
		CurrentActive: q.active.Load(),
		MaxConcurrent: q.config.MaxConcurrentRequests,
		MaxQueueSize:  q.config.MaxQueueSize,
	}
}

// WriteQueueFullResponse writes a 429 with a Retry-After hint.
func WriteQueueFullResponse(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = encoder.NewStreamEncoder(w).Encode(kservev2.ErrorResponse{
		Error: "server is at capacity, retry later",
		Kind:  string(KindResourceExhausted),
	})
}

// WriteTimeoutResponse writes a 503 for a request that timed out waiting
// for a slot.
func WriteTimeoutResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = encoder.NewStreamEncoder(w).Encode(kservev2.ErrorResponse{
		Error: "timed out waiting for a processing slot",
		Kind:  string(KindTimeout),
	})
}
