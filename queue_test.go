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
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueueAcquireRelease(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{MaxConcurrentRequests: 2, MaxQueueSize: 4}, zap.NewNop())

	release1, err := q.Acquire(context.Background())
	require.NoError(t, err)
	release2, err := q.Acquire(context.Background())
	require.NoError(t, err)

	stats := q.Stats()
	assert.Equal(t, int64(2), stats.CurrentActive)
	assert.Equal(t, int64(0), stats.CurrentQueued)

	release1()
	release2()

	stats = q.Stats()
	assert.Equal(t, int64(0), stats.CurrentActive)
}

func TestQueueFull(t *testing.T) {
	// One slot, no waiting room
	q := NewRequestQueue(RequestQueueConfig{MaxConcurrentRequests: 1, MaxQueueSize: 0}, zap.NewNop())

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = q.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueTimeout(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: 1,
		MaxQueueSize:          4,
		RequestTimeout:        20 * time.Millisecond,
	}, zap.NewNop())

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = q.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrRequestTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueueContextCancelled(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{MaxConcurrentRequests: 1, MaxQueueSize: 4}, zap.NewNop())

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err = q.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueueWaiterGetsSlot(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: 1,
		MaxQueueSize:          4,
		RequestTimeout:        time.Second,
	}, zap.NewNop())

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan func(), 1)
	go func() {
		r, err := q.Acquire(context.Background())
		if err == nil {
			acquired <- r
		}
	}()

	time.Sleep(10 * time.Millisecond)
	release()

	select {
	case r := <-acquired:
		r()
	case <-time.After(time.Second):
		t.Fatal("waiter never got the freed slot")
	}
}

func TestQueueReleaseIdempotent(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{MaxConcurrentRequests: 1, MaxQueueSize: 0}, zap.NewNop())

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)
	release()
	release()

	assert.Equal(t, int64(0), q.Stats().CurrentActive)

	// The slot is usable again exactly once
	release2, err := q.Acquire(context.Background())
	require.NoError(t, err)
	defer release2()
	_, err = q.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueConcurrencyBound(t *testing.T) {
	const limit = 3
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: limit,
		MaxQueueSize:          100,
		RequestTimeout:        time.Second,
	}, zap.NewNop())

	var mu sync.Mutex
	var active, peak int

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := q.Acquire(context.Background())
			if err != nil {
				return
			}
			defer release()

			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, limit)
	assert.Equal(t, int64(0), q.Stats().CurrentActive)
}

func TestWriteQueueFullResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteQueueFullResponse(rec, 5*time.Second)

	assert.Equal(t, 429, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "capacity")
	assert.Contains(t, rec.Body.String(), string(KindResourceExhausted))
}

func TestWriteTimeoutResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTimeoutResponse(rec)

	assert.Equal(t, 503, rec.Code)
	assert.Contains(t, rec.Body.String(), string(KindTimeout))
}
