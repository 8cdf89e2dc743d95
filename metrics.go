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

import "github.com/prometheus/client_golang/prometheus"

var (
	inferenceRequestOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "inference_request_ops_total",
			Help:      "The total number of inference requests.",
		},
		[]string{"model", "transport"},
	)
	inferenceErrorOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "inference_error_ops_total",
			Help:      "The total number of failed inference requests.",
		},
		[]string{"model", "kind"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Time taken to process a request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "model", "status"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits.",
		},
		[]string{"type"}, // posterior
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses.",
		},
		[]string{"type"}, // posterior
	)

	registeredModels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "registered_models",
			Help:      "Number of models currently registered.",
		},
	)

	activeInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "active_instances",
			Help:      "Number of model instances currently alive.",
		},
	)

	sweptInstancesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "swept_instances_total",
			Help:      "Total number of idle instances removed by the sweeper.",
		},
	)

	// Queue metrics
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "queue_depth",
			Help:      "Number of requests currently waiting in queue.",
		},
	)

	queueActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "queue_active_requests",
			Help:      "Number of requests currently being processed.",
		},
	)

	queueRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "queue_rejected_total",
			Help:      "Total number of requests rejected due to full queue.",
		},
	)

	queueTimedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "queue_timed_out_total",
			Help:      "Total number of requests that timed out while waiting in queue.",
		},
	)

	queueWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bayesgate",
			Subsystem: "gateway",
			Name:      "queue_wait_duration_seconds",
			Help:      "Time spent waiting in queue before processing.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(inferenceRequestOps)
	prometheus.MustRegister(inferenceErrorOps)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
	prometheus.MustRegister(registeredModels)
	prometheus.MustRegister(activeInstances)
	prometheus.MustRegister(sweptInstancesTotal)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(queueActiveRequests)
	prometheus.MustRegister(queueRejectedTotal)
	prometheus.MustRegister(queueTimedOutTotal)
	prometheus.MustRegister(queueWaitDuration)
}

// RecordInferenceRequest increments the inference request counter
func RecordInferenceRequest(model, transport string) {
	inferenceRequestOps.WithLabelValues(model, transport).Inc()
}

// RecordInferenceError increments the inference error counter
func RecordInferenceError(model string, kind ErrorKind) {
	inferenceErrorOps.WithLabelValues(model, string(kind)).Inc()
}

// RecordRequestDuration records how long a request took
func RecordRequestDuration(endpoint, model, status string, seconds float64) {
	requestDuration.WithLabelValues(endpoint, model, status).Observe(seconds)
}

// RecordCacheHit increments the cache hit counter
func RecordCacheHit(cacheType string) {
	cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss(cacheType string) {
	cacheMisses.WithLabelValues(cacheType).Inc()
}

// UpdateRegistryMetrics updates the model and instance gauges
func UpdateRegistryMetrics(models, instances int) {
	registeredModels.Set(float64(models))
	activeInstances.Set(float64(instances))
}

// RecordInstanceSweep records idle instances removed by one sweep pass
func RecordInstanceSweep(count int) {
	sweptInstancesTotal.Add(float64(count))
}

// UpdateQueueMetrics updates all queue-related metrics from QueueStats
func UpdateQueueMetrics(stats QueueStats) {
	queueDepth.Set(float64(stats.CurrentQueued))
	queueActiveRequests.Set(float64(stats.CurrentActive))
}

// RecordQueueRejection increments the rejected counter
func RecordQueueRejection() {
	queueRejectedTotal.Inc()
}

// RecordQueueTimeout increments the timeout counter
func RecordQueueTimeout() {
	queueTimedOutTotal.Inc()
}

// RecordQueueWaitTime records how long a request waited in queue
func RecordQueueWaitTime(seconds float64) {
	queueWaitDuration.Observe(seconds)
}
