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

// ModelConfig overrides one built-in model's registration.
type ModelConfig struct {
	Name string `json:"name" mapstructure:"name"`
	// Enabled defaults to true; set false to leave the model out of the
	// registry at startup.
	Enabled *bool `json:"enabled,omitempty" mapstructure:"enabled"`
	// Parameters override the model's default hyperparameters key by key.
	Parameters map[string]any `json:"parameters,omitempty" mapstructure:"parameters"`
}

// Config holds the gateway's startup settings. Durations are strings in
// time.ParseDuration form; RunAsGateway parses them and fails fast on
// bad values.
type Config struct {
	// HTTPURL is the listen URL for the REST API, e.g. http://0.0.0.0:8080.
	HTTPURL string `json:"http_url" mapstructure:"http_url"`
	// GRPCURL is the listen address for the gRPC API, e.g. 0.0.0.0:8081.
	// Empty disables gRPC.
	GRPCURL string `json:"grpc_url" mapstructure:"grpc_url"`

	// RequestTimeout bounds how long a request may wait in the admission
	// queue before being rejected.
	RequestTimeout string `json:"request_timeout,omitempty" mapstructure:"request_timeout"`
	// InferenceTimeout bounds a single inference call once it starts.
	InferenceTimeout      string `json:"inference_timeout,omitempty" mapstructure:"inference_timeout"`
	MaxConcurrentRequests int    `json:"max_concurrent_requests,omitempty" mapstructure:"max_concurrent_requests"`
	MaxQueueSize          int    `json:"max_queue_size,omitempty" mapstructure:"max_queue_size"`

	// InstanceMaxIdle is how long a session instance may sit unused
	// before the sweeper removes it.
	InstanceMaxIdle string `json:"instance_max_idle,omitempty" mapstructure:"instance_max_idle"`
	SweepInterval   string `json:"sweep_interval,omitempty" mapstructure:"sweep_interval"`

	// CacheEnabled turns on the posterior cache for stateless calls.
	CacheEnabled bool   `json:"cache_enabled,omitempty" mapstructure:"cache_enabled"`
	CacheTTL     string `json:"cache_ttl,omitempty" mapstructure:"cache_ttl"`

	// DefaultIterations is the fallback iteration count when neither the
	// request nor the model's defaults name one.
	DefaultIterations int `json:"default_iterations,omitempty" mapstructure:"default_iterations"`

	// Models are per-model registration overrides; models not listed are
	// registered with their catalog defaults.
	Models []ModelConfig `json:"models,omitempty" mapstructure:"models"`

	// APIKeys enables X-API-Key auth when non-empty.
	APIKeys []string `json:"api_keys,omitempty" mapstructure:"api_keys"`
}
