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

// Package kservev2 defines the KServe v2 REST payload types and their
// conversions to the internal tensor representation. The gRPC message
// types live in the pb subpackage; both transports share the same
// logical shapes.
package kservev2

import (
	"time"

	"github.com/bayesgate/bayesgate/lib/tensor"
)

// ServerLiveResponse is the GET /v2/health/live body.
type ServerLiveResponse struct {
	Live bool `json:"live"`
}

// ServerReadyResponse is the GET /v2/health/ready body.
type ServerReadyResponse struct {
	Ready bool `json:"ready"`
}

// ModelReadyResponse is the GET /v2/models/{name}/ready body.
type ModelReadyResponse struct {
	Name  string `json:"name,omitempty"`
	Ready bool   `json:"ready"`
}

// ServerMetadataResponse is the GET /v2 body.
type ServerMetadataResponse struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Extensions []string `json:"extensions,omitempty"`
}

// ModelListResponse is the GET /v2/models body.
type ModelListResponse struct {
	Models []string `json:"models"`
}

// TensorMetadata describes one input or output slot of a model. A -1
// dimension means variable length.
type TensorMetadata struct {
	Name     string  `json:"name"`
	Datatype string  `json:"datatype"`
	Shape    []int64 `json:"shape"`
}

// ModelMetadataResponse is the GET /v2/models/{name} body.
type ModelMetadataResponse struct {
	Name     string           `json:"name"`
	Versions []string         `json:"versions,omitempty"`
	Platform string           `json:"platform"`
	Inputs   []TensorMetadata `json:"inputs"`
	Outputs  []TensorMetadata `json:"outputs"`
}

// InferTensor is the wire form of one named tensor. Data is row-major
// and may arrive flat or nested; Tensor() flattens it.
type InferTensor struct {
	Name       string         `json:"name"`
	Datatype   string         `json:"datatype"`
	Shape      []int64        `json:"shape"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Data       []any          `json:"data"`
}

// RequestedOutput names an output the client wants returned. An empty
// request means "all outputs".
type RequestedOutput struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// InferenceRequest is the POST /v2/models/{name}/infer body.
type InferenceRequest struct {
	ID         string            `json:"id,omitempty"`
	Inputs     []InferTensor     `json:"inputs"`
	Outputs    []RequestedOutput `json:"outputs,omitempty"`
	Parameters map[string]any    `json:"parameters,omitempty"`
}

// InferenceResponse is the inference success body.
type InferenceResponse struct {
	ModelName    string         `json:"model_name"`
	ModelVersion string         `json:"model_version,omitempty"`
	ID           string         `json:"id"`
	Outputs      []InferTensor  `json:"outputs"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// ErrorResponse is the body of every failed request: a stable
// machine-readable kind plus a human-readable message.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// RepositoryModelState is one entry of the POST /v2/repository/index
// response.
type RepositoryModelState struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
}

// Repository model states.
const (
	ModelStateReady       = "READY"
	ModelStateUnavailable = "UNAVAILABLE"
)

// RepositoryIndexRequest is the POST /v2/repository/index body. Ready
// restricts the index to models currently loaded.
type RepositoryIndexRequest struct {
	Ready bool `json:"ready,omitempty"`
}

// CreateInstanceRequest is the POST /v2/models/{name}/instances body.
// State seeds the instance for session-style streaming inference.
type CreateInstanceRequest struct {
	State map[string]any `json:"state,omitempty"`
}

// InstanceInfo describes one live model instance.
type InstanceInfo struct {
	ID         string    `json:"id"`
	ModelName  string    `json:"model_name"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// InstanceListResponse is the GET /v2/models/{name}/instances body.
type InstanceListResponse struct {
	Instances []InstanceInfo `json:"instances"`
}

// Tensor converts the wire tensor to the internal representation,
// flattening any nested data.
func (t InferTensor) Tensor() tensor.Tensor {
	return tensor.Tensor{
		Name:     t.Name,
		Datatype: tensor.Datatype(t.Datatype),
		Shape:    t.Shape,
		Data:     flatten(t.Data),
	}
}

// FromTensor converts an internal tensor to its wire form.
func FromTensor(t tensor.Tensor) InferTensor {
	data := t.Data
	if data == nil {
		data = []any{}
	}
	return InferTensor{
		Name:     t.Name,
		Datatype: string(t.Datatype),
		Shape:    t.Shape,
		Data:     data,
	}
}

// flatten linearizes nested JSON arrays in row-major order. Flat input
// is returned as-is; no supported element type is itself an array, so
// unconditional descent is safe.
func flatten(data []any) []any {
	nested := false
	for _, v := range data {
		if _, ok := v.([]any); ok {
			nested = true
			break
		}
	}
	if !nested {
		return data
	}
	out := make([]any, 0, len(data))
	var walk func(v any)
	walk = func(v any) {
		if s, ok := v.([]any); ok {
			for _, e := range s {
				walk(e)
			}
			return
		}
		out = append(out, v)
	}
	for _, v := range data {
		walk(v)
	}
	return out
}
