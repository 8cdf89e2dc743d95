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

//go:build go1.22

package bayesgate

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic/decoder"
	"github.com/bytedance/sonic/encoder"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/kservev2"
	"github.com/bayesgate/bayesgate/lib/registry"
	"github.com/bayesgate/bayesgate/lib/tensor"
)

// ServerName is reported in server metadata on both transports.
const ServerName = "bayesgate"

// GatewayAPI serves the KServe v2 REST surface plus the operational
// endpoints (health probes, metrics, version, model repository and
// session instances).
type GatewayAPI struct {
	logger *zap.Logger
	node   *GatewayNode
}

// NewGatewayAPI creates the HTTP handler for the gateway API
func NewGatewayAPI(logger *zap.Logger, node *GatewayNode) http.Handler {
	api := &GatewayAPI{
		logger: logger,
		node:   node,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /v2", api.ServerMetadata)
	mux.HandleFunc("GET /v2/health/live", api.ServerLive)
	mux.HandleFunc("GET /v2/health/ready", api.ServerReady)
	mux.HandleFunc("GET /v2/models", api.ListModels)
	mux.HandleFunc("GET /v2/models/{model}", api.ModelMetadata)
	mux.HandleFunc("GET /v2/models/{model}/ready", api.ModelReady)
	mux.HandleFunc("POST /v2/models/{model}/infer", api.ModelInfer)
	mux.HandleFunc("GET /v2/models/{model}/versions/{version}", api.ModelMetadata)
	mux.HandleFunc("GET /v2/models/{model}/versions/{version}/ready", api.ModelReady)
	mux.HandleFunc("POST /v2/models/{model}/versions/{version}/infer", api.ModelInfer)

	mux.HandleFunc("POST /v2/repository/index", api.RepositoryIndex)
	mux.HandleFunc("GET /v2/repository/index", api.RepositoryIndex)
	mux.HandleFunc("POST /v2/repository/models/{model}/load", api.RepositoryLoad)
	mux.HandleFunc("POST /v2/repository/models/{model}/unload", api.RepositoryUnload)

	mux.HandleFunc("POST /v2/models/{model}/instances", api.CreateInstance)
	mux.HandleFunc("GET /v2/models/{model}/instances", api.ListInstances)
	mux.HandleFunc("DELETE /v2/models/{model}/instances/{instance}", api.DeleteInstance)

	// Health endpoints outside /v2 for k8s compatibility
	mux.HandleFunc("GET /healthz", node.handleHealthz)
	mux.HandleFunc("GET /readyz", node.handleReadyz)
	mux.HandleFunc("GET /api/version", node.handleVersion)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (a *GatewayAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := encoder.NewStreamEncoder(w).Encode(v); err != nil {
		a.logger.Error("encoding response", zap.Error(err))
	}
}

func (a *GatewayAPI) writeError(w http.ResponseWriter, err error) {
	kind := Classify(err)
	a.writeJSON(w, kind.HTTPStatus(), kservev2.ErrorResponse{
		Error: err.Error(),
		Kind:  string(kind),
	})
}

// ServerLive implements GET /v2/health/live
func (a *GatewayAPI) ServerLive(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, kservev2.ServerLiveResponse{Live: true})
}

// ServerReady implements GET /v2/health/ready
func (a *GatewayAPI) ServerReady(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, kservev2.ServerReadyResponse{Ready: a.node.ready.Load()})
}

// ServerMetadata implements GET /v2
func (a *GatewayAPI) ServerMetadata(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, kservev2.ServerMetadataResponse{
		Name:       ServerName,
		Version:    Version,
		Extensions: []string{"model_repository", "sessions"},
	})
}

// ListModels implements GET /v2/models
func (a *GatewayAPI) ListModels(w http.ResponseWriter, r *http.Request) {
	models := a.node.registry.ListModels()
	if models == nil {
		models = []string{}
	}
	a.writeJSON(w, http.StatusOK, kservev2.ModelListResponse{Models: models})
}

// ModelMetadata implements GET /v2/models/{model}[/versions/{version}]
func (a *GatewayAPI) ModelMetadata(w http.ResponseWriter, r *http.Request) {
	resp, err := a.node.modelMetadata(r.PathValue("model"), r.PathValue("version"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// ModelReady implements GET /v2/models/{model}[/versions/{version}]/ready.
// Unknown models report ready=false with a 200, not an error.
func (a *GatewayAPI) ModelReady(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	ready := a.node.modelReady(model, r.PathValue("version"))
	a.writeJSON(w, http.StatusOK, kservev2.ModelReadyResponse{Name: model, Ready: ready})
}

// ModelInfer implements POST /v2/models/{model}[/versions/{version}]/infer
func (a *GatewayAPI) ModelInfer(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	model := r.PathValue("model")
	version := r.PathValue("version")
	start := time.Now()

	// Apply backpressure via request queue
	release, err := a.node.requestQueue.Acquire(r.Context())
	if err != nil {
		switch err {
		case ErrQueueFull:
			RecordQueueRejection()
			WriteQueueFullResponse(w, 5*time.Second)
		case ErrRequestTimeout:
			RecordQueueTimeout()
			WriteTimeoutResponse(w)
		default:
			// Context cancelled
			http.Error(w, "request cancelled", http.StatusRequestTimeout)
		}
		return
	}
	defer release()

	// Update queue metrics
	UpdateQueueMetrics(a.node.requestQueue.Stats())

	var req kservev2.InferenceRequest
	if err := decoder.NewStreamDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, kservev2.ErrorResponse{
			Error: fmt.Sprintf("decoding request: %v", err),
			Kind:  string(KindValidation),
		})
		return
	}

	RecordInferenceRequest(model, "http")

	inputs := make([]tensor.Tensor, 0, len(req.Inputs))
	for _, it := range req.Inputs {
		inputs = append(inputs, it.Tensor())
	}
	outputs := make([]string, 0, len(req.Outputs))
	for _, o := range req.Outputs {
		outputs = append(outputs, o.Name)
	}

	outcome, err := a.node.runInfer(r.Context(), model, version, inferRequest{
		id:         req.ID,
		inputs:     inputs,
		outputs:    outputs,
		parameters: req.Parameters,
	})
	if err != nil {
		kind := Classify(err)
		RecordInferenceError(model, kind)
		RecordRequestDuration("infer", model, "error", time.Since(start).Seconds())
		a.logger.Error("inference request failed",
			zap.String("model", model),
			zap.String("kind", string(kind)),
			zap.Error(err))
		a.writeError(w, err)
		return
	}

	resp := kservev2.InferenceResponse{
		ModelName:    model,
		ModelVersion: outcome.version,
		ID:           outcome.id,
		Outputs:      []kservev2.InferTensor{},
		Parameters:   outcome.params,
	}
	for _, t := range outcome.tensors {
		resp.Outputs = append(resp.Outputs, kservev2.FromTensor(t))
	}

	RecordRequestDuration("infer", model, "success", time.Since(start).Seconds())
	a.writeJSON(w, http.StatusOK, resp)
}

// RepositoryIndex implements POST /v2/repository/index
func (a *GatewayAPI) RepositoryIndex(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	var req kservev2.RepositoryIndexRequest
	if err := decoder.NewStreamDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.writeJSON(w, http.StatusBadRequest, kservev2.ErrorResponse{
			Error: fmt.Sprintf("decoding request: %v", err),
			Kind:  string(KindValidation),
		})
		return
	}

	// The index covers the whole engine catalog; models not currently
	// registered show as UNAVAILABLE until loaded.
	index := []kservev2.RepositoryModelState{}
	for _, m := range engine.Builtins() {
		spec := m.Spec()
		state := kservev2.ModelStateUnavailable
		if a.node.registry.Has(spec.ID) {
			state = kservev2.ModelStateReady
		}
		if req.Ready && state != kservev2.ModelStateReady {
			continue
		}
		index = append(index, kservev2.RepositoryModelState{
			Name:    spec.ID,
			Version: spec.Version,
			State:   state,
		})
	}
	a.writeJSON(w, http.StatusOK, index)
}

// RepositoryLoad implements POST /v2/repository/models/{model}/load
func (a *GatewayAPI) RepositoryLoad(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	if err := a.node.loadModel(model); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, struct{}{})
}

// RepositoryUnload implements POST /v2/repository/models/{model}/unload
func (a *GatewayAPI) RepositoryUnload(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	if err := a.node.unloadModel(model); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, struct{}{})
}

// CreateInstance implements POST /v2/models/{model}/instances
func (a *GatewayAPI) CreateInstance(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	var req kservev2.CreateInstanceRequest
	if err := decoder.NewStreamDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.writeJSON(w, http.StatusBadRequest, kservev2.ErrorResponse{
			Error: fmt.Sprintf("decoding request: %v", err),
			Kind:  string(KindValidation),
		})
		return
	}

	inst, err := a.node.registry.CreateInstance(r.PathValue("model"), req.State)
	if err != nil {
		a.writeError(w, err)
		return
	}
	models, instances := a.node.registry.Counts()
	UpdateRegistryMetrics(models, instances)
	a.writeJSON(w, http.StatusCreated, instanceInfo(inst))
}

// ListInstances implements GET /v2/models/{model}/instances
func (a *GatewayAPI) ListInstances(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	if !a.node.registry.Has(model) {
		a.writeError(w, fmt.Errorf("%w: %q", registry.ErrModelNotFound, model))
		return
	}
	resp := kservev2.InstanceListResponse{Instances: []kservev2.InstanceInfo{}}
	for _, inst := range a.node.registry.ListInstances(model) {
		resp.Instances = append(resp.Instances, instanceInfo(inst))
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// DeleteInstance implements DELETE /v2/models/{model}/instances/{instance}
func (a *GatewayAPI) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	if _, err := a.node.registry.DeleteInstance(r.PathValue("instance")); err != nil {
		a.writeError(w, err)
		return
	}
	models, instances := a.node.registry.Counts()
	UpdateRegistryMetrics(models, instances)
	w.WriteHeader(http.StatusNoContent)
}

func instanceInfo(inst *registry.ModelInstance) kservev2.InstanceInfo {
	return kservev2.InstanceInfo{
		ID:         inst.ID,
		ModelName:  inst.ModelName,
		CreatedAt:  inst.CreatedAt,
		LastUsedAt: inst.LastUsedAt,
	}
}
