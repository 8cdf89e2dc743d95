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

// Package client provides a Go client for the Bayesgate inference
// gateway's REST API. It speaks the KServe v2 protocol plus the
// gateway's repository and instance extensions, and includes helpers
// for decoding distribution envelopes out of inference responses.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/kservev2"
)

// GatewayClient is a client for the Bayesgate REST API.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*GatewayClient)

// WithAPIKey sends the key in the X-API-Key header on every request.
func WithAPIKey(key string) Option {
	return func(gc *GatewayClient) { gc.apiKey = key }
}

// NewGatewayClient creates a new client for the Bayesgate API.
// baseURL should be the root URL of the gateway (e.g., "http://localhost:8080").
// If httpClient is nil, http.DefaultClient is used.
func NewGatewayClient(baseURL string, httpClient *http.Client, opts ...Option) (*GatewayClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	gc := &GatewayClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(gc)
	}
	return gc, nil
}

// APIError is a non-2xx response from the gateway. Kind carries the
// gateway's stable error taxonomy value when the body included one.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return fmt.Sprintf("bad request: %s", e.Message)
	case http.StatusUnauthorized:
		return fmt.Sprintf("unauthorized: %s", e.Message)
	case http.StatusNotFound:
		return fmt.Sprintf("not found: %s", e.Message)
	case http.StatusTooManyRequests:
		return fmt.Sprintf("too many requests: %s", e.Message)
	case http.StatusInternalServerError:
		return fmt.Sprintf("server error: %s", e.Message)
	case http.StatusServiceUnavailable:
		return fmt.Sprintf("service unavailable: %s", e.Message)
	case http.StatusGatewayTimeout:
		return fmt.Sprintf("inference timed out: %s", e.Message)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Message)
}

// ServerMetadata returns the gateway's name, version and supported
// protocol extensions.
func (gc *GatewayClient) ServerMetadata(ctx context.Context) (*kservev2.ServerMetadataResponse, error) {
	var out kservev2.ServerMetadataResponse
	if err := gc.do(ctx, http.MethodGet, "/v2", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServerLive reports whether the gateway process is up.
func (gc *GatewayClient) ServerLive(ctx context.Context) (bool, error) {
	var out kservev2.ServerLiveResponse
	if err := gc.do(ctx, http.MethodGet, "/v2/health/live", nil, &out); err != nil {
		return false, err
	}
	return out.Live, nil
}

// ServerReady reports whether the gateway is ready to serve inference.
func (gc *GatewayClient) ServerReady(ctx context.Context) (bool, error) {
	var out kservev2.ServerReadyResponse
	if err := gc.do(ctx, http.MethodGet, "/v2/health/ready", nil, &out); err != nil {
		return false, err
	}
	return out.Ready, nil
}

// ListModels returns the names of all registered models, sorted.
func (gc *GatewayClient) ListModels(ctx context.Context) ([]string, error) {
	var out kservev2.ModelListResponse
	if err := gc.do(ctx, http.MethodGet, "/v2/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// ModelMetadata returns a model's declared inputs, outputs and
// platform. Pass version "" to resolve whatever version is registered.
func (gc *GatewayClient) ModelMetadata(ctx context.Context, model, version string) (*kservev2.ModelMetadataResponse, error) {
	var out kservev2.ModelMetadataResponse
	if err := gc.do(ctx, http.MethodGet, modelPath(model, version, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModelReady reports whether a model is loaded and ready. An unknown
// model reports not ready rather than an error.
func (gc *GatewayClient) ModelReady(ctx context.Context, model, version string) (bool, error) {
	var out kservev2.ModelReadyResponse
	if err := gc.do(ctx, http.MethodGet, modelPath(model, version, "ready"), nil, &out); err != nil {
		return false, err
	}
	return out.Ready, nil
}

// Infer runs one inference request against a model. Pass version "" to
// use whatever version is registered.
func (gc *GatewayClient) Infer(ctx context.Context, model, version string, req kservev2.InferenceRequest) (*kservev2.InferenceResponse, error) {
	var out kservev2.InferenceResponse
	if err := gc.do(ctx, http.MethodPost, modelPath(model, version, "infer"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InferObservations is a convenience wrapper for the common call shape
// of a single "y" observation vector.
func (gc *GatewayClient) InferObservations(ctx context.Context, model string, y []float64, parameters map[string]any) (*kservev2.InferenceResponse, error) {
	return gc.Infer(ctx, model, "", kservev2.InferenceRequest{
		Inputs:     []kservev2.InferTensor{FP64Input("y", y)},
		Parameters: parameters,
	})
}

// RepositoryIndex returns the engine catalog with each model's load
// state. With readyOnly, entries not currently loaded are omitted.
func (gc *GatewayClient) RepositoryIndex(ctx context.Context, readyOnly bool) ([]kservev2.RepositoryModelState, error) {
	var out []kservev2.RepositoryModelState
	req := kservev2.RepositoryIndexRequest{Ready: readyOnly}
	if err := gc.do(ctx, http.MethodPost, "/v2/repository/index", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadModel registers a catalog model with the gateway.
func (gc *GatewayClient) LoadModel(ctx context.Context, model string) error {
	return gc.do(ctx, http.MethodPost, "/v2/repository/models/"+url.PathEscape(model)+"/load", nil, nil)
}

// UnloadModel removes a model from the gateway's registry. The model
// stays in the catalog and can be loaded again.
func (gc *GatewayClient) UnloadModel(ctx context.Context, model string) error {
	return gc.do(ctx, http.MethodPost, "/v2/repository/models/"+url.PathEscape(model)+"/unload", nil, nil)
}

// CreateInstance creates a session instance of a model. state seeds
// the instance; nil starts it empty.
func (gc *GatewayClient) CreateInstance(ctx context.Context, model string, state map[string]any) (*kservev2.InstanceInfo, error) {
	var out kservev2.InstanceInfo
	req := kservev2.CreateInstanceRequest{State: state}
	if err := gc.do(ctx, http.MethodPost, modelPath(model, "", "instances"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInstances returns a model's live session instances.
func (gc *GatewayClient) ListInstances(ctx context.Context, model string) ([]kservev2.InstanceInfo, error) {
	var out kservev2.InstanceListResponse
	if err := gc.do(ctx, http.MethodGet, modelPath(model, "", "instances"), nil, &out); err != nil {
		return nil, err
	}
	return out.Instances, nil
}

// DeleteInstance removes a session instance and its carried state.
func (gc *GatewayClient) DeleteInstance(ctx context.Context, model, instanceID string) error {
	path := modelPath(model, "", "instances") + "/" + url.PathEscape(instanceID)
	return gc.do(ctx, http.MethodDelete, path, nil, nil)
}

// VersionInfo is the gateway's build information.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the gateway's build information.
func (gc *GatewayClient) GetVersion(ctx context.Context) (*VersionInfo, error) {
	var out VersionInfo
	if err := gc.do(ctx, http.MethodGet, "/api/version", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FP64Input builds a one-dimensional FP64 input tensor from a float
// slice.
func FP64Input(name string, data []float64) kservev2.InferTensor {
	boxed := make([]any, len(data))
	for i, v := range data {
		boxed[i] = v
	}
	return kservev2.InferTensor{
		Name:     name,
		Datatype: "FP64",
		Shape:    []int64{int64(len(data))},
		Data:     boxed,
	}
}

// Posteriors decodes the posteriors output of an inference response
// into typed distributions, keyed by latent variable name.
func Posteriors(resp *kservev2.InferenceResponse) (map[string]distribution.Distribution, error) {
	for _, out := range resp.Outputs {
		if out.Name != "posteriors" {
			continue
		}
		if len(out.Data) == 0 {
			return nil, fmt.Errorf("posteriors output is empty")
		}
		raw, ok := out.Data[0].(string)
		if !ok {
			return nil, fmt.Errorf("posteriors output is not BYTES data")
		}
		return distribution.UnmarshalMap([]byte(raw))
	}
	return nil, fmt.Errorf("response has no posteriors output")
}

// FreeEnergy returns the scalar free energy output, if present.
func FreeEnergy(resp *kservev2.InferenceResponse) (float64, bool) {
	for _, out := range resp.Outputs {
		if out.Name != "free_energy" {
			continue
		}
		if len(out.Data) == 0 {
			return 0, false
		}
		v, ok := out.Data[0].(float64)
		return v, ok
	}
	return 0, false
}

// ModelState returns the carried model state parameter from a session
// response, if the model produced one.
func ModelState(resp *kservev2.InferenceResponse) (string, bool) {
	s, ok := resp.Parameters["model_state"].(string)
	return s, ok
}

// modelPath builds /v2/models/{model}[/versions/{version}][/suffix].
func modelPath(model, version, suffix string) string {
	p := "/v2/models/" + url.PathEscape(model)
	if version != "" {
		p += "/versions/" + url.PathEscape(version)
	}
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// do sends one request and decodes a 2xx JSON body into out. A nil out
// drains the body. Non-2xx responses come back as *APIError.
func (gc *GatewayClient) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, gc.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if gc.apiKey != "" {
		req.Header.Set("X-API-Key", gc.apiKey)
	}

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// readAPIError turns a non-2xx response into an *APIError, falling
// back to the raw body when it is not a structured error.
func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		apiErr.Message = resp.Status
		return apiErr
	}
	var body kservev2.ErrorResponse
	if err := sonic.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Kind = body.Kind
		apiErr.Message = body.Error
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}
