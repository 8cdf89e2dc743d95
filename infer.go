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
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/executor"
	"github.com/bayesgate/bayesgate/lib/kservev2"
	"github.com/bayesgate/bayesgate/lib/registry"
	"github.com/bayesgate/bayesgate/lib/tensor"
)

// ErrInvalidParameter is returned for request parameters that fail to
// parse, such as a model_state value that is not a JSON object.
var ErrInvalidParameter = errors.New("invalid request parameter")

// inferRequest is the transport-neutral shape of one inference call.
// Both routers decode their wire format into this and hand it to
// runInfer, so REST and gRPC cannot drift apart semantically.
type inferRequest struct {
	id      string
	inputs  []tensor.Tensor
	outputs []string
	// parameters carries hyperparameter overrides plus the control keys
	// instance_id, model_state and keep_state.
	parameters map[string]any
}

// inferOutcome is the transport-neutral result of one inference call.
type inferOutcome struct {
	id      string
	version string
	tensors []tensor.Tensor
	params  map[string]any
}

// runInfer executes one inference call end to end: resolve the model,
// decode inputs, pick the instance strategy, run the executor, and
// serialize the result. Errors come back unclassified; each router maps
// them to its transport's status codes via Classify.
func (gn *GatewayNode) runInfer(ctx context.Context, modelName, version string, req inferRequest) (*inferOutcome, error) {
	def, err := gn.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}
	if version != "" && def.Version != version {
		return nil, fmt.Errorf("%w: %s version %s", registry.ErrModelNotFound, modelName, version)
	}

	input := make(map[string]any, len(req.inputs))
	for _, t := range req.inputs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		v, err := tensor.Decode(t)
		if err != nil {
			return nil, err
		}
		input[t.Name] = v
	}

	instanceID, _ := req.parameters["instance_id"].(string)
	initialState, err := stateParam(req.parameters["model_state"])
	if err != nil {
		return nil, err
	}

	if gn.inferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gn.inferenceTimeout)
		defer cancel()
	}

	opts := executor.Options{Parameters: req.parameters}
	var res *executor.Result
	var cached bool
	switch {
	case instanceID != "":
		// Session call: state carries forward unless keep_state is
		// explicitly false.
		keep, set := boolParam(req.parameters["keep_state"])
		opts.CarryState = !set || keep
		res, err = gn.executor.Execute(ctx, instanceID, input, opts)
	case initialState == nil:
		// Stateless call, the cacheable path. A nil cache passes
		// through to fn.
		res, cached, err = gn.posteriorCache.Do(modelName, input, req.parameters, func() (*executor.Result, error) {
			return gn.executeEphemeral(ctx, modelName, nil, input, opts)
		})
		if gn.posteriorCache != nil {
			if cached {
				RecordCacheHit("posterior")
			} else {
				RecordCacheMiss("posterior")
			}
		}
	default:
		res, err = gn.executeEphemeral(ctx, modelName, initialState, input, opts)
	}
	if err != nil {
		return nil, err
	}

	tensors, err := serializeResult(res, req.outputs)
	if err != nil {
		return nil, err
	}

	params := map[string]any{}
	if res.State != nil {
		stateJSON, err := sonic.Marshal(res.State)
		if err != nil {
			return nil, fmt.Errorf("marshaling model state: %w", err)
		}
		params["model_state"] = string(stateJSON)
	}
	if cached {
		params["cached"] = true
	}
	if len(params) == 0 {
		params = nil
	}

	id := req.id
	if id == "" {
		id = uuid.NewString()
	}
	return &inferOutcome{
		id:      id,
		version: def.Version,
		tensors: tensors,
		params:  params,
	}, nil
}

// executeEphemeral runs one inference on a throwaway instance. The
// instance is deleted on every exit path, success or failure, so
// ephemeral calls can never leak registry entries.
func (gn *GatewayNode) executeEphemeral(ctx context.Context, modelName string, initialState map[string]any, input map[string]any, opts executor.Options) (*executor.Result, error) {
	inst, err := gn.registry.CreateInstance(modelName, initialState)
	if err != nil {
		return nil, err
	}
	defer func() { _, _ = gn.registry.DeleteInstance(inst.ID) }()
	return gn.executor.Execute(ctx, inst.ID, input, opts)
}

// serializeResult turns an executor result into response tensors:
// posteriors as one BYTES tensor of envelope JSON, free energy as a
// scalar FP64 tensor, and remaining named values as their own tensors.
// When the request names specific outputs, everything else is omitted;
// requested names the result lacks are omitted too, never zero-filled.
func serializeResult(res *executor.Result, requested []string) ([]tensor.Tensor, error) {
	want := func(name string) bool {
		if len(requested) == 0 {
			return true
		}
		for _, r := range requested {
			if r == name {
				return true
			}
		}
		return false
	}

	var out []tensor.Tensor
	if len(res.Posteriors) > 0 && want("posteriors") {
		data, err := distribution.MarshalMap(res.Posteriors)
		if err != nil {
			return nil, fmt.Errorf("marshaling posteriors: %w", err)
		}
		out = append(out, tensor.Tensor{
			Name:     "posteriors",
			Datatype: tensor.Bytes,
			Shape:    []int64{1},
			Data:     []any{string(data)},
		})
	}
	if res.FreeEnergy != nil && want("free_energy") {
		out = append(out, tensor.Tensor{
			Name:     "free_energy",
			Datatype: tensor.FP64,
			Shape:    []int64{1},
			Data:     []any{*res.FreeEnergy},
		})
	}

	names := make([]string, 0, len(res.Values))
	for name := range res.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !want(name) {
			continue
		}
		t, err := tensor.Encode(name, res.Values[name])
		if err != nil {
			return nil, fmt.Errorf("encoding value %q: %w", name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// modelMetadata resolves a model's metadata, shared by both routers.
// Built-in handles expose their declared tensor specs; anything else
// gets name and version only.
func (gn *GatewayNode) modelMetadata(modelName, version string) (kservev2.ModelMetadataResponse, error) {
	def, err := gn.registry.Lookup(modelName)
	if err != nil {
		return kservev2.ModelMetadataResponse{}, err
	}
	if version != "" && def.Version != version {
		return kservev2.ModelMetadataResponse{}, fmt.Errorf("%w: %s version %s", registry.ErrModelNotFound, modelName, version)
	}

	resp := kservev2.ModelMetadataResponse{
		Name:     def.Name,
		Platform: "custom",
		Inputs:   []kservev2.TensorMetadata{},
		Outputs:  []kservev2.TensorMetadata{},
	}
	if def.Version != "" {
		resp.Versions = []string{def.Version}
	}
	if m, ok := def.Handle.(engine.Model); ok {
		spec := m.Spec()
		resp.Platform = engine.Platform
		for _, ts := range spec.Inputs {
			resp.Inputs = append(resp.Inputs, kservev2.TensorMetadata{
				Name: ts.Name, Datatype: string(ts.Datatype), Shape: ts.Shape,
			})
		}
		for _, ts := range spec.Outputs {
			resp.Outputs = append(resp.Outputs, kservev2.TensorMetadata{
				Name: ts.Name, Datatype: string(ts.Datatype), Shape: ts.Shape,
			})
		}
	}
	return resp, nil
}

// modelReady reports whether a model is registered (and, when a version
// is given, whether the registered version matches).
func (gn *GatewayNode) modelReady(modelName, version string) bool {
	def, err := gn.registry.Lookup(modelName)
	if err != nil {
		return false
	}
	return version == "" || def.Version == version
}

// stateParam parses the model_state request parameter. gRPC clients send
// a JSON string; REST clients may inline the object directly.
func stateParam(v any) (map[string]any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		if s == "" {
			return nil, nil
		}
		var state map[string]any
		if err := sonic.UnmarshalString(s, &state); err != nil {
			return nil, fmt.Errorf("%w: model_state: %v", ErrInvalidParameter, err)
		}
		return state, nil
	case map[string]any:
		return s, nil
	}
	return nil, fmt.Errorf("%w: model_state must be a JSON object or string", ErrInvalidParameter)
}

func boolParam(v any) (value, set bool) {
	b, ok := v.(bool)
	return b, ok
}
