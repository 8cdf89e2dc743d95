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

// Package executor bridges registry-resolved instances and the inference
// engine: it merges parameters, invokes the engine, and normalizes the
// engine's result into a flat output map.
package executor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/registry"
)

// DefaultIterations is the iteration count used when neither the model
// defaults nor the call parameters specify one.
const DefaultIterations = 10

// controlKeys are request parameters that steer the gateway itself. They
// are stripped before parameters are handed to the engine as model
// hyperparameters so they cannot leak into model construction.
var controlKeys = map[string]struct{}{
	"iterations":  {},
	"output":      {},
	"outputs":     {},
	"instance_id": {},
	"model_state": {},
	"keep_state":  {},
}

// Options steer a single inference call.
type Options struct {
	// Parameters are the per-call request parameters. They override
	// model-level defaults key by key.
	Parameters map[string]any
	// CarryState copies state the engine produced into the instance
	// after the call, for session-style streaming use.
	CarryState bool
}

// Result is the normalized outcome of one inference call.
type Result struct {
	// Posteriors maps output name to its inferred distribution.
	Posteriors map[string]distribution.Distribution
	// Values holds non-posterior outputs: numeric series, point
	// estimates, or opaque pass-through values.
	Values map[string]any
	// FreeEnergy is set only when the engine computed it.
	FreeEnergy *float64
	// Iterations is set only when the engine reported a count.
	Iterations *int
	// State is carry-forward state the engine produced, nil otherwise.
	State map[string]any
	// Duration is the wall-clock time of the engine call.
	Duration time.Duration
}

// Executor runs inference calls against registry instances.
type Executor struct {
	registry          *registry.Registry
	engine            engine.Engine
	logger            *zap.Logger
	defaultIterations int
}

// New returns an executor. defaultIterations <= 0 selects
// DefaultIterations.
func New(reg *registry.Registry, eng engine.Engine, logger *zap.Logger, defaultIterations int) *Executor {
	if defaultIterations <= 0 {
		defaultIterations = DefaultIterations
	}
	return &Executor{
		registry:          reg,
		engine:            eng,
		logger:            logger.Named("executor"),
		defaultIterations: defaultIterations,
	}
}

// Execute runs inference for an instance. Input must be non-empty; the
// engine's behavior on empty input is undefined, so the boundary rejects
// it before the engine ever sees the call. Engine failures are wrapped as
// *ExecutionError with the model and instance attached, never swallowed.
func (e *Executor) Execute(ctx context.Context, instanceID string, input map[string]any, opts Options) (*Result, error) {
	inst, err := e.registry.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}

	// The model may have been unregistered after the instance was
	// created; that is an error here, not a crash later.
	def, err := e.registry.Lookup(inst.ModelName)
	if err != nil {
		return nil, err
	}

	if len(input) == 0 {
		return nil, ErrEmptyInput
	}

	iterations := e.resolveIterations(def.Parameters, opts.Parameters)
	hyper := mergeParameters(def.Parameters, opts.Parameters)
	if len(inst.State) > 0 {
		hyper[engine.StateKey] = inst.State
	}

	start := time.Now()
	res, err := e.engine.RunInference(ctx, def.Handle, input, hyper, iterations)
	duration := time.Since(start)
	if err != nil {
		execErr := &ExecutionError{Model: def.Name, InstanceID: inst.ID, Err: err}
		e.logger.Error("inference failed",
			zap.String("model", def.Name),
			zap.String("instance", inst.ID),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, execErr
	}

	out := normalize(res, duration)
	if opts.CarryState && out.State != nil {
		inst.State = out.State
	}

	e.logger.Debug("inference complete",
		zap.String("model", def.Name),
		zap.String("instance", inst.ID),
		zap.Duration("duration", duration),
		zap.Int("posteriors", len(out.Posteriors)))
	return out, nil
}

func (e *Executor) resolveIterations(defaults, params map[string]any) int {
	if n, ok := intValue(params["iterations"]); ok && n > 0 {
		return n
	}
	if n, ok := intValue(defaults["iterations"]); ok && n > 0 {
		return n
	}
	return e.defaultIterations
}

// mergeParameters combines model defaults with per-call parameters,
// per-call winning, and strips gateway control keys.
func mergeParameters(defaults, params map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(params))
	for k, v := range defaults {
		if _, control := controlKeys[k]; !control {
			merged[k] = v
		}
	}
	for k, v := range params {
		if _, control := controlKeys[k]; !control {
			merged[k] = v
		}
	}
	return merged
}

// normalize flattens the engine's result through its optional capability
// surfaces. Absent free energy or iterations is normal, not an error.
func normalize(res engine.Result, duration time.Duration) *Result {
	out := &Result{
		Posteriors: res.Posteriors(),
		Values:     map[string]any{},
		Duration:   duration,
	}
	if out.Posteriors == nil {
		out.Posteriors = map[string]distribution.Distribution{}
	}
	if fe, ok := res.FreeEnergy(); ok {
		out.FreeEnergy = &fe
	}
	if n, ok := res.Iterations(); ok {
		out.Iterations = &n
	}
	if vr, ok := res.(engine.ValuedResult); ok {
		for k, v := range vr.Values() {
			out.Values[k] = v
		}
	}
	if sr, ok := res.(engine.StatefulResult); ok {
		if state, ok := sr.State(); ok {
			out.State = state
		}
	}
	return out
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
