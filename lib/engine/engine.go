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

// Package engine defines the inference-engine collaborator interface and
// ships a built-in analytic engine for conjugate-prior models, one per
// supported distribution family.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bayesgate/bayesgate/lib/distribution"
)

var (
	// ErrInvalidHandle is returned when a registered model handle is not
	// something the engine can run.
	ErrInvalidHandle = errors.New("invalid model handle")

	// ErrInvalidObservations is returned when observed data fails the
	// model's own domain checks (wrong key, wrong arity, out-of-support
	// values).
	ErrInvalidObservations = errors.New("invalid observations")
)

// Engine runs inference for an opaque model handle against observed data.
// Implementations must not retain observations or hyperparameters past
// the call.
type Engine interface {
	RunInference(ctx context.Context, handle any, observations map[string]any,
		hyperparameters map[string]any, iterations int) (Result, error)
}

// Result is the narrow surface an engine result must expose. The bool
// returns signal presence: not every run computes free energy or tracks
// an iteration count.
type Result interface {
	Posteriors() map[string]distribution.Distribution
	FreeEnergy() (float64, bool)
	Iterations() (int, bool)
}

// ValuedResult is an optional capability for results carrying additional
// named outputs beyond posteriors: numeric series, point estimates, or
// opaque values.
type ValuedResult interface {
	Result
	Values() map[string]any
}

// StatefulResult is an optional capability for results of streaming
// models that produce carry-forward state for the next call.
type StatefulResult interface {
	Result
	State() (map[string]any, bool)
}

// StateKey is the hyperparameter key under which carried-forward state
// from a previous call reaches the model. It is reserved; model-level
// defaults must not use it.
const StateKey = "state"

// Model is what a built-in model handle resolves to: static metadata plus
// the inference routine itself.
type Model interface {
	Spec() ModelSpec
	Infer(ctx context.Context, observations map[string]any,
		hyperparameters map[string]any, iterations int) (Result, error)
}

// Analytic is the built-in engine. It dispatches to Model handles; every
// built-in computes its posterior in closed form, so calls are fast and
// never iterate to convergence.
type Analytic struct {
	logger *zap.Logger
}

// NewAnalytic returns the built-in engine.
func NewAnalytic(logger *zap.Logger) *Analytic {
	return &Analytic{logger: logger.Named("engine")}
}

var _ Engine = (*Analytic)(nil)

// RunInference implements Engine.
func (e *Analytic) RunInference(ctx context.Context, handle any, observations map[string]any,
	hyperparameters map[string]any, iterations int) (Result, error) {
	model, ok := handle.(Model)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidHandle, handle)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := model.Infer(ctx, observations, hyperparameters, iterations)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("inference complete",
		zap.String("model", model.Spec().ID),
		zap.Int("posteriors", len(res.Posteriors())))
	return res, nil
}
