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

package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/tensor"
)

// gammaPoisson infers a Poisson rate under a Gamma prior (shape/rate
// parameterization throughout). The evidence is the product of negative-
// binomial one-step predictives.
type gammaPoisson struct{}

func init() { registerBuiltin(gammaPoisson{}) }

func (gammaPoisson) Spec() ModelSpec {
	return ModelSpec{
		ID:          "gamma_poisson",
		Version:     "1.0.0",
		Description: "Gamma-Poisson conjugate model for event-count data",
		Defaults:    map[string]any{"shape": 1.0, "rate": 1.0},
		Inputs: []TensorSpec{
			{Name: "y", Datatype: tensor.FP64, Shape: []int64{-1}},
		},
		Outputs: []TensorSpec{
			{Name: "posteriors", Datatype: tensor.Bytes, Shape: []int64{1}},
			{Name: "free_energy", Datatype: tensor.FP64, Shape: []int64{1}},
		},
	}
}

func (gammaPoisson) Infer(ctx context.Context, observations map[string]any,
	hyper map[string]any, iterations int) (Result, error) {
	y, err := floatSeries(observations, "y")
	if err != nil {
		return nil, err
	}
	shape, err := hyperFloat(hyper, "shape", 1.0)
	if err != nil {
		return nil, err
	}
	rate, err := hyperFloat(hyper, "rate", 1.0)
	if err != nil {
		return nil, err
	}
	if shape <= 0 || rate <= 0 {
		return nil, fmt.Errorf("prior parameters must be positive, got shape=%g rate=%g", shape, rate)
	}

	a, b := shape, rate
	var logEvidence float64
	for i, v := range y {
		if v < 0 || v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: y[%d]=%g is not a count", ErrInvalidObservations, i, v)
		}
		// Negative-binomial predictive density of the next count.
		lgAV, _ := math.Lgamma(a + v)
		lgA, _ := math.Lgamma(a)
		lgV, _ := math.Lgamma(v + 1)
		logEvidence += lgAV - lgA - lgV + a*math.Log(b/(b+1)) - v*math.Log(b+1)
		a += v
		b++
	}

	return NewOutcome().
		WithPosterior("lambda", distribution.Gamma{Shape: a, Rate: b}).
		WithFreeEnergy(-logEvidence).
		WithIterations(1), nil
}
