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

// gaussianMixture assigns observations to fixed Gaussian components and
// learns the mixing weights by EM, up to the requested iteration count.
// The regime posterior is Categorical over components.
type gaussianMixture struct{}

func init() { registerBuiltin(gaussianMixture{}) }

func (gaussianMixture) Spec() ModelSpec {
	return ModelSpec{
		ID:          "gaussian_mixture",
		Version:     "1.0.0",
		Description: "Gaussian mixture with fixed components for regime detection",
		Defaults: map[string]any{
			"means": []float64{0.0, 2.0, -1.0},
			"stds":  []float64{1.0, 0.5, 1.5},
		},
		Inputs: []TensorSpec{
			{Name: "y", Datatype: tensor.FP64, Shape: []int64{-1}},
		},
		Outputs: []TensorSpec{
			{Name: "z", Datatype: tensor.FP64, Shape: []int64{-1}},
			{Name: "pi", Datatype: tensor.FP64, Shape: []int64{-1}},
			{Name: "posteriors", Datatype: tensor.Bytes, Shape: []int64{1}},
			{Name: "free_energy", Datatype: tensor.FP64, Shape: []int64{1}},
		},
	}
}

func (gaussianMixture) Infer(ctx context.Context, observations map[string]any,
	hyper map[string]any, iterations int) (Result, error) {
	y, err := floatSeries(observations, "y")
	if err != nil {
		return nil, err
	}
	means, err := hyperFloatSlice(hyper, "means", []float64{0.0, 2.0, -1.0})
	if err != nil {
		return nil, err
	}
	stds, err := hyperFloatSlice(hyper, "stds", []float64{1.0, 0.5, 1.5})
	if err != nil {
		return nil, err
	}
	k := len(means)
	if k == 0 || len(stds) != k {
		return nil, fmt.Errorf("means and stds must be non-empty and the same length, got %d and %d", k, len(stds))
	}
	for i, s := range stds {
		if s <= 0 {
			return nil, fmt.Errorf("stds[%d]=%g must be positive", i, s)
		}
	}
	weights, err := hyperFloatSlice(hyper, "weights", uniformWeights(k))
	if err != nil {
		return nil, err
	}
	if len(weights) != k {
		return nil, fmt.Errorf("weights length %d does not match %d components", len(weights), k)
	}
	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("weights[%d]=%g must be positive", i, w)
		}
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrInvalidObservations)
	}
	if iterations < 1 {
		iterations = 1
	}

	// EM over the mixing weights with components held fixed.
	resp := make([][]float64, len(y))
	logp := make([]float64, k)
	var logLik float64
	steps := 0
	for step := 0; step < iterations; step++ {
		steps++
		logLik = 0
		for i, v := range y {
			for j := 0; j < k; j++ {
				logp[j] = math.Log(weights[j]) + logNormPdf(v, means[j], stds[j])
			}
			norm := logSumExp(logp)
			logLik += norm
			row := make([]float64, k)
			for j := 0; j < k; j++ {
				row[j] = math.Exp(logp[j] - norm)
			}
			resp[i] = row
		}

		next := make([]float64, k)
		for _, row := range resp {
			for j, r := range row {
				next[j] += r
			}
		}
		var maxDelta float64
		for j := range next {
			next[j] /= float64(len(y))
			if d := math.Abs(next[j] - weights[j]); d > maxDelta {
				maxDelta = d
			}
		}
		weights = next
		if maxDelta < 1e-8 {
			break
		}
	}

	z := make([]float64, len(y))
	for i, row := range resp {
		best := 0
		for j := 1; j < k; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		z[i] = float64(best)
	}

	return NewOutcome().
		WithPosterior("z", distribution.Categorical{Probs: weights}).
		WithValue("z", z).
		WithValue("pi", weights).
		WithFreeEnergy(-logLik).
		WithIterations(steps), nil
}

func uniformWeights(k int) []float64 {
	w := make([]float64, k)
	for i := range w {
		w[i] = 1 / float64(k)
	}
	return w
}
