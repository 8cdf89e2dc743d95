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

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/tensor"
)

// betaBernoulli infers the success probability of binary trials under a
// Beta prior. The posterior is Beta(alpha+s, beta+n-s); the reported free
// energy is the negative log marginal likelihood (beta-binomial
// evidence).
type betaBernoulli struct{}

func init() { registerBuiltin(betaBernoulli{}) }

func (betaBernoulli) Spec() ModelSpec {
	return ModelSpec{
		ID:          "beta_bernoulli",
		Version:     "1.0.0",
		Description: "Beta-Bernoulli conjugate model for binary trial data",
		Defaults:    map[string]any{"alpha": 1.0, "beta": 1.0},
		Inputs: []TensorSpec{
			{Name: "y", Datatype: tensor.FP64, Shape: []int64{-1}},
		},
		Outputs: []TensorSpec{
			{Name: "posteriors", Datatype: tensor.Bytes, Shape: []int64{1}},
			{Name: "free_energy", Datatype: tensor.FP64, Shape: []int64{1}},
		},
	}
}

func (betaBernoulli) Infer(ctx context.Context, observations map[string]any,
	hyper map[string]any, iterations int) (Result, error) {
	y, err := floatSeries(observations, "y")
	if err != nil {
		return nil, err
	}
	alpha, err := hyperFloat(hyper, "alpha", 1.0)
	if err != nil {
		return nil, err
	}
	beta, err := hyperFloat(hyper, "beta", 1.0)
	if err != nil {
		return nil, err
	}
	if alpha <= 0 || beta <= 0 {
		return nil, fmt.Errorf("prior parameters must be positive, got alpha=%g beta=%g", alpha, beta)
	}

	var successes float64
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: y[%d]=%g is not a Bernoulli trial", ErrInvalidObservations, i, v)
		}
		successes += v
	}
	n := float64(len(y))

	postAlpha := alpha + successes
	postBeta := beta + n - successes
	logEvidence := logBeta(postAlpha, postBeta) - logBeta(alpha, beta)

	return NewOutcome().
		WithPosterior("theta", distribution.Beta{Alpha: postAlpha, Beta: postBeta}).
		WithFreeEnergy(-logEvidence).
		WithIterations(1), nil
}
