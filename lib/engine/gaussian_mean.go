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

// gaussianMean infers the unknown mean of Gaussian observations with
// known noise, under a Gaussian prior. The evidence is accumulated
// sequentially from one-step-ahead predictive densities, which equals
// the closed-form marginal likelihood.
type gaussianMean struct{}

func init() { registerBuiltin(gaussianMean{}) }

func (gaussianMean) Spec() ModelSpec {
	return ModelSpec{
		ID:          "gaussian_mean",
		Version:     "1.0.0",
		Description: "Normal-Normal conjugate model for the mean of Gaussian data with known noise",
		Defaults: map[string]any{
			"prior_mean": 0.0,
			"prior_std":  10.0,
			"sigma":      1.0,
		},
		Inputs: []TensorSpec{
			{Name: "y", Datatype: tensor.FP64, Shape: []int64{-1}},
		},
		Outputs: []TensorSpec{
			{Name: "posteriors", Datatype: tensor.Bytes, Shape: []int64{1}},
			{Name: "free_energy", Datatype: tensor.FP64, Shape: []int64{1}},
		},
	}
}

func (gaussianMean) Infer(ctx context.Context, observations map[string]any,
	hyper map[string]any, iterations int) (Result, error) {
	y, err := floatSeries(observations, "y")
	if err != nil {
		return nil, err
	}
	m, err := hyperFloat(hyper, "prior_mean", 0.0)
	if err != nil {
		return nil, err
	}
	s, err := hyperFloat(hyper, "prior_std", 10.0)
	if err != nil {
		return nil, err
	}
	sigma, err := hyperFloat(hyper, "sigma", 1.0)
	if err != nil {
		return nil, err
	}
	if s <= 0 || sigma <= 0 {
		return nil, fmt.Errorf("prior_std and sigma must be positive, got prior_std=%g sigma=%g", s, sigma)
	}

	s2 := s * s
	sigma2 := sigma * sigma
	var logEvidence float64
	for _, v := range y {
		logEvidence += logNormPdf(v, m, math.Sqrt(sigma2+s2))
		post := 1 / (1/s2 + 1/sigma2)
		m = post * (m/s2 + v/sigma2)
		s2 = post
	}

	return NewOutcome().
		WithPosterior("mu", distribution.Normal{Mean: m, Std: math.Sqrt(s2)}).
		WithFreeEnergy(-logEvidence).
		WithIterations(1), nil
}
