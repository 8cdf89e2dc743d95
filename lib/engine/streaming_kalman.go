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

// streamingKalman runs a two-state (position, velocity) linear-Gaussian
// filter over scalar position observations. Filter state carries forward
// between calls, so a client can stream batches indefinitely; each call
// also emits the per-step filtered means as the numeric output "x".
type streamingKalman struct{}

func init() { registerBuiltin(streamingKalman{}) }

func (streamingKalman) Spec() ModelSpec {
	return ModelSpec{
		ID:          "streaming_kalman",
		Version:     "1.0.0",
		Description: "Streaming Kalman filter tracking position and velocity from noisy positions",
		Defaults: map[string]any{
			"dt":            1.0,
			"process_noise": []float64{0.01, 0.001},
			"obs_noise":     0.01,
		},
		Inputs: []TensorSpec{
			{Name: "y", Datatype: tensor.FP64, Shape: []int64{-1}},
		},
		Outputs: []TensorSpec{
			{Name: "x", Datatype: tensor.FP64, Shape: []int64{-1, 2}},
			{Name: "posteriors", Datatype: tensor.Bytes, Shape: []int64{1}},
			{Name: "free_energy", Datatype: tensor.FP64, Shape: []int64{1}},
		},
	}
}

func (streamingKalman) Infer(ctx context.Context, observations map[string]any,
	hyper map[string]any, iterations int) (Result, error) {
	y, err := floatSeries(observations, "y")
	if err != nil {
		return nil, err
	}
	dt, err := hyperFloat(hyper, "dt", 1.0)
	if err != nil {
		return nil, err
	}
	q, err := hyperFloatSlice(hyper, "process_noise", []float64{0.01, 0.001})
	if err != nil {
		return nil, err
	}
	r, err := hyperFloat(hyper, "obs_noise", 0.01)
	if err != nil {
		return nil, err
	}
	if dt <= 0 || r <= 0 || len(q) != 2 || q[0] <= 0 || q[1] <= 0 {
		return nil, fmt.Errorf("kalman noise parameters out of range: dt=%g process_noise=%v obs_noise=%g", dt, q, r)
	}

	// Resume from carried state when present, otherwise start from a
	// broad prior over position.
	m := []float64{0, 0}
	p := [][]float64{{10, 0}, {0, 1}}
	if state := carriedState(hyper); state != nil {
		if sm, ok := stateFloatSlice(state, "mean"); ok && len(sm) == 2 {
			m = []float64{sm[0], sm[1]}
		}
		if sp, ok := stateFloatMatrix(state, "covariance"); ok && validCov2(sp) {
			p = [][]float64{{sp[0][0], sp[0][1]}, {sp[1][0], sp[1][1]}}
		}
	}

	xs := make([][]float64, 0, len(y))
	var logLik float64
	for _, obs := range y {
		// Predict through the constant-velocity transition.
		pm0 := m[0] + dt*m[1]
		pm1 := m[1]
		p00 := p[0][0] + dt*(p[1][0]+p[0][1]) + dt*dt*p[1][1] + q[0]
		p01 := p[0][1] + dt*p[1][1]
		p10 := p[1][0] + dt*p[1][1]
		p11 := p[1][1] + q[1]

		// Scalar innovation update.
		s := p00 + r
		logLik += logNormPdf(obs, pm0, math.Sqrt(s))
		k0 := p00 / s
		k1 := p10 / s
		v := obs - pm0

		m[0] = pm0 + k0*v
		m[1] = pm1 + k1*v
		p = [][]float64{
			{(1 - k0) * p00, (1 - k0) * p01},
			{p10 - k1*p00, p11 - k1*p01},
		}

		xs = append(xs, []float64{m[0], m[1]})
	}

	state := map[string]any{
		"mean":       []float64{m[0], m[1]},
		"covariance": p,
	}

	return NewOutcome().
		WithPosterior("x", distribution.MultivariateNormal{
			Mean:       []float64{m[0], m[1]},
			Covariance: p,
		}).
		WithValue("x", xs).
		WithFreeEnergy(-logLik).
		WithIterations(len(y)).
		WithState(state), nil
}

func validCov2(p [][]float64) bool {
	return len(p) == 2 && len(p[0]) == 2 && len(p[1]) == 2
}
