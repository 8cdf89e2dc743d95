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

package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/registry"
)

type stubEngine struct {
	result engine.Result
	err    error

	calls         int
	gotHandle     any
	gotObs        map[string]any
	gotHyper      map[string]any
	gotIterations int
}

func (s *stubEngine) RunInference(_ context.Context, handle any, observations map[string]any,
	hyperparameters map[string]any, iterations int) (engine.Result, error) {
	s.calls++
	s.gotHandle = handle
	s.gotObs = observations
	s.gotHyper = hyperparameters
	s.gotIterations = iterations
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestExecutor(t *testing.T, eng engine.Engine) (*Executor, *registry.Registry) {
	t.Helper()
	reg := registry.New(zap.NewNop())
	return New(reg, eng, zap.NewNop(), 0), reg
}

func registerInstance(t *testing.T, reg *registry.Registry, model string, defaults map[string]any) string {
	t.Helper()
	reg.Register(model, "handle:"+model, "1.0.0", "", defaults)
	inst, err := reg.CreateInstance(model, nil)
	require.NoError(t, err)
	return inst.ID
}

func TestExecuteMergesParameters(t *testing.T) {
	stub := &stubEngine{
		result: engine.NewOutcome().
			WithPosterior("theta", distribution.Beta{Alpha: 4, Beta: 3}).
			WithFreeEnergy(-1.5).
			WithIterations(1),
	}
	exec, reg := newTestExecutor(t, stub)
	id := registerInstance(t, reg, "beta_bernoulli", map[string]any{
		"alpha":      2.0,
		"beta":       2.0,
		"iterations": 5,
	})

	res, err := exec.Execute(context.Background(), id, map[string]any{"y": []float64{1, 0, 1}}, Options{
		Parameters: map[string]any{"beta": 7.0},
	})
	require.NoError(t, err)

	assert.Equal(t, "handle:beta_bernoulli", stub.gotHandle)
	assert.Equal(t, 5, stub.gotIterations, "model default iterations should apply")
	assert.Equal(t, 2.0, stub.gotHyper["alpha"])
	assert.Equal(t, 7.0, stub.gotHyper["beta"], "per-call parameter wins over default")
	assert.NotContains(t, stub.gotHyper, "iterations", "control keys never reach the engine")

	require.Contains(t, res.Posteriors, "theta")
	require.NotNil(t, res.FreeEnergy)
	assert.InDelta(t, -1.5, *res.FreeEnergy, 1e-12)
	require.NotNil(t, res.Iterations)
	assert.Equal(t, 1, *res.Iterations)
	assert.NotNil(t, res.Values)
	assert.Empty(t, res.Values)
}

func TestExecuteIterationsResolution(t *testing.T) {
	tests := []struct {
		name     string
		defaults map[string]any
		params   map[string]any
		want     int
	}{
		{"per-call wins", map[string]any{"iterations": 5}, map[string]any{"iterations": 3}, 3},
		{"defaults apply", map[string]any{"iterations": 5}, nil, 5},
		{"fallback", nil, nil, DefaultIterations},
		{"json float accepted", nil, map[string]any{"iterations": float64(8)}, 8},
		{"non-positive ignored", nil, map[string]any{"iterations": 0}, DefaultIterations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubEngine{result: engine.NewOutcome()}
			exec, reg := newTestExecutor(t, stub)
			id := registerInstance(t, reg, "m", tt.defaults)

			_, err := exec.Execute(context.Background(), id, map[string]any{"y": 1.0}, Options{Parameters: tt.params})
			require.NoError(t, err)
			assert.Equal(t, tt.want, stub.gotIterations)
		})
	}
}

func TestExecuteControlKeysStripped(t *testing.T) {
	stub := &stubEngine{result: engine.NewOutcome()}
	exec, reg := newTestExecutor(t, stub)
	id := registerInstance(t, reg, "m", map[string]any{"outputs": "stale"})

	_, err := exec.Execute(context.Background(), id, map[string]any{"y": 1.0}, Options{
		Parameters: map[string]any{
			"instance_id": "abc",
			"model_state": "{}",
			"keep_state":  true,
			"output":      "x",
			"sigma":       0.5,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"sigma": 0.5}, stub.gotHyper)
}

func TestExecuteInstanceNotFound(t *testing.T) {
	exec, _ := newTestExecutor(t, &stubEngine{result: engine.NewOutcome()})

	_, err := exec.Execute(context.Background(), "nope", map[string]any{"y": 1.0}, Options{})
	assert.ErrorIs(t, err, registry.ErrInstanceNotFound)
}

func TestExecuteModelUnregisteredAfterInstanceCreated(t *testing.T) {
	stub := &stubEngine{result: engine.NewOutcome()}
	exec, reg := newTestExecutor(t, stub)
	id := registerInstance(t, reg, "m", nil)
	require.True(t, reg.Unregister("m"))

	_, err := exec.Execute(context.Background(), id, map[string]any{"y": 1.0}, Options{})
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
	assert.Zero(t, stub.calls)
}

func TestExecuteEmptyInput(t *testing.T) {
	stub := &stubEngine{result: engine.NewOutcome()}
	exec, reg := newTestExecutor(t, stub)
	id := registerInstance(t, reg, "m", nil)

	_, err := exec.Execute(context.Background(), id, nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = exec.Execute(context.Background(), id, map[string]any{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, stub.calls)
}

func TestExecuteWrapsEngineErrors(t *testing.T) {
	boom := errors.New("graph diverged")
	exec, reg := newTestExecutor(t, &stubEngine{err: boom})
	id := registerInstance(t, reg, "kalman", nil)

	_, err := exec.Execute(context.Background(), id, map[string]any{"y": 1.0}, Options{})
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "kalman", execErr.Model)
	assert.Equal(t, id, execErr.InstanceID)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "kalman")
}

func TestExecuteStateThreading(t *testing.T) {
	newState := map[string]any{"mean": []float64{1, 2}}
	stub := &stubEngine{result: engine.NewOutcome().WithState(newState)}
	exec, reg := newTestExecutor(t, stub)
	id := registerInstance(t, reg, "m", nil)

	// First call: no prior state, CarryState writes the engine's state back.
	_, err := exec.Execute(context.Background(), id, map[string]any{"y": 1.0}, Options{CarryState: true})
	require.NoError(t, err)
	assert.NotContains(t, stub.gotHyper, engine.StateKey)

	// Second call sees the carried state as a hyperparameter.
	_, err = exec.Execute(context.Background(), id, map[string]any{"y": 2.0}, Options{CarryState: true})
	require.NoError(t, err)
	assert.Equal(t, newState, stub.gotHyper[engine.StateKey])
}

func TestExecuteStateNotCarriedByDefault(t *testing.T) {
	stub := &stubEngine{result: engine.NewOutcome().WithState(map[string]any{"k": 1.0})}
	exec, reg := newTestExecutor(t, stub)
	id := registerInstance(t, reg, "m", nil)

	res, err := exec.Execute(context.Background(), id, map[string]any{"y": 1.0}, Options{})
	require.NoError(t, err)
	assert.NotNil(t, res.State, "state is still reported to the caller")

	_, err = exec.Execute(context.Background(), id, map[string]any{"y": 2.0}, Options{})
	require.NoError(t, err)
	assert.NotContains(t, stub.gotHyper, engine.StateKey)
}

func TestExecuteNormalizesValues(t *testing.T) {
	stub := &stubEngine{result: engine.NewOutcome().
		WithValue("x", [][]float64{{1, 2}}).
		WithValue("pi", []float64{0.2, 0.8})}
	exec, reg := newTestExecutor(t, stub)
	id := registerInstance(t, reg, "m", nil)

	res, err := exec.Execute(context.Background(), id, map[string]any{"y": 1.0}, Options{})
	require.NoError(t, err)

	assert.Nil(t, res.FreeEnergy)
	assert.Nil(t, res.Iterations)
	assert.Len(t, res.Values, 2)
	assert.Equal(t, [][]float64{{1, 2}}, res.Values["x"])
	assert.NotNil(t, res.Posteriors)
	assert.GreaterOrEqual(t, res.Duration, time.Duration(0))
}
