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
	"fmt"
)

// floatSeries extracts a 1-D numeric series from decoded observations.
// Scalars are treated as length-1 series.
func floatSeries(observations map[string]any, key string) ([]float64, error) {
	v, ok := observations[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing observation %q", ErrInvalidObservations, key)
	}
	s, ok := toFloatSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: observation %q is not a numeric series", ErrInvalidObservations, key)
	}
	return s, nil
}

// hyperFloat reads a numeric hyperparameter, falling back to def when the
// key is absent.
func hyperFloat(hyper map[string]any, key string, def float64) (float64, error) {
	v, ok := hyper[key]
	if !ok {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("hyperparameter %q is not numeric (got %T)", key, v)
	}
	return f, nil
}

// hyperFloatSlice reads a numeric-array hyperparameter, falling back to
// def when the key is absent.
func hyperFloatSlice(hyper map[string]any, key string, def []float64) ([]float64, error) {
	v, ok := hyper[key]
	if !ok {
		return def, nil
	}
	s, ok := toFloatSlice(v)
	if !ok {
		return nil, fmt.Errorf("hyperparameter %q is not a numeric array (got %T)", key, v)
	}
	return s, nil
}

// carriedState extracts the reserved carry-forward state map from
// hyperparameters, if a previous call produced one.
func carriedState(hyper map[string]any) map[string]any {
	v, ok := hyper[StateKey]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

func stateFloatSlice(state map[string]any, key string) ([]float64, bool) {
	v, ok := state[key]
	if !ok {
		return nil, false
	}
	return toFloatSlice(v)
}

func stateFloatMatrix(state map[string]any, key string) ([][]float64, bool) {
	v, ok := state[key]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case [][]float64:
		return m, true
	case []any:
		out := make([][]float64, len(m))
		for i, row := range m {
			s, ok := toFloatSlice(row)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toFloatSlice(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true
	case []float32:
		out := make([]float64, len(s))
		for i, f := range s {
			out[i] = float64(f)
		}
		return out, true
	case []int64:
		out := make([]float64, len(s))
		for i, n := range s {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(s))
		for i, el := range s {
			f, ok := toFloat(el)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		return []float64{f}, true
	}
}
