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

package distribution

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Envelope is the wire form of a distribution: a family type tag, a
// family-specific parameter map, and an optional dimensionality for
// multivariate families (nil for univariate).
type Envelope struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
	Dimensions *int64         `json:"dimensions,omitempty"`
}

// JSON serializes the envelope.
func (e Envelope) JSON() ([]byte, error) {
	return sonic.Marshal(e)
}

// ParseEnvelopeJSON decodes a JSON envelope and resolves it to a concrete
// distribution.
func ParseEnvelopeJSON(data []byte) (Distribution, error) {
	var e Envelope
	if err := sonic.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return ParseEnvelope(e)
}

// ParseEnvelope resolves an envelope to a concrete distribution. Unknown
// type tags fail with ErrUnsupportedDistribution; malformed or missing
// parameters fail with ErrInvalidEnvelope. There is no default family.
func ParseEnvelope(e Envelope) (Distribution, error) {
	switch Kind(e.Type) {
	case KindNormal:
		mean, err := floatParam(e, "mean")
		if err != nil {
			return nil, err
		}
		std, err := floatParam(e, "std")
		if err != nil {
			return nil, err
		}
		if std <= 0 {
			return nil, fmt.Errorf("%w: Normal std must be positive, got %g", ErrInvalidEnvelope, std)
		}
		return Normal{Mean: mean, Std: std}, nil

	case KindMultivariateNormal:
		mean, err := floatSliceParam(e, "mean")
		if err != nil {
			return nil, err
		}
		cov, err := floatMatrixParam(e, "covariance")
		if err != nil {
			return nil, err
		}
		if len(mean) == 0 {
			return nil, fmt.Errorf("%w: MultivariateNormal mean is empty", ErrInvalidEnvelope)
		}
		if len(cov) != len(mean) {
			return nil, fmt.Errorf("%w: covariance has %d rows for %d dimensions",
				ErrInvalidEnvelope, len(cov), len(mean))
		}
		for i, row := range cov {
			if len(row) != len(mean) {
				return nil, fmt.Errorf("%w: covariance row %d has %d columns for %d dimensions",
					ErrInvalidEnvelope, i, len(row), len(mean))
			}
		}
		return MultivariateNormal{Mean: mean, Covariance: cov}, nil

	case KindBeta:
		alpha, err := floatParam(e, "alpha")
		if err != nil {
			return nil, err
		}
		beta, err := floatParam(e, "beta")
		if err != nil {
			return nil, err
		}
		if alpha <= 0 || beta <= 0 {
			return nil, fmt.Errorf("%w: Beta parameters must be positive, got alpha=%g beta=%g",
				ErrInvalidEnvelope, alpha, beta)
		}
		return Beta{Alpha: alpha, Beta: beta}, nil

	case KindGamma:
		shape, err := floatParam(e, "shape")
		if err != nil {
			return nil, err
		}
		rate, err := floatParam(e, "rate")
		if err != nil {
			// Tolerate the scale parameterization on input; the wire
			// convention is rate.
			scale, scaleErr := floatParam(e, "scale")
			if scaleErr != nil {
				return nil, err
			}
			if scale <= 0 {
				return nil, fmt.Errorf("%w: Gamma scale must be positive, got %g", ErrInvalidEnvelope, scale)
			}
			rate = 1 / scale
		}
		if shape <= 0 || rate <= 0 {
			return nil, fmt.Errorf("%w: Gamma parameters must be positive, got shape=%g rate=%g",
				ErrInvalidEnvelope, shape, rate)
		}
		return Gamma{Shape: shape, Rate: rate}, nil

	case KindCategorical:
		probs, err := floatSliceParam(e, "p")
		if err != nil {
			return nil, err
		}
		if len(probs) == 0 {
			return nil, fmt.Errorf("%w: Categorical has no categories", ErrInvalidEnvelope)
		}
		return Categorical{Probs: probs}, nil

	default:
		if e.Type == "" {
			return nil, fmt.Errorf("%w: missing type tag", ErrInvalidEnvelope)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDistribution, e.Type)
	}
}

// MarshalMap serializes a named distribution set as a single JSON object,
// the payload carried by a BYTES posterior tensor.
func MarshalMap(dists map[string]Distribution) ([]byte, error) {
	envs := make(map[string]Envelope, len(dists))
	for name, d := range dists {
		envs[name] = d.Envelope()
	}
	return sonic.Marshal(envs)
}

// UnmarshalMap is the inverse of MarshalMap.
func UnmarshalMap(data []byte) (map[string]Distribution, error) {
	var envs map[string]Envelope
	if err := sonic.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	dists := make(map[string]Distribution, len(envs))
	for name, e := range envs {
		d, err := ParseEnvelope(e)
		if err != nil {
			return nil, fmt.Errorf("posterior %q: %w", name, err)
		}
		dists[name] = d
	}
	return dists, nil
}

func floatParam(e Envelope, key string) (float64, error) {
	v, ok := e.Parameters[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s missing parameter %q", ErrInvalidEnvelope, e.Type, key)
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s parameter %q is not numeric", ErrInvalidEnvelope, e.Type, key)
	}
	return f, nil
}

func floatSliceParam(e Envelope, key string) ([]float64, error) {
	v, ok := e.Parameters[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s missing parameter %q", ErrInvalidEnvelope, e.Type, key)
	}
	s, ok := asFloatSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s parameter %q is not a numeric array", ErrInvalidEnvelope, e.Type, key)
	}
	return s, nil
}

func floatMatrixParam(e Envelope, key string) ([][]float64, error) {
	v, ok := e.Parameters[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s missing parameter %q", ErrInvalidEnvelope, e.Type, key)
	}
	m, ok := asFloatMatrix(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s parameter %q is not a numeric matrix", ErrInvalidEnvelope, e.Type, key)
	}
	return m, nil
}

func asFloat(v any) (float64, bool) {
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

func asFloatSlice(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true
	case []any:
		out := make([]float64, len(s))
		for i, el := range s {
			f, ok := asFloat(el)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

func asFloatMatrix(v any) ([][]float64, bool) {
	switch m := v.(type) {
	case [][]float64:
		return m, true
	case []any:
		out := make([][]float64, len(m))
		for i, row := range m {
			s, ok := asFloatSlice(row)
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
