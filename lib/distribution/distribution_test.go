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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestRoundTripUnivariate(t *testing.T) {
	tests := []struct {
		name string
		dist Distribution
	}{
		{"normal", Normal{Mean: 0.0, Std: 1.0}},
		{"beta", Beta{Alpha: 2.0, Beta: 3.0}},
		{"gamma", Gamma{Shape: 2.0, Rate: 1.0 / 3.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.dist.Envelope().JSON()
			require.NoError(t, err)

			got, err := ParseEnvelopeJSON(data)
			require.NoError(t, err)
			require.Equal(t, tt.dist.Kind(), got.Kind())

			switch want := tt.dist.(type) {
			case Normal:
				g := got.(Normal)
				assert.InDelta(t, want.Mean, g.Mean, tolerance)
				assert.InDelta(t, want.Std, g.Std, tolerance)
			case Beta:
				g := got.(Beta)
				assert.InDelta(t, want.Alpha, g.Alpha, tolerance)
				assert.InDelta(t, want.Beta, g.Beta, tolerance)
			case Gamma:
				g := got.(Gamma)
				assert.InDelta(t, want.Shape, g.Shape, tolerance)
				assert.InDelta(t, want.Rate, g.Rate, tolerance)
			}
		})
	}
}

func TestRoundTripMultivariateNormal(t *testing.T) {
	want := MultivariateNormal{
		Mean:       []float64{1.0, -2.0},
		Covariance: [][]float64{{2.0, 0.5}, {0.5, 1.0}},
	}

	env := want.Envelope()
	require.NotNil(t, env.Dimensions)
	assert.Equal(t, int64(2), *env.Dimensions)

	data, err := env.JSON()
	require.NoError(t, err)

	got, err := ParseEnvelopeJSON(data)
	require.NoError(t, err)

	g, ok := got.(MultivariateNormal)
	require.True(t, ok)
	for i := range want.Mean {
		assert.InDelta(t, want.Mean[i], g.Mean[i], tolerance)
		for j := range want.Covariance[i] {
			assert.InDelta(t, want.Covariance[i][j], g.Covariance[i][j], tolerance)
		}
	}
}

func TestRoundTripCategorical(t *testing.T) {
	want := Categorical{Probs: []float64{0.2, 0.3, 0.5}}

	data, err := want.Envelope().JSON()
	require.NoError(t, err)

	got, err := ParseEnvelopeJSON(data)
	require.NoError(t, err)

	g, ok := got.(Categorical)
	require.True(t, ok)
	require.Len(t, g.Probs, 3)
	for i := range want.Probs {
		assert.InDelta(t, want.Probs[i], g.Probs[i], tolerance)
	}
}

func TestGammaScaleFallback(t *testing.T) {
	got, err := ParseEnvelope(Envelope{
		Type:       "Gamma",
		Parameters: map[string]any{"shape": 2.0, "scale": 3.0},
	})
	require.NoError(t, err)

	g := got.(Gamma)
	assert.InDelta(t, 2.0, g.Shape, tolerance)
	assert.InDelta(t, 1.0/3.0, g.Rate, tolerance)
}

func TestGammaFromScale(t *testing.T) {
	g := GammaFromScale(2.0, 4.0)
	assert.InDelta(t, 0.25, g.Rate, tolerance)
}

func TestParseEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope
		wantErr error
	}{
		{
			"unknown type",
			Envelope{Type: "Dirichlet", Parameters: map[string]any{"alpha": []any{1.0}}},
			ErrUnsupportedDistribution,
		},
		{
			"missing type",
			Envelope{Parameters: map[string]any{"mean": 0.0}},
			ErrInvalidEnvelope,
		},
		{
			"missing parameter",
			Envelope{Type: "Normal", Parameters: map[string]any{"mean": 0.0}},
			ErrInvalidEnvelope,
		},
		{
			"non-numeric parameter",
			Envelope{Type: "Beta", Parameters: map[string]any{"alpha": "two", "beta": 3.0}},
			ErrInvalidEnvelope,
		},
		{
			"negative std",
			Envelope{Type: "Normal", Parameters: map[string]any{"mean": 0.0, "std": -1.0}},
			ErrInvalidEnvelope,
		},
		{
			"ragged covariance",
			Envelope{Type: "MultivariateNormal", Parameters: map[string]any{
				"mean":       []any{0.0, 0.0},
				"covariance": []any{[]any{1.0, 0.0}, []any{0.0}},
			}},
			ErrInvalidEnvelope,
		},
		{
			"empty categorical",
			Envelope{Type: "Categorical", Parameters: map[string]any{"p": []any{}}},
			ErrInvalidEnvelope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope(tt.env)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenericEnvelope(t *testing.T) {
	d := Generic{Family: "Wishart", Parameters: map[string]any{"df": 4.0}}
	env := d.Envelope()
	assert.Equal(t, "Wishart", env.Type)

	// Generic families serialize but never parse back.
	_, err := ParseEnvelope(env)
	require.ErrorIs(t, err, ErrUnsupportedDistribution)
}

func TestMarshalMapRoundTrip(t *testing.T) {
	want := map[string]Distribution{
		"theta":  Beta{Alpha: 5.0, Beta: 3.0},
		"lambda": Gamma{Shape: 1.5, Rate: 2.0},
	}

	data, err := MarshalMap(want)
	require.NoError(t, err)

	got, err := UnmarshalMap(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	theta := got["theta"].(Beta)
	assert.InDelta(t, 5.0, theta.Alpha, tolerance)
	assert.InDelta(t, 3.0, theta.Beta, tolerance)

	lambda := got["lambda"].(Gamma)
	assert.InDelta(t, 1.5, lambda.Shape, tolerance)
	assert.InDelta(t, 2.0, lambda.Rate, tolerance)
}

func TestUnmarshalMapRejectsUnknownFamily(t *testing.T) {
	_, err := UnmarshalMap([]byte(`{"w":{"type":"Wishart","parameters":{"df":4}}}`))
	require.ErrorIs(t, err, ErrUnsupportedDistribution)
	assert.Contains(t, err.Error(), `posterior "w"`)
}
