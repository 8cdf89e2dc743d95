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

// Package distribution defines the closed set of probability-distribution
// families the gateway can serialize, and the JSON envelope format used to
// carry them inside BYTES tensors.
package distribution

import (
	"fmt"
)

// Kind identifies a distribution family.
type Kind string

const (
	KindNormal             Kind = "Normal"
	KindMultivariateNormal Kind = "MultivariateNormal"
	KindBeta               Kind = "Beta"
	KindGamma              Kind = "Gamma"
	KindCategorical        Kind = "Categorical"
	// KindGeneric marks a family outside the supported set. Generic
	// distributions serialize with their own family name as the envelope
	// type tag; they are never produced by ParseEnvelope.
	KindGeneric Kind = "Generic"
)

// Distribution is the tagged union over supported families. The set of
// implementations is fixed: Normal, MultivariateNormal, Beta, Gamma,
// Categorical, and Generic for anything else an engine may emit.
type Distribution interface {
	Kind() Kind
	// Envelope returns the wire representation. Encoding never fails:
	// unsupported families fall back to Generic.
	Envelope() Envelope

	isDistribution()
}

// Normal is a univariate Gaussian parameterized by mean and standard
// deviation.
type Normal struct {
	Mean float64
	Std  float64
}

func (Normal) Kind() Kind      { return KindNormal }
func (Normal) isDistribution() {}

func (d Normal) Envelope() Envelope {
	return Envelope{
		Type:       string(KindNormal),
		Parameters: map[string]any{"mean": d.Mean, "std": d.Std},
	}
}

func (d Normal) String() string {
	return fmt.Sprintf("Normal(mean=%g, std=%g)", d.Mean, d.Std)
}

// MultivariateNormal is a Gaussian over len(Mean) dimensions with a full
// covariance matrix.
type MultivariateNormal struct {
	Mean       []float64
	Covariance [][]float64
}

func (MultivariateNormal) Kind() Kind      { return KindMultivariateNormal }
func (MultivariateNormal) isDistribution() {}

func (d MultivariateNormal) Envelope() Envelope {
	dims := int64(len(d.Mean))
	return Envelope{
		Type: string(KindMultivariateNormal),
		Parameters: map[string]any{
			"mean":       d.Mean,
			"covariance": d.Covariance,
		},
		Dimensions: &dims,
	}
}

func (d MultivariateNormal) String() string {
	return fmt.Sprintf("MultivariateNormal(dim=%d)", len(d.Mean))
}

// Beta is parameterized by shape parameters alpha and beta.
type Beta struct {
	Alpha float64
	Beta  float64
}

func (Beta) Kind() Kind      { return KindBeta }
func (Beta) isDistribution() {}

func (d Beta) Envelope() Envelope {
	return Envelope{
		Type:       string(KindBeta),
		Parameters: map[string]any{"alpha": d.Alpha, "beta": d.Beta},
	}
}

func (d Beta) String() string {
	return fmt.Sprintf("Beta(alpha=%g, beta=%g)", d.Alpha, d.Beta)
}

// Gamma uses the shape/rate parameterization on the wire. Engines that
// work in shape/scale convert with rate = 1/scale before constructing
// this value; see GammaFromScale.
type Gamma struct {
	Shape float64
	Rate  float64
}

// GammaFromScale converts a shape/scale parameterization to shape/rate.
func GammaFromScale(shape, scale float64) Gamma {
	return Gamma{Shape: shape, Rate: 1 / scale}
}

func (Gamma) Kind() Kind      { return KindGamma }
func (Gamma) isDistribution() {}

func (d Gamma) Envelope() Envelope {
	return Envelope{
		Type:       string(KindGamma),
		Parameters: map[string]any{"shape": d.Shape, "rate": d.Rate},
	}
}

func (d Gamma) String() string {
	return fmt.Sprintf("Gamma(shape=%g, rate=%g)", d.Shape, d.Rate)
}

// Categorical is a discrete distribution over len(Probs) categories.
type Categorical struct {
	Probs []float64
}

func (Categorical) Kind() Kind      { return KindCategorical }
func (Categorical) isDistribution() {}

func (d Categorical) Envelope() Envelope {
	dims := int64(len(d.Probs))
	return Envelope{
		Type:       string(KindCategorical),
		Parameters: map[string]any{"p": d.Probs},
		Dimensions: &dims,
	}
}

func (d Categorical) String() string {
	return fmt.Sprintf("Categorical(k=%d)", len(d.Probs))
}

// Generic carries a family outside the supported set: the family name and
// whatever parameter map the engine exposed. It serializes like any other
// distribution but cannot be parsed back; ParseEnvelope rejects unknown
// type tags rather than guessing.
type Generic struct {
	Family     string
	Parameters map[string]any
}

func (Generic) Kind() Kind      { return KindGeneric }
func (Generic) isDistribution() {}

func (d Generic) Envelope() Envelope {
	params := d.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return Envelope{Type: d.Family, Parameters: params}
}

func (d Generic) String() string {
	return fmt.Sprintf("Generic(%s)", d.Family)
}
