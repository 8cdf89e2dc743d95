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
	"github.com/bayesgate/bayesgate/lib/distribution"
)

// Outcome is the concrete result type the built-in models produce. The
// zero value is a valid empty result.
type Outcome struct {
	posteriors map[string]distribution.Distribution
	values     map[string]any
	freeEnergy *float64
	iterations *int
	state      map[string]any
}

var (
	_ Result         = (*Outcome)(nil)
	_ ValuedResult   = (*Outcome)(nil)
	_ StatefulResult = (*Outcome)(nil)
)

// NewOutcome returns an empty result to fill via the With* methods.
func NewOutcome() *Outcome {
	return &Outcome{
		posteriors: make(map[string]distribution.Distribution),
		values:     make(map[string]any),
	}
}

// WithPosterior adds a named posterior distribution.
func (o *Outcome) WithPosterior(name string, d distribution.Distribution) *Outcome {
	o.posteriors[name] = d
	return o
}

// WithValue adds a named non-posterior output.
func (o *Outcome) WithValue(name string, v any) *Outcome {
	o.values[name] = v
	return o
}

// WithFreeEnergy records the free-energy diagnostic.
func (o *Outcome) WithFreeEnergy(fe float64) *Outcome {
	o.freeEnergy = &fe
	return o
}

// WithIterations records how many update steps the run performed.
func (o *Outcome) WithIterations(n int) *Outcome {
	o.iterations = &n
	return o
}

// WithState records carry-forward state for the next streaming call.
func (o *Outcome) WithState(state map[string]any) *Outcome {
	o.state = state
	return o
}

func (o *Outcome) Posteriors() map[string]distribution.Distribution { return o.posteriors }

func (o *Outcome) Values() map[string]any { return o.values }

func (o *Outcome) FreeEnergy() (float64, bool) {
	if o.freeEnergy == nil {
		return 0, false
	}
	return *o.freeEnergy, true
}

func (o *Outcome) Iterations() (int, bool) {
	if o.iterations == nil {
		return 0, false
	}
	return *o.iterations, true
}

func (o *Outcome) State() (map[string]any, bool) {
	if o.state == nil {
		return nil, false
	}
	return o.state, true
}
