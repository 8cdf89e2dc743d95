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
	"sort"

	"github.com/bayesgate/bayesgate/lib/tensor"
)

// Platform is the platform tag built-in models report in metadata.
const Platform = "bayesgate-conjugate"

// TensorSpec declares a model input or output for metadata purposes. A
// -1 dimension means variable length.
type TensorSpec struct {
	Name     string
	Datatype tensor.Datatype
	Shape    []int64
}

// ModelSpec is a built-in model's static metadata: identity, default
// hyperparameters, and declared I/O tensors.
type ModelSpec struct {
	ID          string
	Version     string
	Description string
	// Defaults are model-level hyperparameter defaults; per-call request
	// parameters override them key by key.
	Defaults map[string]any
	Inputs   []TensorSpec
	Outputs  []TensorSpec
}

// builtins is the catalog, keyed by model ID. Every supported
// distribution family has one model that produces it as a posterior.
var builtins = map[string]Model{}

func registerBuiltin(m Model) {
	builtins[m.Spec().ID] = m
}

// Builtin returns the catalog model with the given ID.
func Builtin(id string) (Model, bool) {
	m, ok := builtins[id]
	return m, ok
}

// Builtins returns all catalog models sorted by ID.
func Builtins() []Model {
	models := make([]Model, 0, len(builtins))
	for _, m := range builtins {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Spec().ID < models[j].Spec().ID })
	return models
}
