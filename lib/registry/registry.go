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

// Package registry tracks registered model definitions and their live
// instances. All state is in-memory and process-lifetime only.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"
)

// ModelDefinition describes a registered model. Definitions are treated
// as immutable once registered; re-registering a name replaces the entry
// wholesale.
type ModelDefinition struct {
	Name        string
	Version     string
	Description string
	CreatedAt   time.Time
	// Parameters holds model-level default hyperparameters and
	// input/output shape hints.
	Parameters map[string]any
	// Handle is the opaque callable the inference engine understands.
	Handle any
}

// ModelInstance is one live use of a registered model, either ephemeral
// (one inference call) or session-scoped. Instances reference their model
// by name, so they survive the model being unregistered; resolving such
// an instance reports an error at that point rather than dangling.
//
// Concurrent inference calls against the same instance are not
// serialized here; callers that share an instance must coordinate.
type ModelInstance struct {
	ID         string
	ModelName  string
	State      map[string]any
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Registry is the process-wide model/instance store. A single mutex
// guards both maps; entry counts are small and every operation is an
// O(1) map access, so the lock is never held across an inference call.
type Registry struct {
	mu        sync.Mutex
	models    map[string]*ModelDefinition
	instances map[string]*ModelInstance

	logger *zap.Logger
}

// New returns an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		models:    make(map[string]*ModelDefinition),
		instances: make(map[string]*ModelInstance),
		logger:    logger.Named("registry"),
	}
}

// Register inserts a model definition, replacing any existing entry under
// the same name. Overwriting logs a warning but is not an error;
// re-registration is how live model updates land.
func (r *Registry) Register(name string, handle any, version, description string, parameters map[string]any) *ModelDefinition {
	def := &ModelDefinition{
		Name:        name,
		Version:     version,
		Description: description,
		CreatedAt:   time.Now(),
		Parameters:  parameters,
		Handle:      handle,
	}

	r.mu.Lock()
	_, existed := r.models[name]
	r.models[name] = def
	r.mu.Unlock()

	if existed {
		r.logger.Warn("model re-registered, previous definition replaced",
			zap.String("model", name),
			zap.String("version", version))
	} else {
		r.logger.Info("model registered",
			zap.String("model", name),
			zap.String("version", version))
	}
	return def
}

// Unregister removes a model definition and reports whether it existed.
// Instances of the model are left alone; they fail at resolution time.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	_, existed := r.models[name]
	delete(r.models, name)
	r.mu.Unlock()

	if existed {
		r.logger.Info("model unregistered", zap.String("model", name))
	}
	return existed
}

// Lookup returns the definition for a model name. It does not touch any
// access timestamp.
func (r *Registry) Lookup(name string) (*ModelDefinition, error) {
	r.mu.Lock()
	def, ok := r.models[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	return def, nil
}

// Has reports whether a model name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	_, ok := r.models[name]
	r.mu.Unlock()
	return ok
}

// ListModels returns the registered model names, sorted.
func (r *Registry) ListModels() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// Definitions returns all registered definitions, sorted by name.
func (r *Registry) Definitions() []*ModelDefinition {
	r.mu.Lock()
	defs := make([]*ModelDefinition, 0, len(r.models))
	for _, def := range r.models {
		defs = append(defs, def)
	}
	r.mu.Unlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// CreateInstance creates a new instance of a registered model. The
// initial state map may be nil.
func (r *Registry) CreateInstance(modelName string, initialState map[string]any) (*ModelInstance, error) {
	if initialState == nil {
		initialState = make(map[string]any)
	}
	now := time.Now()
	inst := &ModelInstance{
		ID:         xid.New().String(),
		ModelName:  modelName,
		State:      initialState,
		CreatedAt:  now,
		LastUsedAt: now,
	}

	r.mu.Lock()
	if _, ok := r.models[modelName]; !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, modelName)
	}
	r.instances[inst.ID] = inst
	r.mu.Unlock()

	return inst, nil
}

// GetInstance returns an instance by ID, updating its last-used
// timestamp. The timestamp update is what keeps an instance alive across
// idle sweeps.
func (r *Registry) GetInstance(id string) (*ModelInstance, error) {
	r.mu.Lock()
	inst, ok := r.instances[id]
	if ok {
		inst.LastUsedAt = time.Now()
	}
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInstanceNotFound, id)
	}
	return inst, nil
}

// DeleteInstance removes an instance and returns it.
func (r *Registry) DeleteInstance(id string) (*ModelInstance, error) {
	r.mu.Lock()
	inst, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInstanceNotFound, id)
	}
	return inst, nil
}

// ListInstances returns instances sorted by creation time, optionally
// filtered to one model name ("" for all).
func (r *Registry) ListInstances(modelName string) []*ModelInstance {
	r.mu.Lock()
	insts := make([]*ModelInstance, 0, len(r.instances))
	for _, inst := range r.instances {
		if modelName == "" || inst.ModelName == modelName {
			insts = append(insts, inst)
		}
	}
	r.mu.Unlock()
	sort.Slice(insts, func(i, j int) bool {
		if insts[i].CreatedAt.Equal(insts[j].CreatedAt) {
			return insts[i].ID < insts[j].ID
		}
		return insts[i].CreatedAt.Before(insts[j].CreatedAt)
	})
	return insts
}

// SweepIdleInstances removes every instance whose last use is older than
// maxAge and returns how many were removed. Safe to call concurrently
// with normal traffic.
func (r *Registry) SweepIdleInstances(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	var swept []string
	for id, inst := range r.instances {
		if inst.LastUsedAt.Before(cutoff) {
			swept = append(swept, id)
		}
	}
	for _, id := range swept {
		delete(r.instances, id)
	}
	r.mu.Unlock()

	if len(swept) > 0 {
		r.logger.Info("swept idle instances",
			zap.Int("count", len(swept)),
			zap.Duration("max_age", maxAge))
	}
	return len(swept)
}

// Counts returns the number of registered models and live instances.
func (r *Registry) Counts() (models, instances int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.models), len(r.instances)
}
