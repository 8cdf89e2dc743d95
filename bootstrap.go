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

package bayesgate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/registry"
)

// RegisterBuiltins loads the built-in model catalog into reg, applying
// per-model config overrides. Returns the number of models registered.
func RegisterBuiltins(reg *registry.Registry, models []ModelConfig, logger *zap.Logger) int {
	overrides := make(map[string]ModelConfig, len(models))
	for _, m := range models {
		overrides[m.Name] = m
	}

	count := 0
	for _, m := range engine.Builtins() {
		spec := m.Spec()
		cfg, hasCfg := overrides[spec.ID]
		if hasCfg && cfg.Enabled != nil && !*cfg.Enabled {
			logger.Info("Skipping disabled model", zap.String("model", spec.ID))
			continue
		}
		reg.Register(spec.ID, m, spec.Version, spec.Description, mergedDefaults(spec, cfg))
		count++
	}
	return count
}

// mergedDefaults overlays config parameter overrides on the catalog
// defaults, key by key.
func mergedDefaults(spec engine.ModelSpec, cfg ModelConfig) map[string]any {
	params := make(map[string]any, len(spec.Defaults)+len(cfg.Parameters))
	for k, v := range spec.Defaults {
		params[k] = v
	}
	for k, v := range cfg.Parameters {
		params[k] = v
	}
	return params
}

// loadModel registers a catalog model by name, implementing the
// repository load operation. Loading an already-registered model
// re-registers it, which resets its parameters to the configured
// defaults.
func (gn *GatewayNode) loadModel(name string) error {
	m, ok := engine.Builtin(name)
	if !ok {
		return fmt.Errorf("%w: %q is not in the model catalog", registry.ErrModelNotFound, name)
	}
	spec := m.Spec()
	var cfg ModelConfig
	for _, mc := range gn.config.Models {
		if mc.Name == name {
			cfg = mc
			break
		}
	}
	gn.registry.Register(spec.ID, m, spec.Version, spec.Description, mergedDefaults(spec, cfg))
	models, instances := gn.registry.Counts()
	UpdateRegistryMetrics(models, instances)
	return nil
}

// unloadModel removes a model from the registry, implementing the
// repository unload operation. Instances of the model survive until the
// sweeper collects them, but resolving them fails once the model is
// gone.
func (gn *GatewayNode) unloadModel(name string) error {
	if !gn.registry.Unregister(name) {
		return fmt.Errorf("%w: %q", registry.ErrModelNotFound, name)
	}
	models, instances := gn.registry.Counts()
	UpdateRegistryMetrics(models, instances)
	return nil
}
