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
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when an inference call carries no input data.
var ErrEmptyInput = errors.New("executor: empty input")

// ExecutionError wraps an engine failure with the model and instance it
// occurred on.
type ExecutionError struct {
	Model      string
	InstanceID string
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("inference on model %q (instance %s) failed: %v", e.Model, e.InstanceID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
