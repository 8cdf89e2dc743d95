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

import "errors"

var (
	// ErrUnsupportedDistribution is returned when an envelope's type tag
	// names no known family.
	ErrUnsupportedDistribution = errors.New("unsupported distribution")

	// ErrInvalidEnvelope is returned for envelopes with missing type
	// tags, missing parameters, or parameters of the wrong shape.
	ErrInvalidEnvelope = errors.New("invalid distribution envelope")
)
