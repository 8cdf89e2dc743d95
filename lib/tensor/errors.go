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

package tensor

import "errors"

var (
	// ErrMalformedTensor is returned when a tensor's data length does not
	// match its shape, when a nested array is ragged, or when an element
	// cannot represent the tagged datatype.
	ErrMalformedTensor = errors.New("malformed tensor")

	// ErrUnknownDatatype is returned for unrecognized datatype tags when
	// no raw-bytes fallback was requested.
	ErrUnknownDatatype = errors.New("unknown tensor datatype")
)
