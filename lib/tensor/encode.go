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

import (
	"fmt"
)

// Encode flattens a native value into a wire tensor in row-major order,
// tagging the datatype from the element type. Heterogeneous or
// unrecognized element types fall back to BYTES with each element
// independently string-encoded, which is lossy for non-string values.
// Ragged nested arrays are rejected.
func Encode(name string, v any) (Tensor, error) {
	shape := ShapeOf(v)
	flat := make([]any, 0, max(Numel(shape), 0))
	flatten(v, &flat)

	if int64(len(flat)) != Numel(shape) {
		return Tensor{}, fmt.Errorf("%w: %q is ragged: %d elements for shape %v",
			ErrMalformedTensor, name, len(flat), shape)
	}

	dt := elementDatatype(v, flat)
	if dt != Bytes {
		// Verify every element converts under the tagged type; mixed
		// arrays degrade to BYTES rather than failing.
		if !homogeneous(dt, flat) {
			dt = Bytes
		}
	}
	if dt == Bytes {
		for i, el := range flat {
			flat[i] = byteString(el)
		}
	}

	return Tensor{Name: name, Datatype: dt, Shape: shape, Data: flat}, nil
}

func flatten(v any, out *[]any) {
	s, ok := asSlice(v)
	if !ok {
		*out = append(*out, v)
		return
	}
	for _, el := range s {
		flatten(el, out)
	}
}

// elementDatatype picks the wire tag from the first flattened element, or
// from the slice's static element type when the value is empty.
func elementDatatype(v any, flat []any) Datatype {
	if len(flat) > 0 {
		return DatatypeOf(flat[0])
	}
	switch v.(type) {
	case []bool:
		return Bool
	case []int8:
		return Int8
	case []int16:
		return Int16
	case []int32:
		return Int32
	case []int64, []int:
		return Int64
	case []uint8:
		return Uint8
	case []uint16:
		return Uint16
	case []uint32:
		return Uint32
	case []uint64, []uint:
		return Uint64
	case []float32, [][]float32:
		return FP32
	case []float64, [][]float64:
		return FP64
	default:
		return Bytes
	}
}

func homogeneous(dt Datatype, flat []any) bool {
	for _, el := range flat {
		if !convertible(dt, el) {
			return false
		}
	}
	return true
}

func convertible(dt Datatype, v any) bool {
	switch dt {
	case Bool:
		_, ok := v.(bool)
		return ok
	case FP16, FP32, FP64:
		_, ok := coerceFloat64(v)
		return ok
	case Int8, Int16, Int32, Int64:
		_, ok := coerceInt64(v)
		return ok
	case Uint8, Uint16, Uint32, Uint64:
		_, ok := coerceUint64(v)
		return ok
	case Bytes:
		return true
	default:
		return false
	}
}

func byteString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
