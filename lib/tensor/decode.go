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
	"math"
)

// Decode reshapes a tensor's flat data into a native value: a typed slice
// for rank 1, nested []any with typed innermost slices for higher ranks,
// and a bare scalar for rank 0. JSON numbers arrive as float64 and are
// coerced to the tagged type; a non-integral value in an integer tensor is
// malformed, not truncated.
func Decode(t Tensor) (any, error) {
	if !Known(t.Datatype) {
		return nil, fmt.Errorf("%w: tensor %q has datatype %q",
			ErrUnknownDatatype, t.Name, t.Datatype)
	}
	return decodeAs(t, t.Datatype)
}

// DecodeRaw reshapes a tensor's data as opaque byte-strings regardless of
// its datatype tag, the fallback for tags Decode rejects.
func DecodeRaw(t Tensor) (any, error) {
	return decodeAs(t, Bytes)
}

func decodeAs(t Tensor, dt Datatype) (any, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	switch dt {
	case Bool:
		return decodeTyped(t, coerceBool)
	case Int8:
		return decodeTyped(t, coerceTo[int8])
	case Int16:
		return decodeTyped(t, coerceTo[int16])
	case Int32:
		return decodeTyped(t, coerceTo[int32])
	case Int64:
		return decodeTyped(t, coerceInt64)
	case Uint8:
		return decodeTyped(t, coerceToUnsigned[uint8])
	case Uint16:
		return decodeTyped(t, coerceToUnsigned[uint16])
	case Uint32:
		return decodeTyped(t, coerceToUnsigned[uint32])
	case Uint64:
		return decodeTyped(t, coerceUint64)
	case FP16, FP32:
		return decodeTyped(t, coerceFloat32)
	case FP64:
		return decodeTyped(t, coerceFloat64)
	default:
		return decodeTyped(t, coerceString)
	}
}

func decodeTyped[T any](t Tensor, coerce func(any) (T, bool)) (any, error) {
	flat := make([]T, len(t.Data))
	for i, el := range t.Data {
		v, ok := coerce(el)
		if !ok {
			return nil, fmt.Errorf("%w: tensor %q element %d (%v) is not a valid %s",
				ErrMalformedTensor, t.Name, i, el, t.Datatype)
		}
		flat[i] = v
	}
	if len(t.Shape) == 0 {
		// Rank-0: a single bare scalar.
		return flat[0], nil
	}
	v, _ := nest(flat, t.Shape)
	return v, nil
}

// nest splits a flat row-major slice into the given shape. The innermost
// dimension stays a typed slice.
func nest[T any](flat []T, shape []int64) (any, []T) {
	if len(shape) == 1 {
		n := int(shape[0])
		return flat[:n:n], flat[n:]
	}
	out := make([]any, shape[0])
	rest := flat
	for i := range out {
		out[i], rest = nest(rest, shape[1:])
	}
	return out, rest
}

func coerceFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func coerceFloat32(v any) (float32, bool) {
	f, ok := coerceFloat64(v)
	return float32(f), ok
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		return coerceInt64(uint64(n))
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return coerceInt64(float64(n))
	default:
		return 0, false
	}
}

func coerceUint64(v any) (uint64, bool) {
	i, ok := coerceInt64(v)
	if ok {
		if i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
	if n, isU64 := v.(uint64); isU64 {
		return n, true
	}
	return 0, false
}

func coerceTo[T int8 | int16 | int32](v any) (T, bool) {
	i, ok := coerceInt64(v)
	if !ok || int64(T(i)) != i {
		return 0, false
	}
	return T(i), true
}

func coerceToUnsigned[T uint8 | uint16 | uint32](v any) (T, bool) {
	u, ok := coerceUint64(v)
	if !ok || uint64(T(u)) != u {
		return 0, false
	}
	return T(u), true
}

func coerceBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func coerceString(v any) (string, bool) {
	return byteString(v), true
}
