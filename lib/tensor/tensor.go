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

// Package tensor converts between wire-level tensors (named, typed, shaped
// flat arrays) and native Go values. BYTES tensors double as the carrier
// for JSON-encoded distribution envelopes.
package tensor

import (
	"fmt"
)

// Datatype is a wire-level element type tag.
type Datatype string

const (
	Bool   Datatype = "BOOL"
	Int8   Datatype = "INT8"
	Int16  Datatype = "INT16"
	Int32  Datatype = "INT32"
	Int64  Datatype = "INT64"
	Uint8  Datatype = "UINT8"
	Uint16 Datatype = "UINT16"
	Uint32 Datatype = "UINT32"
	Uint64 Datatype = "UINT64"
	FP16   Datatype = "FP16"
	FP32   Datatype = "FP32"
	FP64   Datatype = "FP64"
	Bytes  Datatype = "BYTES"
)

// Known reports whether dt is a recognized datatype tag.
func Known(dt Datatype) bool {
	switch dt {
	case Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, FP16, FP32, FP64, Bytes:
		return true
	}
	return false
}

// Tensor is the wire value: a named, typed, shaped flat array with data in
// row-major order. BYTES elements are held as strings.
type Tensor struct {
	Name     string
	Datatype Datatype
	Shape    []int64
	Data     []any
}

// Numel returns the element count implied by a shape (the product of its
// dimensions). A shape containing a negative dimension has no element
// count and returns -1; such shapes only appear in metadata.
func Numel(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}

// Validate checks the flat-data invariant: the data length must equal the
// product of the shape.
func (t Tensor) Validate() error {
	n := Numel(t.Shape)
	if n < 0 {
		return fmt.Errorf("%w: tensor %q shape %v has a variable dimension",
			ErrMalformedTensor, t.Name, t.Shape)
	}
	if int64(len(t.Data)) != n {
		return fmt.Errorf("%w: tensor %q has %d elements for shape %v (want %d)",
			ErrMalformedTensor, t.Name, len(t.Data), t.Shape, n)
	}
	return nil
}

// DatatypeOf maps a native scalar value to its wire datatype. Unrecognized
// types fall back to BYTES so that any value stays representable, at worst
// as opaque bytes.
func DatatypeOf(v any) Datatype {
	switch v.(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int, int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint, uint64:
		return Uint64
	case float32:
		return FP32
	case float64:
		return FP64
	case string:
		return Bytes
	default:
		return Bytes
	}
}

// ShapeOf returns a native value's dimensions in row-major order. Scalars
// report shape [1], matching how they are framed on the wire.
func ShapeOf(v any) []int64 {
	dims := []int64{}
	cur := v
	for {
		s, ok := asSlice(cur)
		if !ok {
			break
		}
		dims = append(dims, int64(len(s)))
		if len(s) == 0 {
			break
		}
		cur = s[0]
	}
	if len(dims) == 0 {
		return []int64{1}
	}
	return dims
}

// asSlice materializes a supported slice type as []any. Byte-strings are
// represented as string values, so []uint8 is an ordinary numeric slice
// here, not a scalar.
func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []bool:
		return anySlice(s), true
	case []int8:
		return anySlice(s), true
	case []int16:
		return anySlice(s), true
	case []int32:
		return anySlice(s), true
	case []int64:
		return anySlice(s), true
	case []int:
		return anySlice(s), true
	case []uint8:
		return anySlice(s), true
	case []uint16:
		return anySlice(s), true
	case []uint32:
		return anySlice(s), true
	case []uint64:
		return anySlice(s), true
	case []uint:
		return anySlice(s), true
	case []float32:
		return anySlice(s), true
	case []float64:
		return anySlice(s), true
	case []string:
		return anySlice(s), true
	case [][]float64:
		return anySlice(s), true
	case [][]float32:
		return anySlice(s), true
	case [][]int64:
		return anySlice(s), true
	case [][]any:
		return anySlice(s), true
	default:
		return nil, false
	}
}

func anySlice[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
