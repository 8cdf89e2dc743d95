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

package pb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"github.com/bayesgate/bayesgate/lib/tensor"
)

// InputTensors converts the request's inputs to internal tensors. When
// raw_input_contents is populated it must align one-to-one with inputs
// and replaces their typed contents.
func (m *ModelInferRequest) InputTensors() ([]tensor.Tensor, error) {
	if len(m.RawInputContents) > 0 && len(m.RawInputContents) != len(m.Inputs) {
		return nil, fmt.Errorf("%w: %d raw contents for %d inputs",
			tensor.ErrMalformedTensor, len(m.RawInputContents), len(m.Inputs))
	}
	out := make([]tensor.Tensor, 0, len(m.Inputs))
	for i, in := range m.Inputs {
		var (
			data []any
			err  error
		)
		if len(m.RawInputContents) > 0 {
			data, err = rawData(in.Datatype, m.RawInputContents[i])
		} else {
			data, err = contentsData(in.Datatype, in.Contents)
		}
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Name, err)
		}
		out = append(out, tensor.Tensor{
			Name:     in.Name,
			Datatype: tensor.Datatype(in.Datatype),
			Shape:    in.Shape,
			Data:     data,
		})
	}
	return out, nil
}

// OutputTensor converts an internal tensor to a typed-contents output.
func OutputTensor(t tensor.Tensor) (*InferOutputTensor, error) {
	c := &InferTensorContents{}
	for _, v := range t.Data {
		var err error
		switch t.Datatype {
		case tensor.Bool:
			var b bool
			if b, err = elemBool(v); err == nil {
				c.BoolContents = append(c.BoolContents, b)
			}
		case tensor.Int8, tensor.Int16, tensor.Int32:
			var n int64
			if n, err = elemInt(v); err == nil {
				c.IntContents = append(c.IntContents, int32(n))
			}
		case tensor.Int64:
			var n int64
			if n, err = elemInt(v); err == nil {
				c.Int64Contents = append(c.Int64Contents, n)
			}
		case tensor.Uint8, tensor.Uint16, tensor.Uint32:
			var n int64
			if n, err = elemInt(v); err == nil {
				c.UintContents = append(c.UintContents, uint32(n))
			}
		case tensor.Uint64:
			var n int64
			if n, err = elemInt(v); err == nil {
				c.Uint64Contents = append(c.Uint64Contents, uint64(n))
			}
		case tensor.FP16, tensor.FP32:
			var f float64
			if f, err = elemFloat(v); err == nil {
				c.Fp32Contents = append(c.Fp32Contents, float32(f))
			}
		case tensor.FP64:
			var f float64
			if f, err = elemFloat(v); err == nil {
				c.Fp64Contents = append(c.Fp64Contents, f)
			}
		case tensor.Bytes:
			var s string
			if s, err = elemString(v); err == nil {
				c.BytesContents = append(c.BytesContents, []byte(s))
			}
		default:
			err = fmt.Errorf("%w: %q", tensor.ErrUnknownDatatype, t.Datatype)
		}
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", t.Name, err)
		}
	}
	return &InferOutputTensor{
		Name:     t.Name,
		Datatype: string(t.Datatype),
		Shape:    t.Shape,
		Contents: c,
	}, nil
}

// contentsData pulls the slice matching datatype out of typed contents.
func contentsData(datatype string, c *InferTensorContents) ([]any, error) {
	if c == nil {
		return []any{}, nil
	}
	switch tensor.Datatype(datatype) {
	case tensor.Bool:
		return toAny(c.BoolContents), nil
	case tensor.Int8, tensor.Int16, tensor.Int32:
		return toAny(c.IntContents), nil
	case tensor.Int64:
		return toAny(c.Int64Contents), nil
	case tensor.Uint8, tensor.Uint16, tensor.Uint32:
		return toAny(c.UintContents), nil
	case tensor.Uint64:
		return toAny(c.Uint64Contents), nil
	case tensor.FP16, tensor.FP32:
		return toAny(c.Fp32Contents), nil
	case tensor.FP64:
		return toAny(c.Fp64Contents), nil
	case tensor.Bytes:
		out := make([]any, len(c.BytesContents))
		for i, b := range c.BytesContents {
			out[i] = string(b)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", tensor.ErrUnknownDatatype, datatype)
	}
}

// rawData decodes the little-endian binary tensor representation.
// BYTES elements are 4-byte length-prefixed.
func rawData(datatype string, raw []byte) ([]any, error) {
	var out []any
	switch tensor.Datatype(datatype) {
	case tensor.Bool:
		for _, b := range raw {
			out = append(out, b != 0)
		}
	case tensor.Int8:
		for _, b := range raw {
			out = append(out, int8(b))
		}
	case tensor.Uint8:
		for _, b := range raw {
			out = append(out, b)
		}
	case tensor.Int16:
		if err := eachChunk(raw, 2, func(c []byte) {
			out = append(out, int16(binary.LittleEndian.Uint16(c)))
		}); err != nil {
			return nil, err
		}
	case tensor.Uint16:
		if err := eachChunk(raw, 2, func(c []byte) {
			out = append(out, binary.LittleEndian.Uint16(c))
		}); err != nil {
			return nil, err
		}
	case tensor.Int32:
		if err := eachChunk(raw, 4, func(c []byte) {
			out = append(out, int32(binary.LittleEndian.Uint32(c)))
		}); err != nil {
			return nil, err
		}
	case tensor.Uint32:
		if err := eachChunk(raw, 4, func(c []byte) {
			out = append(out, binary.LittleEndian.Uint32(c))
		}); err != nil {
			return nil, err
		}
	case tensor.Int64:
		if err := eachChunk(raw, 8, func(c []byte) {
			out = append(out, int64(binary.LittleEndian.Uint64(c)))
		}); err != nil {
			return nil, err
		}
	case tensor.Uint64:
		if err := eachChunk(raw, 8, func(c []byte) {
			out = append(out, binary.LittleEndian.Uint64(c))
		}); err != nil {
			return nil, err
		}
	case tensor.FP32:
		if err := eachChunk(raw, 4, func(c []byte) {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(c)))
		}); err != nil {
			return nil, err
		}
	case tensor.FP64:
		if err := eachChunk(raw, 8, func(c []byte) {
			out = append(out, math.Float64frombits(binary.LittleEndian.Uint64(c)))
		}); err != nil {
			return nil, err
		}
	case tensor.Bytes:
		for len(raw) > 0 {
			if len(raw) < 4 {
				return nil, fmt.Errorf("%w: truncated BYTES length prefix", tensor.ErrMalformedTensor)
			}
			n := binary.LittleEndian.Uint32(raw)
			raw = raw[4:]
			if uint32(len(raw)) < n {
				return nil, fmt.Errorf("%w: BYTES element exceeds buffer", tensor.ErrMalformedTensor)
			}
			out = append(out, string(raw[:n]))
			raw = raw[n:]
		}
	default:
		return nil, fmt.Errorf("%w: %q has no raw representation", tensor.ErrUnknownDatatype, datatype)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

func eachChunk(raw []byte, size int, fn func(c []byte)) error {
	if len(raw)%size != 0 {
		return fmt.Errorf("%w: raw length %d not a multiple of element size %d",
			tensor.ErrMalformedTensor, len(raw), size)
	}
	for i := 0; i < len(raw); i += size {
		fn(raw[i : i+size])
	}
	return nil
}

func toAny[T any](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func elemBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("%w: %T is not a bool", tensor.ErrMalformedTensor, v)
}

func elemInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: %T is not numeric", tensor.ErrMalformedTensor, v)
	}
}

func elemFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %T is not numeric", tensor.ErrMalformedTensor, v)
	}
}

func elemString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %T is not a byte string", tensor.ErrMalformedTensor, v)
}

// ParamsToMap converts wire parameters to plain Go values.
func ParamsToMap(params map[string]*InferParameter) map[string]any {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, p := range params {
		out[k] = p.Value()
	}
	return out
}

// ParamsFromMap converts plain Go values to wire parameters. Values
// outside the oneof's reach are carried as JSON strings, the same
// convention the model_state parameter uses.
func ParamsFromMap(m map[string]any) map[string]*InferParameter {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]*InferParameter, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case bool:
			out[k] = Bool(val)
		case int:
			out[k] = Int64(int64(val))
		case int32:
			out[k] = Int64(int64(val))
		case int64:
			out[k] = Int64(val)
		case float32:
			out[k] = Double(float64(val))
		case float64:
			out[k] = Double(val)
		case string:
			out[k] = String(val)
		default:
			if data, err := sonic.Marshal(v); err == nil {
				out[k] = String(string(data))
			}
		}
	}
	return out
}
