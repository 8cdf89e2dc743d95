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
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is the codec surface every protocol message implements.
// AppendWire cannot fail; malformed input only surfaces on decode.
type Message interface {
	AppendWire(b []byte) []byte
	UnmarshalWire(data []byte) error
}

var (
	_ Message = (*ServerLiveRequest)(nil)
	_ Message = (*ServerLiveResponse)(nil)
	_ Message = (*ServerReadyRequest)(nil)
	_ Message = (*ServerReadyResponse)(nil)
	_ Message = (*ModelReadyRequest)(nil)
	_ Message = (*ModelReadyResponse)(nil)
	_ Message = (*ServerMetadataRequest)(nil)
	_ Message = (*ServerMetadataResponse)(nil)
	_ Message = (*ModelMetadataRequest)(nil)
	_ Message = (*ModelMetadataResponse)(nil)
	_ Message = (*ModelInferRequest)(nil)
	_ Message = (*ModelInferResponse)(nil)
)

// AppendWire implements Message.
func (m *ServerLiveRequest) AppendWire(b []byte) []byte { return b }

// UnmarshalWire implements Message.
func (m *ServerLiveRequest) UnmarshalWire(data []byte) error { return skipAll(data) }

// AppendWire implements Message.
func (m *ServerReadyRequest) AppendWire(b []byte) []byte { return b }

// UnmarshalWire implements Message.
func (m *ServerReadyRequest) UnmarshalWire(data []byte) error { return skipAll(data) }

// AppendWire implements Message.
func (m *ServerMetadataRequest) AppendWire(b []byte) []byte { return b }

// UnmarshalWire implements Message.
func (m *ServerMetadataRequest) UnmarshalWire(data []byte) error { return skipAll(data) }

// AppendWire implements Message.
func (m *ServerLiveResponse) AppendWire(b []byte) []byte {
	return appendBool(b, 1, m.Live)
}

// UnmarshalWire implements Message.
func (m *ServerLiveResponse) UnmarshalWire(data []byte) error {
	*m = ServerLiveResponse{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		if num == 1 {
			var err error
			m.Live, data, err = consumeBool(data, typ)
			return data, err
		}
		return skipField(data, num, typ)
	})
}

// AppendWire implements Message.
func (m *ServerReadyResponse) AppendWire(b []byte) []byte {
	return appendBool(b, 1, m.Ready)
}

// UnmarshalWire implements Message.
func (m *ServerReadyResponse) UnmarshalWire(data []byte) error {
	*m = ServerReadyResponse{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		if num == 1 {
			var err error
			m.Ready, data, err = consumeBool(data, typ)
			return data, err
		}
		return skipField(data, num, typ)
	})
}

// AppendWire implements Message.
func (m *ModelReadyRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	b = appendString(b, 2, m.Version)
	return b
}

// UnmarshalWire implements Message.
func (m *ModelReadyRequest) UnmarshalWire(data []byte) error {
	*m = ModelReadyRequest{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			m.Name, data, err = consumeString(data, typ)
		case 2:
			m.Version, data, err = consumeString(data, typ)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (m *ModelReadyResponse) AppendWire(b []byte) []byte {
	return appendBool(b, 1, m.Ready)
}

// UnmarshalWire implements Message.
func (m *ModelReadyResponse) UnmarshalWire(data []byte) error {
	*m = ModelReadyResponse{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		if num == 1 {
			var err error
			m.Ready, data, err = consumeBool(data, typ)
			return data, err
		}
		return skipField(data, num, typ)
	})
}

// AppendWire implements Message.
func (m *ServerMetadataResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	b = appendString(b, 2, m.Version)
	for _, ext := range m.Extensions {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, ext)
	}
	return b
}

// UnmarshalWire implements Message.
func (m *ServerMetadataResponse) UnmarshalWire(data []byte) error {
	*m = ServerMetadataResponse{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			m.Name, data, err = consumeString(data, typ)
		case 2:
			m.Version, data, err = consumeString(data, typ)
		case 3:
			var s string
			s, data, err = consumeString(data, typ)
			m.Extensions = append(m.Extensions, s)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (m *ModelMetadataRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	b = appendString(b, 2, m.Version)
	return b
}

// UnmarshalWire implements Message.
func (m *ModelMetadataRequest) UnmarshalWire(data []byte) error {
	*m = ModelMetadataRequest{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			m.Name, data, err = consumeString(data, typ)
		case 2:
			m.Version, data, err = consumeString(data, typ)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (t *TensorMetadata) AppendWire(b []byte) []byte {
	b = appendString(b, 1, t.Name)
	b = appendString(b, 2, t.Datatype)
	b = appendPackedInt64(b, 3, t.Shape)
	return b
}

// UnmarshalWire implements Message.
func (t *TensorMetadata) UnmarshalWire(data []byte) error {
	*t = TensorMetadata{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			t.Name, data, err = consumeString(data, typ)
		case 2:
			t.Datatype, data, err = consumeString(data, typ)
		case 3:
			t.Shape, data, err = consumeInt64s(t.Shape, data, typ)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (m *ModelMetadataResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	for _, v := range m.Versions {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	b = appendString(b, 3, m.Platform)
	for _, in := range m.Inputs {
		b = appendMessage(b, 4, in)
	}
	for _, out := range m.Outputs {
		b = appendMessage(b, 5, out)
	}
	return b
}

// UnmarshalWire implements Message.
func (m *ModelMetadataResponse) UnmarshalWire(data []byte) error {
	*m = ModelMetadataResponse{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			m.Name, data, err = consumeString(data, typ)
		case 2:
			var s string
			s, data, err = consumeString(data, typ)
			m.Versions = append(m.Versions, s)
		case 3:
			m.Platform, data, err = consumeString(data, typ)
		case 4:
			sub := &TensorMetadata{}
			data, err = consumeMessage(data, typ, sub)
			m.Inputs = append(m.Inputs, sub)
		case 5:
			sub := &TensorMetadata{}
			data, err = consumeMessage(data, typ, sub)
			m.Outputs = append(m.Outputs, sub)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message. Oneof variants always serialize, even
// at their zero value.
func (p *InferParameter) AppendWire(b []byte) []byte {
	switch {
	case p.BoolParam != nil:
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(*p.BoolParam))
	case p.Int64Param != nil:
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*p.Int64Param))
	case p.StringParam != nil:
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, *p.StringParam)
	case p.DoubleParam != nil:
		b = protowire.AppendTag(b, 4, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(*p.DoubleParam))
	}
	return b
}

// UnmarshalWire implements Message.
func (p *InferParameter) UnmarshalWire(data []byte) error {
	*p = InferParameter{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			var v bool
			v, data, err = consumeBool(data, typ)
			*p = InferParameter{BoolParam: &v}
		case 2:
			var v uint64
			v, data, err = consumeVarint(data, typ)
			n := int64(v)
			*p = InferParameter{Int64Param: &n}
		case 3:
			var s string
			s, data, err = consumeString(data, typ)
			*p = InferParameter{StringParam: &s}
		case 4:
			var v uint64
			v, data, err = consumeFixed64(data, typ)
			f := math.Float64frombits(v)
			*p = InferParameter{DoubleParam: &f}
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (c *InferTensorContents) AppendWire(b []byte) []byte {
	if len(c.BoolContents) > 0 {
		var payload []byte
		for _, v := range c.BoolContents {
			payload = protowire.AppendVarint(payload, protowire.EncodeBool(v))
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	if len(c.IntContents) > 0 {
		var payload []byte
		for _, v := range c.IntContents {
			payload = protowire.AppendVarint(payload, uint64(int64(v)))
		}
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	b = appendPackedInt64(b, 3, c.Int64Contents)
	if len(c.UintContents) > 0 {
		var payload []byte
		for _, v := range c.UintContents {
			payload = protowire.AppendVarint(payload, uint64(v))
		}
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	if len(c.Uint64Contents) > 0 {
		var payload []byte
		for _, v := range c.Uint64Contents {
			payload = protowire.AppendVarint(payload, v)
		}
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	if len(c.Fp32Contents) > 0 {
		var payload []byte
		for _, v := range c.Fp32Contents {
			payload = protowire.AppendFixed32(payload, math.Float32bits(v))
		}
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	if len(c.Fp64Contents) > 0 {
		var payload []byte
		for _, v := range c.Fp64Contents {
			payload = protowire.AppendFixed64(payload, math.Float64bits(v))
		}
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	for _, v := range c.BytesContents {
		b = protowire.AppendTag(b, 8, protowire.BytesType)
		b = protowire.AppendBytes(b, v)
	}
	return b
}

// UnmarshalWire implements Message.
func (c *InferTensorContents) UnmarshalWire(data []byte) error {
	*c = InferTensorContents{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			c.BoolContents, data, err = consumeBools(c.BoolContents, data, typ)
		case 2:
			c.IntContents, data, err = consumeInt32s(c.IntContents, data, typ)
		case 3:
			c.Int64Contents, data, err = consumeInt64s(c.Int64Contents, data, typ)
		case 4:
			c.UintContents, data, err = consumeUint32s(c.UintContents, data, typ)
		case 5:
			c.Uint64Contents, data, err = consumeUint64s(c.Uint64Contents, data, typ)
		case 6:
			c.Fp32Contents, data, err = consumeFloat32s(c.Fp32Contents, data, typ)
		case 7:
			c.Fp64Contents, data, err = consumeFloat64s(c.Fp64Contents, data, typ)
		case 8:
			var v []byte
			v, data, err = consumeBytesCopy(data, typ)
			c.BytesContents = append(c.BytesContents, v)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (t *InferInputTensor) AppendWire(b []byte) []byte {
	b = appendString(b, 1, t.Name)
	b = appendString(b, 2, t.Datatype)
	b = appendPackedInt64(b, 3, t.Shape)
	b = appendParams(b, 4, t.Parameters)
	if t.Contents != nil {
		b = appendMessage(b, 5, t.Contents)
	}
	return b
}

// UnmarshalWire implements Message.
func (t *InferInputTensor) UnmarshalWire(data []byte) error {
	*t = InferInputTensor{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			t.Name, data, err = consumeString(data, typ)
		case 2:
			t.Datatype, data, err = consumeString(data, typ)
		case 3:
			t.Shape, data, err = consumeInt64s(t.Shape, data, typ)
		case 4:
			t.Parameters, data, err = consumeParamEntry(t.Parameters, data, typ)
		case 5:
			t.Contents = &InferTensorContents{}
			data, err = consumeMessage(data, typ, t.Contents)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (t *InferRequestedOutputTensor) AppendWire(b []byte) []byte {
	b = appendString(b, 1, t.Name)
	b = appendParams(b, 2, t.Parameters)
	return b
}

// UnmarshalWire implements Message.
func (t *InferRequestedOutputTensor) UnmarshalWire(data []byte) error {
	*t = InferRequestedOutputTensor{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			t.Name, data, err = consumeString(data, typ)
		case 2:
			t.Parameters, data, err = consumeParamEntry(t.Parameters, data, typ)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (t *InferOutputTensor) AppendWire(b []byte) []byte {
	b = appendString(b, 1, t.Name)
	b = appendString(b, 2, t.Datatype)
	b = appendPackedInt64(b, 3, t.Shape)
	b = appendParams(b, 4, t.Parameters)
	if t.Contents != nil {
		b = appendMessage(b, 5, t.Contents)
	}
	return b
}

// UnmarshalWire implements Message.
func (t *InferOutputTensor) UnmarshalWire(data []byte) error {
	*t = InferOutputTensor{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			t.Name, data, err = consumeString(data, typ)
		case 2:
			t.Datatype, data, err = consumeString(data, typ)
		case 3:
			t.Shape, data, err = consumeInt64s(t.Shape, data, typ)
		case 4:
			t.Parameters, data, err = consumeParamEntry(t.Parameters, data, typ)
		case 5:
			t.Contents = &InferTensorContents{}
			data, err = consumeMessage(data, typ, t.Contents)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (m *ModelInferRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ModelName)
	b = appendString(b, 2, m.ModelVersion)
	b = appendString(b, 3, m.ID)
	b = appendParams(b, 4, m.Parameters)
	for _, in := range m.Inputs {
		b = appendMessage(b, 5, in)
	}
	for _, out := range m.Outputs {
		b = appendMessage(b, 6, out)
	}
	for _, raw := range m.RawInputContents {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, raw)
	}
	return b
}

// UnmarshalWire implements Message.
func (m *ModelInferRequest) UnmarshalWire(data []byte) error {
	*m = ModelInferRequest{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			m.ModelName, data, err = consumeString(data, typ)
		case 2:
			m.ModelVersion, data, err = consumeString(data, typ)
		case 3:
			m.ID, data, err = consumeString(data, typ)
		case 4:
			m.Parameters, data, err = consumeParamEntry(m.Parameters, data, typ)
		case 5:
			sub := &InferInputTensor{}
			data, err = consumeMessage(data, typ, sub)
			m.Inputs = append(m.Inputs, sub)
		case 6:
			sub := &InferRequestedOutputTensor{}
			data, err = consumeMessage(data, typ, sub)
			m.Outputs = append(m.Outputs, sub)
		case 7:
			var raw []byte
			raw, data, err = consumeBytesCopy(data, typ)
			m.RawInputContents = append(m.RawInputContents, raw)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// AppendWire implements Message.
func (m *ModelInferResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ModelName)
	b = appendString(b, 2, m.ModelVersion)
	b = appendString(b, 3, m.ID)
	b = appendParams(b, 4, m.Parameters)
	for _, out := range m.Outputs {
		b = appendMessage(b, 5, out)
	}
	for _, raw := range m.RawOutputContents {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, raw)
	}
	return b
}

// UnmarshalWire implements Message.
func (m *ModelInferResponse) UnmarshalWire(data []byte) error {
	*m = ModelInferResponse{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			m.ModelName, data, err = consumeString(data, typ)
		case 2:
			m.ModelVersion, data, err = consumeString(data, typ)
		case 3:
			m.ID, data, err = consumeString(data, typ)
		case 4:
			m.Parameters, data, err = consumeParamEntry(m.Parameters, data, typ)
		case 5:
			sub := &InferOutputTensor{}
			data, err = consumeMessage(data, typ, sub)
			m.Outputs = append(m.Outputs, sub)
		case 6:
			var raw []byte
			raw, data, err = consumeBytesCopy(data, typ)
			m.RawOutputContents = append(m.RawOutputContents, raw)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
}

// walkFields drives a tag-dispatch loop over one message's fields.
func walkFields(data []byte, field func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		rest, err := field(num, typ, data[n:])
		if err != nil {
			return err
		}
		data = rest
	}
	return nil
}

func skipAll(data []byte) error {
	return walkFields(data, skipField)
}

func skipField(data []byte, num protowire.Number, typ protowire.Type) ([]byte, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return data[n:], nil
}

func wireTypeError(num protowire.Number, typ protowire.Type) error {
	return fmt.Errorf("pb: field %d: unexpected wire type %d", num, typ)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendPackedInt64(b []byte, num protowire.Number, vals []int64) []byte {
	if len(vals) == 0 {
		return b
	}
	var payload []byte
	for _, v := range vals {
		payload = protowire.AppendVarint(payload, uint64(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.AppendWire(nil))
}

// appendParams emits map<string, InferParameter> entries in sorted key
// order so output is deterministic.
func appendParams(b []byte, num protowire.Number, params map[string]*InferParameter) []byte {
	if len(params) == 0 {
		return b
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendString(entry, 1, k)
		if p := params[k]; p != nil {
			entry = appendMessage(entry, 2, p)
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func consumeVarint(data []byte, typ protowire.Type) (uint64, []byte, error) {
	if typ != protowire.VarintType {
		return 0, data, wireTypeError(0, typ)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, data, protowire.ParseError(n)
	}
	return v, data[n:], nil
}

func consumeBool(data []byte, typ protowire.Type) (bool, []byte, error) {
	v, rest, err := consumeVarint(data, typ)
	return protowire.DecodeBool(v), rest, err
}

func consumeFixed64(data []byte, typ protowire.Type) (uint64, []byte, error) {
	if typ != protowire.Fixed64Type {
		return 0, data, wireTypeError(0, typ)
	}
	v, n := protowire.ConsumeFixed64(data)
	if n < 0 {
		return 0, data, protowire.ParseError(n)
	}
	return v, data[n:], nil
}

func consumeString(data []byte, typ protowire.Type) (string, []byte, error) {
	if typ != protowire.BytesType {
		return "", data, wireTypeError(0, typ)
	}
	v, n := protowire.ConsumeString(data)
	if n < 0 {
		return "", data, protowire.ParseError(n)
	}
	return v, data[n:], nil
}

// consumeBytesCopy copies the payload; the input buffer may be reused by
// the transport after Unmarshal returns.
func consumeBytesCopy(data []byte, typ protowire.Type) ([]byte, []byte, error) {
	if typ != protowire.BytesType {
		return nil, data, wireTypeError(0, typ)
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, data, protowire.ParseError(n)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, data[n:], nil
}

func consumeMessage(data []byte, typ protowire.Type, m Message) ([]byte, error) {
	if typ != protowire.BytesType {
		return data, wireTypeError(0, typ)
	}
	payload, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return data, protowire.ParseError(n)
	}
	if err := m.UnmarshalWire(payload); err != nil {
		return data, err
	}
	return data[n:], nil
}

// consumeParamEntry decodes one map<string, InferParameter> entry into m.
func consumeParamEntry(m map[string]*InferParameter, data []byte, typ protowire.Type) (map[string]*InferParameter, []byte, error) {
	if typ != protowire.BytesType {
		return m, data, wireTypeError(0, typ)
	}
	payload, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return m, data, protowire.ParseError(n)
	}
	var key string
	param := &InferParameter{}
	err := walkFields(payload, func(num protowire.Number, typ protowire.Type, data []byte) ([]byte, error) {
		var err error
		switch num {
		case 1:
			key, data, err = consumeString(data, typ)
		case 2:
			data, err = consumeMessage(data, typ, param)
		default:
			data, err = skipField(data, num, typ)
		}
		return data, err
	})
	if err != nil {
		return m, data, err
	}
	if m == nil {
		m = make(map[string]*InferParameter)
	}
	m[key] = param
	return m, data[n:], nil
}

// Packed repeated scalars also accept the unpacked encoding, as proto3
// decoders must.

func consumeInt64s(list []int64, data []byte, typ protowire.Type) ([]int64, []byte, error) {
	switch typ {
	case protowire.BytesType:
		payload, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return list, data, protowire.ParseError(n)
		}
		for len(payload) > 0 {
			v, vn := protowire.ConsumeVarint(payload)
			if vn < 0 {
				return list, data, protowire.ParseError(vn)
			}
			list = append(list, int64(v))
			payload = payload[vn:]
		}
		return list, data[n:], nil
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return list, data, protowire.ParseError(n)
		}
		return append(list, int64(v)), data[n:], nil
	default:
		return list, data, wireTypeError(0, typ)
	}
}

func consumeInt32s(list []int32, data []byte, typ protowire.Type) ([]int32, []byte, error) {
	wide, rest, err := consumeInt64s(nil, data, typ)
	if err != nil {
		return list, data, err
	}
	for _, v := range wide {
		list = append(list, int32(v))
	}
	return list, rest, nil
}

func consumeUint32s(list []uint32, data []byte, typ protowire.Type) ([]uint32, []byte, error) {
	wide, rest, err := consumeInt64s(nil, data, typ)
	if err != nil {
		return list, data, err
	}
	for _, v := range wide {
		list = append(list, uint32(v))
	}
	return list, rest, nil
}

func consumeUint64s(list []uint64, data []byte, typ protowire.Type) ([]uint64, []byte, error) {
	wide, rest, err := consumeInt64s(nil, data, typ)
	if err != nil {
		return list, data, err
	}
	for _, v := range wide {
		list = append(list, uint64(v))
	}
	return list, rest, nil
}

func consumeBools(list []bool, data []byte, typ protowire.Type) ([]bool, []byte, error) {
	wide, rest, err := consumeInt64s(nil, data, typ)
	if err != nil {
		return list, data, err
	}
	for _, v := range wide {
		list = append(list, v != 0)
	}
	return list, rest, nil
}

func consumeFloat32s(list []float32, data []byte, typ protowire.Type) ([]float32, []byte, error) {
	switch typ {
	case protowire.BytesType:
		payload, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return list, data, protowire.ParseError(n)
		}
		for len(payload) > 0 {
			v, vn := protowire.ConsumeFixed32(payload)
			if vn < 0 {
				return list, data, protowire.ParseError(vn)
			}
			list = append(list, math.Float32frombits(v))
			payload = payload[vn:]
		}
		return list, data[n:], nil
	case protowire.Fixed32Type:
		v, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return list, data, protowire.ParseError(n)
		}
		return append(list, math.Float32frombits(v)), data[n:], nil
	default:
		return list, data, wireTypeError(0, typ)
	}
}

func consumeFloat64s(list []float64, data []byte, typ protowire.Type) ([]float64, []byte, error) {
	switch typ {
	case protowire.BytesType:
		payload, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return list, data, protowire.ParseError(n)
		}
		for len(payload) > 0 {
			v, vn := protowire.ConsumeFixed64(payload)
			if vn < 0 {
				return list, data, protowire.ParseError(vn)
			}
			list = append(list, math.Float64frombits(v))
			payload = payload[vn:]
		}
		return list, data[n:], nil
	case protowire.Fixed64Type:
		v, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return list, data, protowire.ParseError(n)
		}
		return append(list, math.Float64frombits(v)), data[n:], nil
	default:
		return list, data, wireTypeError(0, typ)
	}
}
