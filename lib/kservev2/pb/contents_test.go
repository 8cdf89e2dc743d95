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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayesgate/bayesgate/lib/tensor"
)

func TestInputTensorsTypedContents(t *testing.T) {
	req := &ModelInferRequest{
		Inputs: []*InferInputTensor{
			{
				Name:     "y",
				Datatype: "FP64",
				Shape:    []int64{3},
				Contents: &InferTensorContents{Fp64Contents: []float64{1, 2, 3}},
			},
			{
				Name:     "labels",
				Datatype: "BYTES",
				Shape:    []int64{2},
				Contents: &InferTensorContents{BytesContents: [][]byte{[]byte("a"), []byte("b")}},
			},
		},
	}

	tensors, err := req.InputTensors()
	require.NoError(t, err)
	require.Len(t, tensors, 2)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, tensors[0].Data)
	assert.Equal(t, tensor.FP64, tensors[0].Datatype)
	assert.Equal(t, []any{"a", "b"}, tensors[1].Data)
}

func TestInputTensorsRawContents(t *testing.T) {
	raw := make([]byte, 16)
	binary.LittleEndian.PutUint64(raw[0:], math.Float64bits(2.5))
	binary.LittleEndian.PutUint64(raw[8:], math.Float64bits(-1.0))

	req := &ModelInferRequest{
		Inputs: []*InferInputTensor{
			{Name: "y", Datatype: "FP64", Shape: []int64{2}},
		},
		RawInputContents: [][]byte{raw},
	}

	tensors, err := req.InputTensors()
	require.NoError(t, err)
	assert.Equal(t, []any{2.5, -1.0}, tensors[0].Data)
}

func TestInputTensorsRawBytes(t *testing.T) {
	var raw []byte
	for _, s := range []string{"hello", ""} {
		var l [4]byte
		binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
		raw = append(raw, l[:]...)
		raw = append(raw, s...)
	}

	req := &ModelInferRequest{
		Inputs:           []*InferInputTensor{{Name: "b", Datatype: "BYTES", Shape: []int64{2}}},
		RawInputContents: [][]byte{raw},
	}

	tensors, err := req.InputTensors()
	require.NoError(t, err)
	assert.Equal(t, []any{"hello", ""}, tensors[0].Data)
}

func TestInputTensorsRawErrors(t *testing.T) {
	t.Run("count mismatch", func(t *testing.T) {
		req := &ModelInferRequest{
			Inputs:           []*InferInputTensor{{Name: "a", Datatype: "FP64"}, {Name: "b", Datatype: "FP64"}},
			RawInputContents: [][]byte{{0}},
		}
		_, err := req.InputTensors()
		assert.ErrorIs(t, err, tensor.ErrMalformedTensor)
	})

	t.Run("ragged fixed width", func(t *testing.T) {
		req := &ModelInferRequest{
			Inputs:           []*InferInputTensor{{Name: "y", Datatype: "FP64", Shape: []int64{1}}},
			RawInputContents: [][]byte{{1, 2, 3}},
		}
		_, err := req.InputTensors()
		assert.ErrorIs(t, err, tensor.ErrMalformedTensor)
	})

	t.Run("truncated bytes prefix", func(t *testing.T) {
		req := &ModelInferRequest{
			Inputs:           []*InferInputTensor{{Name: "b", Datatype: "BYTES", Shape: []int64{1}}},
			RawInputContents: [][]byte{{9, 0, 0, 0, 'x'}},
		}
		_, err := req.InputTensors()
		assert.ErrorIs(t, err, tensor.ErrMalformedTensor)
	})

	t.Run("fp16 unsupported", func(t *testing.T) {
		req := &ModelInferRequest{
			Inputs:           []*InferInputTensor{{Name: "h", Datatype: "FP16", Shape: []int64{1}}},
			RawInputContents: [][]byte{{0, 0}},
		}
		_, err := req.InputTensors()
		assert.ErrorIs(t, err, tensor.ErrUnknownDatatype)
	})
}

func TestInputTensorsUnknownDatatype(t *testing.T) {
	req := &ModelInferRequest{
		Inputs: []*InferInputTensor{{Name: "y", Datatype: "FP128", Contents: &InferTensorContents{}}},
	}
	_, err := req.InputTensors()
	assert.ErrorIs(t, err, tensor.ErrUnknownDatatype)
}

func TestOutputTensor(t *testing.T) {
	out, err := OutputTensor(tensor.Tensor{
		Name:     "free_energy",
		Datatype: tensor.FP64,
		Shape:    []int64{1},
		Data:     []any{-3.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "FP64", out.Datatype)
	assert.Equal(t, []float64{-3.5}, out.Contents.Fp64Contents)

	out, err = OutputTensor(tensor.Tensor{
		Name:     "posteriors",
		Datatype: tensor.Bytes,
		Shape:    []int64{1},
		Data:     []any{`{"theta":{}}`},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte(`{"theta":{}}`)}, out.Contents.BytesContents)

	_, err = OutputTensor(tensor.Tensor{
		Name:     "bad",
		Datatype: tensor.FP64,
		Data:     []any{"not a number"},
	})
	assert.ErrorIs(t, err, tensor.ErrMalformedTensor)
}

func TestParamsMapRoundTrip(t *testing.T) {
	params := ParamsFromMap(map[string]any{
		"iterations": 15,
		"verbose":    true,
		"note":       "hello",
		"sigma":      0.5,
		"ranges":     []any{1.0, 2.0},
	})
	require.Len(t, params, 5)

	m := ParamsToMap(params)
	assert.Equal(t, int64(15), m["iterations"])
	assert.Equal(t, true, m["verbose"])
	assert.Equal(t, "hello", m["note"])
	assert.Equal(t, 0.5, m["sigma"])
	assert.Equal(t, "[1,2]", m["ranges"], "unrepresentable values ride as JSON strings")

	assert.Nil(t, ParamsToMap(nil))
	assert.Nil(t, ParamsFromMap(nil))
}
