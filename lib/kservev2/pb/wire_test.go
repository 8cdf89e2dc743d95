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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func roundTrip(t *testing.T, in, out Message) {
	t.Helper()
	data := in.AppendWire(nil)
	require.NoError(t, out.UnmarshalWire(data))
}

func TestModelInferRequestRoundTrip(t *testing.T) {
	in := &ModelInferRequest{
		ModelName:    "beta_bernoulli",
		ModelVersion: "1.0.0",
		ID:           "req-42",
		Parameters: map[string]*InferParameter{
			"iterations":  Int64(20),
			"keep_state":  Bool(true),
			"model_state": String(`{"mean":[0,0]}`),
			"sigma":       Double(0.25),
		},
		Inputs: []*InferInputTensor{
			{
				Name:     "y",
				Datatype: "FP64",
				Shape:    []int64{5},
				Contents: &InferTensorContents{
					Fp64Contents: []float64{1, 0, 1, 1, 0},
				},
			},
		},
		Outputs: []*InferRequestedOutputTensor{
			{Name: "posteriors"},
		},
	}

	out := &ModelInferRequest{}
	roundTrip(t, in, out)

	assert.Equal(t, in.ModelName, out.ModelName)
	assert.Equal(t, in.ModelVersion, out.ModelVersion)
	assert.Equal(t, in.ID, out.ID)
	require.Len(t, out.Inputs, 1)
	assert.Equal(t, "y", out.Inputs[0].Name)
	assert.Equal(t, "FP64", out.Inputs[0].Datatype)
	assert.Equal(t, []int64{5}, out.Inputs[0].Shape)
	require.NotNil(t, out.Inputs[0].Contents)
	assert.Equal(t, []float64{1, 0, 1, 1, 0}, out.Inputs[0].Contents.Fp64Contents)
	require.Len(t, out.Outputs, 1)
	assert.Equal(t, "posteriors", out.Outputs[0].Name)

	require.Len(t, out.Parameters, 4)
	assert.Equal(t, int64(20), out.Parameters["iterations"].Value())
	assert.Equal(t, true, out.Parameters["keep_state"].Value())
	assert.Equal(t, `{"mean":[0,0]}`, out.Parameters["model_state"].Value())
	assert.Equal(t, 0.25, out.Parameters["sigma"].Value())
}

func TestModelInferResponseRoundTrip(t *testing.T) {
	in := &ModelInferResponse{
		ModelName: "beta_bernoulli",
		ID:        "req-42",
		Outputs: []*InferOutputTensor{
			{
				Name:     "posteriors",
				Datatype: "BYTES",
				Shape:    []int64{1},
				Contents: &InferTensorContents{
					BytesContents: [][]byte{[]byte(`{"theta":{"type":"Beta"}}`)},
				},
			},
			{
				Name:     "free_energy",
				Datatype: "FP64",
				Shape:    []int64{1},
				Contents: &InferTensorContents{Fp64Contents: []float64{-4.094}},
			},
		},
		Parameters: map[string]*InferParameter{
			"model_state": String(`{"n":5}`),
		},
	}

	out := &ModelInferResponse{}
	roundTrip(t, in, out)

	assert.Equal(t, "beta_bernoulli", out.ModelName)
	require.Len(t, out.Outputs, 2)
	assert.Equal(t, [][]byte{[]byte(`{"theta":{"type":"Beta"}}`)}, out.Outputs[0].Contents.BytesContents)
	assert.Equal(t, []float64{-4.094}, out.Outputs[1].Contents.Fp64Contents)
	assert.Equal(t, `{"n":5}`, out.Parameters["model_state"].Value())
}

func TestContentsRoundTripAllSlices(t *testing.T) {
	in := &InferTensorContents{
		BoolContents:   []bool{true, false, true},
		IntContents:    []int32{-3, 0, 7},
		Int64Contents:  []int64{-1 << 40, 9},
		UintContents:   []uint32{0, 4000000000},
		Uint64Contents: []uint64{1 << 60},
		Fp32Contents:   []float32{1.5, -2.25},
		Fp64Contents:   []float64{3.14159, -0.5},
		BytesContents:  [][]byte{[]byte("a"), {}, []byte("xyz")},
	}

	out := &InferTensorContents{}
	roundTrip(t, in, out)
	assert.Equal(t, in, out)
}

func TestEmptyMessages(t *testing.T) {
	assert.Empty(t, (&ServerLiveRequest{}).AppendWire(nil))
	assert.Empty(t, (&ModelInferRequest{}).AppendWire(nil))

	out := &ModelInferRequest{}
	require.NoError(t, out.UnmarshalWire(nil))
	assert.Empty(t, out.ModelName)
	assert.Nil(t, out.Inputs)
}

func TestBoolResponsesElideFalse(t *testing.T) {
	assert.Empty(t, (&ServerReadyResponse{Ready: false}).AppendWire(nil))

	data := (&ServerReadyResponse{Ready: true}).AppendWire(nil)
	out := &ServerReadyResponse{}
	require.NoError(t, out.UnmarshalWire(data))
	assert.True(t, out.Ready)
}

func TestOneofEmitsZeroValues(t *testing.T) {
	// A set-but-false bool param must survive the wire, unlike a plain
	// proto3 bool field.
	data := Bool(false).AppendWire(nil)
	require.NotEmpty(t, data)

	out := &InferParameter{}
	require.NoError(t, out.UnmarshalWire(data))
	require.NotNil(t, out.BoolParam)
	assert.False(t, *out.BoolParam)
	assert.Equal(t, false, out.Value())
}

func TestUnknownFieldsSkipped(t *testing.T) {
	data := (&ModelReadyRequest{Name: "m"}).AppendWire(nil)
	data = protowire.AppendTag(data, 99, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)
	data = protowire.AppendTag(data, 100, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("future"))

	out := &ModelReadyRequest{}
	require.NoError(t, out.UnmarshalWire(data))
	assert.Equal(t, "m", out.Name)
}

func TestUnpackedRepeatedAccepted(t *testing.T) {
	// Shape encoded one varint per element instead of packed.
	var data []byte
	data = protowire.AppendTag(data, 3, protowire.VarintType)
	data = protowire.AppendVarint(data, 2)
	data = protowire.AppendTag(data, 3, protowire.VarintType)
	data = protowire.AppendVarint(data, 3)

	out := &TensorMetadata{}
	require.NoError(t, out.UnmarshalWire(data))
	assert.Equal(t, []int64{2, 3}, out.Shape)
}

func TestNegativeShapeDimensionRoundTrip(t *testing.T) {
	in := &TensorMetadata{Name: "y", Datatype: "FP64", Shape: []int64{-1}}
	out := &TensorMetadata{}
	roundTrip(t, in, out)
	assert.Equal(t, []int64{-1}, out.Shape)
}

func TestParamsMarshalDeterministic(t *testing.T) {
	m := &ModelInferRequest{
		Parameters: map[string]*InferParameter{
			"c": Int64(3), "a": Int64(1), "b": Int64(2),
		},
	}
	first := m.AppendWire(nil)
	for range 10 {
		assert.Equal(t, first, m.AppendWire(nil))
	}
}

func TestModelMetadataResponseRoundTrip(t *testing.T) {
	in := &ModelMetadataResponse{
		Name:     "streaming_kalman",
		Versions: []string{"1.0.0"},
		Platform: "bayesgate-conjugate",
		Inputs: []*TensorMetadata{
			{Name: "y", Datatype: "FP64", Shape: []int64{-1}},
		},
		Outputs: []*TensorMetadata{
			{Name: "posteriors", Datatype: "BYTES", Shape: []int64{1}},
			{Name: "x", Datatype: "FP64", Shape: []int64{-1, 2}},
		},
	}
	out := &ModelMetadataResponse{}
	roundTrip(t, in, out)
	assert.Equal(t, in, out)
}

func TestCodec(t *testing.T) {
	codec := Codec{}
	assert.Equal(t, "proto", codec.Name())

	in := &ServerMetadataResponse{Name: "bayesgate", Version: "1.0.0", Extensions: []string{"model_repository"}}
	data, err := codec.Marshal(in)
	require.NoError(t, err)

	out := &ServerMetadataResponse{}
	require.NoError(t, codec.Unmarshal(data, out))
	assert.Equal(t, in, out)

	_, err = codec.Marshal(42)
	assert.Error(t, err)
	assert.Error(t, codec.Unmarshal(data, struct{}{}))
}

func TestTruncatedInputFails(t *testing.T) {
	data := (&ModelInferRequest{ModelName: "m", ID: "1"}).AppendWire(nil)
	out := &ModelInferRequest{}
	assert.Error(t, out.UnmarshalWire(data[:len(data)-1]))
}
