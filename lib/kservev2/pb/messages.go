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

// Package pb holds the wire messages of the inference.GRPCInferenceService
// protocol, hand-encoded with protowire. Field numbers follow the KServe
// v2 grpc_predict_v2.proto so standard clients interoperate byte for
// byte; no generated descriptors are involved.
package pb

// ServerLiveRequest asks whether the server process is up.
type ServerLiveRequest struct{}

// ServerLiveResponse reports process liveness.
type ServerLiveResponse struct {
	Live bool
}

// ServerReadyRequest asks whether the server accepts inference.
type ServerReadyRequest struct{}

// ServerReadyResponse reports readiness.
type ServerReadyResponse struct {
	Ready bool
}

// ModelReadyRequest asks whether one model is servable.
type ModelReadyRequest struct {
	Name    string
	Version string
}

// ModelReadyResponse reports model readiness.
type ModelReadyResponse struct {
	Ready bool
}

// ServerMetadataRequest asks for server identification.
type ServerMetadataRequest struct{}

// ServerMetadataResponse identifies the server build.
type ServerMetadataResponse struct {
	Name       string
	Version    string
	Extensions []string
}

// ModelMetadataRequest asks for one model's tensor signature.
type ModelMetadataRequest struct {
	Name    string
	Version string
}

// TensorMetadata describes one input or output slot.
type TensorMetadata struct {
	Name     string
	Datatype string
	Shape    []int64
}

// ModelMetadataResponse is a model's tensor signature.
type ModelMetadataResponse struct {
	Name     string
	Versions []string
	Platform string
	Inputs   []*TensorMetadata
	Outputs  []*TensorMetadata
}

// InferParameter is the oneof-valued parameter type. Exactly one field
// is non-nil on a well-formed parameter.
type InferParameter struct {
	BoolParam   *bool
	Int64Param  *int64
	StringParam *string
	DoubleParam *float64
}

// InferTensorContents carries tensor data in the slice matching the
// tensor's datatype. INT8/16/32 share IntContents, UINT8/16/32 share
// UintContents, FP16 rides in Fp32Contents.
type InferTensorContents struct {
	BoolContents   []bool
	IntContents    []int32
	Int64Contents  []int64
	UintContents   []uint32
	Uint64Contents []uint64
	Fp32Contents   []float32
	Fp64Contents   []float64
	BytesContents  [][]byte
}

// InferInputTensor is one named input of a ModelInferRequest.
type InferInputTensor struct {
	Name       string
	Datatype   string
	Shape      []int64
	Parameters map[string]*InferParameter
	Contents   *InferTensorContents
}

// InferRequestedOutputTensor names an output the client wants back.
type InferRequestedOutputTensor struct {
	Name       string
	Parameters map[string]*InferParameter
}

// InferOutputTensor is one named output of a ModelInferResponse.
type InferOutputTensor struct {
	Name       string
	Datatype   string
	Shape      []int64
	Parameters map[string]*InferParameter
	Contents   *InferTensorContents
}

// ModelInferRequest is the ModelInfer call body. RawInputContents, when
// non-empty, replaces the typed contents of the input at the same index.
type ModelInferRequest struct {
	ModelName        string
	ModelVersion     string
	ID               string
	Parameters       map[string]*InferParameter
	Inputs           []*InferInputTensor
	Outputs          []*InferRequestedOutputTensor
	RawInputContents [][]byte
}

// ModelInferResponse is the ModelInfer result body.
type ModelInferResponse struct {
	ModelName         string
	ModelVersion      string
	ID                string
	Parameters        map[string]*InferParameter
	Outputs           []*InferOutputTensor
	RawOutputContents [][]byte
}

// Bool returns a bool-valued parameter.
func Bool(v bool) *InferParameter { return &InferParameter{BoolParam: &v} }

// Int64 returns an int64-valued parameter.
func Int64(v int64) *InferParameter { return &InferParameter{Int64Param: &v} }

// String returns a string-valued parameter.
func String(v string) *InferParameter { return &InferParameter{StringParam: &v} }

// Double returns a double-valued parameter.
func Double(v float64) *InferParameter { return &InferParameter{DoubleParam: &v} }

// Value returns whichever variant is set, or nil.
func (p *InferParameter) Value() any {
	switch {
	case p == nil:
		return nil
	case p.BoolParam != nil:
		return *p.BoolParam
	case p.Int64Param != nil:
		return *p.Int64Param
	case p.StringParam != nil:
		return *p.StringParam
	case p.DoubleParam != nil:
		return *p.DoubleParam
	default:
		return nil
	}
}
