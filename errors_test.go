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

package bayesgate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/executor"
	"github.com/bayesgate/bayesgate/lib/registry"
	"github.com/bayesgate/bayesgate/lib/tensor"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"model not found", registry.ErrModelNotFound, KindNotFound},
		{"instance not found", registry.ErrInstanceNotFound, KindNotFound},
		{"wrapped not found", fmt.Errorf("model %q: %w", "x", registry.ErrModelNotFound), KindNotFound},
		{"empty input", executor.ErrEmptyInput, KindValidation},
		{"bad parameter", fmt.Errorf("parameter %q: %w", "model_state", ErrInvalidParameter), KindValidation},
		{"malformed tensor", tensor.ErrMalformedTensor, KindValidation},
		{"unknown datatype", tensor.ErrUnknownDatatype, KindValidation},
		{"bad envelope", distribution.ErrInvalidEnvelope, KindValidation},
		{"unsupported distribution", distribution.ErrUnsupportedDistribution, KindValidation},
		{"bad observations", engine.ErrInvalidObservations, KindValidation},
		{"queue full", ErrQueueFull, KindResourceExhausted},
		{"queue timeout", ErrRequestTimeout, KindTimeout},
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout},
		{"anything else", errors.New("engine blew up"), KindExecution},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

// Engine validation errors surfaced through the executor's wrapper must
// still classify as the client's fault.
func TestClassifyThroughExecutionError(t *testing.T) {
	wrapped := &executor.ExecutionError{
		Model:      "beta_bernoulli",
		InstanceID: "inst-1",
		Err:        fmt.Errorf("observation 2: %w", engine.ErrInvalidObservations),
	}
	assert.Equal(t, KindValidation, Classify(wrapped))

	opaque := &executor.ExecutionError{
		Model:      "beta_bernoulli",
		InstanceID: "inst-1",
		Err:        errors.New("numerical instability"),
	}
	assert.Equal(t, KindExecution, Classify(opaque))
}

func TestErrorKindStatusCodes(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		http int
		grpc codes.Code
	}{
		{KindValidation, 400, codes.InvalidArgument},
		{KindNotFound, 404, codes.NotFound},
		{KindResourceExhausted, 429, codes.ResourceExhausted},
		{KindUnavailable, 503, codes.Unavailable},
		{KindTimeout, 504, codes.DeadlineExceeded},
		{KindExecution, 500, codes.Unknown},
		{ErrorKind("bogus"), 500, codes.Unknown},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.http, tc.kind.HTTPStatus())
			assert.Equal(t, tc.grpc, tc.kind.GRPCCode())
		})
	}
}

func TestGRPCError(t *testing.T) {
	assert.NoError(t, GRPCError(nil))

	err := GRPCError(fmt.Errorf("model %q: %w", "nope", registry.ErrModelNotFound))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())

	err = GRPCError(executor.ErrEmptyInput)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = GRPCError(context.Canceled)
	assert.Equal(t, codes.Canceled, status.Code(err))

	// Pre-built status errors pass through unchanged.
	orig := status.Error(codes.FailedPrecondition, "no can do")
	assert.Same(t, orig, GRPCError(orig))
}
