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

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/executor"
	"github.com/bayesgate/bayesgate/lib/registry"
	"github.com/bayesgate/bayesgate/lib/tensor"
)

// ErrorKind is the stable machine-readable classification carried in
// error responses alongside the human-readable message. Both transports
// derive their status codes from it here and nowhere else.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindExecution         ErrorKind = "execution"
	KindResourceExhausted ErrorKind = "resource_exhausted"
	KindUnavailable       ErrorKind = "unavailable"
	KindTimeout           ErrorKind = "timeout"
)

// Classify buckets an error into its ErrorKind. Validation errors are
// checked before the ExecutionError wrapper so a bad-observations error
// surfaced through the engine still maps to the client's fault.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, registry.ErrModelNotFound),
		errors.Is(err, registry.ErrInstanceNotFound):
		return KindNotFound
	case errors.Is(err, executor.ErrEmptyInput),
		errors.Is(err, ErrInvalidParameter),
		errors.Is(err, tensor.ErrMalformedTensor),
		errors.Is(err, tensor.ErrUnknownDatatype),
		errors.Is(err, distribution.ErrInvalidEnvelope),
		errors.Is(err, distribution.ErrUnsupportedDistribution),
		errors.Is(err, engine.ErrInvalidObservations):
		return KindValidation
	case errors.Is(err, ErrQueueFull):
		return KindResourceExhausted
	case errors.Is(err, ErrRequestTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindExecution
}

// HTTPStatus maps the kind to its REST status code.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindResourceExhausted:
		return 429
	case KindUnavailable:
		return 503
	case KindTimeout:
		return 504
	}
	return 500
}

// GRPCCode maps the kind to its gRPC status code.
func (k ErrorKind) GRPCCode() codes.Code {
	switch k {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindResourceExhausted:
		return codes.ResourceExhausted
	case KindUnavailable:
		return codes.Unavailable
	case KindTimeout:
		return codes.DeadlineExceeded
	}
	return codes.Unknown
}

// GRPCError converts err into a gRPC status error using the shared
// classification. Errors that already carry a status pass through.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && status.Code(err) != codes.Unknown {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(Classify(err).GRPCCode(), err.Error())
}
