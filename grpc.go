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
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bayesgate/bayesgate/lib/kservev2/pb"
)

// grpcService implements pb.InferenceServer on top of the shared node,
// so both transports run the exact same inference path.
type grpcService struct {
	logger *zap.Logger
	node   *GatewayNode
}

var _ pb.InferenceServer = (*grpcService)(nil)

// NewGRPCServer builds the gRPC server with the inference codec and
// logging/recovery interceptors. The codec is scoped to this server via
// ForceServerCodec rather than registered globally.
func NewGRPCServer(logger *zap.Logger, node *GatewayNode) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(pb.Codec{}),
		grpc_middleware.WithUnaryServerChain(
			grpc_ctxtags.UnaryServerInterceptor(),
			grpc_zap.UnaryServerInterceptor(logger),
			grpc_recovery.UnaryServerInterceptor(),
		),
	)
	pb.RegisterInferenceServer(srv, &grpcService{logger: logger, node: node})
	return srv
}

func (s *grpcService) ServerLive(ctx context.Context, req *pb.ServerLiveRequest) (*pb.ServerLiveResponse, error) {
	return &pb.ServerLiveResponse{Live: true}, nil
}

func (s *grpcService) ServerReady(ctx context.Context, req *pb.ServerReadyRequest) (*pb.ServerReadyResponse, error) {
	return &pb.ServerReadyResponse{Ready: s.node.ready.Load()}, nil
}

// ModelReady reports ready=false for unknown models rather than erroring,
// matching the REST handler.
func (s *grpcService) ModelReady(ctx context.Context, req *pb.ModelReadyRequest) (*pb.ModelReadyResponse, error) {
	return &pb.ModelReadyResponse{Ready: s.node.modelReady(req.Name, req.Version)}, nil
}

func (s *grpcService) ServerMetadata(ctx context.Context, req *pb.ServerMetadataRequest) (*pb.ServerMetadataResponse, error) {
	return &pb.ServerMetadataResponse{
		Name:       ServerName,
		Version:    Version,
		Extensions: []string{"model_repository", "sessions"},
	}, nil
}

func (s *grpcService) ModelMetadata(ctx context.Context, req *pb.ModelMetadataRequest) (*pb.ModelMetadataResponse, error) {
	md, err := s.node.modelMetadata(req.Name, req.Version)
	if err != nil {
		return nil, GRPCError(err)
	}
	resp := &pb.ModelMetadataResponse{
		Name:     md.Name,
		Versions: md.Versions,
		Platform: md.Platform,
	}
	for _, t := range md.Inputs {
		resp.Inputs = append(resp.Inputs, &pb.TensorMetadata{Name: t.Name, Datatype: t.Datatype, Shape: t.Shape})
	}
	for _, t := range md.Outputs {
		resp.Outputs = append(resp.Outputs, &pb.TensorMetadata{Name: t.Name, Datatype: t.Datatype, Shape: t.Shape})
	}
	return resp, nil
}

func (s *grpcService) ModelInfer(ctx context.Context, req *pb.ModelInferRequest) (*pb.ModelInferResponse, error) {
	start := time.Now()

	// Apply backpressure via request queue
	release, err := s.node.requestQueue.Acquire(ctx)
	if err != nil {
		switch err {
		case ErrQueueFull:
			RecordQueueRejection()
			return nil, status.Error(codes.ResourceExhausted, "server is at capacity, retry later")
		case ErrRequestTimeout:
			RecordQueueTimeout()
			return nil, status.Error(codes.DeadlineExceeded, "timed out waiting for a processing slot")
		default:
			return nil, status.FromContextError(err).Err()
		}
	}
	defer release()

	UpdateQueueMetrics(s.node.requestQueue.Stats())

	RecordInferenceRequest(req.ModelName, "grpc")

	inputs, err := req.InputTensors()
	if err != nil {
		RecordInferenceError(req.ModelName, KindValidation)
		return nil, GRPCError(err)
	}
	outputs := make([]string, 0, len(req.Outputs))
	for _, o := range req.Outputs {
		outputs = append(outputs, o.Name)
	}

	outcome, err := s.node.runInfer(ctx, req.ModelName, req.ModelVersion, inferRequest{
		id:         req.ID,
		inputs:     inputs,
		outputs:    outputs,
		parameters: pb.ParamsToMap(req.Parameters),
	})
	if err != nil {
		kind := Classify(err)
		RecordInferenceError(req.ModelName, kind)
		RecordRequestDuration("infer", req.ModelName, "error", time.Since(start).Seconds())
		s.logger.Error("inference request failed",
			zap.String("model", req.ModelName),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, GRPCError(err)
	}

	resp := &pb.ModelInferResponse{
		ModelName:    req.ModelName,
		ModelVersion: outcome.version,
		ID:           outcome.id,
		Parameters:   pb.ParamsFromMap(outcome.params),
	}
	for _, t := range outcome.tensors {
		ot, err := pb.OutputTensor(t)
		if err != nil {
			return nil, GRPCError(err)
		}
		resp.Outputs = append(resp.Outputs, ot)
	}

	RecordRequestDuration("infer", req.ModelName, "success", time.Since(start).Seconds())
	return resp, nil
}
