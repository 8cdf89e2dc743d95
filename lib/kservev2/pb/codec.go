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
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "inference.GRPCInferenceService"

// Codec marshals the protocol messages for grpc. Install it with
// grpc.ForceServerCodec on servers and grpc.ForceCodec call options on
// clients; it is intentionally not registered globally so the "proto"
// subtype stays untouched for any other gRPC traffic in the process.
type Codec struct{}

// Name implements encoding.Codec. "proto" matches the content-subtype
// standard KServe clients send.
func (Codec) Name() string { return "proto" }

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("pb: cannot marshal %T", v)
	}
	return m.AppendWire(nil), nil
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("pb: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

// InferenceServer is the server API for the GRPCInferenceService.
type InferenceServer interface {
	ServerLive(context.Context, *ServerLiveRequest) (*ServerLiveResponse, error)
	ServerReady(context.Context, *ServerReadyRequest) (*ServerReadyResponse, error)
	ModelReady(context.Context, *ModelReadyRequest) (*ModelReadyResponse, error)
	ServerMetadata(context.Context, *ServerMetadataRequest) (*ServerMetadataResponse, error)
	ModelMetadata(context.Context, *ModelMetadataRequest) (*ModelMetadataResponse, error)
	ModelInfer(context.Context, *ModelInferRequest) (*ModelInferResponse, error)
}

// RegisterInferenceServer registers srv on s.
func RegisterInferenceServer(s grpc.ServiceRegistrar, srv InferenceServer) {
	s.RegisterService(&InferenceServiceDesc, srv)
}

func serverLiveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ServerLiveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).ServerLive(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ServerLive",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServer).ServerLive(ctx, req.(*ServerLiveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func serverReadyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ServerReadyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).ServerReady(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ServerReady",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServer).ServerReady(ctx, req.(*ServerReadyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func modelReadyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelReadyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).ModelReady(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ModelReady",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServer).ModelReady(ctx, req.(*ModelReadyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func serverMetadataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ServerMetadataRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).ServerMetadata(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ServerMetadata",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServer).ServerMetadata(ctx, req.(*ServerMetadataRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func modelMetadataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelMetadataRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).ModelMetadata(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ModelMetadata",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServer).ModelMetadata(ctx, req.(*ModelMetadataRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func modelInferHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ModelInferRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).ModelInfer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ModelInfer",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServer).ModelInfer(ctx, req.(*ModelInferRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// InferenceServiceDesc is the grpc.ServiceDesc for the inference service.
var InferenceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InferenceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ServerLive", Handler: serverLiveHandler},
		{MethodName: "ServerReady", Handler: serverReadyHandler},
		{MethodName: "ModelReady", Handler: modelReadyHandler},
		{MethodName: "ServerMetadata", Handler: serverMetadataHandler},
		{MethodName: "ModelMetadata", Handler: modelMetadataHandler},
		{MethodName: "ModelInfer", Handler: modelInferHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "grpc_predict_v2.proto",
}

// InferenceClient calls the GRPCInferenceService.
type InferenceClient struct {
	cc grpc.ClientConnInterface
}

// NewInferenceClient returns a client on cc. Dial cc with
// grpc.WithDefaultCallOptions(grpc.ForceCodec(pb.Codec{})) so the
// protocol messages marshal through this package.
func NewInferenceClient(cc grpc.ClientConnInterface) *InferenceClient {
	return &InferenceClient{cc: cc}
}

// ServerLive calls inference.GRPCInferenceService/ServerLive.
func (c *InferenceClient) ServerLive(ctx context.Context, in *ServerLiveRequest, opts ...grpc.CallOption) (*ServerLiveResponse, error) {
	out := new(ServerLiveResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ServerLive", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ServerReady calls inference.GRPCInferenceService/ServerReady.
func (c *InferenceClient) ServerReady(ctx context.Context, in *ServerReadyRequest, opts ...grpc.CallOption) (*ServerReadyResponse, error) {
	out := new(ServerReadyResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ServerReady", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ModelReady calls inference.GRPCInferenceService/ModelReady.
func (c *InferenceClient) ModelReady(ctx context.Context, in *ModelReadyRequest, opts ...grpc.CallOption) (*ModelReadyResponse, error) {
	out := new(ModelReadyResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ModelReady", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ServerMetadata calls inference.GRPCInferenceService/ServerMetadata.
func (c *InferenceClient) ServerMetadata(ctx context.Context, in *ServerMetadataRequest, opts ...grpc.CallOption) (*ServerMetadataResponse, error) {
	out := new(ServerMetadataResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ServerMetadata", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ModelMetadata calls inference.GRPCInferenceService/ModelMetadata.
func (c *InferenceClient) ModelMetadata(ctx context.Context, in *ModelMetadataRequest, opts ...grpc.CallOption) (*ModelMetadataResponse, error) {
	out := new(ModelMetadataResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ModelMetadata", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ModelInfer calls inference.GRPCInferenceService/ModelInfer.
func (c *InferenceClient) ModelInfer(ctx context.Context, in *ModelInferRequest, opts ...grpc.CallOption) (*ModelInferResponse, error) {
	out := new(ModelInferResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ModelInfer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
