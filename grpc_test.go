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
	"encoding/binary"
	"math"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/kservev2"
	"github.com/bayesgate/bayesgate/lib/kservev2/pb"
)

func newGRPCTestClient(t *testing.T) (*pb.InferenceClient, *GatewayNode) {
	t.Helper()
	node := newTestNode(t)
	srv := NewGRPCServer(zap.NewNop(), node)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(pb.Codec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return pb.NewInferenceClient(conn), node
}

func bernoulliInferRequest() *pb.ModelInferRequest {
	return &pb.ModelInferRequest{
		ModelName: "beta_bernoulli",
		Inputs: []*pb.InferInputTensor{{
			Name:     "y",
			Datatype: "FP64",
			Shape:    []int64{5},
			Contents: &pb.InferTensorContents{Fp64Contents: []float64{1, 0, 1, 1, 0}},
		}},
	}
}

func grpcOutput(t *testing.T, resp *pb.ModelInferResponse, name string) *pb.InferOutputTensor {
	t.Helper()
	for _, out := range resp.Outputs {
		if out.Name == name {
			return out
		}
	}
	t.Fatalf("response has no output %q", name)
	return nil
}

func TestGRPCServerLiveReady(t *testing.T) {
	client, node := newGRPCTestClient(t)
	ctx := context.Background()

	live, err := client.ServerLive(ctx, &pb.ServerLiveRequest{})
	require.NoError(t, err)
	assert.True(t, live.Live)

	ready, err := client.ServerReady(ctx, &pb.ServerReadyRequest{})
	require.NoError(t, err)
	assert.True(t, ready.Ready)

	node.ready.Store(false)
	ready, err = client.ServerReady(ctx, &pb.ServerReadyRequest{})
	require.NoError(t, err)
	assert.False(t, ready.Ready)
}

func TestGRPCServerMetadata(t *testing.T) {
	client, _ := newGRPCTestClient(t)

	meta, err := client.ServerMetadata(context.Background(), &pb.ServerMetadataRequest{})
	require.NoError(t, err)
	assert.Equal(t, "bayesgate", meta.Name)
	assert.Contains(t, meta.Extensions, "model_repository")
	assert.Contains(t, meta.Extensions, "sessions")
}

func TestGRPCModelReady(t *testing.T) {
	client, _ := newGRPCTestClient(t)
	ctx := context.Background()

	ready, err := client.ModelReady(ctx, &pb.ModelReadyRequest{Name: "beta_bernoulli"})
	require.NoError(t, err)
	assert.True(t, ready.Ready)

	// Unknown models answer not-ready, they do not error
	ready, err = client.ModelReady(ctx, &pb.ModelReadyRequest{Name: "nope"})
	require.NoError(t, err)
	assert.False(t, ready.Ready)

	ready, err = client.ModelReady(ctx, &pb.ModelReadyRequest{Name: "beta_bernoulli", Version: "9.9.9"})
	require.NoError(t, err)
	assert.False(t, ready.Ready)
}

func TestGRPCModelMetadata(t *testing.T) {
	client, _ := newGRPCTestClient(t)
	ctx := context.Background()

	meta, err := client.ModelMetadata(ctx, &pb.ModelMetadataRequest{Name: "beta_bernoulli"})
	require.NoError(t, err)
	assert.Equal(t, "beta_bernoulli", meta.Name)
	assert.Equal(t, engine.Platform, meta.Platform)
	assert.Equal(t, []string{"1.0.0"}, meta.Versions)
	require.Len(t, meta.Inputs, 1)
	assert.Equal(t, "y", meta.Inputs[0].Name)
	assert.Equal(t, []int64{-1}, meta.Inputs[0].Shape)

	_, err = client.ModelMetadata(ctx, &pb.ModelMetadataRequest{Name: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCModelInfer(t *testing.T) {
	client, _ := newGRPCTestClient(t)

	resp, err := client.ModelInfer(context.Background(), bernoulliInferRequest())
	require.NoError(t, err)

	assert.Equal(t, "beta_bernoulli", resp.ModelName)
	assert.Equal(t, "1.0.0", resp.ModelVersion)
	assert.NotEmpty(t, resp.ID)

	post := grpcOutput(t, resp, "posteriors")
	assert.Equal(t, "BYTES", post.Datatype)
	assert.Equal(t, []int64{1}, post.Shape)
	require.Len(t, post.Contents.BytesContents, 1)

	dists, err := distribution.UnmarshalMap(post.Contents.BytesContents[0])
	require.NoError(t, err)
	theta, ok := dists["theta"].(distribution.Beta)
	require.True(t, ok)
	assert.InDelta(t, 4.0, theta.Alpha, 1e-9)
	assert.InDelta(t, 3.0, theta.Beta, 1e-9)

	fe := grpcOutput(t, resp, "free_energy")
	require.Len(t, fe.Contents.Fp64Contents, 1)
	assert.InDelta(t, math.Log(60), fe.Contents.Fp64Contents[0], 1e-9)
}

func TestGRPCModelInferRawInput(t *testing.T) {
	client, _ := newGRPCTestClient(t)

	raw := make([]byte, 0, 5*8)
	for _, v := range []float64{1, 0, 1, 1, 0} {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	req := &pb.ModelInferRequest{
		ModelName: "beta_bernoulli",
		Inputs: []*pb.InferInputTensor{{
			Name:     "y",
			Datatype: "FP64",
			Shape:    []int64{5},
		}},
		RawInputContents: [][]byte{raw},
	}

	resp, err := client.ModelInfer(context.Background(), req)
	require.NoError(t, err)

	post := grpcOutput(t, resp, "posteriors")
	dists, err := distribution.UnmarshalMap(post.Contents.BytesContents[0])
	require.NoError(t, err)
	theta := dists["theta"].(distribution.Beta)
	assert.InDelta(t, 4.0, theta.Alpha, 1e-9)
	assert.InDelta(t, 3.0, theta.Beta, 1e-9)
}

func TestGRPCModelInferErrors(t *testing.T) {
	client, _ := newGRPCTestClient(t)
	ctx := context.Background()

	req := bernoulliInferRequest()
	req.ModelName = "nope"
	_, err := client.ModelInfer(ctx, req)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.ModelInfer(ctx, &pb.ModelInferRequest{ModelName: "beta_bernoulli"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	bad := bernoulliInferRequest()
	bad.Inputs[0].Shape = []int64{1}
	bad.Inputs[0].Contents = &pb.InferTensorContents{Fp64Contents: []float64{7}}
	_, err = client.ModelInfer(ctx, bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCModelInferSession(t *testing.T) {
	client, node := newGRPCTestClient(t)
	ctx := context.Background()

	inst, err := node.registry.CreateInstance("streaming_kalman", nil)
	require.NoError(t, err)

	req := &pb.ModelInferRequest{
		ModelName: "streaming_kalman",
		Inputs: []*pb.InferInputTensor{{
			Name:     "y",
			Datatype: "FP64",
			Shape:    []int64{3},
			Contents: &pb.InferTensorContents{Fp64Contents: []float64{1, 2, 3}},
		}},
		Parameters: map[string]*pb.InferParameter{
			"instance_id": pb.String(inst.ID),
		},
	}
	resp, err := client.ModelInfer(ctx, req)
	require.NoError(t, err)

	// model_state rides back as a JSON string parameter
	carried := resp.Parameters["model_state"]
	require.NotNil(t, carried)
	_, ok := carried.Value().(string)
	assert.True(t, ok)

	stored, err := node.registry.GetInstance(inst.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.State, "mean")
}

func TestGRPCQueueFull(t *testing.T) {
	node := newTestNodeWithQueue(t, RequestQueueConfig{MaxConcurrentRequests: 1, MaxQueueSize: 0})
	srv := NewGRPCServer(zap.NewNop(), node)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(pb.Codec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := pb.NewInferenceClient(conn)

	release, err := node.requestQueue.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = client.ModelInfer(context.Background(), bernoulliInferRequest())
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

// Both transports must produce the same posterior for the same request.
func TestTransportParity(t *testing.T) {
	client, node := newGRPCTestClient(t)
	httpSrv := httptest.NewServer(NewGatewayAPI(zap.NewNop(), node))
	t.Cleanup(httpSrv.Close)

	grpcResp, err := client.ModelInfer(context.Background(), bernoulliInferRequest())
	require.NoError(t, err)
	grpcPost := grpcOutput(t, grpcResp, "posteriors")
	grpcDists, err := distribution.UnmarshalMap(grpcPost.Contents.BytesContents[0])
	require.NoError(t, err)

	httpResp := postJSON(t, httpSrv.URL+"/v2/models/beta_bernoulli/infer", bernoulliBody(nil))
	var out kservev2.InferenceResponse
	decodeBody(t, httpResp, &out)
	require.Equal(t, 200, httpResp.StatusCode)
	httpPost := findOutput(t, out, "posteriors")
	httpDists, err := distribution.UnmarshalMap([]byte(httpPost.Data[0].(string)))
	require.NoError(t, err)

	assert.Equal(t, grpcDists, httpDists)

	grpcFE := grpcOutput(t, grpcResp, "free_energy").Contents.Fp64Contents[0]
	httpFE := findOutput(t, out, "free_energy").Data[0].(float64)
	assert.InDelta(t, grpcFE, httpFE, 1e-12)
}
