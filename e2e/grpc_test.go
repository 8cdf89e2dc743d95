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

package e2e

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/bayesgate/bayesgate/lib/distribution"
	"github.com/bayesgate/bayesgate/lib/kservev2/pb"
)

// TestGatewayGRPCE2E drives the gRPC transport of a real gateway over
// TCP and verifies it agrees with the REST surface on semantics.
func TestGatewayGRPCE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	handle := startGateway(t, nil)

	conn, err := grpc.NewClient(handle.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(pb.Codec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	gc := pb.NewInferenceClient(conn)

	t.Run("ServerStatus", func(t *testing.T) {
		live, err := gc.ServerLive(ctx, &pb.ServerLiveRequest{})
		require.NoError(t, err)
		assert.True(t, live.Live)

		ready, err := gc.ServerReady(ctx, &pb.ServerReadyRequest{})
		require.NoError(t, err)
		assert.True(t, ready.Ready)

		meta, err := gc.ServerMetadata(ctx, &pb.ServerMetadataRequest{})
		require.NoError(t, err)
		assert.Equal(t, "bayesgate", meta.Name)
	})

	t.Run("ModelReady", func(t *testing.T) {
		ready, err := gc.ModelReady(ctx, &pb.ModelReadyRequest{Name: "beta_bernoulli"})
		require.NoError(t, err)
		assert.True(t, ready.Ready)

		ready, err = gc.ModelReady(ctx, &pb.ModelReadyRequest{Name: "no-such-model"})
		require.NoError(t, err)
		assert.False(t, ready.Ready)
	})

	t.Run("ModelMetadata", func(t *testing.T) {
		meta, err := gc.ModelMetadata(ctx, &pb.ModelMetadataRequest{Name: "beta_bernoulli"})
		require.NoError(t, err)
		assert.Equal(t, "beta_bernoulli", meta.Name)
		assert.Equal(t, []string{"1.0.0"}, meta.Versions)
		require.Len(t, meta.Inputs, 1)
		assert.Equal(t, "y", meta.Inputs[0].Name)
	})

	t.Run("ModelInfer", func(t *testing.T) {
		resp, err := gc.ModelInfer(ctx, &pb.ModelInferRequest{
			ModelName: "beta_bernoulli",
			Inputs: []*pb.InferInputTensor{{
				Name:     "y",
				Datatype: "FP64",
				Shape:    []int64{5},
				Contents: &pb.InferTensorContents{Fp64Contents: []float64{1, 0, 1, 1, 0}},
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, "beta_bernoulli", resp.ModelName)

		var posteriors *pb.InferOutputTensor
		var freeEnergy *pb.InferOutputTensor
		for _, out := range resp.Outputs {
			switch out.Name {
			case "posteriors":
				posteriors = out
			case "free_energy":
				freeEnergy = out
			}
		}
		require.NotNil(t, posteriors, "response should include posteriors")
		require.NotNil(t, freeEnergy, "response should include free energy")

		require.Len(t, posteriors.Contents.BytesContents, 1)
		dists, err := distribution.UnmarshalMap(posteriors.Contents.BytesContents[0])
		require.NoError(t, err)
		theta, ok := dists["theta"].(distribution.Beta)
		require.True(t, ok)
		assert.InDelta(t, 4.0, theta.Alpha, 1e-9)
		assert.InDelta(t, 3.0, theta.Beta, 1e-9)

		require.Len(t, freeEnergy.Contents.Fp64Contents, 1)
		assert.InDelta(t, math.Log(60), freeEnergy.Contents.Fp64Contents[0], 1e-9)
	})

	t.Run("ModelInferErrors", func(t *testing.T) {
		_, err := gc.ModelInfer(ctx, &pb.ModelInferRequest{ModelName: "no-such-model"})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}
