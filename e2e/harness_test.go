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
	"fmt"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/bayesgate/bayesgate"
)

// gatewayHandle describes one running gateway started for a test.
type gatewayHandle struct {
	// BaseURL is the root HTTP URL, e.g. http://localhost:39123.
	BaseURL string
	// GRPCAddr is the gRPC listen address, e.g. localhost:39124.
	GRPCAddr string
}

// startGateway boots a full gateway on free ports and blocks until it
// reports ready. Shutdown is registered as a test cleanup; the cleanup
// fails the test if the server does not stop within the grace period.
// mutate, when non-nil, adjusts the config before startup.
func startGateway(t *testing.T, mutate func(*bayesgate.Config)) gatewayHandle {
	t.Helper()

	logger := zaptest.NewLogger(t)

	httpPort := findAvailablePort(t)
	grpcPort := findAvailablePort(t)

	config := bayesgate.Config{
		HTTPURL:      fmt.Sprintf("http://localhost:%d", httpPort),
		GRPCURL:      fmt.Sprintf("localhost:%d", grpcPort),
		CacheEnabled: true,
	}
	if mutate != nil {
		mutate(&config)
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())

	readyC := make(chan struct{})
	serverDone := make(chan struct{})

	go func() {
		defer close(serverDone)
		bayesgate.RunAsGateway(serverCtx, logger, config, readyC)
	}()

	select {
	case <-readyC:
		t.Logf("Gateway ready on %s (gRPC %s)", config.HTTPURL, config.GRPCURL)
	case <-time.After(30 * time.Second):
		serverCancel()
		t.Fatal("Timeout waiting for gateway to be ready")
	}

	t.Cleanup(func() {
		serverCancel()
		select {
		case <-serverDone:
		case <-time.After(30 * time.Second):
			t.Error("Timeout waiting for gateway shutdown")
		}
	})

	return gatewayHandle{
		BaseURL:  config.HTTPURL,
		GRPCAddr: config.GRPCURL,
	}
}

// findAvailablePort finds an available TCP port
func findAvailablePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("Failed to find available port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
