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

// Package bayesgate implements a KServe v2 model-serving gateway for
// probabilistic inference models. It exposes the same logical operations
// over REST and gRPC, backed by a shared model registry, an analytic
// inference engine, and a tensor codec that understands distribution
// envelopes.
package bayesgate

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/bayesgate/bayesgate/lib/engine"
	"github.com/bayesgate/bayesgate/lib/executor"
	"github.com/bayesgate/bayesgate/lib/registry"
)

// GatewayNode wires the registry, engine and executor together behind
// the two protocol routers.
type GatewayNode struct {
	logger *zap.Logger
	config Config

	registry *registry.Registry
	engine   engine.Engine
	executor *executor.Executor

	// Request queue for backpressure control
	requestQueue *RequestQueue

	// Cache for repeated stateless posterior computations
	posteriorCache *executor.PosteriorCache

	inferenceTimeout time.Duration

	ready atomic.Bool
}

// DefaultShutdownTimeout is the default time to wait for graceful shutdown
const DefaultShutdownTimeout = 30 * time.Second

// RunAsGateway runs the inference gateway until ctx is cancelled. The
// HTTP and gRPC listeners start independently; a gRPC startup failure is
// logged and the gateway keeps serving HTTP.
// If readyC is non-nil, it will be closed when the server is ready to accept requests.
func RunAsGateway(ctx context.Context, zl *zap.Logger, config Config, readyC chan struct{}) {
	zl = zl.Named("gateway")
	zl.Info("Starting gateway node", zap.Any("config", config))

	u, err := url.Parse(config.HTTPURL)
	if err != nil {
		zl.Fatal("Invalid HTTP URL", zap.String("url", config.HTTPURL), zap.Error(err))
	}

	requestTimeout := parseDuration(zl, "request_timeout", config.RequestTimeout, 0)
	inferenceTimeout := parseDuration(zl, "inference_timeout", config.InferenceTimeout, 0)
	instanceMaxIdle := parseDuration(zl, "instance_max_idle", config.InstanceMaxIdle, 30*time.Minute)
	sweepInterval := parseDuration(zl, "sweep_interval", config.SweepInterval, time.Minute)
	cacheTTL := parseDuration(zl, "cache_ttl", config.CacheTTL, executor.PosteriorCacheTTL)

	reg := registry.New(zl)
	eng := engine.NewAnalytic(zl)
	exec := executor.New(reg, eng, zl, config.DefaultIterations)

	// Initialize request queue for backpressure control
	requestQueue := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: config.MaxConcurrentRequests,
		MaxQueueSize:          config.MaxQueueSize,
		RequestTimeout:        requestTimeout,
	}, zl.Named("queue"))

	// Posterior cache dedupes repeated stateless calls
	var posteriorCache *executor.PosteriorCache
	if config.CacheEnabled {
		posteriorCache = executor.NewPosteriorCache(cacheTTL, zl)
		defer posteriorCache.Close()
	}

	registered := RegisterBuiltins(reg, config.Models, zl)
	zl.Info("Registered built-in models", zap.Int("count", registered))
	models, instances := reg.Counts()
	UpdateRegistryMetrics(models, instances)

	node := &GatewayNode{
		logger: zl,
		config: config,

		registry: reg,
		engine:   eng,
		executor: exec,

		requestQueue:   requestQueue,
		posteriorCache: posteriorCache,

		inferenceTimeout: inferenceTimeout,
	}

	// Create API handler
	apiHandler := NewGatewayAPI(zl, node)

	srv := &http.Server{
		Addr:        u.Host,
		Handler:     corsMiddleware(apiKeyMiddleware(config.APIKeys, apiHandler)),
		ReadTimeout: 540 * time.Second,
	}

	// Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		zl.Info("Gateway HTTP server starting", zap.String("address", config.HTTPURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Start gRPC server; a listen failure leaves HTTP serving alone
	var grpcServer *grpc.Server
	if config.GRPCURL != "" {
		lis, err := net.Listen("tcp", config.GRPCURL)
		if err != nil {
			zl.Error("gRPC listen failed, continuing HTTP-only",
				zap.String("address", config.GRPCURL),
				zap.Error(err))
		} else {
			grpcServer = NewGRPCServer(zl, node)
			go func() {
				zl.Info("Gateway gRPC server starting", zap.String("address", config.GRPCURL))
				if err := grpcServer.Serve(lis); err != nil {
					zl.Error("gRPC server stopped", zap.Error(err))
				}
			}()
		}
	}

	// Idle-instance sweeper runs on its own timer, decoupled from
	// request handling
	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	go node.sweepLoop(sweepCtx, instanceMaxIdle, sweepInterval)

	node.ready.Store(true)

	// Signal readiness after servers start
	if readyC != nil {
		close(readyC)
	}

	// Wait for context cancellation or server error
	select {
	case err := <-serverErr:
		if err != nil {
			zl.Fatal("HTTP server error", zap.Error(err))
		}
	case <-ctx.Done():
		zl.Info("Shutdown signal received, starting graceful shutdown...")
	}

	node.ready.Store(false)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections
	srv.SetKeepAlivesEnabled(false)

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("Graceful shutdown failed, forcing close",
			zap.Error(err),
			zap.Duration("timeout", DefaultShutdownTimeout))
		_ = srv.Close()
	} else {
		zl.Info("Graceful shutdown completed successfully")
	}

	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
	}

	zl.Info("Gateway servers stopped")
}

// sweepLoop periodically removes idle instances. It never blocks
// in-flight inference; the registry lock is held only for the map scan.
func (gn *GatewayNode) sweepLoop(ctx context.Context, maxIdle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := gn.registry.SweepIdleInstances(maxIdle); n > 0 {
				RecordInstanceSweep(n)
			}
			models, instances := gn.registry.Counts()
			UpdateRegistryMetrics(models, instances)
		}
	}
}

// parseDuration parses a duration config value, treating "" and "0" as
// the fallback and failing fast on anything unparseable.
func parseDuration(zl *zap.Logger, key, value string, fallback time.Duration) time.Duration {
	if value == "" || value == "0" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		zl.Fatal("Invalid duration",
			zap.String("key", key),
			zap.String("value", value),
			zap.Error(err))
	}
	return d
}
