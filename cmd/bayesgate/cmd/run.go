// Copyright 2026 Bayesgate, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bayesgate/bayesgate"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bayesgate server",
	Long:  `Start the gateway serving the KServe v2 inference protocol over HTTP and gRPC.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Run command flags
	runCmd.Flags().String("http-url", "http://0.0.0.0:8080", "HTTP listen URL")
	mustBindPFlag("http_url", runCmd.Flags().Lookup("http-url"))
	runCmd.Flags().String("grpc-url", "0.0.0.0:8081", "gRPC listen address (empty disables gRPC)")
	mustBindPFlag("grpc_url", runCmd.Flags().Lookup("grpc-url"))
	runCmd.Flags().String("request-timeout", "30s", "max time a request may wait for a processing slot")
	mustBindPFlag("request_timeout", runCmd.Flags().Lookup("request-timeout"))
	runCmd.Flags().String("inference-timeout", "30s", "max time a single inference call may run")
	mustBindPFlag("inference_timeout", runCmd.Flags().Lookup("inference-timeout"))
	runCmd.Flags().Int("max-concurrent-requests", 8, "concurrent inference requests")
	mustBindPFlag("max_concurrent_requests", runCmd.Flags().Lookup("max-concurrent-requests"))
	runCmd.Flags().Int("max-queue-size", 100, "requests allowed to wait for a slot")
	mustBindPFlag("max_queue_size", runCmd.Flags().Lookup("max-queue-size"))
	runCmd.Flags().String("instance-max-idle", "30m", "idle time before a session instance is swept")
	mustBindPFlag("instance_max_idle", runCmd.Flags().Lookup("instance-max-idle"))
	runCmd.Flags().String("sweep-interval", "1m", "how often the idle-instance sweeper runs")
	mustBindPFlag("sweep_interval", runCmd.Flags().Lookup("sweep-interval"))
	runCmd.Flags().Bool("cache-enabled", false, "cache posteriors for repeated stateless calls")
	mustBindPFlag("cache_enabled", runCmd.Flags().Lookup("cache-enabled"))
	runCmd.Flags().String("cache-ttl", "2m", "posterior cache entry TTL")
	mustBindPFlag("cache_ttl", runCmd.Flags().Lookup("cache-ttl"))
	runCmd.Flags().Int("default-iterations", 10, "fallback inference iteration count")
	mustBindPFlag("default_iterations", runCmd.Flags().Lookup("default-iterations"))
	runCmd.Flags().StringSlice("api-keys", nil, "API keys for X-API-Key auth; empty disables auth")
	mustBindPFlag("api_keys", runCmd.Flags().Lookup("api-keys"))
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(viper.GetString("log.level"))
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Running as bayesgate")

	// Build gateway config from viper/env
	cfg := bayesgate.Config{
		HTTPURL:               viper.GetString("http_url"),
		GRPCURL:               viper.GetString("grpc_url"),
		RequestTimeout:        viper.GetString("request_timeout"),
		InferenceTimeout:      viper.GetString("inference_timeout"),
		MaxConcurrentRequests: viper.GetInt("max_concurrent_requests"),
		MaxQueueSize:          viper.GetInt("max_queue_size"),
		InstanceMaxIdle:       viper.GetString("instance_max_idle"),
		SweepInterval:         viper.GetString("sweep_interval"),
		CacheEnabled:          viper.GetBool("cache_enabled"),
		CacheTTL:              viper.GetString("cache_ttl"),
		DefaultIterations:     viper.GetInt("default_iterations"),
		APIKeys:               viper.GetStringSlice("api_keys"),
	}

	// Per-model registration overrides come from the config file only
	if err := viper.UnmarshalKey("models", &cfg.Models); err != nil {
		logger.Warn("Invalid models config, ignoring", zap.Error(err))
	}

	// Log readiness once the servers are up
	readyC := make(chan struct{})
	go func() {
		<-readyC
		logger.Info("Bayesgate is ready")
	}()

	bayesgate.RunAsGateway(ctx, logger, cfg, readyC)
	return nil
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
