// Copyright 2025 Blink Labs Software
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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/txbridge/api"
	"github.com/blinklabs-io/txbridge/evaluate"
	"github.com/blinklabs-io/txbridge/health"
	"github.com/blinklabs-io/txbridge/internal/config"
	"github.com/blinklabs-io/txbridge/metrics"
	"github.com/blinklabs-io/txbridge/node"
	"github.com/blinklabs-io/txbridge/submit"
)

var version = "0.1.0"

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	tracker := health.NewTracker(
		version,
		health.NetworkName(cfg.Node.NetworkMagic),
	)

	client := node.NewClient(
		node.Config{
			SocketPath:   cfg.Node.SocketPath,
			Address:      cfg.Node.Address,
			NetworkMagic: cfg.Node.NetworkMagic,
			Logger:       logger,
		},
		tracker,
	)
	if err := client.Start(); err != nil {
		logger.Error("failed to connect to node", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	sampler := metrics.NewSampler(
		tracker,
		time.Duration(cfg.Metrics.SampleInterval)*time.Second,
	)
	sampler.Start()
	defer sampler.Stop()

	coordinator := submit.NewCoordinator(client, logger)
	evaluator := evaluate.NewEvaluator(
		evaluate.NewMachineOracle(client, logger),
		client,
	)

	server := api.NewServer(
		api.ServerConfig{
			ListenAddress:  cfg.Server.ListenAddress,
			RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
			Logger:         logger,
		},
		coordinator,
		evaluator,
		tracker,
	)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			10*time.Second,
		)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil {
		logger.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
