package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ringkv/ringkv/internal/config"
	"github.com/ringkv/ringkv/internal/handler"
	"github.com/ringkv/ringkv/internal/metrics"
	"github.com/ringkv/ringkv/internal/server"
	"github.com/ringkv/ringkv/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("config_path", configPath),
		zap.Int("virtual_nodes", cfg.Cluster.VirtualNodes),
		zap.Int("replication_factor", cfg.Cluster.ReplicationFactor),
		zap.Strings("seed_nodes", cfg.Cluster.SeedNodes))

	// Initialize metrics
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	// Initialize cluster service
	cluster := service.NewClusterService(service.Config{
		VirtualNodes:      cfg.Cluster.VirtualNodes,
		ReplicationFactor: cfg.Cluster.ReplicationFactor,
		MaxKeySize:        cfg.Limits.MaxKeySize,
		MaxValueSize:      cfg.Limits.MaxValueSize,
	}, m, logger)

	ctx := context.Background()
	for _, nodeID := range cfg.Cluster.SeedNodes {
		if err := cluster.AddNode(ctx, nodeID); err != nil {
			logger.Fatal("Failed to add seed node",
				zap.String("node_id", nodeID),
				zap.Error(err))
		}
	}

	// Initialize HTTP API
	router := mux.NewRouter()
	clusterHandler := handler.NewClusterHandler(cluster, logger)
	clusterHandler.Register(router)

	apiServer := server.NewServer(cfg.Server, router, logger)

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = server.NewMetricsServer(cfg.Metrics, registry, m, logger)
		if err := metricsServer.Start(); err != nil {
			logger.Fatal("Failed to start metrics server", zap.Error(err))
		}
	}

	// Run API server until a shutdown signal arrives
	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			logger.Error("API server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop API server", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error("Failed to stop metrics server", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
}

// initLogger builds the zap logger from the logging configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
