// Copyright 2024 AI SA Assistant Project
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

// Package main provides the architecture planner HTTP service.
// It serves recommendations, the service catalog, diagrams and feedback.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/arch-planner/internal/api"
	"github.com/your-org/arch-planner/internal/catalog"
	"github.com/your-org/arch-planner/internal/config"
	"github.com/your-org/arch-planner/internal/diagram"
	"github.com/your-org/arch-planner/internal/engine"
	"github.com/your-org/arch-planner/internal/feedback"
	"github.com/your-org/arch-planner/internal/health"
)

const (
	// ServiceName identifies this service in logs and health responses
	ServiceName = "arch-planner"
	// Version is reported by the health endpoint
	Version = "1.0.0"
	// HealthCheckTimeout defines the timeout for health checks
	HealthCheckTimeout = 5 * time.Second
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout = 15 * time.Second
	// LogFile receives logs when logging.output is "file"
	LogFile = "planner.log"
)

// ServiceDependencies holds initialized service dependencies
type ServiceDependencies struct {
	Catalog  *catalog.Catalog
	Engine   *engine.Engine
	Feedback *feedback.Store
	Renderer *diagram.Renderer
	Logger   *zap.Logger
	Config   *config.Config
}

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, level, err := initializeLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded successfully",
		zap.String("service", ServiceName),
		zap.String("environment", os.Getenv("ENVIRONMENT")),
		zap.Int("port", cfg.Server.Port),
		zap.String("catalog_path", cfg.Catalog.Path),
		zap.String("feedback_storage", cfg.Feedback.StorageType),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
	)

	deps, err := initializeDependencies(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer func() {
		if deps.Feedback == nil {
			return
		}
		if err := deps.Feedback.Close(); err != nil {
			logger.Warn("Failed to close feedback store", zap.Error(err))
		}
	}()

	healthManager := health.NewManager(ServiceName, Version, logger)
	setupHealthChecks(healthManager, deps)

	gin.SetMode(cfg.Server.Mode)
	handler, err := api.NewHandler(api.Dependencies{
		Engine:         deps.Engine,
		Feedback:       deps.Feedback,
		Renderer:       deps.Renderer,
		Health:         healthManager,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("Failed to create API handler", zap.Error(err))
	}

	if err := config.WatchConfig("", logger, func(updated *config.Config) {
		level.SetLevel(parseLevel(updated.Logging.Level))
		logger.Info("Log level updated", zap.String("level", updated.Logging.Level))
	}); err != nil {
		logger.Debug("Config hot reload disabled", zap.Error(err))
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting planner service",
			zap.String("address", server.Addr),
			zap.String("catalog_version", deps.Catalog.Version()),
			zap.Int("catalog_services", deps.Catalog.Len()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutting down planner service", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// initializeLogger builds the zap logger. The returned level can be changed
// at runtime.
func initializeLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Logging.Level))

	switch cfg.Logging.Output {
	case "file":
		zapConfig.OutputPaths = []string{LogFile}
		zapConfig.ErrorOutputPaths = []string{LogFile}
	case "stderr":
		zapConfig.OutputPaths = []string{"stderr"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	default:
		zapConfig.OutputPaths = []string{"stdout"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, zapConfig.Level, err
	}
	return logger.With(zap.String("service", ServiceName)), zapConfig.Level, nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// initializeDependencies initializes all service dependencies. A feedback
// store that cannot be opened is logged and left nil so the rest of the API
// keeps serving.
func initializeDependencies(cfg *config.Config, logger *zap.Logger) (*ServiceDependencies, error) {
	logger.Info("Initializing service dependencies")

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load service catalog: %w", err)
	}
	logger.Info("Service catalog loaded",
		zap.String("version", cat.Version()),
		zap.String("region", cat.Region()),
		zap.Int("services", cat.Len()),
	)

	eng := engine.New(cat, engine.Options{
		MaxAlternatives:      cfg.Engine.MaxAlternatives,
		MaxUpgrades:          cfg.Engine.MaxUpgrades,
		TightBudgetThreshold: cfg.Engine.TightBudgetThreshold,
	}, logger)

	renderer, err := diagram.NewRenderer(diagram.RendererConfig{
		MermaidInkURL:  cfg.Diagram.MermaidInkURL,
		MaxDiagramSize: cfg.Diagram.MaxDiagramSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize diagram renderer: %w", err)
	}

	store, err := feedback.NewStore(feedback.Config{
		StorageType: cfg.Feedback.StorageType,
		FilePath:    cfg.Feedback.FilePath,
		DBPath:      cfg.Feedback.DBPath,
	}, logger)
	if err != nil {
		logger.Warn("Feedback storage unavailable, feedback submissions will be refused",
			zap.String("storage_type", cfg.Feedback.StorageType),
			zap.Error(err))
		store = nil
	}

	return &ServiceDependencies{
		Catalog:  cat,
		Engine:   eng,
		Feedback: store,
		Renderer: renderer,
		Logger:   logger,
		Config:   cfg,
	}, nil
}

func setupHealthChecks(manager *health.Manager, deps *ServiceDependencies) {
	manager.AddChecker("catalog", health.CatalogChecker(deps.Catalog))

	if deps.Feedback != nil {
		manager.AddChecker("feedback-"+deps.Feedback.StorageType(), health.StoreChecker(deps.Feedback.StorageType(), deps.Feedback.Ping))
	}

	manager.SetTimeout(HealthCheckTimeout)
}
