// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package topology provides the dependency and execution intelligence
// service for Aleutian Atlas.
//
// This package contains the main Service type that coordinates all
// components: the service registry, the dependency graph, the traversal
// and impact engines, the flow execution synthesizer, trace retention,
// HTTP routing, and observability infrastructure.
//
// # Usage
//
//	cfg := config.Default()
//	svc, err := topology.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package topology

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianAtlas/services/topology/config"
	"github.com/AleutianAI/AleutianAtlas/services/topology/engine"
	"github.com/AleutianAI/AleutianAtlas/services/topology/graph"
	"github.com/AleutianAI/AleutianAtlas/services/topology/handlers"
	"github.com/AleutianAI/AleutianAtlas/services/topology/observability"
	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
	"github.com/AleutianAI/AleutianAtlas/services/topology/routes"
	"github.com/AleutianAI/AleutianAtlas/services/topology/storage/badgerstore"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the topology service lifecycle.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// # Assumptions
	//
	//   - Caller will not modify the router
	Router() *gin.Engine

	// Deps exposes the constructed component graph for testing and for
	// embedding the service in other binaries.
	Deps() *handlers.Deps
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// All fields are read-only after New() returns.
type service struct {
	config        config.Config
	router        *gin.Engine
	deps          *handlers.Deps
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a ready-to-run topology Service.
//
// # Description
//
//	Initializes all service components in dependency order:
//	 1. OpenTelemetry tracing (OTLP when an endpoint is configured,
//	    stdout exporter as a development fallback)
//	 2. The service registry and dependency graph
//	 3. Traversal, resolver, simulator, and synthesizer engines
//	 4. The Badger-backed trace retention store (optional)
//	 5. The Gin router with middleware and routes
//
// # Inputs
//
//   - cfg: Service configuration, typically from config.Load().
//
// # Outputs
//
//   - Service: Ready-to-run service
//   - error: Non-nil if initialization fails
//
// # Limitations
//
//   - Trace retention failures are fatal; pass an empty store path to
//     run without retention.
func New(cfg config.Config) (Service, error) {
	s := &service{config: cfg}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if err := s.initComponents(); err != nil {
		s.cleanup()
		return nil, err
	}

	s.initRouter()
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
// Cleanup is automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	slog.Info("Starting topology server", "port", s.config.Server.Port)
	return s.router.Run(":" + s.config.Server.Port)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Deps exposes the constructed component graph.
func (s *service) Deps() *handlers.Deps {
	return s.deps
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// initTracer initializes OpenTelemetry distributed tracing.
//
// When an OTLP endpoint is configured, spans are exported over an
// insecure gRPC connection (appropriate for internal networks). With
// stdout traces enabled instead, spans are pretty-printed locally.
// With neither, the global no-op tracer stays in place.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	var exporter sdktrace.SpanExporter
	switch {
	case s.config.Telemetry.OTLPEndpoint != "":
		conn, err := grpc.NewClient(s.config.Telemetry.OTLPEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
	case s.config.Telemetry.StdoutTraces:
		var err error
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
	default:
		slog.Info("Tracing export not configured, spans are not exported")
		return func(context.Context) {}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(s.config.Telemetry.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := exporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
	}
	return cleanup, nil
}

// initComponents builds the registry, graph, engines, and trace store.
func (s *service) initComponents() error {
	reg := registry.NewStore()
	gs := graph.NewStore(reg)
	traversal := graph.NewTraversal(gs, reg)

	s.deps = &handlers.Deps{
		Registry:    reg,
		Graph:       gs,
		Resolver:    graph.NewResolver(gs, traversal),
		Simulator:   graph.NewSimulator(gs, traversal, graph.WithRadiusThreshold(s.config.Simulator.RadiusThreshold)),
		Synthesizer: engine.NewSynthesizer(reg),
	}

	if s.config.TraceStore.Path == "" && !s.config.TraceStore.InMemory {
		slog.Info("Trace store path not configured, trace retention is disabled")
		return nil
	}

	storeCfg := badgerstore.Config{
		Path:      s.config.TraceStore.Path,
		InMemory:  s.config.TraceStore.InMemory,
		Retention: s.config.TraceStore.Retention.Std(),
	}
	traces, err := badgerstore.Open(storeCfg)
	if err != nil {
		return fmt.Errorf("failed to open trace store: %w", err)
	}
	s.deps.Traces = traces

	slog.Info("Trace retention enabled",
		"path", s.config.TraceStore.Path,
		"in_memory", s.config.TraceStore.InMemory,
		"retention", s.config.TraceStore.Retention.Std().String(),
	)
	return nil
}

// initRouter sets up the Gin HTTP router with middleware and routes.
func (s *service) initRouter() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.router = gin.New()
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.Use(otelgin.Middleware(s.config.Telemetry.ServiceName))
	s.router.Use(observability.NewAPIMetrics().Middleware())

	routes.SetupRoutes(s.router, s.deps)
}

// cleanup releases resources held by the service.
func (s *service) cleanup() {
	if s.deps != nil && s.deps.Traces != nil {
		if err := s.deps.Traces.Close(); err != nil {
			slog.Warn("trace store close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
