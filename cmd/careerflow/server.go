package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/careerflow/careerflow/api/handlers"
	"github.com/careerflow/careerflow/config"
	"github.com/careerflow/careerflow/extract"
	"github.com/careerflow/careerflow/internal/metrics"
	"github.com/careerflow/careerflow/internal/server"
	"github.com/careerflow/careerflow/internal/telemetry"
	"github.com/careerflow/careerflow/llm"
	"github.com/careerflow/careerflow/pipeline"
	"github.com/careerflow/careerflow/providers"
	"github.com/careerflow/careerflow/providers/openai"
	"github.com/careerflow/careerflow/workflow"
)

// Server wires the pipeline, the workflow engine, and the HTTP surface.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager *server.Manager

	healthHandler *handlers.HealthHandler
	runsHandler   *handlers.RunsHandler

	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	rateLimiterCancel context.CancelFunc
}

// NewServer creates the server from loaded configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// Start builds all components and begins serving.
func (s *Server) Start() error {
	if s.cfg.Metrics.Enabled {
		s.metricsCollector = metrics.NewCollector("careerflow", s.logger)
	}

	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("Server started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.String("checkpoint_backend", s.cfg.Checkpoint.Backend),
	)

	return nil
}

func (s *Server) initHandlers() error {
	s.healthHandler = handlers.NewHealthHandler(s.logger)

	store, err := s.buildStore()
	if err != nil {
		return err
	}

	provider := s.buildProvider()
	tokenizer := llm.NewTokenizer(s.cfg.LLM.Model)
	extractor := extract.NewService(s.logger)

	pipeCfg := pipeline.DefaultConfig(s.cfg.LLM.Model)
	if s.cfg.Pipeline.QuestionQuota > 0 {
		pipeCfg.QuestionQuota = s.cfg.Pipeline.QuestionQuota
	}
	if s.cfg.Pipeline.CVTokenBudget > 0 {
		pipeCfg.CVTokenBudget = s.cfg.Pipeline.CVTokenBudget
	}

	pipe, err := pipeline.New(pipeCfg, provider, extractor, tokenizer, s.logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	graph, err := pipe.Graph()
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	var hooks workflow.Hooks = workflow.NopHooks{}
	if s.metricsCollector != nil {
		hooks = s.metricsCollector
	}

	engine := workflow.NewEngine(graph, store, s.logger, hooks)
	s.runsHandler = handlers.NewRunsHandler(engine, s.cfg.Pipeline.MaxFeedbackRounds, s.logger)

	s.healthHandler.RegisterCheck(handlers.NewCheckFunc("llm_provider", func(ctx context.Context) error {
		status, err := provider.HealthCheck(ctx)
		if err != nil {
			return err
		}
		if !status.Healthy {
			return fmt.Errorf("provider unhealthy")
		}
		return nil
	}))

	s.logger.Info("Handlers initialized")
	return nil
}

// buildStore selects the checkpoint backend from configuration.
func (s *Server) buildStore() (workflow.Store, error) {
	cp := s.cfg.Checkpoint
	switch cp.Backend {
	case "", "memory":
		s.logger.Info("using in-memory checkpoint store")
		return workflow.NewMemoryStore(), nil
	case "redis":
		store, err := workflow.NewRedisStore(workflow.RedisStoreConfig{
			Addr:      cp.Redis.Addr,
			Password:  cp.Redis.Password,
			DB:        cp.Redis.DB,
			KeyPrefix: cp.Redis.KeyPrefix,
			TTL:       cp.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("redis checkpoint store: %w", err)
		}
		s.healthHandler.RegisterCheck(handlers.NewCheckFunc("redis", store.Ping))
		s.logger.Info("using redis checkpoint store", zap.String("addr", cp.Redis.Addr))
		return store, nil
	case "sqlite":
		store, err := workflow.NewSQLiteStore(cp.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("sqlite checkpoint store: %w", err)
		}
		s.logger.Info("using sqlite checkpoint store", zap.String("dsn", cp.SQLiteDSN))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend: %s", cp.Backend)
	}
}

// buildProvider creates the LLM provider with the configured rate limit.
func (s *Server) buildProvider() llm.Provider {
	base := openai.New(providers.OpenAIConfig{
		APIKey:  s.cfg.LLM.APIKey,
		BaseURL: s.cfg.LLM.BaseURL,
		Model:   s.cfg.LLM.Model,
		Timeout: s.cfg.LLM.Timeout,
	}, s.logger)

	if s.cfg.LLM.RPMLimit > 0 {
		return llm.NewRateLimitedProvider(base, s.cfg.LLM.RPMLimit)
	}
	return base
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	s.healthHandler.RegisterRoutes(mux)
	s.runsHandler.RegisterRoutes(mux)
	mux.HandleFunc("GET /version", handleVersion)

	if s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, promhttp.Handler())
	}

	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		CORS(s.cfg.Server.CORSAllowedOrigins),
	}
	if s.cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	if s.metricsCollector != nil {
		middlewares = append(middlewares, MetricsMiddleware(s.metricsCollector))
	}
	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	handlers.WriteSuccess(w, map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})
}

// WaitForShutdown blocks until a shutdown signal, then cleans up.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops all components gracefully.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	g, ctx := errgroup.WithContext(context.Background())
	if s.httpManager != nil {
		g.Go(func() error {
			return s.httpManager.Shutdown(ctx)
		})
	}
	if s.otelProviders != nil {
		g.Go(func() error {
			return s.otelProviders.Shutdown(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Shutdown error", zap.Error(err))
	}

	s.logger.Info("Graceful shutdown completed")
}
