package httpapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/kasuganosora/gridsource/pkg/config"
	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/application"
	"github.com/kasuganosora/gridsource/pkg/window"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Server is the HTTP REST API server
type Server struct {
	cfg        *config.Config
	datasets   *application.Registry
	resolver   *window.Resolver
	logger     logger.Logger
	limits     window.Limits
	sessions   *sessionLimiter
	metrics    *Metrics
	chance     func() float64
	httpServer *http.Server
}

// NewServer creates a new HTTP API server
func NewServer(cfg *config.Config, datasets *application.Registry, resolver *window.Resolver, l logger.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	if resolver == nil {
		resolver = window.NewResolver(window.WithLogger(l), window.WithPushdown(cfg.Window.Pushdown))
	}

	s := &Server{
		cfg:      cfg,
		datasets: datasets,
		resolver: resolver,
		logger:   l,
		limits: window.Limits{
			MaxEndRow:   cfg.Window.MaxEndRow,
			MaxPageSize: cfg.Window.MaxPageSize,
		},
		sessions: newSessionLimiter(
			cfg.Window.MaxConcurrentRequests,
			cfg.Window.QueueTimeout,
			cfg.Window.RequestsPerSecond,
			cfg.Window.Burst,
		),
		chance: rand.Float64,
	}
	if cfg.Metrics.Enabled {
		s.metrics = NewMetrics()
	}
	// built up front so Shutdown before Start makes Start return at once
	s.httpServer = &http.Server{
		Addr:         cfg.GetListenAddress(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler builds the routed handler with the global middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/datasets", s.handleDatasets)
	mux.HandleFunc("POST /api/v1/datasets/{name}/rows", s.handleRows)
	mux.HandleFunc("POST /api/v1/datasets/{name}/generate", s.handleGenerate)
	mux.HandleFunc("PATCH /api/v1/datasets/{name}/rows/{id}", s.handleUpdateRow)
	if s.metrics != nil {
		mux.Handle("GET "+s.cfg.Metrics.Path, s.metrics.Handler())
	}

	// Apply global middleware: Recovery → CORS → RequestID → Logging
	var handler http.Handler = mux
	handler = LoggingMiddleware(s.logger, s.metrics)(handler)
	handler = RequestIDMiddleware(handler)
	handler = CORSMiddleware(s.cfg.Server.CORSOrigin)(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	return handler
}

// Start starts the HTTP API server (blocking)
// 正常关闭时返回 nil
func (s *Server) Start() error {
	s.logger.Info("[HTTP API] 启动 HTTP API 服务器: %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP API server.
// It is safe to call before or concurrently with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
