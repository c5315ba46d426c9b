package server

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/portalconnect/internal/api/http"
	"github.com/GriffinCanCode/portalconnect/internal/api/middleware"
	"github.com/GriffinCanCode/portalconnect/internal/api/ws"
	"github.com/GriffinCanCode/portalconnect/internal/connect"
	"github.com/GriffinCanCode/portalconnect/internal/infrastructure/config"
	"github.com/GriffinCanCode/portalconnect/internal/infrastructure/logging"
	"github.com/GriffinCanCode/portalconnect/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/portalconnect/internal/webview"
	"github.com/GriffinCanCode/portalconnect/internal/webview/sandbox"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *nethttp.Server
	pool    *sandbox.Pool
	hub     *ws.Hub
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
	logger.Info("Initializing portal connect server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("sandbox_pool", cfg.Sandbox.PoolSize),
		zap.Duration("sandbox_timeout", cfg.Sandbox.Timeout),
	)

	// Metrics first, the handler and view report into it
	metrics := monitoring.NewMetrics()

	handler := connect.NewHandler(logger.Logger, connect.WithObserver(metrics))

	pool, err := sandbox.NewPool(sandbox.Config{
		Timeout:       cfg.Sandbox.Timeout,
		MaxTimers:     cfg.Sandbox.MaxTimers,
		EnableConsole: true,
	}, cfg.Sandbox.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}

	fetcher := webview.NewFetcher(webview.FetchConfig{
		UserAgent:    cfg.Portal.UserAgent,
		Timeout:      cfg.Portal.FetchTimeout,
		MaxBodyBytes: cfg.Portal.MaxBodyBytes,
	})
	view := webview.New(pool, handler, logger.Logger,
		webview.WithFetcher(fetcher),
		webview.WithRecorder(metrics),
	)

	hub := ws.NewHub(logger.Logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.GlobalRPS > 0 {
		burst := cfg.RateLimit.GlobalBurst
		if burst <= 0 {
			burst = cfg.RateLimit.GlobalRPS
		}
		logger.Info("Global rate limit enabled",
			zap.Int("rps", cfg.RateLimit.GlobalRPS),
			zap.Int("burst", burst),
		)
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.GlobalRPS,
			Burst:             burst,
		}))
	}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	status := func() gin.H {
		return gin.H{
			"metrics":     metrics.Snapshot(),
			"sandbox":     pool.Stats(),
			"subscribers": hub.Count(),
		}
	}
	handlers := http.NewHandlers(handler, view, hub, status, logger.Logger)
	handlers.Register(router)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/v1/events", hub.HandleConnection)

	return &Server{
		router:  router,
		pool:    pool,
		hub:     hub,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		http: &nethttp.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	// Hijacked websocket connections are not tracked by Shutdown
	s.hub.Close()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
	}
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sandbox pool: %w", err))
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
