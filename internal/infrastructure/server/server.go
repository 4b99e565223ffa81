// Package server wires the session core, protocol handler, executors,
// and middleware into a runnable HTTP server.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/codepair/backend/internal/api/http"
	"github.com/codepair/backend/internal/api/middleware"
	"github.com/codepair/backend/internal/api/ws"
	"github.com/codepair/backend/internal/domain/session"
	"github.com/codepair/backend/internal/exec"
	"github.com/codepair/backend/internal/exec/js"
	"github.com/codepair/backend/internal/exec/py"
	"github.com/codepair/backend/internal/infrastructure/config"
	"github.com/codepair/backend/internal/infrastructure/logging"
	"github.com/codepair/backend/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	store   *session.Store
	hub     *ws.Hub
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	httpSrv *http.Server
}

// New creates a fully wired server instance.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing codepair server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()
	store := session.NewStore()
	hub := ws.NewHub(logger)

	executors := exec.NewRegistry()
	executors.Register(session.LangJavaScript, js.New(js.Config{
		Timeout:        cfg.Exec.Timeout,
		MaxOutputBytes: cfg.Exec.MaxOutputBytes,
	}))
	executors.Register(session.LangPython, py.New(py.Config{
		PythonBin:      cfg.Exec.PythonBin,
		Timeout:        cfg.Exec.Timeout,
		MaxOutputBytes: cfg.Exec.MaxOutputBytes,
	}))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
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

	handlers := apihttp.NewHandlers(store, executors, logger, metrics)
	wsHandler := ws.NewHandler(store, hub, logger, metrics)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.POST("/sessions", handlers.CreateSession)
	api.GET("/sessions/:id", handlers.GetSession)
	api.POST("/execute", handlers.Execute)

	router.GET("/ws", wsHandler.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		store:   store,
		hub:     hub,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("Graceful shutdown failed", zap.Error(err))
			return err
		}
	}

	s.logger.Sync()
	return nil
}
