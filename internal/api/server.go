package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goscreener/internal/logger"
)

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 120 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server wires the handler into an HTTP server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	pool       *Pool
	log        logger.Interface
}

// NewServer builds the gin engine and HTTP server around the handler.
func NewServer(cfg ServerConfig, handler *Handler, pool *Pool, log logger.Interface) *Server {
	if log == nil {
		log = logger.NewNoOp()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		// Synchronous crawls hold the connection for the whole job.
		cfg.WriteTimeout = defaultWriteTimeout
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.RegisterRoutes(engine)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		pool: pool,
		log:  log.WithComponent("server"),
	}
}

// Start serves until ctx is canceled, then drains the worker pool and
// shuts the listener down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.pool.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.pool.Stop()
	return nil
}
