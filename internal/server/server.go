// Package server exposes live snapshots, stored runs and metrics over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"protozoa/internal/logging"
	"protozoa/internal/platform"
)

type Server struct {
	polis      *platform.Polis
	supervisor *platform.Supervisor
	logger     *slog.Logger
	engine     *gin.Engine

	mu   sync.RWMutex
	live string
}

type Option func(*Server)

// WithSupervisor publishes child status under /children.
func WithSupervisor(s *platform.Supervisor) Option {
	return func(srv *Server) { srv.supervisor = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

func New(polis *platform.Polis, opts ...Option) *Server {
	s := &Server{polis: polis}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// SetLiveRun selects the run served by /snapshot.
func (s *Server) SetLiveRun(runID string) {
	s.mu.Lock()
	s.live = runID
	s.mu.Unlock()
}

func (s *Server) liveRun() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("http listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(started),
		)
	}
}
