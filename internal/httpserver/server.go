// Package httpserver wraps http.Server with config-driven timeouts and a
// graceful shutdown hook.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/uzmarket/delivery/internal/config"
	"github.com/uzmarket/delivery/pkg/logger"
)

// Server owns the HTTP listener lifecycle.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New builds a Server from config around the given handler.
func New(cfg config.ServerConfig, log *logger.Logger, handler http.Handler) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		log: log,
	}
}

// Start blocks serving requests until the listener closes.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}
