// Package web serves the bookmark JSON API over HTTP(S).
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgard/bookmarkbot/internal/config"
)

// Server wraps the HTTP server. TLS is used when a certificate and key are
// configured.
type Server struct {
	http     *http.Server
	logger   *slog.Logger
	certFile string
	keyFile  string
}

// NewServer builds the HTTP server around handler.
func NewServer(cfg config.WebConfig, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:   logger.With("component", "web_server"),
		certFile: cfg.TLSCertFile,
		keyFile:  cfg.TLSKeyFile,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	var err error
	if s.certFile != "" && s.keyFile != "" {
		s.logger.Info("HTTPS server listening", "addr", s.http.Addr)
		err = s.http.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		s.logger.Info("HTTP server listening", "addr", s.http.Addr)
		err = s.http.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
