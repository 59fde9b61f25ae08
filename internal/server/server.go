// Package server exposes the HTTP surface of the converter: one endpoint
// that accepts a statement upload and streams back the converted CSV, plus
// liveness and health routes. It is a thin shim over the session manager
// and the upstream conversion client.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"bankconv/internal/config"
	"bankconv/internal/history"
	"bankconv/internal/session"
)

// TokenSource hands out a usable upstream token and tracks its consumption.
type TokenSource interface {
	AcquireToken(ctx context.Context) (string, error)
	RecordUsage(ctx context.Context) (int, error)
}

// Converter is the slice of the upstream client used by the convert endpoint.
type Converter interface {
	Upload(ctx context.Context, token string, file io.Reader, filename string) (string, error)
	PollConvert(ctx context.Context, token, artifactID string) ([]byte, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	cfg       *config.Config
	sessions  TokenSource
	converter Converter
	store     session.Store
	history   *history.Repository // nil when DATABASE_URL is unset
	logger    *slog.Logger
}

// New creates a server. history may be nil.
func New(
	cfg *config.Config,
	sessions TokenSource,
	converter Converter,
	store session.Store,
	hist *history.Repository,
	logger *slog.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		sessions:  sessions,
		converter: converter,
		store:     store,
		history:   hist,
		logger:    logger,
	}
}

// HTTPServer wraps the router in an http.Server. The write timeout leaves
// room for the conversion polling deadline on top of upload time.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.cfg.ConvertDeadline + 30*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
