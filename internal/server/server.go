// Package server exposes the document catalog, the PDFs behind it and the
// chat relay over HTTP, and can trigger catalog rebuilds.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/divyekant/docportal/internal/chat"
	"github.com/divyekant/docportal/internal/pipeline"
)

// shutdownTimeout bounds how long in-flight requests get after the context
// passed to Start is canceled.
const shutdownTimeout = 10 * time.Second

// Relay answers chat requests. *chat.Relay implements it.
type Relay interface {
	Send(ctx context.Context, req chat.Request) (string, error)
}

// IngestFunc runs one catalog build, reporting progress per file.
type IngestFunc func(ctx context.Context, progress func(file string, done, total int)) (*pipeline.Result, error)

// Options holds what the server needs. Relay and Ingest may be nil, in which
// case the matching endpoints answer 503.
type Options struct {
	CatalogPath string
	DocsDir     string
	Relay       Relay
	Ingest      IngestFunc
	Logger      *slog.Logger
}

// Server holds the dependencies for the portal API.
type Server struct {
	opts    Options
	logger  *slog.Logger
	runs    *RunManager
	router  chi.Router
	baseCtx context.Context
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:    opts,
		logger:  logger,
		runs:    NewRunManager(),
		router:  chi.NewRouter(),
		baseCtx: context.Background(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on addr until ctx is canceled, then shuts down gracefully.
// Ingest runs started through the API are canceled along with ctx.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
