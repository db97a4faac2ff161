// Package api exposes a running comparison over HTTP.
//
// The server wraps one [scene.Runtime] and an optional [snapshot.Store].
// Panel styles are served as MapLibre JSON with an ETag derived from the
// document fingerprint, so a browser client can poll cheaply and only swap
// its style when something actually changed.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stylesync/pkg/scene"
	"github.com/matzehuels/stylesync/pkg/snapshot"
)

// Default server timeouts.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Logger *log.Logger
	// Snapshots enables the /snapshots routes. Nil disables them.
	Snapshots snapshot.Store
}

// Server serves the comparison API for one runtime.
type Server struct {
	rt        *scene.Runtime
	snapshots snapshot.Store
	logger    *log.Logger
	router    chi.Router

	// mu is held for writing by every handler that mutates the runtime
	// and for reading by every handler that reports on it, so a reader
	// never observes a half-applied restore or selection change.
	mu sync.RWMutex
}

// New creates a server for rt.
func New(rt *scene.Runtime, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s := &Server{
		rt:        rt,
		snapshots: opts.Snapshots,
		logger:    opts.Logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/compare", func(r chi.Router) {
		r.Get("/", s.handleStatus)
		r.Post("/activate", s.handleActivate)
		r.Post("/deactivate", s.handleDeactivate)
		r.Put("/view", s.handleView)
		r.Put("/slider", s.handleSlider)

		r.Route("/panels/{panel}", func(r chi.Router) {
			r.Get("/style", s.handlePanelStyle)
			r.Get("/layers", s.handlePanelLayers)
			r.Put("/visibility", s.handleVisibilityAll)
			r.Put("/visibility/{name}", s.handleVisibility)
			r.Put("/styles/{layer}/{copy}", s.handleLayerStyle)
			r.Post("/click", s.handleClick)
		})
	})

	r.Route("/scene", func(r chi.Router) {
		r.Get("/layers", s.handleSceneLayers)
		r.Post("/select/{layer}", s.handleSelect)
		r.Delete("/select/{layer}/{copy}", s.handleDeselect)
		r.Put("/select/{layer}/{copy}/frame", s.handleFrame)
		r.Put("/order", s.handleReorder)
		r.Put("/basemap/{name}", s.handleBasemap)
	})

	r.Route("/snapshots", func(r chi.Router) {
		r.Use(s.requireSnapshots)
		r.Get("/", s.handleListSnapshots)
		r.Post("/", s.handleCreateSnapshot)
		r.Get("/{id}", s.handleGetSnapshot)
		r.Delete("/{id}", s.handleDeleteSnapshot)
		r.Post("/{id}/restore", s.handleRestoreSnapshot)
	})
	return r
}
