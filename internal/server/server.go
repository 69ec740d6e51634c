// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package server is the HTTP surface of the console: the general settings
// page, its JSON twin and the operational endpoints.
package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/orgconsole/internal/control/middleware"
	"github.com/ManuGH/orgconsole/internal/health"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/page"
	"github.com/ManuGH/orgconsole/internal/version"
)

// Route paths.
const (
	PathSettings    = "/settings/general"
	PathSettingsAPI = "/api/v1/settings/general"
)

// DefaultRenderBudget is how long a request waits for a pending read or
// write before rendering what it has.
const DefaultRenderBudget = 750 * time.Millisecond

// Options configures a Server.
type Options struct {
	Deps         page.Deps
	RenderBudget time.Duration
	ViewTTL      time.Duration
	Stack        middleware.StackConfig
	Health       *health.Manager // optional
}

// Server serves mounted settings views.
type Server struct {
	deps     page.Deps
	budget   time.Duration
	stack    middleware.StackConfig
	registry *page.Registry
	renderer *page.Renderer
	health   *health.Manager
	logger   zerolog.Logger

	closeOnce sync.Once
	closers   []func() error
}

// New builds a Server. Close releases its views.
func New(opts Options) (*Server, error) {
	if opts.Deps.Service == nil {
		return nil, errors.New("server: settings service is required")
	}
	renderer, err := page.NewRenderer()
	if err != nil {
		return nil, err
	}

	budget := opts.RenderBudget
	if budget <= 0 {
		budget = DefaultRenderBudget
	}
	ttl := opts.ViewTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	hm := opts.Health
	if hm == nil {
		hm = health.NewManager(version.Display())
	}

	return &Server{
		deps:     opts.Deps,
		budget:   budget,
		stack:    opts.Stack,
		registry: page.NewRegistry(ttl),
		renderer: renderer,
		health:   hm,
		logger:   xglog.WithComponent("server"),
	}, nil
}

// Registry exposes the live views.
func (s *Server) Registry() *page.Registry { return s.registry }

// Health exposes the health manager so callers can register checks.
func (s *Server) Health() *health.Manager { return s.health }

// OnClose registers fn to run when the server is closed, after the views.
func (s *Server) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Handler returns the router with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(s.stack)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, PathSettings, http.StatusFound)
	})
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route(PathSettings, func(r chi.Router) {
		r.Get("/", s.handleMount)
		r.Get("/{viewID}", s.handleShow)
		r.Post("/{viewID}", s.handleSubmit)
	})
	r.Route(PathSettingsAPI, func(r chi.Router) {
		r.Post("/", s.handleAPIMount)
		r.Get("/{viewID}", s.handleAPIShow)
		r.Post("/{viewID}", s.handleAPISubmit)
	})
	return r
}

// Close closes every mounted view, then the registered resources.
func (s *Server) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		s.registry.Close()
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		s.logger.Info().Str(xglog.FieldEvent, "server.closed").Msg("views closed")
	})
	return errors.Join(errs...)
}

func viewPath(id string) string { return PathSettings + "/" + id }
