// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon runs HTTP servers until the context ends and shuts them
// down gracefully.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/orgconsole/internal/log"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

type namedServer struct {
	name     string
	srv      *http.Server
	listener net.Listener
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// Manager owns the lifecycle of one or more HTTP servers.
type Manager struct {
	shutdownTimeout time.Duration
	logger          zerolog.Logger

	mu       sync.Mutex
	servers  []*namedServer
	hooks    []namedHook
	started  bool
	stopping bool
}

// NewManager returns a manager that gives shutdown at most shutdownTimeout.
func NewManager(shutdownTimeout time.Duration) *Manager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &Manager{
		shutdownTimeout: shutdownTimeout,
		logger:          xglog.WithComponent("daemon"),
	}
}

// AddServer registers srv under name. It must be called before Start.
func (m *Manager) AddServer(name string, srv *http.Server) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, &namedServer{name: name, srv: srv})
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}

// Addr returns the bound address of the named server once it is listening.
func (m *Manager) Addr(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.servers {
		if s.name == name && s.listener != nil {
			return s.listener.Addr().String()
		}
	}
	return ""
}

// Start binds every server and blocks until ctx ends or a server fails,
// then shuts everything down.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(m.servers) == 0 {
		m.mu.Unlock()
		return ErrNoServers
	}
	m.started = true

	// Bind synchronously so address conflicts surface as a Start error.
	for _, s := range m.servers {
		ln, err := net.Listen("tcp", s.srv.Addr)
		if err != nil {
			m.mu.Unlock()
			m.closeListeners()
			return fmt.Errorf("%w: %s on %s: %v", ErrServerStartFailed, s.name, s.srv.Addr, err)
		}
		s.listener = ln
	}
	servers := append([]*namedServer(nil), m.servers...)
	m.mu.Unlock()

	errChan := make(chan error, len(servers))
	for _, s := range servers {
		m.logger.Info().
			Str("server", s.name).
			Str("addr", s.listener.Addr().String()).
			Msg("server listening")
		go func(s *namedServer) {
			if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.logger.Error().
					Err(err).
					Str(xglog.FieldEvent, "server.failed").
					Str("server", s.name).
					Msg("server failed")
				errChan <- fmt.Errorf("%s server: %w", s.name, err)
			}
		}(s)
	}

	// Shutdown gets a detached-but-bounded context so it completes even
	// though the parent is already canceled.
	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("server error, initiating shutdown")
		if shutdownErr := m.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("shutdown signal received")
		return m.Shutdown(context.WithoutCancel(ctx))
	}
}

func (m *Manager) closeListeners() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.servers {
		if s.listener != nil {
			_ = s.listener.Close()
			s.listener = nil
		}
	}
}

// Shutdown stops all servers, then runs the hooks in reverse order. It is
// safe to call more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	servers := append([]*namedServer(nil), m.servers...)
	hooks := append([]namedHook(nil), m.hooks...)
	m.mu.Unlock()

	m.logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
	defer cancel()

	var errs []error
	for _, s := range servers {
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s server shutdown: %w", s.name, err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", h.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		m.logger.Debug().Str("hook", h.name).Dur("duration", time.Since(start)).Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Msg("stopped cleanly")
	return nil
}
