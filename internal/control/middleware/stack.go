// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package middleware provides the HTTP ingress middleware of the console.
package middleware

import (
	"net"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/orgconsole/internal/log"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
// It is shared by the console and the reference organization API.
type StackConfig struct {
	// CORS
	EnableCORS     bool
	AllowedOrigins []string

	// DisableCSRF skips the origin check. Only for endpoints called
	// server-to-server, which send no Origin or Referer.
	DisableCSRF bool

	// Security headers
	EnableSecurityHeaders bool
	CSP                   string

	// TrustedProxies defines which IPs are trusted to set X-Forwarded-Proto.
	TrustedProxies []*net.IPNet

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// Rate limiting, per client IP
	RateLimitRPM       int // 0 disables rate limiting
	RateLimitWhitelist []string
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. CORS (so OPTIONS and browser clients behave)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	// 4. CSRF (fail-closed for state-changing requests)
	if !cfg.DisableCSRF {
		r.Use(CSRFProtection(cfg.AllowedOrigins))
	}
	// 5. Security headers
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP, cfg.TrustedProxies))
	}
	// 6. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 7. Tracing
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	// 8. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(xglog.Middleware())
	}
	// 9. Rate limit
	if cfg.RateLimitRPM > 0 {
		r.Use(RateLimit(RateLimitConfig{
			RequestLimit: cfg.RateLimitRPM,
			Whitelist:    cfg.RateLimitWhitelist,
		}))
	}
}
