// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment variable read by the console.
const EnvPrefix = "ORGCONSOLE_"

// envReader reads typed overrides from the environment and logs where each
// value came from. Invalid values keep the current value.
type envReader struct {
	logger   zerolog.Logger
	lookup   func(string) (string, bool)
	consumed map[string]struct{}
}

func (e *envReader) get(key string) (string, bool) {
	key = EnvPrefix + key
	e.consumed[key] = struct{}{}
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) str(key string, dst *string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	lower := strings.ToLower(key)
	if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
		e.logger.Debug().Str("key", EnvPrefix+key).Str("source", "environment").Bool("sensitive", true).Msg("using environment variable")
	} else {
		e.logger.Debug().Str("key", EnvPrefix+key).Str("value", v).Str("source", "environment").Msg("using environment variable")
	}
	*dst = v
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.invalid(key, v, "integer")
		return
	}
	*dst = i
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.invalid(key, v, "float")
		return
	}
	*dst = f
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.invalid(key, v, "duration")
		return
	}
	*dst = d
}

// boolean accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		e.invalid(key, v, "boolean")
	}
}

// list reads a comma separated list.
func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func (e *envReader) invalid(key, value, kind string) {
	e.logger.Warn().
		Str("key", EnvPrefix+key).
		Str("value", value).
		Msgf("invalid %s in environment variable, keeping configured value", kind)
}

// applyEnv overrides cfg with ORGCONSOLE_* variables.
func (e *envReader) applyEnv(cfg *AppConfig) {
	e.str("LOG_LEVEL", &cfg.LogLevel)

	e.str("LISTEN", &cfg.Server.Listen)
	e.duration("RENDER_BUDGET", &cfg.Server.RenderBudget)
	e.duration("VIEW_TTL", &cfg.Server.ViewTTL)
	e.duration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	e.list("ALLOWED_ORIGINS", &cfg.Server.AllowedOrigins)
	e.list("TRUSTED_PROXIES", &cfg.Server.TrustedProxies)
	e.integer("RATE_LIMIT_RPM", &cfg.Server.RateLimitRPM)
	e.list("RATE_LIMIT_WHITELIST", &cfg.Server.RateLimitAllow)

	e.str("UPSTREAM_ENDPOINT", &cfg.Upstream.Endpoint)
	e.duration("UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)
	e.str("FETCH_POLICY", &cfg.Upstream.FetchPolicy)
	e.integer("BREAKER_THRESHOLD", &cfg.Upstream.BreakerThreshold)
	e.duration("BREAKER_RESET", &cfg.Upstream.BreakerReset)

	e.str("CACHE_BACKEND", &cfg.Cache.Backend)
	e.duration("CACHE_TTL", &cfg.Cache.TTL)
	e.str("REDIS_ADDR", &cfg.Cache.Redis.Addr)
	e.str("REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	e.integer("REDIS_DB", &cfg.Cache.Redis.DB)
	e.str("REDIS_KEY_PREFIX", &cfg.Cache.Redis.KeyPrefix)

	e.str("SUPPORT_EMAIL", &cfg.Page.SupportEmail)
	e.str("PRODUCT_NAME", &cfg.Page.ProductName)

	e.boolean("TRACING_ENABLED", &cfg.Tracing.Enabled)
	e.str("TRACING_EXPORTER", &cfg.Tracing.Exporter)
	e.str("TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
	e.float("TRACING_SAMPLING_RATE", &cfg.Tracing.SamplingRate)
	e.str("TRACING_ENVIRONMENT", &cfg.Tracing.Environment)

	e.str("ORGAPI_LISTEN", &cfg.OrgAPI.Listen)
	e.str("ORGAPI_STORE", &cfg.OrgAPI.Store)
	e.str("ORGAPI_PATH", &cfg.OrgAPI.Path)
}

func osLookup(key string) (string, bool) { return os.LookupEnv(key) }
