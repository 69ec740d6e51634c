// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"path/filepath"
	"time"

	"github.com/ManuGH/orgconsole/internal/validate"
)

// Validate checks a fully merged configuration.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.OneOf("logLevel", cfg.LogLevel, []string{"trace", "debug", "info", "warn", "error"})

	v.ListenAddr("server.listen", cfg.Server.Listen)
	v.Duration("server.renderBudget", cfg.Server.RenderBudget, 10*time.Millisecond, 30*time.Second)
	v.Duration("server.viewTTL", cfg.Server.ViewTTL, time.Second, 24*time.Hour)
	v.Duration("server.shutdownTimeout", cfg.Server.ShutdownTimeout, time.Second, 5*time.Minute)
	v.Origins("server.allowedOrigins", cfg.Server.AllowedOrigins)
	v.CIDRs("server.trustedProxies", cfg.Server.TrustedProxies)
	v.CIDRs("server.rateLimitWhitelist", cfg.Server.RateLimitAllow)
	v.NonNegative("server.rateLimitRPM", cfg.Server.RateLimitRPM)

	v.URL("upstream.endpoint", cfg.Upstream.Endpoint, []string{"http", "https"})
	v.Duration("upstream.timeout", cfg.Upstream.Timeout, 100*time.Millisecond, 5*time.Minute)
	v.OneOf("upstream.fetchPolicy", cfg.Upstream.FetchPolicy, []string{"cache-first", "network-only"})
	v.Range("upstream.breakerThreshold", cfg.Upstream.BreakerThreshold, 1, 1000)
	v.Duration("upstream.breakerReset", cfg.Upstream.BreakerReset, time.Second, time.Hour)

	v.OneOf("cache.backend", cfg.Cache.Backend, []string{CacheMemory, CacheRedis, CacheNone})
	if cfg.Cache.Backend != CacheNone {
		v.Duration("cache.ttl", cfg.Cache.TTL, time.Second, 24*time.Hour)
	}
	if cfg.Cache.Backend == CacheRedis {
		v.ListenAddr("cache.redis.addr", cfg.Cache.Redis.Addr)
		v.Range("cache.redis.db", cfg.Cache.Redis.DB, 0, 15)
	}

	v.Email("page.supportEmail", cfg.Page.SupportEmail)
	v.NotEmpty("page.productName", cfg.Page.ProductName)

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.Ratio("tracing.samplingRate", cfg.Tracing.SamplingRate)
	}

	v.ListenAddr("orgapi.listen", cfg.OrgAPI.Listen)
	v.OneOf("orgapi.store", cfg.OrgAPI.Store, []string{StoreSQLite, StoreBadger, StoreMemory})
	if cfg.OrgAPI.Store != StoreMemory {
		v.NotEmpty("orgapi.path", cfg.OrgAPI.Path)
	}

	return v.Err()
}

// EnsureStoreDir creates the directory holding the organization API store.
func EnsureStoreDir(cfg OrgAPIConfig) error {
	if cfg.Store == StoreMemory {
		return nil
	}
	dir := cfg.Path
	if cfg.Store == StoreSQLite {
		dir = filepath.Dir(cfg.Path)
	}
	v := validate.New()
	v.Directory("orgapi.path", dir, false)
	return v.Err()
}
