// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package server

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/orgconsole/internal/cache"
	"github.com/ManuGH/orgconsole/internal/config"
	"github.com/ManuGH/orgconsole/internal/control/middleware"
	"github.com/ManuGH/orgconsole/internal/graphql"
	"github.com/ManuGH/orgconsole/internal/health"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/orgapi"
	"github.com/ManuGH/orgconsole/internal/page"
	"github.com/ManuGH/orgconsole/internal/version"
)

// Build assembles the console from cfg: query cache, GraphQL client with
// circuit breaker, organization API service, health checks and the
// middleware stack.
func Build(ctx context.Context, cfg config.AppConfig) (*Server, error) {
	logger := xglog.WithComponent("server")

	queryCache, closeCache, err := NewQueryCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	policy, err := graphql.ParseFetchPolicy(cfg.Upstream.FetchPolicy)
	if err != nil {
		_ = closeCache()
		return nil, err
	}
	breaker := graphql.NewCircuitBreaker("orgapi", cfg.Upstream.BreakerThreshold, cfg.Upstream.BreakerReset)
	client, err := graphql.New(graphql.Options{
		Endpoint:    cfg.Upstream.Endpoint,
		Timeout:     cfg.Upstream.Timeout,
		Cache:       queryCache,
		CacheTTL:    cfg.Cache.TTL,
		FetchPolicy: policy,
		Breaker:     breaker,
		Logger:      xglog.WithComponent("graphql"),
	})
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	stack, err := StackConfig(cfg)
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	hm := health.NewManager(version.Display())
	hm.RegisterChecker(health.NewBreakerChecker("orgapi_breaker", breaker))
	if rc, ok := queryCache.(*cache.RedisCache); ok {
		hm.RegisterChecker(health.NewSoftCheckFunc("query_cache", rc.HealthCheck))
	}

	srv, err := New(Options{
		Deps: page.Deps{
			Service:      orgapi.NewService(client),
			SupportEmail: cfg.Page.SupportEmail,
			ProductName:  cfg.Page.ProductName,
		},
		RenderBudget: cfg.Server.RenderBudget,
		ViewTTL:      cfg.Server.ViewTTL,
		Stack:        stack,
		Health:       hm,
	})
	if err != nil {
		_ = closeCache()
		return nil, err
	}
	srv.OnClose(closeCache)

	logger.Info().
		Str(xglog.FieldEndpoint, client.Endpoint()).
		Str("cache", cfg.Cache.Backend).
		Str("fetch_policy", string(policy)).
		Msg("console assembled")
	return srv, nil
}

// NewQueryCache opens the configured GraphQL query cache. The returned
// function releases it.
func NewQueryCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func() error, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, xglog.WithComponent("cache"))
		if err != nil {
			return nil, nil, fmt.Errorf("query cache: %w", err)
		}
		return rc, rc.Close, nil
	case config.CacheNone:
		return cache.NewNoOpCache(), func() error { return nil }, nil
	case config.CacheMemory, "":
		mc := cache.NewMemoryCache(time.Minute)
		return mc, func() error { mc.Stop(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("query cache: unknown backend %q", cfg.Backend)
	}
}

// StackConfig derives the ingress middleware settings from cfg.
func StackConfig(cfg config.AppConfig) (middleware.StackConfig, error) {
	proxies, err := middleware.ParseCIDRs(cfg.Server.TrustedProxies)
	if err != nil {
		return middleware.StackConfig{}, fmt.Errorf("server.trustedProxies: %w", err)
	}
	stack := middleware.StackConfig{
		EnableCORS:            len(cfg.Server.AllowedOrigins) > 0,
		AllowedOrigins:        cfg.Server.AllowedOrigins,
		EnableSecurityHeaders: true,
		CSP:                   middleware.DefaultCSP,
		TrustedProxies:        proxies,
		EnableMetrics:         true,
		EnableLogging:         true,
		RateLimitRPM:          cfg.Server.RateLimitRPM,
		RateLimitWhitelist:    cfg.Server.RateLimitAllow,
	}
	if cfg.Tracing.Enabled {
		stack.TracingService = "orgconsole"
	}
	return stack, nil
}
