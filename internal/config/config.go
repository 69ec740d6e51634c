// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the console configuration with the precedence
// defaults < YAML file < environment.
package config

import "time"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Store backends of the reference organization API.
const (
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// AppConfig is the complete console configuration.
type AppConfig struct {
	LogLevel string         `yaml:"logLevel"`
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Page     PageConfig     `yaml:"page"`
	Tracing  TracingConfig  `yaml:"tracing"`
	OrgAPI   OrgAPIConfig   `yaml:"orgapi"`
}

// ServerConfig configures the console HTTP surface.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	RenderBudget    time.Duration `yaml:"renderBudget"`
	ViewTTL         time.Duration `yaml:"viewTTL"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins,omitempty"`
	TrustedProxies  []string      `yaml:"trustedProxies,omitempty"`
	RateLimitRPM    int           `yaml:"rateLimitRPM"`
	RateLimitAllow  []string      `yaml:"rateLimitWhitelist,omitempty"`
}

// UpstreamConfig points at the organization GraphQL API.
type UpstreamConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	Timeout          time.Duration `yaml:"timeout"`
	FetchPolicy      string        `yaml:"fetchPolicy"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

// CacheConfig selects the query cache backend.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig configures the Redis query cache.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// PageConfig holds the strings shown on the settings page.
type PageConfig struct {
	SupportEmail string `yaml:"supportEmail"`
	ProductName  string `yaml:"productName"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// OrgAPIConfig configures the reference organization API.
type OrgAPIConfig struct {
	Listen string `yaml:"listen"`
	Store  string `yaml:"store"`
	Path   string `yaml:"path"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		Server: ServerConfig{
			Listen:          ":8080",
			RenderBudget:    750 * time.Millisecond,
			ViewTTL:         15 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPM:    600,
		},
		Upstream: UpstreamConfig{
			Endpoint:         "http://127.0.0.1:8081/graphql",
			Timeout:          10 * time.Second,
			FetchPolicy:      "cache-first",
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     5 * time.Minute,
			Redis: RedisConfig{
				Addr:      "127.0.0.1:6379",
				KeyPrefix: "orgconsole:",
			},
		},
		Page: PageConfig{
			SupportEmail: "support@example.com",
			ProductName:  "Panther",
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "development",
		},
		OrgAPI: OrgAPIConfig{
			Listen: ":8081",
			Store:  StoreSQLite,
			Path:   "data/orgapi.db",
		},
	}
}
