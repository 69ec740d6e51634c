// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/orgconsole/internal/validate"
)

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeYAML(t, `
logLevel: debug
server:
  renderBudget: 2s
upstream:
  endpoint: http://orgapi.internal:8081/graphql
  fetchPolicy: network-only
page:
  productName: Acme Console
`)
	l := NewLoader(path)
	l.lookup = fakeEnv(map[string]string{
		"ORGCONSOLE_PRODUCT_NAME":    "Env Console",
		"ORGCONSOLE_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
		"ORGCONSOLE_RATE_LIMIT_RPM":  "not-a-number",
		"ORGCONSOLE_REDIS_DB":        "",
	})

	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Server.RenderBudget)
	assert.Equal(t, 15*time.Minute, cfg.Server.ViewTTL, "unset keys keep defaults")
	assert.Equal(t, "http://orgapi.internal:8081/graphql", cfg.Upstream.Endpoint)
	assert.Equal(t, "network-only", cfg.Upstream.FetchPolicy)
	assert.Equal(t, "Env Console", cfg.Page.ProductName, "environment wins over file")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 600, cfg.Server.RateLimitRPM, "invalid env keeps value")
	assert.Contains(t, l.ConsumedEnvKeys, "ORGCONSOLE_UPSTREAM_ENDPOINT")
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeYAML(t, "server:\n  listn: \":9000\"\n")
	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField))
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path).Load()
	assert.ErrorContains(t, err, "only YAML supported")
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	l := NewLoader(writeYAML(t, ""))
	l.lookup = fakeEnv(nil)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_ValidationErrors(t *testing.T) {
	l := NewLoader("")
	l.lookup = fakeEnv(map[string]string{
		"ORGCONSOLE_UPSTREAM_ENDPOINT": "ftp://nope",
		"ORGCONSOLE_CACHE_BACKEND":     "redis",
		"ORGCONSOLE_REDIS_ADDR":        "no-port",
		"ORGCONSOLE_SUPPORT_EMAIL":     "help",
	})
	_, err := l.Load()
	require.Error(t, err)

	var ve validate.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]bool{}
	for _, e := range ve.Errors() {
		fields[e.Field] = true
	}
	assert.Equal(t, map[string]bool{
		"upstream.endpoint": true,
		"cache.redis.addr":  true,
		"page.supportEmail": true,
	}, fields)
}

func TestWriteFile_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orgconsole.yaml")
	cfg := Defaults()
	cfg.Page.ProductName = "Written"
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8"}
	require.NoError(t, WriteFile(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	l := NewLoader(path)
	l.lookup = fakeEnv(nil)
	got, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.Redis.Password = "hunter2"
	assert.Equal(t, "***", cfg.Redacted().Cache.Redis.Password)
	assert.Equal(t, "hunter2", cfg.Cache.Redis.Password)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ORGCONSOLE_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ORGCONSOLE_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("ORGCONSOLE_TEST_DOTENV"))
}

func TestHolder_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orgconsole.yaml")
	cfg := Defaults()
	require.NoError(t, WriteFile(path, cfg))

	l := NewLoader(path)
	l.lookup = fakeEnv(nil)
	h := NewHolder(cfg, l)

	var seen atomic.Value
	h.OnReload(func(_, updated AppConfig) { seen.Store(updated.LogLevel) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Watch(ctx))

	cfg.LogLevel = "warn"
	require.NoError(t, WriteFile(path, cfg))

	require.Eventually(t, func() bool { return h.Get().LogLevel == "warn" }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "warn", seen.Load())
}

func TestHolder_InvalidReloadKeepsCurrent(t *testing.T) {
	path := writeYAML(t, "logLevel: info\n")
	l := NewLoader(path)
	l.lookup = fakeEnv(nil)
	cfg, err := l.Load()
	require.NoError(t, err)
	h := NewHolder(cfg, l)

	require.NoError(t, os.WriteFile(path, []byte("logLevel: loud\n"), 0o600))
	assert.Error(t, h.Reload())
	assert.Equal(t, "info", h.Get().LogLevel)
}
