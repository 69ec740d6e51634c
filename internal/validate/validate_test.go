// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid http", "http://orgapi:8081/graphql", false},
		{"valid https", "https://api.example.com/graphql", false},
		{"empty url", "", true},
		{"no host", "http://", true},
		{"invalid scheme", "ftp://example.com", true},
		{"no scheme", "example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("upstream.endpoint", tt.value, []string{"http", "https"})
			assert.Equal(t, tt.wantErr, !v.IsValid(), "%v", v.Err())
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	v := New()
	v.ListenAddr("a", ":8080")
	v.ListenAddr("b", "127.0.0.1:0")
	assert.True(t, v.IsValid())

	v.ListenAddr("c", "8080")
	v.ListenAddr("d", "localhost:")
	assert.Len(t, v.Errors(), 2)
}

func TestValidator_Origins(t *testing.T) {
	v := New()
	v.Origins("origins", []string{"*", "https://admin.example.com", "http://localhost:3000"})
	assert.True(t, v.IsValid())

	v.Origins("origins", []string{"admin.example.com", "https://admin.example.com/path", "ws://x"})
	assert.Len(t, v.Errors(), 3)
}

func TestValidator_CIDRs(t *testing.T) {
	v := New()
	v.CIDRs("proxies", []string{"10.0.0.1", "192.168.0.0/16", "::1"})
	assert.True(t, v.IsValid())

	v.CIDRs("proxies", []string{"10.0.0.0/33"})
	assert.False(t, v.IsValid())
}

func TestValidator_Misc(t *testing.T) {
	v := New()
	v.Range("redis.db", 3, 0, 15)
	v.Ratio("sampling", 0.25)
	v.Duration("budget", time.Second, 10*time.Millisecond, time.Minute)
	v.Email("supportEmail", "support@example.com")
	v.OneOf("backend", "redis", []string{"memory", "redis"})
	v.NotEmpty("name", "Panther")
	v.NonNegative("rpm", 0)
	require.True(t, v.IsValid(), "%v", v.Err())

	v.Range("redis.db", 16, 0, 15)
	v.Ratio("sampling", 1.5)
	v.Duration("budget", 0, 10*time.Millisecond, time.Minute)
	v.Email("supportEmail", "Support <s@example.com>")
	v.OneOf("backend", "memcached", []string{"memory", "redis"})
	v.NotEmpty("name", "  ")
	v.NonNegative("rpm", -1)
	assert.Len(t, v.Errors(), 7)
}

func TestValidator_Directory(t *testing.T) {
	dir := t.TempDir()

	v := New()
	created := filepath.Join(dir, "data", "orgapi")
	v.Directory("store.dir", created, false)
	require.True(t, v.IsValid(), "%v", v.Err())
	info, err := os.Stat(created)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	v.Directory("store.dir", filepath.Join(dir, "missing"), true)
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	v.Directory("store.dir", file, false)
	v.Directory("store.dir", "../escape", false)
	assert.Len(t, v.Errors(), 3)
}

func TestValidationError(t *testing.T) {
	v := New()
	assert.NoError(t, v.Err())

	v.AddError("a", "first", 1)
	v.AddError("b", "second", 2)
	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed for a: first; validation failed for b: second", err.Error())

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors(), 2)
}
