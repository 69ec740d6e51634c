// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/orgconsole/internal/resilience"
)

func ping(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func TestReady_NoCheckers(t *testing.T) {
	resp := NewManager("1.0.0").Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)
}

func TestReady_Aggregation(t *testing.T) {
	tests := []struct {
		name      string
		checkers  []Checker
		wantReady bool
		want      Status
	}{
		{"all healthy", []Checker{NewCheckFunc("redis", ping(nil))}, true, StatusHealthy},
		{"degraded", []Checker{NewCheckFunc("redis", ping(nil)), NewSoftCheckFunc("upstream", ping(errors.New("down")))}, true, StatusDegraded},
		{"unhealthy", []Checker{NewCheckFunc("redis", ping(errors.New("refused"))), NewSoftCheckFunc("upstream", ping(nil))}, false, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("1.0.0")
			for _, c := range tt.checkers {
				m.RegisterChecker(c)
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checkers))
		})
	}
}

func TestCheck_Timeout(t *testing.T) {
	m := NewManager("dev")
	m.timeout = 10 * time.Millisecond
	m.RegisterChecker(NewCheckFunc("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	resp := m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["slow"].Error)
}

func TestBreakerChecker(t *testing.T) {
	cb := resilience.NewCircuitBreaker("upstream", 1, time.Minute)
	c := NewBreakerChecker("upstream", cb)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	_ = cb.Execute(func() error { return errors.New("boom") })
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "open", res.Message)
}

func TestServeReady(t *testing.T) {
	m := NewManager("dev")
	m.RegisterChecker(NewCheckFunc("store", ping(errors.New("closed"))))

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.Equal(t, "closed", body.Checks["store"].Error)
}

func TestServeHealth_AlwaysOK(t *testing.T) {
	m := NewManager("dev")
	m.RegisterChecker(NewCheckFunc("store", ping(errors.New("closed"))))

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusUnhealthy, body.Status)
	assert.Equal(t, "dev", body.Version)
}
