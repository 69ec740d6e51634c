// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForAddr(t *testing.T, m *Manager, name string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := m.Addr(name); addr != "" {
			return addr
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server %s never started listening", name)
	return ""
}

func TestManager_ServesUntilCanceled(t *testing.T) {
	m := NewManager(time.Second)
	m.AddServer("api", &http.Server{
		Addr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}),
	})

	var mu sync.Mutex
	var order []string
	m.RegisterShutdownHook("first", func(context.Context) error {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
		return nil
	})
	m.RegisterShutdownHook("second", func(context.Context) error {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	addr := waitForAddr(t, m, "api")
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	res, err := client.Get("http://" + addr + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	assert.Equal(t, []string{"second", "first"}, order, "hooks run LIFO")
	assert.NoError(t, m.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestManager_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	m := NewManager(time.Second)
	m.AddServer("api", &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()})

	err = m.Start(context.Background())
	assert.True(t, errors.Is(err, ErrServerStartFailed), "got %v", err)
}

func TestManager_Errors(t *testing.T) {
	m := NewManager(0)
	assert.ErrorIs(t, m.Shutdown(context.Background()), ErrManagerNotStarted)
	assert.ErrorIs(t, m.Start(context.Background()), ErrNoServers)
}

func TestManager_HookErrorsAreJoined(t *testing.T) {
	m := NewManager(time.Second)
	m.AddServer("api", &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()})
	boom := errors.New("boom")
	m.RegisterShutdownHook("failing", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	waitForAddr(t, m, "api")
	cancel()

	err := <-done
	assert.ErrorIs(t, err, boom)
}
