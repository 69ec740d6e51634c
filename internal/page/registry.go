// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package page

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/orgconsole/internal/cache"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/metrics"
)

// Registry keeps mounted views alive while they are being used. A view that
// is not accessed for the idle TTL is evicted and closed.
type Registry struct {
	views  *cache.MemoryCache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRegistry returns a registry evicting views idle for longer than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		ttl:    ttl,
		logger: xglog.WithComponent("page"),
	}
	r.views = cache.NewMemoryCache(janitorInterval(ttl), cache.WithOnEvict(r.evicted))
	return r
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}

// Add registers v.
func (r *Registry) Add(v *View) {
	r.views.Set(v.ID(), v, r.ttl)
	metrics.SetViewsActive(r.Len())
}

// Get returns the view with id and extends its lifetime. Closed and expired
// views are reported as missing.
func (r *Registry) Get(id string) (*View, bool) {
	// Touch first so the janitor cannot evict the entry between lookup and
	// refresh.
	if !r.views.Touch(id, r.ttl) {
		// Get drops an expired entry and closes its view.
		_, _ = r.views.Get(id)
		return nil, false
	}
	val, ok := r.views.Get(id)
	if !ok {
		return nil, false
	}
	v, ok := val.(*View)
	if !ok || v.isClosed() {
		r.views.Delete(id)
		return nil, false
	}
	return v, true
}

// Remove closes and forgets the view with id.
func (r *Registry) Remove(id string) {
	r.views.Delete(id)
}

// Len returns the number of registered views.
func (r *Registry) Len() int {
	return r.views.Stats().CurrentSize
}

// Close stops the janitor and closes every registered view.
func (r *Registry) Close() {
	r.views.Stop()
	r.views.Clear()
}

func (r *Registry) evicted(id string, value any, reason cache.EvictReason) {
	if v, ok := value.(*View); ok {
		v.Close()
	}
	metrics.SetViewsActive(r.Len())
	r.logger.Debug().
		Str(xglog.FieldViewID, id).
		Str(xglog.FieldEvent, "view.evicted").
		Str("reason", string(reason)).
		Msg("settings view released")
}
