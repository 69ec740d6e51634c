// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/orgconsole/internal/cache"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/metrics"
	"github.com/ManuGH/orgconsole/internal/resilience"
	"github.com/ManuGH/orgconsole/internal/telemetry"
)

// HeaderOperationName carries the operation name so proxies and the
// organization API can route and log without parsing the body.
const HeaderOperationName = "X-GraphQL-Operation-Name"

const maxErrorBody = 64 << 10

// FetchPolicy selects how queries use the cache.
type FetchPolicy string

const (
	// CacheFirst answers from the cache when possible and only hits the
	// network on a miss.
	CacheFirst FetchPolicy = "cache-first"
	// NetworkOnly always hits the network and refreshes the cache.
	NetworkOnly FetchPolicy = "network-only"
)

// ParseFetchPolicy validates a configured policy name.
func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch p := FetchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", CacheFirst:
		return CacheFirst, nil
	case NetworkOnly:
		return NetworkOnly, nil
	default:
		return "", fmt.Errorf("graphql: unknown fetch policy %q", s)
	}
}

// Options configures a Client.
type Options struct {
	Endpoint    string                     // absolute http(s) URL of the GraphQL endpoint
	Timeout     time.Duration              // per-request timeout (default 15s)
	HTTPClient  *http.Client               // optional; its transport is wrapped for tracing
	Cache       cache.Cache                // optional query cache (default no-op)
	CacheTTL    time.Duration              // lifetime of cached query results (default 5m)
	FetchPolicy FetchPolicy                // default CacheFirst
	Breaker     *resilience.CircuitBreaker // optional, see NewCircuitBreaker
	Header      http.Header                // static headers sent with every request
	Logger      zerolog.Logger
}

// NewCircuitBreaker returns a breaker that only counts transport failures and
// 5xx answers; GraphQL errors mean the API is up and answering.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(name, threshold, resetTimeout,
		resilience.WithFailureClassifier(isTechnical))
}

// Client issues GraphQL operations against one endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	cache    cache.Cache
	ttl      time.Duration
	policy   FetchPolicy
	breaker  *resilience.CircuitBreaker
	header   http.Header
	logger   zerolog.Logger
	inflight singleflight.Group

	// gens counts WriteQuery/Evict calls per cache key. A network result
	// is only cached if no write happened while it was in flight.
	genMu sync.Mutex
	gens  map[string]uint64
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("graphql: invalid endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("graphql: endpoint must be an absolute http(s) URL, got %q", opts.Endpoint)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		base = opts.HTTPClient.Transport
	}
	hc := &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(base,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "graphql " + r.Header.Get(HeaderOperationName)
			}),
		),
	}

	c := &Client{
		endpoint: u.String(),
		http:     hc,
		cache:    opts.Cache,
		ttl:      opts.CacheTTL,
		policy:   opts.FetchPolicy,
		breaker:  opts.Breaker,
		header:   opts.Header.Clone(),
		logger:   opts.Logger,
		gens:     make(map[string]uint64),
	}
	if c.cache == nil {
		c.cache = cache.NewNoOpCache()
	}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	if c.policy == "" {
		c.policy = CacheFirst
	}
	return c, nil
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Query runs a query document and decodes its data into out.
// Identical queries in flight at the same time share one request.
func (c *Client) Query(ctx context.Context, doc Document, vars map[string]any, out any) error {
	if doc.Kind != KindQuery {
		return fmt.Errorf("graphql: %s is not a query", doc.Name)
	}
	key, err := cacheKey(doc, vars)
	if err != nil {
		return fmt.Errorf("graphql: encode variables for %s: %w", doc.Name, err)
	}

	if c.policy == CacheFirst {
		if raw, ok := c.cached(key); ok {
			metrics.RecordQueryCacheLookup(doc.Name, true)
			return decodeData(doc.Name, raw, out)
		}
		metrics.RecordQueryCacheLookup(doc.Name, false)
	}

	v, err, shared := c.inflight.Do(key, func() (any, error) {
		gen := c.generation(key)
		raw, err := c.execute(ctx, doc, vars)
		if err != nil {
			return nil, err
		}
		if !c.storeIfCurrent(key, gen, raw) {
			c.logger.Debug().Str(xglog.FieldOperation, doc.Name).Msg("dropped query result superseded by a cache write")
		}
		return raw, nil
	})
	if shared {
		c.logger.Debug().Str(xglog.FieldOperation, doc.Name).Msg("joined in-flight query")
	}
	if err != nil {
		return err
	}
	return decodeData(doc.Name, v.(json.RawMessage), out)
}

// Mutate runs a mutation document and decodes its data into out.
// Mutations bypass the cache and are never deduplicated.
func (c *Client) Mutate(ctx context.Context, doc Document, vars map[string]any, out any) error {
	if doc.Kind != KindMutation {
		return fmt.Errorf("graphql: %s is not a mutation", doc.Name)
	}
	raw, err := c.execute(ctx, doc, vars)
	if err != nil {
		return err
	}
	return decodeData(doc.Name, raw, out)
}

// WriteQuery stores data as the cached result of a query, so later
// cache-first reads observe it without a round trip.
func (c *Client) WriteQuery(doc Document, vars map[string]any, data any) error {
	key, err := cacheKey(doc, vars)
	if err != nil {
		return fmt.Errorf("graphql: encode variables for %s: %w", doc.Name, err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("graphql: encode cache entry for %s: %w", doc.Name, err)
	}
	c.genMu.Lock()
	c.gens[key]++
	c.cache.Set(key, string(raw), c.ttl)
	c.genMu.Unlock()
	// Later queries must not join a request that started before the write.
	c.inflight.Forget(key)
	return nil
}

// Evict drops the cached result of a query.
func (c *Client) Evict(doc Document, vars map[string]any) {
	key, err := cacheKey(doc, vars)
	if err != nil {
		return
	}
	c.genMu.Lock()
	c.gens[key]++
	c.cache.Delete(key)
	c.genMu.Unlock()
	c.inflight.Forget(key)
}

func (c *Client) generation(key string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gens[key]
}

// storeIfCurrent caches raw unless key was written or evicted after gen
// was read.
func (c *Client) storeIfCurrent(key string, gen uint64, raw json.RawMessage) bool {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.gens[key] != gen {
		return false
	}
	c.cache.Set(key, string(raw), c.ttl)
	return true
}

func (c *Client) cached(key string) (json.RawMessage, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	switch raw := v.(type) {
	case string:
		return json.RawMessage(raw), true
	case []byte:
		return json.RawMessage(raw), true
	default:
		c.logger.Warn().Str("key", key).Str("type", fmt.Sprintf("%T", v)).Msg("ignoring unexpected query cache entry")
		return nil, false
	}
}

// execute sends one operation and returns the raw "data" member.
func (c *Client) execute(ctx context.Context, doc Document, vars map[string]any) (json.RawMessage, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer("orgconsole/graphql").Start(ctx, "graphql "+doc.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.GraphQLAttributes(doc.Name, string(doc.Kind))...),
	)
	defer span.End()
	var data json.RawMessage

	run := func() error {
		var err error
		data, err = c.roundTrip(ctx, doc, vars)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(run)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			err = &Error{Operation: doc.Name, NetworkError: &NetworkError{Err: err}}
		}
	} else {
		err = run()
	}

	outcome := "success"
	if err != nil {
		outcome = "graphql_error"
		var gqlErr *Error
		if errors.As(err, &gqlErr) && gqlErr.NetworkError != nil {
			outcome = "network_error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger := xglog.WithContext(ctx, c.logger)
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "graphql.operation_failed").
			Str(xglog.FieldOperation, doc.Name).
			Msg("graphql operation failed")
	}
	metrics.ObserveGraphQLOperation(doc.Name, outcome, time.Since(start))
	return data, err
}

func (c *Client) roundTrip(ctx context.Context, doc Document, vars map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(request{OperationName: doc.Name, Query: doc.Text, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("graphql: encode %s: %w", doc.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Operation: doc.Name, NetworkError: &NetworkError{Err: err}}
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderOperationName, doc.Name)
	if rid := xglog.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Operation: doc.Name, NetworkError: &NetworkError{Err: err}}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &Error{Operation: doc.Name, NetworkError: &NetworkError{
			StatusCode: res.StatusCode,
			Message:    bodyMessage(raw),
			Err:        fmt.Errorf("unexpected status %s", res.Status),
		}}
	}

	var env response
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, &Error{Operation: doc.Name, NetworkError: &NetworkError{
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%w: %v", ErrBadResponse, err),
		}}
	}
	if len(env.Errors) > 0 {
		return nil, &Error{Operation: doc.Name, GraphQLErrors: env.Errors}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &Error{Operation: doc.Name, NetworkError: &NetworkError{
			StatusCode: res.StatusCode,
			Err:        ErrNoData,
		}}
	}
	return env.Data, nil
}

// bodyMessage pulls a "message" string out of a JSON error body.
func bodyMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}

func decodeData(op string, raw json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Operation: op, NetworkError: &NetworkError{Err: fmt.Errorf("%w: %v", ErrBadResponse, err)}}
	}
	return nil
}
