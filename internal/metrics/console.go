// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream GraphQL operations
	graphqlOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_graphql_operations_total",
		Help: "GraphQL operations issued to the organization API by outcome",
	}, []string{"operation", "outcome"}) // outcome=success|graphql_error|network_error

	graphqlOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orgconsole_graphql_operation_duration_seconds",
		Help:    "Latency of GraphQL operations issued to the organization API",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	queryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_query_cache_lookups_total",
		Help: "Query cache lookups by result",
	}, []string{"operation", "result"}) // result=hit|miss

	// Settings page
	viewsMounted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgconsole_settings_views_mounted_total",
		Help: "Settings page views mounted",
	})

	viewsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orgconsole_settings_views_active",
		Help: "Settings page views currently registered",
	})

	viewRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_settings_view_renders_total",
		Help: "Settings page renders by selected state",
	}, []string{"state"}) // state=loading|read_error|ready

	snackbarsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_snackbars_emitted_total",
		Help: "Transient notifications emitted by variant",
	}, []string{"variant"})

	settingsSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_settings_submissions_total",
		Help: "Company information form submissions by result",
	}, []string{"result"}) // result=dispatched|invalid

	renderBoundaryRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgconsole_render_boundary_recoveries_total",
		Help: "Panel render failures contained by the error boundary",
	})
)

// ObserveGraphQLOperation records one upstream operation.
func ObserveGraphQLOperation(operation, outcome string, d time.Duration) {
	graphqlOperationsTotal.WithLabelValues(operation, outcome).Inc()
	graphqlOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordQueryCacheLookup records a query cache hit or miss.
func RecordQueryCacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	queryCacheLookups.WithLabelValues(operation, result).Inc()
}

// RecordViewMounted increments the mounted views counter.
func RecordViewMounted() {
	viewsMounted.Inc()
}

// SetViewsActive sets the number of registered views.
func SetViewsActive(n int) {
	viewsActive.Set(float64(n))
}

// RecordViewRender records which state the render selector chose.
func RecordViewRender(state string) {
	viewRenders.WithLabelValues(state).Inc()
}

// RecordSnackbar records an emitted notification.
func RecordSnackbar(variant string) {
	snackbarsEmitted.WithLabelValues(variant).Inc()
}

// RecordSubmission records a form submission outcome.
func RecordSubmission(result string) {
	settingsSubmissions.WithLabelValues(result).Inc()
}

// RecordBoundaryRecovery records a contained render failure.
func RecordBoundaryRecovery() {
	renderBoundaryRecoveries.Inc()
}
