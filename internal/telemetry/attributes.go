// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the console.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPRequestIDKey  = "http.request_id"

	// GraphQL attributes
	GraphQLOperationNameKey = "graphql.operation.name"
	GraphQLOperationTypeKey = "graphql.operation.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// GraphQLAttributes creates span attributes for an outgoing GraphQL operation.
func GraphQLAttributes(operation, kind string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(GraphQLOperationNameKey, operation),
		attribute.String(GraphQLOperationTypeKey, kind),
	}
}
