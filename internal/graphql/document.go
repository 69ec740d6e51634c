// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package graphql is a small GraphQL-over-HTTP client with a query cache.
package graphql

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Kind distinguishes queries from mutations.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Document is a named GraphQL operation.
type Document struct {
	Name string
	Kind Kind
	Text string
}

// Query declares a query document.
func Query(name, text string) Document {
	return Document{Name: name, Kind: KindQuery, Text: text}
}

// Mutation declares a mutation document.
func Mutation(name, text string) Document {
	return Document{Name: name, Kind: KindMutation, Text: text}
}

// request is the POST body defined by GraphQL over HTTP.
type request struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// response is the standard result envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorItem     `json:"errors,omitempty"`
}

// cacheKey identifies a query result. Variables are hashed from their JSON
// encoding, which sorts map keys.
func cacheKey(doc Document, vars map[string]any) (string, error) {
	key := "query:" + doc.Name
	if len(vars) == 0 {
		return key, nil
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return key + ":" + hex.EncodeToString(sum[:8]), nil
}
