// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package orgapi binds the general settings operations of the organization API.
package orgapi

import (
	"context"
	"fmt"

	"github.com/ManuGH/orgconsole/internal/graphql"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/settings"
)

// Operation names as registered with the organization API.
const (
	OpGetGeneralSettings    = "GetGeneralSettings"
	OpUpdateGeneralSettings = "UpdateGeneralSettings"
)

var (
	// GetGeneralSettings reads the settings record. It takes no variables.
	GetGeneralSettings = graphql.Query(OpGetGeneralSettings, `query GetGeneralSettings {
  generalSettings {
    displayName
    email
    errorReportingConsent
  }
}`)

	// UpdateGeneralSettings replaces the settings record and returns what was stored.
	UpdateGeneralSettings = graphql.Mutation(OpUpdateGeneralSettings, `mutation UpdateGeneralSettings($input: UpdateGeneralSettingsInput!) {
  updateGeneralSettings(input: $input) {
    displayName
    email
    errorReportingConsent
  }
}`)
)

type queryData struct {
	GeneralSettings *settings.Record `json:"generalSettings"`
}

type mutationData struct {
	UpdateGeneralSettings *settings.Record `json:"updateGeneralSettings"`
}

// Transport is the subset of the GraphQL client the service needs.
type Transport interface {
	Query(ctx context.Context, doc graphql.Document, vars map[string]any, out any) error
	Mutate(ctx context.Context, doc graphql.Document, vars map[string]any, out any) error
	WriteQuery(doc graphql.Document, vars map[string]any, data any) error
}

// Service exposes the two settings operations.
type Service struct {
	transport Transport
}

// NewService wraps a transport.
func NewService(t Transport) *Service {
	return &Service{transport: t}
}

// GetGeneralSettings fetches the current settings record.
func (s *Service) GetGeneralSettings(ctx context.Context) (settings.Record, error) {
	var data queryData
	if err := s.transport.Query(ctx, GetGeneralSettings, nil, &data); err != nil {
		return settings.Record{}, err
	}
	if data.GeneralSettings == nil {
		return settings.Record{}, fmt.Errorf("orgapi: %s: %w", OpGetGeneralSettings, graphql.ErrNoData)
	}
	return *data.GeneralSettings, nil
}

// UpdateGeneralSettings submits the input unchanged and returns the record
// the API confirmed, which may differ when the API normalizes values. The
// confirmed record is published to the query cache.
func (s *Service) UpdateGeneralSettings(ctx context.Context, in settings.UpdateInput) (settings.Record, error) {
	vars := map[string]any{"input": in}

	var data mutationData
	if err := s.transport.Mutate(ctx, UpdateGeneralSettings, vars, &data); err != nil {
		return settings.Record{}, err
	}
	if data.UpdateGeneralSettings == nil {
		return settings.Record{}, fmt.Errorf("orgapi: %s: %w", OpUpdateGeneralSettings, graphql.ErrNoData)
	}
	confirmed := *data.UpdateGeneralSettings

	if err := s.transport.WriteQuery(GetGeneralSettings, nil, queryData{GeneralSettings: &confirmed}); err != nil {
		logger := xglog.WithComponentFromContext(ctx, "orgapi")
		logger.Warn().Err(err).Str(xglog.FieldOperation, OpGetGeneralSettings).Msg("failed to publish confirmed settings to query cache")
	}
	return confirmed, nil
}
