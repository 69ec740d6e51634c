// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package orgserver serves the reference organization API: the persisted
// general settings operations over GraphQL-over-HTTP.
package orgserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ManuGH/orgconsole/internal/audit"
	"github.com/ManuGH/orgconsole/internal/control/middleware"
	"github.com/ManuGH/orgconsole/internal/graphql"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/orgapi"
	"github.com/ManuGH/orgconsole/internal/orgstore"
	"github.com/ManuGH/orgconsole/internal/settings"
)

const maxRequestBody = 1 << 20

// Extension codes attached to GraphQL errors.
const (
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeUnknownOperation = "UNKNOWN_OPERATION"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Handler answers POST /graphql for the persisted operations.
type Handler struct {
	store  orgstore.Store
	audit  *audit.Logger
	logger zerolog.Logger
}

// NewHandler serves the record held by store.
func NewHandler(store orgstore.Store) *Handler {
	return &Handler{
		store:  store,
		audit:  audit.NewLogger(),
		logger: xglog.WithComponent("orgserver"),
	}
}

// Router mounts the handler at /graphql behind the middleware stack.
func (h *Handler) Router(cfg middleware.StackConfig) http.Handler {
	cfg.DisableCSRF = true
	r := middleware.NewRouter(cfg)
	r.Post("/graphql", h.ServeHTTP)
	return r
}

type request struct {
	OperationName string                     `json:"operationName"`
	Query         string                     `json:"query"`
	Variables     map[string]json.RawMessage `json:"variables"`
}

type response struct {
	Data   any                 `json:"data,omitempty"`
	Errors []graphql.ErrorItem `json:"errors,omitempty"`
}

// inputVariable keeps absent fields distinguishable from zero values.
type inputVariable struct {
	DisplayName           *string `json:"displayName"`
	Email                 *string `json:"email"`
	ErrorReportingConsent *bool   `json:"errorReportingConsent"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "GraphQL requests must use POST"})
		return
	}

	var req request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("Malformed request body: %v", err)})
		return
	}
	if req.OperationName == "" {
		req.OperationName = r.Header.Get(graphql.HeaderOperationName)
	}

	ctx := r.Context()
	logger := xglog.WithContext(ctx, h.logger).With().Str(xglog.FieldOperation, req.OperationName).Logger()

	var res response
	switch req.OperationName {
	case orgapi.OpGetGeneralSettings:
		res = h.getGeneralSettings(ctx)
	case orgapi.OpUpdateGeneralSettings:
		res = h.updateGeneralSettings(r, req.Variables)
	default:
		res = errorResponse(CodeUnknownOperation, fmt.Sprintf("Unknown operation %q", req.OperationName), "")
	}

	if len(res.Errors) > 0 {
		logger.Info().
			Str(xglog.FieldEvent, "graphql.rejected").
			Str("message", res.Errors[0].Message).
			Msg("operation returned errors")
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getGeneralSettings(ctx context.Context) response {
	rec, err := h.store.Get(ctx)
	if err != nil {
		return h.internalError(ctx, "read settings", err)
	}
	return response{Data: map[string]any{"generalSettings": rec}}
}

func (h *Handler) updateGeneralSettings(r *http.Request, vars map[string]json.RawMessage) response {
	ctx := r.Context()
	in, errs := decodeInput(vars)
	if len(errs) > 0 {
		h.audit.SettingsRejected(r, errs[0].Message)
		return response{Errors: errs}
	}

	if fieldErrs := settings.Validate(in); !fieldErrs.Empty() {
		items := fieldErrorItems(fieldErrs)
		h.audit.SettingsRejected(r, items[0].Message)
		return response{Errors: items}
	}

	before, err := h.store.Get(ctx)
	if err != nil {
		return h.internalError(ctx, "read settings", err)
	}
	rec := settings.Normalize(in.Record())
	if err := h.store.Put(ctx, rec); err != nil {
		return h.internalError(ctx, "write settings", err)
	}
	stored, err := h.store.Get(ctx)
	if err != nil {
		return h.internalError(ctx, "read settings", err)
	}

	h.audit.SettingsUpdated(r, before, stored)
	logger := xglog.WithContext(ctx, h.logger)
	logger.Info().
		Str(xglog.FieldEvent, "settings.updated").
		Msg("general settings updated")
	return response{Data: map[string]any{"updateGeneralSettings": stored}}
}

func decodeInput(vars map[string]json.RawMessage) (settings.UpdateInput, []graphql.ErrorItem) {
	raw, ok := vars["input"]
	if !ok || string(raw) == "null" {
		return settings.UpdateInput{}, errorResponse(CodeBadUserInput, `Variable "$input" of required type "UpdateGeneralSettingsInput!" was not provided.`, "").Errors
	}

	var v inputVariable
	if err := json.Unmarshal(raw, &v); err != nil {
		return settings.UpdateInput{}, errorResponse(CodeBadUserInput, fmt.Sprintf(`Variable "$input" got invalid value: %v`, err), "").Errors
	}

	var errs []graphql.ErrorItem
	missing := func(field string) {
		errs = append(errs, errorResponse(CodeBadUserInput,
			fmt.Sprintf(`Field %q of required type was not provided.`, field), field).Errors...)
	}
	if v.DisplayName == nil {
		missing(settings.FieldDisplayName)
	}
	if v.Email == nil {
		missing(settings.FieldEmail)
	}
	if v.ErrorReportingConsent == nil {
		missing(settings.FieldErrorReportingConsent)
	}
	if len(errs) > 0 {
		return settings.UpdateInput{}, errs
	}

	return settings.UpdateInput{
		DisplayName:           *v.DisplayName,
		Email:                 *v.Email,
		ErrorReportingConsent: *v.ErrorReportingConsent,
	}, nil
}

// fieldErrorItems orders messages by field name so responses are stable.
func fieldErrorItems(fe settings.FieldErrors) []graphql.ErrorItem {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	items := make([]graphql.ErrorItem, 0, len(fields))
	for _, f := range fields {
		items = append(items, errorResponse(CodeBadUserInput, fe[f], f).Errors...)
	}
	return items
}

func (h *Handler) internalError(ctx context.Context, action string, err error) response {
	logger := xglog.WithContext(ctx, h.logger)
	event := logger.Error().Err(err).Str(xglog.FieldEvent, "store.failed")
	if errors.Is(err, orgstore.ErrClosed) {
		event = event.Bool("closed", true)
	}
	event.Msgf("failed to %s", action)
	return errorResponse(CodeInternal, "Internal server error", "")
}

func errorResponse(code, message, field string) response {
	ext := map[string]any{"code": code}
	if field != "" {
		ext["field"] = field
	}
	return response{Errors: []graphql.ErrorItem{{Message: message, Extensions: ext}}}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
