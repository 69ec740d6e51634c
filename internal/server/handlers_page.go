// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/orgconsole/internal/binding"
	"github.com/ManuGH/orgconsole/internal/control/http/problem"
	"github.com/ManuGH/orgconsole/internal/form"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/page"
	"github.com/ManuGH/orgconsole/internal/settings"
)

// handleMount mounts a fresh view and renders it once the read settled or
// the budget ran out.
func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	v := s.mount(r.Context())
	s.render(w, r, http.StatusOK, v.Snapshot())
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, v.Snapshot())
}

// handleSubmit follows POST-redirect-GET. Invalid input re-renders the form
// with 422 and never reaches the API.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "settings/invalid_form", "Bad Request", "INVALID_FORM", err.Error(), nil)
		return
	}

	ticket, fieldErrs, err := v.Submit(r.Context(), form.Parse(r.PostForm))
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}
	if fieldErrs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, v.Snapshot())
		return
	}

	s.awaitWrite(r.Context(), ticket)
	http.Redirect(w, r, viewPath(v.ID()), http.StatusSeeOther)
}

func (s *Server) mount(ctx context.Context) *page.View {
	v := page.Mount(ctx, s.deps)
	s.registry.Add(v)

	waitCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()
	_ = v.AwaitRead(waitCtx)
	return v
}

// awaitWrite gives the write the render budget to resolve, so the redirect
// target usually shows the outcome instead of the submitting state.
func (s *Server) awaitWrite(ctx context.Context, ticket *binding.Ticket[settings.Record]) (binding.WriteResult[settings.Record], bool) {
	waitCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()
	res, err := ticket.Wait(waitCtx)
	return res, err == nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*page.View, bool) {
	id := chi.URLParam(r, "viewID")
	v, ok := s.registry.Get(id)
	if !ok {
		problem.Write(w, r, http.StatusNotFound, "settings/view_not_found", "Not Found", "VIEW_NOT_FOUND",
			"The settings view expired or never existed. Reload the settings page.", nil)
		return nil, false
	}
	return v, true
}

func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, page.ErrNotReady):
		problem.Write(w, r, http.StatusConflict, "settings/not_ready", "Conflict", "SETTINGS_NOT_READY",
			"The current settings have not been loaded yet.", nil)
	case errors.Is(err, page.ErrViewClosed):
		problem.Write(w, r, http.StatusGone, "settings/view_closed", "Gone", "VIEW_CLOSED",
			"The settings view was closed. Reload the settings page.", nil)
	default:
		s.logger.Error().Err(err).Str(xglog.FieldEvent, "settings.submit_failed").Msg("submit failed")
		problem.Write(w, r, http.StatusInternalServerError, "system/internal", "Internal Server Error", "INTERNAL_ERROR", "", nil)
	}
}

// render buffers the page so a failure can still become a problem response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, vm page.ViewModel) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, vm); err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "server")
		logger.Error().Err(err).
			Str(xglog.FieldViewID, vm.ViewID).
			Str(xglog.FieldEvent, "render.failed").
			Msg("failed to render settings page")
		problem.Write(w, r, http.StatusInternalServerError, "system/render", "Internal Server Error", "RENDER_FAILED", "", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
