// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ManuGH/orgconsole/internal/control/http/problem"
	"github.com/ManuGH/orgconsole/internal/graphql"
	"github.com/ManuGH/orgconsole/internal/notify"
	"github.com/ManuGH/orgconsole/internal/page"
	"github.com/ManuGH/orgconsole/internal/settings"
)

const maxJSONBody = 64 << 10

// SubmitResponse reports a dispatched write. Outcome is set when the write
// resolved inside the render budget.
type SubmitResponse struct {
	Seq     uint64         `json:"seq"`
	Outcome *WriteOutcome  `json:"outcome,omitempty"`
	View    page.ViewModel `json:"view"`
}

// WriteOutcome is the resolved result of one write.
type WriteOutcome struct {
	Data  *settings.Record `json:"data,omitempty"`
	Error string           `json:"error,omitempty"`
}

func (s *Server) handleAPIMount(w http.ResponseWriter, r *http.Request) {
	v := s.mount(r.Context())
	w.Header().Set("Location", PathSettingsAPI+"/"+v.ID())
	writeJSON(w, http.StatusCreated, v.Snapshot())
}

func (s *Server) handleAPIShow(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var in settings.UpdateInput
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "settings/invalid_body", "Bad Request", "INVALID_BODY", err.Error(), nil)
		return
	}

	ticket, fieldErrs, err := v.Submit(r.Context(), in)
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}
	if fieldErrs != nil {
		problem.Write(w, r, http.StatusUnprocessableEntity, "settings/validation", "Unprocessable Entity", "VALIDATION_FAILED",
			"One or more fields are invalid.", map[string]any{"fieldErrors": fieldErrs})
		return
	}

	resp := SubmitResponse{Seq: ticket.Seq()}
	if res, resolved := s.awaitWrite(r.Context(), ticket); resolved {
		out := &WriteOutcome{Data: res.Data}
		if res.Err != nil {
			out.Error = graphql.ExtractErrorMessage(res.Err)
			if out.Error == "" {
				out.Error = notify.TitleUpdateFailed
			}
		}
		resp.Outcome = out
	}
	resp.View = v.Snapshot()
	writeJSON(w, http.StatusAccepted, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
