// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// refreshSeconds is how often a browser re-polls a view that is still working.
const refreshSeconds = 1

// Renderer draws view models as HTML.
type Renderer struct {
	tmpl *template.Template
}

type layoutData struct {
	Model   ViewModel
	Refresh int
	Body    template.HTML
}

func parseTemplates() (*template.Template, error) {
	return template.New("page").ParseFS(templateFS, "templates/*.html")
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Render writes the full page for vm. Output is buffered, so nothing is
// written to w when rendering fails.
func (r *Renderer) Render(w io.Writer, vm ViewModel) error {
	var body bytes.Buffer
	switch vm.State {
	case StateLoading:
		if err := r.tmpl.ExecuteTemplate(&body, "skeleton", vm); err != nil {
			return fmt.Errorf("render skeleton: %w", err)
		}
	case StateReadError:
		if err := r.tmpl.ExecuteTemplate(&body, "alert", vm); err != nil {
			return fmt.Errorf("render alert: %w", err)
		}
	default:
		if err := r.panels(&body, vm); err != nil {
			return err
		}
	}

	data := layoutData{Model: vm, Body: template.HTML(body.String())} // #nosec G203 -- produced by our own templates
	if vm.State == StateLoading || vm.Submitting {
		data.Refresh = refreshSeconds
	}

	var out bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&out, "layout", data); err != nil {
		return fmt.Errorf("render layout: %w", err)
	}
	_, err := out.WriteTo(w)
	return err
}

// panels renders the about and settings panels inside an error boundary: a
// failure is logged and replaced by the fallback block.
func (r *Renderer) panels(w *bytes.Buffer, vm ViewModel) error {
	var buf bytes.Buffer
	err := r.execute(&buf, "panels", vm)
	if err == nil {
		_, _ = buf.WriteTo(w)
		return nil
	}

	metrics.RecordBoundaryRecovery()
	logger := xglog.WithComponent("page")
	logger.Error().Err(err).
		Str(xglog.FieldViewID, vm.ViewID).
		Str(xglog.FieldEvent, "render.boundary_recovered").
		Msg("settings panels failed to render")

	if err := r.tmpl.ExecuteTemplate(w, "fallback", vm); err != nil {
		return fmt.Errorf("render fallback: %w", err)
	}
	return nil
}

func (r *Renderer) execute(w io.Writer, name string, data any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic rendering %s: %v", name, rec)
		}
	}()
	return r.tmpl.ExecuteTemplate(w, name, data)
}
