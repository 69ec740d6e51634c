// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package form implements the company information form: it decodes
// submissions, validates them and carries what the template needs to redraw
// the form with the user's values and field errors.
package form

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuGH/orgconsole/internal/settings"
)

// Values are the submitted fields; they match the write input exactly.
type Values = settings.UpdateInput

// CompanyInformation is the form state handed to templates.
type CompanyInformation struct {
	Initial Values               `json:"initialValues"`
	Values  Values               `json:"values"`
	Errors  settings.FieldErrors `json:"errors,omitempty"`
}

// New returns a pristine form showing initial.
func New(initial Values) CompanyInformation {
	return CompanyInformation{Initial: initial, Values: initial}
}

// WithDraft returns the form showing values the user entered instead of the initial ones.
func (f CompanyInformation) WithDraft(values Values, errs settings.FieldErrors) CompanyInformation {
	f.Values = values
	f.Errors = errs
	return f
}

// Dirty reports whether the displayed values differ from the initial ones.
func (f CompanyInformation) Dirty() bool {
	return f.Values != f.Initial
}

// Error returns the message for field, if any.
func (f CompanyInformation) Error(field string) string {
	return f.Errors[field]
}

// Parse decodes a urlencoded submission. The consent checkbox is true only
// when present with a truthy value; browsers omit unchecked boxes.
func Parse(form url.Values) Values {
	return Values{
		DisplayName:           form.Get(settings.FieldDisplayName),
		Email:                 form.Get(settings.FieldEmail),
		ErrorReportingConsent: checkbox(form.Get(settings.FieldErrorReportingConsent)),
	}
}

func checkbox(v string) bool {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "on") {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Validate checks values before they may be submitted.
func Validate(v Values) settings.FieldErrors {
	return settings.Validate(v)
}
