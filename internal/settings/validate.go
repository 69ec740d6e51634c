// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package settings

import (
	"net/mail"
	"strings"
)

// Field names as they appear on the wire and in forms.
const (
	FieldDisplayName           = "displayName"
	FieldEmail                 = "email"
	FieldErrorReportingConsent = "errorReportingConsent"
)

// MaxDisplayNameLength bounds the display name in runes.
const MaxDisplayNameLength = 128

// FieldErrors maps a field name to a human-readable problem.
type FieldErrors map[string]string

// Empty reports whether no field has a problem.
func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// Validate checks the input the way both the form and the API do.
func Validate(in UpdateInput) FieldErrors {
	errs := FieldErrors{}

	name := strings.TrimSpace(in.DisplayName)
	switch {
	case name == "":
		errs[FieldDisplayName] = "Display name is required"
	case len([]rune(name)) > MaxDisplayNameLength:
		errs[FieldDisplayName] = "Display name is too long"
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		errs[FieldEmail] = "Email is required"
	} else if !ValidEmail(email) {
		errs[FieldEmail] = "Email invalid"
	}

	return errs
}

// ValidEmail reports whether s is a bare address such as "a@acme.com".
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Acme <a@acme.com>".
	return addr.Name == "" && addr.Address == s
}
