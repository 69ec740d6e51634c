// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package settings defines the organization settings record shared by the
// console and the organization API.
package settings

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is the organization's general settings. The organization API owns it;
// clients read it and replace it as a whole.
type Record struct {
	DisplayName           string `json:"displayName"`
	Email                 string `json:"email"`
	ErrorReportingConsent bool   `json:"errorReportingConsent"`
}

// UpdateInput is the full replacement submitted by UpdateGeneralSettings.
// All three fields are required.
type UpdateInput struct {
	DisplayName           string `json:"displayName"`
	Email                 string `json:"email"`
	ErrorReportingConsent bool   `json:"errorReportingConsent"`
}

// Record converts the input into the record it asks to store.
func (in UpdateInput) Record() Record {
	return Record(in)
}

// InputFrom builds an update input that would store r unchanged.
func InputFrom(r Record) UpdateInput {
	return UpdateInput(r)
}

// Normalize returns the canonical form the organization API persists:
// surrounding whitespace is trimmed, the display name is NFC-normalized and
// the email is lower-cased.
func Normalize(r Record) Record {
	return Record{
		DisplayName:           norm.NFC.String(strings.TrimSpace(r.DisplayName)),
		Email:                 strings.ToLower(strings.TrimSpace(r.Email)),
		ErrorReportingConsent: r.ErrorReportingConsent,
	}
}
