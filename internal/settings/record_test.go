// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	in := Record{
		DisplayName:           "  Cafe\u0301 Inc ",
		Email:                 " Admin@Acme.COM ",
		ErrorReportingConsent: true,
	}

	got := Normalize(in)

	assert.Equal(t, "Caf\u00e9 Inc", got.DisplayName, "display name must be trimmed and NFC-composed")
	assert.Equal(t, "admin@acme.com", got.Email)
	assert.True(t, got.ErrorReportingConsent)
}

func TestInputRoundTrip(t *testing.T) {
	r := Record{DisplayName: "Acme", Email: "a@acme.com", ErrorReportingConsent: true}
	assert.Equal(t, r, InputFrom(r).Record())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    UpdateInput
		field string
		msg   string
	}{
		{"valid", UpdateInput{DisplayName: "Acme", Email: "a@acme.com"}, "", ""},
		{"missing name", UpdateInput{DisplayName: "  ", Email: "a@acme.com"}, FieldDisplayName, "Display name is required"},
		{"missing email", UpdateInput{DisplayName: "Acme"}, FieldEmail, "Email is required"},
		{"bad email", UpdateInput{DisplayName: "Acme", Email: "not-an-email"}, FieldEmail, "Email invalid"},
		{"named address", UpdateInput{DisplayName: "Acme", Email: "Acme <a@acme.com>"}, FieldEmail, "Email invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.in)
			if tt.field == "" {
				assert.True(t, errs.Empty(), "unexpected errors: %v", errs)
				return
			}
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestValidate_LongName(t *testing.T) {
	long := make([]rune, MaxDisplayNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	errs := Validate(UpdateInput{DisplayName: string(long), Email: "a@acme.com"})
	assert.Equal(t, "Display name is too long", errs[FieldDisplayName])
}
