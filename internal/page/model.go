// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package page

import (
	"fmt"

	"github.com/ManuGH/orgconsole/internal/form"
	"github.com/ManuGH/orgconsole/internal/graphql"
	"github.com/ManuGH/orgconsole/internal/notify"
)

// State is the render selector outcome for a view.
type State string

const (
	StateLoading   State = "LOADING"
	StateReadError State = "READ_ERROR"
	StateReady     State = "READY"
)

// PlanCommunity is the only plan the console knows about.
const PlanCommunity = "Community"

// TitleReadFailed heads the alert shown when the settings cannot be loaded.
const TitleReadFailed = "Failed to query company information"

// Alert is a blocking error shown instead of the panels.
type Alert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// About is the read-only panel.
type About struct {
	Plan    string `json:"plan"`
	Version string `json:"version"`
}

// ViewModel is everything needed to draw one view at one point in time.
type ViewModel struct {
	ViewID       string                   `json:"viewId"`
	State        State                    `json:"state"`
	ProductName  string                   `json:"productName"`
	SupportEmail string                   `json:"supportEmail"`
	Submitting   bool                     `json:"submitting"`
	Alert        *Alert                   `json:"alert,omitempty"`
	About        *About                   `json:"about,omitempty"`
	Form         *form.CompanyInformation `json:"form,omitempty"`
	Snackbars    []notify.Snackbar        `json:"snackbars,omitempty"`
}

// readAlert builds the alert for a failed read. The server message wins over
// the generic support hint.
func readAlert(err error, supportEmail string) *Alert {
	desc := graphql.ExtractErrorMessage(err)
	if desc == "" {
		desc = fmt.Sprintf("Sorry, something went wrong, please reach out to %s if this problem persists", supportEmail)
	}
	return &Alert{Title: TitleReadFailed, Description: desc}
}
