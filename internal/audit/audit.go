// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package audit provides structured audit logging for changes to the
// organization settings and the service configuration. It follows the
// WHO/WHAT/WHEN pattern.
package audit

import (
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/orgconsole/internal/config"
	"github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/settings"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventSettingsUpdate   EventType = "settings.update"
	EventSettingsRejected EventType = "settings.rejected"
	EventConfigReload     EventType = "config.reload"
)

// Event represents a structured audit event.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	Actor      string            `json:"actor"`    // WHO: client IP or "system"
	Action     string            `json:"action"`   // WHAT: human-readable action description
	Resource   string            `json:"resource"` // affected resource
	Result     string            `json:"result"`   // success, failure, denied
	RemoteAddr string            `json:"remote_addr"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id"`
	Details    map[string]string `json:"details,omitempty"`
}

// Logger provides audit logging functionality.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates an audit logger with a dedicated "audit" component.
func NewLogger() *Logger {
	return newLogger(log.WithComponent("audit"))
}

func newLogger(base zerolog.Logger) *Logger {
	return &Logger{logger: base.With().Str("log_type", "audit").Logger()}
}

// Log writes an audit event.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)

	if event.RemoteAddr != "" {
		e.Str("remote_addr", event.RemoteAddr)
	}
	if event.UserAgent != "" {
		e.Str("user_agent", event.UserAgent)
	}
	if event.RequestID != "" {
		e.Str("request_id", event.RequestID)
	}
	for key, value := range event.Details {
		e.Str(key, value)
	}
	e.Msg("audit event")
}

// LogRequest fills the request metadata of event from r and logs it.
func (l *Logger) LogRequest(r *http.Request, event Event) {
	if r != nil {
		addr := clientIP(r)
		if event.Actor == "" {
			event.Actor = addr
		}
		if event.RemoteAddr == "" {
			event.RemoteAddr = addr
		}
		if event.UserAgent == "" {
			event.UserAgent = r.UserAgent()
		}
		if event.RequestID == "" {
			event.RequestID = log.RequestIDFromContext(r.Context())
		}
	}
	l.Log(event)
}

// SettingsUpdated logs a stored settings change. Only the names of the
// changed fields are recorded.
func (l *Logger) SettingsUpdated(r *http.Request, before, after settings.Record) {
	l.LogRequest(r, Event{
		Type:     EventSettingsUpdate,
		Action:   "updated general settings",
		Resource: "settings/general",
		Result:   "success",
		Details:  map[string]string{"changed": strings.Join(ChangedFields(before, after), ",")},
	})
}

// SettingsRejected logs an update the API refused.
func (l *Logger) SettingsRejected(r *http.Request, reason string) {
	l.LogRequest(r, Event{
		Type:     EventSettingsRejected,
		Action:   "rejected general settings update",
		Resource: "settings/general",
		Result:   "denied",
		Details:  map[string]string{"reason": reason},
	})
}

// ConfigReloaded is a config reload listener.
func (l *Logger) ConfigReloaded(old, updated config.AppConfig) {
	details := map[string]string{}
	if old.LogLevel != updated.LogLevel {
		details["log_level"] = old.LogLevel + "->" + updated.LogLevel
	}
	l.Log(Event{
		Type:     EventConfigReload,
		Actor:    "system",
		Action:   "reloaded configuration",
		Resource: "config",
		Result:   "success",
		Details:  details,
	})
}

// ChangedFields lists the wire names of the fields that differ, sorted.
func ChangedFields(before, after settings.Record) []string {
	var changed []string
	if before.DisplayName != after.DisplayName {
		changed = append(changed, settings.FieldDisplayName)
	}
	if before.Email != after.Email {
		changed = append(changed, settings.FieldEmail)
	}
	if before.ErrorReportingConsent != after.ErrorReportingConsent {
		changed = append(changed, settings.FieldErrorReportingConsent)
	}
	sort.Strings(changed)
	return changed
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
