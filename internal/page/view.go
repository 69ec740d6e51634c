// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package page implements the general settings page: a mounted view owns the
// settings read, the settings write and the notifications derived from them.
package page

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/orgconsole/internal/binding"
	"github.com/ManuGH/orgconsole/internal/form"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/metrics"
	"github.com/ManuGH/orgconsole/internal/notify"
	"github.com/ManuGH/orgconsole/internal/settings"
	"github.com/ManuGH/orgconsole/internal/version"
)

var (
	// ErrNotReady is returned when a submission arrives before the settings loaded.
	ErrNotReady = errors.New("page: settings not loaded")
	// ErrViewClosed is returned when a submission targets a closed view.
	ErrViewClosed = errors.New("page: view closed")
)

// SettingsService is the organization API as seen by the page.
type SettingsService interface {
	GetGeneralSettings(ctx context.Context) (settings.Record, error)
	UpdateGeneralSettings(ctx context.Context, in settings.UpdateInput) (settings.Record, error)
}

// Deps are the collaborators of a view.
type Deps struct {
	Service      SettingsService
	SupportEmail string
	ProductName  string
}

// View is one mounted settings page.
type View struct {
	id     string
	deps   Deps
	logger zerolog.Logger

	read      *binding.Query[settings.Record]
	write     *binding.Mutation[settings.UpdateInput, settings.Record]
	snackbars *notify.Queue
	rules     *notify.Rules[settings.Record]

	mu         sync.Mutex
	dispatched uint64
	applied    uint64
	draft      *form.Values
	draftErrs  settings.FieldErrors
	draftSeq   uint64 // write that carries draft, 0 when it was not dispatched
	closed     bool
}

// Mount creates a view and issues the settings read. The read outlives ctx's
// cancellation but keeps its values.
func Mount(ctx context.Context, deps Deps) *View {
	v := newView(uuid.NewString(), deps)
	v.read.Start(xglog.ContextWithViewID(context.WithoutCancel(ctx), v.id))

	metrics.RecordViewMounted()
	v.logger.Info().Str(xglog.FieldEvent, "view.mounted").Msg("settings view mounted")
	return v
}

func newView(id string, deps Deps) *View {
	v := &View{
		id:        id,
		deps:      deps,
		logger:    xglog.WithComponent("page").With().Str(xglog.FieldViewID, id).Logger(),
		snackbars: &notify.Queue{},
	}
	v.rules = notify.NewRules[settings.Record](v.snackbars)
	v.read = binding.NewQuery(deps.Service.GetGeneralSettings)
	v.write = binding.NewMutation(deps.Service.UpdateGeneralSettings)
	v.write.Subscribe(v.apply)
	return v
}

// ID returns the opaque view identifier.
func (v *View) ID() string { return v.id }

// AwaitRead blocks until the settings read resolved or ctx is done.
func (v *View) AwaitRead(ctx context.Context) error {
	_, err := v.read.Wait(ctx)
	return err
}

// Submit validates values and, when they are valid, dispatches them unchanged
// as a settings update. Field errors are returned without dispatching.
func (v *View) Submit(ctx context.Context, values form.Values) (*binding.Ticket[settings.Record], settings.FieldErrors, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, nil, ErrViewClosed
	}
	if v.read.State().Data == nil {
		v.mu.Unlock()
		return nil, nil, ErrNotReady
	}

	draft := values
	v.draft = &draft
	if errs := form.Validate(values); !errs.Empty() {
		v.draftErrs = errs
		v.draftSeq = 0
		v.mu.Unlock()
		metrics.RecordSubmission("invalid")
		return nil, errs, nil
	}
	v.draftErrs = nil

	ticket := v.write.Mutate(xglog.ContextWithViewID(context.WithoutCancel(ctx), v.id), values)
	v.dispatched = ticket.Seq()
	v.draftSeq = ticket.Seq()
	v.mu.Unlock()

	metrics.RecordSubmission("dispatched")
	v.logger.Debug().Str(xglog.FieldEvent, "settings.update_dispatched").Uint64("seq", ticket.Seq()).Msg("settings update dispatched")
	return ticket, nil, nil
}

// apply folds a resolved write into the view. Each outcome is applied once.
func (v *View) apply(res binding.WriteResult[settings.Record]) {
	if res.Idle() {
		return
	}

	v.mu.Lock()
	if v.closed || res.Seq <= v.applied {
		v.mu.Unlock()
		return
	}
	v.applied = res.Seq
	if res.Data != nil {
		v.read.Set(*res.Data)
		// Keep anything the user entered after this write was sent.
		if v.draftSeq == res.Seq {
			v.draft = nil
			v.draftErrs = nil
			v.draftSeq = 0
		}
	}
	v.mu.Unlock()

	if res.Err != nil {
		v.logger.Warn().Err(res.Err).Str(xglog.FieldEvent, "settings.update_failed").Msg("settings update failed")
	} else {
		v.logger.Info().Str(xglog.FieldEvent, "settings.updated").Msg("settings updated")
	}
	v.rules.Observe(res)
}

// Snapshot evaluates the render selector and drains pending snackbars.
func (v *View) Snapshot() ViewModel {
	v.apply(v.write.State())

	read := v.read.State()
	vm := ViewModel{
		ViewID:       v.id,
		ProductName:  v.deps.ProductName,
		SupportEmail: v.deps.SupportEmail,
	}

	v.mu.Lock()
	vm.Submitting = v.dispatched > v.applied && !v.closed
	switch {
	case read.Loading:
		vm.State = StateLoading
	case read.Err != nil:
		vm.State = StateReadError
		vm.Alert = readAlert(read.Err, v.deps.SupportEmail)
	default:
		vm.State = StateReady
		vm.About = &About{Plan: PlanCommunity, Version: version.Display()}
		f := form.New(settings.InputFrom(*read.Data))
		if v.draft != nil {
			f = f.WithDraft(*v.draft, v.draftErrs)
		}
		vm.Form = &f
	}
	v.mu.Unlock()

	vm.Snackbars = v.snackbars.Drain()
	metrics.RecordViewRender(string(vm.State))
	return vm
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Close tears down both bindings. Outcomes arriving later are dropped.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.read.Close()
	v.write.Close()
	v.logger.Debug().Str(xglog.FieldEvent, "view.closed").Msg("settings view closed")
}
