// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package page

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/orgconsole/internal/form"
	"github.com/ManuGH/orgconsole/internal/graphql"
	"github.com/ManuGH/orgconsole/internal/notify"
	"github.com/ManuGH/orgconsole/internal/settings"
	"github.com/ManuGH/orgconsole/internal/version"
)

var acme = settings.Record{DisplayName: "Acme", Email: "a@acme.com", ErrorReportingConsent: true}

type fakeService struct {
	get    func(context.Context) (settings.Record, error)
	update func(context.Context, settings.UpdateInput) (settings.Record, error)

	mu     sync.Mutex
	reads  int
	inputs []settings.UpdateInput
}

func (f *fakeService) GetGeneralSettings(ctx context.Context) (settings.Record, error) {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()
	if f.get == nil {
		return acme, nil
	}
	return f.get(ctx)
}

func (f *fakeService) UpdateGeneralSettings(ctx context.Context, in settings.UpdateInput) (settings.Record, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	if f.update == nil {
		return settings.Normalize(in.Record()), nil
	}
	return f.update(ctx, in)
}

func (f *fakeService) submitted() []settings.UpdateInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]settings.UpdateInput(nil), f.inputs...)
}

func testDeps(svc SettingsService) Deps {
	return Deps{Service: svc, SupportEmail: "support@example.com", ProductName: "Panther"}
}

func mountReady(t *testing.T, svc *fakeService) *View {
	t.Helper()
	v := Mount(context.Background(), testDeps(svc))
	t.Cleanup(v.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, v.AwaitRead(ctx))
	return v
}

func TestView_LoadingUntilReadResolves(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{get: func(context.Context) (settings.Record, error) {
		<-release
		return acme, nil
	}}
	v := Mount(context.Background(), testDeps(svc))
	defer v.Close()

	vm := v.Snapshot()
	assert.Equal(t, StateLoading, vm.State)
	assert.Nil(t, vm.Form)
	assert.Nil(t, vm.About)
	assert.Nil(t, vm.Alert)

	close(release)
	require.NoError(t, v.AwaitRead(context.Background()))
	assert.Equal(t, StateReady, v.Snapshot().State)
}

func TestView_ReadIssuedOnce(t *testing.T) {
	svc := &fakeService{}
	v := mountReady(t, svc)

	for i := 0; i < 3; i++ {
		v.Snapshot()
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, 1, svc.reads)
}

func TestView_ReadyModel(t *testing.T) {
	v := mountReady(t, &fakeService{})

	got := v.Snapshot()
	want := ViewModel{
		ViewID:       v.ID(),
		State:        StateReady,
		ProductName:  "Panther",
		SupportEmail: "support@example.com",
		About:        &About{Plan: "Community", Version: "N/A"},
		Form: &form.CompanyInformation{
			Initial: settings.InputFrom(acme),
			Values:  settings.InputFrom(acme),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("view model mismatch (-want +got):\n%s", diff)
	}
}

func TestView_ReadyShowsBuildVersion(t *testing.T) {
	old := version.Version
	version.Version = "3.1.0"
	t.Cleanup(func() { version.Version = old })

	v := mountReady(t, &fakeService{})
	vm := v.Snapshot()
	require.NotNil(t, vm.About)
	assert.Equal(t, "3.1.0", vm.About.Version)
}

func TestView_ReadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "graphql message",
			err:  &graphql.Error{GraphQLErrors: []graphql.ErrorItem{{Message: "Organization suspended"}}},
			want: "Organization suspended",
		},
		{
			name: "network message",
			err:  &graphql.Error{NetworkError: &graphql.NetworkError{StatusCode: 503, Message: "maintenance"}},
			want: "maintenance",
		},
		{
			name: "no message",
			err:  errors.New("dial tcp: connection refused"),
			want: "Sorry, something went wrong, please reach out to support@example.com if this problem persists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{get: func(context.Context) (settings.Record, error) {
				return settings.Record{}, tt.err
			}}
			v := mountReady(t, svc)

			vm := v.Snapshot()
			assert.Equal(t, StateReadError, vm.State)
			require.NotNil(t, vm.Alert)
			assert.Equal(t, "Failed to query company information", vm.Alert.Title)
			assert.Equal(t, tt.want, vm.Alert.Description)
			assert.Nil(t, vm.Form)
			assert.Nil(t, vm.About)
		})
	}
}

func TestView_SubmitInvalidDoesNotDispatch(t *testing.T) {
	svc := &fakeService{}
	v := mountReady(t, svc)

	values := form.Values{DisplayName: "Acme", Email: "nope"}
	ticket, errs, err := v.Submit(context.Background(), values)
	require.NoError(t, err)
	assert.Nil(t, ticket)
	assert.Equal(t, "Email invalid", errs[settings.FieldEmail])
	assert.Empty(t, svc.submitted())

	vm := v.Snapshot()
	require.NotNil(t, vm.Form)
	assert.Equal(t, values, vm.Form.Values)
	assert.Equal(t, "Email invalid", vm.Form.Error(settings.FieldEmail))
	assert.Empty(t, vm.Snackbars)
}

func TestView_SubmitSuccess(t *testing.T) {
	svc := &fakeService{}
	v := mountReady(t, svc)

	values := form.Values{DisplayName: "Acme Inc", Email: "B@Acme.com", ErrorReportingConsent: false}
	ticket, errs, err := v.Submit(context.Background(), values)
	require.NoError(t, err)
	require.Nil(t, errs)
	res, err := ticket.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Data)

	assert.Equal(t, []settings.UpdateInput{values}, svc.submitted())

	vm := v.Snapshot()
	assert.Equal(t, []notify.Snackbar{{Variant: notify.VariantSuccess, Title: "Successfully updated company information"}}, vm.Snackbars)
	require.NotNil(t, vm.Form)
	confirmed := settings.InputFrom(settings.Record{DisplayName: "Acme Inc", Email: "b@acme.com"})
	assert.Equal(t, confirmed, vm.Form.Initial)
	assert.Equal(t, confirmed, vm.Form.Values)
	assert.False(t, vm.Submitting)

	// re-rendering the same outcome fires nothing
	assert.Empty(t, v.Snapshot().Snackbars)
}

func TestView_SubmitFailureKeepsDraft(t *testing.T) {
	svc := &fakeService{update: func(context.Context, settings.UpdateInput) (settings.Record, error) {
		return settings.Record{}, &graphql.Error{GraphQLErrors: []graphql.ErrorItem{{Message: "Email invalid"}}}
	}}
	v := mountReady(t, svc)

	values := form.Values{DisplayName: "Acme Inc", Email: "b@acme.com"}
	ticket, _, err := v.Submit(context.Background(), values)
	require.NoError(t, err)
	_, err = ticket.Wait(context.Background())
	require.NoError(t, err)

	vm := v.Snapshot()
	require.Len(t, vm.Snackbars, 1)
	assert.Equal(t, notify.VariantError, vm.Snackbars[0].Variant)
	assert.Equal(t, "Email invalid", vm.Snackbars[0].Title)
	require.NotNil(t, vm.Form)
	assert.Equal(t, values, vm.Form.Values)
	assert.Equal(t, settings.InputFrom(acme), vm.Form.Initial)

	assert.Empty(t, v.Snapshot().Snackbars)
}

func TestView_SubmitFailureWithoutMessage(t *testing.T) {
	svc := &fakeService{update: func(context.Context, settings.UpdateInput) (settings.Record, error) {
		return settings.Record{}, errors.New("boom")
	}}
	v := mountReady(t, svc)

	ticket, _, err := v.Submit(context.Background(), form.Values{DisplayName: "A", Email: "a@a.io"})
	require.NoError(t, err)
	_, _ = ticket.Wait(context.Background())

	vm := v.Snapshot()
	require.Len(t, vm.Snackbars, 1)
	assert.Equal(t, "Failed to update company information due to an unknown error", vm.Snackbars[0].Title)
}

func TestView_SubmittingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{update: func(_ context.Context, in settings.UpdateInput) (settings.Record, error) {
		<-release
		return in.Record(), nil
	}}
	v := mountReady(t, svc)

	ticket, _, err := v.Submit(context.Background(), form.Values{DisplayName: "A", Email: "a@a.io"})
	require.NoError(t, err)
	assert.True(t, v.Snapshot().Submitting)

	close(release)
	_, err = ticket.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, v.Snapshot().Submitting)
}

func TestView_NewerInvalidDraftSurvivesOlderSuccess(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{update: func(_ context.Context, in settings.UpdateInput) (settings.Record, error) {
		<-release
		return in.Record(), nil
	}}
	v := mountReady(t, svc)

	sent := form.Values{DisplayName: "Acme Inc", Email: "b@acme.com"}
	ticket, _, err := v.Submit(context.Background(), sent)
	require.NoError(t, err)

	typed := form.Values{DisplayName: "Acme Inc 2", Email: "not-an-email"}
	_, errs, err := v.Submit(context.Background(), typed)
	require.NoError(t, err)
	require.NotEmpty(t, errs)

	close(release)
	_, err = ticket.Wait(context.Background())
	require.NoError(t, err)

	vm := v.Snapshot()
	require.Len(t, vm.Snackbars, 1)
	assert.Equal(t, notify.VariantSuccess, vm.Snackbars[0].Variant)
	require.NotNil(t, vm.Form)
	assert.Equal(t, settings.InputFrom(sent.Record()), vm.Form.Initial)
	assert.Equal(t, typed, vm.Form.Values)
	assert.Equal(t, "Email invalid", vm.Form.Error(settings.FieldEmail))
}

func TestView_SubmitBeforeReady(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc := &fakeService{get: func(context.Context) (settings.Record, error) {
		<-release
		return acme, nil
	}}
	v := Mount(context.Background(), testDeps(svc))
	defer v.Close()

	_, _, err := v.Submit(context.Background(), form.Values{DisplayName: "A", Email: "a@a.io"})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, svc.submitted())
}

func TestView_ClosedDropsLateOutcome(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{update: func(_ context.Context, in settings.UpdateInput) (settings.Record, error) {
		<-release
		return in.Record(), nil
	}}
	v := mountReady(t, svc)

	ticket, _, err := v.Submit(context.Background(), form.Values{DisplayName: "Late", Email: "l@a.io"})
	require.NoError(t, err)
	v.Close()
	close(release)
	_, err = ticket.Wait(context.Background())
	require.NoError(t, err)

	vm := v.Snapshot()
	assert.Empty(t, vm.Snackbars)
	require.NotNil(t, vm.Form)
	assert.Equal(t, settings.InputFrom(acme), vm.Form.Initial)

	_, _, err = v.Submit(context.Background(), form.Values{DisplayName: "A", Email: "a@a.io"})
	assert.ErrorIs(t, err, ErrViewClosed)
}

func TestView_MountSurvivesRequestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{get: func(ctx context.Context) (settings.Record, error) {
		time.Sleep(10 * time.Millisecond)
		return acme, ctx.Err()
	}}
	v := Mount(ctx, testDeps(svc))
	defer v.Close()
	cancel()

	require.NoError(t, v.AwaitRead(context.Background()))
	assert.Equal(t, StateReady, v.Snapshot().State)
}
