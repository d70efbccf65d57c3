package views

import (
	"context"
	"errors"
	"time"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/logging"
	"github.com/tyforge/client/internal/notify"
	"github.com/tyforge/client/internal/refresh"
	"github.com/tyforge/client/internal/session"
)

// Env holds the process-wide collaborators every page needs.
type Env struct {
	API      *api.Client
	Tokens   *auth.Provider
	Reporter *notify.Reporter
	Redirect session.Redirector
	// BlobDir holds temp files of downloads and previews; empty means os.TempDir.
	BlobDir string
	// Location is used to compose meeting times; nil means time.Local.
	Location *time.Location
	Now      func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.Local
}

// Guard returns the session guard for scope.
func (e *Env) Guard(scope auth.Scope) *session.Guard {
	return session.NewGuard(scope, e.Tokens, e.Redirect, e.Reporter)
}

// page is the common part of every view: its lifetime, its guard and the
// coordinator used for writes.
type page struct {
	env   *Env
	view  *session.View
	guard *session.Guard
}

func (e *Env) newPage(ctx context.Context, name string, scope auth.Scope) page {
	return page{
		env:   e,
		view:  session.NewView(ctx, name, e.BlobDir),
		guard: e.Guard(scope),
	}
}

// open runs the guard with load as the initial fetch.
func (p *page) open(fallback string, load func(ctx context.Context) error) session.State {
	return p.guard.Run(p.view, fallback, load)
}

// State returns the current view state.
func (p *page) State() session.State { return p.view.State() }

// View exposes the page lifetime.
func (p *page) View() *session.View { return p.view }

// Close cancels in-flight requests and releases held blobs.
func (p *page) Close() error { return p.view.Close() }

// Ready reports whether the initial load succeeded.
func (p *page) Ready() bool {
	_, ok := p.view.State().(session.Ready)
	return ok
}

func (p *page) ctx() context.Context { return p.view.Context() }

// mutate runs m through the coordinator. Auth failures go through the guard so
// the token is cleared; everything else is reported.
func (p *page) mutate(m refresh.Mutation) refresh.Outcome {
	return refresh.NewCoordinator(guardReporter{page: p}).Run(p.ctx(), m)
}

// fail reports a failure raised outside a mutation, such as a download.
func (p *page) fail(err error, fallback string) error {
	return guardReporter{page: p}.Error(err, fallback)
}

type guardReporter struct {
	page *page
}

func (r guardReporter) Error(err error, fallback string) error {
	if api.IsAuthFailure(err) {
		r.page.guard.Handle(r.page.view, err, fallback)
		return err
	}
	return r.page.env.Reporter.Error(err, fallback)
}

func (r guardReporter) Success(message string) {
	r.page.env.Reporter.Success(message)
}

// orEmpty runs an optional fetch: a failure yields an empty list, except auth
// failures and cancellation which still propagate to the guard.
func orEmpty[T any](ctx context.Context, what string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	items, err := fetch(ctx)
	if err == nil {
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
	if api.IsAuthFailure(err) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	logging.FromContext(ctx).Debug("optional fetch failed, using empty list", "collection", what, "error", err)
	return []T{}, nil
}

// Page is a guarded view whose data is loaded by the caller.
type Page struct {
	page
	load func(ctx context.Context) error
}

// OpenFunc guards scope and runs load as the initial fetch of a view named name.
func (e *Env) OpenFunc(ctx context.Context, name string, scope auth.Scope, fallback string, load func(ctx context.Context) error) *Page {
	p := &Page{page: e.newPage(ctx, name, scope), load: load}
	p.open(fallback, load)
	return p
}

// Mutate runs do and reloads the page after it succeeds.
func (p *Page) Mutate(name, success, failure string, do func(ctx context.Context) error) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name:    name,
		Do:      do,
		Success: success,
		Failure: failure,
		Refresh: []refresh.Refresher{{Name: p.view.Name(), Fetch: p.load}},
	})
}
