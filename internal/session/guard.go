package session

import (
	"context"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/logging"
)

// Login targets per scope.
const (
	UserLoginPath  = "/login"
	AdminLoginPath = "/admin/login"
)

// LoginTarget returns the login view for scope.
func LoginTarget(scope auth.Scope) string {
	if scope == auth.ScopeAdmin {
		return AdminLoginPath
	}
	return UserLoginPath
}

// Credentials is the part of auth.Provider the guard needs.
type Credentials interface {
	Authenticated(ctx context.Context, scope auth.Scope) bool
	Clear(ctx context.Context, scope auth.Scope) error
}

// Redirector sends the user to another view.
type Redirector interface {
	Redirect(ctx context.Context, target string)
}

// RedirectFunc adapts a function to Redirector.
type RedirectFunc func(ctx context.Context, target string)

func (f RedirectFunc) Redirect(ctx context.Context, target string) { f(ctx, target) }

// Reporter is the part of notify.Reporter the guard needs.
type Reporter interface {
	Error(err error, fallback string) error
}

// Guard protects the views of one scope. User and admin guards are independent.
type Guard struct {
	scope    auth.Scope
	creds    Credentials
	redirect Redirector
	reporter Reporter
}

// NewGuard builds the guard for scope.
func NewGuard(scope auth.Scope, creds Credentials, redirect Redirector, reporter Reporter) *Guard {
	if creds == nil || redirect == nil || reporter == nil {
		panic("session: guard collaborators must not be nil")
	}
	return &Guard{scope: scope, creds: creds, redirect: redirect, reporter: reporter}
}

// Scope returns the guarded scope.
func (g *Guard) Scope() auth.Scope { return g.scope }

// Run checks the token, then performs the initial load of v. A missing token
// redirects without calling load. A 401/403 from load clears the token and
// redirects once; any other error is reported once.
func (g *Guard) Run(v *View, fallback string, load func(ctx context.Context) error) State {
	ctx := v.Context()
	logger := logging.FromContext(ctx)

	if !g.creds.Authenticated(ctx, g.scope) {
		logger.Debug("no token for scope, redirecting", "scope", string(g.scope))
		return g.redirectTo(v, false)
	}

	if !v.transition(Loading{}) {
		return v.State()
	}

	err := load(ctx)
	if v.Closed() {
		return v.State()
	}
	if err == nil {
		v.transition(Ready{})
		return v.State()
	}
	return g.fail(v, err, fallback)
}

// Handle applies the guard's failure policy to an error from any later call the
// view makes (a mutation, a refresh). It returns the resulting state, or nil
// when err is nil.
func (g *Guard) Handle(v *View, err error, fallback string) State {
	if err == nil || v.Closed() {
		return nil
	}
	return g.fail(v, err, fallback)
}

func (g *Guard) fail(v *View, err error, fallback string) State {
	if api.IsAuthFailure(err) {
		logging.FromContext(v.Context()).Info("credentials rejected, clearing scope", "scope", string(g.scope), "status", api.StatusCode(err))
		if clearErr := g.creds.Clear(v.Context(), g.scope); clearErr != nil {
			logging.FromContext(v.Context()).Warn("failed to clear credentials", "scope", string(g.scope), "error", clearErr)
		}
		return g.redirectTo(v, true)
	}

	marked := g.reporter.Error(err, fallback)
	state := Failed{Err: marked}
	v.transition(state)
	return state
}

func (g *Guard) redirectTo(v *View, cleared bool) State {
	state := Redirecting{Target: LoginTarget(g.scope), Cleared: cleared}
	if v.claimRedirect() {
		g.redirect.Redirect(v.Context(), state.Target)
	}
	v.transition(state)
	return state
}
