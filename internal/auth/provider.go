package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyToken is returned when Set is called without a token.
var ErrEmptyToken = errors.New("token must not be empty")

// ErrUnknownScope is returned for scopes other than ScopeUser and ScopeAdmin.
var ErrUnknownScope = errors.New("unknown credential scope")

// Provider is the single source of session credentials for the process. It is
// constructed once and handed to every component that issues API calls; nothing
// else reads the underlying store.
type Provider struct {
	store Store
}

// NewProvider wraps the given store.
func NewProvider(store Store) *Provider {
	if store == nil {
		panic("auth: credential store must not be nil")
	}
	return &Provider{store: store}
}

// Set stores the opaque token for scope.
func (p *Provider) Set(ctx context.Context, scope Scope, token string) error {
	if !scope.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	if err := p.store.Save(ctx, scope.tokenKey(), token); err != nil {
		return fmt.Errorf("save %s token: %w", scope, err)
	}
	return nil
}

// Token returns the token stored for scope or ErrTokenNotFound.
func (p *Provider) Token(ctx context.Context, scope Scope) (string, error) {
	if !scope.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	token, err := p.store.Find(ctx, scope.tokenKey())
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Authenticated reports whether a token is present for scope. Expiry is never
// inspected here; it surfaces as a 401/403 from the backend.
func (p *Provider) Authenticated(ctx context.Context, scope Scope) bool {
	_, err := p.Token(ctx, scope)
	return err == nil
}

// Clear forgets the token and cached profile of scope. The other scope is left
// untouched.
func (p *Provider) Clear(ctx context.Context, scope Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	if err := p.store.Delete(ctx, scope.tokenKey()); err != nil {
		return fmt.Errorf("clear %s token: %w", scope, err)
	}
	if err := p.store.Delete(ctx, scope.profileKey()); err != nil {
		return fmt.Errorf("clear %s profile: %w", scope, err)
	}
	return nil
}

// SetProfile caches a small profile value next to the token: the user id for the
// user scope, the serialized admin user for the admin scope.
func (p *Provider) SetProfile(ctx context.Context, scope Scope, value string) error {
	if !scope.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	if err := p.store.Save(ctx, scope.profileKey(), value); err != nil {
		return fmt.Errorf("save %s profile: %w", scope, err)
	}
	return nil
}

// Profile returns the cached profile value for scope or ErrTokenNotFound.
func (p *Provider) Profile(ctx context.Context, scope Scope) (string, error) {
	if !scope.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	return p.store.Find(ctx, scope.profileKey())
}
