package auth

import (
	"context"
	"errors"
)

// ErrTokenNotFound indicates no credential is stored under the requested key.
var ErrTokenNotFound = errors.New("token not found")

// Scope identifies the principal class a stored token authorizes.
type Scope string

const (
	// ScopeUser is the end-user (student) session.
	ScopeUser Scope = "user"
	// ScopeAdmin is the administrator session.
	ScopeAdmin Scope = "admin"
)

// Storage keys used by the persistent stores. They match the keys the web client
// wrote so a shared credentials file stays readable by both.
const (
	userTokenKey    = "tyforge_token"
	adminTokenKey   = "admin_token"
	userProfileKey  = "user_id"
	adminProfileKey = "admin_user"
)

// Valid reports whether the scope is one of the known principal classes.
func (s Scope) Valid() bool {
	return s == ScopeUser || s == ScopeAdmin
}

func (s Scope) tokenKey() string {
	if s == ScopeAdmin {
		return adminTokenKey
	}
	return userTokenKey
}

func (s Scope) profileKey() string {
	if s == ScopeAdmin {
		return adminProfileKey
	}
	return userProfileKey
}

// Store persists opaque string values under string keys so they survive process
// restarts. Find returns ErrTokenNotFound for unknown keys.
type Store interface {
	Save(ctx context.Context, key, value string) error
	Find(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
