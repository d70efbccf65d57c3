package session

import (
	"context"
	"sync"

	"github.com/tyforge/client/internal/blob"
	"github.com/tyforge/client/internal/logging"
)

// View is the lifetime of one page. Every request it starts uses Context, which
// is canceled on Close; updates applied after Close are dropped.
type View struct {
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	blobs  *blob.Scope

	mu         sync.Mutex
	state      State
	closed     bool
	redirected bool
}

// NewView starts a view lifetime derived from parent. Blobs are materialised
// under blobDir (the system temp dir when empty).
func NewView(parent context.Context, name, blobDir string) *View {
	ctx, cancel := context.WithCancel(logging.WithView(parent, name))
	return &View{
		name:   name,
		ctx:    ctx,
		cancel: cancel,
		blobs:  blob.NewScope(blobDir),
		state:  Unchecked{},
	}
}

// Name returns the view name.
func (v *View) Name() string { return v.name }

// Context is canceled when the view closes.
func (v *View) Context() context.Context { return v.ctx }

// Blobs returns the view-owned blob scope.
func (v *View) Blobs() *blob.Scope { return v.blobs }

// State returns the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Apply runs fn while the view is open and reports whether it ran.
func (v *View) Apply(fn func()) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	fn()
	return true
}

// Closed reports whether Close was called.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Close cancels in-flight requests and releases every blob the view holds.
func (v *View) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.mu.Unlock()

	v.cancel()
	return v.blobs.Close()
}

func (v *View) transition(s State) bool {
	return v.Apply(func() { v.state = s })
}

// claimRedirect returns true the first time it is called on an open view.
func (v *View) claimRedirect() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.redirected {
		return false
	}
	v.redirected = true
	return true
}
