package session

// State is the loading state of a protected view. The set of implementations is
// closed: Unchecked, Loading, Ready, Failed and Redirecting.
type State interface {
	Name() string
	sealed()
}

// Unchecked is the state before the guard ran.
type Unchecked struct{}

// Loading means the token was present and the initial fetch is in flight.
type Loading struct{}

// Ready means the initial fetch succeeded.
type Ready struct{}

// Failed means the initial fetch failed with a non-auth error, which was reported.
// The view renders empty or partial data; nothing is retried.
type Failed struct {
	Err error
}

// Redirecting means the user is sent to a login view. Cleared is set when the
// stored token was discarded because the backend rejected it.
type Redirecting struct {
	Target  string
	Cleared bool
}

func (Unchecked) Name() string   { return "unchecked" }
func (Loading) Name() string     { return "loading" }
func (Ready) Name() string       { return "ready" }
func (Failed) Name() string      { return "error" }
func (Redirecting) Name() string { return "redirecting" }

func (Unchecked) sealed()   {}
func (Loading) sealed()     {}
func (Ready) sealed()       {}
func (Failed) sealed()      {}
func (Redirecting) sealed() {}

// Terminal reports whether no further transition can happen.
func Terminal(s State) bool {
	switch s.(type) {
	case Ready, Failed, Redirecting:
		return true
	default:
		return false
	}
}
