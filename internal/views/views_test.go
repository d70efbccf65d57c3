package views

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/notify"
)

type redirects struct {
	mu      sync.Mutex
	targets []string
}

func (r *redirects) Redirect(_ context.Context, target string) {
	r.mu.Lock()
	r.targets = append(r.targets, target)
	r.mu.Unlock()
}

func (r *redirects) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

type fixture struct {
	env       *Env
	tokens    *auth.Provider
	recorder  *notify.Recorder
	redirects *redirects
}

func newFixture(t *testing.T, mux *http.ServeMux, tokens map[auth.Scope]string) *fixture {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider := auth.NewProvider(auth.NewMemoryStore())
	for scope, token := range tokens {
		require.NoError(t, provider.Set(context.Background(), scope, token))
	}
	rec := &notify.Recorder{}
	redir := &redirects{}
	return &fixture{
		env: &Env{
			API:      api.NewClient(srv.URL, provider, srv.Client()),
			Tokens:   provider,
			Reporter: notify.NewReporter(rec),
			Redirect: redir,
			BlobDir:  t.TempDir(),
		},
		tokens:    provider,
		recorder:  rec,
		redirects: redir,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// counted wraps h and counts how often it ran.
func counted(n *atomic.Int32, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		h(w, r)
	}
}

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func jsonDecode(r *http.Request, v any) error { return json.NewDecoder(r.Body).Decode(v) }
