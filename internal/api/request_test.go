package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyforge/client/internal/auth"
)

func newTokens(t *testing.T, tokens map[auth.Scope]string) *auth.Provider {
	t.Helper()
	provider := auth.NewProvider(auth.NewMemoryStore())
	for scope, token := range tokens {
		require.NoError(t, provider.Set(context.Background(), scope, token))
	}
	return provider
}

func TestBuildInjectsBearerToken(t *testing.T) {
	builder := NewBuilder("http://api.test/", newTokens(t, map[auth.Scope]string{auth.ScopeAdmin: "t1"}))

	req, err := builder.Build(context.Background(), Call{Path: "/api/users/", Scope: auth.ScopeAdmin})
	require.NoError(t, err)

	assert.Equal(t, "http://api.test/api/users/", req.URL.String())
	assert.Equal(t, "Bearer t1", req.Header.Get("Authorization"))
}

func TestBuildOmitsHeaderWithoutToken(t *testing.T) {
	builder := NewBuilder("http://api.test", newTokens(t, map[auth.Scope]string{auth.ScopeAdmin: "t1"}))

	for _, call := range []Call{
		{Path: "/api/users/me", Scope: auth.ScopeUser},
		{Path: "/api/plans/"},
	} {
		req, err := builder.Build(context.Background(), call)
		require.NoError(t, err)
		_, present := req.Header["Authorization"]
		assert.False(t, present, "expected no Authorization header for %s", call.Path)
	}
}

func TestBuildDiscardsCallerAuthorization(t *testing.T) {
	builder := NewBuilder("http://api.test", newTokens(t, map[auth.Scope]string{auth.ScopeUser: "real"}))

	header := http.Header{}
	header.Set("Authorization", "Bearer forged")
	header.Set("X-Trace", "abc")

	req, err := builder.Build(context.Background(), Call{Path: "/api/users/me", Scope: auth.ScopeUser, Header: header})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer real"}, req.Header.Values("Authorization"))
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))

	req, err = builder.Build(context.Background(), Call{Path: "/api/plans/", Header: header})
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestBuildJSONSetsContentType(t *testing.T) {
	builder := NewBuilder("http://api.test", newTokens(t, nil))

	header := http.Header{}
	header.Set("Content-Type", "text/plain")
	req, err := builder.Build(context.Background(), Call{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   JSON(map[string]string{"email": "a@b.c"}),
		Header: header,
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(data))
}

func TestBuildMultipartLeavesContentTypeUnset(t *testing.T) {
	builder := NewBuilder("http://api.test", newTokens(t, map[auth.Scope]string{auth.ScopeUser: "u"}))

	header := http.Header{}
	header.Set("Content-Type", "multipart/form-data")
	req, err := builder.Build(context.Background(), Call{
		Method: http.MethodPost,
		Path:   "/api/synopsis/upload",
		Body:   Multipart(nil, FilePart{Field: "file", Filename: "s.pdf", Content: strings.NewReader("%PDF")}),
		Header: header,
		Scope:  auth.ScopeUser,
	})
	require.NoError(t, err)

	_, present := req.Header["Content-Type"]
	assert.False(t, present)
	assert.Equal(t, "Bearer u", req.Header.Get("Authorization"))
}

func TestMultipartBoundaryAppliedOnSend(t *testing.T) {
	var (
		gotType  string
		gotField string
		gotFile  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotField = r.FormValue("note")
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotFile = header.Filename + ":" + string(data)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "s1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, newTokens(t, nil), server.Client())

	var out map[string]string
	err := client.Do(context.Background(), Call{
		Method: http.MethodPost,
		Path:   "/upload",
		Body:   Multipart(map[string]string{"note": "hello"}, FilePart{Field: "file", Filename: "proof.png", Content: strings.NewReader("png-bytes")}),
	}, &out)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotType, "multipart/form-data; boundary="), gotType)
	assert.Equal(t, "hello", gotField)
	assert.Equal(t, "proof.png:png-bytes", gotFile)
	assert.Equal(t, "s1", out["id"])
}

func TestBuildEncodesQuery(t *testing.T) {
	builder := NewBuilder("http://api.test", newTokens(t, nil))
	approved := true
	req, err := builder.Build(context.Background(), Call{
		Method: http.MethodPut,
		Path:   "/api/admin/update-project/7",
		Query:  ProjectUpdate{Status: "in_progress", AdminNotes: "looks good", URLApproved: &approved}.values(),
	})
	require.NoError(t, err)

	q := req.URL.Query()
	assert.Equal(t, "/api/admin/update-project/7", req.URL.Path)
	assert.Equal(t, "in_progress", q.Get("status"))
	assert.Equal(t, "looks good", q.Get("admin_notes"))
	assert.Equal(t, "true", q.Get("url_approved"))
	assert.False(t, q.Has("project_url"))
}
