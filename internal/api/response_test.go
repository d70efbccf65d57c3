package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyforge/client/internal/auth"
)

func serveStatus(t *testing.T, status int, body string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL, newTokens(t, nil), server.Client())
}

func TestErrorMessagePrecedence(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "detail", status: http.StatusBadRequest, body: `{"detail":"X","message":"Y"}`, message: "X"},
		{name: "message", status: http.StatusBadRequest, body: `{"message":"Y"}`, message: "Y"},
		{name: "unparsable", status: http.StatusNotFound, body: `<html>nope</html>`, message: "HTTP 404: Not Found"},
		{name: "empty", status: http.StatusInternalServerError, body: ``, message: "HTTP 500: Internal Server Error"},
		{name: "validation list", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body","email"],"msg":"field required"}]}`, message: "field required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := serveStatus(t, tc.status, tc.body)
			err := client.Do(context.Background(), Call{Path: "/x"}, nil)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, KindBusiness, apiErr.Kind)
		})
	}
}

func TestAuthStatusesClassify(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := serveStatus(t, status, `{"detail":"Not authenticated"}`)
		err := client.Do(context.Background(), Call{Path: "/api/users/me", Scope: auth.ScopeUser}, nil)
		assert.True(t, IsAuthFailure(err))
		assert.Equal(t, KindAuth, Classify(err))
	}
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		client := serveStatus(t, status, `{"detail":"Could not validate credentials"}`)
		err := client.Do(context.Background(), Call{Path: "/api/users/me"}, nil)
		assert.False(t, IsAuthFailure(err), "status %d must not be an auth failure", status)
	}
}

func TestTransportFailureIsNeverAuth(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, newTokens(t, nil), nil)
	err := client.Do(context.Background(), Call{Path: "/api/users/me"}, nil)

	require.Error(t, err)
	assert.Equal(t, KindTransport, Classify(err))
	assert.False(t, IsAuthFailure(err))
	assert.Equal(t, transportMessage, err.Error())
	assert.Zero(t, StatusCode(err))
}

func TestMalformedSuccess(t *testing.T) {
	for _, body := range []string{"", "not json"} {
		client := serveStatus(t, http.StatusOK, body)
		var out []string
		err := client.Do(context.Background(), Call{Path: "/x"}, &out)
		assert.Equal(t, KindMalformed, Classify(err))
		assert.Equal(t, malformedMessage, err.Error())
	}
}

func TestExpectNoneIgnoresBody(t *testing.T) {
	client := serveStatus(t, http.StatusOK, "not json")
	err := client.Do(context.Background(), Call{Method: http.MethodDelete, Path: "/x", Expect: ExpectNone}, nil)
	assert.NoError(t, err)
}

func TestDownloadUsesContentDisposition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/named" {
			w.Header().Set("Content-Disposition", `attachment; filename="../alice_project.zip"`)
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK"))
	}))
	defer server.Close()

	client := NewClient(server.URL, newTokens(t, nil), server.Client())

	blob, err := client.Download(context.Background(), Call{Path: "/named"}, ProjectArchiveName)
	require.NoError(t, err)
	assert.Equal(t, "alice_project.zip", blob.Filename)
	assert.Equal(t, []byte("PK"), blob.Data)
	assert.Equal(t, "application/zip", blob.ContentType)

	blob, err = client.Download(context.Background(), Call{Path: "/anonymous"}, ProjectArchiveName)
	require.NoError(t, err)
	assert.Equal(t, "project.zip", blob.Filename)
}

func TestFilenameFromDisposition(t *testing.T) {
	assert.Equal(t, "a.zip", filenameFromDisposition(`attachment; filename=a.zip`, "x"))
	assert.Equal(t, "x", filenameFromDisposition(`attachment`, "x"))
	assert.Equal(t, "x", filenameFromDisposition(`;;;`, "x"))
	assert.Equal(t, "r.pdf", filenameFromDisposition(`attachment; filename="C:\\docs\\r.pdf"`, "x"))
}

func TestCanceledContextIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, newTokens(t, nil), server.Client())
	err := client.Do(ctx, Call{Path: "/x"}, nil)
	assert.Equal(t, KindTransport, Classify(err))
	assert.ErrorIs(t, err, context.Canceled)
}
