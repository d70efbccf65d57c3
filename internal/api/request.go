package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tyforge/client/internal/auth"
)

// Expect declares how a successful response body is consumed. The content type of
// the response is never used to decide.
type Expect int

const (
	ExpectJSON Expect = iota
	ExpectBlob
	ExpectNone
)

// Call describes one request against the backend.
type Call struct {
	Method string
	// Path is appended verbatim to the base URL.
	Path   string
	Query  url.Values
	Body   Body
	Header http.Header
	// Scope selects the credential injected as a bearer token. An empty scope
	// sends no Authorization header.
	Scope  auth.Scope
	Expect Expect
}

// Body is a request payload: JSON or multipart form.
type Body interface {
	encode() (io.Reader, string, error)
}

type jsonBody struct {
	value any
}

// JSON encodes v as the request body with Content-Type application/json.
func JSON(v any) Body {
	return jsonBody{value: v}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return nil, "", fmt.Errorf("encode json body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// FilePart is one file field of a multipart form.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

type multipartBody struct {
	fields map[string]string
	files  []FilePart
}

// Multipart encodes fields and files as multipart/form-data. The builder leaves
// Content-Type unset; the boundary is applied when the request is sent.
func Multipart(fields map[string]string, files ...FilePart) Body {
	return multipartBody{fields: fields, files: files}
}

func (b multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(b.fields))
	for key := range b.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writer.WriteField(key, b.fields[key]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}

	for _, file := range b.files {
		if file.Content == nil {
			return nil, "", fmt.Errorf("form file %s has no content", file.Field)
		}
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("copy form file %s: %w", file.Field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// TokenSource yields the bearer token for a scope. auth.Provider satisfies it.
type TokenSource interface {
	Token(ctx context.Context, scope auth.Scope) (string, error)
}

// Builder turns a Call into an *http.Request.
type Builder struct {
	baseURL string
	tokens  TokenSource
}

// NewBuilder returns a Builder targeting baseURL.
func NewBuilder(baseURL string, tokens TokenSource) *Builder {
	if tokens == nil {
		panic("api: token source must not be nil")
	}
	return &Builder{baseURL: strings.TrimRight(baseURL, "/"), tokens: tokens}
}

// BaseURL returns the configured origin.
func (b *Builder) BaseURL() string {
	return b.baseURL
}

type formContentTypeKey struct{}

// Build constructs the outgoing request. Caller headers are copied first; a caller
// supplied Authorization header is always discarded.
func (b *Builder) Build(ctx context.Context, call Call) (*http.Request, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	target := b.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	_, isForm := call.Body.(multipartBody)
	if call.Body != nil {
		reader, ct, err := call.Body.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = reader, ct
		if isForm {
			ctx = context.WithValue(ctx, formContentTypeKey{}, ct)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for key, values := range call.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Del("Authorization")
	if isForm {
		req.Header.Del("Content-Type")
	} else if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if call.Scope != "" {
		token, err := b.tokens.Token(ctx, call.Scope)
		switch {
		case err == nil && token != "":
			req.Header.Set("Authorization", "Bearer "+token)
		case err == nil, errors.Is(err, auth.ErrTokenNotFound):
		default:
			return nil, fmt.Errorf("read %s token: %w", call.Scope, err)
		}
	}

	return req, nil
}

// formTransport applies the multipart boundary recorded by Build just before the
// request leaves the process.
type formTransport struct {
	base http.RoundTripper
}

func newFormTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if _, ok := base.(*formTransport); ok {
		return base
	}
	return &formTransport{base: base}
}

func (t *formTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ct, ok := req.Context().Value(formContentTypeKey{}).(string)
	if !ok || req.Header.Get("Content-Type") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Content-Type", ct)
	return t.base.RoundTrip(clone)
}
