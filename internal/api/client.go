package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tyforge/client/internal/logging"
)

// Client executes Calls against the backend and normalizes every outcome into
// either a decoded payload or a single *Error. It never retries and sets no
// timeout of its own; cancellation comes from the context.
type Client struct {
	builder *Builder
	http    *http.Client
}

// NewClient returns a Client for baseURL. A nil httpClient uses a zero-timeout
// client on the default transport.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	hc := &http.Client{}
	if httpClient != nil {
		copied := *httpClient
		hc = &copied
	}
	hc.Transport = newFormTransport(hc.Transport)
	return &Client{builder: NewBuilder(baseURL, tokens), http: hc}
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.builder.BaseURL()
}

// Do sends call and decodes a JSON answer into dst when call.Expect is ExpectJSON.
func (c *Client) Do(ctx context.Context, call Call, dst any) error {
	_, err := c.send(ctx, call, dst, "")
	return err
}

// Download sends call expecting a binary body. The filename comes from
// Content-Disposition, or fallbackName.
func (c *Client) Download(ctx context.Context, call Call, fallbackName string) (Blob, error) {
	call.Expect = ExpectBlob
	return c.send(ctx, call, nil, fallbackName)
}

func (c *Client) send(ctx context.Context, call Call, dst any, fallbackName string) (Blob, error) {
	if call.Method == "" {
		call.Method = http.MethodGet
	}
	ctx, span := logging.StartSpan(ctx, call.Method+" "+call.Path)
	logger := logging.FromContext(ctx)

	req, err := c.builder.Build(ctx, call)
	if err != nil {
		span.Fail(err)
		return Blob{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("api call canceled")
		}
		apiErr := newTransportError(call.Method, call.Path, err)
		span.Fail(err, "kind", apiErr.Kind.String())
		return Blob{}, apiErr
	}

	blob, err := normalize(call.Method, call.Path, resp, call.Expect, dst, fallbackName)
	if err != nil {
		span.Fail(err, "status", resp.StatusCode, "kind", Classify(err).String())
		return Blob{}, err
	}

	span.End("status", resp.StatusCode)
	return blob, nil
}
