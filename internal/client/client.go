// Package client talks to a rumor server over HTTP.
//
// Client has the same method set as the in-process service, so the sync
// store can run against either. Errors are mapped back onto the shared
// taxonomy: 400-class responses become types.ErrValidation (404 becomes
// types.ErrNotFound), and 5xx responses, network failures, and timeouts
// become types.ErrTransient.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 10 * time.Second

// Client is an HTTP client for the rumor API. Safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, http: http.DefaultClient, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// QueryGuests fetches one page of guests.
func (c *Client) QueryGuests(ctx context.Context, req types.QueryRequest) (types.QueryResult, error) {
	var res types.QueryResult
	err := c.do(ctx, http.MethodGet, "/api/guests", req.Values(), nil, &res)
	if res.Guests == nil {
		res.Guests = []types.Guest{}
	}
	return res, err
}

// CreateGuest creates a guest and returns it with its assigned id.
func (c *Client) CreateGuest(ctx context.Context, in types.GuestInput) (types.Guest, error) {
	var g types.Guest
	err := c.do(ctx, http.MethodPost, "/api/guests", nil, in, &g)
	return g, err
}

// DeleteGuests deletes guests by id and returns the server's count.
func (c *Client) DeleteGuests(ctx context.Context, ids []string) (int, error) {
	var res types.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/api/guests", nil, types.DeleteRequest{IDs: ids}, &res); err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UpdateGuestTags applies a bulk tag edit and returns the updated guests.
func (c *Client) UpdateGuestTags(ctx context.Context, req types.TagUpdateRequest) ([]types.Guest, error) {
	var res types.TagUpdateResponse
	if err := c.do(ctx, http.MethodPatch, "/api/guests", nil, req, &res); err != nil {
		return nil, err
	}
	return res.UpdatedGuests, nil
}

// ListTags fetches the tag catalog.
func (c *Client) ListTags(ctx context.Context) ([]types.Tag, error) {
	var res types.TagListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Tags, nil
}

// CreateTag creates a catalog tag. created is false when the server
// returned an existing tag with the same name.
func (c *Client) CreateTag(ctx context.Context, req types.TagCreateRequest) (types.Tag, bool, error) {
	var tag types.Tag
	resp, err := c.send(ctx, http.MethodPost, "/api/tags", nil, req)
	if err != nil {
		return types.Tag{}, false, err
	}
	defer resp.Body.Close()
	if err := readResponse(resp, &tag); err != nil {
		return types.Tag{}, false, err
	}
	return tag, resp.StatusCode == http.StatusCreated, nil
}

// RemoveTag deletes a catalog tag by id.
func (c *Client) RemoveTag(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tags/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return readResponse(resp, out)
}

// send issues the request under the client timeout. path must already be
// escaped. The caller closes the response body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	u := *c.base
	u.RawPath = c.base.EscapedPath() + path
	p, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, fmt.Errorf("request path %q: %w", path, err)
	}
	u.Path = p
	u.RawQuery = query.Encode()

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	req, err := newRequest(ctx, method, u.String(), reader)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, transient(err)
	}
	resp.Body = cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// cancelBody releases the request context when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// readResponse decodes a 2xx body into out, or maps an error response.
func readResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return transient(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	msg := http.StatusText(resp.StatusCode)
	var body types.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", types.ErrNotFound, msg)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("%w: server returned %d: %s", types.ErrTransient, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: %s", types.ErrValidation, msg)
	}
}

func transient(err error) error {
	return fmt.Errorf("%w: %w", types.ErrTransient, err)
}
