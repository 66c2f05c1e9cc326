package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/insightcsv/insightcsv/internal/config"
)

// snippetLimit bounds how much of an upstream error body is kept for logs.
const snippetLimit = 512

// Client fetches JSON resources from the configured upstream API.
// It is built once per config generation and reused across requests;
// all methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client for the given upstream configuration.
// The HTTP client, including auth header injection, is built once and
// reused across Fetch calls.
func New(cfg config.UpstreamConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("upstream: base url %q: scheme must be http or https", cfg.BaseURL)
	}

	return &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		http: &http.Client{
			Transport: &authRoundTripper{base: http.DefaultTransport, auth: cfg.Auth},
			Timeout:   cfg.Timeout,
		},
	}, nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.EffectiveHeader(), t.auth.Key())
	}
	return t.base.RoundTrip(req)
}

// Fetch performs a single GET of path (relative to the base URL) with the
// given query parameters and returns the decoded JSON body.
//
// Exactly one attempt is made per call — no retries. Failures are
// returned as *Error with the Kind set:
//
//	KindUnavailable — connection or timeout error
//	KindBadStatus   — non-2xx upstream status
//	KindMalformed   — 2xx with a body that is not valid JSON
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) (any, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:    KindBadStatus,
			Op:      path,
			Status:  resp.StatusCode,
			Snippet: readSnippet(resp.Body),
		}
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &Error{Kind: KindMalformed, Op: path, Err: err}
	}
	return body, nil
}

// readSnippet reads at most snippetLimit bytes of r for diagnostics.
func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, snippetLimit))
	return string(b)
}
