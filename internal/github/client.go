// Package github is the authenticated transport to the GitHub REST API. It
// returns raw JSON and leaves decoding to the caller, which knows the shape it
// asked for.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v51/github"
	"golang.org/x/oauth2"

	"github.com/ghusers/ghusers/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.github.com"
	defaultTimeout = 10 * time.Second
	userAgent      = "ghusers"
	apiVersion     = "2022-11-28"
)

// Options configures a Client. Only BaseURL is required; an empty Token makes
// unauthenticated calls.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the base client. Its transport is wrapped with the
	// bearer token when one is set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client performs GET requests against the GitHub REST API.
type Client struct {
	api    *gh.Client
	logger *slog.Logger
	authed bool
}

// New builds a Client from opts.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("github base URL is required")
	}
	baseURL, err := url.Parse(base + "/")
	if err != nil {
		return nil, err
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, errors.New("github base URL must be http or https")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if opts.HTTPClient != nil {
		hc := *opts.HTTPClient
		if hc.Timeout <= 0 {
			hc.Timeout = timeout
		}
		httpClient = &hc
	}

	token := strings.TrimSpace(opts.Token)
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		authed.Timeout = httpClient.Timeout
		httpClient = authed
	}

	api := gh.NewClient(httpClient)
	api.BaseURL = baseURL
	api.UserAgent = userAgent

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{api: api, logger: logger, authed: token != ""}, nil
}

// Authenticated reports whether requests carry a bearer token.
func (c *Client) Authenticated() bool {
	return c.authed
}

// BaseURL returns the API root, with a trailing slash.
func (c *Client) BaseURL() string {
	return c.api.BaseURL.String()
}

// Get issues GET path?params and returns the response body. The query string
// is built with EncodeQuery, so search qualifiers reach GitHub verbatim. Any
// failure is a *TransportError.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	ref := strings.TrimPrefix(path, "/")
	if q := EncodeQuery(params); q != "" {
		ref += "?" + q
	}
	endpoint := Endpoint(path)

	req, err := c.api.NewRequest(http.MethodGet, ref, nil)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, outcomeNetworkError).Inc()
		return nil, &TransportError{Method: http.MethodGet, Path: path, URL: c.BaseURL() + ref, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	start := time.Now()
	var raw json.RawMessage
	resp, err := c.api.Do(ctx, req, &raw)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		terr := newTransportError(req, path, resp, err)
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, terr.outcome()).Inc()
		c.logger.Debug("github request failed", "endpoint", endpoint, "status", terr.StatusCode, "error", terr)
		return nil, terr
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, outcomeOK).Inc()
	if resp != nil && resp.Rate.Limit > 0 {
		c.logger.Debug("github request", "endpoint", endpoint, "rate_remaining", resp.Rate.Remaining)
	}
	return raw, nil
}
