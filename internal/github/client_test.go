package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Options{BaseURL: srv.URL, Token: token})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestGetSendsBearerTokenAndLiteralSearchQuery(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath, gotRawQuery, gotVersion string
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotRawQuery = r.URL.RawQuery
		gotVersion = r.Header.Get("X-GitHub-Api-Version")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count":1,"items":[{"login":"ada"}]}`))
	})

	params := url.Values{}
	params.Set("q", "ada+location:london")
	params.Set("page", "1")
	params.Set("per_page", "5")

	raw, err := client.Get(context.Background(), "/search/users", params)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotPath != "/search/users" {
		t.Fatalf("path = %q", gotPath)
	}
	if want := "page=1&per_page=5&q=ada+location:london"; gotRawQuery != want {
		t.Fatalf("raw query = %q, want %q", gotRawQuery, want)
	}
	if gotVersion != apiVersion {
		t.Fatalf("X-GitHub-Api-Version = %q", gotVersion)
	}
	if !strings.Contains(string(raw), `"total_count":1`) {
		t.Fatalf("raw = %s", raw)
	}
	if !client.Authenticated() {
		t.Fatalf("expected authenticated client")
	}
}

func TestGetWithoutTokenIsUnauthenticated(t *testing.T) {
	t.Parallel()

	var gotAuth string
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := client.Get(context.Background(), "/users", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want empty", gotAuth)
	}
	if client.Authenticated() {
		t.Fatalf("expected unauthenticated client")
	}
}

func TestGetNon2xxIsTransportError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-GitHub-Request-Id", "ABCD:1234")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`))
	})

	_, err := client.Get(context.Background(), UserPath("nobody"), nil)
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %T %v, want *TransportError", err, err)
	}
	if terr.StatusCode != http.StatusNotFound || !terr.NotFound() || !IsNotFound(err) {
		t.Fatalf("StatusCode = %d", terr.StatusCode)
	}
	msg := err.Error()
	for _, want := range []string{"github GET /users/nobody", "Not Found", "request_id=ABCD:1234", "docs: https://docs.github.com/rest"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %q", msg, want)
		}
	}
	if terr.outcome() != outcomeHTTPError {
		t.Fatalf("outcome = %q", terr.outcome())
	}
}

func TestGetRateLimitedIsTransportError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	})

	_, err := client.Get(context.Background(), "/users", url.Values{"page": {"1"}})
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %T %v, want *TransportError", err, err)
	}
	if !terr.RateLimit {
		t.Fatalf("expected rate limit flag: %v", err)
	}
	if terr.outcome() != outcomeRateLimited {
		t.Fatalf("outcome = %q", terr.outcome())
	}
	if !strings.Contains(err.Error(), "rate_remaining=0") {
		t.Fatalf("error %q missing rate details", err.Error())
	}
}

func TestGetCanceledContext(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/users", nil)
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %T %v, want *TransportError", err, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain: %v", err)
	}
	if terr.StatusCode != 0 {
		t.Fatalf("StatusCode = %d, want 0", terr.StatusCode)
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
	if _, err := New(Options{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatalf("expected error for non-http base URL")
	}
	client, err := New(Options{BaseURL: "https://ghe.example.com/api/v3/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.BaseURL() != "https://ghe.example.com/api/v3/" {
		t.Fatalf("BaseURL() = %q", client.BaseURL())
	}
}

type countingTransport struct {
	calls int
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return c.next.RoundTrip(r)
}

func TestNewUsesSuppliedHTTPClientWithoutMutatingIt(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count":0,"items":[]}`))
	}))
	t.Cleanup(srv.Close)

	rt := &countingTransport{next: http.DefaultTransport}
	supplied := &http.Client{Transport: rt}

	client, err := New(Options{BaseURL: srv.URL, HTTPClient: supplied})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if supplied.Timeout != 0 {
		t.Fatalf("supplied client timeout = %v, want unchanged 0", supplied.Timeout)
	}

	if _, err := client.Get(context.Background(), "/search/users", url.Values{"q": {"ada"}}); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rt.calls != 1 {
		t.Fatalf("transport calls = %d, want 1", rt.calls)
	}
}
