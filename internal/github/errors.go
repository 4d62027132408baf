package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v51/github"
)

const (
	outcomeOK           = "ok"
	outcomeHTTPError    = "http_error"
	outcomeRateLimited  = "rate_limited"
	outcomeNetworkError = "network_error"
	outcomeCanceled     = "canceled"
)

// TransportError is returned for every failed request: non-2xx responses,
// rate limiting and network failures alike. StatusCode is zero when no
// response was received.
type TransportError struct {
	Method     string
	Path       string
	URL        string
	StatusCode int
	Status     string
	Message    string
	Details    string
	RateLimit  bool
	Err        error
}

func (e *TransportError) Error() string {
	prefix := fmt.Sprintf("github %s %s", e.Method, e.Path)
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", prefix, e.Err)
		}
		return prefix + ": request failed"
	}

	status := e.Status
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}
	switch {
	case e.Message != "" && e.Details != "":
		return fmt.Sprintf("%s: %s: %s (%s)", prefix, status, e.Message, e.Details)
	case e.Message != "":
		return fmt.Sprintf("%s: %s: %s", prefix, status, e.Message)
	case e.Details != "":
		return fmt.Sprintf("%s: %s (%s)", prefix, status, e.Details)
	default:
		return fmt.Sprintf("%s: %s", prefix, status)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFound reports whether upstream answered 404.
func (e *TransportError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *TransportError) outcome() string {
	switch {
	case e.RateLimit:
		return outcomeRateLimited
	case errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded):
		return outcomeCanceled
	case e.StatusCode == 0:
		return outcomeNetworkError
	default:
		return outcomeHTTPError
	}
}

// IsNotFound reports whether err is a TransportError for a 404.
func IsNotFound(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr) && terr.NotFound()
}

func newTransportError(req *http.Request, path string, resp *gh.Response, err error) *TransportError {
	terr := &TransportError{
		Method: req.Method,
		Path:   path,
		URL:    req.URL.String(),
		Err:    err,
	}

	var httpResp *http.Response
	if resp != nil {
		httpResp = resp.Response
	}

	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr):
		terr.RateLimit = true
		terr.Message = rateErr.Message
		if httpResp == nil {
			httpResp = rateErr.Response
		}
	case errors.As(err, &abuseErr):
		terr.RateLimit = true
		terr.Message = abuseErr.Message
		if httpResp == nil {
			httpResp = abuseErr.Response
		}
	case errors.As(err, &respErr):
		terr.Message = respErr.Message
		if respErr.DocumentationURL != "" && terr.Message != "" {
			terr.Message = fmt.Sprintf("%s (docs: %s)", respErr.Message, respErr.DocumentationURL)
		}
		if httpResp == nil {
			httpResp = respErr.Response
		}
	}

	if httpResp == nil {
		return terr
	}
	terr.StatusCode = httpResp.StatusCode
	terr.Status = httpResp.Status
	if httpResp.StatusCode == http.StatusTooManyRequests {
		terr.RateLimit = true
	}
	if terr.Message == "" && httpResp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
		terr.Message = extractErrorMessage(body)
	}
	terr.Details = formatErrorDetails(terr.URL, httpResp)
	return terr
}

func extractErrorMessage(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return ""
	}
	// HTML error pages mean the base URL points somewhere other than the API.
	if strings.HasPrefix(msg, "<!DOCTYPE html") || strings.HasPrefix(msg, "<html") {
		return ""
	}

	msg = strings.Join(strings.Fields(msg), " ")
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "…"
	}
	return msg
}

func formatErrorDetails(reqURL string, resp *http.Response) string {
	var parts []string

	if v := safeURL(reqURL); v != "" {
		parts = append(parts, "url="+v)
	}
	if v := resp.Header.Get("X-GitHub-Request-Id"); v != "" {
		parts = append(parts, "request_id="+v)
	}
	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		parts = append(parts, "rate_remaining="+v)
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		parts = append(parts, "rate_reset="+v)
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		parts = append(parts, "retry_after="+v)
	}

	return strings.Join(parts, ", ")
}

// safeURL drops userinfo and fragments before a URL reaches logs.
func safeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.RawQuery != "" {
		return u.Scheme + "://" + u.Host + u.Path + "?" + u.RawQuery
	}
	return u.Scheme + "://" + u.Host + u.Path
}
