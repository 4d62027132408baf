// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v5"

	"github.com/ghusers/ghusers/internal/config"
	"github.com/ghusers/ghusers/internal/debounce"
	"github.com/ghusers/ghusers/internal/http/viewmodels"
	"github.com/ghusers/ghusers/internal/userlist"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
	// UpstreamErrorCode marks failures of the GitHub API.
	UpstreamErrorCode = "UPSTREAM_ERROR"
)

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg     config.Config
	GitHub  userlist.Transport
	Details userlist.DetailFetcher
	Logger  *slog.Logger
	// Clock drives live session debouncing; nil uses the wall clock.
	Clock    debounce.Clock
	Upgrader websocket.Upgrader
	// Authenticated reports whether GitHub calls carry a token.
	Authenticated bool
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handlers) pageSize() int {
	if h.Cfg.DefaultPageSize > 0 {
		return h.Cfg.DefaultPageSize
	}
	return 5
}

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c *echo.Context, title string) viewmodels.LayoutData {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	return viewmodels.LayoutData{
		Title:         title,
		ActivePath:    c.Request().URL.Path,
		RequestID:     requestID,
		LiveURL:       "/live",
		Authenticated: h.Authenticated,
	}
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	return h.RenderComponentStatus(c, http.StatusOK, component)
}

// RenderComponentStatus renders a templ component with an explicit status.
func (h *Handlers) RenderComponentStatus(c *echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(status)
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		h.logger().Error("render failed", "request_id", requestIDFrom(c), "error", err)
	}
	return nil
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID := requestIDFrom(c)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	h.logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	return c.String(http.StatusInternalServerError, ErrorMessage("Internal server error.", requestID, InternalErrorCode))
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

// ErrorMessage formats a client-safe message with a request reference.
func ErrorMessage(msg, requestID, code string) string {
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	return fmt.Sprintf("%s Code: %s.", msg, code)
}

func requestIDFrom(c *echo.Context) string {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	return requestID
}
