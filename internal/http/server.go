package httpapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/ghusers/ghusers/internal/config"
	"github.com/ghusers/ghusers/internal/http/handlers"
	"github.com/ghusers/ghusers/internal/userlist"
)

const headerRequestID = "X-Request-ID"

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	GitHub        userlist.Transport
	Details       userlist.DetailFetcher
	Logger        *slog.Logger
	Authenticated bool
}

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, deps Deps) (*EchoServer, error) {
	if deps.GitHub == nil {
		return nil, errors.New("github transport is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers.Handlers{
		Cfg:           cfg,
		GitHub:        deps.GitHub,
		Details:       deps.Details,
		Logger:        logger,
		Authenticated: deps.Authenticated,
	}
	e := echo.New()
	e.Logger = logger

	es := &EchoServer{h: h, e: e}
	e.HTTPErrorHandler = es.httpErrorHandler
	e.Use(requestIDMiddleware)
	e.Use(middleware.Recover())
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	es.e.GET("/", es.h.HandleUsersPage)
	es.e.GET("/users/:login", es.h.HandleUserDetail)
	es.e.GET("/live", es.h.HandleLive)

	api := es.e.Group("/api")
	api.GET("/users", es.h.HandleAPIUsers)
	api.GET("/users/:login", es.h.HandleAPIUserDetail)

	es.e.GET("/static/app.js", es.h.HandleAppJS)
}

// Handler returns the root http.Handler.
func (es *EchoServer) Handler() http.Handler {
	return es.e
}

func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		requestID := strings.TrimSpace(c.Request().Header.Get(headerRequestID))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, requestID)
		c.Response().Header().Set(headerRequestID, requestID)
		return next(c)
	}
}

type statusCoder interface {
	StatusCode() int
}

func httpStatusFromError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != 0 {
		return he.Code
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code != 0 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// httpErrorHandler never echoes error text back to the client.
func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	status := httpStatusFromError(err)
	switch {
	case status == http.StatusNotFound:
		_ = handlers.RenderNotFound(c)
	case status >= http.StatusInternalServerError:
		_ = es.h.RenderError(c, err)
	default:
		_ = c.String(status, http.StatusText(status))
	}
}
