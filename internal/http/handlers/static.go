package handlers

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v5"
)

//go:embed static/app.js
var appJS []byte

// HandleAppJS serves the live client script.
func (h *Handlers) HandleAppJS(c *echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.Blob(http.StatusOK, "text/javascript; charset=utf-8", appJS)
}
