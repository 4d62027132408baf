package views

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

const (
	// ResultsTarget is the element id swapped by list fragments.
	ResultsTarget = "users-results"
	// DetailTarget is the element id swapped by detail fragments.
	DetailTarget = "user-detail"
	// FiltersFormID is the filter form, also owner of the page size select.
	FiltersFormID = "users-filters"

	filterTrigger = "input changed delay:500ms from:input[name='search'], input changed delay:500ms from:input[name='loc'], submit"
	htmxScriptURL = "https://unpkg.com/htmx.org@2.0.4"
	appScriptURL  = "/static/app.js"
)

// UsersListURL returns the list page URL for query.
func UsersListURL(query url.Values) string {
	if encoded := query.Encode(); encoded != "" {
		return "/?" + encoded
	}
	return "/"
}

// UserDetailURL returns the detail fragment URL for login.
func UserDetailURL(login string) string {
	return "/users/" + url.PathEscape(login)
}

type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) number(n int) {
	hw.raw(strconv.Itoa(n))
}

func (hw *htmlWriter) attr(name, value string) {
	hw.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// url writes an attribute whose value passed templ's URL sanitizer.
func (hw *htmlWriter) url(name, value string) {
	hw.attr(name, string(templ.URL(value)))
}

func (hw *htmlWriter) boolAttr(name string, on bool) {
	if on {
		hw.raw(" " + name)
	}
}

func (hw *htmlWriter) component(c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(hw.ctx, hw.w)
}

func (hw *htmlWriter) hxGet(href, target string) {
	hw.attr("hx-get", href)
	hw.attr("hx-target", "#"+target)
	hw.attr("hx-swap", "outerHTML")
}
