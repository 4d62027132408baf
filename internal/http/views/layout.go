package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ghusers/ghusers/internal/http/viewmodels"
)

func Layout(data viewmodels.LayoutData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newHTMLWriter(ctx, w)

		title := "GitHub users"
		if data.Title != "" {
			title = data.Title + " · GitHub users"
		}

		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(title)
		hw.raw(`</title>`)
		if data.RequestID != "" {
			hw.raw(`<meta name="request-id"`)
			hw.attr("content", data.RequestID)
			hw.raw(`>`)
		}
		hw.raw(`<script defer`)
		hw.attr("src", htmxScriptURL)
		hw.raw(`></script><script defer`)
		hw.attr("src", appScriptURL)
		hw.raw(`></script></head><body`)
		if data.LiveURL != "" {
			hw.attr("data-live-url", data.LiveURL)
		}
		hw.raw(`>`)
		if !data.Authenticated {
			hw.raw(`<p class="notice" role="status">Unauthenticated GitHub access: requests are limited to 60 per hour.</p>`)
		}
		hw.component(body)
		hw.raw(`</body></html>`)
		return hw.err
	})
}
