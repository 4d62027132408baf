package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ghusers/ghusers/internal/http/viewmodels"
)

// UsersPage is the full users page.
func UsersPage(data viewmodels.UsersViewData) templ.Component {
	return Layout(data.Layout, usersPageBody(data))
}

func usersPageBody(data viewmodels.UsersViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newHTMLWriter(ctx, w)

		hw.raw(`<main class="users"><h1>GitHub users</h1>`)
		hw.raw(`<form`)
		hw.attr("id", FiltersFormID)
		hw.raw(` action="/" method="get" role="search"`)
		hw.hxGet("/", ResultsTarget)
		hw.attr("hx-push-url", "true")
		hw.attr("hx-trigger", filterTrigger)
		hw.raw(`><label>Username <input type="search" name="search" autocomplete="off"`)
		hw.attr("value", data.UserName)
		hw.raw(`></label><label>Location <input type="search" name="loc" autocomplete="off"`)
		hw.attr("value", data.Location)
		hw.raw(`></label><noscript><button type="submit">Search</button></noscript></form>`)

		hw.component(UsersPageResults(data))
		hw.component(UserDetailPanel(data.Detail))
		hw.raw(`</main>`)
		return hw.err
	})
}

// UsersPageResults is the swappable table and pager fragment.
func UsersPageResults(data viewmodels.UsersViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newHTMLWriter(ctx, w)
		busy := data.Status == "fetching"

		hw.raw(`<section`)
		hw.attr("id", ResultsTarget)
		hw.attr("data-status", data.Status)
		hw.attr("data-query", data.CanonicalQuery)
		hw.attr("aria-busy", strconv.FormatBool(busy))
		hw.raw(`>`)
		if busy {
			hw.raw(`<p class="loading" role="status">Loading…</p>`)
		}
		if data.ErrorMsg != "" {
			hw.raw(`<p class="alert" role="alert">`)
			hw.text(data.ErrorMsg)
			hw.raw(`</p>`)
		}

		hw.raw(`<table class="users-table"><thead><tr><th scope="col">#</th><th scope="col">User</th><th scope="col">Profile</th></tr></thead><tbody>`)
		if !data.HasUsers {
			hw.raw(`<tr><td colspan="3" class="empty">`)
			hw.text(data.EmptyStateMsg)
			hw.raw(`</td></tr>`)
		}
		for _, row := range data.Rows {
			userRow(hw, row)
		}
		hw.raw(`</tbody></table>`)

		pager(hw, data.Pager)
		hw.raw(`</section>`)
		return hw.err
	})
}

func userRow(hw *htmlWriter, row viewmodels.UserRow) {
	hw.raw(`<tr`)
	hw.attr("data-login", row.Login)
	hw.raw(`><td>`)
	hw.number(row.Number)
	hw.raw(`</td><td><a class="user-link"`)
	hw.attr("href", row.DetailHref)
	hw.hxGet(row.DetailHref, DetailTarget)
	hw.attr("data-login", row.Login)
	hw.raw(`>`)
	if row.AvatarURL != "" {
		hw.raw(`<img width="32" height="32" loading="lazy" alt=""`)
		hw.url("src", row.AvatarURL)
		hw.raw(`> `)
	}
	hw.text(row.Login)
	hw.raw(`</a></td><td>`)
	if row.ProfileURL != "" {
		hw.raw(`<a target="_blank" rel="noopener noreferrer"`)
		hw.url("href", row.ProfileURL)
		hw.raw(`>View profile</a>`)
	}
	hw.raw(`</td></tr>`)
}

func pager(hw *htmlWriter, p viewmodels.Pager) {
	hw.raw(`<nav class="pager" aria-label="Pagination"><label>Rows per page <select name="per_page" data-page-size`)
	hw.attr("form", FiltersFormID)
	hw.hxGet("/", ResultsTarget)
	hw.attr("hx-include", "#"+FiltersFormID)
	hw.attr("hx-push-url", "true")
	hw.attr("hx-trigger", "change")
	hw.raw(`>`)
	for _, opt := range p.SizeOptions {
		hw.raw(`<option`)
		hw.attr("value", strconv.Itoa(opt.Size))
		hw.boolAttr("selected", opt.Selected)
		hw.raw(`>`)
		hw.number(opt.Size)
		hw.raw(`</option>`)
	}
	hw.raw(`</select></label><span class="range">`)
	hw.number(p.ShowingFrom)
	hw.raw(`–`)
	hw.number(p.ShowingTo)
	hw.raw(` of `)
	hw.number(p.TotalCount)
	hw.raw(`</span>`)

	pagerLink(hw, "Previous", p.PrevHref, p.PageIndex-1, p.HasPrev)
	hw.raw(`<span class="page">Page `)
	hw.number(p.PageIndex + 1)
	hw.raw(` of `)
	hw.number(p.TotalPages)
	hw.raw(`</span>`)
	pagerLink(hw, "Next", p.NextHref, p.PageIndex+1, p.HasNext)
	hw.raw(`</nav>`)
}

func pagerLink(hw *htmlWriter, label, href string, pageIndex int, enabled bool) {
	if !enabled {
		hw.raw(`<span class="pager-link" aria-disabled="true">`)
		hw.text(label)
		hw.raw(`</span>`)
		return
	}
	hw.raw(`<a class="pager-link"`)
	hw.attr("href", href)
	hw.hxGet(href, ResultsTarget)
	hw.attr("hx-push-url", "true")
	hw.attr("data-page", strconv.Itoa(pageIndex))
	hw.raw(`>`)
	hw.text(label)
	hw.raw(`</a>`)
}
