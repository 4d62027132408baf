package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ghusers/ghusers/internal/http/viewmodels"
)

// UserDetailPanel is the side drawer. A closed panel renders as an empty,
// hidden placeholder so it can be swapped in later.
func UserDetailPanel(data viewmodels.UserDetailViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newHTMLWriter(ctx, w)

		hw.raw(`<aside class="drawer"`)
		hw.attr("id", DetailTarget)
		hw.attr("data-open", strconv.FormatBool(data.Open))
		hw.boolAttr("hidden", !data.Open)
		if data.Login != "" {
			hw.attr("data-login", data.Login)
		}
		hw.raw(`>`)
		if !data.Open {
			hw.raw(`</aside>`)
			return hw.err
		}

		hw.raw(`<button type="button" class="drawer-close" data-close-detail aria-label="Close">×</button>`)
		switch {
		case data.Loading:
			hw.raw(`<p class="loading" role="status">Loading `)
			hw.text(data.Login)
			hw.raw(`…</p>`)
		case data.ErrorMsg != "":
			hw.raw(`<p class="alert" role="alert">`)
			hw.text(data.ErrorMsg)
			hw.raw(`</p>`)
		default:
			detailBody(hw, data)
		}
		hw.raw(`</aside>`)
		return hw.err
	})
}

func detailBody(hw *htmlWriter, data viewmodels.UserDetailViewData) {
	hw.raw(`<header>`)
	if data.AvatarURL != "" {
		hw.raw(`<img width="96" height="96" alt=""`)
		hw.url("src", data.AvatarURL)
		hw.raw(`>`)
	}
	hw.raw(`<h2>`)
	if data.Name != "" {
		hw.text(data.Name)
	} else {
		hw.text(data.Login)
	}
	hw.raw(`</h2>`)
	if data.ProfileURL != "" {
		hw.raw(`<a target="_blank" rel="noopener noreferrer"`)
		hw.url("href", data.ProfileURL)
		hw.raw(`>@`)
		hw.text(data.Login)
		hw.raw(`</a>`)
	}
	hw.raw(`</header><dl class="counts"><dt>Followers</dt><dd>`)
	hw.raw(strconv.FormatUint(uint64(data.FollowersCount), 10))
	hw.raw(`</dd><dt>Stars</dt><dd>`)
	hw.raw(strconv.FormatUint(uint64(data.StarsCount), 10))
	hw.raw(`</dd></dl><h3>Repositories</h3>`)

	if len(data.Repos) == 0 {
		hw.raw(`<p class="empty">No public repositories.</p>`)
	} else {
		hw.raw(`<ul class="repos">`)
		for _, repo := range data.Repos {
			hw.raw(`<li><a target="_blank" rel="noopener noreferrer"`)
			hw.url("href", repo.HTMLURL)
			hw.raw(`>`)
			hw.text(repo.Name)
			hw.raw(`</a>`)
			if repo.Description != "" {
				hw.raw(`<p>`)
				hw.text(repo.Description)
				hw.raw(`</p>`)
			}
			hw.raw(`</li>`)
		}
		hw.raw(`</ul>`)
	}

	hw.raw(`<h3>Other details</h3><p class="bio">`)
	if data.Bio != "" {
		hw.text(data.Bio)
	} else {
		hw.raw(`No bio.`)
	}
	hw.raw(`</p>`)
}
