package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/ghusers/ghusers/internal/github"
	"github.com/ghusers/ghusers/internal/http/viewmodels"
	"github.com/ghusers/ghusers/internal/http/views"
	"github.com/ghusers/ghusers/internal/search"
	"github.com/ghusers/ghusers/internal/userdetail"
	"github.com/ghusers/ghusers/internal/userlist"
)

const (
	upstreamTimeout = 15 * time.Second

	listErrorMsg       = "Could not load users. Showing the last results."
	listEmptyMsg       = "No users found."
	listFailedEmptyMsg = "Could not load users."
	detailErrorMsg     = "Could not load this user."
)

// HandleUsersPage renders the users page. The URL is the source of truth:
// filter and page come from the query string and the first result page is
// rendered on the server. htmx requests targeting the results get only the
// results fragment.
func (h *Handlers) HandleUsersPage(c *echo.Context) error {
	addVary(c, "HX-Request", "HX-Target")

	query := search.CloneValues(c.Request().URL.Query())
	st := h.loadUsersState(c, query)

	data := h.usersView(c, st)
	if isHX(c) && isHXTarget(c, views.ResultsTarget) {
		setHXPushURL(c, views.UsersListURL(st.Query))
		return h.RenderComponent(c, views.UsersPageResults(data))
	}
	return h.RenderComponent(c, views.UsersPage(data))
}

// loadUsersState fetches the page described by query. A failed fetch yields
// a Failed state with no rows.
func (h *Handlers) loadUsersState(c *echo.Context, query url.Values) userlist.State {
	filter := search.FilterFromURL(query)
	page := search.PageFromURL(query, h.pageSize())
	search.ApplyFilter(query, filter)
	search.ApplyPage(query, page, h.pageSize())

	st := userlist.State{
		Status:     userlist.Settled,
		Filter:     filter,
		Page:       page,
		ResultPage: page,
		Query:      query,
		Directive:  search.BuildQuery(filter),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()
	result, err := userlist.FetchPage(ctx, h.GitHub, search.NewListRequest(filter, page))
	if err != nil {
		h.logger().Warn("user list fetch failed", "request_id", requestIDFrom(c), "directive", st.Directive.String(), "error", err)
		st.Status = userlist.Failed
		st.Err = err.Error()
		return st
	}
	st.Result = result
	return st
}

// HandleUserDetail renders the detail drawer for one login, either as an
// htmx fragment or as the users page with the drawer open.
func (h *Handlers) HandleUserDetail(c *echo.Context) error {
	addVary(c, "HX-Request", "HX-Target")

	login := strings.TrimSpace(c.Param("login"))
	if login == "" {
		return RenderNotFound(c)
	}

	detail := userlist.DetailState{Open: true, Login: login}
	status := http.StatusOK
	if h.Details == nil {
		detail.Err = "detail fetching is not configured"
	} else {
		ctx, cancel := context.WithTimeout(c.Request().Context(), upstreamTimeout)
		defer cancel()
		d, err := h.Details.Fetch(ctx, login)
		switch {
		case github.IsNotFound(err):
			detail.Err = err.Error()
			status = http.StatusNotFound
		case err != nil:
			h.logger().Warn("user detail fetch failed", "request_id", requestIDFrom(c), "login", login, "error", err)
			detail.Err = err.Error()
			status = http.StatusBadGateway
		default:
			detail.User = &d
		}
	}

	view := detailView(detail)
	if isHX(c) {
		return h.RenderComponentStatus(c, status, views.UserDetailPanel(view))
	}

	data := h.usersView(c, h.loadUsersState(c, search.CloneValues(c.Request().URL.Query())))
	data.Layout.Title = login
	data.Detail = view
	return h.RenderComponentStatus(c, status, views.UsersPage(data))
}

type apiUsersResponse struct {
	Rows       []search.UserSummary `json:"rows"`
	TotalCount int                  `json:"totalCount"`
	Page       search.PageRequest   `json:"page"`
	TotalPages int                  `json:"totalPages"`
	Directive  string               `json:"directive"`
	Query      string               `json:"query"`
}

// HandleAPIUsers returns one reconciled page as JSON.
func (h *Handlers) HandleAPIUsers(c *echo.Context) error {
	values := c.QueryParams()
	filter := search.FilterFromURL(values)
	page := search.PageFromURL(values, h.pageSize())
	req := search.NewListRequest(filter, page)

	ctx, cancel := context.WithTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()
	result, err := userlist.FetchPage(ctx, h.GitHub, req)
	if err != nil {
		return h.apiUpstreamError(c, err)
	}

	canonical := url.Values{}
	search.ApplyFilter(canonical, filter)
	search.ApplyPage(canonical, page, h.pageSize())
	return c.JSON(http.StatusOK, apiUsersResponse{
		Rows:       result.Rows,
		TotalCount: result.TotalCount,
		Page:       page,
		TotalPages: search.PageCount(result.TotalCount, page.PageSize),
		Directive:  req.Directive.String(),
		Query:      canonical.Encode(),
	})
}

// HandleAPIUserDetail returns the detail model for one login as JSON.
func (h *Handlers) HandleAPIUserDetail(c *echo.Context) error {
	login := strings.TrimSpace(c.Param("login"))
	if login == "" || h.Details == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()
	d, err := h.Details.Fetch(ctx, login)
	if err != nil {
		return h.apiUpstreamError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// HandleHealthz reports liveness.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *Handlers) apiUpstreamError(c *echo.Context, err error) error {
	if github.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}

	requestID := requestIDFrom(c)
	h.logger().Warn("github request failed", "request_id", requestID, "path", c.Request().URL.Path, "error", err)

	status := http.StatusBadGateway
	var terr *github.TransportError
	if errors.As(err, &terr) && terr.RateLimit {
		status = http.StatusTooManyRequests
	}
	return c.JSON(status, map[string]string{
		"error":      "upstream request failed",
		"code":       UpstreamErrorCode,
		"request_id": requestID,
	})
}

// usersView maps controller state onto the page view model. Rows are
// numbered from the page the result was fetched for.
func (h *Handlers) usersView(c *echo.Context, st userlist.State) viewmodels.UsersViewData {
	data := viewmodels.UsersViewData{
		UserName:       st.Filter.UserName,
		Location:       st.Filter.Location,
		Status:         st.Status.String(),
		HasUsers:       len(st.Result.Rows) > 0,
		CanonicalQuery: st.Query.Encode(),
		Detail:         detailView(st.Detail),
	}
	if c != nil {
		data.Layout = h.LayoutData(c, "")
	}

	resultPage := st.ResultPage
	if resultPage.PageSize == 0 {
		resultPage = st.Page
	}
	data.Rows = make([]viewmodels.UserRow, 0, len(st.Result.Rows))
	for i, u := range st.Result.Rows {
		data.Rows = append(data.Rows, viewmodels.UserRow{
			Number:     resultPage.Offset() + i + 1,
			Login:      u.Login,
			AvatarURL:  u.AvatarURL,
			ProfileURL: u.ProfileURL,
			DetailHref: views.UserDetailURL(u.Login),
		})
	}
	data.Pager = buildPager(st.Query, resultPage, st.Result, h.pageSize())

	switch {
	case st.Err != "" && data.HasUsers:
		data.ErrorMsg = listErrorMsg
	case st.Err != "":
		data.ErrorMsg = listFailedEmptyMsg
	}
	switch {
	case st.Status == userlist.Idle && !data.HasUsers:
		data.EmptyStateMsg = "Type a name or location to search."
	case st.Status == userlist.Fetching && !data.HasUsers:
		data.EmptyStateMsg = "Loading…"
	default:
		data.EmptyStateMsg = listEmptyMsg
	}
	return data
}

func detailView(d userlist.DetailState) viewmodels.UserDetailViewData {
	out := viewmodels.UserDetailViewData{
		Open:    d.Open,
		Loading: d.Loading,
		Login:   d.Login,
	}
	if d.Err != "" {
		out.ErrorMsg = detailErrorMsg
	}
	if d.User == nil {
		return out
	}
	return mergeDetail(out, *d.User)
}

func mergeDetail(out viewmodels.UserDetailViewData, u userdetail.UserDetail) viewmodels.UserDetailViewData {
	if u.Login != "" {
		out.Login = u.Login
	}
	out.Name = u.Name
	out.AvatarURL = u.AvatarURL
	out.ProfileURL = u.ProfileURL
	out.FollowersCount = u.FollowersCount
	out.StarsCount = u.StarsCount
	out.Bio = u.Bio
	out.Repos = make([]viewmodels.RepoItem, 0, len(u.Repos))
	for _, r := range u.Repos {
		out.Repos = append(out.Repos, viewmodels.RepoItem{Name: r.Name, Description: r.Description, HTMLURL: r.HTMLURL})
	}
	return out
}
