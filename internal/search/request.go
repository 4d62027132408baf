package search

import (
	"net/url"
	"strconv"
)

// Upstream listing endpoints.
const (
	UsersPath       = "/users"
	SearchUsersPath = "/search/users"
)

// ListRequest is everything needed to issue one upstream listing call. The
// directive travels with the request so the response can be reconciled by
// intent rather than by guessing from the payload shape.
type ListRequest struct {
	Directive Directive
	Page      PageRequest
}

// NewListRequest builds the request for the current filter and page.
func NewListRequest(f Filter, p PageRequest) ListRequest {
	return ListRequest{Directive: BuildQuery(f), Page: p}
}

// Path returns the upstream endpoint for the directive.
func (r ListRequest) Path() string {
	if r.Directive.IsSearch() {
		return SearchUsersPath
	}
	return UsersPath
}

// Params returns the upstream query parameters. The q value keeps its literal
// '+' and ':'; the transport is responsible for not escaping them.
func (r ListRequest) Params() url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(r.Page.APIPage()))
	params.Set("per_page", strconv.Itoa(r.Page.PageSize))
	if r.Directive.IsSearch() {
		params.Set("q", r.Directive.Query)
	}
	return params
}
