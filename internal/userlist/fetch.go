package userlist

import (
	"context"

	"github.com/ghusers/ghusers/internal/search"
)

// FetchPage performs req once and reconciles the payload by the request's
// directive. It is the single path from a ListRequest to a table model,
// shared by the controller, the server-rendered page and the CLI.
func FetchPage(ctx context.Context, transport Transport, req search.ListRequest) (search.ListResult, error) {
	raw, err := transport.Get(ctx, req.Path(), req.Params())
	if err != nil {
		return search.ListResult{}, err
	}
	return search.Reconcile(req.Directive, raw, req.Page.PageSize)
}
