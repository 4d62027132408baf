package handlers

import (
	"net/url"

	"github.com/ghusers/ghusers/internal/http/viewmodels"
	"github.com/ghusers/ghusers/internal/http/views"
	"github.com/ghusers/ghusers/internal/search"
)

// buildPager derives the pager for a result fetched at page. The total is
// the reconciled total, which for unfiltered listings is only a bound.
func buildPager(query url.Values, page search.PageRequest, result search.ListResult, defaultSize int) viewmodels.Pager {
	totalPages := search.PageCount(result.TotalCount, page.PageSize)
	from, to := showingRange(result.TotalCount, page.Offset(), len(result.Rows))

	p := viewmodels.Pager{
		PageIndex:   page.PageIndex,
		PageSize:    page.PageSize,
		TotalPages:  totalPages,
		TotalCount:  result.TotalCount,
		ShowingFrom: from,
		ShowingTo:   to,
		HasPrev:     page.PageIndex > 0,
		HasNext:     page.PageIndex+1 < totalPages && len(result.Rows) >= page.PageSize,
	}
	if p.HasPrev {
		p.PrevHref = pageHref(query, page, page.PageIndex-1, defaultSize)
	}
	if p.HasNext {
		p.NextHref = pageHref(query, page, page.PageIndex+1, defaultSize)
	}
	for _, size := range search.PageSizes {
		p.SizeOptions = append(p.SizeOptions, viewmodels.PageSizeOption{Size: size, Selected: size == page.PageSize})
	}
	return p
}

func pageHref(query url.Values, page search.PageRequest, index, defaultSize int) string {
	next := search.CloneValues(query)
	target := page
	target.SetPage(index)
	search.ApplyPage(next, target, defaultSize)
	return views.UsersListURL(next)
}

func showingRange(totalCount, offset, showingCount int) (int, int) {
	if totalCount <= 0 || showingCount <= 0 {
		return 0, 0
	}
	showingFrom := offset + 1
	showingTo := offset + showingCount
	if showingTo > totalCount {
		showingTo = totalCount
	}
	return showingFrom, showingTo
}
