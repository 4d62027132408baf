package search

import "slices"

// DefaultPageSize is the page size used when none was chosen.
const DefaultPageSize = 5

// PageSizes lists the page sizes the UI offers.
var PageSizes = []int{5, 10, 25}

// PageRequest holds the zero-based page index shown to the visitor and the
// page size. The upstream API is 1-based; see APIPage.
type PageRequest struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// NewPageRequest returns the first page at the given size.
func NewPageRequest(size int) PageRequest {
	return PageRequest{PageIndex: 0, PageSize: size}
}

// SetPage moves to the given zero-based page.
func (p *PageRequest) SetPage(index int) {
	if index < 0 {
		index = 0
	}
	p.PageIndex = index
}

// SetPageSize changes the page size and always returns to the first page,
// since prior offsets are meaningless at a different size.
func (p *PageRequest) SetPageSize(size int) {
	p.PageSize = size
	p.PageIndex = 0
}

// APIPage is the 1-based page number sent upstream.
func (p PageRequest) APIPage() int {
	return p.PageIndex + 1
}

// Offset is the number of rows before the current page.
func (p PageRequest) Offset() int {
	return p.PageIndex * p.PageSize
}

// ClampPageSize maps untrusted input onto the allowed page sizes. Only the
// input boundary calls this; the core trusts its callers.
func ClampPageSize(size int) int {
	if slices.Contains(PageSizes, size) {
		return size
	}
	return DefaultPageSize
}

// PageCount returns the number of pages needed for total rows, at least 1.
func PageCount(total, size int) int {
	if size < 1 {
		size = 1
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}
