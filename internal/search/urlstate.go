package search

import (
	"net/url"
	"strconv"
	"strings"
)

// Shareable URL query parameters.
const (
	ParamSearch   = "search"
	ParamLocation = "loc"
	ParamPage     = "page"
	ParamPerPage  = "per_page"
)

// ApplyFilter mirrors f into values: a non-empty field sets its key, an empty
// one deletes it. Unrelated keys are left alone. It reports whether values
// changed, so an unchanged filter is a no-op.
func ApplyFilter(values url.Values, f Filter) bool {
	changed := setOrDelete(values, ParamSearch, f.UserName)
	if setOrDelete(values, ParamLocation, f.Location) {
		changed = true
	}
	return changed
}

// FilterFromURL derives a Filter from the present keys; a missing key yields
// an empty field.
func FilterFromURL(values url.Values) Filter {
	return Filter{
		UserName: values.Get(ParamSearch),
		Location: values.Get(ParamLocation),
	}
}

// ApplyPage mirrors p into values. The page key is 1-based and omitted on the
// first page; per_page is omitted at defaultSize.
func ApplyPage(values url.Values, p PageRequest, defaultSize int) bool {
	page := ""
	if p.PageIndex > 0 {
		page = strconv.Itoa(p.APIPage())
	}
	changed := setOrDelete(values, ParamPage, page)

	size := ""
	if p.PageSize != defaultSize {
		size = strconv.Itoa(p.PageSize)
	}
	if setOrDelete(values, ParamPerPage, size) {
		changed = true
	}
	return changed
}

// PageFromURL derives a PageRequest from the page and per_page keys. Invalid
// or missing values fall back to the first page at defaultSize.
func PageFromURL(values url.Values, defaultSize int) PageRequest {
	p := NewPageRequest(ClampPageSize(defaultSize))
	if raw := strings.TrimSpace(values.Get(ParamPerPage)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && ClampPageSize(n) == n {
			p.PageSize = n
		}
	}
	if raw := strings.TrimSpace(values.Get(ParamPage)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.SetPage(n - 1)
		}
	}
	return p
}

// CloneValues returns a deep copy of values; nil yields an empty map.
func CloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func setOrDelete(values url.Values, key, value string) bool {
	if value == "" {
		if _, ok := values[key]; !ok {
			return false
		}
		values.Del(key)
		return true
	}
	if cur, ok := values[key]; ok && len(cur) == 1 && cur[0] == value {
		return false
	}
	values.Set(key, value)
	return true
}
