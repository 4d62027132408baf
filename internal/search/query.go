// Package search derives GitHub user queries from the list filters, tracks
// pagination, mirrors both into shareable URL parameters and normalizes the
// two upstream listing shapes into one table model.
package search

import "strings"

const (
	// locationQualifier is GitHub's search qualifier for the profile location.
	locationQualifier = "location:"
	// termSeparator joins search terms; it decodes to a space upstream.
	termSeparator = "+"
)

// Filter is the pair of free-text constraints a visitor supplies. An empty
// field is unset.
type Filter struct {
	UserName string `json:"userName"`
	Location string `json:"location"`
}

// IsZero reports whether neither field carries a non-blank value.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.UserName) == "" && strings.TrimSpace(f.Location) == ""
}

// DirectiveKind tells the reconciler which upstream shape to expect.
type DirectiveKind int

const (
	// Unfiltered lists all users through GET /users.
	Unfiltered DirectiveKind = iota
	// Search queries GET /search/users with a q parameter.
	Search
)

func (k DirectiveKind) String() string {
	switch k {
	case Search:
		return "search"
	default:
		return "unfiltered"
	}
}

// Directive is the resolved query intent derived from a Filter.
type Directive struct {
	Kind  DirectiveKind
	Query string
}

// IsSearch reports whether the directive carries a search query.
func (d Directive) IsSearch() bool {
	return d.Kind == Search
}

func (d Directive) String() string {
	if d.Kind == Search {
		return "search(" + d.Query + ")"
	}
	return "unfiltered"
}

// BuildQuery resolves a Filter into exactly one Directive. Whitespace-only
// fields count as blank, so a combined query never ends with a dangling
// qualifier or separator.
func BuildQuery(f Filter) Directive {
	user := strings.TrimSpace(f.UserName)
	loc := strings.TrimSpace(f.Location)

	switch {
	case user != "" && loc != "":
		return Directive{Kind: Search, Query: user + termSeparator + locationQualifier + loc}
	case user != "":
		return Directive{Kind: Search, Query: user}
	case loc != "":
		return Directive{Kind: Search, Query: locationQualifier + loc}
	default:
		return Directive{Kind: Unfiltered}
	}
}
