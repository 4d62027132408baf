package userlist

import (
	"net/url"

	"github.com/ghusers/ghusers/internal/search"
	"github.com/ghusers/ghusers/internal/userdetail"
)

// Status is the list fetch lifecycle.
type Status int

const (
	Idle Status = iota
	Fetching
	Settled
	Failed
)

func (s Status) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// DetailState describes the detail panel.
type DetailState struct {
	Open    bool
	Login   string
	Loading bool
	Err     string
	User    *userdetail.UserDetail
}

// State is a point-in-time copy of everything the controller owns. Result
// and ResultPage always belong to the same response; Filter and Page may
// already be ahead of them while a fetch is pending.
type State struct {
	Status     Status
	Filter     search.Filter
	Page       search.PageRequest
	Directive  search.Directive
	Result     search.ListResult
	ResultPage search.PageRequest
	// Query is the URL mirror of Filter and Page, unrelated keys included.
	Query  url.Values
	Err    string
	Seq    uint64
	Detail DetailState
}

func (s State) clone() State {
	s.Query = search.CloneValues(s.Query)
	return s
}
