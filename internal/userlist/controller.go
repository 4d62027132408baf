// Package userlist coordinates the users table: it turns filter, page and
// navigation events into debounced upstream fetches, keeps the URL mirror in
// sync and lets only the newest response update visible state.
//
// A Controller is an actor. Run owns all state on a single goroutine; the
// exported methods hand events to it and wait for them to be applied.
package userlist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghusers/ghusers/internal/debounce"
	"github.com/ghusers/ghusers/internal/metrics"
	"github.com/ghusers/ghusers/internal/search"
	"github.com/ghusers/ghusers/internal/userdetail"
)

var (
	// ErrClosed is returned by event methods once Run has returned.
	ErrClosed = errors.New("userlist: controller closed")
	// ErrNoDetails is returned by OpenDetail when no DetailFetcher is set.
	ErrNoDetails = errors.New("userlist: detail fetching is not configured")
	errRunning   = errors.New("userlist: controller already running")
)

// Transport performs one upstream GET.
type Transport interface {
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

// DetailFetcher loads the detail panel for a login.
type DetailFetcher interface {
	Fetch(ctx context.Context, login string) (userdetail.UserDetail, error)
}

// Options configures a Controller. Zero values pick the defaults.
type Options struct {
	QuietPeriod time.Duration
	// PageSize is the starting page size and the size omitted from the URL.
	PageSize int
	Clock    debounce.Clock
	Logger   *slog.Logger
	// Initial seeds Filter and Page from a URL query, as on first load.
	Initial url.Values
	// LoadOnStart fetches the seeded page as soon as Run starts, without
	// waiting for the quiet period.
	LoadOnStart bool

	// OnChange receives every published state on the Run goroutine. It must
	// not call back into the Controller.
	OnChange   func(State)
	OnDispatch func(seq uint64, req search.ListRequest)
	OnDiscard  func(seq uint64)
}

type command struct {
	apply func()
	done  chan struct{}
}

type listResult struct {
	seq    uint64
	req    search.ListRequest
	result search.ListResult
	err    error
}

type detailResult struct {
	seq    uint64
	login  string
	detail userdetail.UserDetail
	err    error
}

// Controller is the list coordination state machine.
type Controller struct {
	transport Transport
	details   DetailFetcher
	opts      Options
	logger    *slog.Logger
	sched     *debounce.Scheduler

	commands      chan command
	listResults   chan listResult
	detailResults chan detailResult
	stopped       chan struct{}
	running       atomic.Bool
	inflight      sync.WaitGroup

	// Owned by the Run goroutine.
	ctx         context.Context
	state       State
	seq         uint64
	appliedSeq  uint64
	detailSeq   uint64
	defaultSize int
}

// New returns a Controller. details may be nil, in which case OpenDetail
// fails with ErrNoDetails.
func New(transport Transport, details DetailFetcher, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := opts.PageSize
	if size <= 0 {
		size = search.DefaultPageSize
	}

	c := &Controller{
		transport:     transport,
		details:       details,
		opts:          opts,
		logger:        logger,
		sched:         debounce.New(opts.QuietPeriod, opts.Clock),
		commands:      make(chan command),
		listResults:   make(chan listResult),
		detailResults: make(chan detailResult),
		stopped:       make(chan struct{}),
		defaultSize:   size,
	}

	c.state.Query = search.CloneValues(opts.Initial)
	c.state.Filter = search.FilterFromURL(c.state.Query)
	c.state.Page = search.PageFromURL(c.state.Query, size)
	c.state.Directive = search.BuildQuery(c.state.Filter)
	return c
}

// Run processes events until ctx is done. In-flight fetches are abandoned
// through ctx and awaited before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errRunning
	}
	c.ctx = ctx
	defer func() {
		c.sched.Stop()
		close(c.stopped)
		c.inflight.Wait()
	}()

	if c.opts.LoadOnStart {
		c.dispatchList()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.commands:
			cmd.apply()
			close(cmd.done)
		case gen := <-c.sched.C():
			c.sched.Fire(gen)
		case res := <-c.listResults:
			c.applyList(res)
		case res := <-c.detailResults:
			c.applyDetail(res)
		}
	}
}

// SetFilter replaces both filter fields.
func (c *Controller) SetFilter(f search.Filter) error {
	return c.exec(func() { c.setFilter(f) })
}

// SetUserName replaces the user name filter, keeping the location.
func (c *Controller) SetUserName(name string) error {
	return c.exec(func() {
		f := c.state.Filter
		f.UserName = name
		c.setFilter(f)
	})
}

// SetLocation replaces the location filter, keeping the user name.
func (c *Controller) SetLocation(loc string) error {
	return c.exec(func() {
		f := c.state.Filter
		f.Location = loc
		c.setFilter(f)
	})
}

// SetPage moves to a zero-based page index.
func (c *Controller) SetPage(index int) error {
	return c.exec(func() {
		next := c.state.Page
		next.SetPage(index)
		c.setPage(next)
	})
}

// SetPageSize changes the page size and returns to the first page. The size
// is trusted; callers clamp untrusted input with search.ClampPageSize.
func (c *Controller) SetPageSize(size int) error {
	return c.exec(func() {
		next := c.state.Page
		next.SetPageSize(size)
		c.setPage(next)
	})
}

// Navigate applies an externally observed URL change, such as back/forward.
// Filter and Page are re-derived from values; the URL is not rewritten.
func (c *Controller) Navigate(values url.Values) error {
	return c.exec(func() {
		query := search.CloneValues(values)
		f := search.FilterFromURL(query)
		p := search.PageFromURL(query, c.defaultSize)

		changed := f != c.state.Filter || p != c.state.Page
		c.state.Query = query
		c.state.Filter = f
		c.state.Page = p
		if changed {
			c.sched.Schedule(c.dispatchList)
		}
		c.publish()
	})
}

// OpenDetail opens the detail panel for login and fetches it. Opening
// another login or closing the panel invalidates the pending fetch.
func (c *Controller) OpenDetail(login string) error {
	if c.details == nil {
		return ErrNoDetails
	}
	login = strings.TrimSpace(login)
	if login == "" {
		return errors.New("userlist: login is required")
	}
	return c.exec(func() { c.openDetail(login) })
}

// CloseDetail closes the detail panel and discards its data.
func (c *Controller) CloseDetail() error {
	return c.exec(func() {
		c.detailSeq++
		c.state.Detail = DetailState{}
		c.publish()
	})
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() (State, error) {
	var out State
	err := c.exec(func() { out = c.state.clone() })
	return out, err
}

func (c *Controller) exec(fn func()) error {
	cmd := command{apply: fn, done: make(chan struct{})}
	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return ErrClosed
	}
	<-cmd.done
	return nil
}

func (c *Controller) setFilter(f search.Filter) {
	if f == c.state.Filter {
		return
	}
	c.state.Filter = f
	search.ApplyFilter(c.state.Query, f)
	c.sched.Schedule(c.dispatchList)
	c.publish()
}

func (c *Controller) setPage(p search.PageRequest) {
	if p == c.state.Page {
		return
	}
	c.state.Page = p
	search.ApplyPage(c.state.Query, p, c.defaultSize)
	c.sched.Schedule(c.dispatchList)
	c.publish()
}

// dispatchList runs when the quiet period ends. It reads the state current at
// that moment, so a burst of edits produces one request for the last edit.
func (c *Controller) dispatchList() {
	c.seq++
	seq := c.seq
	req := search.NewListRequest(c.state.Filter, c.state.Page)

	c.state.Status = Fetching
	c.state.Directive = req.Directive
	c.state.Seq = seq

	metrics.DebouncedFetchesTotal.WithLabelValues(req.Directive.Kind.String()).Inc()
	c.logger.Debug("dispatching user list fetch", "seq", seq, "directive", req.Directive.String(), "page", req.Page.APIPage(), "per_page", req.Page.PageSize)
	if c.opts.OnDispatch != nil {
		c.opts.OnDispatch(seq, req)
	}
	c.publish()

	ctx := c.ctx
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		res := listResult{seq: seq, req: req}
		res.result, res.err = FetchPage(ctx, c.transport, req)

		select {
		case c.listResults <- res:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) applyList(res listResult) {
	if res.seq <= c.appliedSeq {
		metrics.StaleResponsesTotal.WithLabelValues("list").Inc()
		c.logger.Debug("discarding stale user list response", "seq", res.seq, "applied_seq", c.appliedSeq)
		if c.opts.OnDiscard != nil {
			c.opts.OnDiscard(res.seq)
		}
		return
	}
	c.appliedSeq = res.seq
	latest := res.seq == c.seq

	if res.err != nil {
		c.logger.Warn("user list fetch failed", "seq", res.seq, "directive", res.req.Directive.String(), "error", res.err)
		c.state.Err = res.err.Error()
		if latest {
			c.state.Status = Failed
		}
		c.publish()
		return
	}

	c.state.Result = res.result
	c.state.ResultPage = res.req.Page
	c.state.Err = ""
	if latest {
		c.state.Status = Settled
	}
	c.publish()
}

func (c *Controller) openDetail(login string) {
	c.detailSeq++
	seq := c.detailSeq
	c.state.Detail = DetailState{Open: true, Login: login, Loading: true}
	c.publish()

	ctx := c.ctx
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		d, err := c.details.Fetch(ctx, login)
		select {
		case c.detailResults <- detailResult{seq: seq, login: login, detail: d, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) applyDetail(res detailResult) {
	if res.seq != c.detailSeq {
		metrics.StaleResponsesTotal.WithLabelValues("detail").Inc()
		c.logger.Debug("discarding stale user detail response", "login", res.login, "seq", res.seq)
		return
	}

	c.state.Detail.Loading = false
	if res.err != nil {
		c.logger.Warn("user detail fetch failed", "login", res.login, "error", res.err)
		c.state.Detail.Err = res.err.Error()
		c.publish()
		return
	}
	d := res.detail
	c.state.Detail.User = &d
	c.publish()
}

func (c *Controller) publish() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.state.clone())
	}
}
