package userlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ghusers/ghusers/internal/debounce"
	"github.com/ghusers/ghusers/internal/search"
	"github.com/ghusers/ghusers/internal/userdetail"
)

const quiet = 500 * time.Millisecond

type reply struct {
	raw string
	err error
}

type call struct {
	path   string
	params url.Values
	reply  chan reply
}

type fakeTransport struct {
	calls chan call
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{calls: make(chan call, 16)}
}

func (f *fakeTransport) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	c := call{path: path, params: params, reply: make(chan reply, 1)}
	select {
	case f.calls <- c:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-c.reply:
		return json.RawMessage(r.raw), r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) next(t *testing.T) call {
	t.Helper()

	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for upstream call")
		return call{}
	}
}

func (f *fakeTransport) expectNoCall(t *testing.T) {
	t.Helper()

	select {
	case c := <-f.calls:
		t.Fatalf("unexpected upstream call %s?%s", c.path, c.params.Encode())
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeDetails struct {
	calls chan detailCall
}

type detailCall struct {
	login string
	reply chan userdetail.UserDetail
	fail  chan error
}

func (f *fakeDetails) Fetch(ctx context.Context, login string) (userdetail.UserDetail, error) {
	c := detailCall{login: login, reply: make(chan userdetail.UserDetail, 1), fail: make(chan error, 1)}
	select {
	case f.calls <- c:
	case <-ctx.Done():
		return userdetail.UserDetail{}, ctx.Err()
	}
	select {
	case d := <-c.reply:
		return d, nil
	case err := <-c.fail:
		return userdetail.UserDetail{}, err
	case <-ctx.Done():
		return userdetail.UserDetail{}, ctx.Err()
	}
}

func searchPayload(total int, logins ...string) string {
	items := make([]string, 0, len(logins))
	for i, login := range logins {
		items = append(items, fmt.Sprintf(`{"id":%d,"login":%q,"avatar_url":"","html_url":"https://github.com/%s"}`, i+1, login, login))
	}
	return fmt.Sprintf(`{"total_count":%d,"items":[%s]}`, total, strings.Join(items, ","))
}

type harness struct {
	ctrl      *Controller
	clock     *debounce.ManualClock
	transport *fakeTransport
	details   *fakeDetails
	discarded chan uint64
}

func start(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		clock:     debounce.NewManualClock(),
		transport: newFakeTransport(),
		details:   &fakeDetails{calls: make(chan detailCall, 4)},
		discarded: make(chan uint64, 8),
	}
	opts.QuietPeriod = quiet
	opts.Clock = h.clock
	opts.OnDiscard = func(seq uint64) { h.discarded <- seq }
	h.ctrl = New(h.transport, h.details, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Errorf("controller did not stop")
		}
	})
	return h
}

func waitState(t *testing.T, c *Controller, desc string, ok func(State) bool) State {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := c.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if ok(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last state %+v", desc, st)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestKeystrokeBurstProducesOneRequestForLastEdit(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	for _, v := range []string{"t", "to", "tor", "torv"} {
		if err := h.ctrl.SetUserName(v); err != nil {
			t.Fatalf("SetUserName: %v", err)
		}
		h.clock.Advance(100 * time.Millisecond)
	}
	h.transport.expectNoCall(t)

	h.clock.Advance(quiet)
	c := h.transport.next(t)
	if c.path != search.SearchUsersPath || c.params.Get("q") != "torv" {
		t.Fatalf("call = %s %v", c.path, c.params)
	}
	h.transport.expectNoCall(t)

	c.reply <- reply{raw: searchPayload(1, "torvalds")}
	st := waitState(t, h.ctrl, "settled", func(s State) bool { return s.Status == Settled })
	if len(st.Result.Rows) != 1 || st.Result.Rows[0].Login != "torvalds" || st.Result.TotalCount != 1 {
		t.Fatalf("Result = %+v", st.Result)
	}
}

func TestTypingTorvaldsThenLinusShowsLinus(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	if err := h.ctrl.SetUserName("torvalds"); err != nil {
		t.Fatalf("SetUserName: %v", err)
	}
	h.clock.Advance(100 * time.Millisecond)
	if err := h.ctrl.SetUserName("linus"); err != nil {
		t.Fatalf("SetUserName: %v", err)
	}
	h.clock.Advance(quiet)

	c := h.transport.next(t)
	if c.params.Get("q") != "linus" {
		t.Fatalf("q = %q, want linus", c.params.Get("q"))
	}
	c.reply <- reply{raw: searchPayload(3, "linus", "linusg")}

	st := waitState(t, h.ctrl, "settled", func(s State) bool { return s.Status == Settled })
	if st.Query.Encode() != "search=linus" {
		t.Fatalf("Query = %q, want search=linus", st.Query.Encode())
	}
	if st.Result.Rows[0].Login != "linus" || st.Result.TotalCount != 3 {
		t.Fatalf("Result = %+v", st.Result)
	}
	h.transport.expectNoCall(t)
}

func TestStaleResponseNeverReplacesNewer(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.SetUserName("torvalds")
	h.clock.Advance(quiet)
	first := h.transport.next(t)

	_ = h.ctrl.SetUserName("linus")
	h.clock.Advance(quiet)
	second := h.transport.next(t)

	second.reply <- reply{raw: searchPayload(1, "linus")}
	waitState(t, h.ctrl, "second applied", func(s State) bool { return s.Status == Settled })

	first.reply <- reply{raw: searchPayload(1, "torvalds")}
	select {
	case seq := <-h.discarded:
		if seq != 1 {
			t.Fatalf("discarded seq = %d, want 1", seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stale response was not discarded")
	}

	st, _ := h.ctrl.Snapshot()
	if st.Result.Rows[0].Login != "linus" || st.Status != Settled || st.Seq != 2 {
		t.Fatalf("state = %+v", st)
	}
}

func TestOlderResponseKeepsFetchingWhileNewerIsPending(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.SetUserName("ada")
	h.clock.Advance(quiet)
	first := h.transport.next(t)

	_ = h.ctrl.SetUserName("grace")
	h.clock.Advance(quiet)
	second := h.transport.next(t)

	first.reply <- reply{raw: searchPayload(1, "ada")}
	st := waitState(t, h.ctrl, "first applied", func(s State) bool { return len(s.Result.Rows) == 1 })
	if st.Status != Fetching {
		t.Fatalf("Status = %s, want fetching while seq 2 is pending", st.Status)
	}

	second.reply <- reply{raw: searchPayload(1, "grace")}
	st = waitState(t, h.ctrl, "settled", func(s State) bool { return s.Status == Settled })
	if st.Result.Rows[0].Login != "grace" {
		t.Fatalf("Rows = %+v", st.Result.Rows)
	}
}

func TestPageSizeChangeResetsToFirstPage(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.SetPage(3)
	h.clock.Advance(quiet)
	c := h.transport.next(t)
	if c.path != search.UsersPath || c.params.Get("page") != "4" || c.params.Get("per_page") != "5" {
		t.Fatalf("call = %s %v", c.path, c.params)
	}
	c.reply <- reply{raw: `[]`}

	_ = h.ctrl.SetPageSize(25)
	h.clock.Advance(quiet)
	c = h.transport.next(t)
	if c.params.Get("page") != "1" || c.params.Get("per_page") != "25" {
		t.Fatalf("params = %v, want page 1 at 25", c.params)
	}
	c.reply <- reply{raw: `[]`}

	st := waitState(t, h.ctrl, "settled", func(s State) bool { return s.Status == Settled && s.Seq == 2 })
	if st.Page.PageIndex != 0 || st.Query.Get(search.ParamPage) != "" || st.Query.Get(search.ParamPerPage) != "25" {
		t.Fatalf("state = %+v", st)
	}
}

func TestFailureRetainsPriorResult(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.SetUserName("ada")
	h.clock.Advance(quiet)
	h.transport.next(t).reply <- reply{raw: searchPayload(1, "ada")}
	waitState(t, h.ctrl, "settled", func(s State) bool { return s.Status == Settled })

	_ = h.ctrl.SetUserName("grace")
	h.clock.Advance(quiet)
	h.transport.next(t).reply <- reply{err: errors.New("rate limited")}

	st := waitState(t, h.ctrl, "failed", func(s State) bool { return s.Status == Failed })
	if len(st.Result.Rows) != 1 || st.Result.Rows[0].Login != "ada" {
		t.Fatalf("prior result lost: %+v", st.Result)
	}
	if !strings.Contains(st.Err, "rate limited") {
		t.Fatalf("Err = %q", st.Err)
	}
	h.transport.expectNoCall(t)
}

func TestUndecodablePayloadFails(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.SetLocation("oslo")
	h.clock.Advance(quiet)
	c := h.transport.next(t)
	if c.params.Get("q") != "location:oslo" {
		t.Fatalf("q = %q", c.params.Get("q"))
	}
	c.reply <- reply{raw: `[1,2,3]`}
	waitState(t, h.ctrl, "failed", func(s State) bool { return s.Status == Failed })
}

func TestInitialQuerySeedsState(t *testing.T) {
	t.Parallel()

	h := start(t, Options{Initial: url.Values{"search": {"ada"}, "loc": {"london"}, "page": {"2"}, "utm": {"x"}}})

	st, err := h.ctrl.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if st.Filter != (search.Filter{UserName: "ada", Location: "london"}) {
		t.Fatalf("Filter = %+v", st.Filter)
	}
	if st.Page.PageIndex != 1 || st.Status != Idle {
		t.Fatalf("state = %+v", st)
	}
	if st.Directive.Query != "ada+location:london" {
		t.Fatalf("Directive = %+v", st.Directive)
	}
	h.transport.expectNoCall(t)

	_ = h.ctrl.SetLocation("")
	if got, _ := h.ctrl.Snapshot(); got.Query.Encode() != "page=2&search=ada&utm=x" {
		t.Fatalf("Query = %q", got.Query.Encode())
	}
}

func TestNavigateRederivesFilterWithoutRewritingURL(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.SetUserName("ada")
	nav := url.Values{"loc": {"paris"}, "ref": {"back"}}
	if err := h.ctrl.Navigate(nav); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	nav.Set("loc", "mutated")

	st, _ := h.ctrl.Snapshot()
	if st.Filter != (search.Filter{Location: "paris"}) {
		t.Fatalf("Filter = %+v", st.Filter)
	}
	if st.Query.Encode() != "loc=paris&ref=back" {
		t.Fatalf("Query = %q", st.Query.Encode())
	}

	h.clock.Advance(quiet)
	c := h.transport.next(t)
	if c.params.Get("q") != "location:paris" {
		t.Fatalf("q = %q", c.params.Get("q"))
	}
}

func TestUnchangedFilterIsNoop(t *testing.T) {
	t.Parallel()

	var changes int
	h := start(t, Options{OnChange: func(State) { changes++ }})

	_ = h.ctrl.SetFilter(search.Filter{})
	_ = h.ctrl.SetPage(0)
	if _, err := h.ctrl.Snapshot(); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if changes != 0 {
		t.Fatalf("changes = %d, want 0", changes)
	}
	h.clock.Advance(quiet)
	h.transport.expectNoCall(t)
}

func TestDetailResponsesAreSequenceGuarded(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.OpenDetail("alice")
	first := <-h.details.calls
	_ = h.ctrl.OpenDetail("bob")
	second := <-h.details.calls

	st, _ := h.ctrl.Snapshot()
	if !st.Detail.Open || !st.Detail.Loading || st.Detail.Login != "bob" {
		t.Fatalf("Detail = %+v", st.Detail)
	}

	second.reply <- userdetail.UserDetail{Login: "bob"}
	waitState(t, h.ctrl, "bob loaded", func(s State) bool { return s.Detail.User != nil })

	first.reply <- userdetail.UserDetail{Login: "alice"}
	time.Sleep(20 * time.Millisecond)
	st, _ = h.ctrl.Snapshot()
	if st.Detail.User == nil || st.Detail.User.Login != "bob" || st.Detail.Loading {
		t.Fatalf("Detail = %+v", st.Detail)
	}
}

func TestCloseDetailDiscardsPendingFetch(t *testing.T) {
	t.Parallel()

	h := start(t, Options{})

	_ = h.ctrl.OpenDetail("alice")
	pending := <-h.details.calls
	_ = h.ctrl.CloseDetail()

	pending.fail <- errors.New("late failure")
	time.Sleep(20 * time.Millisecond)

	st, _ := h.ctrl.Snapshot()
	if st.Detail.Open || st.Detail.Err != "" {
		t.Fatalf("Detail = %+v", st.Detail)
	}
}

func TestOpenDetailWithoutFetcher(t *testing.T) {
	t.Parallel()

	ctrl := New(newFakeTransport(), nil, Options{})
	if err := ctrl.OpenDetail("ada"); !errors.Is(err, ErrNoDetails) {
		t.Fatalf("err = %v, want ErrNoDetails", err)
	}
}

func TestEventsAfterRunReturnsAreClosed(t *testing.T) {
	t.Parallel()

	ctrl := New(newFakeTransport(), nil, Options{Clock: debounce.NewManualClock()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	if err := ctrl.SetUserName("ada"); err != nil {
		t.Fatalf("SetUserName: %v", err)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := ctrl.SetUserName("grace"); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if err := ctrl.Run(context.Background()); err == nil {
		t.Fatalf("expected second Run to fail")
	}
}

func TestTeardownCancelsPendingDebounce(t *testing.T) {
	t.Parallel()

	clock := debounce.NewManualClock()
	ft := newFakeTransport()
	ctrl := New(ft, nil, Options{QuietPeriod: quiet, Clock: clock})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	if err := ctrl.SetUserName("ada"); err != nil {
		t.Fatalf("SetUserName: %v", err)
	}
	if clock.Active() != 1 {
		t.Fatalf("active timers = %d, want 1", clock.Active())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}

	clock.Advance(quiet)
	ft.expectNoCall(t)
}

func TestLoadOnStartFetchesSeededPage(t *testing.T) {
	t.Parallel()

	h := start(t, Options{Initial: url.Values{"search": {"ada"}, "page": {"2"}}, LoadOnStart: true})

	c := h.transport.next(t)
	if c.path != search.SearchUsersPath || c.params.Get("q") != "ada" || c.params.Get("page") != "2" {
		t.Fatalf("call = %s %v", c.path, c.params)
	}
	if h.clock.Active() != 0 {
		t.Fatalf("initial load armed a debounce timer")
	}
	c.reply <- reply{raw: searchPayload(12, "ada")}

	st := waitState(t, h.ctrl, "settled", func(s State) bool { return s.Status == Settled })
	if len(st.Result.Rows) != 1 || st.Result.Rows[0].Login != "ada" || st.Query.Encode() != "page=2&search=ada" {
		t.Fatalf("state = %+v", st)
	}
}

func TestFetchPageReconcilesByDirective(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	req := search.NewListRequest(search.Filter{}, search.PageRequest{PageIndex: 1, PageSize: 5})

	done := make(chan struct{})
	var (
		got search.ListResult
		err error
	)
	go func() {
		defer close(done)
		got, err = FetchPage(context.Background(), ft, req)
	}()

	c := ft.next(t)
	if c.path != search.UsersPath || c.params.Get("page") != "2" {
		t.Fatalf("call = %s %v", c.path, c.params)
	}
	c.reply <- reply{raw: `[{"id":1,"login":"mojombo"}]`}
	<-done

	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got.TotalCount != search.DefaultTotalCount || got.Rows[0].Login != "mojombo" {
		t.Fatalf("result = %+v", got)
	}
}
