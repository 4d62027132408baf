package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ghusers/ghusers/internal/http/views"
	"github.com/ghusers/ghusers/internal/logging"
	"github.com/ghusers/ghusers/internal/metrics"
	"github.com/ghusers/ghusers/internal/search"
	"github.com/ghusers/ghusers/internal/userlist"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
	liveMaxMessage = 4 << 10
)

// Client message types.
const (
	liveMsgFilter      = "filter"
	liveMsgPage        = "page"
	liveMsgPageSize    = "page_size"
	liveMsgNavigate    = "navigate"
	liveMsgDetail      = "detail"
	liveMsgCloseDetail = "close_detail"
)

var errClientGone = errors.New("live client disconnected")

type liveClientMessage struct {
	Type     string `json:"type"`
	UserName string `json:"userName"`
	Location string `json:"location"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Query    string `json:"query"`
	Login    string `json:"login"`
}

type liveListMessage struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Query  string `json:"query"`
	HTML   string `json:"html"`
}

type liveDetailMessage struct {
	Type string `json:"type"`
	Open bool   `json:"open"`
	HTML string `json:"html"`
}

// liveEvents is the part of the controller a session drives.
type liveEvents interface {
	SetFilter(search.Filter) error
	SetPage(int) error
	SetPageSize(int) error
	Navigate(url.Values) error
	OpenDetail(string) error
	CloseDetail() error
}

// HandleLive upgrades to a websocket and runs one list controller for the
// tab. Every published state is rendered and pushed; the client swaps the
// fragments and records the canonical query in its history.
func (h *Handlers) HandleLive(c *echo.Context) error {
	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger().Debug("live upgrade failed", "request_id", requestIDFrom(c), "error", err)
		return nil
	}
	defer conn.Close()

	logger := logging.WithSession(h.logger(), uuid.NewString())
	metrics.LiveSessions.Inc()
	defer metrics.LiveSessions.Dec()
	logger.Info("live session opened")

	sess := newLiveSession(conn, logger, h.renderLive)
	ctrl := userlist.New(h.GitHub, h.Details, userlist.Options{
		QuietPeriod: h.Cfg.SearchQuietPeriod,
		PageSize:    h.pageSize(),
		Clock:       h.Clock,
		Logger:      logger,
		Initial:     c.Request().URL.Query(),
		LoadOnStart: true,
		OnChange:    sess.publish,
	})

	g, gctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return sess.readLoop(gctx, ctrl) })
	g.Go(func() error { return sess.writeLoop(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errClientGone) {
		logger.Warn("live session ended", "error", err)
		return nil
	}
	logger.Info("live session closed")
	return nil
}

func (h *Handlers) renderLive(ctx context.Context, st userlist.State) (string, string, error) {
	data := h.usersView(nil, st)

	var list, detail strings.Builder
	if err := views.UsersPageResults(data).Render(ctx, &list); err != nil {
		return "", "", err
	}
	if err := views.UserDetailPanel(data.Detail).Render(ctx, &detail); err != nil {
		return "", "", err
	}
	return list.String(), detail.String(), nil
}

type liveRenderer func(context.Context, userlist.State) (string, string, error)

type liveSession struct {
	conn   *websocket.Conn
	logger *slog.Logger
	render liveRenderer

	mu      sync.Mutex
	latest  userlist.State
	pending bool
	notify  chan struct{}
}

func newLiveSession(conn *websocket.Conn, logger *slog.Logger, render liveRenderer) *liveSession {
	return &liveSession{
		conn:   conn,
		logger: logger,
		render: render,
		notify: make(chan struct{}, 1),
	}
}

// publish keeps only the newest state; a slow socket skips intermediate ones.
func (s *liveSession) publish(st userlist.State) {
	s.mu.Lock()
	s.latest = st
	s.pending = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *liveSession) take() (userlist.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return userlist.State{}, false
	}
	s.pending = false
	return s.latest, true
}

func (s *liveSession) readLoop(ctx context.Context, events liveEvents) error {
	s.conn.SetReadLimit(liveMaxMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return errClientGone
			}
			return fmt.Errorf("read live message: %w", err)
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(livePongWait))

		var msg liveClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Debug("ignoring malformed live message", "error", err)
			continue
		}
		if err := dispatchLive(events, msg); err != nil {
			if errors.Is(err, userlist.ErrClosed) {
				return errClientGone
			}
			s.logger.Debug("ignoring live message", "type", msg.Type, "error", err)
		}
	}
}

func dispatchLive(events liveEvents, msg liveClientMessage) error {
	switch msg.Type {
	case liveMsgFilter:
		return events.SetFilter(search.Filter{UserName: msg.UserName, Location: msg.Location})
	case liveMsgPage:
		return events.SetPage(msg.Page)
	case liveMsgPageSize:
		return events.SetPageSize(search.ClampPageSize(msg.PageSize))
	case liveMsgNavigate:
		values, err := url.ParseQuery(strings.TrimPrefix(msg.Query, "?"))
		if err != nil {
			return err
		}
		return events.Navigate(values)
	case liveMsgDetail:
		return events.OpenDetail(msg.Login)
	case liveMsgCloseDetail:
		return events.CloseDetail()
	default:
		return fmt.Errorf("unknown live message type %q", msg.Type)
	}
}

func (s *liveSession) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	// The page already shows the server-rendered rows; list frames start once
	// the session's own first load has settled or failed.
	var (
		lastList, lastDetail string
		loaded               bool
	)
	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(liveWriteWait))
			return nil
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return fmt.Errorf("ping live client: %w", err)
			}
		case <-s.notify:
			st, ok := s.take()
			if !ok {
				continue
			}
			list, detail, err := s.render(ctx, st)
			if err != nil {
				s.logger.Error("render live state", "error", err)
				continue
			}
			if st.Status == userlist.Settled || st.Status == userlist.Failed {
				loaded = true
			}
			if loaded && list != lastList {
				if err := s.write(liveListMessage{Type: "list", Status: st.Status.String(), Query: st.Query.Encode(), HTML: list}); err != nil {
					return err
				}
				lastList = list
			}
			if detail != lastDetail {
				if err := s.write(liveDetailMessage{Type: "detail", Open: st.Detail.Open, HTML: detail}); err != nil {
					return err
				}
				lastDetail = detail
			}
		}
	}
}

func (s *liveSession) write(v any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := s.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write live message: %w", err)
	}
	return nil
}
