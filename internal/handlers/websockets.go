package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"webauth/internal/models"
	"webauth/internal/service"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvents streams the auth audit trail: the full history on connect,
// then only what happened since the previous tick.
func (h *Handler) wsEvents(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	// Send the backlog immediately; afterwards, only deltas.
	cur := &eventCursor{}
	if err := h.sendEvents(c.Request.Context(), conn, cur); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendEvents(c.Request.Context(), conn, cur); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// Helper: parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// eventCursor tracks what a connection has already been sent. Stored
// timestamps have second granularity, so a time watermark alone cannot
// tell a new event in the same second from a re-read; the ids seen at
// the watermark filter those.
type eventCursor struct {
	since time.Time
	seen  map[string]struct{}
}

// fresh drops events that were already delivered.
func (cur *eventCursor) fresh(events []models.AuthEvent) []models.AuthEvent {
	out := make([]models.AuthEvent, 0, len(events))
	for _, ev := range events {
		if _, dup := cur.seen[ev.EventID]; dup {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// advance moves the watermark to the newest event and records the ids
// sitting exactly on it. Events arrive ordered by occurred_at.
func (cur *eventCursor) advance(events []models.AuthEvent) {
	for _, ev := range events {
		if ev.OccurredAt.After(cur.since) {
			cur.since = ev.OccurredAt
			cur.seen = nil
		}
		if ev.OccurredAt.Equal(cur.since) {
			if cur.seen == nil {
				cur.seen = make(map[string]struct{})
			}
			cur.seen[ev.EventID] = struct{}{}
		}
	}
}

// Helper: sendEvents writes events not yet delivered to this
// connection and advances the cursor.
func (h *Handler) sendEvents(ctx context.Context, conn *websocket.Conn, cur *eventCursor) error {
	events, err := h.services.EventLog.List(ctx, service.EventFilter{From: cur.since})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_list_events_failed", "err", err)
		}
		return err
	}

	out := cur.fresh(events)
	cur.advance(events)

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "events", Data: out})
}
