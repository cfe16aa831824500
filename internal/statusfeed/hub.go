package statusfeed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/EgorLis/musicbot/internal/music"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 30 * time.Second
	pingPeriod   = 10 * time.Second
	sendBuffer   = 32
	shutdownWait = 5 * time.Second
)

var _ music.Publisher = (*Hub)(nil)

// Hub fans events out to connected WebSocket clients.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn  *websocket.Conn
	guild string
	json  bool
	send  chan frames
	done  chan struct{}

	wmu sync.Mutex // serializes writes: event frames and pings
}

func NewHub(l *slog.Logger) *Hub {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		log: l.With("component", "statusfeed"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish never blocks; clients with a full buffer miss the event.
func (h *Hub) Publish(ev music.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	f, err := encode(ev)
	if err != nil {
		h.log.Error("encode event", "kind", ev.Kind, "err", err)
		return
	}
	for c := range h.clients {
		if c.guild != "" && c.guild != ev.GuildID {
			continue
		}
		select {
		case c.send <- f:
		default:
			h.log.Warn("status client is slow, event dropped", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	return mux
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	h.log.Info("status feed listening", "addr", addr)

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "status feed on %s", addr)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	err := srv.Shutdown(sctx)
	h.closeAll()
	return err
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "err", err)
		return
	}
	q := r.URL.Query()
	c := &client{
		conn:  conn,
		guild: q.Get("guild"),
		json:  q.Get("format") == "json",
		send:  make(chan frames, sendBuffer),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("status client connected", "remote", conn.RemoteAddr().String(), "guild", c.guild)

	go c.writeLoop()
	c.readLoop()

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.done)
	_ = conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.close()
	}
}

// readLoop only services control frames; clients have nothing to say.
func (c *client) readLoop() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case f := <-c.send:
			typ, data := websocket.BinaryMessage, f.binary
			if c.json {
				typ, data = websocket.TextMessage, f.text
			}
			if err := c.write(typ, data); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-t.C:
			c.wmu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
			c.wmu.Unlock()
			if err != nil {
				_ = c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) write(typ int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(typ, data)
}

func (c *client) close() {
	c.wmu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
		time.Now().Add(500*time.Millisecond))
	c.wmu.Unlock()
	_ = c.conn.Close()
}
