package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/metrics"
)

const (
	// LiveReloadPath is the websocket endpoint browsers connect to.
	LiveReloadPath = "/__dist/livereload"
	// LiveReloadScriptPath serves the client script injected into HTML pages.
	LiveReloadScriptPath = "/__dist/livereload.js"

	reloadMessage = "reload"

	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// LiveReloadScript reconnects on close and reloads the page on a reload message.
const LiveReloadScript = `(() => {
  if (window.__DIST_LR__) return;
  window.__DIST_LR__ = true;
  function connect() {
    const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
    const ws = new WebSocket(proto + '//' + location.host + '` + LiveReloadPath + `');
    ws.onmessage = (e) => { if (e.data === '` + reloadMessage + `') { console.log('[dist] change detected, reloading'); location.reload(); } };
    ws.onclose = () => { setTimeout(connect, 1000); };
  }
  connect();
})();`

// Hub tracks websocket clients and broadcasts reload messages to them.
type Hub struct {
	mu       sync.Mutex
	clients  map[*lrClient]struct{}
	closed   bool
	recorder metrics.Recorder
}

type lrClient struct {
	send chan string
	done chan struct{}
}

// NewHub returns an empty hub. A nil recorder is replaced by a no-op.
func NewHub(rec metrics.Recorder) *Hub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Hub{clients: map[*lrClient]struct{}{}, recorder: rec}
}

// ServeHTTP upgrades the connection and keeps it open until the client leaves
// or the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("livereload upgrade failed", logfields.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	client := &lrClient{send: make(chan string, 1), done: make(chan struct{})}
	if !h.add(client) {
		return
	}
	defer h.remove(client)

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Reads only detect disconnects; client messages are ignored.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-readerDone:
			return
		case <-client.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			return
		case msg := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(c *lrClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.recorder.SetLiveReloadClients(len(h.clients))
	return true
}

func (h *Hub) remove(c *lrClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.recorder.SetLiveReloadClients(len(h.clients))
	}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast asks every connected browser to reload. A client that already has
// a pending reload is not sent a second one.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for c := range h.clients {
		select {
		case c.send <- reloadMessage:
		default:
		}
	}
	slog.Debug("livereload broadcast", logfields.Count(len(h.clients)))
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.done)
	}
	h.clients = map[*lrClient]struct{}{}
	h.recorder.SetLiveReloadClients(0)
}
