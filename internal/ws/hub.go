package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomsense/roomsense/internal/store"
)

// Keepalive tuning. A client that answers none of the pings within pongWait
// is dropped; the ping cadence gives it three chances before that happens.
const (
	sendWait     = 10 * time.Second // deadline for a single outgoing frame
	pongWait     = 60 * time.Second
	pingEvery    = 20 * time.Second
	clientBuffer = 16 // queued frames per client before it is dropped
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the fronting proxy, not the sensor daemon.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope pushed to clients: the event name and the
// reading it carries.
type Message struct {
	Event string        `json:"event"`
	Data  store.Reading `json:"data"`
}

// Hub fans the latest reading out to connected WebSocket clients on a fixed
// interval. Clients that stop draining their queue are disconnected rather
// than allowed to stall the broadcast.
type Hub struct {
	store    *store.Store
	interval time.Duration

	mu    sync.RWMutex
	peers map[*peer]struct{}
}

// peer is one connected client and its outgoing frame queue.
type peer struct {
	conn *websocket.Conn
	out  chan []byte
}

// New creates a Hub reading from st, broadcasting every interval.
func New(st *store.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		peers:    make(map[*peer]struct{}),
	}
}

// Run drives the broadcast ticker until ctx is cancelled, then closes every
// active connection.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and serves it.
// The latest reading goes out immediately on connect; afterwards the client
// receives whatever the ticker broadcasts. Blocks until the connection ends.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade failures are answered by the upgrader itself.
		return
	}

	p := &peer{
		conn: conn,
		out:  make(chan []byte, clientBuffer),
	}
	h.add(p)
	defer h.drop(p)

	slog.Debug("ws: client connected", "remote", conn.RemoteAddr().String())

	// Seed the client so a dashboard renders without waiting a full tick.
	// Before the first sampling cycle there is nothing to seed with.
	if frame, ok := h.encodeLatest(); ok {
		select {
		case p.out <- frame:
		default:
		}
	}

	go p.writeLoop()
	p.readLoop()

	slog.Debug("ws: client disconnected", "remote", conn.RemoteAddr().String())
}

// Count returns how many clients are currently connected.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) drop(p *peer) {
	h.mu.Lock()
	if _, ok := h.peers[p]; ok {
		delete(h.peers, p)
		close(p.out)
	}
	h.mu.Unlock()
}

// broadcast queues the latest reading for every peer. A peer with a full
// queue is not keeping up and gets disconnected.
func (h *Hub) broadcast() {
	frame, ok := h.encodeLatest()
	if !ok {
		// No reading published yet; nothing to push.
		return
	}

	h.mu.RLock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	for _, p := range peers {
		select {
		case p.out <- frame:
		default:
			h.drop(p)
		}
	}
}

// encodeLatest renders the current reading as a wire frame. ok is false
// before the first reading exists.
func (h *Hub) encodeLatest() ([]byte, bool) {
	reading, ok := h.store.Get()
	if !ok {
		return nil, false
	}
	frame, err := json.Marshal(Message{Event: "reading", Data: reading})
	if err != nil {
		return nil, false
	}
	return frame, true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		close(p.out)
		delete(h.peers, p)
	}
}

// writeLoop owns all writes on the connection: queued frames plus the
// periodic pings. One goroutine per peer.
func (p *peer) writeLoop() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-p.out:
			p.conn.SetWriteDeadline(time.Now().Add(sendWait))
			if !ok {
				// Queue closed: the hub dropped us or is shutting down.
				p.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ping.C:
			p.conn.SetWriteDeadline(time.Now().Add(sendWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes inbound frames solely for control handling: pongs extend
// the read deadline, anything else is discarded, an error means the client
// is gone. Blocks until then.
func (p *peer) readLoop() {
	defer p.conn.Close()
	p.conn.SetReadLimit(512)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			return
		}
	}
}
