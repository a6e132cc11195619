/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Seednode/quizbox/trivia"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// inbound is a client message before its payload is decoded.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Client struct {
	id     trivia.ConnID
	conn   *websocket.Conn
	send   chan trivia.Message
	remote string
}

// Hub tracks live websocket clients and implements trivia.Transport over them.
type Hub struct {
	cfg *Config

	mu      sync.Mutex
	clients map[trivia.ConnID]*Client
}

func newHub(cfg *Config) *Hub {
	return &Hub{
		cfg:     cfg,
		clients: make(map[trivia.ConnID]*Client),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
}

// unregister forgets c and stops its writer. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// Send queues msg for conn without blocking. A client whose buffer is full
// is dropped; its reader will notice the closed socket and clean up.
func (h *Hub) Send(conn trivia.ConnID, msg trivia.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		logf(h.cfg, "GAMES: Dropping slow client %s (%s)", c.id, c.remote)
		delete(h.clients, c.id)
		close(c.send)
	}
}

func (h *Hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// closeAll disconnects every client (used at shutdown).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

func serveWS(cfg *Config, hub *Hub, router *trivia.Router) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := &Client{
			id:     trivia.ConnID(uuid.NewString()),
			conn:   conn,
			send:   make(chan trivia.Message, sendBuffer),
			remote: realIP(r),
		}

		hub.register(client)

		logf(cfg, "SERVE: Websocket %s opened by %s", client.id, client.remote)

		go client.writePump()
		client.readPump(cfg, hub, router)
	}
}

func (c *Client) readPump(cfg *Config, h *Hub, router *trivia.Router) {
	defer func() {
		router.Disconnect(c.id)
		h.unregister(c)
		_ = c.conn.Close()

		logf(cfg, "SERVE: Websocket %s closed", c.id)
	}()

	c.conn.SetReadLimit(cfg.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logf(cfg, "ERROR: Websocket %s: %v", c.id, err)
			}
			return
		}

		router.Dispatch(c.id, msg.Event, msg.Data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveQR returns a PNG QR code linking to the join page for a live game.
func serveQR(cfg *Config, registry *trivia.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, err := registry.Lookup(ps.ByName("code"))
		if err != nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		link := url.URL{
			Scheme:   scheme,
			Host:     r.Host,
			Path:     cfg.prefix + "/join",
			RawQuery: url.Values{"pin": {s.Code()}}.Encode(),
		}

		const qrSize = 320
		png, err := qrcode.Encode(link.String(), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}
