// Package websocket fans fleet events out to connected dashboard clients.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

// Hub broadcasts bus events to every connected client. It subscribes to
// the vehicle and station channels; slow clients are dropped rather than
// allowed to back-pressure the bus observer.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	log *zap.Logger
	mu  sync.RWMutex
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new broadcast hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// SubscribeFleet registers the hub as an observer of the vehicle and
// station channels.
func (h *Hub) SubscribeFleet(bus ports.EventBus) {
	observer := func(evt domain.Event) {
		payload, err := json.Marshal(evt)
		if err != nil {
			h.log.Error("Failed to marshal event for websocket fanout", zap.Error(err))
			return
		}
		select {
		case h.broadcast <- payload:
		default:
			h.log.Warn("Websocket broadcast buffer full, dropping event",
				zap.String("event_id", evt.ID))
		}
	}

	bus.Subscribe(domain.ChannelBicicletas, observer)
	bus.Subscribe(domain.ChannelEstaciones, observer)
}

// Run drives the hub loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// AddClient attaches a connection to the hub and starts its pumps.
func (h *Hub) AddClient(conn *websocket.Conn) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	client.hub.register <- client

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Clients only listen; the read loop exists to detect closes and
		// service control frames.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
