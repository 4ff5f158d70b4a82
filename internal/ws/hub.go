// Package ws fans game events out to connected websocket clients.
package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Message is the envelope every client receives.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks connected clients and broadcasts to all of them.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow client
					close(client.send)
					delete(h.clients, client)
				}
			}
		case <-h.quit:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

// Publish encodes an event and queues it without blocking the caller. Events
// are dropped when the queue is full.
func (h *Hub) Publish(eventType string, data interface{}) {
	raw, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		h.log.Error("Error marshalling WS message", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- raw:
	default:
		h.log.Warn("WS broadcast queue full, dropping event", zap.String("type", eventType))
	}
}
