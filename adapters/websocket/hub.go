package websocket

import (
	"fmt"
	"sync"

	"chatrelay/utils/log"
)

// Hub keeps the registry of connected chats. Registration and lookup
// are guarded by a lock because delivery comes in from the broker
// listener goroutine while connections come and go on handler
// goroutines.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.WithCtx(client.ctx).Debug("New client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.WithCtx(client.ctx).Debug("Client unregistered")
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToChat delivers a frame to the client connected for chatID.
func (h *Hub) SendToChat(chatID string, message []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.chatID == chatID && !client.IsClosed() {
			return client.SendMessage(message)
		}
	}
	return fmt.Errorf("chat %s is not connected", chatID)
}

// IsChatConnected checks if a chat currently has a connection
func (h *Hub) IsChatConnected(chatID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.chatID == chatID && !client.IsClosed() {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
