// Package websocket pushes live leaderboard updates to connected browser
// clients so they don't have to poll the public HTTP surface.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	Send chan []byte
}

// Message is the envelope pushed to every connected leaderboard client.
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

var globalHub *Hub

func init() {
	globalHub = &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	go globalHub.Run()
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[WS] leaderboard client connected, total=%d", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("[WS] leaderboard client disconnected, total=%d", len(h.clients))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (h *Hub) BroadcastMessage(messageType string, data map[string]interface{}) {
	message := Message{Type: messageType, Data: data, Timestamp: time.Now()}
	jsonData, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] error marshaling message: %v", err)
		return
	}
	h.broadcast <- jsonData
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		// Leaderboard clients are push-only; we still drain reads to
		// detect disconnects and respond to pings.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error: %v", err)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// GetGlobalHub returns the process-wide leaderboard hub.
func GetGlobalHub() *Hub {
	return globalHub
}

// NewClient wraps an upgraded connection and registers it with the hub.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		hub:  globalHub,
		conn: conn,
		Send: make(chan []byte, 256),
	}
}

// BroadcastBalanceUpdate pushes one match's balance-snapshot delta to every
// connected leaderboard client, in response to a tick.completed event.
func BroadcastBalanceUpdate(matchID uint, tickTs int64, values map[string]float64) {
	globalHub.BroadcastMessage("balance_update", map[string]interface{}{
		"match_id": matchID,
		"tick_ts":  tickTs,
		"values":   values,
	})
}

// BroadcastMatchSettled notifies clients that a match has finished so they
// can refresh the results view.
func BroadcastMatchSettled(matchID uint, resultHash string) {
	globalHub.BroadcastMessage("match_settled", map[string]interface{}{
		"match_id":    matchID,
		"result_hash": resultHash,
	})
}
