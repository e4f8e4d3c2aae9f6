package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorilla_websocket "github.com/gorilla/websocket"
)

var upgrader = gorilla_websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocketHandler upgrades GET /ws/leaderboard and registers the
// connection with the global leaderboard hub.
func WebSocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}

	client := NewClient(conn)
	GetGlobalHub().RegisterClient(client)

	welcome := Message{
		Type:      "connected",
		Data:      map[string]interface{}{"message": "connected to leaderboard stream"},
		Timestamp: time.Now(),
	}
	if raw, err := json.Marshal(welcome); err == nil {
		client.Send <- raw
	}

	go client.WritePump()
	go client.ReadPump()
}
