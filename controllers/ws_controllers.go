package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rmaldonado/comanda/events"
	"github.com/rmaldonado/comanda/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients on the floor tablets connect from a different origin
	// than the API, CORS is enforced at the HTTP layer instead.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and keeps it registered with the
// event hub until the client goes away. Clients only listen; inbound frames
// are drained to detect disconnects.
func HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	events.RegisterClient(conn)
	utils.InfoLogger.Printf("WebSocket client connected: %s", conn.RemoteAddr())

	go func() {
		defer func() {
			events.UnregisterClient(conn)
			utils.InfoLogger.Printf("WebSocket client disconnected: %s", conn.RemoteAddr())
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
