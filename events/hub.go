package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rmaldonado/comanda/models"
)

// Event types
const (
	EventOrderReady      = "order_ready"
	EventTableUpdate     = "table_update"
	EventDashboardUpdate = "dashboard_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// OrderReadyItem is the per-item detail waitstaff need to deliver a ready
// order to its table.
type OrderReadyItem struct {
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

type OrderReadyPayload struct {
	OrderID     uint             `json:"order_id"`
	TableID     uint             `json:"table_id"`
	TableNumber int              `json:"table_number"`
	Items       []OrderReadyItem `json:"items"`
}

// Hub holds every connected floor display (kitchen screens, waitstaff
// tablets). Delivery is best-effort, at-most-once: a failed write is logged
// and the client dropped on its next read error.
type Hub struct {
	clients map[*websocket.Conn]struct{}
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]struct{}),
}

func RegisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = struct{}{}
}

func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastOrderReady notifies waitstaff that a kitchen ticket can be served.
func BroadcastOrderReady(payload OrderReadyPayload) {
	broadcast(Message{
		Event: EventOrderReady,
		Data:  payload,
	})
}

// BroadcastTableUpdate pushes an occupancy change to the floor displays.
func BroadcastTableUpdate(table models.Table) {
	broadcast(Message{
		Event: EventTableUpdate,
		Data:  table,
	})
}

// BroadcastDashboardUpdate pushes refreshed floor-wide stats.
func BroadcastDashboardUpdate(data interface{}) {
	broadcast(Message{
		Event: EventDashboardUpdate,
		Data:  data,
	})
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending event to client: %v", err)
			continue
		}
	}
}
