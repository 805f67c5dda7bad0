package core

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/breachsim/breachsim/utils"
)

// GameEvent is one entry on the live event feed. Presentation layers
// subscribe over websocket to animate attacks and round transitions
// without polling.
type GameEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventRoundStarted   = "round_started"
	EventAttackExecuted = "attack_executed"
	EventStateUpdated   = "state_updated"
)

// EventFeed fans game events out to connected websocket clients.
type EventFeed struct {
	logger     *utils.Logger
	clients    map[*websocket.Conn]bool
	upgrader   websocket.Upgrader
	clientsMux sync.Mutex
}

func NewEventFeed(logger *utils.Logger) *EventFeed {
	return &EventFeed{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnections upgrades an HTTP request to a websocket and keeps
// it registered until the client goes away.
func (f *EventFeed) HandleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	f.clientsMux.Lock()
	f.clients[ws] = true
	f.clientsMux.Unlock()

	f.logger.Debug("Event feed client connected")

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			f.logger.Debug("Event feed client disconnected: %v", err)
			f.clientsMux.Lock()
			delete(f.clients, ws)
			f.clientsMux.Unlock()
			break
		}
	}
}

func (f *EventFeed) clientCount() int {
	f.clientsMux.Lock()
	defer f.clientsMux.Unlock()
	return len(f.clients)
}

// Broadcast sends one event to every connected client, dropping
// clients whose connection has failed.
func (f *EventFeed) Broadcast(event GameEvent) {
	f.clientsMux.Lock()
	defer f.clientsMux.Unlock()

	if len(f.clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("Failed to marshal event: %v", err)
		return
	}

	for client := range f.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			f.logger.Debug("Failed to send event to client: %v", err)
			client.Close()
			delete(f.clients, client)
		}
	}
}
