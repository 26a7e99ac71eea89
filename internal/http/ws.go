package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans ledger-change notifications out to connected websocket
// clients so open dashboards refresh without polling.
type Hub struct {
	clients    map[*websocket.Conn]string // conn -> user ID
	broadcast  chan hubMessage
	register   chan hubClient
	unregister chan *websocket.Conn
	stop       chan struct{}
	mu         sync.Mutex
}

type hubClient struct {
	conn   *websocket.Conn
	userID string
}

type hubMessage struct {
	userID  string
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan hubMessage, 16),
		register:   make(chan hubClient),
		unregister: make(chan *websocket.Conn),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Start() {
	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client.userID
			total := len(h.clients)
			h.mu.Unlock()
			slog.Debug("Websocket client connected", "total_clients", total)
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn, userID := range h.clients {
				if userID != msg.userID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					slog.Debug("Dropping websocket client", "error", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		case <-h.stop:
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.stop)
}

// BroadcastLedgerUpdate notifies the given user's clients that their
// ledger changed.
func (h *Hub) BroadcastLedgerUpdate(userID, action string) {
	payload, err := json.Marshal(map[string]any{
		"type":      "ledger_update",
		"action":    action,
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to marshal ledger update", "error", err)
		return
	}
	select {
	case h.broadcast <- hubMessage{userID: userID, payload: payload}:
	default:
		slog.Warn("Websocket broadcast queue full, dropping update")
	}
}

func (h *Hub) addClient(conn *websocket.Conn, userID string) {
	select {
	case h.register <- hubClient{conn: conn, userID: userID}:
	case <-h.stop:
		conn.Close()
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.stop:
		conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err)
		return
	}

	userID := s.userID(r)
	s.hub.addClient(conn, userID)

	// Reader loop: discard inbound frames, detect disconnect.
	go func() {
		defer s.hub.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
