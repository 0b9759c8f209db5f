package websocket

import (
	"net/http"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// WebSocketHandler upgrades watcher connections. Watchers subscribe to one
// lot and receive every outcome the keeper records for it; the stream is
// one-way, inbound messages are discarded.
type WebSocketHandler struct {
	house       domain.AuctionHouse
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewWebSocketHandler(house domain.AuctionHouse, connManager domain.ConnectionManager, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		house:       house,
		connManager: connManager,
		log:         log,
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	lotID := vars["lotID"]

	if _, err := h.house.Lot(r.Context(), lotID); err != nil {
		h.log.Error("Failed to find lot", "error", err, "lot_id", lotID)
		http.Error(w, "lot not found", http.StatusNotFound)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		http.Error(w, "client_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, clientID, lotID, h.log)

	if err := h.connManager.RegisterConnection(clientID, lotID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		conn.Close()
		return
	}

	go h.drainMessages(wsConn, clientID, lotID)
}

func (h *WebSocketHandler) drainMessages(conn *WebSocketConnection, clientID, lotID string) {
	defer func() {
		h.connManager.UnregisterConnection(clientID, lotID)
		conn.Close()
	}()

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			break
		}
	}
}
