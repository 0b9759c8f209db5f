package websocket

import (
	"context"

	"auction-keeper/internal/domain"
)

type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) BroadcastToLot(ctx context.Context, lotID string, message interface{}) error {
	return n.connManager.BroadcastToLot(lotID, message)
}
