package websocket

import (
	"sync"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"
)

type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // lotID -> clientID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(clientID, lotID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[lotID] == nil {
		cm.connections[lotID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[lotID][clientID] = conn

	cm.log.Info("Connection registered", "client_id", clientID, "lot_id", lotID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(clientID, lotID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if lotConns, exists := cm.connections[lotID]; exists {
		delete(lotConns, clientID)
		if len(lotConns) == 0 {
			delete(cm.connections, lotID)
		}
	}

	cm.log.Info("Connection unregistered", "client_id", clientID, "lot_id", lotID)
	return nil
}

func (cm *ConnectionManager) GetConnectionsForLot(lotID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	conns := make([]domain.WebSocketConnection, 0, len(cm.connections[lotID]))
	for _, conn := range cm.connections[lotID] {
		conns = append(conns, conn)
	}
	return conns
}

func (cm *ConnectionManager) BroadcastToLot(lotID string, message interface{}) error {
	for _, conn := range cm.GetConnectionsForLot(lotID) {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send to connection", "client_id", conn.ClientID(), "error", err)
		}
	}
	return nil
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(lotID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if lotConns, exists := cm.connections[lotID]; exists {
		for clientID, conn := range lotConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("Failed to close connection", "client_id", clientID, "error", err)
			}
		}
		delete(cm.connections, lotID)
	}

	return nil
}
