package websocket

import (
	"sync"

	"auction-keeper/pkg/logger"

	"github.com/gorilla/websocket"
)

// WebSocketConnection wraps one watcher connection. Writes are serialized;
// gorilla connections do not allow concurrent writers.
type WebSocketConnection struct {
	conn      *websocket.Conn
	clientID  string
	lotID     string
	writeLock sync.Mutex
	log       logger.Logger
}

func NewWebSocketConnection(conn *websocket.Conn, clientID, lotID string, log logger.Logger) *WebSocketConnection {
	return &WebSocketConnection{
		conn:     conn,
		clientID: clientID,
		lotID:    lotID,
		log:      log,
	}
}

func (c *WebSocketConnection) Send(message interface{}) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	return c.conn.WriteJSON(message)
}

func (c *WebSocketConnection) Close() error {
	return c.conn.Close()
}

func (c *WebSocketConnection) ClientID() string {
	return c.clientID
}

func (c *WebSocketConnection) LotID() string {
	return c.lotID
}
