package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// CommandSink receives inbound client traffic from the connection pool.
type CommandSink interface {
	HandleCommand(connID string, raw []byte)
	HandleDisconnect(connID string)
}

// ConnectionManager owns every WebSocket connection and the room-scoped
// fan-out. Broadcasts are fire-and-forget: a recipient that cannot keep
// up is dropped rather than allowed to block the room.
type ConnectionManager struct {
	mu        sync.RWMutex
	conns     map[string]*Connection            // connection id -> connection
	roomConns map[string]map[string]*Connection // room code -> connection id -> connection

	upgrader websocket.Upgrader
	config   ConnectionConfig
	sink     CommandSink

	broadcastCh chan broadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// broadcastMessage routes one event: to a room (optionally excluding a
// connection), to a single connection, or to every connection.
type broadcastMessage struct {
	RoomCode string
	ConnID   string
	ExceptID string
	All      bool
	Event    *Event
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a connection manager. Attach a CommandSink
// before serving connections.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		conns:     make(map[string]*Connection),
		roomConns: make(map[string]map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Attach wires the inbound command sink. Must be called once before the
// first upgrade.
func (cm *ConnectionManager) Attach(sink CommandSink) {
	cm.sink = sink
}

// Start begins processing broadcast messages.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection
// and registers it with the pool.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.mu.Lock()
	cm.conns[connection.ID] = connection
	cm.mu.Unlock()

	go connection.writePump()
	go connection.readPump()

	log.Info().Str("connection_id", connection.ID).Msg("WebSocket connection established")
	return nil
}

// JoinRoom adds the connection to a room's fan-out group.
func (cm *ConnectionManager) JoinRoom(connID, roomCode string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.conns[connID]
	if !ok {
		return
	}
	if cm.roomConns[roomCode] == nil {
		cm.roomConns[roomCode] = make(map[string]*Connection)
	}
	cm.roomConns[roomCode][connID] = conn

	log.Debug().
		Str("connection_id", connID).
		Str("room_code", roomCode).
		Int("room_connections", len(cm.roomConns[roomCode])).
		Msg("connection joined room")
}

// LeaveRoom removes the connection from every room group it belongs to.
func (cm *ConnectionManager) LeaveRoom(connID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.leaveRoomLocked(connID)
}

func (cm *ConnectionManager) leaveRoomLocked(connID string) {
	for code, conns := range cm.roomConns {
		if _, ok := conns[connID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(cm.roomConns, code)
			}
		}
	}
}

// ConnectionIDsInRoom returns the ids of every connection in the room.
func (cm *ConnectionManager) ConnectionIDsInRoom(roomCode string) []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	ids := make([]string, 0, len(cm.roomConns[roomCode]))
	for id := range cm.roomConns[roomCode] {
		ids = append(ids, id)
	}
	return ids
}

// EmitToRoom sends an event to every connection in the room.
func (cm *ConnectionManager) EmitToRoom(roomCode, event string, payload any) {
	cm.enqueue(broadcastMessage{RoomCode: roomCode}, event, payload)
}

// EmitToRoomExcept sends an event to the room, skipping one connection.
func (cm *ConnectionManager) EmitToRoomExcept(roomCode, exceptConnID, event string, payload any) {
	cm.enqueue(broadcastMessage{RoomCode: roomCode, ExceptID: exceptConnID}, event, payload)
}

// EmitToConn sends an event to a single connection.
func (cm *ConnectionManager) EmitToConn(connID, event string, payload any) {
	cm.enqueue(broadcastMessage{ConnID: connID}, event, payload)
}

// EmitToAll sends an event to every connection in the pool.
func (cm *ConnectionManager) EmitToAll(event string, payload any) {
	cm.enqueue(broadcastMessage{All: true}, event, payload)
}

func (cm *ConnectionManager) enqueue(msg broadcastMessage, event string, payload any) {
	e, err := NewEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
		return
	}
	msg.Event = e

	select {
	case cm.broadcastCh <- msg:
	default:
		log.Warn().Str("event", event).Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast fans one message out to its target connections.
func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	cm.mu.RLock()
	var targets []*Connection
	switch {
	case message.All:
		for _, conn := range cm.conns {
			targets = append(targets, conn)
		}
	case message.ConnID != "":
		if conn, ok := cm.conns[message.ConnID]; ok {
			targets = append(targets, conn)
		}
	default:
		for id, conn := range cm.roomConns[message.RoomCode] {
			if id == message.ExceptID {
				continue
			}
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow/dead, close it
			log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
			cm.dropConnection(conn)
		}
	}

	log.Debug().
		Str("event_type", message.Event.Type).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// unregisterConnection removes a connection from the pool and its rooms.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if existing, ok := cm.conns[conn.ID]; ok && existing == conn {
		delete(cm.conns, conn.ID)
		cm.leaveRoomLocked(conn.ID)
		close(conn.Send)
		log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
	}
}

func (cm *ConnectionManager) dropConnection(conn *Connection) {
	go func() {
		if cm.sink != nil {
			cm.sink.HandleDisconnect(conn.ID)
		}
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}()
}

// ConnectionCount returns the number of live connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection and
// feeding them to the command sink.
func (c *Connection) readPump() {
	defer func() {
		if c.Manager.sink != nil {
			c.Manager.sink.HandleDisconnect(c.ID)
		}
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.sink != nil {
			c.Manager.sink.HandleCommand(c.ID, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
