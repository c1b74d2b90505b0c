package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"campusmarket/pkg/logger"
)

// Client is one live socket connection. A user may hold several.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues payload without blocking. Reports false when the
// buffer is full or the connection has already been torn down. The
// send and the close of Send both happen under mu, so a broadcast
// racing a disconnect can never write to a closed channel.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once, which terminates
// WritePump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager owns the connection set and the room registry. Rooms map 1:1
// to conversations and live purely in process memory: membership is
// lost on restart and clients rejoin on reconnect.
type Manager struct {
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	Register   chan *Client
	Unregister chan *Client

	sender MessageSender

	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// SetMessageSender wires the persistence path for inbound messages.
// Must be called before the first connection is accepted.
func (m *Manager) SetMessageSender(sender MessageSender) {
	m.sender = sender
}

// Start runs the manager's registration loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = struct{}{}
				m.mutex.Unlock()
				logger.Info("Client connected: user %s", client.UserID)

			case client := <-m.Unregister:
				m.removeClient(client)
				logger.Info("Client disconnected: user %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// JoinRoom subscribes the connection to a conversation's broadcast
// group.
func (m *Manager) JoinRoom(client *Client, chatID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, ok := m.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		m.rooms[chatID] = room
	}
	room[client] = struct{}{}
}

// LeaveRoom unsubscribes the connection from one room.
func (m *Manager) LeaveRoom(client *Client, chatID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, ok := m.rooms[chatID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(m.rooms, chatID)
		}
	}
}

// RoomSize reports current membership of a conversation's room.
func (m *Manager) RoomSize(chatID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[chatID])
}

// removeClient drops the connection from every room and from the
// client set. No persisted state changes.
func (m *Manager) removeClient(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client]; !ok {
		return
	}
	delete(m.clients, client)
	client.closeSend()

	for chatID, room := range m.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(m.rooms, chatID)
		}
	}
}

// BroadcastToRoom delivers payload to every connection in the room,
// the sender's own connection included. Clients with a full send
// buffer are dropped rather than allowed to stall the room.
func (m *Manager) BroadcastToRoom(chatID string, payload []byte) {
	m.mutex.RLock()
	members := make([]*Client, 0, len(m.rooms[chatID]))
	for client := range m.rooms[chatID] {
		members = append(members, client)
	}
	m.mutex.RUnlock()

	for _, client := range members {
		if !client.trySend(payload) {
			logger.Warn("Could not queue frame for user %s, dropping connection", client.UserID)
			m.removeClient(client)
		}
	}
}

// ReadPump reads frames from the connection and dispatches them one at
// a time, which is what keeps a single connection's sends ordered.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Read error for user %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, payload)
	}
}

// WritePump drains the send channel onto the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Error("Write error for user %s: %v", c.UserID, err)
			return
		}
	}
}
