package websocket

import (
	"context"
	"encoding/json"
	"time"

	"campusmarket/pkg/logger"
)

// Wire event types.
const (
	EventPing           = "ping"
	EventPong           = "pong"
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
)

// Event is the envelope for every frame in both directions.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type outboundEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type roomEventData struct {
	ConversationID string `json:"conversation_id"`
}

type sendMessageData struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id,omitempty"`
	Text           string `json:"text"`
}

type senderData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type receiveMessageData struct {
	ID             string     `json:"id"`
	Sender         senderData `json:"sender"`
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"created_at"`
	ConversationID string     `json:"conversation_id"`
}

// MessageSender persists an inbound chat message before any broadcast
// happens. Implemented by the chat use case.
type MessageSender interface {
	SendChatMessage(ctx context.Context, senderID, conversationID, text string) error
}

// OutboundMessage is the fact the conversation store publishes once a
// message is durably appended. The relay turns it into a
// receive_message broadcast.
type OutboundMessage struct {
	ConversationID string
	MessageID      string
	SenderID       string
	SenderName     string
	Text           string
	CreatedAt      time.Time
}

// PublishMessage broadcasts a persisted message to every connection in
// the conversation's room, the sender included.
func (m *Manager) PublishMessage(evt OutboundMessage) {
	payload, err := json.Marshal(outboundEvent{
		Type: EventReceiveMessage,
		Data: receiveMessageData{
			ID:             evt.MessageID,
			Sender:         senderData{ID: evt.SenderID, Name: evt.SenderName},
			Text:           evt.Text,
			CreatedAt:      evt.CreatedAt,
			ConversationID: evt.ConversationID,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("Failed to marshal message event: %v", err)
		return
	}

	m.BroadcastToRoom(evt.ConversationID, payload)
}

// HandleClientMessage dispatches one inbound frame.
func (m *Manager) HandleClientMessage(client *Client, payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Warn("Malformed frame from user %s: %v", client.UserID, err)
		m.sendError(client, "Invalid message format")
		return
	}

	switch event.Type {
	case EventPing:
		m.sendEvent(client, outboundEvent{
			Type:      EventPong,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})

	case EventJoinRoom:
		var data roomEventData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			m.sendError(client, "Missing conversation_id")
			return
		}
		m.JoinRoom(client, data.ConversationID)
		logger.Debug("User %s joined room %s", client.UserID, data.ConversationID)

	case EventLeaveRoom:
		var data roomEventData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			m.sendError(client, "Missing conversation_id")
			return
		}
		m.LeaveRoom(client, data.ConversationID)

	case EventSendMessage:
		m.handleSendMessage(client, event.Data)

	default:
		m.sendError(client, "Unknown message type")
	}
}

func (m *Manager) handleSendMessage(client *Client, raw json.RawMessage) {
	var data sendMessageData
	if err := json.Unmarshal(raw, &data); err != nil {
		m.sendError(client, "Invalid send_message data")
		return
	}
	if data.ConversationID == "" {
		m.sendError(client, "Missing conversation_id")
		return
	}

	// The sender identity always comes from the authenticated
	// connection. A payload that claims another sender is rejected
	// instead of trusted.
	if data.SenderID != "" && data.SenderID != client.UserID {
		m.sendError(client, "Sender does not match the authenticated connection")
		return
	}

	if m.sender == nil {
		logger.Error("No message sender wired, dropping message from user %s", client.UserID)
		m.sendError(client, "Messaging unavailable")
		return
	}

	// Persist first. The broadcast happens through PublishMessage only
	// after the store confirms the append, so no client ever observes
	// a message that was not durably stored.
	if err := m.sender.SendChatMessage(context.Background(), client.UserID, data.ConversationID, data.Text); err != nil {
		logger.Warn("Rejected message from user %s to chat %s: %v", client.UserID, data.ConversationID, err)
		m.sendError(client, "Message could not be delivered")
		return
	}
}

func (m *Manager) sendEvent(client *Client, event outboundEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event for user %s: %v", client.UserID, err)
		return
	}

	if !client.trySend(payload) {
		logger.Warn("Could not queue frame for user %s, dropping connection", client.UserID)
		m.removeClient(client)
	}
}

func (m *Manager) sendError(client *Client, message string) {
	m.sendEvent(client, outboundEvent{
		Type:      EventError,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
