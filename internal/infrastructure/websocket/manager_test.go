package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID string) *Client {
	return &Client{
		UserID: userID,
		Send:   make(chan []byte, 8),
	}
}

func registeredClient(m *Manager, userID string) *Client {
	c := newTestClient(userID)
	m.mutex.Lock()
	m.clients[c] = struct{}{}
	m.mutex.Unlock()
	return c
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case payload := <-c.Send:
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestRoomMembership(t *testing.T) {
	m := NewManager()
	a := registeredClient(m, "user-a")
	b := registeredClient(m, "user-b")

	m.JoinRoom(a, "chat-1")
	m.JoinRoom(b, "chat-1")
	m.JoinRoom(a, "chat-2")

	assert.Equal(t, 2, m.RoomSize("chat-1"))
	assert.Equal(t, 1, m.RoomSize("chat-2"))

	// Joining twice is a no-op.
	m.JoinRoom(a, "chat-1")
	assert.Equal(t, 2, m.RoomSize("chat-1"))

	m.LeaveRoom(a, "chat-1")
	assert.Equal(t, 1, m.RoomSize("chat-1"))

	// Empty rooms disappear from the registry.
	m.LeaveRoom(b, "chat-1")
	assert.Equal(t, 0, m.RoomSize("chat-1"))
}

func TestRemoveClientClearsAllRooms(t *testing.T) {
	m := NewManager()
	a := registeredClient(m, "user-a")
	b := registeredClient(m, "user-b")

	m.JoinRoom(a, "chat-1")
	m.JoinRoom(a, "chat-2")
	m.JoinRoom(b, "chat-1")

	m.removeClient(a)

	assert.Equal(t, 1, m.RoomSize("chat-1"))
	assert.Equal(t, 0, m.RoomSize("chat-2"))

	// The send channel closes so WritePump terminates.
	_, open := <-a.Send
	assert.False(t, open)
}

func TestBroadcastReachesEveryMemberIncludingSender(t *testing.T) {
	m := NewManager()
	sender := registeredClient(m, "user-a")
	peer := registeredClient(m, "user-b")
	outsider := registeredClient(m, "user-c")

	m.JoinRoom(sender, "chat-1")
	m.JoinRoom(peer, "chat-1")
	m.JoinRoom(outsider, "chat-2")

	m.PublishMessage(OutboundMessage{
		ConversationID: "chat-1",
		MessageID:      "m1",
		SenderID:       "user-a",
		SenderName:     "Alice",
		Text:           "hello",
		CreatedAt:      time.Now(),
	})

	for _, c := range []*Client{sender, peer} {
		payloads := drain(c)
		require.Len(t, payloads, 1, "user %s", c.UserID)

		var event struct {
			Type string `json:"type"`
			Data struct {
				ID     string `json:"id"`
				Text   string `json:"text"`
				Sender struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"sender"`
				ConversationID string `json:"conversation_id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payloads[0], &event))
		assert.Equal(t, EventReceiveMessage, event.Type)
		assert.Equal(t, "m1", event.Data.ID)
		assert.Equal(t, "hello", event.Data.Text)
		assert.Equal(t, "Alice", event.Data.Sender.Name)
		assert.Equal(t, "chat-1", event.Data.ConversationID)
	}

	assert.Empty(t, drain(outsider))
}

func TestBroadcastSurvivesConcurrentDisconnect(t *testing.T) {
	m := NewManager()

	clients := make([]*Client, 0, 50)
	for i := 0; i < 50; i++ {
		c := registeredClient(m, fmt.Sprintf("user-%d", i))
		m.JoinRoom(c, "chat-1")
		clients = append(clients, c)
	}

	// Broadcasts race the disconnect path. Members are torn down while
	// frames are in flight; none of the sends may hit a closed channel.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.BroadcastToRoom("chat-1", []byte(`{"type":"receive_message"}`))
		}
	}()
	go func() {
		defer wg.Done()
		for _, c := range clients {
			m.removeClient(c)
		}
	}()
	wg.Wait()

	assert.Equal(t, 0, m.RoomSize("chat-1"))

	// Every send channel ended up closed exactly once.
	for _, c := range clients {
		open := true
		for open {
			_, open = <-c.Send
		}
	}
}

func TestSendToRemovedClientIsDropped(t *testing.T) {
	m := NewManager()
	a := registeredClient(m, "user-a")
	m.JoinRoom(a, "chat-1")

	m.removeClient(a)

	m.BroadcastToRoom("chat-1", []byte(`{"type":"receive_message"}`))
	m.sendError(a, "late frame")

	assert.False(t, a.trySend([]byte(`x`)))
}

func TestJoinRoomViaClientMessage(t *testing.T) {
	m := NewManager()
	c := registeredClient(m, "user-a")

	m.HandleClientMessage(c, []byte(`{"type":"join_room","data":{"conversation_id":"chat-9"}}`))
	assert.Equal(t, 1, m.RoomSize("chat-9"))

	m.HandleClientMessage(c, []byte(`{"type":"leave_room","data":{"conversation_id":"chat-9"}}`))
	assert.Equal(t, 0, m.RoomSize("chat-9"))
}

func TestPingPong(t *testing.T) {
	m := NewManager()
	c := registeredClient(m, "user-a")

	m.HandleClientMessage(c, []byte(`{"type":"ping"}`))

	payloads := drain(c)
	require.Len(t, payloads, 1)

	var event Event
	require.NoError(t, json.Unmarshal(payloads[0], &event))
	assert.Equal(t, EventPong, event.Type)
}

func TestMalformedFramesGetErrorEvents(t *testing.T) {
	m := NewManager()
	c := registeredClient(m, "user-a")

	frames := [][]byte{
		[]byte(`not json`),
		[]byte(`{"type":"wat"}`),
		[]byte(`{"type":"join_room","data":{}}`),
		[]byte(`{"type":"send_message","data":{"text":"hi"}}`),
	}
	for _, frame := range frames {
		m.HandleClientMessage(c, frame)
	}

	payloads := drain(c)
	require.Len(t, payloads, len(frames))
	for _, payload := range payloads {
		var event Event
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, EventError, event.Type)
	}
}

type recordingSender struct {
	senderID       string
	conversationID string
	text           string
	err            error
	calls          int
}

func (s *recordingSender) SendChatMessage(ctx context.Context, senderID, conversationID, text string) error {
	s.calls++
	s.senderID = senderID
	s.conversationID = conversationID
	s.text = text
	return s.err
}

func TestSendMessageUsesConnectionIdentity(t *testing.T) {
	m := NewManager()
	sender := &recordingSender{}
	m.SetMessageSender(sender)

	c := registeredClient(m, "user-a")
	m.JoinRoom(c, "chat-1")

	m.HandleClientMessage(c, []byte(`{"type":"send_message","data":{"conversation_id":"chat-1","text":"hi"}}`))

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "user-a", sender.senderID)
	assert.Equal(t, "chat-1", sender.conversationID)
	assert.Equal(t, "hi", sender.text)

	// Nothing is echoed directly: the broadcast happens through
	// PublishMessage after the store confirms.
	assert.Empty(t, drain(c))
}

func TestSendMessageRejectsSpoofedSender(t *testing.T) {
	m := NewManager()
	sender := &recordingSender{}
	m.SetMessageSender(sender)

	c := registeredClient(m, "user-a")

	m.HandleClientMessage(c, []byte(`{"type":"send_message","data":{"conversation_id":"chat-1","sender_id":"user-b","text":"hi"}}`))

	assert.Equal(t, 0, sender.calls)

	payloads := drain(c)
	require.Len(t, payloads, 1)
	var event Event
	require.NoError(t, json.Unmarshal(payloads[0], &event))
	assert.Equal(t, EventError, event.Type)
}

func TestSendMessageStoreRejectionSendsError(t *testing.T) {
	m := NewManager()
	sender := &recordingSender{err: context.DeadlineExceeded}
	m.SetMessageSender(sender)

	c := registeredClient(m, "user-a")
	m.JoinRoom(c, "chat-1")

	m.HandleClientMessage(c, []byte(`{"type":"send_message","data":{"conversation_id":"chat-1","text":"hi"}}`))

	payloads := drain(c)
	require.Len(t, payloads, 1)
	var event Event
	require.NoError(t, json.Unmarshal(payloads[0], &event))
	assert.Equal(t, EventError, event.Type)
}
