package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatKey(t *testing.T) {
	key := ChatKey("buyer-1", "seller-1", "product-1")

	assert.Len(t, key, 40)
	assert.Equal(t, key, ChatKey("buyer-1", "seller-1", "product-1"))

	assert.NotEqual(t, key, ChatKey("buyer-2", "seller-1", "product-1"))
	assert.NotEqual(t, key, ChatKey("buyer-1", "seller-2", "product-1"))
	assert.NotEqual(t, key, ChatKey("buyer-1", "seller-1", "product-2"))

	// Swapping roles is a different triple.
	assert.NotEqual(t, key, ChatKey("seller-1", "buyer-1", "product-1"))
}

func TestHasParticipant(t *testing.T) {
	chat := &Chat{BuyerID: "buyer-1", SellerID: "seller-1"}

	assert.True(t, chat.HasParticipant("buyer-1"))
	assert.True(t, chat.HasParticipant("seller-1"))
	assert.False(t, chat.HasParticipant("someone-else"))
	assert.False(t, chat.HasParticipant(""))
}

func TestOtherParticipant(t *testing.T) {
	chat := &Chat{BuyerID: "buyer-1", SellerID: "seller-1"}

	assert.Equal(t, "seller-1", chat.OtherParticipant("buyer-1"))
	assert.Equal(t, "buyer-1", chat.OtherParticipant("seller-1"))
	assert.Equal(t, "", chat.OtherParticipant("someone-else"))
}

func TestAppendMessageUpdatesSummary(t *testing.T) {
	chat := &Chat{BuyerID: "buyer-1", SellerID: "seller-1"}

	first := Message{ID: "m1", SenderID: "buyer-1", Text: "hello", CreatedAt: time.Now()}
	second := Message{ID: "m2", SenderID: "seller-1", Text: "hi there", CreatedAt: time.Now().Add(time.Second)}

	chat.AppendMessage(first)
	assert.Len(t, chat.Messages, 1)
	assert.Equal(t, "hello", chat.LastMessage)
	assert.Equal(t, first.CreatedAt, chat.LastMessageAt)

	chat.AppendMessage(second)
	assert.Len(t, chat.Messages, 2)
	assert.Equal(t, "hi there", chat.LastMessage)
	assert.Equal(t, second.CreatedAt, chat.LastMessageAt)
}

func TestUnreadCountFor(t *testing.T) {
	chat := &Chat{BuyerID: "buyer-1", SellerID: "seller-1"}
	chat.AppendMessage(Message{ID: "m1", SenderID: "buyer-1", Text: "a"})
	chat.AppendMessage(Message{ID: "m2", SenderID: "buyer-1", Text: "b"})
	chat.AppendMessage(Message{ID: "m3", SenderID: "seller-1", Text: "c"})

	// Own messages never count as unread for their author.
	assert.Equal(t, 2, chat.UnreadCountFor("seller-1"))
	assert.Equal(t, 1, chat.UnreadCountFor("buyer-1"))
}

func TestMarkReadFor(t *testing.T) {
	chat := &Chat{BuyerID: "buyer-1", SellerID: "seller-1"}
	chat.AppendMessage(Message{ID: "m1", SenderID: "buyer-1", Text: "a"})
	chat.AppendMessage(Message{ID: "m2", SenderID: "buyer-1", Text: "b"})
	chat.AppendMessage(Message{ID: "m3", SenderID: "seller-1", Text: "c"})

	now := time.Now()
	changed := chat.MarkReadFor("seller-1", now)

	assert.Equal(t, 2, changed)
	assert.Equal(t, 0, chat.UnreadCountFor("seller-1"))
	assert.True(t, chat.Messages[0].IsRead)
	assert.NotNil(t, chat.Messages[0].ReadAt)
	assert.Equal(t, now, *chat.Messages[0].ReadAt)

	// The seller's own message stays untouched.
	assert.False(t, chat.Messages[2].IsRead)
	assert.Equal(t, 1, chat.UnreadCountFor("buyer-1"))

	// Second invocation finds nothing left to flip.
	assert.Equal(t, 0, chat.MarkReadFor("seller-1", time.Now()))
	assert.Equal(t, now, *chat.Messages[0].ReadAt)
}
