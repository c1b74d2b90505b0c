package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Chat is a negotiation thread between exactly one buyer and one seller
// over one product. Messages are embedded: they have no lifecycle of
// their own and always commit together with the summary fields.
type Chat struct {
	ID              string    `json:"id" firestore:"id"`
	ProductID       string    `json:"product_id" firestore:"productId"`
	BuyerID         string    `json:"buyer_id" firestore:"buyerId"`
	SellerID        string    `json:"seller_id" firestore:"sellerId"`
	Messages        []Message `json:"messages" firestore:"messages"`
	LastMessage     string    `json:"last_message" firestore:"lastMessage"`
	LastMessageAt   time.Time `json:"last_message_at" firestore:"lastMessageAt"`
	IsActive        bool      `json:"is_active" firestore:"isActive"`
	ProposedPrice   *float64  `json:"proposed_price" firestore:"proposedPrice"`
	ProposedBy      string    `json:"proposed_by,omitempty" firestore:"proposedBy,omitempty"`
	IsPriceAccepted bool      `json:"is_price_accepted" firestore:"isPriceAccepted"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Message is a single chat message, owned by exactly one Chat.
type Message struct {
	ID        string     `json:"id" firestore:"id"`
	SenderID  string     `json:"sender_id" firestore:"senderId"`
	Text      string     `json:"text" firestore:"text"`
	IsRead    bool       `json:"is_read" firestore:"isRead"`
	ReadAt    *time.Time `json:"read_at" firestore:"readAt"`
	CreatedAt time.Time  `json:"created_at" firestore:"createdAt"`
}

// ChatKey derives the storage key for a (buyer, seller, product) triple.
// The same triple always maps to the same key, which is what lets the
// storage layer enforce at most one chat per triple.
func ChatKey(buyerID, sellerID, productID string) string {
	sum := sha256.Sum256([]byte(buyerID + "|" + sellerID + "|" + productID))
	return hex.EncodeToString(sum[:20])
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Chat) HasParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// OtherParticipant returns the counterpart of userID, or "" if userID
// is not a participant.
func (c *Chat) OtherParticipant(userID string) string {
	switch userID {
	case c.BuyerID:
		return c.SellerID
	case c.SellerID:
		return c.BuyerID
	}
	return ""
}

// AppendMessage appends msg and keeps the summary fields in sync with
// the log.
func (c *Chat) AppendMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastMessage = msg.Text
	c.LastMessageAt = msg.CreatedAt
}

// UnreadCountFor counts messages authored by the other participant that
// readerID has not read yet.
func (c *Chat) UnreadCountFor(readerID string) int {
	count := 0
	for i := range c.Messages {
		if c.Messages[i].SenderID != readerID && !c.Messages[i].IsRead {
			count++
		}
	}
	return count
}

// MarkReadFor transitions every message not authored by readerID from
// unread to read, stamping ReadAt. Read state never reverts, so calling
// this twice is a no-op the second time. Returns how many messages
// changed state.
func (c *Chat) MarkReadFor(readerID string, now time.Time) int {
	changed := 0
	for i := range c.Messages {
		if c.Messages[i].SenderID != readerID && !c.Messages[i].IsRead {
			c.Messages[i].IsRead = true
			at := now
			c.Messages[i].ReadAt = &at
			changed++
		}
	}
	return changed
}
