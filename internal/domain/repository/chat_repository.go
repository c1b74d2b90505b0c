package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

// ChatRepository owns Chat documents and their embedded message logs.
//
// Create must enforce the uniqueness of the (buyer, seller, product)
// triple at the storage layer and fail with a Conflict error when a
// concurrent creator won the race. AppendMessage and MarkMessagesRead
// must commit the log and the summary fields atomically: a reader may
// never observe lastMessageAt without the matching message, or vice
// versa.
type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	GetByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)

	AppendMessage(ctx context.Context, chatID string, message entity.Message) (*entity.Chat, error)
	MarkMessagesRead(ctx context.Context, chatID, readerID string) (*entity.Chat, error)
	SetNegotiation(ctx context.Context, chatID string, proposedPrice *float64, proposedBy string, accepted bool) (*entity.Chat, error)
}
