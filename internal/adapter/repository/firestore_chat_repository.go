package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection("chats")
}

// Create stores a new chat under its triple-derived document ID using
// firestore Create, which fails when the document already exists. That
// is the storage-layer uniqueness constraint on (buyer, seller,
// product): of two racing creators exactly one wins, the other gets a
// Conflict and is expected to retry as a lookup.
func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = entity.ChatKey(chat.BuyerID, chat.SellerID, chat.ProductID)
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	_, err := r.chats().Doc(chat.ID).Create(ctx, chat)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Chat already exists for this buyer and product", err)
		}
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) GetByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	return r.GetByID(ctx, entity.ChatKey(buyerID, sellerID, productID))
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	var chats []*entity.Chat

	for _, field := range []string{"buyerId", "sellerId"} {
		query := r.chats().
			Where(field, "==", userID).
			Where("isActive", "==", true)

		iter := query.Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, errors.Internal("Failed to iterate chats", err)
			}

			var chat entity.Chat
			if err := doc.DataTo(&chat); err != nil {
				return nil, errors.Internal("Failed to parse chat data", err)
			}
			chats = append(chats, &chat)
		}
	}

	// Most recent activity first.
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessageAt.After(chats[j].LastMessageAt)
	})

	return chats, nil
}

// AppendMessage appends the message and updates the summary fields in a
// single transaction on the chat document, so the log and
// lastMessage/lastMessageAt are never observable out of sync.
func (r *firestoreChatRepository) AppendMessage(ctx context.Context, chatID string, message entity.Message) (*entity.Chat, error) {
	return r.mutate(ctx, chatID, func(chat *entity.Chat) error {
		chat.AppendMessage(message)
		return nil
	})
}

func (r *firestoreChatRepository) MarkMessagesRead(ctx context.Context, chatID, readerID string) (*entity.Chat, error) {
	return r.mutate(ctx, chatID, func(chat *entity.Chat) error {
		chat.MarkReadFor(readerID, time.Now())
		return nil
	})
}

func (r *firestoreChatRepository) SetNegotiation(ctx context.Context, chatID string, proposedPrice *float64, proposedBy string, accepted bool) (*entity.Chat, error) {
	return r.mutate(ctx, chatID, func(chat *entity.Chat) error {
		chat.ProposedPrice = proposedPrice
		chat.ProposedBy = proposedBy
		chat.IsPriceAccepted = accepted
		return nil
	})
}

// mutate runs fn against the current chat state inside a transaction
// and writes the result back.
func (r *firestoreChatRepository) mutate(ctx context.Context, chatID string, fn func(*entity.Chat) error) (*entity.Chat, error) {
	ref := r.chats().Doc(chatID)
	var updated *entity.Chat

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat", err)
			}
			return errors.Internal("Failed to get chat", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return errors.Internal("Failed to parse chat data", err)
		}

		if err := fn(&chat); err != nil {
			return err
		}

		chat.UpdatedAt = time.Now()
		if err := tx.Set(ref, &chat); err != nil {
			return errors.Internal("Failed to update chat", err)
		}

		updated = &chat
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Chat transaction failed", err)
	}

	return updated, nil
}
