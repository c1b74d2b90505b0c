package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/ratelimit"
	ws "campusmarket/internal/infrastructure/websocket"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

const maxMessageLength = 1000

// ChatUseCase is the conversation store: it owns chat creation,
// message appends, read state and negotiation, and publishes a
// message-appended event once a message is durably stored.
type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	publisher   MessagePublisher
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	publisher MessagePublisher,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		publisher:   publisher,
		rateLimiter: rateLimiter,
	}
}

// ProductSummary is the minimal listing view joined into chat
// responses.
type ProductSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Price  float64  `json:"price"`
	Images []string `json:"images,omitempty"`
	Status string   `json:"status"`
}

type ChatResponse struct {
	*entity.Chat
	Product     *ProductSummary     `json:"product,omitempty"`
	Buyer       *entity.UserSummary `json:"buyer,omitempty"`
	Seller      *entity.UserSummary `json:"seller,omitempty"`
	UnreadCount int                 `json:"unread_count"`
}

type MessageResponse struct {
	entity.Message
	Sender *entity.UserSummary `json:"sender,omitempty"`
}

// StartChat is the buyer's first-contact action on a listing: it
// resolves the seller from the product and finds or creates the chat
// for the (buyer, seller, product) triple.
func (uc *ChatUseCase) StartChat(ctx context.Context, buyerID, productID string) (*ChatResponse, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == entity.ProductStatusDeleted {
		return nil, errors.NotFound("Product", nil)
	}

	chat, err := uc.FindOrCreate(ctx, buyerID, product.SellerID, productID)
	if err != nil {
		return nil, err
	}

	return uc.buildChatResponse(ctx, chat, buyerID), nil
}

// FindOrCreate returns the one chat for the triple, creating it on
// first contact. Repeated calls with the same triple always return the
// same chat: a racing creator that loses the storage uniqueness
// constraint retries as a lookup.
func (uc *ChatUseCase) FindOrCreate(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	if err := validateID("buyer id", buyerID); err != nil {
		return nil, err
	}
	if err := validateID("seller id", sellerID); err != nil {
		return nil, err
	}
	if err := validateID("product id", productID); err != nil {
		return nil, err
	}
	if buyerID == sellerID {
		return nil, errors.Conflict("You cannot start a chat for your own listing", nil)
	}

	chat, err := uc.chatRepo.GetByTriple(ctx, buyerID, sellerID, productID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	// Only a genuinely new conversation counts against the creation
	// limit. Reopening an existing chat is a plain lookup and stays
	// free no matter how often it happens.
	if allowed, wait := uc.rateLimiter.Allow(buyerID, "create_chat"); !allowed {
		logger.Warn("Chat creation rate limited: user %s must wait %v", buyerID, wait)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another chat")
	}

	newChat := &entity.Chat{
		ProductID:     productID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		Messages:      []entity.Message{},
		LastMessage:   "",
		LastMessageAt: time.Now(),
		IsActive:      true,
	}

	if err := uc.chatRepo.Create(ctx, newChat); err != nil {
		if errors.Is(err, "CONFLICT") {
			// Lost the creation race; the winner's chat is the one.
			return uc.chatRepo.GetByTriple(ctx, buyerID, sellerID, productID)
		}
		return nil, err
	}

	return newChat, nil
}

// SendMessage validates, persists and then publishes one message. The
// publish happens strictly after the store confirms the append, so a
// subscriber can never observe a message that is not durable.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, chatID, text string) (*MessageResponse, error) {
	if allowed, wait := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, wait)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	trimmed, err := validateMessageText(text)
	if err != nil {
		return nil, err
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	// Participants are fixed at creation, so this check cannot go
	// stale between here and the append.
	if !chat.HasParticipant(senderID) {
		return nil, errors.Validation("Sender is not a participant in this chat", nil)
	}

	sender, err := uc.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	message := entity.Message{
		ID:        uuid.New().String(),
		SenderID:  senderID,
		Text:      trimmed,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	if _, err := uc.chatRepo.AppendMessage(ctx, chatID, message); err != nil {
		return nil, err
	}

	if uc.publisher != nil {
		uc.publisher.PublishMessage(ws.OutboundMessage{
			ConversationID: chatID,
			MessageID:      message.ID,
			SenderID:       senderID,
			SenderName:     sender.Name,
			Text:           message.Text,
			CreatedAt:      message.CreatedAt,
		})
	}

	senderSummary := sender.Summary()
	return &MessageResponse{
		Message: message,
		Sender:  &senderSummary,
	}, nil
}

// SendChatMessage is the realtime relay's entry point.
func (uc *ChatUseCase) SendChatMessage(ctx context.Context, senderID, conversationID, text string) error {
	_, err := uc.SendMessage(ctx, senderID, conversationID, text)
	return err
}

// MarkRead flips every message from the other participant to read.
// Idempotent: re-invocation finds nothing left to flip.
func (uc *ChatUseCase) MarkRead(ctx context.Context, chatID, readerID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(readerID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.chatRepo.MarkMessagesRead(ctx, chatID, readerID)
}

// UnreadCount counts the other participant's unread messages.
func (uc *ChatUseCase) UnreadCount(ctx context.Context, chatID, readerID string) (int, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(readerID) {
		return 0, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return chat.UnreadCountFor(readerID), nil
}

// ListForUser returns the user's active chats joined with listing and
// participant summaries, most recent activity first.
func (uc *ChatUseCase) ListForUser(ctx context.Context, userID string) ([]*ChatResponse, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*ChatResponse, 0, len(chats))
	for _, chat := range chats {
		responses = append(responses, uc.buildChatResponse(ctx, chat, userID))
	}

	return responses, nil
}

// Get returns the full chat with message history.
func (uc *ChatUseCase) Get(ctx context.Context, chatID, userID string) (*ChatResponse, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.buildChatResponse(ctx, chat, userID), nil
}

// ProposePrice records a price proposal on a negotiable listing,
// clearing any previous acceptance.
func (uc *ChatUseCase) ProposePrice(ctx context.Context, chatID, userID string, price float64) (*entity.Chat, error) {
	if price <= 0 {
		return nil, errors.Validation("Proposed price must be greater than zero", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	product, err := uc.productRepo.GetByID(ctx, chat.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsNegotiable {
		return nil, errors.Conflict("The price of this listing is not negotiable", nil)
	}

	return uc.chatRepo.SetNegotiation(ctx, chatID, &price, userID, false)
}

// RespondToPrice lets the counterpart accept or reject the pending
// proposal. Rejection clears it.
func (uc *ChatUseCase) RespondToPrice(ctx context.Context, chatID, userID string, accept bool) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}
	if chat.ProposedPrice == nil {
		return nil, errors.Conflict("There is no pending price proposal", nil)
	}
	if chat.ProposedBy == userID {
		return nil, errors.Conflict("You cannot respond to your own proposal", nil)
	}

	if accept {
		return uc.chatRepo.SetNegotiation(ctx, chatID, chat.ProposedPrice, chat.ProposedBy, true)
	}
	return uc.chatRepo.SetNegotiation(ctx, chatID, nil, "", false)
}

func (uc *ChatUseCase) buildChatResponse(ctx context.Context, chat *entity.Chat, forUser string) *ChatResponse {
	resp := &ChatResponse{
		Chat:        chat,
		UnreadCount: chat.UnreadCountFor(forUser),
	}

	if product, err := uc.productRepo.GetByID(ctx, chat.ProductID); err == nil {
		resp.Product = &ProductSummary{
			ID:     product.ID,
			Title:  product.Title,
			Price:  product.Price,
			Images: product.Images,
			Status: product.Status,
		}
	} else {
		logger.Warn("Product %s not found for chat %s: %v", chat.ProductID, chat.ID, err)
	}

	if buyer, err := uc.userRepo.GetByID(ctx, chat.BuyerID); err == nil {
		summary := buyer.Summary()
		resp.Buyer = &summary
	}
	if seller, err := uc.userRepo.GetByID(ctx, chat.SellerID); err == nil {
		summary := seller.Summary()
		resp.Seller = &summary
	}

	return resp
}

// validateMessageText trims and bounds-checks message text: 1 to 1000
// characters after trimming.
func validateMessageText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", errors.Validation("Message text is required", nil)
	}
	if len([]rune(trimmed)) > maxMessageLength {
		return "", errors.Validation("Message cannot exceed 1000 characters", nil)
	}
	return trimmed, nil
}

func validateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.Validation(field+" is required", nil)
	}
	return nil
}
