package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	ws "campusmarket/internal/infrastructure/websocket"
	"campusmarket/pkg/errors"
)

// In-memory repository fakes. They mirror the firestore adapters'
// error contracts: Create fails with Conflict on an existing key,
// lookups fail with NotFound.

type fakeChatRepo struct {
	mu             sync.Mutex
	chats          map[string]*entity.Chat
	appendErr      error
	missTripleOnce bool
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]*entity.Chat)}
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if chat.ID == "" {
		chat.ID = entity.ChatKey(chat.BuyerID, chat.SellerID, chat.ProductID)
	}
	if _, exists := r.chats[chat.ID]; exists {
		return errors.Conflict("Chat already exists for this buyer and product", nil)
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	stored := *chat
	r.chats[chat.ID] = &stored
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	copied := *chat
	copied.Messages = append([]entity.Message(nil), chat.Messages...)
	return &copied, nil
}

func (r *fakeChatRepo) GetByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	r.mu.Lock()
	if r.missTripleOnce {
		// Simulates a concurrent creator committing between the
		// caller's lookup and its create.
		r.missTripleOnce = false
		r.mu.Unlock()
		return nil, errors.NotFound("Chat", nil)
	}
	r.mu.Unlock()

	return r.GetByID(ctx, entity.ChatKey(buyerID, sellerID, productID))
}

func (r *fakeChatRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Chat
	for _, chat := range r.chats {
		if chat.IsActive && (chat.BuyerID == userID || chat.SellerID == userID) {
			copied := *chat
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) AppendMessage(ctx context.Context, chatID string, message entity.Message) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return nil, r.appendErr
	}

	chat, ok := r.chats[chatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	chat.AppendMessage(message)
	chat.UpdatedAt = time.Now()
	copied := *chat
	return &copied, nil
}

func (r *fakeChatRepo) MarkMessagesRead(ctx context.Context, chatID, readerID string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[chatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	chat.MarkReadFor(readerID, time.Now())
	chat.UpdatedAt = time.Now()
	copied := *chat
	copied.Messages = append([]entity.Message(nil), chat.Messages...)
	return &copied, nil
}

func (r *fakeChatRepo) SetNegotiation(ctx context.Context, chatID string, proposedPrice *float64, proposedBy string, accepted bool) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[chatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	chat.ProposedPrice = proposedPrice
	chat.ProposedBy = proposedBy
	chat.IsPriceAccepted = accepted
	chat.UpdatedAt = time.Now()
	copied := *chat
	return &copied, nil
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*entity.User
	createErr error
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		copied := *u
		r.users[u.ID] = &copied
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.Conflict("Email is already registered", nil)
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return errors.NotFound("User", nil)
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	nextID   int
}

func newFakeProductRepo(products ...*entity.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[string]*entity.Product)}
	for _, p := range products {
		copied := *p
		r.products[p.ID] = &copied
	}
	return r
}

func (r *fakeProductRepo) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		r.nextID++
		product.ID = "product-" + strconv.Itoa(r.nextID)
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	copied := *product
	return &copied, nil
}

func (r *fakeProductRepo) List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Product
	for _, p := range r.products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Product
	for _, p := range r.products {
		if p.SellerID == sellerID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListNearby(ctx context.Context, longitude, latitude, radiusKm float64) ([]*entity.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return errors.NotFound("Product", nil)
	}
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) IncrementViews(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return errors.NotFound("Product", nil)
	}
	product.Views++
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ws.OutboundMessage
}

func (p *fakePublisher) PublishMessage(evt ws.OutboundMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *fakePublisher) published() []ws.OutboundMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ws.OutboundMessage(nil), p.events...)
}

type fakeGeocoder struct {
	point entity.GeoPoint
	err   error
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (entity.GeoPoint, error) {
	if g.err != nil {
		return entity.GeoPoint{}, g.err
	}
	point := g.point
	point.Address = address
	return point, nil
}
