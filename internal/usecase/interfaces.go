package usecase

import (
	"context"

	"campusmarket/internal/domain/entity"
	ws "campusmarket/internal/infrastructure/websocket"
)

// FirebaseAuthClient is the identity verifier. Credential storage and
// token issuance live entirely behind it.
type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithEmailPassword(ctx context.Context, email, password string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (entity.GeoPoint, error)
}

// MessagePublisher receives the message-appended fact after the store
// confirms persistence. The realtime relay implements it; tests swap in
// a recorder.
type MessagePublisher interface {
	PublishMessage(evt ws.OutboundMessage)
}
