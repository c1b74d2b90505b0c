package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) users() *firestore.CollectionRef {
	return r.client.Collection("users")
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	user.Email = strings.ToLower(user.Email)

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.users().Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("User already exists", err)
		}
		return errors.Internal("Failed to create user", err)
	}

	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	return &user, nil
}

func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	iter := r.users().Where("email", "==", strings.ToLower(email)).Limit(1).Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("User", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query user by email", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	return &user, nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()

	_, err := r.users().Doc(user.ID).Set(ctx, user)
	if err != nil {
		return errors.Internal("Failed to update user", err)
	}

	return nil
}
