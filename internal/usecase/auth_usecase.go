package usecase

import (
	"context"
	"strings"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

// AuthUseCase registers and signs in users. Credentials live in the
// identity provider; the repository only holds the profile.
type AuthUseCase struct {
	authClient FirebaseAuthClient
	userRepo   repository.UserRepository
	geocoder   Geocoder
}

func NewAuthUseCase(authClient FirebaseAuthClient, userRepo repository.UserRepository, geocoder Geocoder) *AuthUseCase {
	return &AuthUseCase{
		authClient: authClient,
		userRepo:   userRepo,
		geocoder:   geocoder,
	}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	College  string `json:"college" validate:"required"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// Register creates the identity provider account and the profile
// document. If the profile write fails the provider account is rolled
// back so the email is not left half-registered.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, errors.Conflict("Email is already registered", nil)
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	uid, err := uc.authClient.CreateUser(ctx, email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:      uid,
		Name:    strings.TrimSpace(input.Name),
		Email:   email,
		College: strings.TrimSpace(input.College),
		Phone:   strings.TrimSpace(input.Phone),
	}

	if uc.geocoder != nil && user.College != "" {
		point, err := uc.geocoder.Geocode(ctx, user.College)
		if err != nil {
			logger.Warn("Geocoding college %q failed: %v", user.College, err)
		} else {
			user.Location = point
		}
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if delErr := uc.authClient.DeleteUser(ctx, uid); delErr != nil {
			logger.Error("Failed to roll back auth account %s: %v", uid, delErr)
		}
		return nil, err
	}

	token, err := uc.authClient.SignInWithEmailPassword(ctx, email, input.Password)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

// Login exchanges email and password for an ID token.
func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	token, err := uc.authClient.SignInWithEmailPassword(ctx, email, input.Password)
	if err != nil {
		return nil, errors.Unauthorized("Invalid email or password", err)
	}

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

// GetUserByID resolves the authenticated user for middleware.
func (uc *AuthUseCase) GetUserByID(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}
