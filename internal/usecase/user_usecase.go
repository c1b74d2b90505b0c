package usecase

import (
	"context"
	"strings"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

// UserUseCase covers profile reads, edits and peer ratings.
type UserUseCase struct {
	userRepo repository.UserRepository
	geocoder Geocoder
}

func NewUserUseCase(userRepo repository.UserRepository, geocoder Geocoder) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		geocoder: geocoder,
	}
}

type UpdateProfileInput struct {
	Name           *string `json:"name,omitempty"`
	College        *string `json:"college,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// UpdateProfile applies partial edits; changing the college re-geocodes
// the user's location so nearby search stays accurate.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.Validation("Name cannot be empty", nil)
		}
		user.Name = name
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.ProfilePicture != nil {
		user.ProfilePicture = *input.ProfilePicture
	}
	if input.College != nil {
		college := strings.TrimSpace(*input.College)
		if college == "" {
			return nil, errors.Validation("College cannot be empty", nil)
		}
		user.College = college
		if uc.geocoder != nil {
			point, err := uc.geocoder.Geocode(ctx, college)
			if err != nil {
				logger.Warn("Geocoding college %q failed: %v", college, err)
			} else {
				user.Location = point
			}
		}
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RateUser records a 1-5 rating from another user, folding it into the
// running mean.
func (uc *UserUseCase) RateUser(ctx context.Context, ratedID, raterID string, rating float64) (*entity.User, error) {
	if rating < 1 || rating > 5 {
		return nil, errors.Validation("Rating must be between 1 and 5", nil)
	}
	if ratedID == raterID {
		return nil, errors.Conflict("You cannot rate yourself", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, ratedID)
	if err != nil {
		return nil, err
	}

	user.ApplyRating(rating)
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
