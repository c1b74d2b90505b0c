package entity

import (
	"time"
)

// User profile. Credentials live in the identity provider; nothing
// secret is stored here and nothing secret is ever serialized.
type User struct {
	ID             string   `json:"id" firestore:"id"`
	Name           string   `json:"name" firestore:"name"`
	Email          string   `json:"email" firestore:"email"`
	College        string   `json:"college" firestore:"college"`
	Phone          string   `json:"phone" firestore:"phone"`
	Location       GeoPoint `json:"location" firestore:"location"`
	ProfilePicture string   `json:"profile_picture,omitempty" firestore:"profilePicture,omitempty"`

	Ratings      float64 `json:"ratings" firestore:"ratings"`
	TotalRatings int64   `json:"total_ratings" firestore:"totalRatings"`

	ProductsListed int64 `json:"products_listed" firestore:"productsListed"`
	ProductsSold   int64 `json:"products_sold" firestore:"productsSold"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ApplyRating folds a new rating into the running mean.
func (u *User) ApplyRating(rating float64) {
	u.TotalRatings++
	u.Ratings = ((u.Ratings * float64(u.TotalRatings-1)) + rating) / float64(u.TotalRatings)
}

// UserSummary is the minimal participant view joined into chat
// listings.
type UserSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Summary returns the public participant view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
	}
}
