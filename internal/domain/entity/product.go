package entity

import (
	"strings"
	"time"
)

// Product statuses. Deleted is terminal; a deleted listing stays in
// storage with this status (soft delete). Reserved can move back to
// Available, every other transition is one-way.
const (
	ProductStatusAvailable = "Available"
	ProductStatusSold      = "Sold"
	ProductStatusReserved  = "Reserved"
	ProductStatusDeleted   = "Deleted"
)

var ProductCategories = []string{
	"Laptop", "Books", "Bike", "Electronics", "Stationery",
	"Furniture", "Clothing", "Sports", "Other",
}

var ProductConditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

// GeoPoint is a longitude/latitude pair plus the free-text address it
// was geocoded from.
type GeoPoint struct {
	Longitude float64 `json:"longitude" firestore:"longitude"`
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Address   string  `json:"address" firestore:"address"`
}

type Product struct {
	ID               string    `json:"id" firestore:"id"`
	Title            string    `json:"title" firestore:"title"`
	Description      string    `json:"description" firestore:"description"`
	Price            float64   `json:"price" firestore:"price"`
	IsNegotiable     bool      `json:"is_negotiable" firestore:"isNegotiable"`
	Category         string    `json:"category" firestore:"category"`
	Condition        string    `json:"condition" firestore:"condition"`
	Images           []string  `json:"images" firestore:"images"`
	SellerID         string    `json:"seller_id" firestore:"sellerId"`
	College          string    `json:"college" firestore:"college"`
	Location         GeoPoint  `json:"location" firestore:"location"`
	Status           string    `json:"status" firestore:"status"`
	Views            int64     `json:"views" firestore:"views"`
	InterestedBuyers []string  `json:"interested_buyers" firestore:"interestedBuyers"`
	Tags             []string  `json:"tags" firestore:"tags"`
	CreatedAt        time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt        time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ValidCategory reports whether category is one of the closed set.
func ValidCategory(category string) bool {
	return containsString(ProductCategories, category)
}

// ValidCondition reports whether condition is one of the closed set.
func ValidCondition(condition string) bool {
	return containsString(ProductConditions, condition)
}

// ValidStatusTransition encodes the listing lifecycle: Available and
// Reserved swap freely, either can end in Sold or Deleted, and the
// terminal states never leave.
func ValidStatusTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case ProductStatusAvailable:
		return to == ProductStatusReserved || to == ProductStatusSold || to == ProductStatusDeleted
	case ProductStatusReserved:
		return to == ProductStatusAvailable || to == ProductStatusSold || to == ProductStatusDeleted
	}
	return false
}

// DeriveTags tokenizes the title into a deduplicated set of lowercase
// tags, preserving first-seen order.
func DeriveTags(title string) []string {
	words := strings.Fields(strings.ToLower(title))
	seen := make(map[string]struct{}, len(words))
	var tags []string
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		tags = append(tags, w)
	}
	return tags
}

// ToggleInterest adds userID to the interested-buyer set, or removes it
// if already present. Returns true when the user is interested after
// the call.
func (p *Product) ToggleInterest(userID string) bool {
	for i, id := range p.InterestedBuyers {
		if id == userID {
			p.InterestedBuyers = append(p.InterestedBuyers[:i], p.InterestedBuyers[i+1:]...)
			return false
		}
	}
	p.InterestedBuyers = append(p.InterestedBuyers, userID)
	return true
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
