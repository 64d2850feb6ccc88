package domain

import (
	"strings"
	"time"
)

type Review struct {
	ID        int64     `json:"id"`
	Review    string    `json:"review,omitempty"`
	Rating    float64   `json:"rating"`
	Tour      int64     `json:"tour"`
	User      int64     `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Author is populated on reads with the reviewer's public fields.
	Author *ReviewAuthor `json:"author,omitempty"`
}

type ReviewAuthor struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

type ReviewInput struct {
	Review string  `json:"review"`
	Rating float64 `json:"rating"`
	Tour   int64   `json:"tour"`
	User   int64   `json:"user"`
}

func (in *ReviewInput) Normalize() {
	in.Review = strings.TrimSpace(in.Review)
}

func (in *ReviewInput) Validate() error {
	problems := map[string]string{}

	if len(in.Review) > 1000 {
		problems["review"] = "Review must be below 1000 characters"
	}
	if in.Rating < 1 || in.Rating > 5 {
		problems["rating"] = "Rating must be between 1 and 5"
	}
	if in.Tour == 0 {
		problems["tour"] = "Review must belong to a tour"
	}
	if in.User == 0 {
		problems["user"] = "Review must belong to a user"
	}

	if len(problems) > 0 {
		return ErrValidationFields(problems)
	}
	return nil
}

func InputFromReview(rv *Review) *ReviewInput {
	return &ReviewInput{
		Review: rv.Review,
		Rating: rv.Rating,
		Tour:   rv.Tour,
		User:   rv.User,
	}
}

// RatingSummary is the denormalized rollup stored on a tour.
type RatingSummary struct {
	Average  float64
	Quantity int
}

// DefaultRatingSummary applies when a tour has no reviews.
var DefaultRatingSummary = RatingSummary{Average: 3, Quantity: 0}
