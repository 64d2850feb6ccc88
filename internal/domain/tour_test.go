package domain_test

import (
	"strings"
	"testing"

	"github.com/trailpeak/tours-api/internal/domain"
)

func validTourInput() *domain.TourInput {
	return &domain.TourInput{
		Name:         "The Forest Hiker Tour",
		Duration:     5,
		Difficulty:   "easy",
		MaxGroupSize: 25,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
	}
}

func TestTourInputValidateAcceptsValidInput(t *testing.T) {
	in := validTourInput()
	in.Normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestTourInputValidate(t *testing.T) {
	tooHigh := 110.0
	cases := []struct {
		name   string
		mutate func(*domain.TourInput)
	}{
		{"name too short", func(in *domain.TourInput) { in.Name = "Short" }},
		{"name too long", func(in *domain.TourInput) { in.Name = strings.Repeat("x", 41) }},
		{"missing name", func(in *domain.TourInput) { in.Name = "" }},
		{"zero duration", func(in *domain.TourInput) { in.Duration = 0 }},
		{"bad difficulty", func(in *domain.TourInput) { in.Difficulty = "extreme" }},
		{"zero group size", func(in *domain.TourInput) { in.MaxGroupSize = 0 }},
		{"negative price", func(in *domain.TourInput) { in.Price = -1 }},
		{"discount above 100", func(in *domain.TourInput) { in.PriceDiscountPercentage = &tooHigh }},
		{"missing summary", func(in *domain.TourInput) { in.Summary = "" }},
		{"missing cover image", func(in *domain.TourInput) { in.ImageCover = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validTourInput()
			tc.mutate(in)
			in.Normalize()

			err := in.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !domain.IsValidation(err) {
				t.Errorf("expected 400-class error, got %v", err)
			}
		})
	}
}

func TestTourInputSlugFollowsName(t *testing.T) {
	in := validTourInput()
	in.Name = "The Great  ALPINE Adventure"

	if got := in.Slug(); got != "the-great-alpine-adventure" {
		t.Errorf("unexpected slug %q", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, valid := range []string{"easy", "medium", "difficult"} {
		if _, ok := domain.ParseDifficulty(valid); !ok {
			t.Errorf("%q should parse", valid)
		}
	}
	if _, ok := domain.ParseDifficulty("brutal"); ok {
		t.Error("invalid difficulty should not parse")
	}
}

func TestReviewInputValidate(t *testing.T) {
	valid := domain.ReviewInput{Review: "Loved it", Rating: 4.5, Tour: 1, User: 2}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid review, got %v", err)
	}

	cases := []domain.ReviewInput{
		{Review: "x", Rating: 0.5, Tour: 1, User: 2}, // rating below 1
		{Review: "x", Rating: 5.5, Tour: 1, User: 2}, // rating above 5
		{Review: "x", Rating: 4, User: 2},            // no tour
		{Review: "x", Rating: 4, Tour: 1},            // no user
		{Review: strings.Repeat("x", 1001), Rating: 4, Tour: 1, User: 2},
	}
	for i, in := range cases {
		if err := in.Validate(); !domain.IsValidation(err) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}
