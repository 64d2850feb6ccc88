package domain

import (
	"time"

	"github.com/trailpeak/tours-api/internal/utils"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return Difficulty(s), true
	default:
		return "", false
	}
}

// Location is a GeoJSON-style point embedded in a tour.
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // lng, lat
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	Day         *int       `json:"day,omitempty"`
}

func (l *Location) Lng() float64 { return l.Coordinates[0] }
func (l *Location) Lat() float64 { return l.Coordinates[1] }

type Tour struct {
	ID                      int64       `json:"id"`
	Name                    string      `json:"name"`
	Slug                    string      `json:"slug"`
	Duration                int         `json:"duration"`
	Difficulty              Difficulty  `json:"difficulty"`
	MaxGroupSize            int         `json:"maxGroupSize"`
	Price                   float64     `json:"price"`
	PriceDiscountPercentage *float64    `json:"priceDiscountPercentage,omitempty"`
	RatingsAverage          float64     `json:"ratingsAverage"`
	RatingsQuantity         int         `json:"ratingsQuantity"`
	Summary                 string      `json:"summary"`
	Description             string      `json:"description,omitempty"`
	ImageCover              string      `json:"imageCover"`
	Images                  []string    `json:"images,omitempty"`
	StartDates              []time.Time `json:"startDates,omitempty"`
	PrivateTour             bool        `json:"privateTour"`
	StartLocation           *Location   `json:"startLocation,omitempty"`
	Locations               []Location  `json:"locations,omitempty"`
	Guides                  []int64     `json:"guides,omitempty"`
	CreatedAt               time.Time   `json:"createdAt"`
	UpdatedAt               time.Time   `json:"updatedAt"`
}

// TourInput carries the client-settable fields of a tour. Rating rollup
// fields and the slug are derived and can never be written directly.
type TourInput struct {
	Name                    string      `json:"name"`
	Duration                int         `json:"duration"`
	Difficulty              string      `json:"difficulty"`
	MaxGroupSize            int         `json:"maxGroupSize"`
	Price                   float64     `json:"price"`
	PriceDiscountPercentage *float64    `json:"priceDiscountPercentage"`
	Summary                 string      `json:"summary"`
	Description             string      `json:"description"`
	ImageCover              string      `json:"imageCover"`
	Images                  []string    `json:"images"`
	StartDates              []time.Time `json:"startDates"`
	PrivateTour             bool        `json:"privateTour"`
	StartLocation           *Location   `json:"startLocation"`
	Locations               []Location  `json:"locations"`
	Guides                  []int64     `json:"guides"`
}

func (in *TourInput) Normalize() {
	in.Name = utils.NormalizeString(in.Name)
	in.Summary = utils.NormalizeString(in.Summary)
	in.Description = utils.NormalizeString(in.Description)
	if in.StartLocation != nil && in.StartLocation.Type == "" {
		in.StartLocation.Type = "Point"
	}
	for i := range in.Locations {
		if in.Locations[i].Type == "" {
			in.Locations[i].Type = "Point"
		}
	}
}

func (in *TourInput) Validate() error {
	problems := map[string]string{}

	if in.Name == "" {
		problems["name"] = "Tour must have a name"
	} else if len(in.Name) < 10 || len(in.Name) > 40 {
		problems["name"] = "Tour name must be between 10 and 40 characters"
	}
	if in.Duration <= 0 {
		problems["duration"] = "Tour must have a duration"
	}
	if _, ok := ParseDifficulty(in.Difficulty); !ok {
		problems["difficulty"] = "Tour difficulty can be: easy, medium, difficult"
	}
	if in.MaxGroupSize < 1 {
		problems["maxGroupSize"] = "Minimum group size for a tour is 1"
	}
	if in.Price < 0 {
		problems["price"] = "Minimum price is 0"
	}
	if in.PriceDiscountPercentage != nil {
		if p := *in.PriceDiscountPercentage; p < 0 || p > 100 {
			problems["priceDiscountPercentage"] = "Discount percentage must be between 0 and 100"
		}
	}
	if in.Summary == "" {
		problems["summary"] = "Tour must have a summary"
	}
	if in.ImageCover == "" {
		problems["imageCover"] = "Tour must have a cover image"
	}

	if len(problems) > 0 {
		return ErrValidationFields(problems)
	}
	return nil
}

// Slug derives the URL slug from the tour name. Recomputed on every save.
func (in *TourInput) Slug() string {
	return utils.Slugify(in.Name)
}

// ApplyTo merges the input into an existing tour, leaving derived fields to
// the store.
func (in *TourInput) ApplyTo(t *Tour) {
	t.Name = in.Name
	t.Slug = in.Slug()
	t.Duration = in.Duration
	t.Difficulty = Difficulty(in.Difficulty)
	t.MaxGroupSize = in.MaxGroupSize
	t.Price = in.Price
	t.PriceDiscountPercentage = in.PriceDiscountPercentage
	t.Summary = in.Summary
	t.Description = in.Description
	t.ImageCover = in.ImageCover
	t.Images = in.Images
	t.StartDates = in.StartDates
	t.PrivateTour = in.PrivateTour
	t.StartLocation = in.StartLocation
	t.Locations = in.Locations
	t.Guides = in.Guides
}

// InputFromTour seeds an input with a tour's current client-settable fields,
// so a patch body can be merged over it before revalidation.
func InputFromTour(t *Tour) *TourInput {
	return &TourInput{
		Name:                    t.Name,
		Duration:                t.Duration,
		Difficulty:              string(t.Difficulty),
		MaxGroupSize:            t.MaxGroupSize,
		Price:                   t.Price,
		PriceDiscountPercentage: t.PriceDiscountPercentage,
		Summary:                 t.Summary,
		Description:             t.Description,
		ImageCover:              t.ImageCover,
		Images:                  t.Images,
		StartDates:              t.StartDates,
		PrivateTour:             t.PrivateTour,
		StartLocation:           t.StartLocation,
		Locations:               t.Locations,
		Guides:                  t.Guides,
	}
}

// TourDetail is a tour with its guide and review relations expanded.
type TourDetail struct {
	Tour
	GuideUsers []User   `json:"guides"`
	Reviews    []Review `json:"reviews"`
}

// TourStat is one row of the stat rollup by difficulty.
type TourStat struct {
	Difficulty    string  `json:"difficulty"`
	NumTours      int     `json:"numTours"`
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
	AveragePrice  float64 `json:"averagePrice"`
	MinPrice      float64 `json:"minPrice"`
	MaxPrice      float64 `json:"maxPrice"`
}

// MonthlyPlanEntry is one month of the monthly-plan rollup: only months with
// at least one tour start date appear.
type MonthlyPlanEntry struct {
	Month    int      `json:"month"`
	NumTours int      `json:"numTours"`
	Tours    []string `json:"tours"`
}

// TourDistance is the result of a distance-sorted geo search.
type TourDistance struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
