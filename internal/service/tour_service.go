package service

import (
	"context"
	"sort"
	"time"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/query"
	"github.com/trailpeak/tours-api/internal/utils"
	"github.com/trailpeak/tours-api/pkg/events"
	"github.com/trailpeak/tours-api/pkg/logger"
)

type TourStore interface {
	List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Tour, error)
	GetByID(ctx context.Context, id int64) (*domain.Tour, error)
	Create(ctx context.Context, body []byte) (*domain.Tour, error)
	UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Tour, error)
	DeleteByID(ctx context.Context, id int64) error
	Stats(ctx context.Context) ([]domain.TourStat, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error)
	ListGeo(ctx context.Context) ([]domain.Tour, error)
}

// TourReader is the review-side surface the tour service needs to expand a
// tour's relations.
type TourReader interface {
	ListByTour(ctx context.Context, tourID int64) ([]domain.Review, error)
}

type GuideReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type TourService struct {
	tours   TourStore
	reviews TourReader
	users   GuideReader
	bus     events.Publisher
}

func NewTourService(tours TourStore, reviews TourReader, users GuideReader, bus events.Publisher) *TourService {
	return &TourService{tours: tours, reviews: reviews, users: users, bus: bus}
}

func (s *TourService) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Tour, error) {
	return s.tours.List(ctx, opts, scope...)
}

func (s *TourService) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	return s.tours.GetByID(ctx, id)
}

func (s *TourService) Create(ctx context.Context, body []byte) (*domain.Tour, error) {
	t, err := s.tours.Create(ctx, body)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TourCreated, t)
	return t, nil
}

func (s *TourService) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Tour, error) {
	t, err := s.tours.UpdateByID(ctx, id, body)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TourUpdated, t)
	return t, nil
}

func (s *TourService) DeleteByID(ctx context.Context, id int64) error {
	t, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return domain.ErrNotFound("tour")
	}

	if err := s.tours.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TourDeleted, t)
	return nil
}

// GetDetail loads a tour with its guide users and reviews expanded.
func (s *TourService) GetDetail(ctx context.Context, id int64) (*domain.TourDetail, error) {
	t, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}

	detail := &domain.TourDetail{Tour: *t, GuideUsers: []domain.User{}, Reviews: []domain.Review{}}

	for _, guideID := range t.Guides {
		u, err := s.users.GetByID(ctx, guideID)
		if err != nil {
			return nil, err
		}
		if u != nil {
			detail.GuideUsers = append(detail.GuideUsers, *u)
		}
	}

	reviews, err := s.reviews.ListByTour(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Reviews = reviews

	return detail, nil
}

func (s *TourService) Stats(ctx context.Context) ([]domain.TourStat, error) {
	return s.tours.Stats(ctx)
}

func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	return s.tours.MonthlyPlan(ctx, year)
}

// ToursWithin returns tours whose start location falls inside a circle of the
// given radius around (lat, lng). Unit is "mi" or "km".
func (s *TourService) ToursWithin(ctx context.Context, distance, lat, lng float64, unit string) ([]domain.Tour, error) {
	if unit != "mi" && unit != "km" {
		return nil, domain.ErrValidation("Unit must be one of: mi, km", "unit")
	}
	if distance < 0 {
		return nil, domain.ErrValidation("Distance must not be negative", "distance")
	}

	radiusKm := distance
	if unit == "mi" {
		radiusKm = utils.KmFromMiles(distance)
	}

	tours, err := s.tours.ListGeo(ctx)
	if err != nil {
		return nil, err
	}

	within := []domain.Tour{}
	for _, t := range tours {
		d := utils.HaversineKm(lat, lng, t.StartLocation.Lat(), t.StartLocation.Lng())
		if d <= radiusKm {
			within = append(within, t)
		}
	}
	return within, nil
}

// Distances returns every geolocated tour with its distance from (lat, lng),
// nearest first.
func (s *TourService) Distances(ctx context.Context, lat, lng float64, unit string) ([]domain.TourDistance, error) {
	if unit != "mi" && unit != "km" {
		return nil, domain.ErrValidation("Unit must be one of: mi, km", "unit")
	}

	tours, err := s.tours.ListGeo(ctx)
	if err != nil {
		return nil, err
	}

	distances := make([]domain.TourDistance, 0, len(tours))
	for _, t := range tours {
		d := utils.HaversineKm(lat, lng, t.StartLocation.Lat(), t.StartLocation.Lng())
		if unit == "mi" {
			d = utils.MilesFromKm(d)
		}
		distances = append(distances, domain.TourDistance{ID: t.ID, Name: t.Name, Distance: d})
	}

	sort.Slice(distances, func(i, j int) bool { return distances[i].Distance < distances[j].Distance })
	return distances, nil
}

func (s *TourService) publish(ctx context.Context, subject string, t *domain.Tour) {
	evt := events.TourEvent{TourID: t.ID, Name: t.Name, At: time.Now()}
	if err := s.bus.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "failed to publish tour event", "subject", subject, "err", err)
	}
}
