package service

import (
	"context"
	"sync"
	"time"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/query"
	"github.com/trailpeak/tours-api/internal/utils"
	"github.com/trailpeak/tours-api/pkg/events"
	"github.com/trailpeak/tours-api/pkg/logger"
)

// ReviewStore is the persistence surface the review service needs.
type ReviewStore interface {
	List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Review, error)
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	Create(ctx context.Context, body []byte) (*domain.Review, error)
	UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Review, error)
	DeleteByID(ctx context.Context, id int64) error
	AggregateForTour(ctx context.Context, tourID int64) (domain.RatingSummary, bool, error)
}

// RatingWriter is the slice of the tour store the aggregator writes through.
type RatingWriter interface {
	UpdateRatingSummary(ctx context.Context, tourID int64, summary domain.RatingSummary) error
}

// tourLocks hands out one mutex per tour ID so rating recomputations for the
// same tour never interleave. Entries live for the process lifetime; the map
// is bounded by the number of distinct tours reviewed.
type tourLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *tourLocks) lock(tourID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[tourID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tourID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// ReviewService wraps the review store and keeps each tour's denormalized
// rating rollup in sync after every review mutation.
type ReviewService struct {
	reviews ReviewStore
	ratings RatingWriter
	bus     events.Publisher
	locks   tourLocks
}

func NewReviewService(reviews ReviewStore, ratings RatingWriter, bus events.Publisher) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		ratings: ratings,
		bus:     bus,
		locks:   tourLocks{locks: make(map[int64]*sync.Mutex)},
	}
}

func (s *ReviewService) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Review, error) {
	return s.reviews.List(ctx, opts, scope...)
}

func (s *ReviewService) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

func (s *ReviewService) Create(ctx context.Context, body []byte) (*domain.Review, error) {
	rv, err := s.reviews.Create(ctx, body)
	if err != nil {
		return nil, err
	}

	s.recalcRatings(ctx, rv.Tour)
	s.publish(ctx, events.ReviewCreated, rv)
	return rv, nil
}

func (s *ReviewService) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Review, error) {
	rv, err := s.reviews.UpdateByID(ctx, id, body)
	if err != nil {
		return nil, err
	}

	s.recalcRatings(ctx, rv.Tour)
	s.publish(ctx, events.ReviewUpdated, rv)
	return rv, nil
}

func (s *ReviewService) DeleteByID(ctx context.Context, id int64) error {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rv == nil {
		return domain.ErrNotFound("review")
	}

	if err := s.reviews.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.recalcRatings(ctx, rv.Tour)
	s.publish(ctx, events.ReviewDeleted, rv)
	return nil
}

// recalcRatings recomputes a tour's rating rollup from its remaining reviews.
// A tour with no reviews resets to the default summary. The mutation that
// triggered the recompute has already committed, so failures here are logged
// rather than bubbled up to the client.
func (s *ReviewService) recalcRatings(ctx context.Context, tourID int64) {
	// A client disconnect after the commit must not abort the recompute, or
	// the stored rollup would drift from the review rows.
	ctx = context.WithoutCancel(ctx)

	unlock := s.locks.lock(tourID)
	defer unlock()

	summary, ok, err := s.reviews.AggregateForTour(ctx, tourID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to aggregate tour ratings", "tour_id", tourID, "err", err)
		return
	}
	if !ok {
		summary = domain.DefaultRatingSummary
	} else {
		summary.Average = utils.Round1(summary.Average)
	}

	if err := s.ratings.UpdateRatingSummary(ctx, tourID, summary); err != nil {
		logger.ErrorContext(ctx, "failed to store tour rating summary", "tour_id", tourID, "err", err)
	}
}

func (s *ReviewService) publish(ctx context.Context, subject string, rv *domain.Review) {
	evt := events.ReviewEvent{
		ReviewID: rv.ID,
		TourID:   rv.Tour,
		UserID:   rv.User,
		Rating:   rv.Rating,
		At:       time.Now(),
	}
	if err := s.bus.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "failed to publish review event", "subject", subject, "err", err)
	}
}
