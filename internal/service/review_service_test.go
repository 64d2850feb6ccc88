package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/query"
	"github.com/trailpeak/tours-api/internal/service"
	"github.com/trailpeak/tours-api/pkg/events"
)

// ---------- Mocks ----------

type mockReviewStore struct {
	reviews map[int64]*domain.Review
	nextID  int64
}

func newMockReviewStore() *mockReviewStore {
	return &mockReviewStore{reviews: map[int64]*domain.Review{}, nextID: 1}
}

func (m *mockReviewStore) List(_ context.Context, _ query.Options, _ ...query.Filter) ([]domain.Review, error) {
	out := []domain.Review{}
	for _, rv := range m.reviews {
		out = append(out, *rv)
	}
	return out, nil
}

func (m *mockReviewStore) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (m *mockReviewStore) Create(_ context.Context, body []byte) (*domain.Review, error) {
	var in domain.ReviewInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rv := &domain.Review{ID: m.nextID, Review: in.Review, Rating: in.Rating, Tour: in.Tour, User: in.User}
	m.reviews[rv.ID] = rv
	m.nextID++
	return rv, nil
}

func (m *mockReviewStore) UpdateByID(_ context.Context, id int64, body []byte) (*domain.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return nil, domain.ErrNotFound("review")
	}
	in := domain.InputFromReview(rv)
	if err := json.Unmarshal(body, in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rv.Review, rv.Rating = in.Review, in.Rating
	return rv, nil
}

func (m *mockReviewStore) DeleteByID(_ context.Context, id int64) error {
	if _, ok := m.reviews[id]; !ok {
		return domain.ErrNotFound("review")
	}
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewStore) AggregateForTour(ctx context.Context, tourID int64) (domain.RatingSummary, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.RatingSummary{}, false, err
	}
	var sum float64
	var n int
	for _, rv := range m.reviews {
		if rv.Tour == tourID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return domain.RatingSummary{}, false, nil
	}
	return domain.RatingSummary{Average: sum / float64(n), Quantity: n}, true, nil
}

type mockRatingWriter struct {
	byTour map[int64]domain.RatingSummary
}

func (m *mockRatingWriter) UpdateRatingSummary(ctx context.Context, tourID int64, summary domain.RatingSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.byTour[tourID] = summary
	return nil
}

func reviewBody(t *testing.T, in domain.ReviewInput) []byte {
	t.Helper()
	body, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal review: %v", err)
	}
	return body
}

func newReviewService() (*service.ReviewService, *mockReviewStore, *mockRatingWriter) {
	store := newMockReviewStore()
	ratings := &mockRatingWriter{byTour: map[int64]domain.RatingSummary{}}
	return service.NewReviewService(store, ratings, events.NoopPublisher{}), store, ratings
}

// ---------- Tests ----------

func TestCreateReviewRecomputesRatings(t *testing.T) {
	svc, _, ratings := newReviewService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, reviewBody(t, domain.ReviewInput{Rating: 4, Tour: 1, User: 1})); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, reviewBody(t, domain.ReviewInput{Rating: 5, Tour: 1, User: 2})); err != nil {
		t.Fatalf("create: %v", err)
	}

	got := ratings.byTour[1]
	if got.Quantity != 2 || got.Average != 4.5 {
		t.Errorf("expected avg 4.5 over 2 reviews, got %+v", got)
	}
}

func TestRatingAverageRoundsToOneDecimal(t *testing.T) {
	svc, _, ratings := newReviewService()
	ctx := context.Background()

	for i, rating := range []float64{5, 4, 4} { // mean 4.333...
		body := reviewBody(t, domain.ReviewInput{Rating: rating, Tour: 1, User: int64(i + 1)})
		if _, err := svc.Create(ctx, body); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if got := ratings.byTour[1].Average; got != 4.3 {
		t.Errorf("expected rounded average 4.3, got %v", got)
	}
}

func TestDeletingLastReviewResetsSummary(t *testing.T) {
	svc, _, ratings := newReviewService()
	ctx := context.Background()

	rv, err := svc.Create(ctx, reviewBody(t, domain.ReviewInput{Rating: 5, Tour: 1, User: 1}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteByID(ctx, rv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got := ratings.byTour[1]
	if got != domain.DefaultRatingSummary {
		t.Errorf("expected default summary %+v after last delete, got %+v", domain.DefaultRatingSummary, got)
	}
}

func TestUpdateReviewRecomputesRatings(t *testing.T) {
	svc, _, ratings := newReviewService()
	ctx := context.Background()

	rv, err := svc.Create(ctx, reviewBody(t, domain.ReviewInput{Rating: 2, Tour: 1, User: 1}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateByID(ctx, rv.ID, []byte(`{"rating": 5}`)); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := ratings.byTour[1].Average; got != 5 {
		t.Errorf("expected recomputed average 5, got %v", got)
	}
}

func TestRatingRollupSurvivesDisconnectedClient(t *testing.T) {
	svc, _, ratings := newReviewService()

	// The write has committed by the time the recompute runs, so a context
	// canceled by a client disconnect must not leave a stale rollup behind.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Create(ctx, reviewBody(t, domain.ReviewInput{Rating: 5, Tour: 1, User: 1})); err != nil {
		t.Fatalf("create: %v", err)
	}

	got := ratings.byTour[1]
	if got.Quantity != 1 || got.Average != 5 {
		t.Errorf("expected rollup {5 1} despite canceled context, got %+v", got)
	}
}

func TestDeleteMissingReviewReturnsNotFound(t *testing.T) {
	svc, _, _ := newReviewService()

	err := svc.DeleteByID(context.Background(), 99)
	if !domain.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestCreateReviewInvalidRatingDoesNotTouchSummary(t *testing.T) {
	svc, _, ratings := newReviewService()

	_, err := svc.Create(context.Background(), reviewBody(t, domain.ReviewInput{Rating: 9, Tour: 1, User: 1}))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ratings.byTour) != 0 {
		t.Errorf("summary should be untouched after failed create: %v", ratings.byTour)
	}
}
