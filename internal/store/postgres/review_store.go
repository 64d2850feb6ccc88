package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/query"
)

// ReviewSchema reads through a join so every review carries its author's
// public fields.
var ReviewSchema = query.Schema{
	Table: "reviews r JOIN users u ON u.id = r.user_id",
	Columns: map[string]query.Column{
		"rating":    {Name: "r.rating", Kind: query.Float},
		"tour":      {Name: "r.tour_id", Kind: query.Int},
		"user":      {Name: "r.user_id", Kind: query.Int},
		"createdAt": {Name: "r.created_at", Kind: query.Time},
	},
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}},
}

type ReviewStore struct {
	pool *pgxpool.Pool
	refs *RefChecker
}

func NewReviewStore(pool *pgxpool.Pool, refs *RefChecker) *ReviewStore {
	return &ReviewStore{pool: pool, refs: refs}
}

const reviewCols = `r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, r.updated_at,
u.id, u.name, u.photo`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv     domain.Review
		author domain.ReviewAuthor
	)
	err := row.Scan(
		&rv.ID, &rv.Review, &rv.Rating, &rv.Tour, &rv.User, &rv.CreatedAt, &rv.UpdatedAt,
		&author.ID, &author.Name, &author.Photo,
	)
	if err != nil {
		return nil, err
	}
	rv.Author = &author
	return &rv, nil
}

func (s *ReviewStore) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Review, error) {
	sql, args, err := ReviewSchema.BuildSelect(reviewCols, nil, opts, scope...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateError(err, "review")
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, domain.ErrInternal(err)
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func (s *ReviewStore) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	const q = `SELECT ` + reviewCols + ` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rv, err := scanReview(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("review")
	}
	if err != nil {
		return nil, translateError(err, "review")
	}
	return rv, nil
}

func (s *ReviewStore) Create(ctx context.Context, body []byte) (*domain.Review, error) {
	var in domain.ReviewInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.refs.Check(ctx, "tours", "tour", in.Tour); err != nil {
		return nil, err
	}
	if err := s.refs.Check(ctx, "users", "user", in.User); err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO reviews (review, rating, tour_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, review, rating, tour_id, user_id, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rv domain.Review
	err := s.pool.QueryRow(ctx, q, in.Review, in.Rating, in.Tour, in.User).Scan(
		&rv.ID, &rv.Review, &rv.Rating, &rv.Tour, &rv.User, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err, "review")
	}
	return &rv, nil
}

func (s *ReviewStore) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Review, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound("review")
	}

	in := domain.InputFromReview(existing)
	if err := json.Unmarshal(body, in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	// tour and user references are immutable once written
	in.Tour = existing.Tour
	in.User = existing.User

	const q = `
		UPDATE reviews SET review = $2, rating = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, review, rating, tour_id, user_id, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rv domain.Review
	err = s.pool.QueryRow(ctx, q, id, in.Review, in.Rating).Scan(
		&rv.ID, &rv.Review, &rv.Rating, &rv.Tour, &rv.User, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("review")
	}
	if err != nil {
		return nil, translateError(err, "review")
	}
	return &rv, nil
}

func (s *ReviewStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := s.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "review")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound("review")
	}
	return nil
}

// ListByTour returns a tour's reviews for relation expansion.
func (s *ReviewStore) ListByTour(ctx context.Context, tourID int64) ([]domain.Review, error) {
	return s.List(ctx, query.Options{Page: 1, Limit: query.MaxLimit},
		query.Filter{Field: "tour", Op: query.OpEq, Value: tourID})
}

// AggregateForTour computes the rating count and mean over a tour's review
// set. ok is false when the set is empty.
func (s *ReviewStore) AggregateForTour(ctx context.Context, tourID int64) (domain.RatingSummary, bool, error) {
	const q = `SELECT count(*), coalesce(avg(rating), 0) FROM reviews WHERE tour_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var summary domain.RatingSummary
	if err := s.pool.QueryRow(ctx, q, tourID).Scan(&summary.Quantity, &summary.Average); err != nil {
		return domain.RatingSummary{}, false, translateError(err, "review")
	}
	return summary, summary.Quantity > 0, nil
}
