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

// TourSchema exposes the filterable and sortable tour fields.
var TourSchema = query.Schema{
	Table: "tours",
	Columns: map[string]query.Column{
		"name":            {Name: "name", Kind: query.String},
		"slug":            {Name: "slug", Kind: query.String},
		"duration":        {Name: "duration", Kind: query.Int},
		"difficulty":      {Name: "difficulty", Kind: query.String},
		"maxGroupSize":    {Name: "max_group_size", Kind: query.Int},
		"price":           {Name: "price", Kind: query.Float},
		"ratingsAverage":  {Name: "ratings_average", Kind: query.Float},
		"ratingsQuantity": {Name: "ratings_quantity", Kind: query.Int},
		"createdAt":       {Name: "created_at", Kind: query.Time},
	},
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}, {Field: "name"}},
}

// tourVisibility hides private tours from every default read path.
const tourVisibility = "private_tour = false"

type TourStore struct {
	pool *pgxpool.Pool
	refs *RefChecker
}

func NewTourStore(pool *pgxpool.Pool, refs *RefChecker) *TourStore {
	return &TourStore{pool: pool, refs: refs}
}

const tourCols = `id, name, slug, duration, difficulty, max_group_size, price,
price_discount_percentage, ratings_average, ratings_quantity, summary,
description, image_cover, images, start_dates, private_tour, start_location,
locations, guides, created_at, updated_at`

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var t domain.Tour
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.Difficulty, &t.MaxGroupSize, &t.Price,
		&t.PriceDiscountPercentage, &t.RatingsAverage, &t.RatingsQuantity, &t.Summary,
		&t.Description, &t.ImageCover, &t.Images, &t.StartDates, &t.PrivateTour, &t.StartLocation,
		&t.Locations, &t.Guides, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TourStore) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Tour, error) {
	sql, args, err := TourSchema.BuildSelect(tourCols, []string{tourVisibility}, opts, scope...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateError(err, "tour")
	}
	defer rows.Close()

	tours := []domain.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, domain.ErrInternal(err)
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

func (s *TourStore) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	const q = `SELECT ` + tourCols + ` FROM tours WHERE id = $1 AND ` + tourVisibility

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTour(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("tour")
	}
	if err != nil {
		return nil, translateError(err, "tour")
	}
	return t, nil
}

func (s *TourStore) Create(ctx context.Context, body []byte) (*domain.Tour, error) {
	var in domain.TourInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.refs.CheckAll(ctx, "users", "guides", in.Guides); err != nil {
		return nil, err
	}

	const q = `INSERT INTO tours (
		name, slug, duration, difficulty, max_group_size, price,
		price_discount_percentage, summary, description, image_cover, images,
		start_dates, private_tour, start_location, locations, guides
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	RETURNING ` + tourCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTour(s.pool.QueryRow(ctx, q,
		in.Name, in.Slug(), in.Duration, in.Difficulty, in.MaxGroupSize, in.Price,
		in.PriceDiscountPercentage, in.Summary, in.Description, in.ImageCover, in.Images,
		in.StartDates, in.PrivateTour, in.StartLocation, in.Locations, in.Guides,
	))
	if err != nil {
		return nil, translateError(err, "tour")
	}
	return t, nil
}

// UpdateByID merges the patch body over the stored document and re-runs full
// validation before writing. The slug is recomputed on every save; rating
// rollup fields are untouchable from here.
func (s *TourStore) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Tour, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound("tour")
	}

	in := domain.InputFromTour(existing)
	if err := json.Unmarshal(body, in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.refs.CheckAll(ctx, "users", "guides", in.Guides); err != nil {
		return nil, err
	}

	const q = `UPDATE tours SET
		name = $2, slug = $3, duration = $4, difficulty = $5, max_group_size = $6,
		price = $7, price_discount_percentage = $8, summary = $9, description = $10,
		image_cover = $11, images = $12, start_dates = $13, private_tour = $14,
		start_location = $15, locations = $16, guides = $17, updated_at = now()
	WHERE id = $1
	RETURNING ` + tourCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTour(s.pool.QueryRow(ctx, q, id,
		in.Name, in.Slug(), in.Duration, in.Difficulty, in.MaxGroupSize,
		in.Price, in.PriceDiscountPercentage, in.Summary, in.Description,
		in.ImageCover, in.Images, in.StartDates, in.PrivateTour,
		in.StartLocation, in.Locations, in.Guides,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("tour")
	}
	if err != nil {
		return nil, translateError(err, "tour")
	}
	return t, nil
}

func (s *TourStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := s.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "tour")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound("tour")
	}
	return nil
}

// UpdateRatingSummary writes the denormalized rollup. Only the rating
// aggregator calls this.
func (s *TourStore) UpdateRatingSummary(ctx context.Context, tourID int64, summary domain.RatingSummary) error {
	const q = `UPDATE tours SET ratings_average = $2, ratings_quantity = $3, updated_at = now() WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, q, tourID, summary.Average, summary.Quantity)
	if err != nil {
		return translateError(err, "tour")
	}
	return nil
}

// Stats is the stat rollup by difficulty over tours priced at 500 or more.
func (s *TourStore) Stats(ctx context.Context) ([]domain.TourStat, error) {
	const q = `
		SELECT upper(difficulty), count(*), coalesce(avg(ratings_average), 0),
			coalesce(sum(ratings_quantity), 0), coalesce(avg(price), 0),
			coalesce(min(price), 0), coalesce(max(price), 0)
		FROM tours
		WHERE price >= 500 AND ` + tourVisibility + `
		GROUP BY difficulty
		ORDER BY avg(price)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, translateError(err, "tour")
	}
	defer rows.Close()

	stats := []domain.TourStat{}
	for rows.Next() {
		var st domain.TourStat
		if err := rows.Scan(&st.Difficulty, &st.NumTours, &st.AverageRating,
			&st.TotalReviews, &st.AveragePrice, &st.MinPrice, &st.MaxPrice); err != nil {
			return nil, domain.ErrInternal(err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// MonthlyPlan unwinds start dates and groups tours by month within a year.
// Only months with at least one start date appear, ascending by month.
func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	const q = `
		SELECT extract(month FROM d)::int AS month, count(*), array_agg(name ORDER BY name)
		FROM tours, unnest(start_dates) AS d
		WHERE extract(year FROM d) = $1 AND ` + tourVisibility + `
		GROUP BY month
		ORDER BY month`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q, year)
	if err != nil {
		return nil, translateError(err, "tour")
	}
	defer rows.Close()

	plan := []domain.MonthlyPlanEntry{}
	for rows.Next() {
		var entry domain.MonthlyPlanEntry
		if err := rows.Scan(&entry.Month, &entry.NumTours, &entry.Tours); err != nil {
			return nil, domain.ErrInternal(err)
		}
		plan = append(plan, entry)
	}
	return plan, rows.Err()
}

// ListGeo returns every visible tour that has a start location; distance
// math happens in the tour service.
func (s *TourStore) ListGeo(ctx context.Context) ([]domain.Tour, error) {
	const q = `SELECT ` + tourCols + ` FROM tours WHERE start_location IS NOT NULL AND ` + tourVisibility

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, translateError(err, "tour")
	}
	defer rows.Close()

	tours := []domain.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, domain.ErrInternal(err)
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}
