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

var BookingSchema = query.Schema{
	Table: "bookings",
	Columns: map[string]query.Column{
		"tour":      {Name: "tour_id", Kind: query.Int},
		"user":      {Name: "user_id", Kind: query.Int},
		"price":     {Name: "price", Kind: query.Float},
		"paid":      {Name: "paid", Kind: query.Bool},
		"createdAt": {Name: "created_at", Kind: query.Time},
	},
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}},
}

type BookingStore struct {
	pool *pgxpool.Pool
	refs *RefChecker
}

func NewBookingStore(pool *pgxpool.Pool, refs *RefChecker) *BookingStore {
	return &BookingStore{pool: pool, refs: refs}
}

const bookingCols = `id, tour_id, user_id, price, paid, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.Tour, &b.User, &b.Price, &b.Paid, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookingStore) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Booking, error) {
	sql, args, err := BookingSchema.BuildSelect(bookingCols, nil, opts, scope...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateError(err, "booking")
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, domain.ErrInternal(err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (s *BookingStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("booking")
	}
	if err != nil {
		return nil, translateError(err, "booking")
	}
	return b, nil
}

func (s *BookingStore) Create(ctx context.Context, body []byte) (*domain.Booking, error) {
	var in domain.BookingInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
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
		INSERT INTO bookings (tour_id, user_id, price, paid)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(s.pool.QueryRow(ctx, q, in.Tour, in.User, in.Price, in.Paid))
	if err != nil {
		return nil, translateError(err, "booking")
	}
	return b, nil
}

func (s *BookingStore) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Booking, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound("booking")
	}

	in := domain.InputFromBooking(existing)
	if err := json.Unmarshal(body, in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Tour != existing.Tour {
		if err := s.refs.Check(ctx, "tours", "tour", in.Tour); err != nil {
			return nil, err
		}
	}
	if in.User != existing.User {
		if err := s.refs.Check(ctx, "users", "user", in.User); err != nil {
			return nil, err
		}
	}

	const q = `
		UPDATE bookings SET tour_id = $2, user_id = $3, price = $4, paid = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(s.pool.QueryRow(ctx, q, id, in.Tour, in.User, in.Price, in.Paid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("booking")
	}
	if err != nil {
		return nil, translateError(err, "booking")
	}
	return b, nil
}

func (s *BookingStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := s.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "booking")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound("booking")
	}
	return nil
}
