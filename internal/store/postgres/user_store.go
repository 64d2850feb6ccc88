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

var UserSchema = query.Schema{
	Table: "users",
	Columns: map[string]query.Column{
		"name":      {Name: "name", Kind: query.String},
		"email":     {Name: "email", Kind: query.String},
		"role":      {Name: "role", Kind: query.String},
		"createdAt": {Name: "created_at", Kind: query.Time},
	},
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}, {Field: "name"}},
}

// userVisibility hides soft-deleted accounts from every default read path.
const userVisibility = "active = true"

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userCols = `id, name, email, photo, role, password_hash, password_changed_at,
reset_token_hash, reset_token_expires_at, active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash, &u.PasswordChangedAt,
		&u.ResetTokenHash, &u.ResetTokenExpires, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.User, error) {
	sql, args, err := UserSchema.BuildSelect(userCols, []string{userVisibility}, opts, scope...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateError(err, "user")
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, domain.ErrInternal(err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1 AND ` + userVisibility

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("user")
	}
	if err != nil {
		return nil, translateError(err, "user")
	}
	return u, nil
}

// FindByEmail looks up an active user. Returns (nil, nil) when absent so the
// auth paths can avoid revealing whether an email exists.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1 AND ` + userVisibility

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "user")
	}
	return u, nil
}

// Create inserts a signed-up user. The password hash arrives pre-computed;
// passwordConfirm was validated upstream and is never persisted.
func (s *UserStore) Create(ctx context.Context, req *domain.SignupRequest, passwordHash string) (*domain.User, error) {
	const q = `
		INSERT INTO users (name, email, photo, role, password_hash)
		VALUES ($1, $2, 'default.jpg', 'user', $3)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, q, req.Name, req.Email, passwordHash))
	if err != nil {
		return nil, translateError(err, "user")
	}
	return u, nil
}

// UpdateByID merges an admin patch over the stored record with full
// revalidation. Password fields are not reachable from here.
func (s *UserStore) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.User, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound("user")
	}

	in := domain.InputFromUser(existing)
	if err := json.Unmarshal(body, in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	const q = `
		UPDATE users SET name = $2, email = $3, photo = $4, role = $5, updated_at = now()
		WHERE id = $1 AND ` + userVisibility + `
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, q, id, in.Name, in.Email, in.Photo, in.Role))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("user")
	}
	if err != nil {
		return nil, translateError(err, "user")
	}
	return u, nil
}

func (s *UserStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "user")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound("user")
	}
	return nil
}

// Deactivate soft-deletes an account; the visibility predicate hides it from
// all default reads afterwards.
func (s *UserStore) Deactivate(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := s.pool.Exec(ctx, `UPDATE users SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "user")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound("user")
	}
	return nil
}

// UpdateProfile is the self-service name/email/photo update.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, name, email, photo string) (*domain.User, error) {
	const q = `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			email = COALESCE(NULLIF($3, ''), email),
			photo = COALESCE(NULLIF($4, ''), photo),
			updated_at = now()
		WHERE id = $1 AND ` + userVisibility + `
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, q, id, name, email, photo))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("user")
	}
	if err != nil {
		return nil, translateError(err, "user")
	}
	return u, nil
}

// SetPassword rotates the password hash and stamps password_changed_at,
// invalidating tokens issued earlier. Any pending reset token is cleared.
func (s *UserStore) SetPassword(ctx context.Context, id int64, passwordHash string) (*domain.User, error) {
	const q = `
		UPDATE users SET
			password_hash = $2,
			password_changed_at = now(),
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = now()
		WHERE id = $1 AND ` + userVisibility + `
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, q, id, passwordHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("user")
	}
	if err != nil {
		return nil, translateError(err, "user")
	}
	return u, nil
}

// SetResetToken stores the hashed password-reset token with its expiry.
func (s *UserStore) SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	const q = `
		UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = now()
		WHERE id = $1 AND ` + userVisibility

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, q, id, tokenHash, expiresAt)
	if err != nil {
		return translateError(err, "user")
	}
	return nil
}

// ClearResetToken discards any outstanding reset token for the user.
func (s *UserStore) ClearResetToken(ctx context.Context, id int64) error {
	const q = `
		UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND ` + userVisibility

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return translateError(err, "user")
	}
	return nil
}

// FindByResetToken resolves an unexpired reset token hash to its user.
// Returns (nil, nil) when the token is unknown or expired.
func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires_at > now() AND ` + userVisibility

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, q, tokenHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "user")
	}
	return u, nil
}
