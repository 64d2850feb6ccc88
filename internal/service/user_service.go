package service

import (
	"context"
	"net/http"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/query"
	"github.com/trailpeak/tours-api/internal/utils"
)

type UserStore interface {
	List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateByID(ctx context.Context, id int64, body []byte) (*domain.User, error)
	DeleteByID(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id int64, name, email, photo string) (*domain.User, error)
	Deactivate(ctx context.Context, id int64) error
}

// ProfileUpdate carries the self-service profile fields. Empty fields are
// left unchanged.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"-"`

	// Password fields are decoded only so their presence can be rejected.
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.User, error) {
	return s.users.List(ctx, opts, scope...)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create always refuses: accounts only come from signup. The method exists so
// the admin user routes can share the generic resource handlers.
func (s *UserService) Create(context.Context, []byte) (*domain.User, error) {
	return nil, &domain.Error{
		Status:      http.StatusInternalServerError,
		Message:     "This route is not defined! Please use /signup instead.",
		Operational: true,
	}
}

func (s *UserService) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.User, error) {
	return s.users.UpdateByID(ctx, id, body)
}

func (s *UserService) DeleteByID(ctx context.Context, id int64) error {
	return s.users.DeleteByID(ctx, id)
}

// UpdateMe applies a self-service profile update. Password changes go through
// the dedicated password route and are rejected here.
func (s *UserService) UpdateMe(ctx context.Context, userID int64, upd *ProfileUpdate) (*domain.User, error) {
	if upd.Password != "" || upd.PasswordConfirm != "" {
		return nil, domain.ErrValidation(
			"This route is not for password updates. Please use /updatemypassword.", "password")
	}

	upd.Name = utils.NormalizeString(upd.Name)
	upd.Email = utils.NormalizeEmail(upd.Email)

	if upd.Name != "" && (len(upd.Name) < 2 || len(upd.Name) > 25) {
		return nil, domain.ErrValidation("Name must be between 2 and 25 characters", "name")
	}
	if upd.Email != "" && !utils.IsValidEmail(upd.Email) {
		return nil, domain.ErrValidation("Please provide a valid email", "email")
	}

	return s.users.UpdateProfile(ctx, userID, upd.Name, upd.Email, upd.Photo)
}

// DeleteMe deactivates the account. The row stays but stops matching the
// active-user predicate everywhere.
func (s *UserService) DeleteMe(ctx context.Context, userID int64) error {
	return s.users.Deactivate(ctx, userID)
}
