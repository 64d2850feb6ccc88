package domain

import (
	"time"

	"github.com/trailpeak/tours-api/internal/utils"
)

// Valid user roles
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
)

var validRoles = map[string]bool{
	RoleUser:      true,
	RoleAdmin:     true,
	RoleGuide:     true,
	RoleLeadGuide: true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

type User struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo"`
	Role              string     `json:"role"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	ResetTokenHash    *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	Active            bool       `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token-issue time. Tokens minted before a change are rejected.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r *SignupRequest) Normalize() {
	r.Name = utils.NormalizeString(r.Name)
	r.Email = utils.NormalizeEmail(r.Email)
}

func (r *SignupRequest) Validate() error {
	problems := map[string]string{}

	if r.Name == "" {
		problems["name"] = "User must have a name"
	} else if len(r.Name) < 2 || len(r.Name) > 25 {
		problems["name"] = "Name must be between 2 and 25 characters"
	}
	if r.Email == "" {
		problems["email"] = "User must have an email"
	} else if !utils.IsValidEmail(r.Email) {
		problems["email"] = "Please provide a valid email"
	}
	if len(r.Password) < 8 || len(r.Password) > 30 {
		problems["password"] = "Password must be between 8 and 30 characters"
	}
	if r.PasswordConfirm != r.Password {
		problems["passwordConfirm"] = "Password fields do not match"
	}

	if len(problems) > 0 {
		return ErrValidationFields(problems)
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r *UpdatePasswordRequest) Validate() error {
	if r.CurrentPassword == "" || r.Password == "" || r.PasswordConfirm == "" {
		return ErrValidation("Please provide your current password, a new password and passwordConfirm",
			"currentPassword", "password", "passwordConfirm")
	}
	if len(r.Password) < 8 || len(r.Password) > 30 {
		return ErrValidation("Password must be between 8 and 30 characters", "password")
	}
	if r.Password != r.PasswordConfirm {
		return ErrValidation("Password fields do not match", "passwordConfirm")
	}
	return nil
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r *ResetPasswordRequest) Validate() error {
	if len(r.Password) < 8 || len(r.Password) > 30 {
		return ErrValidation("Password must be between 8 and 30 characters", "password")
	}
	if r.Password != r.PasswordConfirm {
		return ErrValidation("Password fields do not match", "passwordConfirm")
	}
	return nil
}

// UserInput carries the admin-settable fields of a user record.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

func (in *UserInput) Normalize() {
	in.Name = utils.NormalizeString(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
}

func (in *UserInput) Validate() error {
	problems := map[string]string{}

	if in.Name == "" {
		problems["name"] = "User must have a name"
	} else if len(in.Name) < 2 || len(in.Name) > 25 {
		problems["name"] = "Name must be between 2 and 25 characters"
	}
	if !utils.IsValidEmail(in.Email) {
		problems["email"] = "Please provide a valid email"
	}
	if !IsValidRole(in.Role) {
		problems["role"] = "Role can either be: user, admin, guide, lead-guide"
	}

	if len(problems) > 0 {
		return ErrValidationFields(problems)
	}
	return nil
}

func InputFromUser(u *User) *UserInput {
	return &UserInput{
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Role:  u.Role,
	}
}
