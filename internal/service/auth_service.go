package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/mailer"
	"github.com/trailpeak/tours-api/pkg/auth"
	"github.com/trailpeak/tours-api/pkg/config"
	"github.com/trailpeak/tours-api/pkg/events"
	"github.com/trailpeak/tours-api/pkg/logger"
)

// AuthUserStore is the persistence surface the auth service needs.
type AuthUserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, req *domain.SignupRequest, passwordHash string) (*domain.User, error)
	SetPassword(ctx context.Context, id int64, passwordHash string) (*domain.User, error)
	SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id int64) error
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
}

type AuthService struct {
	users  AuthUserStore
	mailer mailer.Service
	bus    events.Publisher
	cfg    *config.Config
}

func NewAuthService(users AuthUserStore, m mailer.Service, bus events.Publisher, cfg *config.Config) *AuthService {
	return &AuthService{users: users, mailer: m, bus: bus, cfg: cfg}
}

// Signup registers a new user and returns it with a fresh access token.
func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", domain.ErrInternal(err)
	}

	u, err := s.users.Create(ctx, req, hash)
	if err != nil {
		return nil, "", err
	}

	accountURL := s.cfg.Server.PublicURL + "/me"
	if err := s.mailer.SendWelcome(u.Email, u.Name, accountURL); err != nil {
		logger.WarnContext(ctx, "failed to send welcome email", "user_id", u.ID, "err", err)
	}

	if err := s.bus.Publish(ctx, events.UserSignedUp, events.UserSignedUpEvent{
		UserID: u.ID,
		Email:  u.Email,
		At:     time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish signup event", "err", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login checks credentials and returns the user with a fresh access token.
// The same message covers an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, "", domain.ErrValidation("Please provide email and password!", "email", "password")
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", domain.ErrAuthentication("Email or password is incorrect")
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, u.PasswordHash)
	if err != nil {
		return nil, "", domain.ErrInternal(err)
	}
	if !match {
		return nil, "", domain.ErrAuthentication("Email or password is incorrect")
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// UserFromToken validates an access token and resolves it to a live user.
// Tokens minted before the user's last password change are rejected.
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := auth.Parse(tokenString, s.cfg.Auth.JWTSecret)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domain.ErrAuthentication("Your token has expired! Please log in again.")
		}
		return nil, domain.ErrAuthentication("Invalid token. Please log in again!")
	}

	u, err := s.users.GetByID(ctx, claims.Sub)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrAuthentication("The user belonging to this token no longer exists.")
	}

	if claims.IssuedAt != nil && u.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, domain.ErrAuthentication("User recently changed password! Please log in again.")
	}

	return u, nil
}

// ForgotPassword stores a hashed single-use reset token and emails the raw
// token to the user. If the email cannot be sent the token is cleared so a
// stale one never lingers.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrNotFound("user with that email address")
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.cfg.Auth.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, u.ID, hashToken(token), expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetpassword/%s", s.cfg.Server.PublicURL, token)
	if err := s.mailer.SendPasswordReset(u.Email, u.Name, resetURL); err != nil {
		logger.ErrorContext(ctx, "failed to send reset email", "user_id", u.ID, "err", err)
		if clearErr := s.users.ClearResetToken(ctx, u.ID); clearErr != nil {
			logger.ErrorContext(ctx, "failed to clear reset token", "user_id", u.ID, "err", clearErr)
		}
		return &domain.Error{
			Status:      500,
			Message:     "There was an error sending the email. Try again later!",
			Operational: true,
		}
	}

	return nil
}

// ResetPassword redeems a raw reset token for a new password and logs the
// user in.
func (s *AuthService) ResetPassword(ctx context.Context, token string, req *domain.ResetPasswordRequest) (*domain.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	u, err := s.users.FindByResetToken(ctx, hashToken(token))
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", domain.ErrValidation("Token is invalid or has expired")
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", domain.ErrInternal(err)
	}

	u, err = s.users.SetPassword(ctx, u.ID, hash)
	if err != nil {
		return nil, "", err
	}

	accessToken, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, accessToken, nil
}

// UpdatePassword changes a logged-in user's password after verifying the
// current one, then re-issues the access token.
func (s *AuthService) UpdatePassword(ctx context.Context, userID int64, req *domain.UpdatePasswordRequest) (*domain.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", domain.ErrAuthentication("The user belonging to this token no longer exists.")
	}

	match, err := argon2id.ComparePasswordAndHash(req.CurrentPassword, u.PasswordHash)
	if err != nil {
		return nil, "", domain.ErrInternal(err)
	}
	if !match {
		return nil, "", domain.ErrAuthentication("Your current password is wrong.")
	}

	if sameAsOld, _ := argon2id.ComparePasswordAndHash(req.Password, u.PasswordHash); sameAsOld {
		return nil, "", domain.ErrValidation("New password must be different from the current one", "password")
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", domain.ErrInternal(err)
	}

	u, err = s.users.SetPassword(ctx, u.ID, hash)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AuthService) issueToken(u *domain.User) (string, error) {
	token, err := auth.NewAccessToken(u.ID, u.Email, u.Role, s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)
	if err != nil {
		return "", domain.ErrInternal(err)
	}
	return token, nil
}

// hashToken stores only the SHA-256 digest of reset tokens, so a leaked
// users table cannot redeem them.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
