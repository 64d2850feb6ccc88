package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/trailpeak/tours-api/pkg/auth"
)

const secret = "test-secret-that-is-long-enough"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := auth.NewAccessToken(42, "ada@example.com", "admin", secret, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := auth.Parse(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != 42 || claims.Email != "ada@example.com" || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParseExpiredToken(t *testing.T) {
	token, err := auth.NewAccessToken(1, "a@b.co", "user", secret, -time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := auth.Parse(token, secret); !errors.Is(err, auth.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, err := auth.NewAccessToken(1, "a@b.co", "user", secret, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := auth.Parse(token, "a-different-secret-entirely"); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := auth.Parse("definitely-not-a-jwt", secret); err == nil {
		t.Error("expected error for malformed token")
	}
}
