package domain_test

import (
	"testing"
	"time"

	"github.com/trailpeak/tours-api/internal/domain"
)

func validSignup() *domain.SignupRequest {
	return &domain.SignupRequest{
		Name:            "Ada Lovelace",
		Email:           "ada@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	}
}

func TestSignupRequestValidate(t *testing.T) {
	req := validSignup()
	req.Normalize()
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid signup, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*domain.SignupRequest)
	}{
		{"missing name", func(r *domain.SignupRequest) { r.Name = "" }},
		{"name too short", func(r *domain.SignupRequest) { r.Name = "A" }},
		{"bad email", func(r *domain.SignupRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *domain.SignupRequest) { r.Password, r.PasswordConfirm = "short", "short" }},
		{"mismatched confirm", func(r *domain.SignupRequest) { r.PasswordConfirm = "different1" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSignup()
			tc.mutate(req)
			req.Normalize()
			if err := req.Validate(); !domain.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSignupNormalizeLowercasesEmail(t *testing.T) {
	req := validSignup()
	req.Email = "  Ada@Example.COM "
	req.Normalize()
	if req.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", req.Email)
	}
}

func TestChangedPasswordAfter(t *testing.T) {
	issued := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	u := &domain.User{}
	if u.ChangedPasswordAfter(issued) {
		t.Error("user without password change should never invalidate tokens")
	}

	before := issued.Add(-time.Hour)
	u.PasswordChangedAt = &before
	if u.ChangedPasswordAfter(issued) {
		t.Error("change before issue must not invalidate the token")
	}

	after := issued.Add(time.Hour)
	u.PasswordChangedAt = &after
	if !u.ChangedPasswordAfter(issued) {
		t.Error("change after issue must invalidate the token")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{"user", "admin", "guide", "lead-guide"} {
		if !domain.IsValidRole(role) {
			t.Errorf("%q should be valid", role)
		}
	}
	if domain.IsValidRole("superadmin") {
		t.Error("unknown role should be rejected")
	}
}
