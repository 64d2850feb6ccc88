package postgres

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trailpeak/tours-api/internal/domain"
)

func TestTranslateDuplicateReviewNamesBothFields(t *testing.T) {
	err := translateError(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "reviews_tour_id_user_id_key",
	}, "review")

	de := domain.As(err)
	if de.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", de.Status)
	}
	if !de.Operational {
		t.Error("duplicate violation should be operational")
	}
	if len(de.Fields) != 2 || de.Fields[0] != "tour" || de.Fields[1] != "user" {
		t.Errorf("fields = %v, want [tour user]", de.Fields)
	}
	if !strings.Contains(de.Message, "tour, user") {
		t.Errorf("message %q should name the colliding fields", de.Message)
	}
}

func TestTranslateDuplicateEmail(t *testing.T) {
	err := translateError(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
	}, "user")

	de := domain.As(err)
	if de.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", de.Status)
	}
	if len(de.Fields) != 1 || de.Fields[0] != "email" {
		t.Errorf("fields = %v, want [email]", de.Fields)
	}
}

func TestTranslateUnknownUniqueConstraint(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_something_key"}, "booking")

	de := domain.As(err)
	if de.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", de.Status)
	}
	if len(de.Fields) != 0 {
		t.Errorf("fields = %v, want none for an unmapped constraint", de.Fields)
	}
}

func TestTranslateCheckViolation(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: "23514"}, "tour")

	de := domain.As(err)
	if de.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", de.Status)
	}
	if !strings.Contains(de.Message, "tour") {
		t.Errorf("message %q should name the resource", de.Message)
	}
}

func TestTranslateUnknownErrorStaysInternal(t *testing.T) {
	cause := errors.New("connection refused")
	de := domain.As(translateError(cause, "tour"))

	if de.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", de.Status)
	}
	if de.Operational {
		t.Error("driver failures must not be surfaced to clients")
	}
	if !errors.Is(de, cause) {
		t.Error("translated error should wrap its cause")
	}
}

func TestTranslateNil(t *testing.T) {
	if err := translateError(nil, "tour"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
