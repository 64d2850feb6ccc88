package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trailpeak/tours-api/internal/domain"
)

// uniqueConstraintFields maps unique-index names onto the user-facing field
// names reported when the constraint is violated.
var uniqueConstraintFields = map[string][]string{
	"tours_name_key":              {"name"},
	"users_email_key":             {"email"},
	"reviews_tour_id_user_id_key": {"tour", "user"},
}

// translateError converts driver-level failures into the application error
// taxonomy so handlers never see raw pg errors.
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if fields, ok := uniqueConstraintFields[pgErr.ConstraintName]; ok {
				return domain.ErrValidation(
					fmt.Sprintf("Duplicate value for: %s. Please try another value.", strings.Join(fields, ", ")),
					fields...,
				)
			}
			return domain.ErrValidation("Duplicate value. Please try another value.")
		case "23514": // check_violation
			return domain.ErrValidation(fmt.Sprintf("Invalid input data for %s", resource))
		case "22P02": // invalid_text_representation
			return domain.ErrValidation(fmt.Sprintf("Invalid value for %s", resource))
		}
	}

	return domain.ErrInternal(err)
}
