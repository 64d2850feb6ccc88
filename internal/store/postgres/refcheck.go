package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailpeak/tours-api/internal/domain"
)

// RefChecker confirms that a referenced identifier resolves to an existing
// record before the owning write is allowed. It is a synchronous existence
// check, not a store-enforced foreign key.
type RefChecker struct {
	pool *pgxpool.Pool
}

func NewRefChecker(pool *pgxpool.Pool) *RefChecker {
	return &RefChecker{pool: pool}
}

// allowed reference targets; anything else is a programming error
var refTables = map[string]string{
	"tours": "tours",
	"users": "users",
}

// Check reports a validation error naming the field when id does not resolve
// in the target table.
func (c *RefChecker) Check(ctx context.Context, table, field string, id int64) error {
	target, ok := refTables[table]
	if !ok {
		return domain.ErrInternal(fmt.Errorf("refcheck: unknown target table %q", table))
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := c.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+target+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return domain.ErrInternal(err)
	}
	if !exists {
		return domain.ErrValidation(fmt.Sprintf("Invalid %s ID! Please try again.", field), field)
	}
	return nil
}

// CheckAll validates a list of references against the same target table,
// used for a tour's guide list.
func (c *RefChecker) CheckAll(ctx context.Context, table, field string, ids []int64) error {
	for _, id := range ids {
		if err := c.Check(ctx, table, field, id); err != nil {
			return err
		}
	}
	return nil
}
