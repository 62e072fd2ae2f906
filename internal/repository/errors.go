package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository errors. Services translate them into their own taxonomy.
var (
	// ErrNotFound means no row matched the id.
	ErrNotFound = errors.New("record not found")
	// ErrReferenced means a restricted foreign key blocked a delete, or an
	// insert referenced a missing parent.
	ErrReferenced = errors.New("record is referenced")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState means a conditional update matched no row because the
	// record was no longer in the expected status.
	ErrStaleState = errors.New("record changed concurrently")
)

// PostgreSQL SQLSTATE codes the repositories act on.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// translate maps driver errors onto repository errors. The constraint name
// is kept in the message for diagnostics.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrReferenced, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}
