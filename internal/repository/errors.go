package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common repository errors
var (
	// ErrNotFound is returned when no entity matches the lookup
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint is violated
	ErrConflict = errors.New("already exists")

	// ErrInvalidField is returned when an update names a field the entity does not have
	ErrInvalidField = errors.New("invalid field")
)

const pgUniqueViolation = "23505"

// translate maps gorm and postgres driver errors onto the repository taxonomy.
// Unique violations become ErrConflict so the storage constraint reports the
// same error the application-level pre-checks do.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
