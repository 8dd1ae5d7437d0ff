package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-booking/internal/repository"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
)

// mapError translates driver errors from writes and lookups into repository
// sentinels. A foreign key violation here means the referenced row is missing.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeExclusionViolation, codeSerializationFailure:
		return fmt.Errorf("%w: %w", repository.ErrSlotConflict, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	}
	return err
}

// mapDeleteError is mapError for deletes, where a foreign key violation means
// other rows still point at the target.
func mapDeleteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation {
		return fmt.Errorf("%w: %w", repository.ErrReferenced, err)
	}
	return mapError(err)
}

// requireAffected returns ErrNotFound when res touched no rows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
