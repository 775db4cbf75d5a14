package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	corepersistence "github.com/litepie/organization/modules/core/infrastructure/persistence"
	"github.com/litepie/organization/modules/organization/infrastructure/persistence"
)

// mapPgError translates low level postgres failures into the typed
// errors of this package. Unrecognized errors pass through untouched.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, persistence.ErrOrganizationNotFound) {
		return ErrOrganizationNotFound
	}
	if errors.Is(err, corepersistence.ErrUserNotFound) {
		return ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if strings.Contains(pgErr.ConstraintName, "code") {
			return ErrDuplicateCode
		}
		return err
	case pgerrcode.ForeignKeyViolation:
		switch {
		case strings.Contains(pgErr.ConstraintName, "parent"):
			return ErrOrganizationNotFound
		case strings.Contains(pgErr.ConstraintName, "manager"), strings.Contains(pgErr.ConstraintName, "user"):
			return ErrUserNotFound
		default:
			return err
		}
	default:
		return err
	}
}
