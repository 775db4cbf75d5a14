package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	"github.com/litepie/organization/modules/core/infrastructure/persistence/models"
	"github.com/litepie/organization/pkg/composables"
	"github.com/litepie/organization/pkg/mapping"
)

var ErrUserNotFound = fmt.Errorf("user not found")

const userFindQuery = `SELECT id, tenant_id, first_name, last_name, email, created_at, updated_at FROM users`

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	query := userFindQuery + " WHERE id = $1"
	users, err := r.queryUsers(ctx, query, id)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, ErrUserNotFound
	}

	return users[0], nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	query := userFindQuery + " WHERE email = $1"
	users, err := r.queryUsers(ctx, query, email)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, ErrUserNotFound
	}

	return users[0], nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]user.User, error) {
	return r.queryUsers(ctx, userFindQuery+" ORDER BY id")
}

func (r *UserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check user existence")
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	query := `
		INSERT INTO users (tenant_id, first_name, last_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	tenantID := mapping.ValueToSQLNullString("")
	if data.TenantID() != uuid.Nil {
		tenantID = mapping.ValueToSQLNullString(data.TenantID().String())
	}

	var id uint
	if err := tx.QueryRow(
		ctx,
		query,
		tenantID,
		data.FirstName(),
		data.LastName(),
		data.Email(),
		data.CreatedAt(),
		data.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}

	return r.GetByID(ctx, id)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.TenantID,
			&u.FirstName,
			&u.LastName,
			&u.Email,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user row")
		}
		domainUser, err := toDomainUser(&u)
		if err != nil {
			return nil, err
		}
		users = append(users, domainUser)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate user rows")
	}

	return users, nil
}
