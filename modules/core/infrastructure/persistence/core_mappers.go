package persistence

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	"github.com/litepie/organization/modules/core/domain/entities/tenant"
	"github.com/litepie/organization/modules/core/infrastructure/persistence/models"
)

func toDomainTenant(dbRow *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse tenant id")
	}
	domain := ""
	if dbRow.Domain.Valid {
		domain = dbRow.Domain.String
	}
	return tenant.New(
		dbRow.Name,
		tenant.WithID(id),
		tenant.WithDomain(domain),
		tenant.WithIsActive(dbRow.IsActive),
		tenant.WithCreatedAt(dbRow.CreatedAt),
		tenant.WithUpdatedAt(dbRow.UpdatedAt),
	), nil
}

func toDomainUser(dbRow *models.User) (user.User, error) {
	tenantID := uuid.Nil
	if dbRow.TenantID.Valid {
		parsed, err := uuid.Parse(dbRow.TenantID.String)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse user tenant id")
		}
		tenantID = parsed
	}
	return user.New(
		dbRow.FirstName,
		dbRow.LastName,
		dbRow.Email,
		user.WithID(dbRow.ID),
		user.WithTenantID(tenantID),
		user.WithCreatedAt(dbRow.CreatedAt),
		user.WithUpdatedAt(dbRow.UpdatedAt),
	), nil
}
