package persistence

import (
	"database/sql"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	coremodels "github.com/litepie/organization/modules/core/infrastructure/persistence/models"
	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/modules/organization/infrastructure/persistence/models"
	"github.com/litepie/organization/pkg/mapping"
)

func toDomainManager(dbRow *coremodels.User) (user.User, error) {
	tenantID := uuid.Nil
	if dbRow.TenantID.Valid {
		parsed, err := uuid.Parse(dbRow.TenantID.String)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse manager tenant id")
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

func toDomainOrganization(dbRow *models.Organization) (*organization.Organization, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse organization id")
	}
	tenantID, err := mapping.SQLNullStringToUUIDPointer(dbRow.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse organization tenant id")
	}
	parentID, err := mapping.SQLNullStringToUUIDPointer(dbRow.ParentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse organization parent id")
	}

	var metadata map[string]any
	if len(dbRow.Metadata) > 0 {
		if err := json.Unmarshal(dbRow.Metadata, &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to decode organization metadata")
		}
	}

	opts := []organization.Option{
		organization.WithID(id),
		organization.WithTenantID(tenantID),
		organization.WithParentID(parentID),
		organization.WithStatus(organization.Status(dbRow.Status)),
		organization.WithDescription(mapping.SQLNullStringToPointer(dbRow.Description)),
		organization.WithManagerID(mapping.SQLNullInt64ToUintPointer(dbRow.ManagerID)),
		organization.WithMetadata(metadata),
		organization.WithCreatedBy(dbRow.CreatedBy),
		organization.WithUpdatedBy(mapping.SQLNullInt64ToUintPointer(dbRow.UpdatedBy)),
		organization.WithCreatedAt(dbRow.CreatedAt),
		organization.WithUpdatedAt(dbRow.UpdatedAt),
	}
	if dbRow.DeletedAt.Valid {
		t := dbRow.DeletedAt.Time
		opts = append(opts, organization.WithDeletedAt(&t))
	}

	return organization.New(
		dbRow.Name,
		dbRow.Code,
		organization.Type(dbRow.Type),
		opts...,
	), nil
}

func toDBOrganization(entity *organization.Organization) (*models.Organization, error) {
	var metadata []byte
	if entity.Metadata() != nil {
		encoded, err := json.Marshal(entity.Metadata())
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode organization metadata")
		}
		metadata = encoded
	}

	row := &models.Organization{
		ID:          entity.ID().String(),
		TenantID:    mapping.UUIDPointerToSQLNullString(entity.TenantID()),
		ParentID:    mapping.UUIDPointerToSQLNullString(entity.ParentID()),
		Type:        string(entity.Type()),
		Name:        entity.Name(),
		Code:        entity.Code(),
		Description: mapping.PointerToSQLNullString(entity.Description()),
		Status:      string(entity.Status()),
		ManagerID:   mapping.PointerToSQLNullInt64(entity.ManagerID()),
		Metadata:    metadata,
		CreatedBy:   entity.CreatedBy(),
		UpdatedBy:   mapping.PointerToSQLNullInt64(entity.UpdatedBy()),
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
	if entity.DeletedAt() != nil {
		row.DeletedAt = sql.NullTime{Time: *entity.DeletedAt(), Valid: true}
	}
	return row, nil
}
