package services

import (
	"github.com/litepie/organization/pkg/serrors"
)

var (
	ErrOrganizationNotFound = serrors.NewError("ORG_NOT_FOUND", "organization not found", "Organizations.NotFound")
	ErrUserNotFound         = serrors.NewError("USER_NOT_FOUND", "user not found", "Users.NotFound")

	// ErrCircularReference rejects a reparent that would make an
	// organization its own ancestor. Nothing is mutated when returned.
	ErrCircularReference = serrors.NewError("ORG_CIRCULAR_REFERENCE", "operation would create a circular reference", "Organizations.CircularReference")

	ErrDuplicateCode = serrors.NewError("ORG_DUPLICATE_CODE", "organization code already exists", "Organizations.DuplicateCode")

	// ErrTenantRequired fires when tenancy is enabled but no tenant
	// could be resolved for a write. Writes never fall back to a null
	// tenant silently.
	ErrTenantRequired = serrors.NewError("ORG_TENANT_REQUIRED", "no tenant resolved for tenant scoped write", "Organizations.TenantRequired")

	ErrInvalidType   = serrors.NewError("ORG_INVALID_TYPE", "unrecognized organization type", "Organizations.InvalidType")
	ErrInvalidStatus = serrors.NewError("ORG_INVALID_STATUS", "unrecognized organization status", "Organizations.InvalidStatus")
	ErrInvalidRole   = serrors.NewError("ORG_INVALID_ROLE", "unrecognized assignment role", "Organizations.InvalidRole")
)
