package organization

import (
	"context"

	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
)

// FindParams filters list style reads. Query matches name or code,
// case insensitively.
type FindParams struct {
	Limit    int
	Offset   int
	Query    string
	Type     *Type
	Status   *Status
	ParentID *uuid.UUID
	RootOnly bool
}

// SearchFilters narrows a Search call.
type SearchFilters struct {
	Type     *Type
	Status   *Status
	ParentID *uuid.UUID
}

// Statistics aggregates counts over the (tenant scoped) hierarchy.
type Statistics struct {
	Total        int64
	ByType       map[Type]int64
	ByStatus     map[Status]int64
	Roots        int64
	WithManagers int64
}

// PathEntry is one breadcrumb element, root first.
type PathEntry struct {
	ID   uuid.UUID
	Name string
	Type Type
}

// Repository persists organizations and the user assignment relation.
// All reads and writes are implicitly scoped to the tenant carried by
// the context when tenancy is enabled.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetChildren(ctx context.Context, parentID uuid.UUID) ([]*Organization, error)
	// GetTree returns organizations whose parent is parentID (roots when
	// nil), each eagerly loaded with up to depth descendant levels,
	// ordered by name at every level.
	GetTree(ctx context.Context, parentID *uuid.UUID, depth int) ([]*Organization, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Organization, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Search(ctx context.Context, query string, filters *SearchFilters) ([]*Organization, error)
	Statistics(ctx context.Context) (*Statistics, error)

	Create(ctx context.Context, data *Organization) (*Organization, error)
	Update(ctx context.Context, data *Organization) (*Organization, error)
	UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
	// ReparentChildren re-points every direct child of parentID to
	// newParentID and returns how many rows moved.
	ReparentChildren(ctx context.Context, parentID uuid.UUID, newParentID *uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error

	AssignUser(ctx context.Context, orgID uuid.UUID, userID uint, role string) error
	RemoveUser(ctx context.Context, orgID uuid.UUID, userID uint, role *string) (int64, error)
	GetUserRoles(ctx context.Context, orgID uuid.UUID, userID uint) ([]string, error)
	UserBelongs(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error)
	UserHasRole(ctx context.Context, orgID uuid.UUID, userID uint, role string) (bool, error)
	IsPrimaryManager(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error)
	// GetManagers returns the primary manager plus every user holding
	// the manager role, de-duplicated.
	GetManagers(ctx context.Context, orgID uuid.UUID) ([]user.User, error)
}
