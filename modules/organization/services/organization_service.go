package services

import (
	"context"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/pkg/composables"
	"github.com/litepie/organization/pkg/configuration"
	"github.com/litepie/organization/pkg/eventbus"
)

// RoleAll marks removal of every role a user holds in an organization.
const RoleAll = "all"

// maxPathDepth bounds upward walks over persisted parent links.
const maxPathDepth = 64

type OrganizationService struct {
	repo      organization.Repository
	users     user.Repository
	publisher eventbus.EventBus
	resolver  *TenantResolver
	validate  *validator.Validate
}

func NewOrganizationService(
	repo organization.Repository,
	users user.Repository,
	publisher eventbus.EventBus,
	resolver *TenantResolver,
) *OrganizationService {
	return &OrganizationService{
		repo:      repo,
		users:     users,
		publisher: publisher,
		resolver:  resolver,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// requireTenant resolves the tenant for a write. With tenancy enabled
// an unresolved tenant aborts the write instead of degrading to a null
// tenant row.
func (s *OrganizationService) requireTenant(ctx context.Context) (*uuid.UUID, error) {
	if !s.resolver.Enabled() {
		return nil, nil
	}
	tenantID, ok := s.resolver.Resolve(ctx)
	if !ok {
		return nil, ErrTenantRequired
	}
	return &tenantID, nil
}

func (s *OrganizationService) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return entity, nil
}

func (s *OrganizationService) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*organization.Organization, error) {
	return s.repo.GetChildren(ctx, parentID)
}

// GetTree returns the forest under parentID (roots when nil), eagerly
// loaded to the configured depth.
func (s *OrganizationService) GetTree(ctx context.Context, parentID *uuid.UUID) ([]*organization.Organization, error) {
	return s.repo.GetTree(ctx, parentID, configuration.Use().Organization.TreeDepth)
}

func (s *OrganizationService) GetPaginated(ctx context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	clamped := *params
	clampLimit(&clamped)
	return s.repo.GetPaginated(ctx, &clamped)
}

func (s *OrganizationService) Count(ctx context.Context, params *organization.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}

func (s *OrganizationService) Search(ctx context.Context, query string, filters *organization.SearchFilters) ([]*organization.Organization, error) {
	return s.repo.Search(ctx, query, filters)
}

func (s *OrganizationService) GetStatistics(ctx context.Context) (*organization.Statistics, error) {
	return s.repo.Statistics(ctx)
}

func (s *OrganizationService) GetManagers(ctx context.Context, orgID uuid.UUID) ([]user.User, error) {
	if _, err := s.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return s.repo.GetManagers(ctx, orgID)
}

func (s *OrganizationService) GetUserRoles(ctx context.Context, orgID uuid.UUID, userID uint) ([]string, error) {
	return s.repo.GetUserRoles(ctx, orgID, userID)
}

func (s *OrganizationService) UserBelongs(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error) {
	return s.repo.UserBelongs(ctx, orgID, userID)
}

// GetOrganizationPath walks persisted parent links from id to the root
// and returns the breadcrumb root first. A dangling parent reference
// terminates the walk instead of failing.
func (s *OrganizationService) GetOrganizationPath(ctx context.Context, id uuid.UUID) ([]organization.PathEntry, error) {
	entity, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var path []organization.PathEntry
	for depth := 0; entity != nil && depth < maxPathDepth; depth++ {
		path = append(path, organization.PathEntry{
			ID:   entity.ID(),
			Name: entity.Name(),
			Type: entity.Type(),
		})
		parentID := entity.ParentID()
		if parentID == nil {
			break
		}
		parent, err := s.repo.GetByID(ctx, *parentID)
		if err != nil {
			break
		}
		entity = parent
	}
	slices.Reverse(path)
	return path, nil
}

func (s *OrganizationService) Create(ctx context.Context, dto *CreateOrganizationDTO) (*organization.Organization, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, fieldErrors(err)
	}
	cfg := configuration.Use().Organization
	if err := dto.validateEnums(&cfg); err != nil {
		return nil, err
	}

	tenantID, err := s.requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	actor, _ := composables.UseUser(ctx)
	createdBy := uint(0)
	if actor != nil {
		createdBy = actor.ID()
	}

	entity := dto.toEntity(tenantID, createdBy)
	if entity.ManagerID() == nil && actor != nil {
		managerID := actor.ID()
		entity.SetManagerID(&managerID)
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*organization.Organization, error) {
		if parentID := entity.ParentID(); parentID != nil {
			if _, err := s.repo.GetByID(txCtx, *parentID); err != nil {
				return nil, mapPgError(err)
			}
		}
		if entity.ManagerID() != nil {
			if err := s.ensureUserExists(txCtx, *entity.ManagerID()); err != nil {
				return nil, err
			}
		}

		created, err := s.repo.Create(txCtx, entity)
		if err != nil {
			return nil, mapPgError(err)
		}
		if managerID := created.ManagerID(); managerID != nil {
			if err := s.repo.AssignUser(txCtx, created.ID(), *managerID, organization.RoleManager); err != nil {
				return nil, mapPgError(err)
			}
		}
		return s.loadParent(txCtx, created), nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(organization.CreatedEvent{Actor: actor, Result: created})
	return created, nil
}

func (s *OrganizationService) Update(ctx context.Context, id uuid.UUID, dto *UpdateOrganizationDTO) (*organization.Organization, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, fieldErrors(err)
	}
	cfg := configuration.Use().Organization
	if err := dto.validateEnums(&cfg); err != nil {
		return nil, err
	}

	actor, _ := composables.UseUser(ctx)

	var newManager user.User
	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*organization.Organization, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}
		previousManager := existing.ManagerID()

		dto.apply(existing)
		if actor != nil {
			existing.SetUpdatedBy(actor.ID())
		}

		updated, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return nil, mapPgError(err)
		}

		if managerID := updated.ManagerID(); managerID != nil && (previousManager == nil || *previousManager != *managerID) {
			manager, err := s.users.GetByID(txCtx, *managerID)
			if err != nil {
				return nil, ErrUserNotFound
			}
			if err := s.repo.AssignUser(txCtx, updated.ID(), *managerID, organization.RoleManager); err != nil {
				return nil, mapPgError(err)
			}
			newManager = manager
		}
		return s.loadParent(txCtx, updated), nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(organization.UpdatedEvent{Actor: actor, Result: updated})
	if newManager != nil {
		s.publisher.Publish(organization.ManagerAssignedEvent{
			Organization: updated,
			User:         newManager,
			Role:         "primary",
		})
	}
	return updated, nil
}

// Move reparents id under newParentID (nil promotes to root). The move
// is rejected without mutation when it would make the organization an
// ancestor of itself.
func (s *OrganizationService) Move(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID) (*organization.Organization, error) {
	actor, _ := composables.UseUser(ctx)

	moved, err := composables.InTxResult(ctx, func(txCtx context.Context) (*organization.Organization, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}

		if newParentID != nil {
			if err := s.checkCircularReference(txCtx, id, *newParentID); err != nil {
				return nil, err
			}
		}

		if err := s.repo.UpdateParent(txCtx, id, newParentID); err != nil {
			return nil, mapPgError(err)
		}
		existing.SetParentID(newParentID)
		return s.loadParent(txCtx, existing), nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(organization.UpdatedEvent{Actor: actor, Result: moved})
	return moved, nil
}

// checkCircularReference walks upward from candidateParentID. Finding
// id on the way, or id being its own candidate parent, is a cycle.
func (s *OrganizationService) checkCircularReference(ctx context.Context, id, candidateParentID uuid.UUID) error {
	if candidateParentID == id {
		return ErrCircularReference
	}
	current := candidateParentID
	for depth := 0; depth < maxPathDepth; depth++ {
		node, err := s.repo.GetByID(ctx, current)
		if err != nil {
			return mapPgError(err)
		}
		parentID := node.ParentID()
		if parentID == nil {
			return nil
		}
		if *parentID == id {
			return ErrCircularReference
		}
		current = *parentID
	}
	return ErrCircularReference
}

// Delete soft deletes id. Direct children are re-pointed at the deleted
// node's parent first, so the subtree stays attached to the hierarchy.
func (s *OrganizationService) Delete(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	actor, _ := composables.UseUser(ctx)

	deleted, err := composables.InTxResult(ctx, func(txCtx context.Context) (*organization.Organization, error) {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}
		if _, err := s.repo.ReparentChildren(txCtx, id, existing.ParentID()); err != nil {
			return nil, mapPgError(err)
		}
		if err := s.repo.SoftDelete(txCtx, id); err != nil {
			return nil, mapPgError(err)
		}
		return existing, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(organization.DeletedEvent{Actor: actor, Result: deleted})
	return deleted, nil
}

// AssignUser attaches userID to orgID under role without detaching any
// other role the pair already holds. The write is idempotent: an
// existing role row is left alone but still reports true and notifies.
// Only a missing user reports false, without error.
func (s *OrganizationService) AssignUser(ctx context.Context, orgID uuid.UUID, userID uint, role string) (bool, error) {
	if err := validateRole(role); err != nil {
		return false, err
	}

	var assignee user.User
	assigned, err := composables.InTxResult(ctx, func(txCtx context.Context) (bool, error) {
		exists, err := s.users.Exists(txCtx, userID)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
		if _, err := s.repo.GetByID(txCtx, orgID); err != nil {
			return false, mapPgError(err)
		}

		if err := s.repo.AssignUser(txCtx, orgID, userID, role); err != nil {
			return false, mapPgError(err)
		}
		assignee, err = s.users.GetByID(txCtx, userID)
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if assigned {
		entity, err := s.GetByID(ctx, orgID)
		if err != nil {
			return true, err
		}
		s.publisher.Publish(organization.ManagerAssignedEvent{
			Organization: entity,
			User:         assignee,
			Role:         role,
		})
	}
	return assigned, nil
}

// RemoveUser detaches userID from orgID. A nil role removes every
// assignment the user holds there. It reports whether anything was
// removed.
func (s *OrganizationService) RemoveUser(ctx context.Context, orgID uuid.UUID, userID uint, role *string) (bool, error) {
	if role != nil {
		if err := validateRole(*role); err != nil {
			return false, err
		}
	}

	var removedUser user.User
	removed, err := composables.InTxResult(ctx, func(txCtx context.Context) (bool, error) {
		if _, err := s.repo.GetByID(txCtx, orgID); err != nil {
			return false, mapPgError(err)
		}
		rows, err := s.repo.RemoveUser(txCtx, orgID, userID, role)
		if err != nil {
			return false, mapPgError(err)
		}
		if rows == 0 {
			return false, nil
		}
		if removedUser, err = s.users.GetByID(txCtx, userID); err != nil {
			removedUser = nil
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if removed && removedUser != nil {
		eventRole := RoleAll
		if role != nil {
			eventRole = *role
		}
		entity, err := s.GetByID(ctx, orgID)
		if err != nil {
			return true, err
		}
		s.publisher.Publish(organization.ManagerRemovedEvent{
			Organization: entity,
			User:         removedUser,
			Role:         eventRole,
		})
	}
	return removed, nil
}

// BulkAssignUsers assigns each user in assignments to its own role
// inside one transaction and reports, per user, whether the user was
// assigned. Missing users map to false without aborting the batch.
func (s *OrganizationService) BulkAssignUsers(ctx context.Context, orgID uuid.UUID, assignments map[uint]string) (map[uint]bool, error) {
	for _, role := range assignments {
		if err := validateRole(role); err != nil {
			return nil, err
		}
	}

	assignees := make(map[uint]user.User, len(assignments))
	results, err := composables.InTxResult(ctx, func(txCtx context.Context) (map[uint]bool, error) {
		if _, err := s.repo.GetByID(txCtx, orgID); err != nil {
			return nil, mapPgError(err)
		}

		results := make(map[uint]bool, len(assignments))
		for userID, role := range assignments {
			exists, err := s.users.Exists(txCtx, userID)
			if err != nil {
				return nil, err
			}
			if !exists {
				results[userID] = false
				continue
			}
			if err := s.repo.AssignUser(txCtx, orgID, userID, role); err != nil {
				return nil, mapPgError(err)
			}
			if assignee, err := s.users.GetByID(txCtx, userID); err == nil {
				assignees[userID] = assignee
			}
			results[userID] = true
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}

	entity, err := s.GetByID(ctx, orgID)
	if err != nil {
		return results, err
	}
	for userID, assigned := range results {
		if !assigned {
			continue
		}
		if assignee, ok := assignees[userID]; ok {
			s.publisher.Publish(organization.ManagerAssignedEvent{
				Organization: entity,
				User:         assignee,
				Role:         assignments[userID],
			})
		}
	}
	return results, nil
}

func (s *OrganizationService) ensureUserExists(ctx context.Context, userID uint) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

// loadParent attaches the parent entity for path and depth queries.
// A dangling reference leaves the parent unloaded.
func (s *OrganizationService) loadParent(ctx context.Context, entity *organization.Organization) *organization.Organization {
	if parentID := entity.ParentID(); parentID != nil {
		if parent, err := s.repo.GetByID(ctx, *parentID); err == nil {
			entity.SetParent(parent)
		}
	}
	return entity
}

// validateRole accepts the configured manager roles plus the plain
// member role.
func validateRole(role string) error {
	cfg := configuration.Use().Organization
	if role == "member" || slices.Contains(cfg.ManagerRoles, role) {
		return nil
	}
	return ErrInvalidRole.WithTemplateData(map[string]string{"Role": role})
}

func clampLimit(params *organization.FindParams) {
	cfg := configuration.Use().Organization
	if params.Limit <= 0 {
		params.Limit = cfg.PerPage
	}
	if params.Limit > cfg.MaxPerPage {
		params.Limit = cfg.MaxPerPage
	}
}
