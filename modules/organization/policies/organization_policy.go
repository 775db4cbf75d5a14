// Package policies answers per-action authorization questions for
// organizations. A grant comes from either a coarse permission in the
// access policy, primary managership, or holding the manager role in
// the organization under question.
package policies

import (
	"context"

	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/pkg/authz"
	"github.com/litepie/organization/pkg/configuration"
)

// MembershipReader is the slice of the organization repository the
// policy needs to answer management questions.
type MembershipReader interface {
	IsPrimaryManager(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error)
	UserHasRole(ctx context.Context, orgID uuid.UUID, userID uint, role string) (bool, error)
	UserBelongs(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error)
}

type OrganizationPolicy struct {
	checker     authz.Checker
	memberships MembershipReader
}

func NewOrganizationPolicy(checker authz.Checker, memberships MembershipReader) *OrganizationPolicy {
	return &OrganizationPolicy{
		checker:     checker,
		memberships: memberships,
	}
}

// ViewAny gates listing. Any authenticated actor may browse; listings
// are already tenant scoped at the repository.
func (p *OrganizationPolicy) ViewAny(ctx context.Context, actor user.User) (bool, error) {
	return actor != nil, nil
}

func (p *OrganizationPolicy) View(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	if actor == nil || entity == nil {
		return false, nil
	}
	allowed, err := p.hasPermission(ctx, actor, entity, configuration.Use().Permissions.View)
	if err != nil || allowed {
		return allowed, err
	}
	belongs, err := p.memberships.UserBelongs(ctx, entity.ID(), actor.ID())
	if err != nil || belongs {
		return belongs, err
	}
	return p.manages(ctx, actor, entity)
}

// Create only consults the coarse permission; there is no organization
// to be a manager of yet.
func (p *OrganizationPolicy) Create(ctx context.Context, actor user.User) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return p.check(ctx, actor, actor.TenantID(), configuration.Use().Permissions.Create)
}

func (p *OrganizationPolicy) Update(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	return p.permissionOrManages(ctx, actor, entity, configuration.Use().Permissions.Update)
}

// Delete grants the coarse permission or primary managership. Holding
// the manager role row is not enough to delete.
func (p *OrganizationPolicy) Delete(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	return p.permissionOrPrimary(ctx, actor, entity, configuration.Use().Permissions.Delete)
}

func (p *OrganizationPolicy) AssignManagers(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	return p.permissionOrManages(ctx, actor, entity, configuration.Use().Permissions.AssignManagers)
}

// RemoveManagers is stricter than AssignManagers: only the coarse
// permission or the primary manager may strip roles.
func (p *OrganizationPolicy) RemoveManagers(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	return p.permissionOrPrimary(ctx, actor, entity, configuration.Use().Permissions.AssignManagers)
}

func (p *OrganizationPolicy) ViewMembers(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	return p.View(ctx, actor, entity)
}

// ManageHierarchy gates moves and reparenting under entity. Structural
// edits need the coarse permission or primary managership.
func (p *OrganizationPolicy) ManageHierarchy(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	return p.permissionOrPrimary(ctx, actor, entity, configuration.Use().Permissions.Update)
}

func (p *OrganizationPolicy) permissionOrManages(ctx context.Context, actor user.User, entity *organization.Organization, permission string) (bool, error) {
	allowed, err := p.hasPermission(ctx, actor, entity, permission)
	if err != nil || allowed {
		return allowed, err
	}
	return p.manages(ctx, actor, entity)
}

func (p *OrganizationPolicy) permissionOrPrimary(ctx context.Context, actor user.User, entity *organization.Organization, permission string) (bool, error) {
	allowed, err := p.hasPermission(ctx, actor, entity, permission)
	if err != nil || allowed {
		return allowed, err
	}
	if actor == nil || entity == nil {
		return false, nil
	}
	return p.memberships.IsPrimaryManager(ctx, entity.ID(), actor.ID())
}

// manages reports whether actor is the primary manager of entity or
// holds the manager role in it.
func (p *OrganizationPolicy) manages(ctx context.Context, actor user.User, entity *organization.Organization) (bool, error) {
	if actor == nil || entity == nil {
		return false, nil
	}
	primary, err := p.memberships.IsPrimaryManager(ctx, entity.ID(), actor.ID())
	if err != nil || primary {
		return primary, err
	}
	return p.memberships.UserHasRole(ctx, entity.ID(), actor.ID(), organization.RoleManager)
}

func (p *OrganizationPolicy) hasPermission(ctx context.Context, actor user.User, entity *organization.Organization, permission string) (bool, error) {
	if actor == nil || entity == nil {
		return false, nil
	}
	domain := actor.TenantID()
	if entity != nil && entity.TenantID() != nil {
		domain = *entity.TenantID()
	}
	return p.check(ctx, actor, domain, permission)
}

func (p *OrganizationPolicy) check(ctx context.Context, actor user.User, domain uuid.UUID, permission string) (bool, error) {
	if actor == nil {
		return false, nil
	}
	object, action := authz.SplitPermission(permission)
	req := authz.NewRequest(
		authz.SubjectForUser(actor.TenantID(), actor.ID()),
		authz.DomainFromTenant(domain),
		object,
		action,
	)
	return p.checker.Check(ctx, req)
}
