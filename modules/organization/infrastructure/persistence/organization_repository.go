package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	coremodels "github.com/litepie/organization/modules/core/infrastructure/persistence/models"
	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/modules/organization/infrastructure/persistence/models"
	"github.com/litepie/organization/pkg/composables"
	"github.com/litepie/organization/pkg/configuration"
)

var ErrOrganizationNotFound = fmt.Errorf("organization not found")

const organizationFindQuery = `
	SELECT id, tenant_id, parent_id, type, name, code, description, status,
	       manager_id, metadata, created_by, updated_by, created_at, updated_at, deleted_at
	FROM organizations`

const userSelectColumns = `u.id, u.tenant_id, u.first_name, u.last_name, u.email, u.created_at, u.updated_at`

type OrganizationRepository struct{}

func NewOrganizationRepository() organization.Repository {
	return &OrganizationRepository{}
}

// scopeConditions returns the WHERE fragments applied to every
// structural query: soft deleted rows are invisible and, when tenancy
// is enabled and a tenant is bound, rows are limited to that tenant.
func scopeConditions(ctx context.Context, args []interface{}) ([]string, []interface{}) {
	conditions := []string{"deleted_at IS NULL"}
	if configuration.Use().Organization.TenancyEnabled {
		if tenantID, err := composables.UseTenantID(ctx); err == nil {
			args = append(args, tenantID.String())
			conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", len(args)))
		}
	}
	return conditions, args
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	args := []interface{}{id.String()}
	conditions := []string{"id = $1"}
	scoped, args := scopeConditions(ctx, args)
	conditions = append(conditions, scoped...)

	orgs, err := r.queryOrganizations(ctx, organizationFindQuery+" WHERE "+strings.Join(conditions, " AND "), args...)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, ErrOrganizationNotFound
	}
	return orgs[0], nil
}

func (r *OrganizationRepository) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*organization.Organization, error) {
	args := []interface{}{parentID.String()}
	conditions := []string{"parent_id = $1"}
	scoped, args := scopeConditions(ctx, args)
	conditions = append(conditions, scoped...)

	query := organizationFindQuery + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY name"
	return r.queryOrganizations(ctx, query, args...)
}

func (r *OrganizationRepository) GetTree(ctx context.Context, parentID *uuid.UUID, depth int) ([]*organization.Organization, error) {
	var args []interface{}
	var conditions []string
	if parentID != nil {
		args = append(args, parentID.String())
		conditions = append(conditions, "parent_id = $1")
	} else {
		conditions = append(conditions, "parent_id IS NULL")
	}
	scoped, args := scopeConditions(ctx, args)
	conditions = append(conditions, scoped...)

	query := organizationFindQuery + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY name"
	level, err := r.queryOrganizations(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	current := level
	for i := 0; i < depth && len(current) > 0; i++ {
		next, err := r.loadChildren(ctx, current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return level, nil
}

// loadChildren fetches the direct children of every org in parents in
// one query, attaches them, and returns the fetched level.
func (r *OrganizationRepository) loadChildren(ctx context.Context, parents []*organization.Organization) ([]*organization.Organization, error) {
	ids := make([]string, len(parents))
	byID := make(map[uuid.UUID]*organization.Organization, len(parents))
	for i, p := range parents {
		ids[i] = p.ID().String()
		byID[p.ID()] = p
	}

	args := []interface{}{ids}
	conditions := []string{"parent_id = ANY($1::uuid[])"}
	scoped, args := scopeConditions(ctx, args)
	conditions = append(conditions, scoped...)

	query := organizationFindQuery + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY name"
	children, err := r.queryOrganizations(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	grouped := make(map[uuid.UUID][]*organization.Organization)
	for _, child := range children {
		if child.ParentID() == nil {
			continue
		}
		grouped[*child.ParentID()] = append(grouped[*child.ParentID()], child)
	}
	for parentUUID, group := range grouped {
		if parent, ok := byID[parentUUID]; ok {
			parent.SetChildren(group)
			for _, child := range group {
				child.SetParent(parent)
			}
		}
	}
	return children, nil
}

func buildFindConditions(params *organization.FindParams, args []interface{}) ([]string, []interface{}) {
	var conditions []string
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args), len(args)))
	}
	if params.Type != nil {
		args = append(args, string(*params.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.ParentID != nil {
		args = append(args, params.ParentID.String())
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)))
	} else if params.RootOnly {
		conditions = append(conditions, "parent_id IS NULL")
	}
	return conditions, args
}

func (r *OrganizationRepository) GetPaginated(ctx context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	conditions, args := buildFindConditions(params, nil)
	scoped, args := scopeConditions(ctx, args)
	conditions = append(conditions, scoped...)

	query := organizationFindQuery + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY name"
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", params.Offset)
	}
	return r.queryOrganizations(ctx, query, args...)
}

func (r *OrganizationRepository) Count(ctx context.Context, params *organization.FindParams) (int64, error) {
	conditions, args := buildFindConditions(params, nil)
	scoped, args := scopeConditions(ctx, args)
	conditions = append(conditions, scoped...)

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM organizations WHERE " + strings.Join(conditions, " AND ")
	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count organizations")
	}
	return count, nil
}

func (r *OrganizationRepository) Search(ctx context.Context, query string, filters *organization.SearchFilters) ([]*organization.Organization, error) {
	params := &organization.FindParams{Query: query}
	if filters != nil {
		params.Type = filters.Type
		params.Status = filters.Status
		params.ParentID = filters.ParentID
	}
	return r.GetPaginated(ctx, params)
}

func (r *OrganizationRepository) Statistics(ctx context.Context) (*organization.Statistics, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	scoped, args := scopeConditions(ctx, nil)
	where := " WHERE " + strings.Join(scoped, " AND ")

	stats := &organization.Statistics{
		ByType:   map[organization.Type]int64{},
		ByStatus: map[organization.Status]int64{},
	}

	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM organizations"+where, args...).Scan(&stats.Total); err != nil {
		return nil, errors.Wrap(err, "failed to count organizations")
	}

	rows, err := tx.Query(ctx, "SELECT type, COUNT(*) FROM organizations"+where+" GROUP BY type", args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to group organizations by type")
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int64
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan type count")
		}
		stats.ByType[organization.Type(typ)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := tx.Query(ctx, "SELECT status, COUNT(*) FROM organizations"+where+" GROUP BY status", args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to group organizations by status")
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var count int64
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan status count")
		}
		stats.ByStatus[organization.Status(status)] = count
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM organizations"+where+" AND parent_id IS NULL", args...).Scan(&stats.Roots); err != nil {
		return nil, errors.Wrap(err, "failed to count root organizations")
	}
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM organizations"+where+" AND manager_id IS NOT NULL", args...).Scan(&stats.WithManagers); err != nil {
		return nil, errors.Wrap(err, "failed to count managed organizations")
	}

	return stats, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, data *organization.Organization) (*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	dbRow, err := toDBOrganization(data)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO organizations (
			id, tenant_id, parent_id, type, name, code, description, status,
			manager_id, metadata, created_by, updated_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		dbRow.ID,
		dbRow.TenantID,
		dbRow.ParentID,
		dbRow.Type,
		dbRow.Name,
		dbRow.Code,
		dbRow.Description,
		dbRow.Status,
		dbRow.ManagerID,
		dbRow.Metadata,
		dbRow.CreatedBy,
		dbRow.UpdatedBy,
		dbRow.CreatedAt,
		dbRow.UpdatedAt,
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to insert organization")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *OrganizationRepository) Update(ctx context.Context, data *organization.Organization) (*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	dbRow, err := toDBOrganization(data)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE organizations
		SET parent_id = $1, type = $2, name = $3, code = $4, description = $5,
		    status = $6, manager_id = $7, metadata = $8, updated_by = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
		RETURNING id
	`
	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		dbRow.ParentID,
		dbRow.Type,
		dbRow.Name,
		dbRow.Code,
		dbRow.Description,
		dbRow.Status,
		dbRow.ManagerID,
		dbRow.Metadata,
		dbRow.UpdatedBy,
		dbRow.UpdatedAt,
		dbRow.ID,
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to update organization")
	}

	return r.GetByID(ctx, data.ID())
}

func (r *OrganizationRepository) UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var parentValue interface{}
	if parentID != nil {
		parentValue = parentID.String()
	}
	tag, err := tx.Exec(
		ctx,
		"UPDATE organizations SET parent_id = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL",
		parentValue,
		id.String(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update organization parent")
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepository) ReparentChildren(ctx context.Context, parentID uuid.UUID, newParentID *uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var newParentValue interface{}
	if newParentID != nil {
		newParentValue = newParentID.String()
	}
	tag, err := tx.Exec(
		ctx,
		"UPDATE organizations SET parent_id = $1, updated_at = now() WHERE parent_id = $2 AND deleted_at IS NULL",
		newParentValue,
		parentID.String(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to reparent children")
	}
	return tag.RowsAffected(), nil
}

func (r *OrganizationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(
		ctx,
		"UPDATE organizations SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL",
		id.String(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to soft delete organization")
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepository) AssignUser(ctx context.Context, orgID uuid.UUID, userID uint, role string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO organization_users (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id, role) DO NOTHING
	`
	if _, err := tx.Exec(ctx, query, orgID.String(), userID, role); err != nil {
		return errors.Wrap(err, "failed to assign user to organization")
	}
	return nil
}

func (r *OrganizationRepository) RemoveUser(ctx context.Context, orgID uuid.UUID, userID uint, role *string) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	query := "DELETE FROM organization_users WHERE organization_id = $1 AND user_id = $2"
	args := []interface{}{orgID.String(), userID}
	if role != nil {
		args = append(args, *role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to remove user from organization")
	}
	return tag.RowsAffected(), nil
}

func (r *OrganizationRepository) GetUserRoles(ctx context.Context, orgID uuid.UUID, userID uint) ([]string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(
		ctx,
		"SELECT role FROM organization_users WHERE organization_id = $1 AND user_id = $2 ORDER BY role",
		orgID.String(),
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query user roles")
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, errors.Wrap(err, "failed to scan role row")
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *OrganizationRepository) UserBelongs(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error) {
	return r.exists(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM organization_users WHERE organization_id = $1 AND user_id = $2)",
		orgID.String(), userID,
	)
}

func (r *OrganizationRepository) UserHasRole(ctx context.Context, orgID uuid.UUID, userID uint, role string) (bool, error) {
	return r.exists(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM organization_users WHERE organization_id = $1 AND user_id = $2 AND role = $3)",
		orgID.String(), userID, role,
	)
}

func (r *OrganizationRepository) IsPrimaryManager(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error) {
	return r.exists(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM organizations WHERE id = $1 AND manager_id = $2 AND deleted_at IS NULL)",
		orgID.String(), userID,
	)
}

func (r *OrganizationRepository) GetManagers(ctx context.Context, orgID uuid.UUID) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + userSelectColumns + `
		FROM users u
		JOIN organizations o ON o.manager_id = u.id
		WHERE o.id = $1 AND o.deleted_at IS NULL
		UNION
		SELECT ` + userSelectColumns + `
		FROM users u
		JOIN organization_users ou ON ou.user_id = u.id
		WHERE ou.organization_id = $1 AND ou.role = $2
		ORDER BY id
	`
	rows, err := tx.Query(ctx, query, orgID.String(), organization.RoleManager)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query organization managers")
	}
	defer rows.Close()

	var managers []user.User
	for rows.Next() {
		var u coremodels.User
		if err := rows.Scan(
			&u.ID,
			&u.TenantID,
			&u.FirstName,
			&u.LastName,
			&u.Email,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan manager row")
		}
		manager, err := toDomainManager(&u)
		if err != nil {
			return nil, err
		}
		managers = append(managers, manager)
	}
	return managers, rows.Err()
}

func (r *OrganizationRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to execute existence query")
	}
	return exists, nil
}

func (r *OrganizationRepository) queryOrganizations(ctx context.Context, query string, args ...interface{}) ([]*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var orgs []*organization.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(
			&o.ID,
			&o.TenantID,
			&o.ParentID,
			&o.Type,
			&o.Name,
			&o.Code,
			&o.Description,
			&o.Status,
			&o.ManagerID,
			&o.Metadata,
			&o.CreatedBy,
			&o.UpdatedBy,
			&o.CreatedAt,
			&o.UpdatedAt,
			&o.DeletedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan organization row")
		}
		entity, err := toDomainOrganization(&o)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate organization rows")
	}

	return orgs, nil
}
