package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/entities/tenant"
	"github.com/litepie/organization/modules/core/infrastructure/persistence/models"
	"github.com/litepie/organization/pkg/composables"
	"github.com/litepie/organization/pkg/mapping"
)

var ErrTenantNotFound = fmt.Errorf("tenant not found")

const tenantFindQuery = `SELECT id, name, domain, is_active, created_at, updated_at FROM tenants`

type TenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &TenantRepository{}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	query := tenantFindQuery + " WHERE id = $1"
	tenants, err := r.queryTenants(ctx, query, id.String())
	if err != nil {
		return nil, err
	}

	if len(tenants) == 0 {
		return nil, ErrTenantNotFound
	}

	return tenants[0], nil
}

func (r *TenantRepository) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	query := tenantFindQuery + " WHERE domain = $1"
	tenants, err := r.queryTenants(ctx, query, strings.ToLower(strings.TrimSpace(domain)))
	if err != nil {
		return nil, err
	}

	if len(tenants) == 0 {
		return nil, ErrTenantNotFound
	}

	return tenants[0], nil
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	query := `
		INSERT INTO tenants (id, name, domain, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	domain := strings.ToLower(strings.TrimSpace(t.Domain()))

	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		t.ID().String(),
		t.Name(),
		mapping.ValueToSQLNullString(domain),
		t.IsActive(),
		t.CreatedAt(),
		t.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to insert tenant")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *TenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return r.queryTenants(ctx, tenantFindQuery)
}

func (r *TenantRepository) queryTenants(ctx context.Context, query string, args ...interface{}) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Domain,
			&t.IsActive,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant row")
		}
		domainTenant, err := toDomainTenant(&t)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, domainTenant)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tenant rows")
	}

	return tenants, nil
}
