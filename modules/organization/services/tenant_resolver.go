package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/litepie/organization/modules/core/domain/entities/tenant"
	"github.com/litepie/organization/pkg/composables"
	"github.com/litepie/organization/pkg/configuration"
)

// SessionStore persists the resolved tenant across units of work.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string) error
}

const (
	sessionTenantKey = "tenant_id"
	tenantHeader     = "X-Tenant-ID"
	tenantParam      = "tenant_id"
)

// TenantResolver determines the active tenant for the current unit of
// work. Sources are tried in a fixed order; the first non empty result
// wins. Resolution is best effort and never fatal: a failed tenant
// lookup degrades to the raw identifier.
type TenantResolver struct {
	tenants tenant.Repository
	session SessionStore
}

func NewTenantResolver(tenants tenant.Repository, session SessionStore) *TenantResolver {
	return &TenantResolver{
		tenants: tenants,
		session: session,
	}
}

// Enabled reports whether tenant filtering is active at all. When
// disabled, Resolve always reports no tenant.
func (r *TenantResolver) Enabled() bool {
	return configuration.Use().Organization.TenancyEnabled
}

func (r *TenantResolver) Resolve(ctx context.Context) (uuid.UUID, bool) {
	if !r.Enabled() {
		return uuid.Nil, false
	}

	// 1. Explicitly bound current tenant.
	if tenantID, err := composables.UseTenantID(ctx); err == nil {
		return tenantID, true
	}

	// 2. Session value from an earlier unit of work.
	if r.session != nil {
		if raw, ok := r.session.Get(ctx, sessionTenantKey); ok && raw != "" {
			if tenantID, err := uuid.Parse(raw); err == nil {
				return tenantID, true
			}
		}
	}

	// 3. Authenticated actor's own tenant attribute.
	if actor, err := composables.UseUser(ctx); err == nil {
		if actor.TenantID() != uuid.Nil {
			return actor.TenantID(), true
		}
	}

	params, ok := composables.UseParams(ctx)
	if !ok || params.Request == nil {
		return uuid.Nil, false
	}

	// 4. Request header.
	if raw := params.Request.Header.Get(tenantHeader); raw != "" {
		if tenantID, err := uuid.Parse(raw); err == nil {
			return tenantID, true
		}
	}

	// 5. Request parameter.
	if raw := params.Request.URL.Query().Get(tenantParam); raw != "" {
		if tenantID, err := uuid.Parse(raw); err == nil {
			return tenantID, true
		}
	}

	// 6. Subdomain lookup.
	if subdomain, ok := subdomainOf(params.Request.Host); ok {
		return r.resolveSubdomain(ctx, subdomain)
	}

	return uuid.Nil, false
}

// Set binds tenantID for the remainder of the unit of work and
// persists it to the session store for subsequent ones. A nil id
// clears the binding.
func (r *TenantResolver) Set(ctx context.Context, tenantID uuid.UUID) context.Context {
	if r.session != nil {
		value := ""
		if tenantID != uuid.Nil {
			value = tenantID.String()
		}
		if err := r.session.Put(ctx, sessionTenantKey, value); err != nil {
			composables.UseLogger(ctx).WithError(err).Warn("tenant resolver: failed to persist tenant to session")
		}
	}
	return composables.WithTenantID(ctx, tenantID)
}

func (r *TenantResolver) resolveSubdomain(ctx context.Context, subdomain string) (uuid.UUID, bool) {
	if r.tenants != nil {
		if t, err := r.tenants.GetByDomain(ctx, subdomain); err == nil {
			return t.ID(), true
		}
	}
	// No tenant record: degrade to treating the subdomain as the raw
	// identifier when it parses as one.
	if tenantID, err := uuid.Parse(subdomain); err == nil {
		return tenantID, true
	}
	return uuid.Nil, false
}

func subdomainOf(host string) (string, bool) {
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 || parts[0] == "www" {
		return "", false
	}
	return parts[0], true
}
