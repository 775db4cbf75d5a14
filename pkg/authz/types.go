package authz

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	globalDomain        = "global"
	subjectTenantPrefix = "tenant"
	subjectUserPrefix   = "user"
	subjectSeparator    = ":"
)

// Request encapsulates all parameters required to evaluate a rule.
type Request struct {
	Subject string
	Domain  string
	Object  string
	Action  string
}

// NewRequest constructs a Request.
func NewRequest(subject, domain, object, action string) Request {
	return Request{
		Subject: subject,
		Domain:  domain,
		Object:  object,
		Action:  action,
	}
}

// SubjectForUser builds a subject identifier in the form
// tenant:{tenantID}:user:{userID}.
func SubjectForUser(tenantID uuid.UUID, userID uint) string {
	userPart := "anonymous"
	if userID != 0 {
		userPart = strconv.FormatUint(uint64(userID), 10)
	}
	parts := []string{
		subjectTenantPrefix, DomainFromTenant(tenantID),
		subjectUserPrefix, userPart,
	}
	return strings.Join(parts, subjectSeparator)
}

// DomainFromTenant converts a tenant ID into an enforcement domain string.
func DomainFromTenant(id uuid.UUID) string {
	if id == uuid.Nil {
		return globalDomain
	}
	return strings.ToLower(id.String())
}

// SplitPermission splits a permission string like "organization.create"
// into its object and action parts.
func SplitPermission(permission string) (object, action string) {
	idx := strings.LastIndex(permission, ".")
	if idx < 0 {
		return permission, "*"
	}
	return permission[:idx], permission[idx+1:]
}
