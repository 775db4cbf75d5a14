package authz_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litepie/organization/pkg/authz"
)

const testModel = `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && (r.dom == p.dom || p.dom == "*") && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`

func writeAccessFiles(t *testing.T, policy string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	policyPath := filepath.Join(dir, "policy.csv")
	require.NoError(t, os.WriteFile(modelPath, []byte(testModel), 0o644))
	require.NoError(t, os.WriteFile(policyPath, []byte(policy), 0o644))
	return modelPath, policyPath
}

func TestService_Check(t *testing.T) {
	tenantID := uuid.New()
	domain := authz.DomainFromTenant(tenantID)
	adminSubject := authz.SubjectForUser(tenantID, 1)
	memberSubject := authz.SubjectForUser(tenantID, 2)

	policy := "p, role:admin, *, organization, *\n" +
		"p, role:member, *, organization, view\n" +
		"g, " + adminSubject + ", role:admin, " + domain + "\n" +
		"g, " + memberSubject + ", role:member, " + domain + "\n"

	modelPath, policyPath := writeAccessFiles(t, policy)
	svc, err := authz.NewService(authz.Config{ModelPath: modelPath, PolicyPath: policyPath})
	require.NoError(t, err)

	ctx := context.Background()

	allowed, err := svc.Check(ctx, authz.NewRequest(adminSubject, domain, "organization", "delete"))
	require.NoError(t, err)
	assert.True(t, allowed, "admin role covers every organization action")

	allowed, err = svc.Check(ctx, authz.NewRequest(memberSubject, domain, "organization", "view"))
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Check(ctx, authz.NewRequest(memberSubject, domain, "organization", "delete"))
	require.NoError(t, err)
	assert.False(t, allowed)

	otherDomain := authz.DomainFromTenant(uuid.New())
	allowed, err = svc.Check(ctx, authz.NewRequest(adminSubject, otherDomain, "organization", "view"))
	require.NoError(t, err)
	assert.False(t, allowed, "a role grant is bound to its tenant domain")
}

func TestService_Authorize(t *testing.T) {
	tenantID := uuid.New()
	domain := authz.DomainFromTenant(tenantID)
	subject := authz.SubjectForUser(tenantID, 1)

	policy := "g, " + subject + ", role:member, " + domain + "\n" +
		"p, role:member, *, organization, view\n"

	modelPath, policyPath := writeAccessFiles(t, policy)
	svc, err := authz.NewService(authz.Config{ModelPath: modelPath, PolicyPath: policyPath})
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, authz.NewRequest(subject, domain, "organization", "view")))

	err = svc.Authorize(ctx, authz.NewRequest(subject, domain, "organization", "delete"))
	require.ErrorIs(t, err, authz.ErrForbidden)
}

func TestSubjectForUser(t *testing.T) {
	tenantID := uuid.New()
	assert.Equal(t, "tenant:"+tenantID.String()+":user:5", authz.SubjectForUser(tenantID, 5))
	assert.Equal(t, "tenant:global:user:anonymous", authz.SubjectForUser(uuid.Nil, 0))
}

func TestSplitPermission(t *testing.T) {
	object, action := authz.SplitPermission("organization.assign_managers")
	assert.Equal(t, "organization", object)
	assert.Equal(t, "assign_managers", action)

	object, action = authz.SplitPermission("organization")
	assert.Equal(t, "organization", object)
	assert.Equal(t, "*", action)
}
