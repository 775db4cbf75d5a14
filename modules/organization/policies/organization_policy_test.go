package policies_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/modules/organization/policies"
	"github.com/litepie/organization/pkg/authz"
)

// stubChecker grants the listed object.action pairs to every subject.
type stubChecker struct {
	granted map[string]bool
}

func (c *stubChecker) Check(ctx context.Context, req authz.Request) (bool, error) {
	return c.granted[req.Object+"."+req.Action], nil
}

type stubMemberships struct {
	primaryManagerOf map[uuid.UUID]uint
	roles            map[uuid.UUID]map[uint][]string
}

func (m *stubMemberships) IsPrimaryManager(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error) {
	return m.primaryManagerOf[orgID] == userID, nil
}

func (m *stubMemberships) UserHasRole(ctx context.Context, orgID uuid.UUID, userID uint, role string) (bool, error) {
	for _, r := range m.roles[orgID][userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *stubMemberships) UserBelongs(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error) {
	return len(m.roles[orgID][userID]) > 0, nil
}

func newPolicy(granted []string, memberships *stubMemberships) *policies.OrganizationPolicy {
	checker := &stubChecker{granted: map[string]bool{}}
	for _, permission := range granted {
		checker.granted[permission] = true
	}
	if memberships == nil {
		memberships = &stubMemberships{
			primaryManagerOf: map[uuid.UUID]uint{},
			roles:            map[uuid.UUID]map[uint][]string{},
		}
	}
	return policies.NewOrganizationPolicy(checker, memberships)
}

func testActor(id uint) user.User {
	return user.New("Policy", "Actor", "policy.actor@example.com", user.WithID(id))
}

func testOrg() *organization.Organization {
	return organization.New("Acme Corp", "ACME", organization.TypeCompany)
}

func TestOrganizationPolicy_ViewAny(t *testing.T) {
	p := newPolicy(nil, nil)

	ok, err := p.ViewAny(context.Background(), testActor(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.ViewAny(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrganizationPolicy_Create(t *testing.T) {
	granted := newPolicy([]string{"organization.create"}, nil)
	denied := newPolicy(nil, nil)

	ok, err := granted.Create(context.Background(), testActor(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = denied.Create(context.Background(), testActor(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrganizationPolicy_Update_PrimaryManager(t *testing.T) {
	entity := testOrg()
	memberships := &stubMemberships{
		primaryManagerOf: map[uuid.UUID]uint{entity.ID(): 7},
		roles:            map[uuid.UUID]map[uint][]string{},
	}
	p := newPolicy(nil, memberships)

	ok, err := p.Update(context.Background(), testActor(7), entity)
	require.NoError(t, err)
	assert.True(t, ok, "primary manager may update without the coarse permission")

	ok, err = p.Update(context.Background(), testActor(8), entity)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrganizationPolicy_Update_ManagerRole(t *testing.T) {
	entity := testOrg()
	memberships := &stubMemberships{
		primaryManagerOf: map[uuid.UUID]uint{},
		roles: map[uuid.UUID]map[uint][]string{
			entity.ID(): {7: {organization.RoleManager}},
		},
	}
	p := newPolicy(nil, memberships)

	ok, err := p.Update(context.Background(), testActor(7), entity)
	require.NoError(t, err)
	assert.True(t, ok, "the manager role grants update")
}

func TestOrganizationPolicy_Delete(t *testing.T) {
	entity := testOrg()
	memberships := &stubMemberships{
		primaryManagerOf: map[uuid.UUID]uint{entity.ID(): 7},
		roles: map[uuid.UUID]map[uint][]string{
			entity.ID(): {8: {organization.RoleManager}},
		},
	}
	p := newPolicy(nil, memberships)

	ok, err := p.Delete(context.Background(), testActor(7), entity)
	require.NoError(t, err)
	assert.True(t, ok, "the primary manager may delete")

	ok, err = p.Delete(context.Background(), testActor(8), entity)
	require.NoError(t, err)
	assert.False(t, ok, "the manager role row does not grant delete")

	granted := newPolicy([]string{"organization.delete"}, memberships)
	ok, err = granted.Delete(context.Background(), testActor(9), entity)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrganizationPolicy_ManageHierarchy(t *testing.T) {
	entity := testOrg()
	memberships := &stubMemberships{
		primaryManagerOf: map[uuid.UUID]uint{entity.ID(): 7},
		roles: map[uuid.UUID]map[uint][]string{
			entity.ID(): {8: {organization.RoleManager}},
		},
	}
	p := newPolicy(nil, memberships)

	ok, err := p.ManageHierarchy(context.Background(), testActor(7), entity)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.ManageHierarchy(context.Background(), testActor(8), entity)
	require.NoError(t, err)
	assert.False(t, ok, "structural edits require primary managership, not the role row")
}

func TestOrganizationPolicy_View_Member(t *testing.T) {
	entity := testOrg()
	memberships := &stubMemberships{
		primaryManagerOf: map[uuid.UUID]uint{},
		roles: map[uuid.UUID]map[uint][]string{
			entity.ID(): {7: {"member"}},
		},
	}
	p := newPolicy(nil, memberships)

	ok, err := p.View(context.Background(), testActor(7), entity)
	require.NoError(t, err)
	assert.True(t, ok, "membership grants view")

	ok, err = p.View(context.Background(), testActor(8), entity)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrganizationPolicy_AssignManagers(t *testing.T) {
	entity := testOrg()
	memberships := &stubMemberships{
		primaryManagerOf: map[uuid.UUID]uint{entity.ID(): 7},
		roles: map[uuid.UUID]map[uint][]string{
			entity.ID(): {8: {organization.RoleManager}},
		},
	}
	p := newPolicy(nil, memberships)

	ok, err := p.AssignManagers(context.Background(), testActor(7), entity)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.AssignManagers(context.Background(), testActor(8), entity)
	require.NoError(t, err)
	assert.True(t, ok, "the manager role row may assign")

	ok, err = p.AssignManagers(context.Background(), testActor(9), entity)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrganizationPolicy_RemoveManagers(t *testing.T) {
	entity := testOrg()
	memberships := &stubMemberships{
		primaryManagerOf: map[uuid.UUID]uint{entity.ID(): 7},
		roles: map[uuid.UUID]map[uint][]string{
			entity.ID(): {8: {organization.RoleManager}},
		},
	}
	p := newPolicy(nil, memberships)

	ok, err := p.RemoveManagers(context.Background(), testActor(7), entity)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.RemoveManagers(context.Background(), testActor(8), entity)
	require.NoError(t, err)
	assert.False(t, ok, "the manager role row may not strip roles")
}

func TestOrganizationPolicy_NilActor(t *testing.T) {
	p := newPolicy([]string{"organization.view"}, nil)

	ok, err := p.View(context.Background(), nil, testOrg())
	require.NoError(t, err)
	assert.False(t, ok)
}
