package services_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	corepersistence "github.com/litepie/organization/modules/core/infrastructure/persistence"
	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/modules/organization/infrastructure/persistence"
	"github.com/litepie/organization/modules/organization/services"
	"github.com/litepie/organization/pkg/composables"
	"github.com/litepie/organization/pkg/configuration"
	"github.com/litepie/organization/pkg/eventbus"
	"github.com/litepie/organization/pkg/itf"
)

type assignment struct {
	orgID  uuid.UUID
	userID uint
	role   string
}

type fakeOrgRepository struct {
	orgs        map[uuid.UUID]*organization.Organization
	deleted     map[uuid.UUID]bool
	assignments []assignment
	users       *fakeUserRepository
}

func newFakeOrgRepository(users *fakeUserRepository) *fakeOrgRepository {
	return &fakeOrgRepository{
		orgs:    map[uuid.UUID]*organization.Organization{},
		deleted: map[uuid.UUID]bool{},
		users:   users,
	}
}

func (r *fakeOrgRepository) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	entity, ok := r.orgs[id]
	if !ok || r.deleted[id] {
		return nil, persistence.ErrOrganizationNotFound
	}
	return entity, nil
}

func (r *fakeOrgRepository) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*organization.Organization, error) {
	var children []*organization.Organization
	for _, entity := range r.orgs {
		if r.deleted[entity.ID()] {
			continue
		}
		if pid := entity.ParentID(); pid != nil && *pid == parentID {
			children = append(children, entity)
		}
	}
	sortByName(children)
	return children, nil
}

func (r *fakeOrgRepository) GetTree(ctx context.Context, parentID *uuid.UUID, depth int) ([]*organization.Organization, error) {
	var level []*organization.Organization
	for _, entity := range r.orgs {
		if r.deleted[entity.ID()] {
			continue
		}
		pid := entity.ParentID()
		if parentID == nil && pid == nil {
			level = append(level, entity)
		} else if parentID != nil && pid != nil && *pid == *parentID {
			level = append(level, entity)
		}
	}
	sortByName(level)
	if depth > 0 {
		for _, entity := range level {
			id := entity.ID()
			children, err := r.GetTree(ctx, &id, depth-1)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				child.SetParent(entity)
			}
			entity.SetChildren(children)
		}
	}
	return level, nil
}

func (r *fakeOrgRepository) matches(entity *organization.Organization, params *organization.FindParams) bool {
	if r.deleted[entity.ID()] {
		return false
	}
	if params.Query != "" {
		q := strings.ToLower(params.Query)
		if !strings.Contains(strings.ToLower(entity.Name()), q) &&
			!strings.Contains(strings.ToLower(entity.Code()), q) {
			return false
		}
	}
	if params.Type != nil && entity.Type() != *params.Type {
		return false
	}
	if params.Status != nil && entity.Status() != *params.Status {
		return false
	}
	if params.RootOnly && entity.ParentID() != nil {
		return false
	}
	if params.ParentID != nil {
		pid := entity.ParentID()
		if pid == nil || *pid != *params.ParentID {
			return false
		}
	}
	return true
}

func (r *fakeOrgRepository) GetPaginated(ctx context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	var out []*organization.Organization
	for _, entity := range r.orgs {
		if r.matches(entity, params) {
			out = append(out, entity)
		}
	}
	sortByName(out)
	if params.Offset > 0 && params.Offset < len(out) {
		out = out[params.Offset:]
	} else if params.Offset >= len(out) {
		out = nil
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *fakeOrgRepository) Count(ctx context.Context, params *organization.FindParams) (int64, error) {
	var count int64
	for _, entity := range r.orgs {
		if r.matches(entity, params) {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrgRepository) Search(ctx context.Context, query string, filters *organization.SearchFilters) ([]*organization.Organization, error) {
	params := &organization.FindParams{Query: query}
	if filters != nil {
		params.Type = filters.Type
		params.Status = filters.Status
		params.ParentID = filters.ParentID
	}
	return r.GetPaginated(ctx, params)
}

func (r *fakeOrgRepository) Statistics(ctx context.Context) (*organization.Statistics, error) {
	stats := &organization.Statistics{
		ByType:   map[organization.Type]int64{},
		ByStatus: map[organization.Status]int64{},
	}
	for _, entity := range r.orgs {
		if r.deleted[entity.ID()] {
			continue
		}
		stats.Total++
		stats.ByType[entity.Type()]++
		stats.ByStatus[entity.Status()]++
		if entity.ParentID() == nil {
			stats.Roots++
		}
		if entity.ManagerID() != nil {
			stats.WithManagers++
		}
	}
	return stats, nil
}

func sameTenantPartition(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeOrgRepository) Create(ctx context.Context, data *organization.Organization) (*organization.Organization, error) {
	for _, existing := range r.orgs {
		if r.deleted[existing.ID()] || existing.Code() != data.Code() {
			continue
		}
		if !sameTenantPartition(existing.TenantID(), data.TenantID()) {
			continue
		}
		return nil, &pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "organizations_tenant_id_code_key",
		}
	}
	r.orgs[data.ID()] = data
	return data, nil
}

func (r *fakeOrgRepository) Update(ctx context.Context, data *organization.Organization) (*organization.Organization, error) {
	if _, ok := r.orgs[data.ID()]; !ok || r.deleted[data.ID()] {
		return nil, persistence.ErrOrganizationNotFound
	}
	r.orgs[data.ID()] = data
	return data, nil
}

func (r *fakeOrgRepository) UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	entity, ok := r.orgs[id]
	if !ok || r.deleted[id] {
		return persistence.ErrOrganizationNotFound
	}
	entity.SetParentID(parentID)
	return nil
}

func (r *fakeOrgRepository) ReparentChildren(ctx context.Context, parentID uuid.UUID, newParentID *uuid.UUID) (int64, error) {
	var moved int64
	for _, entity := range r.orgs {
		if r.deleted[entity.ID()] {
			continue
		}
		if pid := entity.ParentID(); pid != nil && *pid == parentID {
			entity.SetParentID(newParentID)
			moved++
		}
	}
	return moved, nil
}

func (r *fakeOrgRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.orgs[id]; !ok || r.deleted[id] {
		return persistence.ErrOrganizationNotFound
	}
	r.deleted[id] = true
	return nil
}

func (r *fakeOrgRepository) AssignUser(ctx context.Context, orgID uuid.UUID, userID uint, role string) error {
	for _, a := range r.assignments {
		if a.orgID == orgID && a.userID == userID && a.role == role {
			return nil
		}
	}
	r.assignments = append(r.assignments, assignment{orgID: orgID, userID: userID, role: role})
	return nil
}

func (r *fakeOrgRepository) RemoveUser(ctx context.Context, orgID uuid.UUID, userID uint, role *string) (int64, error) {
	var kept []assignment
	var removed int64
	for _, a := range r.assignments {
		if a.orgID == orgID && a.userID == userID && (role == nil || a.role == *role) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.assignments = kept
	return removed, nil
}

func (r *fakeOrgRepository) GetUserRoles(ctx context.Context, orgID uuid.UUID, userID uint) ([]string, error) {
	var roles []string
	for _, a := range r.assignments {
		if a.orgID == orgID && a.userID == userID {
			roles = append(roles, a.role)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

func (r *fakeOrgRepository) UserBelongs(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error) {
	roles, err := r.GetUserRoles(ctx, orgID, userID)
	return len(roles) > 0, err
}

func (r *fakeOrgRepository) UserHasRole(ctx context.Context, orgID uuid.UUID, userID uint, role string) (bool, error) {
	for _, a := range r.assignments {
		if a.orgID == orgID && a.userID == userID && a.role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrgRepository) IsPrimaryManager(ctx context.Context, orgID uuid.UUID, userID uint) (bool, error) {
	entity, ok := r.orgs[orgID]
	if !ok || r.deleted[orgID] {
		return false, nil
	}
	return entity.ManagerID() != nil && *entity.ManagerID() == userID, nil
}

func (r *fakeOrgRepository) GetManagers(ctx context.Context, orgID uuid.UUID) ([]user.User, error) {
	seen := map[uint]bool{}
	var ids []uint
	if entity, ok := r.orgs[orgID]; ok && entity.ManagerID() != nil {
		ids = append(ids, *entity.ManagerID())
		seen[*entity.ManagerID()] = true
	}
	for _, a := range r.assignments {
		if a.orgID == orgID && a.role == organization.RoleManager && !seen[a.userID] {
			ids = append(ids, a.userID)
			seen[a.userID] = true
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	managers := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users.users[id]; ok {
			managers = append(managers, u)
		}
	}
	return managers, nil
}

type fakeUserRepository struct {
	users map[uint]user.User
}

func newFakeUserRepository(users ...user.User) *fakeUserRepository {
	r := &fakeUserRepository{users: map[uint]user.User{}}
	for _, u := range users {
		r.users[u.ID()] = u
	}
	return r
}

func (r *fakeUserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, corepersistence.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, corepersistence.ErrUserNotFound
}

func (r *fakeUserRepository) GetAll(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

func (r *fakeUserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	r.users[data.ID()] = data
	return data, nil
}

func sortByName(orgs []*organization.Organization) {
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name() < orgs[j].Name() })
}

type fixture struct {
	service   *services.OrganizationService
	repo      *fakeOrgRepository
	users     *fakeUserRepository
	publisher eventbus.EventBus
	actor     user.User
	ctx       context.Context
}

func setup(t *testing.T, extraUsers ...user.User) *fixture {
	t.Helper()

	actor := itf.TestUser(1, uuid.Nil)
	users := newFakeUserRepository(append([]user.User{actor}, extraUsers...)...)
	repo := newFakeOrgRepository(users)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	publisher := eventbus.NewEventPublisher(logger)

	resolver := services.NewTenantResolver(nil, nil)
	service := services.NewOrganizationService(repo, users, publisher, resolver)

	return &fixture{
		service:   service,
		repo:      repo,
		users:     users,
		publisher: publisher,
		actor:     actor,
		ctx:       itf.UserContext(actor),
	}
}

func withTenancy(t *testing.T, enabled bool) {
	t.Helper()
	cfg := configuration.Use()
	previous := cfg.Organization.TenancyEnabled
	cfg.Organization.TenancyEnabled = enabled
	t.Cleanup(func() {
		cfg.Organization.TenancyEnabled = previous
	})
}

func mustCreate(t *testing.T, f *fixture, name, code string, typ organization.Type, parentID *uuid.UUID) *organization.Organization {
	t.Helper()
	created, err := f.service.Create(f.ctx, &services.CreateOrganizationDTO{
		Name:     name,
		Code:     code,
		Type:     string(typ),
		ParentID: parentID,
	})
	require.NoError(t, err)
	return created
}

func TestOrganizationService_Create(t *testing.T) {
	f := setup(t)

	var events []organization.CreatedEvent
	f.publisher.Subscribe(func(e organization.CreatedEvent) {
		events = append(events, e)
	})

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)

	assert.Equal(t, "Acme Corp", root.Name())
	assert.True(t, root.IsRoot())
	require.NotNil(t, root.ManagerID())
	assert.Equal(t, f.actor.ID(), *root.ManagerID())

	hasRole, err := f.repo.UserHasRole(f.ctx, root.ID(), f.actor.ID(), organization.RoleManager)
	require.NoError(t, err)
	assert.True(t, hasRole, "creator should hold the manager role")

	rootID := root.ID()
	child := mustCreate(t, f, "NY Branch", "ACME-NY", organization.TypeBranch, &rootID)

	require.NotNil(t, child.Parent())
	assert.Equal(t, "Acme Corp > NY Branch", child.FullPath())
	assert.Equal(t, 1, child.Depth())

	require.Len(t, events, 2)
	assert.Equal(t, f.actor.ID(), events[0].Actor.ID())
	assert.Equal(t, root.ID(), events[0].Result.ID())
}

func TestOrganizationService_Create_UnknownType(t *testing.T) {
	f := setup(t)

	_, err := f.service.Create(f.ctx, &services.CreateOrganizationDTO{
		Name: "Acme Corp",
		Code: "ACME",
		Type: "galaxy",
	})
	require.ErrorIs(t, err, services.ErrInvalidType)
}

func TestOrganizationService_Create_MissingParent(t *testing.T) {
	f := setup(t)

	missing := uuid.New()
	_, err := f.service.Create(f.ctx, &services.CreateOrganizationDTO{
		Name:     "Orphan",
		Code:     "ORPH",
		Type:     string(organization.TypeDepartment),
		ParentID: &missing,
	})
	require.ErrorIs(t, err, services.ErrOrganizationNotFound)
}

func TestOrganizationService_Create_DuplicateCode(t *testing.T) {
	f := setup(t)

	mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)

	_, err := f.service.Create(f.ctx, &services.CreateOrganizationDTO{
		Name: "Acme Clone",
		Code: "ACME",
		Type: string(organization.TypeCompany),
	})
	require.ErrorIs(t, err, services.ErrDuplicateCode)
}

func TestOrganizationService_Create_SameCodeAcrossTenants(t *testing.T) {
	f := setup(t)
	withTenancy(t, true)

	tenantA := uuid.New()
	tenantB := uuid.New()

	first, err := f.service.Create(composables.WithTenantID(f.ctx, tenantA), &services.CreateOrganizationDTO{
		Name: "Acme Corp",
		Code: "ACME",
		Type: string(organization.TypeCompany),
	})
	require.NoError(t, err)
	require.NotNil(t, first.TenantID())
	assert.Equal(t, tenantA, *first.TenantID())

	second, err := f.service.Create(composables.WithTenantID(f.ctx, tenantB), &services.CreateOrganizationDTO{
		Name: "Acme Corp",
		Code: "ACME",
		Type: string(organization.TypeCompany),
	})
	require.NoError(t, err, "code uniqueness is per tenant partition")
	require.NotNil(t, second.TenantID())
	assert.Equal(t, tenantB, *second.TenantID())

	_, err = f.service.Create(composables.WithTenantID(f.ctx, tenantA), &services.CreateOrganizationDTO{
		Name: "Acme Clone",
		Code: "ACME",
		Type: string(organization.TypeCompany),
	})
	require.ErrorIs(t, err, services.ErrDuplicateCode)
}

func TestOrganizationService_Create_TenantRequired(t *testing.T) {
	f := setup(t)
	withTenancy(t, true)

	_, err := f.service.Create(f.ctx, &services.CreateOrganizationDTO{
		Name: "Acme Corp",
		Code: "ACME",
		Type: string(organization.TypeCompany),
	})
	require.ErrorIs(t, err, services.ErrTenantRequired)

	tenantID := uuid.New()
	ctx := composables.WithTenantID(f.ctx, tenantID)
	created, err := f.service.Create(ctx, &services.CreateOrganizationDTO{
		Name: "Acme Corp",
		Code: "ACME",
		Type: string(organization.TypeCompany),
	})
	require.NoError(t, err)
	require.NotNil(t, created.TenantID())
	assert.Equal(t, tenantID, *created.TenantID())
}

func TestOrganizationService_Update_ManagerChange(t *testing.T) {
	manager := itf.TestUser(2, uuid.Nil)
	f := setup(t, manager)

	var assignedEvents []organization.ManagerAssignedEvent
	f.publisher.Subscribe(func(e organization.ManagerAssignedEvent) {
		assignedEvents = append(assignedEvents, e)
	})

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)

	managerID := manager.ID()
	newName := "Acme Corporation"
	updated, err := f.service.Update(f.ctx, root.ID(), &services.UpdateOrganizationDTO{
		Name:      &newName,
		ManagerID: &managerID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", updated.Name())
	require.NotNil(t, updated.ManagerID())
	assert.Equal(t, managerID, *updated.ManagerID())

	require.Len(t, assignedEvents, 1)
	assert.Equal(t, "primary", assignedEvents[0].Role)
	assert.Equal(t, managerID, assignedEvents[0].User.ID())
}

func TestOrganizationService_Update_UnknownManager(t *testing.T) {
	f := setup(t)

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)

	missing := uint(99)
	_, err := f.service.Update(f.ctx, root.ID(), &services.UpdateOrganizationDTO{
		ManagerID: &missing,
	})
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestOrganizationService_Move(t *testing.T) {
	f := setup(t)

	a := mustCreate(t, f, "A", "A", organization.TypeCompany, nil)
	aID := a.ID()
	b := mustCreate(t, f, "B", "B", organization.TypeBranch, &aID)
	bID := b.ID()
	c := mustCreate(t, f, "C", "C", organization.TypeDepartment, &bID)

	t.Run("RejectsCycle", func(t *testing.T) {
		cID := c.ID()
		_, err := f.service.Move(f.ctx, a.ID(), &cID)
		require.ErrorIs(t, err, services.ErrCircularReference)

		current, err := f.repo.GetByID(f.ctx, a.ID())
		require.NoError(t, err)
		assert.Nil(t, current.ParentID(), "failed move must not change the parent")
	})

	t.Run("RejectsSelfParent", func(t *testing.T) {
		_, err := f.service.Move(f.ctx, a.ID(), &aID)
		require.ErrorIs(t, err, services.ErrCircularReference)
	})

	t.Run("ReparentsWithinTree", func(t *testing.T) {
		moved, err := f.service.Move(f.ctx, c.ID(), &aID)
		require.NoError(t, err)
		require.NotNil(t, moved.ParentID())
		assert.Equal(t, a.ID(), *moved.ParentID())
	})

	t.Run("PromotesToRoot", func(t *testing.T) {
		moved, err := f.service.Move(f.ctx, b.ID(), nil)
		require.NoError(t, err)
		assert.True(t, moved.IsRoot())
	})
}

func TestOrganizationService_Delete_ReparentsChildren(t *testing.T) {
	f := setup(t)

	var events []organization.DeletedEvent
	f.publisher.Subscribe(func(e organization.DeletedEvent) {
		events = append(events, e)
	})

	grandparent := mustCreate(t, f, "G", "G", organization.TypeCompany, nil)
	gID := grandparent.ID()
	parent := mustCreate(t, f, "P", "P", organization.TypeBranch, &gID)
	pID := parent.ID()
	c1 := mustCreate(t, f, "C1", "C1", organization.TypeDepartment, &pID)
	c2 := mustCreate(t, f, "C2", "C2", organization.TypeDepartment, &pID)

	deleted, err := f.service.Delete(f.ctx, parent.ID())
	require.NoError(t, err)
	assert.Equal(t, parent.ID(), deleted.ID())

	_, err = f.service.GetByID(f.ctx, parent.ID())
	require.ErrorIs(t, err, services.ErrOrganizationNotFound)

	for _, child := range []*organization.Organization{c1, c2} {
		current, err := f.repo.GetByID(f.ctx, child.ID())
		require.NoError(t, err)
		require.NotNil(t, current.ParentID())
		assert.Equal(t, grandparent.ID(), *current.ParentID())
	}

	require.Len(t, events, 1)
}

func TestOrganizationService_Delete_RootOrphansChildren(t *testing.T) {
	f := setup(t)

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)
	rootID := root.ID()
	child := mustCreate(t, f, "NY Branch", "ACME-NY", organization.TypeBranch, &rootID)

	_, err := f.service.Delete(f.ctx, root.ID())
	require.NoError(t, err)

	current, err := f.repo.GetByID(f.ctx, child.ID())
	require.NoError(t, err)
	assert.True(t, current.IsRoot(), "children of a deleted root become roots")
}

func TestOrganizationService_AssignUser(t *testing.T) {
	member := itf.TestUser(2, uuid.Nil)
	f := setup(t, member)

	var events []organization.ManagerAssignedEvent
	f.publisher.Subscribe(func(e organization.ManagerAssignedEvent) {
		events = append(events, e)
	})

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)

	assigned, err := f.service.AssignUser(f.ctx, root.ID(), member.ID(), "supervisor")
	require.NoError(t, err)
	assert.True(t, assigned)

	assigned, err = f.service.AssignUser(f.ctx, root.ID(), member.ID(), "supervisor")
	require.NoError(t, err)
	assert.True(t, assigned, "re-assigning an existing role still reports true")

	roles, err := f.service.GetUserRoles(f.ctx, root.ID(), member.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"supervisor"}, roles, "re-assigning must not duplicate the role row")

	assigned, err = f.service.AssignUser(f.ctx, root.ID(), member.ID(), organization.RoleManager)
	require.NoError(t, err)
	assert.True(t, assigned, "a user can hold several roles at once")

	roles, err = f.service.GetUserRoles(f.ctx, root.ID(), member.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"manager", "supervisor"}, roles)

	assigned, err = f.service.AssignUser(f.ctx, root.ID(), 99, "supervisor")
	require.NoError(t, err)
	assert.False(t, assigned, "missing user reports false without error")

	_, err = f.service.AssignUser(f.ctx, root.ID(), member.ID(), "czar")
	require.ErrorIs(t, err, services.ErrInvalidRole)

	require.Len(t, events, 3, "every successful assignment notifies, repeats included")
	assert.Equal(t, "supervisor", events[0].Role)
	assert.Equal(t, "supervisor", events[1].Role)
	assert.Equal(t, organization.RoleManager, events[2].Role)
}

func TestOrganizationService_RemoveUser(t *testing.T) {
	member := itf.TestUser(2, uuid.Nil)
	f := setup(t, member)

	var events []organization.ManagerRemovedEvent
	f.publisher.Subscribe(func(e organization.ManagerRemovedEvent) {
		events = append(events, e)
	})

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)

	for _, role := range []string{organization.RoleManager, "supervisor"} {
		_, err := f.service.AssignUser(f.ctx, root.ID(), member.ID(), role)
		require.NoError(t, err)
	}

	role := "supervisor"
	removed, err := f.service.RemoveUser(f.ctx, root.ID(), member.ID(), &role)
	require.NoError(t, err)
	assert.True(t, removed)

	roles, err := f.service.GetUserRoles(f.ctx, root.ID(), member.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"manager"}, roles)

	removed, err = f.service.RemoveUser(f.ctx, root.ID(), member.ID(), nil)
	require.NoError(t, err)
	assert.True(t, removed)

	belongs, err := f.service.UserBelongs(f.ctx, root.ID(), member.ID())
	require.NoError(t, err)
	assert.False(t, belongs)

	removed, err = f.service.RemoveUser(f.ctx, root.ID(), member.ID(), nil)
	require.NoError(t, err)
	assert.False(t, removed, "nothing left to remove")

	require.Len(t, events, 2)
	assert.Equal(t, "supervisor", events[0].Role)
	assert.Equal(t, services.RoleAll, events[1].Role)
}

func TestOrganizationService_BulkAssignUsers(t *testing.T) {
	second := itf.TestUser(2, uuid.Nil)
	third := itf.TestUser(3, uuid.Nil)
	f := setup(t, second, third)

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)

	results, err := f.service.BulkAssignUsers(f.ctx, root.ID(), map[uint]string{
		2:  "coordinator",
		3:  "supervisor",
		99: "coordinator",
	})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{2: true, 3: true, 99: false}, results)

	roles, err := f.service.GetUserRoles(f.ctx, root.ID(), second.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"coordinator"}, roles)
	roles, err = f.service.GetUserRoles(f.ctx, root.ID(), third.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"supervisor"}, roles)

	results, err = f.service.BulkAssignUsers(f.ctx, root.ID(), map[uint]string{2: "coordinator", 3: "supervisor"})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{2: true, 3: true}, results, "repeat batch stays idempotent but reports success")

	_, err = f.service.BulkAssignUsers(f.ctx, root.ID(), map[uint]string{2: "czar"})
	require.ErrorIs(t, err, services.ErrInvalidRole)
}

func TestOrganizationService_GetOrganizationPath(t *testing.T) {
	f := setup(t)

	a := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)
	aID := a.ID()
	b := mustCreate(t, f, "NY Branch", "ACME-NY", organization.TypeBranch, &aID)
	bID := b.ID()
	c := mustCreate(t, f, "IT Dept", "ACME-NY-IT", organization.TypeDepartment, &bID)

	path, err := f.service.GetOrganizationPath(f.ctx, c.ID())
	require.NoError(t, err)
	require.Len(t, path, 3)

	assert.Equal(t, "Acme Corp", path[0].Name)
	assert.Equal(t, organization.TypeCompany, path[0].Type)
	assert.Equal(t, "NY Branch", path[1].Name)
	assert.Equal(t, "IT Dept", path[2].Name)
}

func TestOrganizationService_GetTree(t *testing.T) {
	f := setup(t)

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)
	rootID := root.ID()
	mustCreate(t, f, "NY Branch", "ACME-NY", organization.TypeBranch, &rootID)
	mustCreate(t, f, "LA Branch", "ACME-LA", organization.TypeBranch, &rootID)

	tree, err := f.service.GetTree(f.ctx, nil)
	require.NoError(t, err)
	require.Len(t, tree, 1)

	children := tree[0].Children()
	require.Len(t, children, 2)
	assert.Equal(t, "LA Branch", children[0].Name())
	assert.Equal(t, "NY Branch", children[1].Name())
}

func TestOrganizationService_GetStatistics(t *testing.T) {
	f := setup(t)

	root := mustCreate(t, f, "Acme Corp", "ACME", organization.TypeCompany, nil)
	rootID := root.ID()
	mustCreate(t, f, "NY Branch", "ACME-NY", organization.TypeBranch, &rootID)

	stats, err := f.service.GetStatistics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Roots)
	assert.Equal(t, int64(1), stats.ByType[organization.TypeCompany])
	assert.Equal(t, int64(1), stats.ByType[organization.TypeBranch])
}

func TestOrganizationService_GetByID_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.service.GetByID(f.ctx, uuid.New())
	require.ErrorIs(t, err, services.ErrOrganizationNotFound)
}
