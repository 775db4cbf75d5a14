package organization

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PathSeparator joins ancestor names in FullPath.
const PathSeparator = " > "

// maxHierarchyDepth bounds upward walks so pre-existing corrupt data
// (a cycle already persisted) cannot hang a traversal.
const maxHierarchyDepth = 64

// Organization is one node of the self referential hierarchy tree.
// Structural queries (ancestors, depth, path) are evaluated against the
// loaded parent chain; a missing parent terminates the chain instead of
// failing.
type Organization struct {
	id          uuid.UUID
	tenantID    *uuid.UUID
	parentID    *uuid.UUID
	typ         Type
	name        string
	code        string
	description *string
	status      Status
	managerID   *uint
	metadata    map[string]any
	createdBy   uint
	updatedBy   *uint
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time

	parent   *Organization
	children []*Organization
}

type Option func(*Organization)

func WithID(id uuid.UUID) Option {
	return func(o *Organization) {
		o.id = id
	}
}

func WithTenantID(tenantID *uuid.UUID) Option {
	return func(o *Organization) {
		o.tenantID = tenantID
	}
}

func WithParentID(parentID *uuid.UUID) Option {
	return func(o *Organization) {
		o.parentID = parentID
	}
}

func WithDescription(description *string) Option {
	return func(o *Organization) {
		o.description = description
	}
}

func WithStatus(status Status) Option {
	return func(o *Organization) {
		o.status = status
	}
}

func WithManagerID(managerID *uint) Option {
	return func(o *Organization) {
		o.managerID = managerID
	}
}

func WithMetadata(metadata map[string]any) Option {
	return func(o *Organization) {
		o.metadata = metadata
	}
}

func WithCreatedBy(createdBy uint) Option {
	return func(o *Organization) {
		o.createdBy = createdBy
	}
}

func WithUpdatedBy(updatedBy *uint) Option {
	return func(o *Organization) {
		o.updatedBy = updatedBy
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(o *Organization) {
		o.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(o *Organization) {
		o.updatedAt = updatedAt
	}
}

func WithDeletedAt(deletedAt *time.Time) Option {
	return func(o *Organization) {
		o.deletedAt = deletedAt
	}
}

func WithParent(parent *Organization) Option {
	return func(o *Organization) {
		o.parent = parent
	}
}

func WithChildren(children []*Organization) Option {
	return func(o *Organization) {
		o.children = children
	}
}

func New(name, code string, typ Type, opts ...Option) *Organization {
	o := &Organization{
		id:        uuid.New(),
		name:      name,
		code:      code,
		typ:       typ,
		status:    StatusActive,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Organization) ID() uuid.UUID {
	return o.id
}

func (o *Organization) TenantID() *uuid.UUID {
	return o.tenantID
}

func (o *Organization) ParentID() *uuid.UUID {
	return o.parentID
}

func (o *Organization) Type() Type {
	return o.typ
}

func (o *Organization) Name() string {
	return o.name
}

func (o *Organization) Code() string {
	return o.code
}

func (o *Organization) Description() *string {
	return o.description
}

func (o *Organization) Status() Status {
	return o.status
}

func (o *Organization) ManagerID() *uint {
	return o.managerID
}

func (o *Organization) Metadata() map[string]any {
	return o.metadata
}

func (o *Organization) CreatedBy() uint {
	return o.createdBy
}

func (o *Organization) UpdatedBy() *uint {
	return o.updatedBy
}

func (o *Organization) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Organization) UpdatedAt() time.Time {
	return o.updatedAt
}

func (o *Organization) DeletedAt() *time.Time {
	return o.deletedAt
}

func (o *Organization) Parent() *Organization {
	return o.parent
}

func (o *Organization) Children() []*Organization {
	return o.children
}

func (o *Organization) SetName(name string) {
	o.name = name
	o.updatedAt = time.Now()
}

func (o *Organization) SetCode(code string) {
	o.code = code
	o.updatedAt = time.Now()
}

func (o *Organization) SetType(typ Type) {
	o.typ = typ
	o.updatedAt = time.Now()
}

func (o *Organization) SetDescription(description *string) {
	o.description = description
	o.updatedAt = time.Now()
}

func (o *Organization) SetStatus(status Status) {
	o.status = status
	o.updatedAt = time.Now()
}

func (o *Organization) SetManagerID(managerID *uint) {
	o.managerID = managerID
	o.updatedAt = time.Now()
}

func (o *Organization) SetMetadata(metadata map[string]any) {
	o.metadata = metadata
	o.updatedAt = time.Now()
}

func (o *Organization) SetParentID(parentID *uuid.UUID) {
	o.parentID = parentID
	o.parent = nil
	o.updatedAt = time.Now()
}

func (o *Organization) SetUpdatedBy(updatedBy uint) {
	o.updatedBy = &updatedBy
	o.updatedAt = time.Now()
}

func (o *Organization) SetParent(parent *Organization) {
	o.parent = parent
	if parent != nil {
		id := parent.id
		o.parentID = &id
	}
}

func (o *Organization) SetChildren(children []*Organization) {
	o.children = children
}

func (o *Organization) IsRoot() bool {
	return o.parentID == nil
}

func (o *Organization) IsLeaf() bool {
	return len(o.children) == 0
}

func (o *Organization) IsChildOf(other *Organization) bool {
	if other == nil || o.parentID == nil {
		return false
	}
	return *o.parentID == other.id
}

func (o *Organization) IsParentOf(other *Organization) bool {
	if other == nil {
		return false
	}
	return other.IsChildOf(o)
}

// IsAncestorOf walks other's parent chain upward until it finds o,
// reaches a root, or hits the depth guard.
func (o *Organization) IsAncestorOf(other *Organization) bool {
	if other == nil || other.id == o.id {
		return false
	}
	current := other.parent
	for depth := 0; current != nil && depth < maxHierarchyDepth; depth++ {
		if current.id == o.id {
			return true
		}
		current = current.parent
	}
	return false
}

func (o *Organization) IsDescendantOf(other *Organization) bool {
	if other == nil {
		return false
	}
	return other.IsAncestorOf(o)
}

// Ancestors returns the loaded ancestor chain ordered nearest first.
// Empty for a root or a detached node.
func (o *Organization) Ancestors() []*Organization {
	var ancestors []*Organization
	current := o.parent
	for depth := 0; current != nil && depth < maxHierarchyDepth; depth++ {
		ancestors = append(ancestors, current)
		current = current.parent
	}
	return ancestors
}

func (o *Organization) Depth() int {
	return len(o.Ancestors())
}

// FullPath joins names from the root down to this node.
func (o *Organization) FullPath() string {
	ancestors := o.Ancestors()
	names := make([]string, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		names = append(names, ancestors[i].name)
	}
	names = append(names, o.name)
	return strings.Join(names, PathSeparator)
}

// Root walks the loaded parent chain to the terminal node. A node whose
// parent is not loaded is its own chain end.
func (o *Organization) Root() *Organization {
	root := o
	for depth := 0; root.parent != nil && depth < maxHierarchyDepth; depth++ {
		root = root.parent
	}
	return root
}
