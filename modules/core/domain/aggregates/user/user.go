package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the external actor entity the organization module depends on.
// Only identity, contact and tenant attributes are modeled here;
// membership questions are answered by the organization repository.
type User interface {
	ID() uint
	TenantID() uuid.UUID
	FirstName() string
	LastName() string
	FullName() string
	Email() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uint) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, data User) (User, error)
}

type Option func(*userImpl)

func WithID(id uint) Option {
	return func(u *userImpl) {
		u.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(u *userImpl) {
		u.tenantID = tenantID
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *userImpl) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *userImpl) {
		u.updatedAt = updatedAt
	}
}

func New(firstName, lastName, email string, opts ...Option) User {
	u := &userImpl{
		firstName: firstName,
		lastName:  lastName,
		email:     email,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type userImpl struct {
	id        uint
	tenantID  uuid.UUID
	firstName string
	lastName  string
	email     string
	createdAt time.Time
	updatedAt time.Time
}

func (u *userImpl) ID() uint {
	return u.id
}

func (u *userImpl) TenantID() uuid.UUID {
	return u.tenantID
}

func (u *userImpl) FirstName() string {
	return u.firstName
}

func (u *userImpl) LastName() string {
	return u.lastName
}

func (u *userImpl) FullName() string {
	return strings.TrimSpace(u.firstName + " " + u.lastName)
}

func (u *userImpl) Email() string {
	return u.email
}

func (u *userImpl) CreatedAt() time.Time {
	return u.createdAt
}

func (u *userImpl) UpdatedAt() time.Time {
	return u.updatedAt
}
