package organization

import (
	"github.com/litepie/organization/modules/core/domain/aggregates/user"
)

type CreatedEvent struct {
	Actor  user.User
	Result *Organization
}

type UpdatedEvent struct {
	Actor  user.User
	Result *Organization
}

type DeletedEvent struct {
	Actor  user.User
	Result *Organization
}

// ManagerAssignedEvent fires when a user gains a role in an
// organization, including primary manager assignment via update.
type ManagerAssignedEvent struct {
	Organization *Organization
	User         user.User
	Role         string
}

// ManagerRemovedEvent fires when a user loses one or all roles in an
// organization. Role is "all" when every role row was removed.
type ManagerRemovedEvent struct {
	Organization *Organization
	User         user.User
	Role         string
}
