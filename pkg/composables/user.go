package composables

import (
	"context"
	"errors"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	"github.com/litepie/organization/pkg/constants"
)

var ErrNoUser = errors.New("no user found in context")

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(user.User)
	if !ok || u == nil {
		return nil, ErrNoUser
	}
	return u, nil
}
