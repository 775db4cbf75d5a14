package composables

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/litepie/organization/pkg/configuration"
	"github.com/litepie/organization/pkg/constants"
)

type Params struct {
	IP            string
	UserAgent     string
	Authenticated bool
	Request       *http.Request
	Writer        http.ResponseWriter
}

// UseParams returns the request parameters from the context.
// If the parameters are not found, the second return value will be false.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

// WithParams returns a new context with the request parameters.
func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

// UseAuthenticated returns whether the current unit of work has an
// authenticated actor behind it.
func UseAuthenticated(ctx context.Context) bool {
	if _, err := UseUser(ctx); err == nil {
		return true
	}
	params, ok := UseParams(ctx)
	if !ok {
		return false
	}
	return params.Authenticated
}

// UseLogger returns the request scoped logger, falling back to the
// configured process logger when none was bound.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok && logger != nil {
		return logger
	}
	return logrus.NewEntry(configuration.Use().Logger())
}

// WithLogger returns a new context carrying a request scoped logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}
