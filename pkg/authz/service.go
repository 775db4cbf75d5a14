package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/sirupsen/logrus"

	"github.com/litepie/organization/pkg/serrors"
)

var ErrForbidden = serrors.NewError("AUTHZ_FORBIDDEN", "permission denied", "Authorization.PermissionDenied")

// Config captures all inputs necessary to initialize the enforcer.
type Config struct {
	ModelPath  string
	PolicyPath string
	Logger     *logrus.Logger
}

func (c Config) validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("authz: missing model path")
	}
	if c.PolicyPath == "" {
		return fmt.Errorf("authz: missing policy path")
	}
	return nil
}

// Service wraps a casbin enforcer behind the Checker interface.
type Service struct {
	enforcer *casbin.Enforcer
	logger   *logrus.Entry
	mu       sync.RWMutex
}

// Checker is the decision surface policies depend on. Implementations
// must be side effect free and safe to call repeatedly.
type Checker interface {
	Check(ctx context.Context, req Request) (bool, error)
}

func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var logger *logrus.Entry
	if cfg.Logger != nil {
		logger = cfg.Logger.WithField("component", "authz")
	} else {
		logger = logrus.WithField("component", "authz")
	}

	enf, err := casbin.NewEnforcer(cfg.ModelPath, fileadapter.NewAdapter(cfg.PolicyPath))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if err := enf.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: failed to load policies: %w", err)
	}

	return &Service{enforcer: enf, logger: logger}, nil
}

// Check evaluates a request without returning an authorization error.
func (s *Service) Check(ctx context.Context, req Request) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.enforcer.Enforce(req.Subject, req.Domain, req.Object, req.Action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return res, nil
}

// Authorize returns ErrForbidden when the request is denied.
func (s *Service) Authorize(ctx context.Context, req Request) error {
	allowed, err := s.Check(ctx, req)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"subject": req.Subject,
			"domain":  req.Domain,
			"object":  req.Object,
			"action":  req.Action,
		}).Warn("authz denied request")
		return ErrForbidden
	}
	return nil
}

// ReloadPolicy reloads policy data from disk.
func (s *Service) ReloadPolicy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("authz: reload policy failed: %w", err)
	}
	return nil
}
