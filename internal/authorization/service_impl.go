package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	authdomain "github.com/smallbiznis/corpsledger/internal/auth/domain"
	"github.com/smallbiznis/corpsledger/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	readMethods  = "^(GET|HEAD)$"
	writeMethods = "^(GET|HEAD|POST|PUT|PATCH|DELETE)$"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, principal authdomain.Principal, path string, method string) error {
	actor := strings.TrimSpace(principal.Email)
	if actor == "" {
		return ErrInvalidActor
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrInvalidObject
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return ErrInvalidAction
	}

	roleName, err := roleFor(principal.Role)
	if err != nil {
		return err
	}
	if err := s.ensureGrouping(actor, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(actor, path, method)
	if err != nil {
		return err
	}
	if !allowed {
		logger.WithContext(ctx, s.log).Warn("authorization.denied",
			zap.String("actor", actor),
			zap.String("role", roleName),
			zap.String("path", path),
			zap.String("method", method),
		)
		return ErrForbidden
	}
	return nil
}

func roleFor(role authdomain.Role) (string, error) {
	switch role {
	case authdomain.RoleAdmin, authdomain.RoleMember:
		return fmt.Sprintf("role:%s", role), nil
	default:
		return "", ErrInvalidActor
	}
}

// ensureGrouping keeps exactly one role link per actor.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		_, _ = s.enforcer.RemoveGroupingPolicy(params...)
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Admin
		{"role:admin", "/api/admin/*", writeMethods},
		{"role:admin", "/api/me/*", readMethods},

		// Member
		{"role:member", "/api/me", readMethods},
		{"role:member", "/api/me/*", readMethods},
		{"role:member", "/api/me/reimbursements", "^POST$"},
		{"role:member", "/api/me/bank-details", "^PUT$"},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy[0], policy[1], policy[2])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}
	return nil
}
