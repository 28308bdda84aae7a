package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/corpsledger/internal/auth/domain"
	"github.com/smallbiznis/corpsledger/internal/auth/password"
	"github.com/smallbiznis/corpsledger/internal/auth/token"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Config  config.Config
	Members memberdomain.Service
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	cfg     config.AuthConfig
	members memberdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("auth.service"),
		clock:   p.Clock,
		cfg:     p.Config.Auth,
		members: p.Members,
	}
}

// Login signs in an admin by password or a member by email alone.
// Unknown members fail with the member package's not-found error.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	if s.cfg.JWTSecret == "" {
		return nil, domain.ErrAuthDisabled
	}
	email := memberdomain.NormalizeEmail(req.Email)
	if email == "" {
		return nil, domain.ErrInvalidCredentials
	}

	principal := domain.Principal{Email: email, Role: domain.RoleMember}
	if s.cfg.IsAdmin(email) {
		if s.cfg.AdminPasswordHash == "" || !password.Verify(req.Password, s.cfg.AdminPasswordHash) {
			s.log.Warn("auth.login.rejected", zap.String("email", email), zap.String("role", string(domain.RoleAdmin)))
			return nil, domain.ErrInvalidCredentials
		}
		principal.Role = domain.RoleAdmin
	} else if _, err := s.members.LoadMember(ctx, email); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	raw, err := token.Issue(principal, now, expiresAt, []byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	s.log.Info("auth.login", zap.String("email", email), zap.String("role", string(principal.Role)))
	return &domain.LoginResult{Token: raw, ExpiresAt: expiresAt, Principal: principal}, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	if s.cfg.JWTSecret == "" {
		return nil, domain.ErrAuthDisabled
	}
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, domain.ErrInvalidToken
	}
	return token.Parse(rawToken, s.clock.Now(), []byte(s.cfg.JWTSecret))
}
