package authorization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	authdomain "github.com/smallbiznis/corpsledger/internal/auth/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) Service {
	t.Helper()
	dsn := fmt.Sprintf("file:authz_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	admin := authdomain.Principal{Email: "kasse@corps.de", Role: authdomain.RoleAdmin}

	assert.NoError(t, svc.Authorize(ctx, admin, "/api/admin/members", "GET"))
	assert.NoError(t, svc.Authorize(ctx, admin, "/api/admin/reconcile/run", "post"))
	assert.NoError(t, svc.Authorize(ctx, admin, "/api/admin/transactions/42", "DELETE"))
}

func TestAuthorizeMember(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	member := authdomain.Principal{Email: "fox@corps.de", Role: authdomain.RoleMember}

	assert.NoError(t, svc.Authorize(ctx, member, "/api/me", "GET"))
	assert.NoError(t, svc.Authorize(ctx, member, "/api/me/transactions", "GET"))
	assert.NoError(t, svc.Authorize(ctx, member, "/api/me/reimbursements", "POST"))
	assert.ErrorIs(t, svc.Authorize(ctx, member, "/api/me/transactions", "DELETE"), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, member, "/api/admin/members", "GET"), ErrForbidden)
}

func TestAuthorizeRoleChangeReplacesLink(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, authdomain.Principal{Email: "x@corps.de", Role: authdomain.RoleAdmin}, "/api/admin/members", "GET"))
	err := svc.Authorize(ctx, authdomain.Principal{Email: "x@corps.de", Role: authdomain.RoleMember}, "/api/admin/members", "GET")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeRejectsBadInput(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, authdomain.Principal{Role: authdomain.RoleAdmin}, "/api/admin/x", "GET"), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, authdomain.Principal{Email: "a@b.de", Role: "root"}, "/api/admin/x", "GET"), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, authdomain.Principal{Email: "a@b.de", Role: authdomain.RoleAdmin}, "", "GET"), ErrInvalidObject)
}
