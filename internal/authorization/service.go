package authorization

import (
	"context"
	"errors"

	authdomain "github.com/smallbiznis/corpsledger/internal/auth/domain"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service decides whether a principal may call a route.
type Service interface {
	Authorize(ctx context.Context, principal authdomain.Principal, path string, method string) error
}
