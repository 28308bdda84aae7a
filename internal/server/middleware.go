package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/corpsledger/internal/auth/domain"
	obscontext "github.com/smallbiznis/corpsledger/internal/observability/context"
)

const contextPrincipalKey = "principal"

// AuthRequired accepts a "Bearer <jwt>" Authorization header.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.authsvc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPrincipalKey, *principal)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), string(principal.Role), principal.Email))
		c.Next()
	}
}

// AuthorizeRoute checks the request path and method against the role policies.
func (s *Server) AuthorizeRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), principal, c.Request.URL.Path, c.Request.Method); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func principalFromContext(c *gin.Context) (authdomain.Principal, bool) {
	v, ok := c.Get(contextPrincipalKey)
	if !ok {
		return authdomain.Principal{}, false
	}
	p, ok := v.(authdomain.Principal)
	return p, ok
}

// actor is the email recorded in audit rows for the calling principal.
func actor(c *gin.Context) string {
	p, _ := principalFromContext(c)
	return p.Email
}
