package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/corpsledger/internal/observability/logger"
	"go.uber.org/zap"
)

// LoginRateLimit throttles /auth/login per client IP and per submitted email.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, reason, err := s.loginLimiter.Allow(ctx, c.ClientIP(), readLoginEmail(c))
		if err != nil {
			obslogger.WithContext(ctx, s.log).Warn("login rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			obslogger.WithContext(ctx, s.log).Warn("login rate limit exceeded", zap.String("reason", reason))
			s.ledgerMetrics.IncLoginRateLimited(reason)

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// readLoginEmail peeks at the JSON body and restores it for the handler.
func readLoginEmail(c *gin.Context) string {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var payload loginRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Email
}
