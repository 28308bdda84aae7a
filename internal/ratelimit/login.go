package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/corpsledger/internal/config"
)

const (
	keyLoginIP    = "corpsledger:login:ip:%s"
	keyLoginEmail = "corpsledger:login:email:%s"

	ReasonIP    = "ip"
	ReasonEmail = "email"
)

// LoginLimiter throttles login attempts per client IP and per account.
type LoginLimiter struct {
	bucket Bucket
	rate   float64
	burst  int
}

func NewLoginLimiter(bucket Bucket, cfg config.RateLimitConfig) *LoginLimiter {
	if bucket == nil || !cfg.Enabled() {
		return nil
	}
	return &LoginLimiter{
		bucket: bucket,
		rate:   cfg.LoginPerMinute / 60,
		burst:  cfg.LoginBurst,
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow checks the IP bucket first, then the email bucket. reason names
// the bucket that rejected the attempt.
func (l *LoginLimiter) Allow(ctx context.Context, ip, email string) (res *Result, reason string, err error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, "", nil
	}

	res, err = l.bucket.Allow(ctx, fmt.Sprintf(keyLoginIP, strings.TrimSpace(ip)), l.rate, l.burst)
	if err != nil || !res.Allowed {
		return res, ReasonIP, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return res, "", nil
	}
	res, err = l.bucket.Allow(ctx, fmt.Sprintf(keyLoginEmail, email), l.rate, l.burst)
	if err != nil || !res.Allowed {
		return res, ReasonEmail, err
	}
	return res, "", nil
}
