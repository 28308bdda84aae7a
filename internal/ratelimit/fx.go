package ratelimit

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewBucket),
	fx.Provide(ProvideLoginLimiter),
)

// NewBucket shares buckets through Redis when REDIS_ADDR is set.
func NewBucket(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, log *zap.Logger) Bucket {
	if !cfg.Redis.Enabled() {
		log.Info("rate limit backend", zap.String("backend", "memory"))
		return NewMemoryBucket(clk)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Redis.Addr),
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Info("rate limit backend", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.Addr))
	return NewTokenBucket(client)
}

func ProvideLoginLimiter(cfg config.Config, bucket Bucket) *LoginLimiter {
	return NewLoginLimiter(bucket, cfg.Limit)
}
