package metricspush

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
)

// Flush pushes the default registry and only logs failures; a missing
// metrics backend never fails a ledger job.
func Flush(ctx context.Context, p Pusher, log *zap.Logger) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()

	if err := p.Push(ctx, prometheus.DefaultGatherer); err != nil {
		log.Warn("metrics push failed", zap.Error(err))
	}
}
