package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/audit"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/events"
	"github.com/smallbiznis/corpsledger/internal/lock"
	"github.com/smallbiznis/corpsledger/internal/member"
	"github.com/smallbiznis/corpsledger/internal/metricspush"
	"github.com/smallbiznis/corpsledger/internal/migration"
	"github.com/smallbiznis/corpsledger/internal/observability"
	"github.com/smallbiznis/corpsledger/internal/reconcile"
	"github.com/smallbiznis/corpsledger/internal/scheduler"
	"github.com/smallbiznis/corpsledger/internal/transaction"
	"github.com/smallbiznis/corpsledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,
		events.Module,

		// Domain services required by scheduler
		audit.Module,
		member.Module,
		transaction.Module,
		reconcile.Module,

		// No server module, and the loop always runs.
		fx.Decorate(func(cfg config.Config) config.Config {
			cfg.Sched.Enabled = true
			if cfg.MetricsPush.Job == "" {
				cfg.MetricsPush.Job = cfg.AppName + "-scheduler"
			}
			return cfg
		}),
		metricspush.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	// Distinct from the API node so both can write concurrently.
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
