package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/audit"
	"github.com/smallbiznis/corpsledger/internal/auth"
	"github.com/smallbiznis/corpsledger/internal/authorization"
	"github.com/smallbiznis/corpsledger/internal/beverage"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/events"
	"github.com/smallbiznis/corpsledger/internal/lock"
	"github.com/smallbiznis/corpsledger/internal/member"
	"github.com/smallbiznis/corpsledger/internal/migration"
	"github.com/smallbiznis/corpsledger/internal/observability"
	"github.com/smallbiznis/corpsledger/internal/providers"
	"github.com/smallbiznis/corpsledger/internal/ratelimit"
	"github.com/smallbiznis/corpsledger/internal/reconcile"
	"github.com/smallbiznis/corpsledger/internal/reimbursement"
	"github.com/smallbiznis/corpsledger/internal/report"
	"github.com/smallbiznis/corpsledger/internal/scheduler"
	"github.com/smallbiznis/corpsledger/internal/server"
	"github.com/smallbiznis/corpsledger/internal/statistics"
	"github.com/smallbiznis/corpsledger/internal/transaction"
	"github.com/smallbiznis/corpsledger/pkg/db"
	"github.com/smallbiznis/corpsledger/pkg/filestore"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,
		events.Module,
		providers.Module,
		ratelimit.Module,

		// Ledger
		audit.Module,
		member.Module,
		transaction.Module,
		reconcile.Module,
		statistics.Module,
		report.Module,
		reimbursement.Module,
		beverage.Module,
		filestore.Module,

		// Access
		auth.Module,
		authorization.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
