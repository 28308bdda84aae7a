package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/audit"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/lock"
	"github.com/smallbiznis/corpsledger/internal/member"
	"github.com/smallbiznis/corpsledger/internal/metricspush"
	"github.com/smallbiznis/corpsledger/internal/migration"
	"github.com/smallbiznis/corpsledger/internal/observability"
	"github.com/smallbiznis/corpsledger/pkg/db"
	"github.com/smallbiznis/corpsledger/pkg/filestore"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// importer moves the ledger between the database and the JSON member file.
//
//	importer --import data/members.json
//	importer --export backup.json
func main() {
	importPath := pflag.String("import", "", "JSON member file to load into the database")
	exportPath := pflag.String("export", "", "write all members to this JSON file")
	timeout := pflag.Duration("timeout", 5*time.Minute, "abort after this long")
	pflag.Parse()

	if (*importPath == "") == (*exportPath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --import or --export is required")
		pflag.Usage()
		os.Exit(2)
	}

	var (
		store  *filestore.Store
		log    *zap.Logger
		pusher metricspush.Pusher
	)
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,
		audit.Module,
		member.Module,
		filestore.Module,
		fx.Decorate(func(cfg config.Config) config.Config {
			if cfg.MetricsPush.Job == "" {
				cfg.MetricsPush.Job = cfg.AppName + "-importer"
			}
			return cfg
		}),
		metricspush.Module,
		fx.Populate(&store, &log, &pusher),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	err := run(ctx, store, log, *importPath, *exportPath)
	metricspush.Flush(context.Background(), pusher, log)
	if err != nil {
		log.Error("importer failed", zap.Error(err))
		_ = app.Stop(context.Background())
		os.Exit(1)
	}
}

func run(ctx context.Context, store *filestore.Store, log *zap.Logger, importPath, exportPath string) error {
	if exportPath != "" {
		if err := store.ExportFile(ctx, exportPath); err != nil {
			return err
		}
		log.Info("ledger exported", zap.String("path", exportPath))
		return nil
	}

	result, err := store.ImportFile(ctx, importPath)
	if err != nil {
		return err
	}
	log.Info("ledger imported",
		zap.String("path", importPath),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)
	return result.Err()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}
