// Package main provides exactl, the EXA sheet and dice console.
//
// With arguments it runs one command and exits:
//
//	exactl -config configs/dev.yaml roll <id> base=2 spend=1
//
// Without arguments it reads commands from stdin, one per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/exa/internal/config"
	"github.com/cory-johannsen/exa/internal/console"
	"github.com/cory-johannsen/exa/internal/game/derive"
	"github.com/cory-johannsen/exa/internal/game/dice"
	"github.com/cory-johannsen/exa/internal/game/modifier"
	"github.com/cory-johannsen/exa/internal/game/roll"
	"github.com/cory-johannsen/exa/internal/game/ruleset"
	"github.com/cory-johannsen/exa/internal/observability"
	"github.com/cory-johannsen/exa/internal/sheet"
	"github.com/cory-johannsen/exa/internal/storage"
	"github.com/cory-johannsen/exa/internal/storage/memory"
	"github.com/cory-johannsen/exa/internal/storage/postgres"
	"github.com/cory-johannsen/exa/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults and EXA_ environment only when empty)")
	seed := flag.Uint64("seed", 0, "seed for reproducible rolls (overrides roll.seed)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Roll.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	con, closeFn, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("starting console", zap.Error(err))
	}
	defer closeFn()

	if args := flag.Args(); len(args) > 0 {
		if _, err := con.ExecArgs(ctx, args, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := con.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logger.Error("console stopped", zap.Error(err))
		os.Exit(1)
	}
}

// build wires the rules, storage, roller and outcome sink named by cfg.
// The returned func closes any database the store opened.
func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*console.Console, func(), error) {
	tables := ruleset.Default()
	if cfg.Rules.TablesFile != "" {
		t, err := ruleset.Load(cfg.Rules.TablesFile)
		if err != nil {
			return nil, nil, err
		}
		tables = t
	}
	aliases := modifier.DefaultTable()
	if cfg.Rules.AliasesFile != "" {
		a, err := modifier.LoadTable(cfg.Rules.AliasesFile)
		if err != nil {
			return nil, nil, err
		}
		aliases = a
	}

	var (
		store   storage.Store = memory.NewStore()
		history console.History
		rollLog roll.Sink
		closeFn = func() {}
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite opened", zap.String("path", cfg.Storage.Path))
		repo := sqlite.NewRollLogRepository(db)
		store, rollLog, history = sqlite.NewEntityRepository(db), repo, repo
		closeFn = func() { _ = db.Close() }
	case config.DriverPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		repo := postgres.NewRollLogRepository(pool.DB())
		store, rollLog, history = postgres.NewEntityRepository(pool.DB()), repo, repo
		closeFn = pool.Close
	}

	var sink roll.Sink
	switch cfg.Roll.Publish {
	case config.PublishLog:
		sink = roll.NewLogSink(logger)
	case config.PublishStore:
		sink = rollLog
	default:
		sink = roll.NopSink{}
	}

	src := dice.NewCryptoSource()
	if cfg.Roll.Seed != 0 {
		src = dice.NewSeededSource(cfg.Roll.Seed)
	}

	svc := sheet.NewService(store, derive.NewEngine(tables, aliases), logger)
	roller := roll.NewRoller(svc, dice.NewLoggedRoller(src, logger), sink, logger)
	return console.New(svc, roller, history, aliases, logger), closeFn, nil
}
