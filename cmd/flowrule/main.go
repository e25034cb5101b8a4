package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/aevon-lab/flowrule/internal/core/config"
	"github.com/aevon-lab/flowrule/internal/core/storage/postgres"
	"github.com/aevon-lab/flowrule/internal/jobs"
	"github.com/aevon-lab/flowrule/internal/lookup"
	"github.com/aevon-lab/flowrule/internal/migrations"
	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/aevon-lab/flowrule/internal/schema/formats/protobuf"
	"github.com/aevon-lab/flowrule/internal/schema/formats/yaml"
	"github.com/aevon-lab/flowrule/internal/server"
)

func main() {
	configPath := flag.String("config", "flowrule.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(configPath string) error {
	// 1. Load Configuration
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded config",
		"address", fmtAddr(cfg.Server.Host, cfg.Server.Port),
		"mode", cfg.Server.Mode,
		"auto_migrate", cfg.Database.AutoMigrate,
		"lookups", len(cfg.Lookups))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Storage (PostgreSQL) and run migrations before the adapter
	// checks for the jobs table.
	db, err := postgres.OpenDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := migrations.Run(db, cfg.Database.AutoMigrate); err != nil {
		db.Close()
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	store, err := postgres.NewAdapter(db)
	if err != nil {
		db.Close()
		return err
	}
	defer store.Close()

	// 3. Input schema formats
	formats := schema.NewFormatRegistry()
	formats.RegisterFormat(schema.FormatProtobuf, protobuf.NewCompiler())
	formats.RegisterFormat(schema.FormatYaml, yaml.NewCompiler())

	// 4. Lookup tables
	pool, err := lookup.Open(ctx, cfg.Lookups, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			slog.Warn("Failed to close lookups", "error", err)
		}
	}()

	// 5. Job service
	jobSvc := jobs.NewService(formats, pool.Resources(), store, jobs.Options{
		ListLimit:     cfg.Jobs.ListLimit,
		CacheSize:     cfg.Jobs.CacheSize,
		MaxBodySizeMB: cfg.Server.MaxBodySizeMB,
	})

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store.DB(), cfg.Server.Mode, pool.Kinds())
	jobSvc.RegisterRoutes(srv.Engine)

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}
	return nil
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
