package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/config"
	"github.com/sebastianleba/mobius-interface-sub000/internal/quote"
	"github.com/sebastianleba/mobius-interface-sub000/internal/registry"
	"github.com/sebastianleba/mobius-interface-sub000/internal/server"
	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := snapshotSource{
		path:         cfg.Snapshots,
		dsn:          cfg.PGDSN,
		chainID:      cfg.ChainID,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
	reg, err := source.loadRegistry(ctx, logger)
	if err != nil {
		return err
	}

	metrics := server.NewMetrics()
	metrics.SetPools(reg.Len())
	engine := stableswap.NewEngine(
		stableswap.WithLogger(logger),
		stableswap.WithNonConvergenceHook(metrics.ObserveNonConvergence),
	)
	svc := quote.NewService(reg, engine, logger, metrics)
	srv := server.New(reg, svc, metrics, logger)

	if cfg.ReloadInterval > 0 {
		go reloadLoop(ctx, source, reg, metrics, cfg.ReloadInterval, logger)
	}

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("snapshots", cfg.Snapshots),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Duration("reload_interval", cfg.ReloadInterval),
	)

	return srv.Run(ctx, cfg.Listen, cfg.ShutdownTimeout)
}

// reloadLoop refreshes the registry in place. Snapshots older than the ones
// held are skipped by the registry.
func reloadLoop(ctx context.Context, source snapshotSource, reg *registry.Registry, metrics *server.Metrics, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snapshots, err := source.load(ctx, logger)
		if err != nil {
			logger.Warn("snapshot reload failed", zap.Error(err))
			continue
		}
		applied := reg.UpdateAll(snapshots)
		metrics.SetPools(reg.Len())
		logger.Debug("snapshots reloaded", zap.Int("snapshots", len(snapshots)), zap.Int("applied", applied))
	}
}
