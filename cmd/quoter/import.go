package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/config"
	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/internal/registry"
	"github.com/sebastianleba/mobius-interface-sub000/internal/storage"
	"github.com/sebastianleba/mobius-interface-sub000/internal/storage/postgres"
)

func runImport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadImport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}

	snapshots, stats, err := storage.ReadSnapshots(cfg.In)
	if err != nil {
		return err
	}
	valid := validSnapshots(snapshots, cfg.ChainID, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.Ping(ctx, cfg.MaxRetries, cfg.RetryBackoff); err != nil {
		return fmt.Errorf("ping postgres %s: %w", redactDSN(cfg.PGDSN), err)
	}

	logger.Info("import start",
		zap.String("in", cfg.In),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("snapshots", len(valid)),
		zap.Int("batch_size", cfg.BatchSize),
	)

	for start := 0; start < len(valid); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(valid) {
			end = len(valid)
		}
		if err := store.UpsertSnapshots(ctx, valid[start:end]); err != nil {
			return fmt.Errorf("upsert snapshots: %w", err)
		}
	}

	logger.Info("import complete",
		zap.Int("lines", stats.Total),
		zap.Int("imported", len(valid)),
		zap.Int("invalid", len(snapshots)-len(valid)),
		zap.Int("failed", stats.Failed),
	)
	return nil
}

// validSnapshots drops snapshots that would not load into a registry and
// normalises their addresses and chain id.
func validSnapshots(snapshots []model.PoolSnapshot, chainID uint64, logger *zap.Logger) []model.PoolSnapshot {
	out := make([]model.PoolSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		address, err := registry.ParseAddress(snap.Address)
		if err != nil {
			logger.Warn("snapshot skipped", zap.String("pool", snap.Address), zap.Error(err))
			continue
		}
		if _, err := registry.ToPool(snap); err != nil {
			logger.Warn("snapshot skipped", zap.String("pool", snap.Address), zap.Error(err))
			continue
		}
		snap.Address = address.Hex()
		if snap.ChainID == 0 {
			snap.ChainID = chainID
		}
		out = append(out, snap)
	}
	return out
}
