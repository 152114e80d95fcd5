package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/internal/registry"
	"github.com/sebastianleba/mobius-interface-sub000/internal/storage"
	"github.com/sebastianleba/mobius-interface-sub000/internal/storage/postgres"
)

type snapshotSource struct {
	path         string
	dsn          string
	chainID      uint64
	maxRetries   int
	retryBackoff time.Duration
}

func (s snapshotSource) load(ctx context.Context, logger *zap.Logger) ([]model.PoolSnapshot, error) {
	switch {
	case s.path != "":
		snapshots, stats, err := storage.ReadSnapshots(s.path)
		if err != nil {
			return nil, err
		}
		logger.Debug("snapshots read",
			zap.String("path", s.path),
			zap.Int("lines", stats.Total),
			zap.Int("failed", stats.Failed),
		)
		if stats.Failed > 0 {
			logger.Warn("undecodable snapshot lines skipped", zap.Int("failed", stats.Failed))
		}
		return snapshots, nil
	case s.dsn != "":
		store, err := postgres.NewStore(ctx, s.dsn, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.Ping(ctx, s.maxRetries, s.retryBackoff); err != nil {
			return nil, fmt.Errorf("ping postgres %s: %w", redactDSN(s.dsn), err)
		}
		return store.LoadSnapshots(ctx, s.chainID)
	default:
		return nil, fmt.Errorf("snapshots path or pg dsn is required")
	}
}

// loadRegistry fills a fresh registry from the source.
func (s snapshotSource) loadRegistry(ctx context.Context, logger *zap.Logger) (*registry.Registry, error) {
	snapshots, err := s.load(ctx, logger)
	if err != nil {
		return nil, err
	}
	reg := registry.New(logger)
	applied := reg.UpdateAll(snapshots)
	logger.Info("pools loaded", zap.Int("snapshots", len(snapshots)), zap.Int("pools", applied))
	return reg, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
