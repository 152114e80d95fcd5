package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/config"
	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/internal/quote"
	"github.com/sebastianleba/mobius-interface-sub000/internal/storage"
	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

func runBatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBatch(cfgFile, cmd.Flags())
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

	appendMode, _ := cmd.Flags().GetBool("append")
	if !appendMode {
		if err := os.Remove(cfg.Out); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reset output: %w", err)
		}
	}

	input, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	logger.Info("batch start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("snapshots", cfg.Snapshots),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("pools", reg.Len()),
	)

	svc := quote.NewService(reg, stableswap.NewEngine(stableswap.WithLogger(logger)), logger, nil)
	var sink storage.Storage = storage.NewJsonlStorage(cfg.Out)
	summary := quote.NewSummary()
	pending := make([]model.QuoteRecord, 0, cfg.BatchSize)

	var writeErr error
	flush := func() {
		if writeErr != nil || len(pending) == 0 {
			return
		}
		writeErr = sink.PutQuoteBatch(pending)
		pending = pending[:0]
	}

	stats, err := storage.ScanJSONL(input, func(lineNo int, line []byte) error {
		if writeErr != nil {
			return writeErr
		}
		var req model.QuoteRequest
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Warn("invalid request line", zap.Int("line", lineNo), zap.Error(err))
			return err
		}

		outcome := svc.Quote(ctx, req)
		if err := summary.Add(req, outcome); err != nil {
			logger.Warn("summary skipped quote", zap.Int("line", lineNo), zap.Error(err))
		}
		pending = append(pending, model.QuoteRecord{
			Line:     lineNo,
			Request:  req,
			Outcome:  outcome,
			QuotedAt: time.Now().UTC().Format(time.RFC3339),
		})
		if len(pending) >= cfg.BatchSize {
			flush()
		}
		return nil
	})
	flush()
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	for _, pair := range summary.Pairs() {
		logger.Info("pair summary",
			zap.String("pool", pair.Pool),
			zap.String("kind", pair.Kind),
			zap.Int("from", pair.From),
			zap.Int("to", pair.To),
			zap.Uint64("quotes", pair.Quotes),
			zap.String("amount_in", pair.AmountIn.String()),
			zap.String("amount_out", pair.AmountOut.String()),
			zap.String("fee", pair.Fee.String()),
		)
	}

	logger.Info("batch complete",
		zap.Int("total", stats.Total),
		zap.Int("ok", summary.ByStatus[quote.StatusOK]),
		zap.Int("no_result", summary.NoResult()),
		zap.Int("failed", stats.Failed),
	)

	return ctx.Err()
}
