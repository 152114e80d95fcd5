package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sebastianleba/mobius-interface-sub000/internal/config"
	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/internal/quote"
	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Pool == "" {
		return fmt.Errorf("pool address is required")
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

	svc := quote.NewService(reg, stableswap.NewEngine(stableswap.WithLogger(logger)), logger, nil)
	outcome := svc.Quote(ctx, model.QuoteRequest{
		Pool:    cfg.Pool,
		Kind:    cfg.Kind,
		From:    cfg.From,
		To:      cfg.To,
		Index:   cfg.Index,
		Amount:  cfg.Amount,
		Amounts: cfg.Amounts,
		Raw:     cfg.Raw,
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if outcome.Status != quote.StatusOK {
		return fmt.Errorf("no quote: %s", outcome.Status)
	}
	return nil
}
