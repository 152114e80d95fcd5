package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "StableSwap pool quote engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a single operation against a pool snapshot",
		RunE:  runQuote,
	}

	addSourceFlags(quoteCmd)
	quoteCmd.Flags().String("pool", "", "pool address")
	quoteCmd.Flags().String("kind", "swap", "quote kind (swap, exact_out, deposit, withdraw, withdraw_imbalance, withdraw_one, add_liquidity, meta_swap, virtual_price)")
	quoteCmd.Flags().Int("from", 0, "input token index")
	quoteCmd.Flags().Int("to", 0, "output token index")
	quoteCmd.Flags().Int("index", 0, "token index for withdraw_one")
	quoteCmd.Flags().String("amount", "", "amount (token units, or native units with --raw)")
	quoteCmd.Flags().StringSlice("amounts", nil, "per-token amounts (comma-separated)")
	quoteCmd.Flags().Bool("raw", false, "amounts are native integer units")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Quote every request of a JSONL file",
		RunE:  runBatch,
	}

	addSourceFlags(batchCmd)
	batchCmd.Flags().String("in", "", "input quote requests JSONL")
	batchCmd.Flags().String("out", "./data/quotes.jsonl", "output quote records JSONL")
	batchCmd.Flags().Int("batch-size", 500, "records per output write")
	batchCmd.Flags().Bool("append", false, "append to the output file instead of replacing it")
	batchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(batchCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve quotes over HTTP",
		RunE:  runServe,
	}

	addSourceFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("reload-interval", 0, "snapshot reload interval, 0 disables reloading")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import pool snapshots from JSONL into Postgres",
		RunE:  runImport,
	}

	importCmd.Flags().String("in", "", "input pool snapshots JSONL")
	importCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	importCmd.Flags().Uint64("chain-id", 0, "chain id stored with snapshots that carry none")
	importCmd.Flags().Int("batch-size", 500, "snapshots per database batch")
	importCmd.Flags().Int("max-retries", 5, "maximum database connection retries")
	importCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	importCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(importCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("snapshots", "", "pool snapshots JSONL")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN to load snapshots from")
	cmd.Flags().Uint64("chain-id", 0, "chain id of the snapshots to load from Postgres")
	cmd.Flags().Int("max-retries", 5, "maximum database connection retries")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
