package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
)

// Store provides Postgres persistence for pool snapshots.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore opens a connection pool. Log lines carry the host and database,
// never the full DSN.
func NewStore(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	conn := pool.Config().ConnConfig
	return &Store{
		pool:   pool,
		logger: logger.With(zap.String("pg_host", conn.Host), zap.String("pg_database", conn.Database)),
	}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping waits for the database, retrying with exponential backoff.
func (s *Store) Ping(ctx context.Context, maxRetries int, backoff time.Duration) error {
	policy := retryPolicy{MaxRetries: maxRetries, Backoff: backoff}
	return retry(ctx, policy, s.logger, "ping", func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
}

// UpsertSnapshots inserts or replaces pool snapshots. A stored snapshot is
// only replaced by one with the same or a later updated_at.
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		tokens, err := json.Marshal(snap.Tokens)
		if err != nil {
			return fmt.Errorf("marshal tokens of %s: %w", snap.Address, err)
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				chain_id, pool_address, name, tokens, balances, a, a_precise, lp_total_supply,
				swap_fee, withdraw_fee, fee_denominator, base_pool, block_number, snapshot_ts,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				name = EXCLUDED.name,
				tokens = EXCLUDED.tokens,
				balances = EXCLUDED.balances,
				a = EXCLUDED.a,
				a_precise = EXCLUDED.a_precise,
				lp_total_supply = EXCLUDED.lp_total_supply,
				swap_fee = EXCLUDED.swap_fee,
				withdraw_fee = EXCLUDED.withdraw_fee,
				fee_denominator = EXCLUDED.fee_denominator,
				base_pool = EXCLUDED.base_pool,
				block_number = EXCLUDED.block_number,
				snapshot_ts = EXCLUDED.snapshot_ts,
				updated_at = now()
			WHERE pool_snapshots.snapshot_ts <= EXCLUDED.snapshot_ts
		`,
			int64(snap.ChainID),
			snap.Address,
			snap.Name,
			tokens,
			snap.Balances,
			snap.A,
			snap.APrecise,
			snap.LPTotalSupply,
			snap.SwapFee,
			snap.WithdrawFee,
			snap.FeeDenominator,
			snap.BasePool,
			int64(snap.BlockNumber),
			snap.UpdatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshots returns every stored snapshot for a chain.
func (s *Store) LoadSnapshots(ctx context.Context, chainID uint64) ([]model.PoolSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_address, name, tokens::text, balances, a, a_precise, lp_total_supply,
			swap_fee, withdraw_fee, fee_denominator, base_pool, block_number, snapshot_ts
		FROM pool_snapshots
		WHERE chain_id = $1
		ORDER BY pool_address
	`, int64(chainID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PoolSnapshot
	for rows.Next() {
		var (
			snap        model.PoolSnapshot
			tokens      string
			blockNumber int64
		)
		if err := rows.Scan(
			&snap.Address,
			&snap.Name,
			&tokens,
			&snap.Balances,
			&snap.A,
			&snap.APrecise,
			&snap.LPTotalSupply,
			&snap.SwapFee,
			&snap.WithdrawFee,
			&snap.FeeDenominator,
			&snap.BasePool,
			&blockNumber,
			&snap.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tokens), &snap.Tokens); err != nil {
			return nil, fmt.Errorf("decode tokens of %s: %w", snap.Address, err)
		}
		snap.ChainID = chainID
		snap.BlockNumber = uint64(blockNumber)
		out = append(out, snap)
	}
	return out, rows.Err()
}
