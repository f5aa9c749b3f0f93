package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"safeboxAdapter/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store persists vault snapshots in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutSnapshots inserts or updates snapshots keyed by chain, vault and block.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.VaultSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		observedAt, err := parseObservedAt(snap.ObservedAt)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", snap.Vault, err)
		}
		batch.Queue(`
			INSERT INTO safebox_snapshots (
				chain_id, vault_address, block_number, kind, valid,
				rate_token, input_token, exchange_rate, observed_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, now(), now())
			ON CONFLICT (chain_id, vault_address, block_number)
			DO UPDATE SET
				kind = EXCLUDED.kind,
				valid = EXCLUDED.valid,
				rate_token = EXCLUDED.rate_token,
				input_token = EXCLUDED.input_token,
				exchange_rate = EXCLUDED.exchange_rate,
				observed_at = EXCLUDED.observed_at,
				updated_at = now()
		`,
			int64(snap.ChainID),
			snap.Vault,
			int64(snap.BlockNumber),
			snap.Kind,
			snap.Valid,
			nullable(snap.RateToken),
			nullable(snap.InputToken),
			nullable(snap.ExchangeRate),
			observedAt,
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

// LatestExchangeRate returns the most recent stored exchange rate for a vault.
func (s *Store) LatestExchangeRate(ctx context.Context, chainID uint64, vault string) (string, uint64, bool, error) {
	var rate string
	var block int64
	row := s.pool.QueryRow(ctx, `
		SELECT exchange_rate::text, block_number FROM safebox_snapshots
		WHERE chain_id = $1 AND vault_address = $2 AND valid AND exchange_rate IS NOT NULL
		ORDER BY block_number DESC LIMIT 1
	`, int64(chainID), vault)
	if err := row.Scan(&rate, &block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, false, nil
		}
		return "", 0, false, err
	}
	return rate, uint64(block), true, nil
}

func parseObservedAt(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
