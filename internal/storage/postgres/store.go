package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS feed_messages (
	chain_id    BIGINT      NOT NULL,
	contract    TEXT        NOT NULL,
	topic       TEXT        NOT NULL,
	idx         BIGINT      NOT NULL,
	publisher   TEXT        NOT NULL,
	sender      TEXT        NOT NULL,
	ts          BIGINT      NOT NULL,
	text        TEXT        NOT NULL,
	data        TEXT        NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (contract, topic, idx)
);
CREATE TABLE IF NOT EXISTS feed_state (
	name       TEXT        PRIMARY KEY,
	next_index BIGINT      NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

const upsertMessageSQL = `
	INSERT INTO feed_messages (
		chain_id, contract, topic, idx, publisher, sender, ts, text, data, ingested_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (contract, topic, idx)
	DO UPDATE SET
		publisher = EXCLUDED.publisher,
		sender = EXCLUDED.sender,
		ts = EXCLUDED.ts,
		text = EXCLUDED.text,
		data = EXCLUDED.data,
		ingested_at = EXCLUDED.ingested_at
`

// Store provides Postgres persistence for synced feeds.
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

// EnsureSchema creates the feed tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutMessageBatch implements storage.Storage.
func (s *Store) PutMessageBatch(ctx context.Context, records []model.MessageRecord) error {
	return s.UpsertMessages(ctx, records)
}

// UpsertMessages inserts or updates feed messages keyed by (contract, topic, idx).
func (s *Store) UpsertMessages(ctx context.Context, records []model.MessageRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := messageArgs(rec)
		if err != nil {
			return err
		}
		batch.Queue(upsertMessageSQL, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// messageArgs converts a record to upsert parameters. BIGINT columns reject values
// above MaxInt64 and TEXT columns cannot hold NUL, which chain text may contain.
func messageArgs(rec model.MessageRecord) ([]any, error) {
	for _, col := range []struct {
		name string
		v    uint64
	}{
		{"chain_id", rec.ChainID},
		{"idx", rec.Index},
		{"ts", rec.Timestamp},
	} {
		if col.v > math.MaxInt64 {
			return nil, fmt.Errorf("message %s/%d: %s %d exceeds BIGINT", rec.Topic, rec.Index, col.name, col.v)
		}
	}
	ingestedAt, err := time.Parse(time.RFC3339Nano, rec.IngestedAt)
	if err != nil {
		return nil, fmt.Errorf("message %s/%d ingested_at: %w", rec.Topic, rec.Index, err)
	}
	return []any{
		int64(rec.ChainID),
		rec.Contract,
		stripNUL(rec.Topic),
		int64(rec.Index),
		rec.Publisher,
		rec.Sender,
		int64(rec.Timestamp),
		stripNUL(rec.Text),
		rec.Data,
		ingestedAt,
	}, nil
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// LoadState returns next_index for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var next int64
	row := s.pool.QueryRow(ctx, `SELECT next_index FROM feed_state WHERE name=$1`, name)
	if err := row.Scan(&next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(next), true, nil
}

// SaveState upserts next_index for a name.
func (s *Store) SaveState(ctx context.Context, name string, next uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feed_state (name, next_index, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET next_index = EXCLUDED.next_index, updated_at = now()
	`, name, int64(next))
	return err
}
