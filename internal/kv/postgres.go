package kv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/internal/postgres"
)

var (
	_ Store   = (*PostgresStore)(nil)
	_ Batcher = (*PostgresStore)(nil)
)

const (
	pgGetQuery    = `SELECT "value" FROM protorune_kv WHERE "key" = $1`
	pgPutQuery    = `INSERT INTO protorune_kv ("key", "value") VALUES ($1, $2) ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value"`
	pgDeleteQuery = `DELETE FROM protorune_kv WHERE "key" = $1`
)

// PostgresStore is a Store on the protorune_kv table created by the protorune migrations.
type PostgresStore struct {
	db    postgres.DB
	close func()
}

// NewPostgresStore wraps db. closeFn, if not nil, is called by Close.
func NewPostgresStore(db postgres.DB, closeFn func()) *PostgresStore {
	return &PostgresStore{db: db, close: closeFn}
}

func (s *PostgresStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	if err := s.db.QueryRow(ctx, pgGetQuery, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "postgres get")
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.Exec(ctx, pgPutQuery, key, value)
	return errors.Wrap(err, "postgres put")
}

func (s *PostgresStore) Delete(ctx context.Context, key []byte) error {
	_, err := s.db.Exec(ctx, pgDeleteQuery, key)
	return errors.Wrap(err, "postgres delete")
}

// WriteBatch applies entries as one pipelined batch inside a database transaction.
func (s *PostgresStore) WriteBatch(ctx context.Context, entries []Entry) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, entry := range entries {
		if entry.Value == nil {
			batch.Queue(pgDeleteQuery, entry.Key)
			continue
		}
		batch.Queue(pgPutQuery, entry.Key, entry.Value)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "failed to send write batch")
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit write batch")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
