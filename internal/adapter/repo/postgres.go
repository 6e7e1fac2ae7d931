package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"donasi/internal/domain"
	"donasi/internal/infra"
	"donasi/internal/sqlinline"
)

// PostgresStore keeps each collection in one row of ledger_collections and
// serializes writers with a row lock.
type PostgresStore struct {
	sql    infra.TxExecutor
	closer func()
}

// NewPostgresStore ensures the table exists. closer, when non-nil, runs on Close.
func NewPostgresStore(ctx context.Context, sql infra.TxExecutor, closer func()) (*PostgresStore, error) {
	if _, err := sql.Exec(ctx, sqlinline.QEnsureCollections); err != nil {
		return nil, fmt.Errorf("ensure ledger_collections: %w", err)
	}
	return &PostgresStore{sql: sql, closer: closer}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (domain.CollectionRecord, error) {
	rec, err := scanRecord(s.sql.QueryRow(ctx, sqlinline.QSelectCollection, key))
	if infra.IsNoRows(err) {
		return domain.CollectionRecord{}, nil
	}
	return rec, err
}

func (s *PostgresStore) Update(ctx context.Context, key string, fn func(domain.CollectionRecord) (domain.CollectionRecord, error)) error {
	return s.sql.WithTx(ctx, func(tx infra.SQLExecutor) error {
		if _, err := tx.Exec(ctx, sqlinline.QSeedCollection, key); err != nil {
			return err
		}
		rec, err := scanRecord(tx.QueryRow(ctx, sqlinline.QSelectCollectionForUpdate, key))
		if err != nil {
			return err
		}
		next, err := fn(rec)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, sqlinline.QUpsertCollection, key, string(itemsOrEmpty(next.Items)), next.NextID)
		return err
	})
}

func (s *PostgresStore) Replace(ctx context.Context, key string, rec domain.CollectionRecord) error {
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertCollection, key, string(itemsOrEmpty(rec.Items)), rec.NextID)
	return err
}

func (s *PostgresStore) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.CollectionRecord, error) {
	var items []byte
	var nextID int64
	if err := row.Scan(&items, &nextID); err != nil {
		return domain.CollectionRecord{}, err
	}
	return domain.CollectionRecord{Items: json.RawMessage(items), NextID: nextID}, nil
}

var _ domain.CollectionStore = (*PostgresStore)(nil)
