package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_syncer/internal/domain"
)

// CollectionStore keeps each collection as rows keyed by dense position.
type CollectionStore struct {
	db *sqlx.DB
}

func NewCollectionStore(db *sqlx.DB) *CollectionStore {
	return &CollectionStore{db: db}
}

type recordRow struct {
	Position int    `db:"position"`
	Record   []byte `db:"record"`
}

// Records returns every record of collection ordered by position.
func (s *CollectionStore) Records(ctx context.Context, collection string) ([]domain.Record, error) {
	var rows []recordRow
	query := `
		SELECT position, record
		FROM collection_records
		WHERE collection = $1
		ORDER BY position`

	if err := GetExecutor(ctx, s.db).SelectContext(ctx, &rows, query, collection); err != nil {
		return nil, fmt.Errorf("%w: select %s: %w", domain.ErrStore, collection, err)
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		var rec domain.Record
		if err := json.Unmarshal(row.Record, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode %s[%d]: %w", domain.ErrStore, collection, row.Position, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *CollectionStore) Clear(ctx context.Context, collection string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM collection_records WHERE collection = $1", collection)
	if err != nil {
		return fmt.Errorf("%w: clear %s: %w", domain.ErrStore, collection, err)
	}
	return nil
}

// Put writes rec at position, replacing whatever was there.
func (s *CollectionStore) Put(ctx context.Context, collection string, position int, rec domain.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode %s[%d]: %w", domain.ErrStore, collection, position, err)
	}

	query := `
		INSERT INTO collection_records (collection, position, title, record_date, record)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, position) DO UPDATE SET
			title = EXCLUDED.title,
			record_date = EXCLUDED.record_date,
			record = EXCLUDED.record,
			written_at = NOW()`

	// JSONB parameters go as text; lib/pq would send []byte as bytea.
	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, query,
		collection,
		position,
		rec.Title,
		rec.Date,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: put %s[%d]: %w", domain.ErrStore, collection, position, err)
	}
	return nil
}
