package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_syncer/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, collection string) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT id, collection, last_synced_at, last_published, total_runs, total_published
		FROM sync_state
		WHERE collection = $1`

	err := GetExecutor(ctx, s.db).GetContext(ctx, &state, query, collection)
	if errors.Is(err, sql.ErrNoRows) {
		// Never synced
		return &domain.SyncState{Collection: collection}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get sync state %s: %w", domain.ErrStore, collection, err)
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO sync_state (collection, last_synced_at, last_published, total_runs, total_published)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			last_published = EXCLUDED.last_published,
			total_runs = EXCLUDED.total_runs,
			total_published = EXCLUDED.total_published`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.Collection,
		state.LastSyncedAt,
		state.LastPublished,
		state.TotalRuns,
		state.TotalPublished,
	)
	if err != nil {
		return fmt.Errorf("%w: update sync state %s: %w", domain.ErrStore, state.Collection, err)
	}
	return nil
}
