package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"news_syncer/internal/domain"
)

type Source interface {
	Listing(ctx context.Context, ct domain.ContentType) domain.Result[[]domain.Candidate]
	Detail(ctx context.Context, ct domain.ContentType, link string) domain.Result[*domain.Detail]
}

type CollectionStore interface {
	Records(ctx context.Context, collection string) ([]domain.Record, error)
	Clear(ctx context.Context, collection string) error
	Put(ctx context.Context, collection string, position int, record domain.Record) error
}

type SyncStateStore interface {
	Get(ctx context.Context, collection string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ImageMaterializer interface {
	Materialize(ctx context.Context, srcURL, id, namespace string) domain.Result[domain.StoredImage]
}

type Publisher interface {
	PublishCollection(ctx context.Context, collection string, records []domain.Record) error
}

// Pacer spaces out requests against the source.
type Pacer interface {
	Wait(ctx context.Context) error
}
