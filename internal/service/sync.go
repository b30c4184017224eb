package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news_syncer/internal/config"
	"news_syncer/internal/domain"
)

// SyncService runs the pipeline for one content type.
type SyncService struct {
	contentType domain.ContentType
	source      Source
	gate        *DedupGate
	collections CollectionStore
	syncState   SyncStateStore
	txManager   TransactionManager
	images      ImageMaterializer
	publisher   Publisher
	pacer       Pacer
	logger      *slog.Logger
	config      config.SyncConfig
	now         func() time.Time
}

// NewSyncService wires one content type. publisher may be nil.
func NewSyncService(
	ct domain.ContentType,
	source Source,
	collections CollectionStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	images ImageMaterializer,
	publisher Publisher,
	pacer Pacer,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	logger = logger.With("content_type", ct.Name, "collection", ct.Collection)

	return &SyncService{
		contentType: ct,
		source:      source,
		gate:        NewDedupGate(collections, logger),
		collections: collections,
		syncState:   syncState,
		txManager:   txManager,
		images:      images,
		publisher:   publisher,
		pacer:       pacer,
		logger:      logger,
		config:      cfg,
		now:         time.Now,
	}
}

func (s *SyncService) Name() string {
	return s.contentType.Name
}

func (s *SyncService) Collection() string {
	return s.contentType.Collection
}

// Sync extracts, gates, enriches and republishes the collection. The returned
// error is non-nil only when publishing failed or ctx was cancelled.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := s.now()
	s.logger.Info("starting sync", "listing_url", s.contentType.ListingURL)

	stats := &domain.SyncStats{
		ContentType: s.contentType.Name,
		Collection:  s.contentType.Collection,
	}

	listing := s.source.Listing(ctx, s.contentType)
	candidates := listing.Value
	stats.ListingStatus = listing.Status
	stats.Fetched = len(candidates)

	logArgs := []any{"status", listing.Status, "candidates", len(candidates)}
	if listing.Err != nil {
		logArgs = append(logArgs, "reason", listing.Err)
	}
	s.logger.Info("listing extracted", logArgs...)

	decision := s.gate.Check(ctx, s.contentType.Collection, candidates)
	stats.New = decision.Value.NewCount

	if !decision.Value.HasNew {
		stats.Gated = true
		stats.Duration = time.Since(startTime)
		s.logger.Info("nothing new, collection left untouched",
			"candidates", len(candidates),
			"duration", stats.Duration,
		)
		return stats, nil
	}

	records := make([]domain.Record, 0, len(candidates))
	enriched := 0
	for _, c := range candidates {
		if published, ok := decision.Value.Published(c); ok && !s.config.RefreshExisting {
			records = append(records, published)
			stats.CarriedOver++
			s.logger.Debug("carried over published record", "title", c.Title)
			continue
		}

		if enriched > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				return stats, fmt.Errorf("wait between items: %w", err)
			}
		}
		enriched++

		records = append(records, s.processItem(ctx, c, stats))
	}

	sortByDate(records)

	if err := s.publish(ctx, records); err != nil {
		stats.Errors++
		stats.Duration = time.Since(startTime)
		s.logger.Error("publish failed", "records", len(records), "error", err)
		return stats, fmt.Errorf("publish %s: %w", s.contentType.Collection, err)
	}
	stats.Published = len(records)

	if s.publisher != nil {
		if err := s.publisher.PublishCollection(ctx, s.contentType.Collection, records); err != nil {
			stats.Errors++
			s.logger.Error("failed to notify collection replace", "error", err)
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"enriched", stats.Enriched,
		"carried_over", stats.CarriedOver,
		"degraded", stats.Degraded,
		"images_stored", stats.ImagesStored,
		"image_fallback", stats.ImageFallback,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// processItem never fails: every degraded step falls back to listing-level fields.
func (s *SyncService) processItem(ctx context.Context, c domain.Candidate, stats *domain.SyncStats) domain.Record {
	logger := s.logger.With("ordinal", c.Ordinal, "link", c.Link)
	stats.Enriched++

	detail := s.source.Detail(ctx, s.contentType, c.Link)
	if detail.Degraded() {
		stats.Degraded++
		logger.Warn("detail degraded", "status", detail.Status, "reason", detail.Err)
	}

	imageSrc := c.ThumbnailURL
	if detail.Value != nil && len(detail.Value.ContentImageURLs) > 0 {
		imageSrc = detail.Value.ContentImageURLs[0]
	}

	var imageURL string
	if imageSrc != "" {
		id := fmt.Sprintf("%s_%d_main", s.contentType.ImageNamespace, c.Ordinal)
		image := s.images.Materialize(ctx, imageSrc, id, s.contentType.ImageNamespace)
		imageURL = image.Value.URL

		switch image.Status {
		case domain.StatusOK:
			stats.ImagesStored++
		case domain.StatusFallback:
			stats.ImagesStored++
			stats.ImageFallback++
		default:
			stats.ImageFallback++
		}
		logger.Debug("image materialized", "status", image.Status, "url", imageURL)
	}

	rec := buildRecord(c, detail.Value, imageURL)
	logger.Info("item processed", "title", rec.Title, "detail", detail.Status)

	return rec
}

// publish replaces the collection: clear, then write every record under its new
// position, then record the run.
func (s *SyncService) publish(ctx context.Context, records []domain.Record) error {
	collection := s.contentType.Collection

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.collections.Clear(txCtx, collection); err != nil {
			return fmt.Errorf("clear: %w", err)
		}

		for i, rec := range records {
			if err := s.collections.Put(txCtx, collection, i, rec); err != nil {
				return fmt.Errorf("put %d: %w", i, err)
			}
		}

		if err := s.updateSyncState(txCtx, len(records)); err != nil {
			return fmt.Errorf("update sync state: %w", err)
		}

		return nil
	})
}

func (s *SyncService) updateSyncState(ctx context.Context, published int) error {
	state, err := s.syncState.Get(ctx, s.contentType.Collection)
	if err != nil {
		return err
	}

	state.Collection = s.contentType.Collection
	state.LastSyncedAt = s.now()
	state.LastPublished = published
	state.TotalRuns++
	state.TotalPublished += int64(published)

	return s.syncState.Update(ctx, state)
}
