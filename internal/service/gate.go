package service

import (
	"context"
	"log/slog"
	"strings"

	"news_syncer/internal/domain"
)

// NormalizeTitle is the identity used for duplicate suppression.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

type GateDecision struct {
	HasNew   bool
	NewCount int
	// Existing holds the published records keyed by normalized title.
	Existing map[string]domain.Record
}

// Published returns the already published record for c. It uses the same
// title identity as Check, so a candidate counted as new is never carried over.
func (d GateDecision) Published(c domain.Candidate) (domain.Record, bool) {
	rec, ok := d.Existing[NormalizeTitle(c.Title)]
	return rec, ok
}

// DedupGate decides whether a listing is worth enriching.
type DedupGate struct {
	store  CollectionStore
	logger *slog.Logger
}

func NewDedupGate(store CollectionStore, logger *slog.Logger) *DedupGate {
	return &DedupGate{store: store, logger: logger}
}

// Check compares candidate titles with the published collection. When the
// collection cannot be read the batch is treated as new.
func (g *DedupGate) Check(ctx context.Context, collection string, candidates []domain.Candidate) domain.Result[GateDecision] {
	published, err := g.store.Records(ctx, collection)
	if err != nil {
		g.logger.Warn("existence check failed, assuming new items",
			"collection", collection,
			"error", err,
		)
		return domain.Fallback(GateDecision{
			HasNew:   len(candidates) > 0,
			NewCount: len(candidates),
			Existing: map[string]domain.Record{},
		}, err)
	}

	decision := GateDecision{
		Existing: make(map[string]domain.Record, len(published)),
	}
	for _, rec := range published {
		key := NormalizeTitle(rec.Title)
		if _, ok := decision.Existing[key]; !ok {
			decision.Existing[key] = rec
		}
	}

	for _, c := range candidates {
		if _, ok := decision.Published(c); !ok {
			decision.NewCount++
		}
	}
	decision.HasNew = decision.NewCount > 0

	g.logger.Info("gate checked",
		"collection", collection,
		"candidates", len(candidates),
		"published", len(published),
		"new", decision.NewCount,
	)

	return domain.OK(decision)
}
