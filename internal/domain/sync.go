package domain

import "time"

// SyncStats holds statistics about one content type's run.
type SyncStats struct {
	ContentType   string
	Collection    string
	ListingStatus Status
	Fetched       int
	New           int
	Gated         bool
	Enriched      int
	CarriedOver   int
	Degraded      int
	ImagesStored  int
	ImageFallback int
	Published     int
	Errors        int
	Duration      time.Duration
}

type SyncState struct {
	ID             int64     `db:"id"`
	Collection     string    `db:"collection"`
	LastSyncedAt   time.Time `db:"last_synced_at"`
	LastPublished  int       `db:"last_published"`
	TotalRuns      int64     `db:"total_runs"`
	TotalPublished int64     `db:"total_published"`
}
