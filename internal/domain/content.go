package domain

import "time"

// Candidate is a listing-level entry awaiting enrichment.
type Candidate struct {
	Ordinal      int
	Title        string
	Link         string
	ThumbnailURL string
	PublishedAt  time.Time
	Category     string
}

// Detail is what a detail page yields. Every field may be empty.
type Detail struct {
	Category         string
	FullDate         string
	FullTitle        string
	FullContentHTML  string
	ContentImageURLs []string
}

// StoredImage is a public URL of a re-hosted asset, or the original source URL
// when the image could not be materialized.
type StoredImage struct {
	URL       string
	SourceURL string
	Key       string
	Rehosted  bool
}

// Record is the unit written to a destination collection.
type Record struct {
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	ImageURL      string    `json:"imageUrl"`
	ContentImages []string  `json:"contentImages"`
	Date          time.Time `json:"date"`
	FullDate      string    `json:"fullDate"`
	Category      string    `json:"category"`
	FullContent   string    `json:"fullContent"`
	Summary       string    `json:"summary"`
}

// ContentType parameterizes one pipeline run: where to read, how to parse, where to publish.
type ContentType struct {
	Name       string
	ListingURL string
	Collection string

	// Listing page
	ItemSelector      string
	TitleSelector     string
	LinkSelectors     []string
	ThumbnailSelector string
	DateSelector      string
	DefaultCategory   string

	// Detail page
	CategorySelector  string
	FullDateSelector  string
	FullTitleSelector string
	ContainerSelector string
	PageScopeSelector string
	ThumbnailMarker   string

	// ImageNamespace prefixes object keys, e.g. "news" -> "news_images/...".
	ImageNamespace string
}
