package thk

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"news_syncer/internal/domain"
)

const (
	SourceID   = "thk"
	SourceName = "THK University"

	DefaultBaseURL = "https://www.thk.edu.tr"
)

// Fetcher returns raw page bodies.
type Fetcher interface {
	Page(ctx context.Context, url string) ([]byte, error)
}

// Config holds THK source configuration.
type Config struct {
	BaseURL  string
	Location *time.Location
}

// Source extracts listing candidates and detail content from the THK site.
type Source struct {
	fetcher  Fetcher
	base     *url.URL
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a new THK source.
func New(fetcher Fetcher, cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Source{
		fetcher:  fetcher,
		base:     base,
		location: cfg.Location,
		now:      time.Now,
		logger:   logger.With("source", SourceID),
	}, nil
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

func (s *Source) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := s.fetcher.Page(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrParse, pageURL, err)
	}

	return doc, nil
}

// resolve makes ref absolute against the site base URL. Empty or malformed refs yield "".
func (s *Source) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(u).String()
}

// DefaultNews is the news listing at /haberler.
func DefaultNews() domain.ContentType {
	return withDetailDefaults(domain.ContentType{
		Name:              "news",
		ListingURL:        DefaultBaseURL + "/haberler",
		Collection:        "news",
		ItemSelector:      ".haberler-page-item",
		LinkSelectors:     []string{".haberler-page-date a"},
		ThumbnailSelector: ".haberler-img img",
		DefaultCategory:   "THK Haberleri",
		ImageNamespace:    "news",
	})
}

// DefaultAnnouncements is the announcement listing at /duyurular.
func DefaultAnnouncements() domain.ContentType {
	return withDetailDefaults(domain.ContentType{
		Name:            "announcements",
		ListingURL:      DefaultBaseURL + "/duyurular",
		Collection:      "announcements",
		ItemSelector:    ".duyuru-page-item",
		LinkSelectors:   []string{".haberler-page-date a", `a[href*="duyuru"]`},
		DefaultCategory: "THK Duyuruları",
		ImageNamespace:  "announcement",
	})
}

// WithDefaults fills unset selectors with the THK page structure.
func WithDefaults(ct domain.ContentType) domain.ContentType {
	return withDetailDefaults(ct)
}

// WithBase points a default listing at another host, e.g. a staging mirror.
func WithBase(ct domain.ContentType, base string) domain.ContentType {
	base = strings.TrimRight(base, "/")
	if base != "" && strings.HasPrefix(ct.ListingURL, DefaultBaseURL) {
		ct.ListingURL = base + strings.TrimPrefix(ct.ListingURL, DefaultBaseURL)
	}
	return ct
}

func withDetailDefaults(ct domain.ContentType) domain.ContentType {
	setDefault(&ct.TitleSelector, "h5")
	setDefault(&ct.DateSelector, ".date")
	setDefault(&ct.CategorySelector, ".date h5")
	setDefault(&ct.FullDateSelector, ".date-inner h6")
	setDefault(&ct.FullTitleSelector, ".content-title h3")
	setDefault(&ct.ContainerSelector, ".content-title")
	setDefault(&ct.PageScopeSelector, ".duyuru-page-content")
	setDefault(&ct.ThumbnailMarker, "/tiny/")
	setDefault(&ct.ImageNamespace, ct.Name)
	setDefault(&ct.Collection, ct.Name)
	return ct
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
