package thk

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"news_syncer/internal/domain"
	"news_syncer/internal/textutil"
)

const (
	MaxCandidates         = 15
	MaxFallbackCandidates = 10
	MinTitleLength        = 5
	MinFallbackTextLength = 20
	MaxTitleLength        = 200
	FallbackCategory      = "Genel"
)

var (
	dateRe           = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	contentFragments = []string{"/haber", "/news", "/duyuru"}
)

// Listing fetches a listing page and extracts candidates. It never returns an error:
// fetch and parse failures yield an empty failed result.
func (s *Source) Listing(ctx context.Context, ct domain.ContentType) domain.Result[[]domain.Candidate] {
	logger := s.logger.With("content_type", ct.Name)

	doc, err := s.document(ctx, ct.ListingURL)
	if err != nil {
		logger.Error("failed to fetch listing", "url", ct.ListingURL, "error", err)
		return domain.Failed[[]domain.Candidate](nil, err)
	}

	res := s.parseListing(doc, ct)
	logger.Info("extracted listing",
		"url", ct.ListingURL,
		"status", res.Status,
		"candidates", len(res.Value),
	)

	return res
}

func (s *Source) parseListing(doc *goquery.Document, ct domain.ContentType) domain.Result[[]domain.Candidate] {
	items := doc.Find(ct.ItemSelector)
	if items.Length() == 0 {
		s.logger.Warn("primary selector matched nothing, scanning anchors",
			"content_type", ct.Name,
			"selector", ct.ItemSelector,
		)
		return domain.Fallback(s.scanAnchors(doc),
			fmt.Errorf("%w: selector %q matched nothing", domain.ErrParse, ct.ItemSelector))
	}

	now := s.now()
	candidates := make([]domain.Candidate, 0, MaxCandidates)

	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= MaxCandidates {
			return false
		}

		title := strings.TrimSpace(item.Find(ct.TitleSelector).First().Text())
		link := firstAttr(item, ct.LinkSelectors, "href")
		if utf8.RuneCountInString(title) <= MinTitleLength || link == "" {
			s.logger.Debug("dropped listing item", "index", i, "title", title)
			return true
		}

		candidate := domain.Candidate{
			Ordinal:     i,
			Title:       textutil.Truncate(title, MaxTitleLength),
			Link:        s.resolve(link),
			PublishedAt: s.parseDate(item.Find(ct.DateSelector).First().Text(), now),
			Category:    ct.DefaultCategory,
		}
		if ct.ThumbnailSelector != "" {
			if src, ok := item.Find(ct.ThumbnailSelector).First().Attr("src"); ok {
				candidate.ThumbnailURL = s.resolve(src)
			}
		}

		candidates = append(candidates, candidate)
		return true
	})

	return domain.OK(candidates)
}

// scanAnchors is the low-precision pass over every anchor on the page.
func (s *Source) scanAnchors(doc *goquery.Document) []domain.Candidate {
	now := s.now()
	var candidates []domain.Candidate

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(candidates) >= MaxFallbackCandidates {
			return false
		}

		href, _ := a.Attr("href")
		text := strings.TrimSpace(a.Text())
		if href == "" || utf8.RuneCountInString(text) <= MinFallbackTextLength || !isContentPath(href) {
			return true
		}

		candidates = append(candidates, domain.Candidate{
			Ordinal:     len(candidates),
			Title:       textutil.Truncate(text, MaxTitleLength),
			Link:        s.resolve(href),
			PublishedAt: now,
			Category:    FallbackCategory,
		})
		return true
	})

	return candidates
}

// parseDate reads the first DD.MM.YYYY in text; anything else is treated as now.
func (s *Source) parseDate(text string, now time.Time) time.Time {
	match := dateRe.FindString(text)
	if match == "" {
		return now
	}
	t, err := time.ParseInLocation("02.01.2006", match, s.location)
	if err != nil {
		return now
	}
	return t
}

func firstAttr(sel *goquery.Selection, selectors []string, attr string) string {
	for _, selector := range selectors {
		if v, ok := sel.Find(selector).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func isContentPath(href string) bool {
	for _, fragment := range contentFragments {
		if strings.Contains(href, fragment) {
			return true
		}
	}
	return false
}
