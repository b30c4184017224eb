package service

import (
	"sort"
	"strings"
	"time"

	"news_syncer/internal/domain"
	"news_syncer/internal/textutil"
)

const (
	SummaryLength      = 200
	TitleSummaryLength = 100
	ellipsis           = "..."
)

// buildRecord merges listing fields, the optional detail and the materialized image.
// imageURL is empty when nothing was materialized.
func buildRecord(c domain.Candidate, detail *domain.Detail, imageURL string) domain.Record {
	rec := domain.Record{
		Title:         c.Title,
		Link:          c.Link,
		ImageURL:      imageURL,
		ContentImages: []string{},
		Date:          c.PublishedAt,
		FullDate:      c.PublishedAt.Format(time.RFC3339),
		Category:      c.Category,
	}

	if detail != nil {
		if detail.FullTitle != "" {
			rec.Title = detail.FullTitle
		}
		if detail.FullDate != "" {
			rec.FullDate = detail.FullDate
		}
		if detail.Category != "" {
			rec.Category = detail.Category
		}
		rec.FullContent = detail.FullContentHTML

		if n := len(detail.ContentImageURLs); n > 0 {
			rec.ContentImages = make([]string, 0, n)
			rec.ContentImages = append(rec.ContentImages, imageURL)
			rec.ContentImages = append(rec.ContentImages, detail.ContentImageURLs[1:]...)
		}
	}

	rec.Summary = summarize(rec.FullContent, c.Title)
	return rec
}

func summarize(content, title string) string {
	if strings.TrimSpace(content) == "" {
		return textutil.Truncate(title, TitleSummaryLength) + ellipsis
	}
	return textutil.Truncate(textutil.StripTags(content), SummaryLength) + ellipsis
}

// sortByDate orders records newest first; equal dates keep listing order.
func sortByDate(records []domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}
