package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"news_syncer/internal/domain"
)

func TestBuildRecord_NilDetailUsesListingFields(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	c := domain.Candidate{Title: "Duyuru", Link: "https://x.test/duyuru/1", PublishedAt: date, Category: "THK Duyuruları"}

	rec := buildRecord(c, nil, "")

	assert.Equal(t, "Duyuru", rec.Title)
	assert.Equal(t, c.Link, rec.Link)
	assert.Empty(t, rec.ImageURL)
	assert.Equal(t, []string{}, rec.ContentImages)
	assert.Equal(t, date, rec.Date)
	assert.Equal(t, "2024-03-15T00:00:00Z", rec.FullDate)
	assert.Equal(t, "THK Duyuruları", rec.Category)
	assert.Empty(t, rec.FullContent)
	assert.Equal(t, "Duyuru...", rec.Summary)
}

func TestBuildRecord_ThumbnailOnly(t *testing.T) {
	c := domain.Candidate{Title: "Haber", PublishedAt: time.Now()}

	rec := buildRecord(c, &domain.Detail{FullContentHTML: "<p>x</p>"}, "https://cdn.test/t.jpg")

	assert.Equal(t, "https://cdn.test/t.jpg", rec.ImageURL)
	assert.Equal(t, []string{}, rec.ContentImages)
	assert.Equal(t, "x...", rec.Summary)
}

func TestSummarize_Truncates(t *testing.T) {
	long := "<p>" + strings.Repeat("ğ", 250) + "</p>"
	summary := summarize(long, "title")
	assert.Equal(t, strings.Repeat("ğ", SummaryLength)+"...", summary)

	title := strings.Repeat("a", 150)
	assert.Equal(t, strings.Repeat("a", TitleSummaryLength)+"...", summarize("  ", title))
}

func TestSortByDate_StableDescending(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	records := []domain.Record{
		{Title: "a", Date: d1},
		{Title: "b", Date: d2},
		{Title: "c", Date: d1},
		{Title: "d", Date: d2},
	}

	sortByDate(records)

	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = r.Title
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, titles)
}

func TestFixedDelay(t *testing.T) {
	assert.NoError(t, FixedDelay{}.Wait(context.Background()))

	start := time.Now()
	assert.NoError(t, FixedDelay{Interval: 20 * time.Millisecond}.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, FixedDelay{Interval: time.Hour}.Wait(ctx), context.Canceled)
}
