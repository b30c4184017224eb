package thk

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"news_syncer/internal/domain"
)

// Detail fetches one detail page. A nil value with a failed status means the
// caller should fall back to listing-level fields.
func (s *Source) Detail(ctx context.Context, ct domain.ContentType, link string) domain.Result[*domain.Detail] {
	logger := s.logger.With("content_type", ct.Name, "url", link)

	doc, err := s.document(ctx, link)
	if err != nil {
		logger.Error("failed to fetch detail", "error", err)
		return domain.Failed[*domain.Detail](nil, err)
	}

	res := s.parseDetail(doc, ct)
	logger.Debug("extracted detail",
		"status", res.Status,
		"title", res.Value.FullTitle,
		"content_length", len(res.Value.FullContentHTML),
		"images", len(res.Value.ContentImageURLs),
	)

	return res
}

func (s *Source) parseDetail(doc *goquery.Document, ct domain.ContentType) domain.Result[*domain.Detail] {
	detail := &domain.Detail{
		Category:  selectText(doc, ct.CategorySelector),
		FullDate:  selectText(doc, ct.FullDateSelector),
		FullTitle: selectText(doc, ct.FullTitleSelector),
	}

	container := doc.Find(ct.ContainerSelector)

	var content strings.Builder
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if h, err := p.Html(); err == nil && h != "" {
			content.WriteString(h)
			content.WriteString("\n")
		}
	})

	var degraded error
	detail.FullContentHTML = content.String()
	if strings.TrimSpace(detail.FullContentHTML) == "" {
		degraded = fmt.Errorf("%w: no paragraphs under %q", domain.ErrParse, ct.ContainerSelector)
		if h, err := container.First().Html(); err == nil && strings.TrimSpace(h) != "" {
			detail.FullContentHTML = h
		} else {
			detail.FullContentHTML = strings.TrimSpace(container.Text())
		}
	}

	detail.ContentImageURLs = s.contentImages(doc, container, ct)

	if degraded != nil {
		return domain.Fallback(detail, degraded)
	}
	return domain.OK(detail)
}

// contentImages collects container images in document order, then thumbnail
// variants from the page scope that are not already present.
func (s *Source) contentImages(doc *goquery.Document, container *goquery.Selection, ct domain.ContentType) []string {
	var urls []string
	seen := make(map[string]bool)

	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if u := s.resolve(src); u != "" {
			urls = append(urls, u)
			seen[u] = true
		}
	})

	if ct.ThumbnailMarker == "" {
		return urls
	}

	scope := doc.Selection
	if ct.PageScopeSelector != "" {
		if found := doc.Find(ct.PageScopeSelector); found.Length() > 0 {
			scope = found
		}
	}

	scope.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if !strings.Contains(src, ct.ThumbnailMarker) {
			return
		}
		if u := s.resolve(src); u != "" && !seen[u] {
			urls = append(urls, u)
			seen[u] = true
		}
	})

	return urls
}

func selectText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).Text())
}
