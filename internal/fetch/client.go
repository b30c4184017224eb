package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"news_syncer/internal/domain"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds HTTP client configuration for the source site.
type Config struct {
	UserAgent          string
	InsecureSkipVerify bool
	PageTimeout        time.Duration
	ImageTimeout       time.Duration
	MaxAttempts        int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
}

// Client fetches pages and images from the source site.
type Client struct {
	pages  *resty.Client
	images *resty.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled for source site")
	}

	return &Client{
		pages:  newResty(cfg, cfg.PageTimeout),
		images: newResty(cfg, cfg.ImageTimeout),
		logger: logger.With("component", "fetch"),
	}
}

func newResty(cfg Config, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	if cfg.InsecureSkipVerify {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // source site serves an invalid chain
	}

	if cfg.MaxAttempts > 1 {
		c.SetRetryCount(cfg.MaxAttempts - 1).
			SetRetryWaitTime(cfg.InitialBackoff).
			SetRetryMaxWaitTime(cfg.MaxBackoff).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
			})
	}

	return c
}

// Page returns the body of an HTML page.
func (c *Client) Page(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.pages.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", domain.ErrFetch, url, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: get %s: unexpected status: %d", domain.ErrFetch, url, resp.StatusCode())
	}

	c.logger.Debug("fetched page", "url", url, "status", resp.StatusCode(), "bytes", len(resp.Body()))

	return resp.Body(), nil
}

// Download streams the body at url into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.images.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, fmt.Errorf("%w: get %s: %w", domain.ErrFetch, url, err)
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return 0, fmt.Errorf("%w: get %s: unexpected status: %d", domain.ErrFetch, url, resp.StatusCode())
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("%w: read %s: %w", domain.ErrFetch, url, err)
	}

	return n, nil
}
