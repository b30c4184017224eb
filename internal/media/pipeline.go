package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"news_syncer/internal/domain"
)

const metaUnknown = "unknown"

// Downloader streams a remote object into w.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// BlobStore is the object storage the pipeline re-hosts images on.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, metadata map[string]string) error
	MakePublic(ctx context.Context, key string) error
	PublicURL(key string) string
}

type Config struct {
	// ScratchDir is the parent of the per-process scratch directory; empty means os.TempDir().
	ScratchDir string
	Transcode  TranscodeConfig
}

// Pipeline downloads, transcodes and uploads one image at a time.
type Pipeline struct {
	downloader Downloader
	store      BlobStore
	transcoder *Transcoder
	scratch    string
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// NewPipeline creates the scratch directory. Call Close to remove it.
func NewPipeline(downloader Downloader, store BlobStore, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	scratch, err := os.MkdirTemp(cfg.ScratchDir, "news-syncer-")
	if err != nil {
		return nil, fmt.Errorf("%w: create scratch dir: %w", domain.ErrInit, err)
	}

	return &Pipeline{
		downloader: downloader,
		store:      store,
		transcoder: NewTranscoder(cfg.Transcode),
		scratch:    scratch,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     logger.With("component", "media"),
	}, nil
}

// Close sweeps the scratch directory.
func (p *Pipeline) Close() error {
	return os.RemoveAll(p.scratch)
}

// Materialize re-hosts srcURL under namespace. Failed results still carry
// srcURL so records always reference some image.
func (p *Pipeline) Materialize(ctx context.Context, srcURL, id, namespace string) domain.Result[domain.StoredImage] {
	fallback := domain.StoredImage{URL: srcURL, SourceURL: srcURL}
	logger := p.logger.With("image_url", srcURL, "item", id)

	if strings.TrimSpace(srcURL) == "" {
		return domain.Failed(fallback, fmt.Errorf("%w: empty image url", domain.ErrImage))
	}

	srcExt := sourceExt(srcURL)
	base := fmt.Sprintf("%s_%d_%s", id, p.now().UnixMilli(), p.newID())
	origPath := filepath.Join(p.scratch, base+"_original"+srcExt)
	outExt := OutputExt(srcExt)
	outPath := filepath.Join(p.scratch, base+"_compressed"+outExt)
	defer p.remove(origPath)
	defer p.remove(outPath)

	downloaded, err := p.download(ctx, srcURL, origPath)
	if err != nil {
		logger.Warn("image download failed, keeping original url", "error", err)
		return domain.Failed(fallback, err)
	}

	uploadPath, uploadExt := outPath, outExt
	stats, transcodeErr := p.transcoder.Transcode(origPath, outPath)
	if transcodeErr != nil {
		logger.Warn("transcode failed, uploading original bytes", "error", transcodeErr)
		uploadPath, uploadExt = origPath, srcExt
	}

	key := fmt.Sprintf("%s_images/%s%s", namespace, base, uploadExt)
	meta := p.metadata(id, srcURL, stats, transcodeErr == nil)

	if err := p.upload(ctx, key, uploadPath, meta); err != nil {
		logger.Error("image upload failed, keeping original url", "key", key, "error", err)
		return domain.Failed(fallback, err)
	}

	stored := domain.StoredImage{
		URL:       p.store.PublicURL(key),
		SourceURL: srcURL,
		Key:       key,
		Rehosted:  true,
	}

	logger.Info("image stored",
		"key", key,
		"downloaded", downloaded,
		"compressed", transcodeErr == nil,
		"ratio", meta["compression-ratio"],
	)

	if transcodeErr != nil {
		return domain.Fallback(stored, transcodeErr)
	}
	return domain.OK(stored)
}

func (p *Pipeline) download(ctx context.Context, srcURL, dst string) (int64, error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("%w: create temp file: %w", domain.ErrImage, err)
	}

	n, err := p.downloader.Download(ctx, srcURL, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = fmt.Errorf("%w: download: %w", domain.ErrImage, err)
		}
		return n, err
	}

	return n, nil
}

func (p *Pipeline) upload(ctx context.Context, key, src string, meta map[string]string) error {
	mt, err := mimetype.DetectFile(src)
	if err != nil {
		return fmt.Errorf("%w: sniff upload: %w", domain.ErrImage, err)
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open upload: %w", domain.ErrImage, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat upload: %w", domain.ErrImage, err)
	}

	if err := p.store.Put(ctx, key, f, info.Size(), mt.String(), meta); err != nil {
		return err
	}

	return p.store.MakePublic(ctx, key)
}

func (p *Pipeline) metadata(id, srcURL string, stats TranscodeStats, compressed bool) map[string]string {
	meta := map[string]string{
		"source-id":         id,
		"original-url":      srcURL,
		"uploaded-at":       p.now().UTC().Format(time.RFC3339),
		"compressed":        strconv.FormatBool(compressed),
		"original-size":     metaUnknown,
		"compressed-size":   metaUnknown,
		"compression-ratio": metaUnknown,
	}
	if compressed {
		meta["original-size"] = strconv.FormatInt(stats.OriginalSize, 10)
		meta["compressed-size"] = strconv.FormatInt(stats.CompressedSize, 10)
		meta["compression-ratio"] = strconv.FormatFloat(stats.Ratio, 'f', 1, 64)
	}
	return meta
}

func sourceExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fallbackExtension
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return fallbackExtension
	}
	return ext
}

func (p *Pipeline) remove(name string) {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("failed to remove temp file", "path", name, "error", err)
	}
}
