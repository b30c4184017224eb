package media

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/webp"

	"news_syncer/internal/domain"
)

const (
	DefaultMaxWidth   = 1200
	DefaultMaxHeight  = 800
	DefaultQuality    = 80
	DefaultWebPMethod = 6
	DefaultPNGLevel   = png.BestCompression
	fallbackExtension = ".jpg"
	mimeWebP          = "image/webp"
	mimeImagePrefix   = "image/"
)

type TranscodeConfig struct {
	MaxWidth       int
	MaxHeight      int
	JPEGQuality    int
	WebPQuality    int
	WebPMethod     int
	PNGCompression png.CompressionLevel
}

func (c *TranscodeConfig) setDefaults() {
	if c.MaxWidth <= 0 {
		c.MaxWidth = DefaultMaxWidth
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = DefaultMaxHeight
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = DefaultQuality
	}
	if c.WebPQuality <= 0 {
		c.WebPQuality = DefaultQuality
	}
	if c.WebPMethod <= 0 {
		c.WebPMethod = DefaultWebPMethod
	}
	// png.DefaultCompression is the zero value and means unset.
	if c.PNGCompression == png.DefaultCompression {
		c.PNGCompression = DefaultPNGLevel
	}
}

// TranscodeStats mirrors what gets attached to uploaded objects.
type TranscodeStats struct {
	OriginalSize   int64
	CompressedSize int64
	// Ratio is the size reduction in percent, negative when the output grew.
	Ratio float64
}

// Transcoder bounds and re-encodes images on disk.
type Transcoder struct {
	cfg TranscodeConfig
}

func NewTranscoder(cfg TranscodeConfig) *Transcoder {
	cfg.setDefaults()
	return &Transcoder{cfg: cfg}
}

// OutputExt maps a source extension to the extension Transcode will write.
// Anything other than JPEG, PNG or WebP goes down the JPEG path.
func OutputExt(srcExt string) string {
	switch ext := strings.ToLower(srcExt); ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return fallbackExtension
	}
}

// Transcode decodes src, fits it into the configured bounds without upscaling
// and encodes it to dst using the format implied by dst's extension.
func (t *Transcoder) Transcode(src, dst string) (TranscodeStats, error) {
	var stats TranscodeStats

	info, err := os.Stat(src)
	if err != nil {
		return stats, fmt.Errorf("%w: stat source: %w", domain.ErrImage, err)
	}
	stats.OriginalSize = info.Size()

	img, err := decode(src)
	if err != nil {
		return stats, err
	}

	img = imaging.Fit(img, t.cfg.MaxWidth, t.cfg.MaxHeight, imaging.Lanczos)

	out, err := os.Create(dst)
	if err != nil {
		return stats, fmt.Errorf("%w: create output: %w", domain.ErrImage, err)
	}

	if err := t.encode(out, img, filepath.Ext(dst)); err != nil {
		out.Close()
		return stats, err
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("%w: close output: %w", domain.ErrImage, err)
	}

	info, err = os.Stat(dst)
	if err != nil {
		return stats, fmt.Errorf("%w: stat output: %w", domain.ErrImage, err)
	}
	stats.CompressedSize = info.Size()
	if stats.OriginalSize > 0 {
		stats.Ratio = float64(stats.OriginalSize-stats.CompressedSize) / float64(stats.OriginalSize) * 100
	}

	return stats, nil
}

func decode(path string) (image.Image, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: sniff: %w", domain.ErrImage, err)
	}
	if !strings.HasPrefix(mt.String(), mimeImagePrefix) {
		return nil, fmt.Errorf("%w: not an image: %s", domain.ErrImage, mt.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", domain.ErrImage, err)
	}
	defer f.Close()

	var img image.Image
	if mt.Is(mimeWebP) {
		img, err = webp.Decode(f)
	} else {
		img, err = imaging.Decode(f, imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrImage, mt.String(), err)
	}

	return img, nil
}

func (t *Transcoder) encode(w io.Writer, img image.Image, ext string) error {
	var err error
	switch OutputExt(ext) {
	case ".png":
		err = imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(t.cfg.PNGCompression))
	case ".webp":
		err = webp.Encode(w, img, webp.Options{Quality: t.cfg.WebPQuality, Method: t.cfg.WebPMethod})
	default:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(t.cfg.JPEGQuality))
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrImage, ext, err)
	}
	return nil
}
