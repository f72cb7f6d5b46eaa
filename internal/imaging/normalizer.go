// ABOUTME: Image normalizer that turns uploaded photos into storable JPEG data URLs.
// ABOUTME: Downscales to a dimension budget and lowers quality until the byte budget fits.

package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"math"

	"dario.cat/mergo"
	"github.com/harper/cookbook/internal/logger"
	"github.com/harper/cookbook/internal/models"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// Policy decides what happens when an image is still over budget at the
// lowest quality.
type Policy string

const (
	// PolicyReject fails the image with ErrTooLarge.
	PolicyReject Policy = "reject"
	// PolicyBestEffort keeps the smallest encoding that was produced.
	PolicyBestEffort Policy = "best-effort"
)

var (
	ErrDecode        = errors.New("decode_error")
	ErrTooLarge      = errors.New("too_large")
	ErrTooManyImages = models.ErrTooManyImages
	ErrUnknownPolicy = errors.New("unknown oversize policy")
)

// ParsePolicy validates a policy name; empty means PolicyReject.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyBestEffort:
		return PolicyBestEffort, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Options tune the normalizer. Zero fields take the DefaultOptions value.
type Options struct {
	MaxDimension   int     // longest side in pixels
	MaxBytes       int     // budget for the data URL string
	MaxInputBytes  int     // raw upload size rejected before decoding; 0 = 2×MaxBytes
	MaxPixels      int     // declared width×height rejected before decoding
	InitialQuality float64 // first JPEG quality, 0..1
	QualityFloor   float64 // loop stops once quality drops to this
	QualityStep    float64 // quality multiplier per retry
	Policy         Policy
	Concurrency    int                   // parallel images in NormalizeBatch
	Progress       func(done, total int) // called after each batch item
}

// DefaultOptions returns the stock budget: 600px, 3 MiB, quality 0.5.
func DefaultOptions() Options {
	const maxBytes = 3 * 1024 * 1024
	return Options{
		MaxDimension:   600,
		MaxBytes:       maxBytes,
		MaxInputBytes:  2 * maxBytes,
		MaxPixels:      50_000_000,
		InitialQuality: 0.5,
		QualityFloor:   0.1,
		QualityStep:    0.8,
		Policy:         PolicyReject,
		Concurrency:    models.MaxImagesPerRecipe,
	}
}

// Normalizer converts raw image bytes into JPEG data URLs within budget.
type Normalizer struct {
	opts Options
	log  *logger.Logger
}

// New returns a normalizer. A nil logger discards output.
func New(opts Options, log *logger.Logger) *Normalizer {
	if opts.MaxInputBytes == 0 && opts.MaxBytes > 0 {
		opts.MaxInputBytes = 2 * opts.MaxBytes
	}
	if err := mergo.Merge(&opts, DefaultOptions()); err != nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{opts: opts, log: log.Component("imaging")}
}

// Options returns the effective options.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize decodes raw (JPEG, PNG, GIF or WebP), fits it within
// MaxDimension and encodes it as a JPEG data URL no longer than MaxBytes.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if n.opts.MaxInputBytes > 0 && len(raw) > n.opts.MaxInputBytes {
		return "", fmt.Errorf("%w: upload is %d bytes, limit %d", ErrTooLarge, len(raw), n.opts.MaxInputBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(n.opts.MaxPixels) {
		return "", fmt.Errorf("%w: %dx%d pixels, limit %d", ErrTooLarge, cfg.Width, cfg.Height, n.opts.MaxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	sb := src.Bounds()
	w, h := FitWithin(sb.Dx(), sb.Dy(), n.opts.MaxDimension)
	if w == 0 || h == 0 {
		return "", fmt.Errorf("%w: empty image", ErrDecode)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}

	q := n.opts.InitialQuality
	url, err := encodeJPEG(dst, q)
	if err != nil {
		return "", err
	}
	for len(url) > n.opts.MaxBytes && q > n.opts.QualityFloor {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		q *= n.opts.QualityStep
		next, err := encodeJPEG(dst, q)
		if err != nil {
			return "", err
		}
		url = next
	}

	n.log.Debug().
		Str("format", format).
		Int("src_width", sb.Dx()).
		Int("src_height", sb.Dy()).
		Int("width", w).
		Int("height", h).
		Float64("quality", q).
		Int("bytes", len(url)).
		Msg("normalized image")

	if len(url) > n.opts.MaxBytes {
		if n.opts.Policy == PolicyBestEffort {
			n.log.Warn().Int("bytes", len(url)).Int("limit", n.opts.MaxBytes).Msg("keeping oversize image")
			return url, nil
		}
		return "", fmt.Errorf("%w: %d bytes after compression, limit %d", ErrTooLarge, len(url), n.opts.MaxBytes)
	}
	return url, nil
}

// NormalizeDataURL re-normalizes an image that is already a data URL.
func (n *Normalizer) NormalizeDataURL(ctx context.Context, s string) (string, error) {
	_, data, err := DecodeDataURL(s)
	if err != nil {
		return "", err
	}
	return n.Normalize(ctx, data)
}

// FitWithin scales w×h uniformly so the longer side equals max. Images
// already within max are returned unchanged.
func FitWithin(w, h, max int) (int, int) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h
	}
	if w >= h {
		nh := int(math.Round(float64(h) * float64(max) / float64(w)))
		return max, atLeastOne(nh)
	}
	nw := int(math.Round(float64(w) * float64(max) / float64(h)))
	return atLeastOne(nw), max
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

func encodeJPEG(img image.Image, quality float64) (string, error) {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return EncodeDataURL("image/jpeg", buf.Bytes()), nil
}
