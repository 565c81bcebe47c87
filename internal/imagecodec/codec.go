// Package imagecodec turns raw image uploads into the normalized JPEG payloads
// stored on cards.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/conorfennell/imagedeck/internal/domain"
)

const (
	// DefaultMaxSide bounds the longer side of a normalized image.
	DefaultMaxSide = 1280
	// DefaultQuality is the JPEG quality of normalized images.
	DefaultQuality = 82
)

var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Codec normalizes images to a fixed bound and quality.
type Codec struct {
	MaxSide int
	Quality int
}

// New returns a Codec; non-positive arguments fall back to the defaults.
func New(maxSide, quality int) *Codec {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Codec{MaxSide: maxSide, Quality: min(quality, 100)}
}

// Normalize applies the codec's bound and quality to raw.
func (c *Codec) Normalize(raw []byte) (domain.EncodedImage, error) {
	return Normalize(raw, c.MaxSide, c.Quality)
}

// Normalize decodes raw, scales it down so that neither side exceeds maxSide
// and re-encodes it as JPEG. Images already within the bound keep their size.
// Transparent areas are flattened onto white.
func Normalize(raw []byte, maxSide, quality int) (domain.EncodedImage, error) {
	if maxSide <= 0 {
		return nil, domain.Validation("normalizeImage", "", fmt.Sprintf("max side %d must be positive", maxSide))
	}
	if len(raw) == 0 {
		return nil, domain.Validation("normalizeImage", "", "empty image")
	}

	mt := mimetype.Detect(raw)
	if !supported[mt.String()] {
		return nil, domain.Validation("normalizeImage", "", fmt.Sprintf("unsupported image type %s", mt.String()))
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.Validation("normalizeImage", "", fmt.Sprintf("decode image: %v", err))
	}

	b := src.Bounds()
	w, h := fitMax(b.Dx(), b.Dy(), maxSide)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: min(max(quality, 1), 100)}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return domain.EncodedImage(out.Bytes()), nil
}

// Detect returns the MIME type and file extension (with dot) of an encoded image.
func Detect(img domain.EncodedImage) (string, string) {
	mt := mimetype.Detect(img)
	return mt.String(), mt.Extension()
}

// IsImageFile reports whether raw looks like an image this package can decode.
func IsImageFile(raw []byte) bool {
	return supported[mimetype.Detect(raw).String()]
}

func fitMax(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	scale := float64(maxSide) / float64(max(w, h))
	return max(int(math.Round(float64(w)*scale)), 1), max(int(math.Round(float64(h)*scale)), 1)
}
