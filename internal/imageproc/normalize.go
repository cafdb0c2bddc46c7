// Package imageproc prepares uploaded images for the face directory.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/your-org/photospotter/internal/apperr"
)

const (
	minQuality  = 40
	qualityStep = 10
)

type Options struct {
	// MaxDimension bounds the longer side. Smaller images are not enlarged.
	MaxDimension int
	Quality      int
	// MaxBytes is the payload ceiling of the face directory.
	MaxBytes int
}

func DefaultOptions() Options {
	return Options{MaxDimension: 1024, Quality: 90, MaxBytes: 5 * 1024 * 1024}
}

// Normalized is an image ready for indexing.
type Normalized struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
}

// Normalize decodes data, applies EXIF orientation, fits it within
// MaxDimension and re-encodes it as JPEG. When the result exceeds MaxBytes
// the quality is stepped down; if it still does not fit a validation error
// is returned.
func Normalize(data []byte, opts Options) (*Normalized, error) {
	if len(data) == 0 {
		return nil, apperr.E(apperr.KindValidation, "empty image")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "unsupported image", err)
	}

	if opts.MaxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension {
			img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
		}
	}
	img = flatten(img)

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	for {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if opts.MaxBytes <= 0 || buf.Len() <= opts.MaxBytes {
			b := img.Bounds()
			return &Normalized{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy(), Quality: quality}, nil
		}
		if quality <= minQuality {
			return nil, apperr.E(apperr.KindValidation,
				fmt.Sprintf("image exceeds %d bytes after normalization", opts.MaxBytes))
		}
		quality = max(quality-qualityStep, minQuality)
	}
}

// flatten composites transparent images onto white so JPEG encoding does not
// turn transparent regions black.
func flatten(img image.Image) image.Image {
	switch img.(type) {
	case *image.YCbCr, *image.Gray, *image.CMYK:
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// CaptureTime returns the EXIF original capture time, if present.
func CaptureTime(data []byte) (*time.Time, bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	t, err := x.DateTime()
	if err != nil || t.IsZero() {
		return nil, false
	}
	return &t, true
}
