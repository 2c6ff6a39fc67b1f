// Package exporter encodes rendered posters.
//
// All output follows a unified pipeline: wait for the render-complete
// barrier, capture the frame, then encode it as PNG, JPEG, BMP or TIFF.
// Encoded bytes can be returned raw, as base64, as a data URL or written
// to a file.
package exporter

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrExport wraps every snapshot and encode failure.
var ErrExport = errors.New("export failed")

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 90

// Options control encoding.
type Options struct {
	Format  Format // default PNG
	Quality *int   // JPEG only, 0-100; nil means DefaultQuality
}

// Quality returns q as an Options.Quality value.
func Quality(q int) *int { return &q }

// ParseFormat accepts a format name or file extension ("png", ".jpg", "JPEG").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q: use png, jpeg, bmp or tiff", ErrExport, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrExport, path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// Ext returns the conventional file extension, with the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case BMP:
		return ".bmp"
	case TIFF:
		return ".tiff"
	default:
		return ".png"
	}
}

func (o Options) normalized() Options {
	if o.Format == "" {
		o.Format = PNG
	}
	q := DefaultQuality
	if o.Quality != nil {
		q = min(max(*o.Quality, 0), 100)
	}
	o.Quality = &q
	return o
}

// Encoded is an encoded image buffer.
type Encoded struct {
	Format Format
	Bytes  []byte
	Width  int
	Height int
}

// ContentType returns the MIME type of the buffer.
func (e *Encoded) ContentType() string { return e.Format.ContentType() }

// Base64 returns the standard base64 encoding of the bytes.
func (e *Encoded) Base64() string { return base64.StdEncoding.EncodeToString(e.Bytes) }

// DataURL returns the bytes as a "data:" URL.
func (e *Encoded) DataURL() string {
	return "data:" + e.ContentType() + ";base64," + e.Base64()
}

// WriteTo writes the encoded bytes to w.
func (e *Encoded) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.Bytes)
	if err != nil {
		return int64(n), fmt.Errorf("%w: write: %v", ErrExport, err)
	}
	return int64(n), nil
}

// Encode encodes img with opts.
func Encode(img image.Image, opts Options) (*Encoded, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image to encode", ErrExport)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: image is empty", ErrExport)
	}
	opts = opts.normalized()

	var buf bytes.Buffer
	if err := EncodeTo(&buf, img, opts); err != nil {
		return nil, err
	}
	return &Encoded{Format: opts.Format, Bytes: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// EncodeTo streams the encoding of img to w.
func EncodeTo(w io.Writer, img image.Image, opts Options) error {
	opts = opts.normalized()
	var err error
	switch opts.Format {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: *opts.Quality})
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrExport, opts.Format)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrExport, opts.Format, err)
	}
	return nil
}
