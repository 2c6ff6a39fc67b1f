// file.go - Writing encoded posters to disk.

package exporter

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/xob0t/GoPoster/internal/id"
)

// Save writes the encoded bytes to path.
func (e *Encoded) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrExport, path, err)
	}
	return e.writeAndClose(f, path)
}

// writeAndClose writes the bytes to w and closes it. A failed close fails
// the write, since buffered data may not have reached the file.
func (e *Encoded) writeAndClose(w io.WriteCloser, path string) error {
	if _, err := e.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrExport, path, err)
	}
	return nil
}

// SaveFile encodes img into path. The format is inferred from the file extension:
//   - ".png" → PNG image
//   - ".jpg", ".jpeg" → JPEG at quality
//   - ".bmp" → BMP image
//   - ".tif", ".tiff" → TIFF image
func SaveFile(path string, img image.Image, quality int) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	enc, err := Encode(img, Options{Format: format, Quality: Quality(quality)})
	if err != nil {
		return err
	}
	return enc.Save(path)
}

// NewID returns a unique, time-ordered export id.
func NewID() (string, error) {
	v, err := id.New()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExport, err)
	}
	return v, nil
}

// WriteDir saves the buffer into dir under a fresh snowflake id and returns
// the full path.
func (e *Encoded) WriteDir(dir string) (string, error) {
	name, err := NewID()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrExport, dir, err)
	}
	path := filepath.Join(dir, "poster-"+name+e.Format.Ext())
	if err := e.Save(path); err != nil {
		return "", err
	}
	return path, nil
}
