// fonts.go - Typeface loading with custom TTF support and embedded fallback fonts.
// Uses github.com/gogpu/gg/text font sources. Defaults to Go Regular and Go Bold
// when no custom font is specified or when custom font loading fails.
package typeface

import (
	"context"
	"fmt"
	"os"

	"github.com/gogpu/gg/text"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Typeface is the shaping resource the compositor draws text with: a regular
// and a bold font source.
type Typeface struct {
	regular *text.FontSource
	bold    *text.FontSource
}

// Loader produces a Typeface. It runs at most once per Gate.
type Loader func(ctx context.Context) (*Typeface, error)

// Parse builds a Typeface from raw TTF/OTF data.
func Parse(regular, bold []byte) (*Typeface, error) {
	r, err := text.NewFontSource(regular)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	b, err := text.NewFontSource(bold)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &Typeface{regular: r, bold: b}, nil
}

// Face returns a fresh face at size pixels. Calling it on a nil Typeface
// is an error: text must never be drawn before the typeface is ready.
func (t *Typeface) Face(bold bool, size float64) (text.Face, error) {
	if t == nil {
		return nil, ErrNoTypeface
	}
	if size <= 0 {
		size = 1
	}
	if bold {
		return t.bold.Face(size), nil
	}
	return t.regular.Face(size), nil
}

// EmbeddedLoader loads the Go Regular and Go Bold fonts compiled into the binary.
func EmbeddedLoader() Loader {
	return func(ctx context.Context) (*Typeface, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Parse(goregular.TTF, gobold.TTF)
	}
}

// FileLoader loads custom fonts from disk. A path that is empty or cannot be
// read falls back to the matching embedded font with a warning.
func FileLoader(regularPath, boldPath string, logger *zap.Logger) Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) (*Typeface, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		regular := readFont(regularPath, goregular.TTF, logger)
		bold := readFont(boldPath, gobold.TTF, logger)
		return Parse(regular, bold)
	}
}

func readFont(path string, fallback []byte, logger *zap.Logger) []byte {
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("could not load custom font, using default",
			zap.String("path", path), zap.Error(err))
		return fallback
	}
	return data
}
