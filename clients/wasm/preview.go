// preview.go - Live preview for the browser editor, backed by a poster.Session.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/xob0t/GoPoster/pkg/exporter"
	"github.com/xob0t/GoPoster/pkg/poster"
)

var errNoFrame = errors.New("no preview frame yet: call goPreviewUpdate first")

// preview keeps one Session for the page. Updates replace the descriptor,
// images are drawn as they load and snapshots wait for the frame to settle.
type preview struct {
	r *poster.Renderer

	mu sync.Mutex
	s  *poster.Session
}

func newPreview(r *poster.Renderer) *preview {
	return &preview{r: r}
}

func (p *preview) session() *poster.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.s == nil {
		p.s = p.r.NewSession(context.Background())
	}
	return p.s
}

// update parses descriptorJSON and starts drawing it.
func (p *preview) update(descriptorJSON string) error {
	desc, err := poster.ParseDescriptor([]byte(descriptorJSON), "json")
	if err != nil {
		return err
	}
	p.session().Update(desc)
	return nil
}

// frame encodes the latest frame, which may still lack images in flight.
func (p *preview) frame(opts exporter.Options) (string, error) {
	img := p.session().Frame()
	if img == nil {
		return "", errNoFrame
	}
	enc, err := exporter.Encode(img, opts)
	if err != nil {
		return "", err
	}
	return enc.Base64(), nil
}

// snapshot waits until every image of the current descriptor has been
// drawn or dropped, then encodes the frame.
func (p *preview) snapshot(ctx context.Context, opts exporter.Options) (string, error) {
	s := p.session()
	if s.Frame() == nil {
		return "", errNoFrame
	}
	enc, err := s.Snapshot(ctx, opts)
	if err != nil {
		return "", err
	}
	return enc.Base64(), nil
}

func (p *preview) settled() bool {
	select {
	case <-p.session().Settled():
		return true
	default:
		return false
	}
}

func (p *preview) exporting() bool { return p.session().Exporting() }

// err reports the typeface or drawing error of the current descriptor.
func (p *preview) err() error { return p.session().Err() }

// close drops in-flight loads. The next update opens a fresh session.
func (p *preview) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.s != nil {
		p.s.Close()
		p.s = nil
	}
}

// parseOptions reads the optional format and quality arguments shared by
// the render and preview entry points.
func parseOptions(args ...string) (exporter.Options, error) {
	opts := exporter.Options{Format: exporter.PNG}
	if len(args) > 0 && args[0] != "" {
		f, err := exporter.ParseFormat(args[0])
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if len(args) > 1 && args[1] != "" {
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return opts, fmt.Errorf("quality: %w", err)
		}
		opts.Quality = exporter.Quality(q)
	}
	return opts, nil
}
