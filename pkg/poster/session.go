// session.go - Live preview of a poster that redraws as its images arrive.

package poster

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/pkg/exporter"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

type slot int

const (
	slotHero slot = iota
	slotLogo
	slotPhoto
)

// Session is a preview canvas bound to one descriptor at a time.
//
// Update draws immediately with whatever is already cached, then each
// missing image (and the typeface, if still loading) is fetched in the
// background and the frame is redrawn as it lands. Draw order is fixed by
// the compositor, so arrival order never changes the result.
//
// Results that arrive for a descriptor that has since been replaced, or
// after Close, are dropped. They may still populate the shared cache.
type Session struct {
	r      *Renderer
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	gen       uint64
	desc      Descriptor
	imgs      Images
	tf        *typeface.Typeface
	err       error
	frame     *image.RGBA
	seq       uint64
	published uint64
	pending   int
	settled   chan struct{}
	closed    bool

	exporting atomic.Bool
}

// NewSession opens a preview session. Background loads run under ctx until
// Close is called.
func (r *Renderer) NewSession(ctx context.Context) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		r:       r,
		ctx:     ctx,
		cancel:  cancel,
		settled: make(chan struct{}),
	}
	close(s.settled)
	return s
}

// Update replaces the descriptor and starts drawing it.
func (s *Session) Update(desc Descriptor) {
	desc = desc.Normalized()
	urls := desc.ImageURLs()
	cache := s.r.cache

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	s.desc = desc
	s.err = nil
	var missing []slot
	s.imgs, missing = peekImages(urls, cache.Peek)
	waitFont := s.tf == nil
	s.pending = len(missing)
	if waitFont {
		s.pending++
	}
	select {
	case <-s.settled:
	default:
		// Wake anyone still waiting on the superseded descriptor.
		close(s.settled)
	}
	s.settled = make(chan struct{})
	if s.pending == 0 {
		close(s.settled)
	}
	s.mu.Unlock()

	s.redraw(gen)

	if waitFont {
		go s.awaitTypeface(gen)
	}
	for _, sl := range missing {
		go s.loadImage(gen, sl, urls[sl])
	}
}

// peekImages looks each url up once. A slot is missing exactly when its url
// is set and the lookup found nothing, so every missing slot gets a load.
func peekImages(urls []string, peek func(string) *assets.Image) (Images, []slot) {
	var found [3]*assets.Image
	var missing []slot
	for i, u := range urls {
		if u == "" {
			continue
		}
		if found[i] = peek(u); found[i] == nil {
			missing = append(missing, slot(i))
		}
	}
	return ImagesFrom(found[slotHero], found[slotLogo], found[slotPhoto]), missing
}

func (s *Session) awaitTypeface(gen uint64) {
	tf, err := s.r.gate.Wait(s.ctx)

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.err = err
		s.mu.Unlock()
		s.r.logger.Warn("typeface unavailable, showing placeholder", zap.Error(err))
		s.finish(gen)
		return
	}
	s.tf = tf
	s.mu.Unlock()

	s.redraw(gen)
	s.finish(gen)
}

func (s *Session) loadImage(gen uint64, sl slot, url string) {
	img := s.r.cache.Load(s.ctx, url)

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		s.r.logger.Debug("dropping stale image", zap.String("url", url))
		return
	}
	if img == nil {
		s.mu.Unlock()
		s.finish(gen)
		return
	}
	s.set(sl, img)
	s.mu.Unlock()

	s.redraw(gen)
	s.finish(gen)
}

func (s *Session) set(sl slot, img *assets.Image) {
	switch sl {
	case slotHero:
		s.imgs.Hero = img
	case slotLogo:
		s.imgs.Logo = img
	case slotPhoto:
		s.imgs.Photo = img
	}
}

// current reports whether gen is still the live generation. Callers hold mu.
func (s *Session) current(gen uint64) bool {
	return !s.closed && gen == s.gen
}

// redraw renders the session state as of now and publishes it unless a
// newer frame was published first.
func (s *Session) redraw(gen uint64) {
	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	desc, imgs, tf := s.desc, s.imgs, s.tf
	s.mu.Unlock()

	frame, err := s.r.draw(desc, imgs, tf)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) || seq < s.published {
		return
	}
	if err != nil {
		s.err = err
		s.r.logger.Error("preview redraw failed", zap.Error(err))
		return
	}
	s.frame = frame
	s.published = seq
}

func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) || s.pending == 0 {
		return
	}
	s.pending--
	if s.pending == 0 {
		close(s.settled)
	}
}

// Frame returns the latest published frame. Published frames are never
// drawn into again, so the result is safe to read while loads continue.
// It is nil before the first Update.
func (s *Session) Frame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil
	}
	return s.frame
}

// Settled is closed once every load started by the latest Update has been
// drawn or dropped.
func (s *Session) Settled() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

// Err returns the last typeface or drawing error of the current descriptor.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Exporting reports whether a Snapshot is in progress.
func (s *Session) Exporting() bool { return s.exporting.Load() }

// Snapshot waits for the current descriptor to settle and encodes the frame.
// If Update is called while waiting, it waits for the new descriptor instead.
func (s *Session) Snapshot(ctx context.Context, opts exporter.Options) (*exporter.Encoded, error) {
	s.exporting.Store(true)
	defer s.exporting.Store(false)

	for {
		s.mu.Lock()
		gen, barrier := s.gen, s.settled
		s.mu.Unlock()

		if err := exporter.Await(ctx, barrier); err != nil {
			return nil, err
		}

		s.mu.Lock()
		same := gen == s.gen
		s.mu.Unlock()
		if same {
			break
		}
	}
	return exporter.Snapshot(ctx, s, opts)
}

// Close stops background loads. Results still in flight are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		select {
		case <-s.settled:
		default:
			close(s.settled)
		}
	}
	s.mu.Unlock()
	s.cancel()
}
