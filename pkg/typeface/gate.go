package typeface

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable is returned by Wait once the loader has failed. The gate
	// never retries; the session keeps showing its placeholder.
	ErrUnavailable = errors.New("typeface unavailable")

	// ErrNoTypeface reports an attempt to draw text without a ready typeface.
	ErrNoTypeface = errors.New("text drawn without a ready typeface")
)

// Gate suspends renders until the typeface has finished loading.
//
// The loader runs once, in its own goroutine, the first time Start or Wait
// is called. Every Wait after that observes the same outcome.
type Gate struct {
	loader  Loader
	logger  *zap.Logger
	timeout time.Duration

	once sync.Once
	done chan struct{}
	tf   *Typeface
	err  error
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used to report load failures.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTimeout bounds how long the loader may run before the gate gives up.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// NewGate returns a gate that will run loader. A nil loader means EmbeddedLoader.
func NewGate(loader Loader, opts ...Option) *Gate {
	if loader == nil {
		loader = EmbeddedLoader()
	}
	g := &Gate{
		loader: loader,
		logger: zap.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Preloaded returns a gate that is already open with tf.
func Preloaded(tf *Typeface) *Gate {
	g := NewGate(func(context.Context) (*Typeface, error) { return tf, nil })
	g.Start(context.Background())
	<-g.done
	return g
}

// Start kicks off the loader if it has not run yet. Cancelling ctx after the
// load begins does not abort it.
func (g *Gate) Start(ctx context.Context) {
	g.once.Do(func() {
		ctx = context.WithoutCancel(ctx)
		go g.run(ctx)
	})
}

func (g *Gate) run(ctx context.Context) {
	defer close(g.done)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	tf, err := g.loader(ctx)
	if err == nil && tf == nil {
		err = ErrNoTypeface
	}
	if err != nil {
		g.err = err
		g.logger.Error("typeface load failed", zap.Error(err))
		return
	}
	g.tf = tf
	g.logger.Debug("typeface ready", zap.Duration("took", time.Since(start)))
}

// Wait blocks until the typeface is loaded, the load fails, or ctx is done.
// It starts the loader if nobody has yet.
func (g *Gate) Wait(ctx context.Context) (*Typeface, error) {
	g.Start(ctx)
	select {
	case <-g.done:
		if g.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, g.err)
		}
		return g.tf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ready reports whether the typeface loaded successfully. It never blocks.
func (g *Gate) Ready() bool {
	select {
	case <-g.done:
		return g.err == nil
	default:
		return false
	}
}

// Done is closed once the loader has finished, successfully or not.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}
