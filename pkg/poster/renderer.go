// renderer.go - Poster rendering engine.
// Loads the descriptor's images, waits for the typeface, builds the draw list
// and rasterizes it: assets -> typeface -> commands -> canvas.

package poster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/pkg/layout"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

const instrumentation = "github.com/xob0t/GoPoster/pkg/poster"

// Renderer handles poster composition. It owns the asset cache and the
// typeface gate shared by every render and session it serves.
type Renderer struct {
	cache    *assets.Cache
	gate     *typeface.Gate
	logger   *zap.Logger
	tracer   trace.Tracer
	duration metric.Float64Histogram
	composer Composer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCache shares an existing asset cache.
func WithCache(c *assets.Cache) Option {
	return func(r *Renderer) { r.cache = c }
}

// WithGate shares an existing typeface gate.
func WithGate(g *typeface.Gate) Option {
	return func(r *Renderer) { r.gate = g }
}

// WithLogger sets the renderer logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMeter records render durations on m instead of the global provider.
func WithMeter(m metric.Meter) Option {
	return func(r *Renderer) { r.duration = newDurationHistogram(m) }
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Renderer) { r.tracer = t }
}

// NewRenderer creates a renderer. Without options it uses a fresh cache,
// the embedded typeface and no-op logging.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = assets.New(assets.WithLogger(r.logger))
	}
	if r.gate == nil {
		r.gate = typeface.NewGate(typeface.EmbeddedLoader(), typeface.WithLogger(r.logger))
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(instrumentation)
	}
	if r.duration == nil {
		r.duration = newDurationHistogram(otel.Meter(instrumentation))
	}
	return r
}

func newDurationHistogram(m metric.Meter) metric.Float64Histogram {
	h, err := m.Float64Histogram("gopostr.render.duration_ms",
		metric.WithDescription("Poster render time"),
		metric.WithUnit("ms"))
	if err != nil {
		otel.Handle(err)
	}
	return h
}

// Cache returns the renderer's asset cache.
func (r *Renderer) Cache() *assets.Cache { return r.cache }

// Gate returns the renderer's typeface gate.
func (r *Renderer) Gate() *typeface.Gate { return r.gate }

// Commands loads everything desc needs and returns its draw list.
func (r *Renderer) Commands(ctx context.Context, desc Descriptor) ([]Command, error) {
	desc = desc.Normalized()
	r.gate.Start(ctx)
	imgs := r.load(ctx, desc)
	tf, err := r.gate.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return r.composer.Compose(desc, layout.Resolve(desc.Variant()), imgs, tf)
}

// Render runs the full pipeline synchronously and returns the poster.
//
// Missing or broken images are omitted. If the typeface cannot be loaded the
// placeholder frame is returned together with an error wrapping
// typeface.ErrUnavailable.
func (r *Renderer) Render(ctx context.Context, desc Descriptor) (img *image.RGBA, err error) {
	desc = desc.Normalized()
	ctx, span := r.tracer.Start(ctx, "poster.Render", trace.WithAttributes(
		attribute.String("layout", desc.Variant().String()),
		attribute.Int("width", desc.Canvas.Width),
		attribute.Int("height", desc.Canvas.Height),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		r.record(ctx, desc, start, err)
	}()

	r.gate.Start(ctx)
	imgs := r.load(ctx, desc)
	tf, err := r.gate.Wait(ctx)
	if errors.Is(err, typeface.ErrUnavailable) {
		return Placeholder(desc.Canvas.Width, desc.Canvas.Height, desc.Brand()), err
	}
	if err != nil {
		return nil, err
	}
	return r.draw(desc, imgs, tf)
}

// draw composes and rasterizes one frame. A nil typeface yields the placeholder.
func (r *Renderer) draw(desc Descriptor, imgs Images, tf *typeface.Typeface) (*image.RGBA, error) {
	if tf == nil {
		return Placeholder(desc.Canvas.Width, desc.Canvas.Height, desc.Brand()), nil
	}
	cmds, err := r.composer.Compose(desc, layout.Resolve(desc.Variant()), imgs, tf)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	ras := NewRaster(desc.Canvas.Width, desc.Canvas.Height)
	if err := ras.Draw(cmds); err != nil {
		return nil, err
	}
	return ras.Image(), nil
}

func (r *Renderer) load(ctx context.Context, desc Descriptor) Images {
	got := r.cache.LoadMany(ctx, desc.ImageURLs())
	return ImagesFrom(got[0], got[1], got[2])
}

func (r *Renderer) record(ctx context.Context, desc Descriptor, start time.Time, err error) {
	took := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if r.duration != nil {
		r.duration.Record(ctx, float64(took.Milliseconds()), metric.WithAttributes(
			attribute.String("layout", desc.Variant().String()),
			attribute.String("status", status),
		))
	}
	fields := []zap.Field{
		zap.String("layout", desc.Variant().String()),
		zap.Int("width", desc.Canvas.Width),
		zap.Int("height", desc.Canvas.Height),
		zap.Duration("took", took),
	}
	if err != nil {
		r.logger.Warn("poster render failed", append(fields, zap.Error(err))...)
		return
	}
	r.logger.Debug("poster rendered", fields...)
}
