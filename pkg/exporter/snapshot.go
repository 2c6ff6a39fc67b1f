package exporter

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FallbackDelay is how long Snapshot waits when a source has no barrier.
const FallbackDelay = 250 * time.Millisecond

// Source is something that renders asynchronously. Settled is closed once
// every pending input of the current frame has been drawn; a nil channel
// means the source cannot signal and Snapshot falls back to FallbackDelay.
type Source interface {
	Settled() <-chan struct{}
	Frame() image.Image
}

// StaticSource is a Source for an image that is already complete.
type StaticSource struct {
	Image image.Image
}

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (s StaticSource) Settled() <-chan struct{} { return closed }
func (s StaticSource) Frame() image.Image       { return s.Image }

var tracer trace.Tracer = otel.Tracer("github.com/xob0t/GoPoster/pkg/exporter")

// Snapshot waits for src to settle, captures its frame and encodes it.
// Reading the frame before the barrier can capture images that are still
// loading, so the wait is never skipped.
func Snapshot(ctx context.Context, src Source, opts Options) (enc *Encoded, err error) {
	ctx, span := tracer.Start(ctx, "exporter.Snapshot",
		trace.WithAttributes(attribute.String("format", string(opts.normalized().Format))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if src == nil {
		return nil, fmt.Errorf("%w: no source", ErrExport)
	}
	if err := Await(ctx, src.Settled()); err != nil {
		return nil, err
	}
	return Encode(src.Frame(), opts)
}

// Await blocks until barrier is closed or ctx is done. A nil barrier waits
// FallbackDelay instead.
func Await(ctx context.Context, barrier <-chan struct{}) error {
	if barrier == nil {
		t := time.NewTimer(FallbackDelay)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for render: %v", ErrExport, ctx.Err())
		}
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for render: %v", ErrExport, ctx.Err())
	}
}
