package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/pkg/exporter"
	"github.com/xob0t/GoPoster/pkg/poster"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

const previewJSON = `{
  "canvas": {"width": 200, "height": 250},
  "event": {"name": "GopherCon", "brandColor": "#1A1A2E"},
  "user": {"name": "Rob", "title": "Gopher", "photoUrl": "asset://me"},
  "layout": "classic"
}`

// heldFetcher serves a green PNG once release is closed.
func heldFetcher(t *testing.T, release <-chan struct{}) assets.Fetcher {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{0, 200, 0, 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	data := buf.Bytes()

	return assets.FetcherFunc(func(ctx context.Context, _ string) ([]byte, error) {
		select {
		case <-release:
			return data, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

func newTestPreview(t *testing.T, release <-chan struct{}) *preview {
	t.Helper()
	tf, err := typeface.EmbeddedLoader()(context.Background())
	require.NoError(t, err)
	r := poster.NewRenderer(
		poster.WithCache(assets.New(assets.WithFetcher(heldFetcher(t, release)))),
		poster.WithGate(typeface.Preloaded(tf)),
	)
	p := newPreview(r)
	t.Cleanup(p.close)
	return p
}

func decodeCenter(t *testing.T, data string) color.NRGBA {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 200, 250), img.Bounds())
	return color.NRGBAModel.Convert(img.At(100, 125)).(color.NRGBA)
}

func TestPreviewNeedsUpdate(t *testing.T) {
	p := newTestPreview(t, make(chan struct{}))
	_, err := p.frame(exporter.Options{})
	require.ErrorIs(t, err, errNoFrame)
	_, err = p.snapshot(context.Background(), exporter.Options{})
	require.ErrorIs(t, err, errNoFrame)

	require.Error(t, p.update("{"))
}

func TestPreviewSnapshotWaitsForImages(t *testing.T) {
	release := make(chan struct{})
	p := newTestPreview(t, release)
	require.NoError(t, p.update(previewJSON))

	early, err := p.frame(exporter.Options{})
	require.NoError(t, err)
	assert.Less(t, int(decodeCenter(t, early).G), 150, "photo drawn before it loaded")
	assert.False(t, p.settled())

	type result struct {
		data string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := p.snapshot(context.Background(), exporter.Options{})
		done <- result{data, err}
	}()

	require.Eventually(t, p.exporting, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("snapshot returned before the photo loaded")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	got := <-done
	require.NoError(t, got.err)
	assert.InDelta(t, 200, int(decodeCenter(t, got.data).G), 3)
	assert.True(t, p.settled())
	assert.False(t, p.exporting())
	assert.NoError(t, p.err())
}

func TestPreviewCloseStartsFresh(t *testing.T) {
	release := make(chan struct{})
	close(release)
	p := newTestPreview(t, release)
	require.NoError(t, p.update(previewJSON))
	p.close()

	_, err := p.frame(exporter.Options{})
	require.ErrorIs(t, err, errNoFrame)
	require.NoError(t, p.update(previewJSON))
	_, err = p.frame(exporter.Options{})
	require.NoError(t, err)
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions()
	require.NoError(t, err)
	assert.Equal(t, exporter.PNG, opts.Format)
	assert.Nil(t, opts.Quality)

	opts, err = parseOptions("jpg", "0")
	require.NoError(t, err)
	assert.Equal(t, exporter.JPEG, opts.Format)
	require.NotNil(t, opts.Quality)
	assert.Equal(t, 0, *opts.Quality)

	_, err = parseOptions("gif")
	require.ErrorIs(t, err, exporter.ErrExport)
	_, err = parseOptions("png", "high")
	require.ErrorContains(t, err, "quality")
}
