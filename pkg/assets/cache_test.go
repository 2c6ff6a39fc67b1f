package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// countingFetcher serves fixed bodies by URL and counts fetches.
type countingFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  map[string]int
	total  atomic.Int32
}

func newCountingFetcher(bodies map[string][]byte) *countingFetcher {
	return &countingFetcher{bodies: bodies, calls: make(map[string]int)}
}

func (f *countingFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.total.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ref]++
	body, ok := f.bodies[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return body, nil
}

func (f *countingFetcher) count(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ref]
}

func TestLoadEmptyURL(t *testing.T) {
	f := newCountingFetcher(nil)
	c := New(WithFetcher(f))

	assert.Nil(t, c.Load(context.Background(), ""))
	assert.Equal(t, int32(0), f.total.Load())
	assert.Equal(t, Stats{}, c.Stats())
}

func TestLoadCachesByURL(t *testing.T) {
	const url = "https://cdn.example.com/logo.png"
	f := newCountingFetcher(map[string][]byte{url: pngBytes(t, 4, 3, color.White)})
	c := New(WithFetcher(f))

	first := c.Load(context.Background(), url)
	require.NotNil(t, first)
	assert.Equal(t, "png", first.Format)
	assert.Equal(t, url, first.URL)
	assert.Equal(t, image.Rect(0, 0, 4, 3), first.Bounds())

	second := c.Load(context.Background(), url)
	assert.Same(t, first, second)
	assert.Equal(t, 1, f.count(url))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
	assert.Same(t, first, c.Peek(url))
}

func TestLoadKeysAreExactStrings(t *testing.T) {
	body := pngBytes(t, 1, 1, color.Black)
	f := newCountingFetcher(map[string][]byte{
		"https://x/a.png":  body,
		"https://x/a.png?": body,
	})
	c := New(WithFetcher(f))
	c.Load(context.Background(), "https://x/a.png")
	c.Load(context.Background(), "https://x/a.png?")
	assert.Equal(t, 2, c.Len())
}

func TestLoadFailuresReturnNil(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newCountingFetcher(map[string][]byte{
		"https://x/garbage.png": []byte("definitely not an image"),
	})
	c := New(WithFetcher(f), WithLogger(zap.New(core)))

	assert.Nil(t, c.Load(context.Background(), "https://x/missing.png"))
	assert.Nil(t, c.Load(context.Background(), "https://x/garbage.png"))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(2), c.Stats().Failures)

	entries := logs.FilterMessage("image load failed, layer will be omitted").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "fetch", entries[0].ContextMap()["stage"])
	assert.Equal(t, "decode", entries[1].ContextMap()["stage"])

	// Failures are not cached; the next call tries again.
	c.Load(context.Background(), "https://x/missing.png")
	assert.Equal(t, 2, f.count("https://x/missing.png"))
}

func TestLoadManyPreservesOrder(t *testing.T) {
	f := newCountingFetcher(map[string][]byte{
		"a": pngBytes(t, 1, 1, color.White),
		"c": pngBytes(t, 3, 1, color.White),
	})
	c := New(WithFetcher(f))

	got := c.LoadMany(context.Background(), []string{"a", "b", "", "c"})
	require.Len(t, got, 4)
	require.NotNil(t, got[0])
	assert.Nil(t, got[1])
	assert.Nil(t, got[2])
	require.NotNil(t, got[3])
	assert.Equal(t, "a", got[0].URL)
	assert.Equal(t, 3, got[3].Bounds().Dx())
}

func TestConcurrentLoadsOfSameURL(t *testing.T) {
	f := newCountingFetcher(map[string][]byte{"u": pngBytes(t, 2, 2, color.White)})
	c := New(WithFetcher(f))

	got := c.LoadMany(context.Background(), []string{"u", "u", "u", "u"})
	for _, img := range got {
		require.NotNil(t, img)
	}
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int32(c.Stats().Misses), f.total.Load())
	assert.Same(t, c.Peek("u"), c.Load(context.Background(), "u"))
}

func TestDownscaleOnLoad(t *testing.T) {
	f := newCountingFetcher(map[string][]byte{"big": pngBytes(t, 400, 100, color.White)})
	c := New(WithFetcher(f), MaxDimension(200))

	img := c.Load(context.Background(), "big")
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 200, 50), img.Bounds())
}

func TestDecodeKeepsSmallImages(t *testing.T) {
	img, format, err := Decode(pngBytes(t, 30, 60, color.White), DefaultMaxDimension)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 30, 60), img.Bounds())

	img, _, err = Decode(pngBytes(t, 30, 60, color.White), 20)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 20), img.Bounds())
}

func TestHTTPFetcher(t *testing.T) {
	body := pngBytes(t, 2, 2, color.White)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(WithFetcher(NewSchemeFetcher(srv.Client(), "")))
	require.NotNil(t, c.Load(context.Background(), srv.URL+"/ok.png"))
	require.NotNil(t, c.Load(context.Background(), srv.URL+"/ok.png"))
	assert.Nil(t, c.Load(context.Background(), srv.URL+"/nope.png"))
	assert.Equal(t, int32(2), hits.Load())

	limited := &HTTPFetcher{Client: srv.Client(), MaxBytes: 8}
	_, err := limited.Fetch(context.Background(), srv.URL+"/ok.png")
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), pngBytes(t, 5, 5, color.Black), 0o644))

	c := New(WithFetcher(NewSchemeFetcher(nil, dir)))
	assert.NotNil(t, c.Load(context.Background(), "photo.png"))
	assert.NotNil(t, c.Load(context.Background(), "file://"+filepath.ToSlash(filepath.Join(dir, "photo.png"))))
	assert.Nil(t, c.Load(context.Background(), "absent.png"))
}

func TestConfinedFileFetcher(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "assets")
	private := filepath.Join(base, "private")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "event"), 0o755))
	require.NoError(t, os.MkdirAll(private, 0o755))
	body := pngBytes(t, 4, 4, color.White)
	require.NoError(t, os.WriteFile(filepath.Join(root, "event", "logo.png"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(private, "secret.png"), body, 0o644))

	f := &FileFetcher{Root: root, Confined: true}
	ctx := context.Background()

	got, err := f.Fetch(ctx, "event/logo.png")
	require.NoError(t, err)
	assert.Equal(t, body, got)
	_, err = f.Fetch(ctx, filepath.Join(root, "event", "logo.png"))
	require.NoError(t, err)

	for _, ref := range []string{
		filepath.Join(private, "secret.png"),
		"../private/secret.png",
		"event/../../private/secret.png",
		"file://" + filepath.ToSlash(filepath.Join(private, "secret.png")),
	} {
		_, err := f.Fetch(ctx, ref)
		assert.ErrorIs(t, err, ErrOutsideRoot, ref)
	}

	if err := os.Symlink(private, filepath.Join(root, "link")); err == nil {
		_, err = f.Fetch(ctx, "link/secret.png")
		assert.Error(t, err, "symlink escaping the root")
	}

	_, err = (&FileFetcher{Confined: true}).Fetch(ctx, filepath.Join(root, "event", "logo.png"))
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestDataURLFetcher(t *testing.T) {
	body := pngBytes(t, 6, 2, color.White)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(body)

	c := New()
	img := c.Load(context.Background(), ref)
	require.NotNil(t, img)
	assert.Equal(t, 6, img.Bounds().Dx())

	_, err := DataURLFetcher{}.Fetch(context.Background(), "data:text/plain,hello")
	require.Error(t, err)
}

func TestSchemeOf(t *testing.T) {
	tests := map[string]string{
		"https://a/b.png":  "https",
		"HTTP://a":         "http",
		"data:image/png,x": "data",
		"file:///tmp/x":    "file",
		"photo.png":        "",
		`C:\img\a.png`:     "",
		"ftp://host/x":     "ftp",
	}
	for in, want := range tests {
		assert.Equal(t, want, schemeOf(in), in)
	}

	_, err := NewSchemeFetcher(nil, "").Fetch(context.Background(), "ftp://host/x")
	require.Error(t, err)
}
