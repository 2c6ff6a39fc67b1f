package poster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/pkg/colormath"
	"github.com/xob0t/GoPoster/pkg/layout"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURL(t *testing.T, img image.Image) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, img))
}

func at(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func hexCenter(desc Descriptor) (cx, cy, r float64) {
	plan := layout.Resolve(desc.Variant())
	w, h := float64(desc.Canvas.Width), float64(desc.Canvas.Height)
	return plan.Photo.CX * w, plan.Photo.CY * h, plan.Photo.R * w
}

func TestRenderEndToEnd(t *testing.T) {
	desc := Descriptor{
		Canvas: Canvas{Width: 540, Height: 675},
		Event:  Event{Name: "React Summit 2025", BrandColor: "#1A1A2E"},
		User:   User{Name: "Ada Lovelace", Title: "Engineer"},
		Layout: "bold",
	}
	r := NewRenderer()

	cmds, err := r.Commands(context.Background(), desc)
	require.NoError(t, err)
	layers := Layers(cmds)
	assert.NotContains(t, layers, LayerHero)
	assert.NotContains(t, layers, LayerLogo)
	assert.NotContains(t, layers, LayerDate)
	assert.NotContains(t, layers, LayerCompany)
	assert.NotContains(t, layers, LayerLocation)

	var title []string
	for _, dt := range texts(cmds, LayerTitle) {
		title = append(title, dt.Text)
	}
	assert.Equal(t, "React Summit 2025", joinWords(title))

	img, err := r.Render(context.Background(), desc)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 540, 675), img.Bounds())

	// The badge fill is the light foreground just inside its rounded end.
	badge := find[FillRoundRect](t, cmds)
	bh := badge.Rect.Dy()
	px := at(img, badge.Rect.Min.X+bh/2-4, badge.Rect.Min.Y+bh/2)
	assert.Greater(t, px.R, uint8(240), "badge pixel %v", px)

	// The placeholder fill lightens the hexagon against the background.
	cx, cy, rad := hexCenter(desc.Normalized())
	inside := at(img, int(cx), int(cy))
	outside := at(img, int(cx-rad)-6, int(cy))
	assert.Greater(t, int(inside.G)-int(outside.G), 25, "inside %v outside %v", inside, outside)

	// The outline sits on the hexagon's left edge.
	edge := at(img, int(cx-rad*0.8660254), int(cy))
	assert.Greater(t, edge.R, uint8(230), "edge pixel %v", edge)
}

func joinWords(lines []string) string {
	var buf bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(l)
	}
	return buf.String()
}

func TestRenderIsDeterministic(t *testing.T) {
	desc := sampleDesc()
	desc.Event.HeroURL = dataURL(t, solid(16, 16, color.NRGBA{200, 40, 40, 255}))
	desc.User.PhotoURL = dataURL(t, solid(16, 16, color.NRGBA{40, 200, 40, 255}))
	r := NewRenderer()

	a, err := r.Render(context.Background(), desc)
	require.NoError(t, err)
	b, err := r.Render(context.Background(), desc)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a.Pix, b.Pix))

	fresh, err := NewRenderer().Render(context.Background(), desc)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a.Pix, fresh.Pix), "a cold cache draws the same poster")
}

func TestRenderClipsPhotoToHexagon(t *testing.T) {
	desc := sampleDesc()
	desc.User.PhotoURL = dataURL(t, solid(32, 32, color.NRGBA{0, 200, 0, 255}))
	img, err := NewRenderer().Render(context.Background(), desc)
	require.NoError(t, err)

	cx, cy, rad := hexCenter(desc.Normalized())
	center := at(img, int(cx), int(cy))
	assert.InDelta(t, 200, int(center.G), 2, "center pixel %v", center)
	assert.Less(t, center.R, uint8(5))

	// Just outside a flat side stays untouched by the photo.
	out := at(img, int(cx-rad)-4, int(cy))
	assert.Less(t, out.G, uint8(100), "outside pixel %v", out)
	// Inside a vertex's bounding corner but outside the hexagon.
	corner := at(img, int(cx-rad*0.8)+1, int(cy-rad*0.85))
	assert.Less(t, corner.G, uint8(100), "corner pixel %v", corner)
}

func TestRenderOmitsBrokenImages(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	r := NewRenderer(WithLogger(logger))

	desc := sampleDesc()
	desc.Event.LogoURL = "data:image/png;base64,bm90IGFuIGltYWdl"
	img, err := r.Render(context.Background(), desc)
	require.NoError(t, err)
	require.NotNil(t, img)

	assert.Equal(t, 1, logs.FilterMessage("image load failed, layer will be omitted").Len())
	assert.Equal(t, assets.Stats{Misses: 1, Failures: 1}, r.Cache().Stats())
}

func TestRenderTypefaceFailureShowsPlaceholder(t *testing.T) {
	boom := errors.New("font server down")
	gate := typeface.NewGate(func(context.Context) (*typeface.Typeface, error) { return nil, boom })
	r := NewRenderer(WithGate(gate))

	desc := sampleDesc()
	img, err := r.Render(context.Background(), desc)
	require.ErrorIs(t, err, typeface.ErrUnavailable)
	require.NotNil(t, img)

	brand := desc.Brand()
	assert.Equal(t, brand, at(img, 0, 0))
	assert.Equal(t, brand, at(img, img.Bounds().Dx()-1, img.Bounds().Dy()-1))

	_, err = r.Commands(context.Background(), desc)
	require.ErrorIs(t, err, typeface.ErrUnavailable)
}

func TestRenderHonorsContext(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	gate := typeface.NewGate(func(ctx context.Context) (*typeface.Typeface, error) {
		<-release
		return nil, errors.New("released")
	})
	r := NewRenderer(WithGate(gate))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	img, err := r.Render(ctx, sampleDesc())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, img)
}

func TestPlaceholder(t *testing.T) {
	brand := colormath.DefaultBrand
	img := Placeholder(200, 100, brand)
	require.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())
	assert.Equal(t, brand, at(img, 2, 2))

	// The spinner ring (radius 5 here) passes through twelve o'clock.
	top := at(img, 100, 45)
	assert.NotEqual(t, brand, top)
}
