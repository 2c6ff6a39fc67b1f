package poster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/GoPoster/pkg/colormath"
)

// PlaceholderLabel is shown while the typeface is not available.
const PlaceholderLabel = "Preparing canvas..."

// Placeholder renders the neutral frame shown instead of a poster when text
// cannot be drawn: a brand-colored fill, a spinner ring and a short label.
// The label uses a built-in bitmap face, so no typeface is needed.
func Placeholder(w, h int, brand color.NRGBA) *image.RGBA {
	c := NewRaster(w, h)
	dst := c.Image()
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(brand), image.Point{}, draw.Src)

	fg := colormath.Contrast(brand)
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	r := math.Max(4, math.Min(float64(b.Dx()), float64(b.Dy()))*0.05)

	track := c.rasterizer()
	arc(track, cx, cy, r*0.8, r, 0, 2*math.Pi)
	track.Draw(dst, b, image.NewUniform(colormath.WithAlpha(fg, 0.25)), image.Point{})

	head := c.rasterizer()
	arc(head, cx, cy, r*0.8, r, -math.Pi/2, math.Pi)
	head.Draw(dst, b, image.NewUniform(fg), image.Point{})

	face := basicfont.Face7x13
	width := font.MeasureString(face, PlaceholderLabel).Ceil()
	x := (b.Dx() - width) / 2
	y := int(cy+r) + 2*face.Height
	drawString(dst, PlaceholderLabel, x, y, fg, face)

	return dst
}

// drawString draws text with a bitmap face at the specified baseline position.
func drawString(img draw.Image, s string, x, y int, col color.Color, face font.Face) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(s)
}
