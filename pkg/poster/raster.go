// raster.go - Executes draw commands onto an RGBA image.
// Shapes are rasterized to coverage masks with golang.org/x/image/vector,
// images are resampled with imaging, gradients are evaluated with gg brushes
// and glyphs are drawn with gg/text.

package poster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/vector"

	"github.com/xob0t/GoPoster/pkg/clipgeom"
	"github.com/xob0t/GoPoster/pkg/colormath"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

// Raster is a fixed-size raster target.
type Raster struct {
	dst *image.RGBA
}

// NewRaster allocates a transparent w x h raster.
func NewRaster(w, h int) *Raster {
	return &Raster{dst: image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))}
}

// Image returns the backing image. It is live: later draws show through.
func (c *Raster) Image() *image.RGBA { return c.dst }

// Draw executes cmds in order.
func (c *Raster) Draw(cmds []Command) error {
	for _, cmd := range cmds {
		if err := c.Execute(cmd); err != nil {
			return fmt.Errorf("draw %s: %w", cmd.Layer(), err)
		}
	}
	return nil
}

// Execute runs a single command.
func (c *Raster) Execute(cmd Command) error {
	switch cmd := cmd.(type) {
	case FillRect:
		draw.Draw(c.dst, cmd.Rect, image.NewUniform(cmd.Color), image.Point{}, draw.Over)
	case FillGradient:
		c.fillGradient(cmd.Rect, cmd.Gradient)
	case DrawImage:
		c.drawImage(cmd)
	case FillRoundRect:
		z := c.rasterizer()
		roundRect(z, cmd.Rect, cmd.Radius)
		z.Draw(c.dst, c.dst.Bounds(), image.NewUniform(cmd.Color), image.Point{})
	case ClipImage:
		c.clipImage(cmd)
	case StrokePath:
		z := c.rasterizer()
		polygon(z, cmd.Path.Offset(cmd.Width/2))
		polygon(z, cmd.Path.Offset(-cmd.Width/2).Reverse())
		z.Draw(c.dst, c.dst.Bounds(), image.NewUniform(cmd.Color), image.Point{})
	case DrawText:
		if cmd.Face == nil {
			return typeface.ErrNoTypeface
		}
		text.Draw(c.dst, cmd.Text, cmd.Face, cmd.X, cmd.Y, cmd.Color)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

func (c *Raster) rasterizer() *vector.Rasterizer {
	b := c.dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	return z
}

// ── Gradients ──

const gradientSteps = 256

// fillGradient paints g over r. The angle follows CSS: the gradient line
// passes through the center of r and is long enough that the corners land
// exactly on offsets 0 and 1.
func (c *Raster) fillGradient(r image.Rectangle, g colormath.Gradient) {
	r = r.Intersect(c.dst.Bounds())
	if r.Empty() || len(g.Stops) == 0 {
		return
	}

	theta := g.Angle * math.Pi / 180
	dx, dy := math.Sin(theta), -math.Cos(theta)
	w, h := float64(r.Dx()), float64(r.Dy())
	half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
	cx, cy := float64(r.Min.X)+w/2, float64(r.Min.Y)+h/2
	x0, y0 := cx-dx*half, cy-dy*half
	x1, y1 := cx+dx*half, cy+dy*half

	brush := gg.NewLinearGradientBrush(x0, y0, x1, y1)
	for _, s := range g.Stops {
		brush.AddColorStop(s.Offset, gg.RGBA{
			R: float64(s.Color.R) / 255,
			G: float64(s.Color.G) / 255,
			B: float64(s.Color.B) / 255,
			A: float64(s.Color.A) / 255,
		})
	}

	var lut [gradientSteps]color.NRGBA
	for i := range lut {
		t := float64(i) / (gradientSteps - 1)
		col := brush.ColorAt(x0+(x1-x0)*t, y0+(y1-y0)*t).Color()
		lut[i] = color.NRGBAModel.Convert(col).(color.NRGBA)
	}

	length := 2 * half
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			t := 0.0
			if length > 0 {
				t = ((float64(x)+0.5-x0)*dx + (float64(y)+0.5-y0)*dy) / length
			}
			i := int(math.Round(math.Min(math.Max(t, 0), 1) * (gradientSteps - 1)))
			blendOver(c.dst, x, y, lut[i])
		}
	}
}

// blendOver composites a non-premultiplied color over one pixel.
func blendOver(dst *image.RGBA, x, y int, s color.NRGBA) {
	a := uint32(s.A)
	if a == 0 {
		return
	}
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	if a == 0xff {
		p[0], p[1], p[2], p[3] = s.R, s.G, s.B, 0xff
		return
	}
	ia := 0xff - a
	p[0] = uint8((uint32(s.R)*a + uint32(p[0])*ia + 0x7f) / 0xff)
	p[1] = uint8((uint32(s.G)*a + uint32(p[1])*ia + 0x7f) / 0xff)
	p[2] = uint8((uint32(s.B)*a + uint32(p[2])*ia + 0x7f) / 0xff)
	p[3] = uint8((0xff*a + uint32(p[3])*ia + 0x7f) / 0xff)
}

// ── Images ──

func (c *Raster) drawImage(cmd DrawImage) {
	if cmd.Image == nil || cmd.Dst.Empty() || cmd.Opacity <= 0 {
		return
	}
	var fitted *image.NRGBA
	dst := cmd.Dst
	switch cmd.Fit {
	case FitContain:
		fitted = contain(cmd.Image, dst.Dx(), dst.Dy())
		dst = image.Rectangle{Min: dst.Min, Max: dst.Min.Add(fitted.Bounds().Size())}
	default:
		fitted = imaging.Fill(cmd.Image, dst.Dx(), dst.Dy(), imaging.Center, imaging.Lanczos)
	}

	if cmd.Opacity >= 1 {
		draw.Draw(c.dst, dst, fitted, fitted.Bounds().Min, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(cmd.Opacity * 255))})
	draw.DrawMask(c.dst, dst, fitted, fitted.Bounds().Min, mask, image.Point{}, draw.Over)
}

// contain scales img to the largest size that fits in w x h, keeping aspect.
func contain(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	scale := math.Min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	fw := max(1, int(math.Round(float64(b.Dx())*scale)))
	fh := max(1, int(math.Round(float64(b.Dy())*scale)))
	return imaging.Resize(img, fw, fh, imaging.Lanczos)
}

// clipImage masks either the cover-fitted image or a flat fill with the path.
func (c *Raster) clipImage(cmd ClipImage) {
	z := c.rasterizer()
	polygon(z, cmd.Path)

	if cmd.Image == nil {
		z.Draw(c.dst, c.dst.Bounds(), image.NewUniform(cmd.Fill), image.Point{})
		return
	}

	minX, minY, maxX, maxY := cmd.Path.Bounds()
	box := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
	if box.Empty() {
		return
	}
	fitted := imaging.Fill(cmd.Image, box.Dx(), box.Dy(), imaging.Center, imaging.Lanczos)

	// The rasterizer samples src in canvas coordinates.
	layer := image.NewNRGBA(c.dst.Bounds())
	draw.Draw(layer, box, fitted, image.Point{}, draw.Src)
	z.Draw(c.dst, c.dst.Bounds(), layer, image.Point{})
}

// ── Paths ──

func polygon(z *vector.Rasterizer, p clipgeom.Path) {
	pts := p.Points()
	if len(pts) < 3 {
		return
	}
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, pt := range pts[1:] {
		z.LineTo(float32(pt.X), float32(pt.Y))
	}
	z.ClosePath()
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

func roundRect(z *vector.Rasterizer, r image.Rectangle, radius float64) {
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	radius = math.Max(0, math.Min(radius, math.Min(x1-x0, y1-y0)/2))
	k := radius * kappa

	f := func(v float64) float32 { return float32(v) }
	z.MoveTo(f(x0+radius), f(y0))
	z.LineTo(f(x1-radius), f(y0))
	z.CubeTo(f(x1-radius+k), f(y0), f(x1), f(y0+radius-k), f(x1), f(y0+radius))
	z.LineTo(f(x1), f(y1-radius))
	z.CubeTo(f(x1), f(y1-radius+k), f(x1-radius+k), f(y1), f(x1-radius), f(y1))
	z.LineTo(f(x0+radius), f(y1))
	z.CubeTo(f(x0+radius-k), f(y1), f(x0), f(y1-radius+k), f(x0), f(y1-radius))
	z.LineTo(f(x0), f(y0+radius))
	z.CubeTo(f(x0), f(y0+radius-k), f(x0+radius-k), f(y0), f(x0+radius), f(y0))
	z.ClosePath()
}

// arc adds a closed ring segment from a0 to a1 (radians) between radii
// inner and outer around (cx, cy).
func arc(z *vector.Rasterizer, cx, cy, inner, outer, a0, a1 float64) {
	const steps = 48
	pt := func(r, a float64) (float32, float32) {
		return float32(cx + r*math.Cos(a)), float32(cy + r*math.Sin(a))
	}
	x, y := pt(outer, a0)
	z.MoveTo(x, y)
	for i := 1; i <= steps; i++ {
		x, y = pt(outer, a0+(a1-a0)*float64(i)/steps)
		z.LineTo(x, y)
	}
	for i := steps; i >= 0; i-- {
		x, y = pt(inner, a0+(a1-a0)*float64(i)/steps)
		z.LineTo(x, y)
	}
	z.ClosePath()
}
