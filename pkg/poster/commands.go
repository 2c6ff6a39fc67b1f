// commands.go - The ordered draw list a poster is built from.
// Each command carries its own geometry and paint; the Raster executes them
// in slice order, so slice order is the z-order.

package poster

import (
	"image"
	"image/color"

	"github.com/gogpu/gg/text"

	"github.com/xob0t/GoPoster/pkg/clipgeom"
	"github.com/xob0t/GoPoster/pkg/colormath"
)

// Layer names a slot in the fixed poster z-order.
type Layer int

const (
	LayerBackground Layer = iota
	LayerGradient
	LayerHero
	LayerLogo
	LayerTitle
	LayerDate
	LayerBadge
	LayerBadgeLabel
	LayerPhoto
	LayerOutline
	LayerName
	LayerJobTitle
	LayerCompany
	LayerLocation
)

var layerNames = [...]string{
	LayerBackground: "background",
	LayerGradient:   "gradient",
	LayerHero:       "hero",
	LayerLogo:       "logo",
	LayerTitle:      "title",
	LayerDate:       "date",
	LayerBadge:      "badge",
	LayerBadgeLabel: "badge-label",
	LayerPhoto:      "photo",
	LayerOutline:    "outline",
	LayerName:       "name",
	LayerJobTitle:   "job-title",
	LayerCompany:    "company",
	LayerLocation:   "location",
}

func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return "unknown"
	}
	return layerNames[l]
}

// Fit is how an image is scaled into its destination box.
type Fit int

const (
	FitCover   Fit = iota // fill the box, crop the overflow
	FitContain            // fit inside the box, anchored top-left
)

// Command is one draw operation.
type Command interface {
	Layer() Layer
}

// FillRect fills Rect with a solid color.
type FillRect struct {
	L     Layer
	Rect  image.Rectangle
	Color color.NRGBA
}

// FillGradient paints a linear gradient over Rect.
type FillGradient struct {
	L        Layer
	Rect     image.Rectangle
	Gradient colormath.Gradient
}

// DrawImage scales Image into Dst and composites it at Opacity.
type DrawImage struct {
	L       Layer
	Image   image.Image
	Dst     image.Rectangle
	Fit     Fit
	Opacity float64
}

// FillRoundRect fills a rounded rectangle.
type FillRoundRect struct {
	L      Layer
	Rect   image.Rectangle
	Radius float64
	Color  color.NRGBA
}

// ClipImage draws Image cover-fitted to the bounds of Path and masked by it.
// A nil Image fills the same clip with Fill instead.
type ClipImage struct {
	L     Layer
	Path  clipgeom.Path
	Image image.Image
	Fill  color.NRGBA
}

// StrokePath outlines Path with a band Width pixels wide centered on it.
type StrokePath struct {
	L     Layer
	Path  clipgeom.Path
	Width float64
	Color color.NRGBA
}

// DrawText draws one line of text with its baseline origin at (X, Y).
type DrawText struct {
	L     Layer
	Text  string
	Face  text.Face
	X, Y  float64
	Color color.NRGBA
}

func (c FillRect) Layer() Layer      { return c.L }
func (c FillGradient) Layer() Layer  { return c.L }
func (c DrawImage) Layer() Layer     { return c.L }
func (c FillRoundRect) Layer() Layer { return c.L }
func (c ClipImage) Layer() Layer     { return c.L }
func (c StrokePath) Layer() Layer    { return c.L }
func (c DrawText) Layer() Layer      { return c.L }

// Layers returns the layer of every command, in order.
func Layers(cmds []Command) []Layer {
	out := make([]Layer, len(cmds))
	for i, c := range cmds {
		out[i] = c.Layer()
	}
	return out
}
