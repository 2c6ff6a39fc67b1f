package layout

import (
	"image/color"

	"github.com/xob0t/GoPoster/pkg/colormath"
)

// Align is the horizontal text alignment of a layout.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
)

func (a Align) String() string {
	if a == AlignLeft {
		return "left"
	}
	return "center"
}

// Text places one line (or block) of text. Y is the baseline as a fraction
// of canvas height; Size is the font size as a fraction of canvas width.
type Text struct {
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Bold     bool    `json:"bold"`
	Opacity  float64 `json:"opacity"`
	MaxLines int     `json:"maxLines,omitempty"`
}

// Box is a rectangle in canvas fractions. X and W are fractions of width,
// Y and H fractions of height.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Badge is the rounded "attending" pill. Radius is a fraction of its height.
type Badge struct {
	Box    Box     `json:"box"`
	Radius float64 `json:"radius"`
	Label  Text    `json:"label"`
}

// Photo is the hexagon slot. R is a fraction of canvas width so the hexagon
// stays regular on any aspect ratio.
type Photo struct {
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	R       float64 `json:"r"`
	Outline float64 `json:"outline"`
}

// Plan is everything the compositor needs to place layers for one variant.
// All positions are canvas fractions, so one plan serves every export size.
type Plan struct {
	Variant       Variant `json:"variant"`
	GradientAngle float64 `json:"gradientAngle"`
	Align         Align   `json:"-"`
	Margin        float64 `json:"margin"`

	Logo     Box   `json:"logo"`
	Title    Text  `json:"title"`
	Date     Text  `json:"date"`
	Badge    Badge `json:"badge"`
	Photo    Photo `json:"photo"`
	Name     Text  `json:"name"`
	JobTitle Text  `json:"jobTitle"`
	Company  Text  `json:"company"`
	Location Text  `json:"location"`

	// HeroOpacity and PlaceholderAlpha are the fixed paint strengths of the
	// hero overlay and the empty photo slot.
	HeroOpacity      float64 `json:"heroOpacity"`
	PlaceholderAlpha float64 `json:"placeholderAlpha"`
}

// Resolve returns the plan for v. Unknown values resolve like Modern.
func Resolve(v Variant) Plan {
	p := base()
	p.Variant = v

	switch v {
	case Classic:
		p.GradientAngle = 180
		p.Align = AlignLeft
		p.Title.Y = 0.18
		p.Date.Y = 0.25
		p.Badge.Box = Box{X: p.Margin, Y: 0.30, W: 0.40, H: 0.06}
		p.Name.Y, p.JobTitle.Y, p.Company.Y = 0.68, 0.73, 0.77
		p.Location.Y = 0.92
	case Minimal:
		p.GradientAngle = 180
		p.Align = AlignLeft
		p.Title.Y = 0.22
		p.Title.Size = 0.065
		p.Date.Y = 0.28
		p.Badge.Box = Box{X: p.Margin, Y: 0.32, W: 0.40, H: 0.06}
		p.Badge.Radius = 0.25
		p.Name.Y, p.JobTitle.Y, p.Company.Y = 0.72, 0.77, 0.81
		p.Location.Y = 0.94
	case Bold:
		p.GradientAngle = 160
		p.Title.Y = 0.19
		p.Title.Size = 0.085
		p.Date.Y = 0.26
		p.Badge.Box = Box{X: 0.275, Y: 0.31, W: 0.45, H: 0.06}
		p.Badge.Label.Size = 0.034
		p.Name.Y, p.JobTitle.Y, p.Company.Y = 0.70, 0.76, 0.80
		p.Name.Size = 0.072
		p.Location.Y = 0.93
	default:
		p.Variant = Modern
	}
	return p
}

// ResolveName resolves a layout by name, falling back to Modern.
func ResolveName(name string) Plan {
	return Resolve(ParseVariant(name))
}

// base is the Modern plan; other variants override parts of it.
func base() Plan {
	return Plan{
		Variant:       Modern,
		GradientAngle: 135,
		Align:         AlignCenter,
		Margin:        0.08,

		Logo:  Box{X: 0.06, Y: 0.04, W: 0.22, H: 0.08},
		Title: Text{Y: 0.20, Size: 0.07, Bold: true, Opacity: 1, MaxLines: 2},
		Date:  Text{Y: 0.27, Size: 0.035, Opacity: 0.8},
		Badge: Badge{
			Box:    Box{X: 0.29, Y: 0.31, W: 0.42, H: 0.06},
			Radius: 0.5,
			Label:  Text{Size: 0.03, Bold: true, Opacity: 1},
		},
		Photo:    Photo{CX: 0.5, CY: 0.5, R: 0.15, Outline: 3},
		Name:     Text{Y: 0.70, Size: 0.06, Bold: true, Opacity: 1},
		JobTitle: Text{Y: 0.75, Size: 0.038, Opacity: 0.9},
		Company:  Text{Y: 0.79, Size: 0.034, Opacity: 0.7},
		Location: Text{Y: 0.93, Size: 0.032, Opacity: 0.6},

		HeroOpacity:      0.15,
		PlaceholderAlpha: 0.2,
	}
}

// GradientFor derives the full-canvas overlay for v from a single brand color.
func GradientFor(v Variant, brand color.NRGBA) colormath.Gradient {
	p := Resolve(v)
	angle := p.GradientAngle
	switch p.Variant {
	case Modern:
		return colormath.TwoStop(angle, brand, colormath.WithAlpha(brand, 0.7))
	case Minimal:
		return colormath.TwoStop(angle, brand, brand)
	case Bold:
		return colormath.TwoStop(angle, colormath.Darken(brand, 0.8), brand)
	default:
		return colormath.TwoStop(angle, brand, colormath.Lighten(brand, 40))
	}
}
