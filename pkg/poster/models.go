// Package poster renders "I'm attending" posters from a JSON or YAML descriptor.
package poster

import (
	"image/color"
	"strings"

	"github.com/xob0t/GoPoster/pkg/colormath"
	"github.com/xob0t/GoPoster/pkg/layout"
)

// ── Descriptor types ──

// Descriptor is the whole input of one render. It is passed by value and
// never modified by the renderer.
type Descriptor struct {
	Canvas Canvas `json:"canvas" yaml:"canvas"`
	Event  Event  `json:"event" yaml:"event"`
	User   User   `json:"user" yaml:"user"`
	Layout string `json:"layout" yaml:"layout"` // "classic", "modern", "minimal" or "bold"
}

// Canvas defines output dimensions. Preset overrides explicit Width/Height.
type Canvas struct {
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty"`
}

// Event is the conference or meetup being attended.
type Event struct {
	Name       string `json:"name" yaml:"name"`
	StartDate  string `json:"startDate,omitempty" yaml:"startDate,omitempty"` // ISO date or RFC 3339
	EndDate    string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty"` // pre-joined; wins over City/Country
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
	LogoURL    string `json:"logoUrl,omitempty" yaml:"logoUrl,omitempty"`
	HeroURL    string `json:"heroUrl,omitempty" yaml:"heroUrl,omitempty"`
	BrandColor string `json:"brandColor,omitempty" yaml:"brandColor,omitempty"` // "#rrggbb"
}

// User is the attendee.
type User struct {
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title" yaml:"title"`
	Company  string `json:"company,omitempty" yaml:"company,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty" yaml:"photoUrl,omitempty"`
}

// ── Canvas presets ──

// Presets maps preset names to [width, height].
var Presets = map[string][2]int{
	"instagram_square":   {1080, 1080},
	"instagram_portrait": {1080, 1350},
	"instagram_story":    {1080, 1920},
	"linkedin":           {1200, 1200},
	"twitter":            {1600, 900},
	"a4_150dpi":          {1240, 1754},
}

const (
	// DefaultPreset is used when the descriptor sets no usable size.
	DefaultPreset = "instagram_portrait"

	// MaxSide bounds either canvas side.
	MaxSide = 8192

	// FallbackTitle replaces a missing event name.
	FallbackTitle = "Event Name"
)

// Normalized returns a copy of d with canvas defaults applied and strings
// trimmed. Everything the renderer reads goes through it.
func (d Descriptor) Normalized() Descriptor {
	if dims, ok := Presets[d.Canvas.Preset]; ok {
		d.Canvas.Width = dims[0]
		d.Canvas.Height = dims[1]
	}
	if d.Canvas.Width <= 0 || d.Canvas.Height <= 0 {
		dims := Presets[DefaultPreset]
		d.Canvas.Width, d.Canvas.Height = dims[0], dims[1]
	}
	d.Canvas.Width = min(d.Canvas.Width, MaxSide)
	d.Canvas.Height = min(d.Canvas.Height, MaxSide)

	trim := func(ps ...*string) {
		for _, p := range ps {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(&d.Event.Name, &d.Event.StartDate, &d.Event.EndDate, &d.Event.Location,
		&d.Event.City, &d.Event.Country, &d.Event.LogoURL, &d.Event.HeroURL, &d.Event.BrandColor,
		&d.User.Name, &d.User.Title, &d.User.Company, &d.User.PhotoURL)
	return d
}

// Brand returns the parsed brand color, or the default brand when it is
// missing or malformed.
func (d Descriptor) Brand() color.NRGBA {
	return colormath.BrandOrDefault(d.Event.BrandColor)
}

// Variant returns the resolved layout variant.
func (d Descriptor) Variant() layout.Variant {
	return layout.ParseVariant(d.Layout)
}

// Title returns the event name or the fallback title.
func (d Descriptor) Title() string {
	if d.Event.Name == "" {
		return FallbackTitle
	}
	return d.Event.Name
}

// ImageURLs lists the hero, logo and photo URLs in that order. Empty
// entries are kept so indexes stay stable.
func (d Descriptor) ImageURLs() []string {
	return []string{d.Event.HeroURL, d.Event.LogoURL, d.User.PhotoURL}
}
