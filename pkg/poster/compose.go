// compose.go - Builds the fixed z-ordered draw list for a poster.
// background -> gradient -> hero -> logo -> title/date -> badge ->
// clipped photo + outline -> identity block -> location footer.

package poster

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/pkg/clipgeom"
	"github.com/xob0t/GoPoster/pkg/colormath"
	"github.com/xob0t/GoPoster/pkg/layout"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

// BadgeText is the label of the attending badge before casing.
const BadgeText = "I'm attending"

var badgeLabel = cases.Upper(language.English).String(BadgeText)

// Images are the loaded assets of one descriptor. Nil means absent.
type Images struct {
	Hero  image.Image
	Logo  image.Image
	Photo image.Image
}

// ImagesFrom converts cache handles, keeping absent handles as untyped nil.
func ImagesFrom(hero, logo, photo *assets.Image) Images {
	conv := func(a *assets.Image) image.Image {
		if a == nil {
			return nil
		}
		return a
	}
	return Images{Hero: conv(hero), Logo: conv(logo), Photo: conv(photo)}
}

// Composer turns a descriptor into draw commands. It remembers the last
// hexagon so repeated composes at the same size share one path.
type Composer struct {
	hex clipgeom.Memo
}

// Compose is a convenience for a one-off Composer.
func Compose(desc Descriptor, plan layout.Plan, imgs Images, tf *typeface.Typeface) ([]Command, error) {
	var c Composer
	return c.Compose(desc, plan, imgs, tf)
}

// Compose builds the command list. Text faces are created fresh on every
// call. A nil typeface is refused with typeface.ErrNoTypeface.
func (c *Composer) Compose(desc Descriptor, plan layout.Plan, imgs Images, tf *typeface.Typeface) ([]Command, error) {
	if tf == nil {
		return nil, typeface.ErrNoTypeface
	}
	desc = desc.Normalized()
	b := &builder{
		w:     float64(desc.Canvas.Width),
		h:     float64(desc.Canvas.Height),
		plan:  plan,
		tf:    tf,
		brand: desc.Brand(),
	}
	b.fg = colormath.Contrast(b.brand)
	full := image.Rect(0, 0, desc.Canvas.Width, desc.Canvas.Height)

	// 1-2. Background and gradient.
	b.add(FillRect{L: LayerBackground, Rect: full, Color: b.brand})
	b.add(FillGradient{L: LayerGradient, Rect: full, Gradient: layout.GradientFor(plan.Variant, b.brand)})

	// 3-4. Hero and logo.
	if imgs.Hero != nil {
		b.add(DrawImage{L: LayerHero, Image: imgs.Hero, Dst: full, Fit: FitCover, Opacity: plan.HeroOpacity})
	}
	if imgs.Logo != nil {
		b.add(DrawImage{L: LayerLogo, Image: imgs.Logo, Dst: b.box(plan.Logo), Fit: FitContain, Opacity: 1})
	}

	// 5-6. Title and date.
	if err := b.title(desc.Title()); err != nil {
		return nil, err
	}
	if desc.Event.StartDate != "" {
		if err := b.line(LayerDate, plan.Date, FormatDateRange(desc.Event.StartDate, desc.Event.EndDate)); err != nil {
			return nil, err
		}
	}

	// 7. Badge.
	if err := b.badge(); err != nil {
		return nil, err
	}

	// 8-9. Photo or placeholder through the hexagon, then its outline.
	hex := c.hex.Hexagon(plan.Photo.CX*b.w, plan.Photo.CY*b.h, plan.Photo.R*b.w)
	b.add(ClipImage{
		L:     LayerPhoto,
		Path:  hex,
		Image: imgs.Photo,
		Fill:  colormath.WithAlpha(b.fg, plan.PlaceholderAlpha),
	})
	b.add(StrokePath{L: LayerOutline, Path: hex, Width: plan.Photo.Outline, Color: b.fg})

	// 10. Identity block.
	if err := b.line(LayerName, plan.Name, desc.User.Name); err != nil {
		return nil, err
	}
	if err := b.line(LayerJobTitle, plan.JobTitle, desc.User.Title); err != nil {
		return nil, err
	}
	if err := b.line(LayerCompany, plan.Company, desc.User.Company); err != nil {
		return nil, err
	}

	// 11. Footer.
	if err := b.line(LayerLocation, plan.Location, FormatLocation(desc.Event)); err != nil {
		return nil, err
	}
	return b.cmds, nil
}

type builder struct {
	w, h  float64
	plan  layout.Plan
	tf    *typeface.Typeface
	brand color.NRGBA
	fg    color.NRGBA
	cmds  []Command
}

func (b *builder) add(c Command) { b.cmds = append(b.cmds, c) }

func (b *builder) box(f layout.Box) image.Rectangle {
	return image.Rect(
		int(math.Round(f.X*b.w)), int(math.Round(f.Y*b.h)),
		int(math.Round((f.X+f.W)*b.w)), int(math.Round((f.Y+f.H)*b.h)),
	)
}

// textLeft returns where a line of the given width starts: centered in the
// canvas, or at the margin for left-aligned layouts.
func (b *builder) textLeft(width float64) float64 {
	if b.plan.Align == layout.AlignLeft {
		return b.plan.Margin * b.w
	}
	return (b.w - width) / 2
}

// available is the width text may occupy between the margins.
func (b *builder) available() float64 {
	return b.w * (1 - 2*b.plan.Margin)
}

// line adds a single line of text; empty strings add nothing.
func (b *builder) line(l Layer, slot layout.Text, s string) error {
	if s == "" {
		return nil
	}
	face, err := b.tf.Face(slot.Bold, slot.Size*b.w)
	if err != nil {
		return err
	}
	s = ellipsize(s, face, b.available())
	width, _ := text.Measure(s, face)
	b.add(DrawText{
		L:     l,
		Text:  s,
		Face:  face,
		X:     b.textLeft(width),
		Y:     slot.Y * b.h,
		Color: colormath.WithAlpha(b.fg, slot.Opacity),
	})
	return nil
}

// title wraps the event name to at most MaxLines lines. The last line keeps
// the slot baseline; earlier lines stack upward.
func (b *builder) title(s string) error {
	slot := b.plan.Title
	face, err := b.tf.Face(slot.Bold, slot.Size*b.w)
	if err != nil {
		return err
	}
	lines := wrapText(s, b.available(), face, max(slot.MaxLines, 1))
	lh := face.Metrics().LineHeight()
	baseline := slot.Y*b.h - lh*float64(len(lines)-1)
	col := colormath.WithAlpha(b.fg, slot.Opacity)
	for i, ln := range lines {
		width, _ := text.Measure(ln, face)
		b.add(DrawText{
			L:     LayerTitle,
			Text:  ln,
			Face:  face,
			X:     b.textLeft(width),
			Y:     baseline + lh*float64(i),
			Color: col,
		})
	}
	return nil
}

// badge adds the rounded pill and its label. The pill is at least wide
// enough for the label plus half its height of padding on each side.
func (b *builder) badge() error {
	bp := b.plan.Badge
	face, err := b.tf.Face(bp.Label.Bold, bp.Label.Size*b.w)
	if err != nil {
		return err
	}
	lw, _ := text.Measure(badgeLabel, face)

	bh := bp.Box.H * b.h
	bw := math.Max(bp.Box.W*b.w, lw+bh)
	bx := bp.Box.X * b.w
	if b.plan.Align == layout.AlignCenter {
		bx = (b.w - bw) / 2
	}
	by := bp.Box.Y * b.h
	rect := image.Rect(
		int(math.Round(bx)), int(math.Round(by)),
		int(math.Round(bx+bw)), int(math.Round(by+bh)),
	)
	b.add(FillRoundRect{L: LayerBadge, Rect: rect, Radius: bp.Radius * bh, Color: b.fg})

	m := face.Metrics()
	b.add(DrawText{
		L:     LayerBadgeLabel,
		Text:  badgeLabel,
		Face:  face,
		X:     bx + (bw-lw)/2,
		Y:     by + bh/2 + (m.Ascent-m.Descent)/2,
		Color: colormath.WithAlpha(b.brand, bp.Label.Opacity),
	})
	return nil
}

// wrapText breaks s into lines no wider than maxWidth. Words that do not
// fit in maxLines lines are dropped and the last line is ellipsized.
func wrapText(s string, maxWidth float64, face text.Face, maxLines int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	rest := words[1:]
	for len(rest) > 0 {
		candidate := current + " " + rest[0]
		if face.Advance(candidate) > maxWidth {
			if len(lines) == maxLines-1 {
				break
			}
			lines = append(lines, current)
			current = rest[0]
		} else {
			current = candidate
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		current += " " + strings.Join(rest, " ")
	}
	lines = append(lines, ellipsize(current, face, maxWidth))
	return lines
}

const ellipsis = "..."

// ellipsize trims s rune by rune until it fits, appending "...".
func ellipsize(s string, face text.Face, maxWidth float64) string {
	if maxWidth <= 0 || face.Advance(s) <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		cand := strings.TrimRight(string(r), " ") + ellipsis
		if face.Advance(cand) <= maxWidth {
			return cand
		}
	}
	return ellipsis
}
