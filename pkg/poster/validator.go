// validator.go - Report descriptor fields that will fall back to defaults.

package poster

import (
	"fmt"
	"strings"

	"github.com/xob0t/GoPoster/pkg/colormath"
	"github.com/xob0t/GoPoster/pkg/layout"
)

// Validate lists every field the renderer will silently replace or skip.
// Returns warnings (never fatal errors); any descriptor can be rendered.
func Validate(desc Descriptor) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	c := desc.Canvas
	switch {
	case c.Preset != "":
		if _, ok := Presets[c.Preset]; !ok {
			warn("unknown canvas preset %q; using %s", c.Preset, DefaultPreset)
		}
	case c.Width <= 0 || c.Height <= 0:
		warn("canvas size not set; using %s", DefaultPreset)
	case c.Width > MaxSide || c.Height > MaxSide:
		warn("canvas %dx%d exceeds %d px; sides will be clamped", c.Width, c.Height, MaxSide)
	}

	if desc.Layout != "" && !layout.Known(desc.Layout) {
		warn("unknown layout %q; using %s", desc.Layout, layout.Modern)
	}

	if strings.TrimSpace(desc.Event.Name) == "" {
		warn("event name is empty; title will read %q", FallbackTitle)
	}
	if bc := strings.TrimSpace(desc.Event.BrandColor); bc == "" {
		warn("brand color not set; using %s", colormath.Hex(colormath.DefaultBrand))
	} else if _, err := colormath.ParseHex(bc); err != nil {
		warn("brand color %q is invalid; using %s", bc, colormath.Hex(colormath.DefaultBrand))
	}

	start, end := strings.TrimSpace(desc.Event.StartDate), strings.TrimSpace(desc.Event.EndDate)
	if start == "" && end != "" {
		warn("end date without a start date; date line will be omitted")
	}
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, ok := parseDate(d); !ok {
			warn("date %q is not ISO formatted; it will be shown as written", d)
		}
	}
	if s, ok1 := parseDate(start); ok1 {
		if e, ok2 := parseDate(end); ok2 && e.Before(s) {
			warn("end date %s is before start date %s", end, start)
		}
	}

	if strings.TrimSpace(desc.User.Name) == "" {
		warn("attendee name is empty")
	}
	if strings.TrimSpace(desc.User.PhotoURL) == "" {
		warn("no attendee photo; the hexagon will show a placeholder")
	}
	return warnings
}
