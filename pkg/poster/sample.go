// sample.go - Example descriptor and field reference for the CLI.

package poster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xob0t/GoPoster/pkg/layout"
)

// SampleDescriptorJSON returns a starter descriptor.
func SampleDescriptorJSON() string {
	return `{
  "canvas": { "preset": "instagram_portrait" },
  "event": {
    "name": "React Summit 2025",
    "startDate": "2025-06-13",
    "endDate": "2025-06-17",
    "city": "Amsterdam",
    "country": "Netherlands",
    "brandColor": "#E74C3C",
    "logoUrl": "",
    "heroUrl": ""
  },
  "user": {
    "name": "Ada Lovelace",
    "title": "Engineer",
    "company": "Analytical Engines Ltd",
    "photoUrl": ""
  },
  "layout": "bold"
}`
}

var schemaFields = []struct{ section, field, desc string }{
	{"canvas", "preset", "named size; wins over width/height"},
	{"canvas", "width", "pixels, clamped to 8192"},
	{"canvas", "height", "pixels, clamped to 8192"},
	{"event", "name", "title text, wrapped to two lines"},
	{"event", "startDate", "ISO date (2006-01-02); omitted means no date line"},
	{"event", "endDate", "ISO date; collapses into the start when equal"},
	{"event", "location", "footer text; overrides city/country"},
	{"event", "city", "footer, joined with country"},
	{"event", "country", "footer, joined with city"},
	{"event", "logoUrl", "image fitted into the logo box"},
	{"event", "heroUrl", "full-bleed image at low opacity"},
	{"event", "brandColor", "#RRGGBB background and accent"},
	{"user", "name", "attendee name"},
	{"user", "title", "job title"},
	{"user", "company", "company line"},
	{"user", "photoUrl", "image clipped to the hexagon"},
}

// FormatSchema describes the descriptor fields, layouts and canvas presets.
func FormatSchema() string {
	var b strings.Builder
	b.WriteString("Descriptor fields (JSON or YAML):\n")
	section := ""
	for _, f := range schemaFields {
		if f.section != section {
			section = f.section
			fmt.Fprintf(&b, "\n  [%s]\n", section)
		}
		fmt.Fprintf(&b, "    %-12s %s\n", f.field+":", f.desc)
	}

	b.WriteString("\n  layout:      ")
	names := make([]string, 0, len(layout.Variants()))
	for _, v := range layout.Variants() {
		names = append(names, v.String())
	}
	b.WriteString(strings.Join(names, ", "))
	fmt.Fprintf(&b, " (default %s)\n", layout.Modern)

	b.WriteString("\nCanvas presets:\n")
	presets := make([]string, 0, len(Presets))
	for name := range Presets {
		presets = append(presets, name)
	}
	sort.Strings(presets)
	for _, name := range presets {
		size := Presets[name]
		fmt.Fprintf(&b, "    %-20s %dx%d\n", name, size[0], size[1])
	}
	return b.String()
}
