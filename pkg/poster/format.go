package poster

import (
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

func parseDate(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDateRange renders the event dates for the date line.
//
//	2025-03-03                -> Mar 3, 2025
//	2025-03-03 .. 2025-03-05  -> Mar 3 - 5, 2025
//	2025-03-30 .. 2025-04-02  -> Mar 30 - Apr 2, 2025
//	2025-12-30 .. 2026-01-02  -> Dec 30, 2025 - Jan 2, 2026
//
// Strings that are not ISO dates are shown as given. An empty start yields "".
func FormatDateRange(start, end string) string {
	if start == "" {
		return ""
	}
	s, okS := parseDate(start)
	if !okS {
		if end == "" {
			return start
		}
		return start + " - " + end
	}
	if end == "" {
		return s.Format("Jan 2, 2006")
	}
	e, okE := parseDate(end)
	if !okE {
		return s.Format("Jan 2, 2006") + " - " + end
	}

	switch {
	case s.Year() == e.Year() && s.Month() == e.Month() && s.Day() == e.Day():
		return s.Format("Jan 2, 2006")
	case s.Year() == e.Year() && s.Month() == e.Month():
		return s.Format("Jan 2") + " - " + e.Format("2, 2006")
	case s.Year() == e.Year():
		return s.Format("Jan 2") + " - " + e.Format("Jan 2, 2006")
	default:
		return s.Format("Jan 2, 2006") + " - " + e.Format("Jan 2, 2006")
	}
}

// FormatLocation returns the pre-joined location when set, otherwise the
// non-empty parts of city and country joined by ", ".
func FormatLocation(e Event) string {
	if loc := strings.TrimSpace(e.Location); loc != "" {
		return loc
	}
	var parts []string
	for _, p := range []string{e.City, e.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
