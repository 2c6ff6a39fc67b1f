package colormath

import "image/color"

// Stop is one color at a position along a gradient, 0 at the start and 1 at the end.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Gradient is an ordered set of stops laid along Angle.
//
// Angle follows the CSS linear-gradient convention: degrees clockwise from
// "to top", so 90 runs left to right and 180 runs top to bottom.
type Gradient struct {
	Angle float64
	Stops []Stop
}

// TwoStop builds a gradient running from one color at offset 0 to another at offset 1.
func TwoStop(angle float64, from, to color.NRGBA) Gradient {
	return Gradient{
		Angle: angle,
		Stops: []Stop{{Offset: 0, Color: from}, {Offset: 1, Color: to}},
	}
}

// Valid reports whether g has at least two stops, starts at 0, ends at 1
// and has strictly increasing offsets.
func (g Gradient) Valid() bool {
	if len(g.Stops) < 2 {
		return false
	}
	if g.Stops[0].Offset != 0 || g.Stops[len(g.Stops)-1].Offset != 1 {
		return false
	}
	for i := 1; i < len(g.Stops); i++ {
		if g.Stops[i].Offset <= g.Stops[i-1].Offset {
			return false
		}
	}
	return true
}
