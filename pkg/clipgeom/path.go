// Package clipgeom builds the closed polygon paths used to mask and outline
// the attendee photo.
//
// A Path is immutable once built: the same value can be handed to the clip
// and to the outline stroke, which keeps both pixel-identical.
package clipgeom

import (
	"math"
	"strconv"
	"strings"
)

// Point is a vertex in canvas pixels.
type Point struct {
	X, Y float64
}

// Path is a closed polygon. The last vertex always connects back to the first.
type Path struct {
	points []Point
	center Point
	sides  int
}

// Hexagon returns the photo mask: a regular hexagon with its first vertex
// straight above the center (start angle -90 degrees).
func Hexagon(cx, cy, r float64) Path {
	return RegularPolygon(6, cx, cy, r, -90)
}

// RegularPolygon emits n vertices at startDeg + i*360/n degrees, each at
// distance r from (cx, cy). A zero radius yields n coincident points, which is
// still a valid closed path.
func RegularPolygon(n int, cx, cy, r, startDeg float64) Path {
	if n < 3 {
		n = 3
	}
	step := 360 / float64(n)
	pts := make([]Point, n)
	for i := range pts {
		theta := (startDeg + step*float64(i)) * math.Pi / 180
		pts[i] = Point{
			X: cx + r*math.Cos(theta),
			Y: cy + r*math.Sin(theta),
		}
	}
	return Path{points: pts, center: Point{X: cx, Y: cy}, sides: n}
}

// Points returns a copy of the vertices in drawing order.
func (p Path) Points() []Point {
	out := make([]Point, len(p.points))
	copy(out, p.points)
	return out
}

// Len returns the number of vertices.
func (p Path) Len() int { return len(p.points) }

// Closed reports whether the path forms a closed ring. Every non-empty Path does.
func (p Path) Closed() bool { return len(p.points) >= 3 }

// Center returns the point the polygon was built around.
func (p Path) Center() Point { return p.center }

// Bounds returns the axis-aligned bounding box of the vertices.
func (p Path) Bounds() (minX, minY, maxX, maxY float64) {
	if len(p.points) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, pt := range p.points {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return minX, minY, maxX, maxY
}

// Offset grows (d > 0) or shrinks (d < 0) the polygon by d pixels measured
// along its apothem, so an edge moves exactly d away from where it was.
// Vertices are pushed out from the center by d / cos(pi/n).
func (p Path) Offset(d float64) Path {
	if p.sides == 0 {
		return p
	}
	k := d / math.Cos(math.Pi/float64(p.sides))
	pts := make([]Point, len(p.points))
	for i, pt := range p.points {
		dx, dy := pt.X-p.center.X, pt.Y-p.center.Y
		r := math.Hypot(dx, dy)
		if r == 0 {
			pts[i] = pt
			continue
		}
		s := math.Max(r+k, 0) / r
		pts[i] = Point{X: p.center.X + dx*s, Y: p.center.Y + dy*s}
	}
	return Path{points: pts, center: p.center, sides: p.sides}
}

// Reverse returns the same ring traversed in the opposite direction.
func (p Path) Reverse() Path {
	pts := make([]Point, len(p.points))
	for i, pt := range p.points {
		pts[len(pts)-1-i] = pt
	}
	return Path{points: pts, center: p.center, sides: p.sides}
}

// SVG renders the path as SVG path data: "M x y L x y ... Z".
func (p Path) SVG() string {
	if len(p.points) == 0 {
		return ""
	}
	var b strings.Builder
	for i, pt := range p.points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
	}
	b.WriteString(" Z")
	return b.String()
}
