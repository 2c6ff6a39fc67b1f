package clipgeom

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestHexagonVertices(t *testing.T) {
	p := Hexagon(100, 100, 50)

	if p.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", p.Len())
	}
	if !p.Closed() {
		t.Fatal("hexagon should be closed")
	}

	h := 50 * math.Sqrt(3) / 2
	want := []Point{
		{100, 50},
		{100 + h, 75},
		{100 + h, 125},
		{100, 150},
		{100 - h, 125},
		{100 - h, 75},
	}
	if diff := cmp.Diff(want, p.Points(), approx); diff != "" {
		t.Errorf("vertices mismatch (-want +got):\n%s", diff)
	}
}

func TestHexagonAngularSpacing(t *testing.T) {
	p := Hexagon(100, 100, 50)
	pts := p.Points()
	for i := range pts {
		a := math.Atan2(pts[i].Y-100, pts[i].X-100)
		next := pts[(i+1)%len(pts)]
		b := math.Atan2(next.Y-100, next.X-100)
		d := math.Mod(b-a+2*math.Pi, 2*math.Pi) * 180 / math.Pi
		if math.Abs(d-60) > 1e-9 {
			t.Errorf("step %d: angle %.12f, want 60", i, d)
		}
		if r := math.Hypot(pts[i].X-100, pts[i].Y-100); math.Abs(r-50) > 1e-9 {
			t.Errorf("vertex %d at radius %f, want 50", i, r)
		}
	}
}

func TestHexagonZeroRadius(t *testing.T) {
	p := Hexagon(10, 20, 0)
	if p.Len() != 6 || !p.Closed() {
		t.Fatalf("degenerate hexagon: len=%d closed=%v", p.Len(), p.Closed())
	}
	for _, pt := range p.Points() {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
			t.Fatalf("NaN vertex %+v", pt)
		}
	}
	svg := p.SVG()
	if !strings.HasPrefix(svg, "M ") || !strings.HasSuffix(svg, " Z") {
		t.Errorf("SVG() = %q, want closed path data", svg)
	}
	if got := strings.Count(svg, " L "); got != 5 {
		t.Errorf("SVG() has %d line segments, want 5", got)
	}
}

func TestPointsReturnsCopy(t *testing.T) {
	p := Hexagon(0, 0, 10)
	pts := p.Points()
	pts[0].X = 999
	if p.Points()[0].X == 999 {
		t.Fatal("Points() leaked internal storage")
	}
}

func TestBounds(t *testing.T) {
	minX, minY, maxX, maxY := Hexagon(100, 100, 50).Bounds()
	h := 50 * math.Sqrt(3) / 2
	got := []float64{minX, minY, maxX, maxY}
	want := []float64{100 - h, 50, 100 + h, 150}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Bounds mismatch (-want +got):\n%s", diff)
	}
}

func TestOffsetMovesEdgesByDistance(t *testing.T) {
	p := Hexagon(0, 0, 40)
	apothem := func(q Path) float64 {
		pts := q.Points()
		mx := (pts[0].X + pts[1].X) / 2
		my := (pts[0].Y + pts[1].Y) / 2
		return math.Hypot(mx, my)
	}
	base := apothem(p)
	if got := apothem(p.Offset(1.5)) - base; math.Abs(got-1.5) > 1e-9 {
		t.Errorf("outer offset moved edge %f, want 1.5", got)
	}
	if got := base - apothem(p.Offset(-1.5)); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("inner offset moved edge %f, want 1.5", got)
	}
}

func TestReverse(t *testing.T) {
	p := Hexagon(0, 0, 10)
	r := p.Reverse()
	pts, rpts := p.Points(), r.Points()
	for i := range pts {
		if pts[i] != rpts[len(rpts)-1-i] {
			t.Fatalf("vertex %d not mirrored", i)
		}
	}
}

func TestMemoReusesPath(t *testing.T) {
	var m Memo
	a := m.Hexagon(100, 100, 50)
	b := m.Hexagon(100, 100, 50)
	if m.Builds() != 1 {
		t.Fatalf("Builds() = %d, want 1", m.Builds())
	}
	if &a.points[0] != &b.points[0] {
		t.Error("memo returned a different path instance for the same key")
	}
	m.Hexagon(100, 100, 60)
	if m.Builds() != 2 {
		t.Errorf("Builds() = %d after radius change, want 2", m.Builds())
	}
}
