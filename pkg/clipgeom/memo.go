package clipgeom

import "sync"

type hexKey struct {
	cx, cy, r float64
}

// Memo keeps the last hexagon it built and hands back the same Path until
// the center or radius changes.
type Memo struct {
	mu    sync.Mutex
	key   hexKey
	path  Path
	valid bool
	built int
}

// Hexagon returns the cached hexagon for (cx, cy, r), rebuilding it only on a key change.
func (m *Memo) Hexagon(cx, cy, r float64) Path {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := hexKey{cx: cx, cy: cy, r: r}
	if m.valid && m.key == k {
		return m.path
	}
	m.key = k
	m.path = Hexagon(cx, cy, r)
	m.valid = true
	m.built++
	return m.path
}

// Builds reports how many times a path has been computed.
func (m *Memo) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.built
}
