package delaunay

import "math"

// Bootstrapping selects three non-collinear vertices to seed the mesh. A
// triangle with a healthy area makes the early insertions numerically
// robust, so candidates are scored on the absolute value of their
// orientation determinant. For small inputs every triple is examined; for
// larger inputs a bounded number of random triples is tried first, with the
// exhaustive scan as the fallback. Failure is not an error: the caller
// retains the vertices and retries as more arrive.
type bootstrapUtility struct {
	thresholds Thresholds
	geoOp      *GeometricOperations
}

// minimum acceptable orientation magnitude, scaled like the half-plane
// determinant
func (b *bootstrapUtility) minArea() float64 {
	return b.thresholds.halfPlaneThreshold * 2
}

const bootstrapRandomAttempts = 200
const bootstrapExhaustiveLimit = 64

// bootstrap returns a counterclockwise non-collinear triple from the list,
// or ok == false when none exists.
func (b *bootstrapUtility) bootstrap(list []*Vertex, rng interface{ Intn(int) int }) (best [3]*Vertex, ok bool) {
	n := len(list)
	if n < 3 {
		return best, false
	}

	if n > bootstrapExhaustiveLimit {
		var t [3]*Vertex
		bestScore := 0.0
		for attempt := 0; attempt < bootstrapRandomAttempts; attempt++ {
			i := rng.Intn(n)
			j := rng.Intn(n)
			k := rng.Intn(n)
			if i == j || j == k || i == k {
				continue
			}
			t[0], t[1], t[2] = list[i], list[j], list[k]
			score := math.Abs(b.geoOp.Orientation(t[0], t[1], t[2]))
			if score > bestScore {
				bestScore = score
				best = t
			}
		}
		if bestScore > b.minArea() {
			return orient(b.geoOp, best), true
		}
		// fall through to the exhaustive scan
	}

	bestScore := 0.0
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				score := math.Abs(b.geoOp.Orientation(list[i], list[j], list[k]))
				if score > bestScore {
					bestScore = score
					best = [3]*Vertex{list[i], list[j], list[k]}
				}
			}
		}
	}
	if bestScore > b.minArea() {
		return orient(b.geoOp, best), true
	}
	return best, false
}

// orient ensures the triple is counterclockwise.
func orient(g *GeometricOperations, t [3]*Vertex) [3]*Vertex {
	if g.Orientation(t[0], t[1], t[2]) < 0 {
		t[1], t[2] = t[2], t[1]
	}
	return t
}
