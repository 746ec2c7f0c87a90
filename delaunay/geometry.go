package delaunay

import (
	"math"
	"math/big"
)

// GeometricOperations bundles the orientation and in-circle predicates with
// the thresholds that decide when their double-precision results cannot be
// trusted. Results whose magnitude falls inside the uncertainty band are
// recomputed with extended precision (big.Float with a wide mantissa), so
// the returned sign is always reliable even though the magnitude near zero
// is not. The extended path is rare for well-conditioned inputs; the
// counters record how often it fires and how often it disagrees with the
// fast path.
//
// There is no package-level instance. Each mesh owns its own, so thresholds
// derived from one data set never leak into another.
type GeometricOperations struct {
	thresholds Thresholds

	nHalfPlaneCalls    int
	nHalfPlaneExtended int
	nInCircleCalls     int
	nInCircleExtended  int
	nInCircleConflicts int
}

func NewGeometricOperations(t Thresholds) *GeometricOperations {
	return &GeometricOperations{thresholds: t}
}

// extendedPrec is the mantissa width for the fallback computations. 256
// bits is far beyond what two rounds of float64 products can require.
const extendedPrec = 256

// HalfPlane computes the orientation of point P relative to the directed
// line AB: positive when P lies to the left, negative to the right, zero on
// the line. Anti-symmetry holds exactly: HalfPlane(a,b,p) == -HalfPlane(b,a,p).
func (g *GeometricOperations) HalfPlane(ax, ay, bx, by, px, py float64) float64 {
	g.nHalfPlaneCalls++
	h := (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	t := g.thresholds.halfPlaneThreshold
	if -t < h && h < t {
		g.nHalfPlaneExtended++
		h = halfPlaneExtended(ax, ay, bx, by, px, py)
	}
	return h
}

func halfPlaneExtended(ax, ay, bx, by, px, py float64) float64 {
	bf := func(v float64) *big.Float { return new(big.Float).SetPrec(extendedPrec).SetFloat64(v) }
	sub := func(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(extendedPrec).Sub(a, b) }
	mul := func(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(extendedPrec).Mul(a, b) }

	ux := sub(bf(bx), bf(ax))
	uy := sub(bf(by), bf(ay))
	vx := sub(bf(px), bf(ax))
	vy := sub(bf(py), bf(ay))
	h := sub(mul(ux, vy), mul(uy, vx))
	f, _ := h.Float64()
	return f
}

// Orientation is HalfPlane applied to three vertices: twice the signed area
// of triangle ABC, positive for counterclockwise order.
func (g *GeometricOperations) Orientation(a, b, c *Vertex) float64 {
	return g.HalfPlane(a.X, a.Y, b.X, b.Y, c.X, c.Y)
}

// Area returns the signed area of triangle ABC, positive for
// counterclockwise order.
func (g *GeometricOperations) Area(a, b, c *Vertex) float64 {
	return g.Orientation(a, b, c) / 2
}

// InCircle returns a positive value when d lies strictly inside the
// circumcircle of the counterclockwise triangle (a, b, c), negative when
// outside, and zero when the four points are cocircular.
func (g *GeometricOperations) InCircle(a, b, c, d *Vertex) float64 {
	return g.InCircleXY(a.X, a.Y, b.X, b.Y, c.X, c.Y, d.X, d.Y)
}

// InCircleXY is InCircle on raw coordinates.
func (g *GeometricOperations) InCircleXY(ax, ay, bx, by, cx, cy, dx, dy float64) float64 {
	g.nInCircleCalls++
	a11 := ax - dx
	a12 := ay - dy
	a21 := bx - dx
	a22 := by - dy
	a31 := cx - dx
	a32 := cy - dy

	h := (a11*a11+a12*a12)*(a21*a32-a31*a22) +
		(a21*a21+a22*a22)*(a31*a12-a11*a32) +
		(a31*a31+a32*a32)*(a11*a22-a21*a12)

	t := g.thresholds.inCircleThreshold
	if -t < h && h < t {
		g.nInCircleExtended++
		h2 := h
		h = inCircleExtended(ax, ay, bx, by, cx, cy, dx, dy)
		if h == 0 {
			if h2 != 0 {
				g.nInCircleConflicts++
			}
		} else if h*h2 <= 0 {
			g.nInCircleConflicts++
		}
	}
	return h
}

func inCircleExtended(ax, ay, bx, by, cx, cy, dx, dy float64) float64 {
	bf := func(v float64) *big.Float { return new(big.Float).SetPrec(extendedPrec).SetFloat64(v) }
	sub := func(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(extendedPrec).Sub(a, b) }
	add := func(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(extendedPrec).Add(a, b) }
	mul := func(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(extendedPrec).Mul(a, b) }

	a11 := sub(bf(ax), bf(dx))
	a12 := sub(bf(ay), bf(dy))
	a21 := sub(bf(bx), bf(dx))
	a22 := sub(bf(by), bf(dy))
	a31 := sub(bf(cx), bf(dx))
	a32 := sub(bf(cy), bf(dy))

	m1 := add(mul(a11, a11), mul(a12, a12))
	m2 := add(mul(a21, a21), mul(a22, a22))
	m3 := add(mul(a31, a31), mul(a32, a32))

	d1 := sub(mul(a21, a32), mul(a31, a22))
	d2 := sub(mul(a31, a12), mul(a11, a32))
	d3 := sub(mul(a11, a22), mul(a21, a12))

	h := add(add(mul(m1, d1), mul(m2, d2)), mul(m3, d3))
	f, _ := h.Float64()
	return f
}

// Circumcircle computes the center and radius of the circle through three
// vertices. It reports false when the points are collinear within the
// half-plane threshold.
func (g *GeometricOperations) Circumcircle(a, b, c *Vertex) (x, y, radius float64, ok bool) {
	// shift to a's frame to keep the products well conditioned
	bx := b.X - a.X
	by := b.Y - a.Y
	cx := c.X - a.X
	cy := c.Y - a.Y
	d := 2 * (bx*cy - by*cx)
	if math.Abs(d) < g.thresholds.halfPlaneThreshold {
		return 0, 0, 0, false
	}
	hb := bx*bx + by*by
	hc := cx*cx + cy*cy
	ux := (cy*hb - by*hc) / d
	uy := (bx*hc - cx*hb) / d
	return ux + a.X, uy + a.Y, math.Sqrt(ux*ux + uy*uy), true
}

// ExtendedPrecisionCounts returns the in-circle diagnostic counters: total
// calls, extended-precision recomputations, and sign conflicts between the
// two paths.
func (g *GeometricOperations) ExtendedPrecisionCounts() (calls, extended, conflicts int) {
	return g.nInCircleCalls, g.nInCircleExtended, g.nInCircleConflicts
}

func (g *GeometricOperations) resetCounts() {
	g.nHalfPlaneCalls = 0
	g.nHalfPlaneExtended = 0
	g.nInCircleCalls = 0
	g.nInCircleExtended = 0
	g.nInCircleConflicts = 0
}
