package delaunay

import "math"

// ThiessenPolygon is one cell of a bounded Voronoi diagram: the hub is the
// input site, the edges trace the cell boundary in order. An open polygon
// is one that was clipped against the bounding rectangle because its site
// lies on the convex hull of the sample set.
type ThiessenPolygon struct {
	hub   *Vertex
	edges []*Edge
	open  bool
}

func newThiessenPolygon(hub *Vertex, edges []*Edge, open bool) *ThiessenPolygon {
	e := make([]*Edge, len(edges))
	copy(e, edges)
	return &ThiessenPolygon{hub: hub, edges: e, open: open}
}

// Vertex returns the polygon's defining site.
func (p *ThiessenPolygon) Vertex() *Vertex { return p.hub }

// Edges returns the boundary edges in order. The edges are live
// references; callers must not modify them.
func (p *ThiessenPolygon) Edges() []*Edge { return p.edges }

// IsOpen reports whether the cell was clipped to the bounding rectangle.
func (p *ThiessenPolygon) IsOpen() bool { return p.open }

// Area returns the area of the cell as clipped to the bounding rectangle.
// An open polygon's true Voronoi cell is unbounded; the value here is the
// area of its clipped region, whose boundary the builder closed off with
// synthetic border edges.
func (p *ThiessenPolygon) Area() float64 {
	area := 0.0
	for _, e := range p.edges {
		a := e.A()
		b := e.B()
		area += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(area) / 2
}
