package delaunay

import (
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"
)

// Voronoi is a bounded (limited) Voronoi diagram derived from the dual of
// a Delaunay mesh. A true Voronoi diagram covers the whole plane; this one
// clips every cell to a rectangular domain, so cells whose sites sit on
// the convex hull come out as open polygons closed off by synthetic border
// edges.
//
// Construction walks the triangulation once to compute a circumcenter per
// triangle, emits one Voronoi edge per interior triangulation edge (the
// segment between the adjacent circumcenters, clipped with Liang-Barsky)
// and one outward perpendicular ray per hull edge, then threads the pieces
// into per-site polygons, inserting border and corner segments where the
// clipping broke the chain.
type Voronoi struct {
	bounds       Rect
	sampleBounds Rect
	xmin, xmax   float64
	ymin, ymax   float64

	edgePool   *EdgePool
	circleList []*Vertex
	polygons   []*ThiessenPolygon

	maxRadius float64

	log *zap.Logger
}

// VoronoiOptions controls construction of a Voronoi from a raw vertex
// list.
type VoronoiOptions struct {
	// Bounds fixes the clipping rectangle. It must fully contain the
	// sample points. When nil, the sample bounds are expanded on each
	// side by a quarter of the mean triangulation edge length.
	Bounds *Rect

	// EnableAdjustments and AdjustmentThreshold are accepted for
	// compatibility with perimeter-triangle collapsing; the adjustment
	// pass is not implemented and the options have no effect.
	EnableAdjustments   bool
	AdjustmentThreshold float64

	// EnableAutomaticColorAssignment colors the sites so that no two
	// adjacent cells share a color index.
	EnableAutomaticColorAssignment bool

	// Logger receives construction milestones; nil disables logging.
	Logger *zap.Logger
}

// NewVoronoiFromVertices triangulates the vertex list internally and
// builds the bounded Voronoi diagram over it. The intermediate mesh is
// disposed before returning.
func NewVoronoiFromVertices(vertexList []*Vertex, options *VoronoiOptions) (v *Voronoi, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = handlePanicRecover(r)
		}
	}()
	if vertexList == nil {
		return nil, ErrNilInput
	}
	if len(vertexList) < 3 {
		return nil, ErrInsufficientVertices
	}

	sampleBounds := Rect{vertexList[0].X, vertexList[0].Y, vertexList[0].X, vertexList[0].Y}
	for _, vtx := range vertexList {
		sampleBounds.Add(vtx.X, vtx.Y)
	}

	// estimate a nominal point spacing assuming roughly uniform density;
	// 0.866 comes from the geometry of a regular hexagonal tessellation
	area := sampleBounds.Width() * sampleBounds.Height()
	nominalPointSpacing := math.Sqrt(area / float64(len(vertexList)) / 0.866)
	mesh := NewMesh(nominalPointSpacing)
	if _, err := mesh.AddVertices(vertexList, nil); err != nil {
		return nil, err
	}
	if !mesh.IsBootstrapped() {
		return nil, ErrNotBootstrapped
	}

	opts := options
	if opts == nil {
		opts = &VoronoiOptions{}
	}
	if opts.Bounds != nil && !opts.Bounds.ContainsRect(sampleBounds) {
		mesh.Dispose()
		return nil, ErrBoundsTooSmall
	}

	v = &Voronoi{
		bounds:       sampleBounds,
		sampleBounds: sampleBounds,
		edgePool:     NewEdgePool(),
		maxRadius:    -1,
		log:          opts.Logger,
	}
	v.buildStructure(mesh, opts)
	if opts.EnableAutomaticColorAssignment {
		v.assignColors(mesh)
	}
	mesh.Dispose()
	return v, nil
}

// NewVoronoi builds the bounded Voronoi diagram dual to an existing
// bootstrapped mesh. The mesh is left intact.
func NewVoronoi(mesh *Mesh) (v *Voronoi, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = handlePanicRecover(r)
		}
	}()
	if mesh == nil {
		return nil, ErrNilInput
	}
	if !mesh.IsBootstrapped() {
		return nil, ErrNotBootstrapped
	}

	sampleBounds, _ := mesh.Bounds()
	v = &Voronoi{
		bounds:       sampleBounds,
		sampleBounds: sampleBounds,
		edgePool:     NewEdgePool(),
		maxRadius:    -1,
	}
	v.buildStructure(mesh, &VoronoiOptions{})
	return v, nil
}

// computeZBorder parameterizes a point known to lie on the given border:
// 0 bottom, 1 right, 2 top, 3 left, with the fraction advancing
// counterclockwise so z covers [0, 4) around the perimeter.
func (v *Voronoi) computeZBorder(border int, x, y float64) float64 {
	switch border {
	case 0:
		return (x - v.xmin) / (v.xmax - v.xmin)
	case 1:
		return 1 + (y-v.ymin)/(v.ymax-v.ymin)
	case 2:
		return 3 - (x-v.xmin)/(v.xmax-v.xmin)
	default:
		return 4 - (y-v.ymin)/(v.ymax-v.ymin)
	}
}

// computeZ classifies a point against the borders, returning the
// perimeter parameter when it lies on one and NaN when it is interior.
// Prefer computeZBorder whenever the border is already known.
func (v *Voronoi) computeZ(x, y float64) float64 {
	if y == v.ymin {
		if v.xmin <= x && x <= v.xmax {
			return v.computeZBorder(0, x, y)
		}
	} else if x == v.xmax {
		if v.ymin <= y && y <= v.ymax {
			return v.computeZBorder(1, x, y)
		}
	} else if y == v.ymax {
		if v.xmin <= x && x <= v.xmax {
			return v.computeZBorder(2, x, y)
		}
	} else if x == v.xmin {
		if v.ymin <= y && y <= v.ymax {
			return v.computeZBorder(3, x, y)
		}
	}
	return math.NaN()
}

// liangBarsky clips the segment between two circumcenters to the bounds,
// allocating the clipped Voronoi edge. Returns nil when the segment lies
// entirely outside. Clipped endpoints are synthetic vertices whose z
// carries the border parameter.
func (v *Voronoi) liangBarsky(v0, v1 *Vertex) *Edge {
	x0 := v0.X
	y0 := v0.Y
	x1 := v1.X
	y1 := v1.Y

	t0 := 0.0
	t1 := 1.0
	iBorder0 := -1
	iBorder1 := -1
	xDelta := x1 - x0
	yDelta := y1 - y0

	for iBorder := 0; iBorder < 4; iBorder++ {
		var p, q float64
		switch iBorder {
		case 0: // bottom
			p = -yDelta
			q = -(v.ymin - y0)
		case 1: // right
			p = xDelta
			q = v.xmax - x0
		case 2: // top
			p = yDelta
			q = v.ymax - y0
		default: // left
			p = -xDelta
			q = -(v.xmin - x0)
		}

		if p == 0 {
			// parallel to this border; entirely outside when q < 0
			if q < 0 {
				return nil
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return nil
			}
			if r > t0 {
				t0 = r
				iBorder0 = iBorder
			}
		} else {
			if r < t0 {
				return nil
			}
			if r < t1 {
				t1 = r
				iBorder1 = iBorder
			}
		}
	}

	p0 := v0
	if iBorder0 != -1 {
		x := x0 + t0*xDelta
		y := y0 + t0*yDelta
		z := v.computeZBorder(iBorder0, x, y)
		p0 = NewVertex(x, y, z, v0.Index())
		p0.SetSynthetic(true)
	}

	p1 := v1
	if iBorder1 != -1 {
		x := x0 + t1*xDelta
		y := y0 + t1*yDelta
		z := v.computeZBorder(iBorder1, x, y)
		p1 = NewVertex(x, y, z, v1.Index())
		p1.SetSynthetic(true)
	}

	return v.edgePool.AllocateEdge(p0, p1)
}

// buildPart emits the Voronoi edge dual to one interior triangulation
// edge: the segment between the circumcenters of the two adjacent
// triangles, clipped to the bounds.
func (v *Voronoi) buildPart(e *Edge, center []*Vertex, part []*Edge) {
	d := e.Dual()
	eIndex := e.Index()
	dIndex := d.Index()
	v0 := center[dIndex]
	v1 := center[eIndex]
	if v0 == nil || v1 == nil {
		// a ghost triangle on one side; the perimeter ray covers it
		return
	}
	n := v.liangBarsky(v0, v1)
	if n != nil {
		part[eIndex] = n
		part[dIndex] = n.Dual()
	}
}

// buildPerimeterRay emits the Voronoi edge for a hull edge: the infinite
// ray from the interior triangle's circumcenter, perpendicular to the
// hull edge and directed outward, clipped to the bounds. The ray runs
// from the border inward to the center so polygon threading sees a
// consistent direction.
func (v *Voronoi) buildPerimeterRay(e *Edge, center []*Vertex, part []*Edge) {
	index := e.Index()
	vCenter := center[index]
	a := e.A()
	b := e.B()

	// the ray direction is the right-hand perpendicular of the hull edge
	eX := b.X - a.X
	eY := b.Y - a.Y
	u := math.Sqrt(eX*eX + eY*eY)
	uX := eY / u
	uY := -eX / u
	cX := vCenter.X
	cY := vCenter.Y
	tX := math.Inf(1)
	tY := math.Inf(1)
	x := math.NaN()
	y := math.NaN()
	var z float64
	// a ray parallel to an axis can only cross one border, so the zero
	// components drop out with their t left infinite
	if uX < 0 {
		tX = (v.xmin - cX) / uX
		x = v.xmin
	} else if uX > 0 {
		tX = (v.xmax - cX) / uX
		x = v.xmax
	}
	if uY < 0 {
		tY = (v.ymin - cY) / uY
		y = v.ymin
	} else if uY > 0 {
		tY = (v.ymax - cY) / uY
		y = v.ymax
	}
	if tX < tY {
		y = tX*uY + cY
		s := (y - v.ymin) / (v.ymax - v.ymin)
		if uX < 0 {
			z = 4 - s // left border, descending
		} else {
			z = 1 + s // right border, ascending
		}
	} else {
		x = tY*uX + cX
		s := (x - v.xmin) / (v.xmax - v.xmin)
		if uY < 0 {
			z = s
		} else {
			z = 3 - s
		}
	}

	// the negated index is a diagnostic aid only
	vOut := NewVertex(x, y, z, -vCenter.Index())
	vOut.SetSynthetic(true)

	n := v.edgePool.AllocateEdge(vOut, vCenter)
	part[index] = n
	part[index^1] = n.Dual()
}

// computeOutcode stamps a circumcenter's color index with its
// Cohen-Sutherland outcode relative to the bounds, with on-border treated
// as out. The stamps make trivial rejection available to analysis code.
func (v *Voronoi) computeOutcode(c *Vertex) {
	code := 0
	if c.X <= v.xmin {
		code = 0b0001
	} else if c.X >= v.xmax {
		code = 0b0010
	}
	if c.Y <= v.ymin {
		code |= 0b0100
	} else if c.Y >= v.ymax {
		code |= 0b1000
	}
	c.SetColorIndex(code)
}

func mindex(e, f, r *Edge) int {
	index := e.Index()
	if f.Index() < index {
		index = f.Index()
	}
	if r.Index() < index {
		index = r.Index()
	}
	return index
}

// buildCenter computes the circumcircle of the triangle left of e, if it
// has not been computed already, and maps all three of the triangle's
// edge indices to the center vertex. The edge iterator touches each
// triangle up to three times; the center is computed on the first visit.
func (v *Voronoi) buildCenter(e *Edge, centers []*Vertex, g *GeometricOperations) {
	index := e.Index()
	if centers[index] != nil {
		return
	}
	a := e.A()
	b := e.B()
	f := e.Forward()
	r := e.Reverse()
	c := f.B()
	if c == nil {
		return
	}
	x, y, radius, ok := g.Circumcircle(a, b, c)
	if !ok {
		fatalf("voronoi: triangle does not yield a circumcircle")
	}
	z := v.computeZ(x, y)
	center := NewVertex(x, y, z, mindex(e, f, r))
	center.SetSynthetic(true)
	centers[e.Index()] = center
	centers[f.Index()] = center
	centers[r.Index()] = center
	v.circleList = append(v.circleList, center)
	if radius > v.maxRadius {
		v.maxRadius = radius
	}
	v.bounds.Add(x, y)
}

func (v *Voronoi) buildStructure(mesh *Mesh, opts *VoronoiOptions) {
	maxEdgeIndex := mesh.pool.MaximumIndex() + 1
	visited := make([]bool, maxEdgeIndex)
	centers := make([]*Vertex, maxEdgeIndex)
	parts := make([]*Edge, maxEdgeIndex)
	var scratch []*Edge
	perimeter := mesh.Perimeter()

	// circumcenters first; also collect the mean edge length in case the
	// default bounds expansion is needed
	sumEdgeLength := 0.0
	nEdgeLength := 0
	mesh.pool.Iterate(func(e *Edge) bool {
		if e.A() == nil || e.B() == nil {
			index := e.Index()
			visited[index] = true
			visited[index^1] = true
			return true
		}
		sumEdgeLength += e.Length()
		nEdgeLength++
		v.buildCenter(e, centers, mesh.geoOp)
		v.buildCenter(e.Dual(), centers, mesh.geoOp)
		return true
	})

	if opts.Bounds == nil {
		avgLen := sumEdgeLength / float64(nEdgeLength)
		v.xmin = v.sampleBounds.XMin - avgLen/4
		v.xmax = v.sampleBounds.XMax + avgLen/4
		v.ymin = v.sampleBounds.YMin - avgLen/4
		v.ymax = v.sampleBounds.YMax + avgLen/4
	} else {
		if !opts.Bounds.ContainsRect(v.sampleBounds) {
			panic(&InternalError{err: ErrBoundsTooSmall})
		}
		v.xmin = opts.Bounds.XMin
		v.xmax = opts.Bounds.XMax
		v.ymin = opts.Bounds.YMin
		v.ymax = opts.Bounds.YMax
	}
	v.bounds = Rect{v.xmin, v.ymin, v.xmax, v.ymax}

	for _, c := range v.circleList {
		v.computeOutcode(c)
	}

	// hull edges give rise to outward rays
	for _, p := range perimeter {
		visited[p.Index()] = true
		v.buildPerimeterRay(p, centers, parts)
	}

	mesh.pool.Iterate(func(e *Edge) bool {
		eIndex := e.Index()
		if visited[eIndex] {
			return true
		}
		visited[eIndex] = true
		visited[e.Dual().Index()] = true
		v.buildPart(e, centers, parts)
		return true
	})

	// polygon assembly; the ghost-side pinwheel edges never produce a
	// polygon and are pre-marked
	for i := range visited {
		visited[i] = false
	}
	for _, e := range perimeter {
		f := e.ForwardFromDual()
		index := f.Index()
		visited[index] = true
		visited[index^1] = true
	}

	// open polygons first: every perimeter site anchors one
	for _, e := range perimeter {
		if !visited[e.Index()] {
			hub := e.A()
			scratch = scratch[:0]
			scratch = v.buildPolygon(e, visited, parts, scratch)
			v.polygons = append(v.polygons, newThiessenPolygon(hub, scratch, true))
		}
	}
	mesh.pool.Iterate(func(e *Edge) bool {
		for _, side := range [2]*Edge{e, e.Dual()} {
			index := side.Index()
			hub := side.A()
			if hub == nil {
				visited[index] = true
			} else if !visited[index] {
				scratch = scratch[:0]
				scratch = v.buildPolygon(side, visited, parts, scratch)
				v.polygons = append(v.polygons, newThiessenPolygon(hub, scratch, false))
			}
		}
		return true
	})

	if v.log != nil {
		v.log.Info("voronoi structure built",
			zap.Int("polygons", len(v.polygons)),
			zap.Int("circumcenters", len(v.circleList)),
			zap.Int("edges", v.edgePool.Size()))
	}
}

// buildPolygon pinwheels around the site collecting the Voronoi edges
// dual to each mesh edge, linking consecutive pieces. A nil part marks a
// discontinuity from clipping; the link is completed at the next valid
// piece.
func (v *Voronoi) buildPolygon(e *Edge, visited []bool, parts []*Edge, scratch []*Edge) []*Edge {
	var prior, first *Edge
	e.Pinwheel(func(p *Edge) bool {
		visited[p.Index()] = true
		q := parts[p.Index()]
		if q == nil {
			return true
		}
		if first == nil {
			first = q
			prior = q
			return true // "first" is added when the loop closes
		}
		scratch = v.linkEdges(prior, q, scratch)
		prior = q
		return true
	})
	if first == nil {
		return scratch
	}
	return v.linkEdges(prior, first, scratch)
}

// linkEdges connects the end of one polygon piece to the start of the
// next. Pieces that share a circumcenter vertex link directly. Pieces
// interrupted by the border are joined with synthetic border edges,
// walking corner to corner when the two endpoints lie on different
// borders. Borders are numbered bottom, right, top, left; a wrap past the
// lower-left corner adds 4 to the ending parameter.
func (v *Voronoi) linkEdges(prior, q *Edge, scratch []*Edge) []*Edge {
	v0 := prior.B()
	v1 := q.A()
	z0 := v0.Z
	z1 := v1.Z
	if math.IsNaN(z0) {
		// interior endpoint: v0 is the same circumcenter as v1
		scratch = append(scratch, q)
		prior.SetForward(q)
		return scratch
	}

	// nearly equal parameters can come out of clipping round-off; a
	// direct link suffices
	test := math.Abs(z0 - z1)
	if test < 1.0e-9 || test > 4-1.0e-9 {
		scratch = append(scratch, q)
		prior.SetForward(q)
		return scratch
	}

	iLast := int(z0)
	iFirst := int(z1)
	if iFirst < iLast {
		// wraps around the lower-left corner
		iFirst += 4
	}

	for i := iLast + 1; i <= iFirst; i++ {
		var x, y float64
		switch i & 0x03 {
		case 0: // lower-left
			x = v.xmin
			y = v.ymin
		case 1:
			x = v.xmax
			y = v.ymin
		case 2:
			x = v.xmax
			y = v.ymax
		default:
			x = v.xmin
			y = v.ymax
		}

		corner := NewVertex(x, y, math.NaN(), -1)
		corner.SetSynthetic(true)
		n := v.edgePool.AllocateEdge(v0, corner)
		n.SetSynthetic(true)
		v0 = corner

		scratch = append(scratch, n)
		n.SetReverse(prior)
		prior = n
	}

	n := v.edgePool.AllocateEdge(v0, v1)
	n.SetSynthetic(true)
	scratch = append(scratch, n)
	scratch = append(scratch, q)
	n.SetReverse(prior)
	q.SetReverse(n)
	return scratch
}

// assignColors greedily colors the sites so adjacent cells differ,
// using the triangulation's adjacency while it is still available.
func (v *Voronoi) assignColors(mesh *Mesh) {
	for _, p := range v.polygons {
		p.hub.SetColorIndex(-1)
	}
	for _, p := range v.polygons {
		hub := p.hub
		var used uint32
		// find an edge whose origin is the hub, then pinwheel neighbors
		mesh.pool.Iterate(func(e *Edge) bool {
			var start *Edge
			if e.A() == hub {
				start = e
			} else if e.B() == hub {
				start = e.Dual()
			} else {
				return true
			}
			start.Pinwheel(func(pe *Edge) bool {
				if b := pe.B(); b != nil && b.ColorIndex() >= 0 {
					used |= 1 << uint(b.ColorIndex())
				}
				return true
			})
			return false
		})
		color := 0
		for used&(1<<uint(color)) != 0 {
			color++
		}
		hub.SetColorIndex(color)
	}
}

// Bounds returns the clipping rectangle of the diagram.
func (v *Voronoi) Bounds() Rect { return v.bounds }

// SampleBounds returns the bounding rectangle of the input sites.
func (v *Voronoi) SampleBounds() Rect { return v.sampleBounds }

// Edges returns the Voronoi edges. The edges are live references;
// callers must not modify them.
func (v *Voronoi) Edges() []*Edge { return v.edgePool.Edges() }

// Vertices returns the site vertex of each polygon.
func (v *Voronoi) Vertices() []*Vertex {
	list := make([]*Vertex, 0, len(v.polygons))
	for _, p := range v.polygons {
		list = append(list, p.hub)
	}
	return list
}

// VoronoiVertices returns the vertices the builder manufactured: the
// circumcenters of the triangulation. Border and corner vertices are
// reachable through the edges.
func (v *Voronoi) VoronoiVertices() []*Vertex {
	list := make([]*Vertex, len(v.circleList))
	copy(list, v.circleList)
	return list
}

// Polygons returns the cells of the diagram.
func (v *Voronoi) Polygons() []*ThiessenPolygon {
	list := make([]*ThiessenPolygon, len(v.polygons))
	copy(list, v.polygons)
	return list
}

// ContainingPolygon returns the cell containing (x, y), or nil when the
// point is outside the bounded domain. By the Voronoi definition this is
// simply the cell whose site is nearest.
func (v *Voronoi) ContainingPolygon(x, y float64) *ThiessenPolygon {
	var minP *ThiessenPolygon
	if !v.bounds.Contains(x, y) {
		return nil
	}
	minD := math.Inf(1)
	for _, p := range v.polygons {
		d := p.hub.DistanceSq(x, y)
		if d < minD {
			minD = d
			minP = p
		}
	}
	return minP
}

// PrintDiagnostics writes summary statistics for the diagram.
func (v *Voronoi) PrintDiagnostics(out io.Writer) {
	nClosed := 0
	sumArea := 0.0
	for _, p := range v.polygons {
		if !p.IsOpen() {
			sumArea += p.Area()
			nClosed++
		}
	}
	nOpen := len(v.polygons) - nClosed
	fmt.Fprintf(out, "Limited Voronoi Diagram\n")
	fmt.Fprintf(out, "   Polygons:   %8d\n", len(v.polygons))
	fmt.Fprintf(out, "     Open:     %8d\n", nOpen)
	fmt.Fprintf(out, "     Closed:   %8d\n", nClosed)
	if nClosed > 0 {
		fmt.Fprintf(out, "     Avg Area: %13.4f\n", sumArea/float64(nClosed))
	}
	fmt.Fprintf(out, "   Vertices:   %8d\n", len(v.circleList))
	fmt.Fprintf(out, "   Edges:      %8d\n", v.edgePool.Size())
	fmt.Fprintf(out, "   Voronoi Bounds\n")
	fmt.Fprintf(out, "      x min:  %16.4f\n", v.bounds.XMin)
	fmt.Fprintf(out, "      y min:  %16.4f\n", v.bounds.YMin)
	fmt.Fprintf(out, "      x max:  %16.4f\n", v.bounds.XMax)
	fmt.Fprintf(out, "      y max:  %16.4f\n", v.bounds.YMax)
	fmt.Fprintf(out, "   Max Circumcircle Radius:  %6.4f\n", v.maxRadius)
	fmt.Fprintf(out, "   Data Sample Bounds\n")
	fmt.Fprintf(out, "      x min:  %16.4f\n", v.sampleBounds.XMin)
	fmt.Fprintf(out, "      y min:  %16.4f\n", v.sampleBounds.YMin)
	fmt.Fprintf(out, "      x max:  %16.4f\n", v.sampleBounds.XMax)
	fmt.Fprintf(out, "      y max:  %16.4f\n", v.sampleBounds.YMax)
}
