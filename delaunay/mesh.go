package delaunay

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"go.uber.org/zap"
)

// Mesh is an incremental Delaunay triangulation over caller-supplied
// vertices, with optional linear constraints (forming a constrained
// Delaunay triangulation) added after the vertex load.
//
// A mesh is stateful and single-threaded: it is not safe for concurrent
// mutation, and reads are safe only while no writer is active. The mesh
// references the caller's vertices rather than copying them, so they must
// stay alive for the mesh's lifetime.
//
// Until three non-collinear vertices have been supplied the mesh is not
// bootstrapped: vertices are buffered, Add returns false, and queries
// return empty results, except Vertices, which returns the buffered input.
type Mesh struct {
	// buffered vertices held until the mesh bootstraps
	vertexList []*Vertex

	// merger groups created for coincident insertions
	coincidenceList []*VertexMergerGroup

	constraintList []*Constraint

	pool *EdgePool

	// the end position of the most recent search, the walk's warm start
	searchEdge *Edge

	isLocked       bool
	isDisposed     bool
	isBootstrapped bool

	bounds    Rect
	hasBounds bool

	thresholds Thresholds
	geoOp      *GeometricOperations
	walker     *StochasticLawsonsWalk
	rng        *rand.Rand

	vertexMergeRule ResolutionRule

	nVerticesInserted        int
	nEdgesReplaced           int
	maxEdgesReplacedByInsert int
	nSyntheticVertices       int

	log *zap.Logger
}

// NewMesh creates a mesh with numeric thresholds derived from the given
// nominal point spacing. The spacing is an estimate of the typical distance
// between samples; anything within an order of magnitude or two of the true
// value works.
func NewMesh(nominalPointSpacing float64) *Mesh {
	t := NewThresholds(nominalPointSpacing)
	g := NewGeometricOperations(t)
	return &Mesh{
		pool:       NewEdgePool(),
		thresholds: t,
		geoOp:      g,
		walker:     NewStochasticLawsonsWalk(g),
		rng:        rand.New(rand.NewSource(walkSeed)),
		bounds:     Rect{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)},
	}
}

// SetDiagnosticLogger installs an optional structured logger. Only
// operation milestones are logged, never per-edge work. A nil logger
// disables logging.
func (m *Mesh) SetDiagnosticLogger(log *zap.Logger) { m.log = log }

// NominalPointSpacing returns the spacing the thresholds were derived from.
func (m *Mesh) NominalPointSpacing() float64 { return m.thresholds.nominalPointSpacing }

// VertexTolerance returns the coincidence tolerance: vertices closer than
// this merge rather than insert.
func (m *Mesh) VertexTolerance() float64 { return m.thresholds.vertexTolerance }

// IsBootstrapped reports whether the mesh holds a valid triangulation.
func (m *Mesh) IsBootstrapped() bool { return m.isBootstrapped }

// SyntheticVertexCount returns the number of vertices the mesh itself has
// manufactured (conformity-restoration midpoints).
func (m *Mesh) SyntheticVertexCount() int { return m.nSyntheticVertices }

// PreAllocateEdges grows the edge pool ahead of a bulk load of n vertices.
func (m *Mesh) PreAllocateEdges(n int) {
	m.pool.PreAllocate(n * 3)
}

// SetResolutionRule sets the rule used to resolve the z values of merged
// coincident vertices, and re-resolves existing groups.
func (m *Mesh) SetResolutionRule(rule ResolutionRule) {
	m.vertexMergeRule = rule
	for _, g := range m.coincidenceList {
		g.SetResolutionRule(rule)
	}
}

func (m *Mesh) lockError() error {
	if m.isDisposed {
		return ErrDisposed
	}
	return ErrLocked
}

// Add inserts a single vertex. The return value reports whether the mesh
// is bootstrapped, not whether the vertex changed the triangulation:
// vertices coincident with existing ones are merged silently.
func (m *Mesh) Add(v *Vertex) (bootstrapped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = handlePanicRecover(r)
		}
	}()
	if m.isLocked {
		return m.isBootstrapped, m.lockError()
	}
	if v == nil {
		return m.isBootstrapped, ErrNilInput
	}
	m.nVerticesInserted++
	if m.isBootstrapped {
		m.addWithInsertOrAppend(v)
		return true, nil
	}
	m.vertexList = append(m.vertexList, v)
	if m.bootstrap(m.vertexList) {
		if len(m.vertexList) > 3 {
			// the bootstrap used three vertices from the list but left
			// them in place; insertion recognizes and skips them
			for _, vertex := range m.vertexList {
				m.addWithInsertOrAppend(vertex)
			}
		}
		m.vertexList = nil
		return true, nil
	}
	return false, nil
}

// AddVertices inserts a list of vertices, with optional progress
// monitoring. Cancellation is cooperative: the monitor's flag is polled
// between insertions and the engine returns cleanly after the vertex in
// flight. The return value reports whether the mesh is bootstrapped.
func (m *Mesh) AddVertices(list []*Vertex, monitor ProgressMonitor) (bootstrapped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = handlePanicRecover(r)
		}
	}()
	if m.isLocked {
		return m.isBootstrapped, m.lockError()
	}
	if len(list) == 0 {
		return m.isBootstrapped, nil
	}

	reportThreshold := 0
	if monitor != nil {
		monitor.ReportProgress(0)
		interval := monitor.ReportingIntervalPercent()
		reportThreshold = len(list) * interval / 100
		if reportThreshold < 1 {
			reportThreshold = 1
		}
	}

	m.nVerticesInserted += len(list)
	aList := list
	aListIsOwnCopy := false
	if !m.isBootstrapped {
		if m.vertexList != nil {
			m.vertexList = append(m.vertexList, list...)
			aList = m.vertexList
			aListIsOwnCopy = true
		}
		if !m.bootstrap(aList) {
			// keep a private copy: the caller's slice is not ours to hold
			if !aListIsOwnCopy {
				m.vertexList = append(m.vertexList, list...)
			}
			return false, nil
		}
	}

	m.PreAllocateEdges(len(aList))
	sinceReport := 0
	for i, v := range aList {
		m.addWithInsertOrAppend(v)
		sinceReport++
		if monitor != nil && sinceReport >= reportThreshold {
			sinceReport = 0
			monitor.ReportProgress(100 * (i + 1) / len(aList))
			if monitor.IsCanceled() {
				break
			}
		}
	}
	m.vertexList = nil

	if m.log != nil {
		m.log.Info("bulk vertex load complete",
			zap.Int("vertices", m.nVerticesInserted),
			zap.Int("edges", m.pool.Size()),
			zap.Int("maxReplacementsPerInsert", m.maxEdgesReplacedByInsert))
	}
	return true, nil
}

// bootstrap builds the initial three-vertex mesh: one interior triangle
// plus three ghost edges linking the hull to the virtual vertex at
// infinity.
func (m *Mesh) bootstrap(list []*Vertex) bool {
	bu := &bootstrapUtility{thresholds: m.thresholds, geoOp: m.geoOp}
	v, ok := bu.bootstrap(list, m.rng)
	if !ok {
		return false
	}

	e1 := m.pool.AllocateEdge(v[0], v[1])
	e2 := m.pool.AllocateEdge(v[1], v[2])
	e3 := m.pool.AllocateEdge(v[2], v[0])
	e4 := m.pool.AllocateEdge(v[0], nil)
	e5 := m.pool.AllocateEdge(v[1], nil)
	e6 := m.pool.AllocateEdge(v[2], nil)

	ie1 := e1.Dual()
	ie2 := e2.Dual()
	ie3 := e3.Dual()
	ie4 := e4.Dual()
	ie5 := e5.Dual()
	ie6 := e6.Dual()

	e1.SetForward(e2)
	e2.SetForward(e3)
	e3.SetForward(e1)
	e4.SetForward(ie5)
	e5.SetForward(ie6)
	e6.SetForward(ie4)

	ie1.SetForward(e4)
	ie2.SetForward(e5)
	ie3.SetForward(e6)
	ie4.SetForward(ie3)
	ie5.SetForward(ie1)
	ie6.SetForward(ie2)

	m.isBootstrapped = true
	for i := 0; i < 3; i++ {
		m.extendBounds(v[i].X, v[i].Y)
	}
	if m.log != nil {
		m.log.Info("mesh bootstrapped",
			zap.String("a", v[0].Label()),
			zap.String("b", v[1].Label()),
			zap.String("c", v[2].Label()))
	}
	return true
}

func (m *Mesh) extendBounds(x, y float64) {
	m.hasBounds = true
	m.bounds.Add(x, y)
}

// Bounds returns the bounding rectangle of the vertices added so far. The
// second return is false before any vertex has been incorporated.
func (m *Mesh) Bounds() (Rect, bool) {
	return m.bounds, m.hasBounds
}

// Edges returns the base half of every allocated edge pair. The edges are
// the live objects used by the mesh; callers must not modify them.
func (m *Mesh) Edges() []*Edge {
	if !m.isBootstrapped {
		return nil
	}
	return m.pool.Edges()
}

// Perimeter returns the convex-hull edges in counterclockwise order. The
// edges are live references; callers must not modify them.
func (m *Mesh) Perimeter() []*Edge {
	if !m.isBootstrapped {
		return nil
	}
	var pList []*Edge
	g := m.pool.StartingGhostEdge()
	if g == nil {
		return nil
	}
	s0 := g.Reverse()
	s := s0
	for {
		pList = append(pList, s.Dual())
		s = s.Forward().Forward().Dual().Reverse()
		if s == s0 {
			break
		}
	}
	return pList
}

// markBits is a per-half-edge visited set keyed by edge index.
type markBits []uint32

func newMarkBits(maxIndex int) markBits {
	return make(markBits, (maxIndex+31)/32)
}

func (b markBits) get(e *Edge) bool {
	i := e.Index()
	return b[i>>5]&(1<<(uint(i)&31)) != 0
}

func (b markBits) set(e *Edge) {
	i := e.Index()
	b[i>>5] |= 1 << (uint(i) & 31)
}

// CountTriangles surveys the mesh, returning the triangle count and the
// statistics of their areas. Ghost triangles are not tabulated.
func (m *Mesh) CountTriangles() TriangleCount {
	tc := newTriangleCount()
	if !m.isBootstrapped {
		return tc
	}
	marks := newMarkBits(m.pool.MaximumIndex())
	m.pool.Iterate(func(e *Edge) bool {
		if e.A() == nil || e.B() == nil {
			marks.set(e)
			marks.set(e.Dual())
			return true
		}
		m.countTriangleEdge(&tc, marks, e)
		m.countTriangleEdge(&tc, marks, e.Dual())
		return true
	})
	return tc
}

func (m *Mesh) countTriangleEdge(tc *TriangleCount, marks markBits, e *Edge) {
	if marks.get(e) {
		return
	}
	marks.set(e)
	f := e.Forward()
	if f.B() == nil {
		// ghost triangle, not tabulated
		return
	}
	r := e.Reverse()
	if marks.get(f) || marks.get(r) {
		return
	}
	marks.set(f)
	marks.set(r)
	tc.tabulate(m.geoOp.Area(e.A(), f.A(), r.A()))
}

// Vertices returns the unique vertices currently participating in the
// triangulation. Coincident input vertices appear through their merger
// group representative. Order is arbitrary.
func (m *Mesh) Vertices() []*Vertex {
	if !m.isBootstrapped {
		// unbootstrapped meshes still hold the buffered input
		out := make([]*Vertex, len(m.vertexList))
		copy(out, m.vertexList)
		return out
	}
	marks := newMarkBits(m.pool.MaximumIndex())
	var vList []*Vertex
	collect := func(e *Edge) {
		if e.A() == nil || marks.get(e) {
			return
		}
		marks.set(e)
		vList = append(vList, e.A())
		// mark every other edge that starts at this vertex
		c := e
		for {
			c = c.Forward().Forward().Dual()
			if c == e {
				break
			}
			marks.set(c)
		}
	}
	m.pool.Iterate(func(e *Edge) bool {
		collect(e)
		collect(e.Dual())
		return true
	})
	return vList
}

// IsPointInsideTin reports whether (x, y) lies inside the convex hull of
// the triangulation.
func (m *Mesh) IsPointInsideTin(x, y float64) bool {
	if !m.isBootstrapped {
		return false
	}
	if m.searchEdge == nil {
		m.searchEdge = m.pool.StartingEdge()
	}
	m.searchEdge = m.walker.FindEnclosing(m.searchEdge, x, y)
	return m.searchEdge.Forward().B() != nil
}

// Constraints returns the constraints added to the mesh.
func (m *Mesh) Constraints() []*Constraint {
	out := make([]*Constraint, len(m.constraintList))
	copy(out, m.constraintList)
	return out
}

// Clear resets the mesh for reuse without releasing the edge pool's pages.
func (m *Mesh) Clear() {
	if m.isDisposed {
		return
	}
	m.isLocked = false
	m.isBootstrapped = false
	m.pool.Clear()
	m.searchEdge = nil
	m.vertexList = nil
	m.coincidenceList = nil
	m.constraintList = nil
	m.walker.Reset()
	m.geoOp.resetCounts()
	m.rng = rand.New(rand.NewSource(walkSeed))
	m.bounds = Rect{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	m.hasBounds = false
	m.nVerticesInserted = 0
	m.nEdgesReplaced = 0
	m.maxEdgesReplacedByInsert = 0
	m.nSyntheticVertices = 0
}

// Dispose releases the edge pool and drops all vertex references. Every
// subsequent operation on the mesh fails with ErrDisposed.
func (m *Mesh) Dispose() {
	if m.isDisposed {
		return
	}
	m.isLocked = true
	m.isDisposed = true
	m.pool.Dispose()
	m.searchEdge = nil
	m.vertexList = nil
	m.coincidenceList = nil
	m.constraintList = nil
}

// PrintDiagnostics writes statistics gathered during construction.
func (m *Mesh) PrintDiagnostics(out io.Writer) {
	if !m.isBootstrapped {
		fmt.Fprintln(out, "Insufficient information to create a TIN")
		return
	}

	perimeter := m.Perimeter()
	trigCount := m.CountTriangles()

	nCoincident := 0
	for _, g := range m.coincidenceList {
		nCoincident += g.Size()
	}

	nOrdinary := 0
	nGhost := 0
	sumLength := 0.0
	m.pool.Iterate(func(e *Edge) bool {
		if e.B() == nil {
			nGhost++
		} else {
			nOrdinary++
			sumLength += e.Length()
		}
		return true
	})
	avgPointSpacing := 0.0
	if nOrdinary > 0 {
		avgPointSpacing = sumLength / float64(nOrdinary)
	}

	fmt.Fprintf(out, "Descriptive data\n")
	fmt.Fprintf(out, "Number Vertices Inserted:     %8d\n", m.nVerticesInserted)
	fmt.Fprintf(out, "Coincident Vertex Spacing:    %8f\n", m.thresholds.vertexTolerance)
	fmt.Fprintf(out, "   Sets:                      %8d\n", len(m.coincidenceList))
	fmt.Fprintf(out, "   Total Count:               %8d\n", nCoincident)
	fmt.Fprintf(out, "Number Edges On Perimeter:    %8d\n", len(perimeter))
	fmt.Fprintf(out, "Number Ordinary Edges:        %8d\n", nOrdinary)
	fmt.Fprintf(out, "Number Ghost Edges:           %8d\n", nGhost)
	fmt.Fprintf(out, "Number Edge Replacements:     %8d\n", m.nEdgesReplaced)
	fmt.Fprintf(out, "Max Edge Replaced by add op:  %8d\n", m.maxEdgesReplacedByInsert)
	fmt.Fprintf(out, "Average Point Spacing:        %11.2f\n", avgPointSpacing)
	fmt.Fprintf(out, "Application's Nominal Spacing:%11.2f\n", m.thresholds.nominalPointSpacing)
	fmt.Fprintf(out, "Number Triangles:             %8d\n", trigCount.Count)
	fmt.Fprintf(out, "Average area of triangles:    %12.3f\n", trigCount.AreaMean())
	fmt.Fprintf(out, "Samp. std dev for area:       %12.3f\n", trigCount.AreaStandardDeviation())
	fmt.Fprintf(out, "Minimum area:                 %12.3f\n", trigCount.AreaMin)
	fmt.Fprintf(out, "Maximum area:                 %12.3f\n", trigCount.AreaMax)
	fmt.Fprintf(out, "Total area:                   %10.1f\n", trigCount.AreaSum)

	fmt.Fprintf(out, "\nConstruction statistics\n")
	m.walker.PrintDiagnostics(out)
	calls, extended, conflicts := m.geoOp.ExtendedPrecisionCounts()
	fmt.Fprintf(out, "InCircle calculations:        %8d\n", calls)
	fmt.Fprintf(out, "   extended:                  %8d\n", extended)
	fmt.Fprintf(out, "   conflicts:                 %8d\n", conflicts)
}
