package delaunay

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleTriangle(t *testing.T) {
	m := NewMesh(1)
	vertices := newTestVertices([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})
	mustAdd(t, m, vertices...)

	assert.True(t, m.IsBootstrapped())
	tc := m.CountTriangles()
	assert.Equal(t, 1, tc.Count)
	assert.InDelta(t, 0.5, tc.AreaSum, 1e-12)
	assert.Len(t, m.Perimeter(), 3)
	checkMeshInvariants(t, m)
}

func TestUnitSquareWithCenter(t *testing.T) {
	m := NewMesh(1)
	corners := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0},
		[3]float64{1, 1, 0}, [3]float64{0, 1, 0})
	mustAdd(t, m, corners...)
	assert.Equal(t, 2, m.CountTriangles().Count)

	center := NewVertex(0.5, 0.5, 0, 4)
	mustAdd(t, m, center)

	tc := m.CountTriangles()
	assert.Equal(t, 4, tc.Count)
	assert.InDelta(t, 1.0, tc.AreaSum, 1e-12)

	// the center vertex has degree 4
	degree := 0
	found := false
	m.pool.Iterate(func(e *Edge) bool {
		var start *Edge
		if e.A() == center {
			start = e
		} else if e.B() == center {
			start = e.Dual()
		} else {
			return true
		}
		found = true
		start.Pinwheel(func(*Edge) bool {
			degree++
			return true
		})
		return false
	})
	require.True(t, found)
	assert.Equal(t, 4, degree)

	checkMeshInvariants(t, m)
}

// Insert 1000 points drawn from the grid [0..31]x[0..31]: 992 unique
// points (32 interior points are withheld, 8 insertions are duplicates).
// The hull is the full square, 124 vertices, so the triangle count must be
// 2*992 - 2 - 124.
func TestGridTriangleCount(t *testing.T) {
	var vertices []*Vertex
	id := 0
	skipped := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			// withhold 32 interior points
			if skipped < 32 && 8 <= x && x < 16 && 8 <= y && y < 12 {
				skipped++
				continue
			}
			vertices = append(vertices, NewVertex(float64(x), float64(y), 0, id))
			id++
		}
	}
	require.Len(t, vertices, 992)
	// 8 duplicate insertions bring the total to 1000
	for i := 0; i < 8; i++ {
		vertices = append(vertices, NewVertex(float64(i), 0, 0, id))
		id++
	}

	m := NewMesh(1)
	bootstrapped, err := m.AddVertices(vertices, nil)
	require.NoError(t, err)
	require.True(t, bootstrapped)

	const n = 992
	const h = 124
	tc := m.CountTriangles()
	assert.Equal(t, 2*n-2-h, tc.Count)
	assert.Len(t, m.Perimeter(), h)
	assert.InDelta(t, 31.0*31.0, tc.AreaSum, 1e-6)
	checkMeshInvariants(t, m)
}

func TestCollinearInputDoesNotBootstrap(t *testing.T) {
	m := NewMesh(1)
	collinear := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0},
		[3]float64{2, 0, 0}, [3]float64{3, 0, 0})
	for _, v := range collinear {
		ok, err := m.Add(v)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.False(t, m.IsBootstrapped())
	assert.Equal(t, 0, m.CountTriangles().Count)

	// one off-axis point fixes it
	ok, err := m.Add(NewVertex(1, 1, 0, 99))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.IsBootstrapped())
	assert.Equal(t, 3, m.CountTriangles().Count)
	checkMeshInvariants(t, m)
}

func TestPerimeterVisitsEachHullVertexOnce(t *testing.T) {
	m := NewMesh(1)
	rng := rand.New(rand.NewSource(7))
	var vertices []*Vertex
	for i := 0; i < 60; i++ {
		vertices = append(vertices, NewVertex(rng.Float64()*10, rng.Float64()*10, 0, i))
	}
	_, err := m.AddVertices(vertices, nil)
	require.NoError(t, err)

	seen := map[*Vertex]bool{}
	for _, e := range m.Perimeter() {
		require.NotNil(t, e.A())
		assert.False(t, seen[e.A()], "hull vertex visited twice")
		seen[e.A()] = true
	}

	// the hull must be convex: each perimeter vertex lies left of (or on)
	// the line through the next two
	p := m.Perimeter()
	for i := range p {
		a := p[i].A()
		b := p[(i+1)%len(p)].A()
		c := p[(i+2)%len(p)].A()
		assert.GreaterOrEqual(t, m.geoOp.Orientation(a, b, c), 0.0)
	}
	checkMeshInvariants(t, m)
}

func TestRandomInsertionInvariants(t *testing.T) {
	m := NewMesh(1)
	rng := rand.New(rand.NewSource(42))
	var vertices []*Vertex
	for i := 0; i < 250; i++ {
		vertices = append(vertices, NewVertex(rng.Float64()*20, rng.Float64()*20, rng.Float64(), i))
	}
	_, err := m.AddVertices(vertices, nil)
	require.NoError(t, err)
	checkMeshInvariants(t, m)

	// exterior insertions grow the hull monotonically
	mustAdd(t, m, NewVertex(-5, -5, 0, 1000), NewVertex(25, 25, 0, 1001))
	checkMeshInvariants(t, m)
}

func TestIsPointInsideTin(t *testing.T) {
	m := NewMesh(1)
	mustAdd(t, m, newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{4, 0, 0},
		[3]float64{4, 4, 0}, [3]float64{0, 4, 0})...)

	assert.True(t, m.IsPointInsideTin(2, 2))
	assert.True(t, m.IsPointInsideTin(0.1, 0.1))
	assert.False(t, m.IsPointInsideTin(5, 5))
	assert.False(t, m.IsPointInsideTin(-1, 2))
	assert.False(t, m.IsPointInsideTin(2, -3))
}

func TestVertexMerging(t *testing.T) {
	m := NewMesh(1)
	mustAdd(t, m, newTestVertices(
		[3]float64{0, 0, 2}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})...)

	// a vertex within tolerance of (0,0) merges rather than inserts
	dup := NewVertex(1e-9, 0, 4, 100)
	mustAdd(t, m, dup)
	assert.Equal(t, 1, m.CountTriangles().Count)

	vList := m.Vertices()
	assert.Len(t, vList, 3)

	var group *VertexMergerGroup
	for _, v := range vList {
		if g := v.MergerGroup(); g != nil {
			group = g
		}
	}
	require.NotNil(t, group)
	assert.Equal(t, 2, group.Size())
	// default resolution rule is the mean
	assert.InDelta(t, 3.0, group.GetZ(), 1e-12)

	m.SetResolutionRule(ResolveMin)
	assert.InDelta(t, 2.0, group.GetZ(), 1e-12)
	m.SetResolutionRule(ResolveMax)
	assert.InDelta(t, 4.0, group.GetZ(), 1e-12)
	m.SetResolutionRule(ResolveFirst)
	assert.InDelta(t, 2.0, group.GetZ(), 1e-12)
	m.SetResolutionRule(ResolveLast)
	assert.InDelta(t, 4.0, group.GetZ(), 1e-12)

	// inserting the identical vertex object again is silently ignored
	mustAdd(t, m, dup)
	assert.Equal(t, 2, group.Size())
	checkMeshInvariants(t, m)
}

func TestLifecycleErrors(t *testing.T) {
	m := NewMesh(1)
	mustAdd(t, m, newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})...)

	err := m.AddConstraints([]*Constraint{
		NewLinearConstraint(NewVertex(0, 0, 0, 0), NewVertex(1, 0, 0, 1)),
	}, false)
	require.NoError(t, err)

	// the mesh is locked now
	_, err = m.Add(NewVertex(0.5, 0.25, 0, 50))
	assert.True(t, errors.Is(err, ErrLocked))
	_, err = m.Remove(NewVertex(0.5, 0.25, 0, 50))
	assert.True(t, errors.Is(err, ErrLocked))

	// a second constraint load is rejected with its own identity
	err = m.AddConstraints([]*Constraint{
		NewLinearConstraint(NewVertex(0, 0, 0, 0), NewVertex(0, 1, 0, 2)),
	}, false)
	assert.True(t, errors.Is(err, ErrConstraintsAdded))

	m.Dispose()
	_, err = m.Add(NewVertex(2, 2, 0, 51))
	assert.True(t, errors.Is(err, ErrDisposed))
	err = m.AddConstraints(nil, false)
	assert.True(t, errors.Is(err, ErrDisposed))
}

func TestClearResetsForReuse(t *testing.T) {
	m := NewMesh(1)
	mustAdd(t, m, newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})...)
	require.True(t, m.IsBootstrapped())

	m.Clear()
	assert.False(t, m.IsBootstrapped())
	assert.Equal(t, 0, m.CountTriangles().Count)

	mustAdd(t, m, newTestVertices(
		[3]float64{5, 5, 0}, [3]float64{6, 5, 0}, [3]float64{5, 6, 0})...)
	assert.True(t, m.IsBootstrapped())
	assert.Equal(t, 1, m.CountTriangles().Count)
	checkMeshInvariants(t, m)
}

type countingMonitor struct {
	reports  []int
	cancelAt int
}

func (c *countingMonitor) ReportProgress(p int)          { c.reports = append(c.reports, p) }
func (c *countingMonitor) ReportingIntervalPercent() int { return 10 }
func (c *countingMonitor) IsCanceled() bool {
	return c.cancelAt > 0 && len(c.reports) >= c.cancelAt
}

func TestBulkLoadProgressMonitor(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var vertices []*Vertex
	for i := 0; i < 200; i++ {
		vertices = append(vertices, NewVertex(rng.Float64()*10, rng.Float64()*10, 0, i))
	}

	m := NewMesh(1)
	mon := &countingMonitor{}
	_, err := m.AddVertices(vertices, mon)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(mon.reports), 5)
	assert.Equal(t, 0, mon.reports[0])

	// cancellation stops the load between vertices but leaves the mesh
	// consistent
	m2 := NewMesh(1)
	mon2 := &countingMonitor{cancelAt: 3}
	_, err = m2.AddVertices(vertices, mon2)
	require.NoError(t, err)
	checkMeshInvariants(t, m2)
	assert.Less(t, m2.CountTriangles().Count, m.CountTriangles().Count)
}

func TestPrintDiagnostics(t *testing.T) {
	m := NewMesh(1)
	var buf bytes.Buffer
	m.PrintDiagnostics(&buf)
	assert.Contains(t, buf.String(), "Insufficient information")

	mustAdd(t, m, newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})...)
	buf.Reset()
	m.PrintDiagnostics(&buf)
	out := buf.String()
	assert.Contains(t, out, "Number Triangles:")
	assert.Contains(t, out, "InCircle calculations:")
}
