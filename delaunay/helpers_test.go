package delaunay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// checkMeshInvariants verifies the structural properties that must hold
// after every successful public operation: link reciprocity, triangle
// closure, and the Delaunay criterion on unconstrained interior edges.
func checkMeshInvariants(t *testing.T, m *Mesh) {
	t.Helper()
	require.True(t, m.IsBootstrapped())

	for _, e := range m.pool.Edges() {
		for _, side := range [2]*Edge{e, e.Dual()} {
			require.Same(t, side, side.Dual().Dual())
			require.Same(t, side, side.Forward().Reverse())
			require.Same(t, side, side.Reverse().Forward())
			require.Equal(t, side.Index()^1, side.Dual().Index())

			// triangulation closure
			require.Same(t, side, side.Forward().Forward().Forward())
		}
	}

	// Delaunay criterion: no opposite vertex inside the circumcircle of
	// an unconstrained interior edge's triangle, within threshold
	tol := m.thresholds.inCircleThreshold
	for _, e := range m.pool.Edges() {
		if e.IsConstrained() {
			continue
		}
		a := e.A()
		b := e.B()
		if a == nil || b == nil {
			continue
		}
		c := e.Forward().B()
		d := e.Dual().Forward().B()
		if c == nil || d == nil {
			continue
		}
		h := m.geoOp.InCircle(a, b, c, d)
		require.LessOrEqual(t, h, tol,
			"edge %v violates the Delaunay criterion (h=%g)", e, h)
	}
}

// mustAdd inserts vertices one at a time, failing the test on error.
func mustAdd(t *testing.T, m *Mesh, vertices ...*Vertex) {
	t.Helper()
	for _, v := range vertices {
		_, err := m.Add(v)
		require.NoError(t, err)
	}
}

func newTestVertices(coords ...[3]float64) []*Vertex {
	out := make([]*Vertex, len(coords))
	for i, c := range coords {
		out[i] = NewVertex(c[0], c[1], c[2], i)
	}
	return out
}
