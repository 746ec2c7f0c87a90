package delaunay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Constraint polygons loaded from SVG fixtures over a background grid.
func TestFixturePolygonConstraints(t *testing.T) {
	for _, name := range []string{"l_shape", "diamond"} {
		name := name
		t.Run(name, func(t *testing.T) {
			m := NewMesh(1)
			var vertices []*Vertex
			id := 0
			for y := 0; y <= 10; y++ {
				for x := 0; x <= 10; x++ {
					vertices = append(vertices, NewVertex(float64(x), float64(y), 0, id))
					id++
				}
			}
			_, err := m.AddVertices(vertices, nil)
			require.NoError(t, err)

			ring := loadFixtureRing(name, 1000)
			require.GreaterOrEqual(t, len(ring), 3)
			poly := NewPolygonConstraint(ring...)
			err = m.AddConstraints([]*Constraint{poly}, false)
			require.NoError(t, err)

			// every ring segment is represented by a constrained edge
			chain := m.Constraints()[0].Vertices()
			for i := 0; i+1 < len(chain); i++ {
				assert.True(t, hasConstrainedEdge(m,
					chain[i].X, chain[i].Y, chain[i+1].X, chain[i+1].Y),
					"fixture segment %d missing", i)
			}

			// the flood tagged at least one interior triangle, and the
			// tagged edges carry the constraint's index
			tagged := 0
			for _, e := range m.Edges() {
				if e.IsConstrainedAreaMember() {
					tagged++
					assert.Equal(t, 0, e.ConstraintIndex())
				}
			}
			assert.Greater(t, tagged, 0)
			checkMeshInvariants(t, m)
		})
	}
}
