package delaunay

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveInteriorVertex(t *testing.T) {
	m := NewMesh(1)
	mustAdd(t, m, newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0},
		[3]float64{1, 1, 0}, [3]float64{0, 1, 0})...)
	center := NewVertex(0.5, 0.5, 0, 4)
	mustAdd(t, m, center)
	require.Equal(t, 4, m.CountTriangles().Count)

	found, err := m.Remove(center)
	require.NoError(t, err)
	assert.True(t, found)

	// back to the plain square
	assert.Equal(t, 2, m.CountTriangles().Count)
	assert.Len(t, m.Vertices(), 4)
	checkMeshInvariants(t, m)
}

func TestRemovePerimeterVertex(t *testing.T) {
	m := NewMesh(1)
	vertices := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{2, 0, 0},
		[3]float64{2, 2, 0}, [3]float64{0, 2, 0},
		[3]float64{1, 3, 0}) // apex on the hull
	mustAdd(t, m, vertices...)
	checkMeshInvariants(t, m)

	found, err := m.Remove(vertices[4])
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, m.CountTriangles().Count)
	assert.Len(t, m.Perimeter(), 4)
	checkMeshInvariants(t, m)
}

func TestRemoveUnknownVertex(t *testing.T) {
	m := NewMesh(1)
	mustAdd(t, m, newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})...)

	found, err := m.Remove(NewVertex(0.2, 0.2, 0, 77))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, m.CountTriangles().Count)
}

func TestRemoveFromMergerGroup(t *testing.T) {
	m := NewMesh(1)
	base := newTestVertices(
		[3]float64{0, 0, 1}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})
	mustAdd(t, m, base...)
	dup := NewVertex(0, 1e-8, 3, 9)
	mustAdd(t, m, dup)

	// removing one member leaves the topology alone
	found, err := m.Remove(dup)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, m.CountTriangles().Count)

	var group *VertexMergerGroup
	for _, v := range m.Vertices() {
		if g := v.MergerGroup(); g != nil {
			group = g
		}
	}
	require.NotNil(t, group)
	assert.Equal(t, 1, group.Size())
	assert.InDelta(t, 1.0, group.GetZ(), 1e-12)
	checkMeshInvariants(t, m)
}

// insert(v); remove(v) restores the previous triangulation up to
// equivalent diagonal choices: same triangle count, same hull, and still
// Delaunay everywhere.
func TestInsertRemoveRoundTrip(t *testing.T) {
	m := NewMesh(1)
	rng := rand.New(rand.NewSource(11))
	var vertices []*Vertex
	for i := 0; i < 80; i++ {
		vertices = append(vertices, NewVertex(rng.Float64()*10, rng.Float64()*10, 0, i))
	}
	_, err := m.AddVertices(vertices, nil)
	require.NoError(t, err)

	before := m.CountTriangles()
	hullBefore := len(m.Perimeter())

	for i := 0; i < 10; i++ {
		v := NewVertex(rng.Float64()*10, rng.Float64()*10, 0, 1000+i)
		mustAdd(t, m, v)
		found, err := m.Remove(v)
		require.NoError(t, err)
		require.True(t, found)
		checkMeshInvariants(t, m)
	}

	after := m.CountTriangles()
	assert.Equal(t, before.Count, after.Count)
	assert.InDelta(t, before.AreaSum, after.AreaSum, 1e-9)
	assert.Equal(t, hullBefore, len(m.Perimeter()))
}

func TestRemoveManyVertices(t *testing.T) {
	m := NewMesh(1)
	rng := rand.New(rand.NewSource(23))
	var vertices []*Vertex
	for i := 0; i < 120; i++ {
		vertices = append(vertices, NewVertex(rng.Float64()*10, rng.Float64()*10, 0, i))
	}
	_, err := m.AddVertices(vertices, nil)
	require.NoError(t, err)

	// remove 60 interior vertices in insertion order
	removed := 0
	for _, v := range vertices {
		if removed >= 60 {
			break
		}
		onHull := false
		for _, p := range m.Perimeter() {
			if p.A() == v {
				onHull = true
				break
			}
		}
		if onHull {
			continue
		}
		found, err := m.Remove(v)
		require.NoError(t, err)
		if found {
			removed++
		}
	}
	require.Equal(t, 60, removed)
	checkMeshInvariants(t, m)

	n := len(m.Vertices())
	h := len(m.Perimeter())
	assert.Equal(t, 2*n-2-h, m.CountTriangles().Count)
}
