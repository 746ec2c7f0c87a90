package delaunay

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoronoiThreeSites(t *testing.T) {
	sites := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{2, 0, 0}, [3]float64{1, 2, 0})
	v, err := NewVoronoiFromVertices(sites, nil)
	require.NoError(t, err)

	polys := v.Polygons()
	require.Len(t, polys, 3)
	for _, p := range polys {
		// all three sites are on the hull, so all cells are open
		assert.True(t, p.IsOpen())
	}

	// each site is contained in its own polygon
	for _, s := range sites {
		p := v.ContainingPolygon(s.X, s.Y)
		require.NotNil(t, p)
		assert.True(t, sameSite(p.Vertex(), s))
	}

	// the clipped cells tile the bounding rectangle
	sum := 0.0
	for _, p := range polys {
		a := p.Area()
		require.False(t, math.IsInf(a, 1))
		sum += a
	}
	assert.InDelta(t, v.Bounds().Area(), sum, 1e-9)
}

// sameSite matches a polygon hub against an input site, tolerating the
// merger-group representative standing in for the original.
func sameSite(hub, site *Vertex) bool {
	if hub == site {
		return true
	}
	if g := hub.MergerGroup(); g != nil {
		return g.Contains(site)
	}
	return hub.X == site.X && hub.Y == site.Y
}

func TestVoronoiGrid(t *testing.T) {
	var sites []*Vertex
	id := 0
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			sites = append(sites, NewVertex(float64(x), float64(y), 0, id))
			id++
		}
	}
	v, err := NewVoronoiFromVertices(sites, nil)
	require.NoError(t, err)

	polys := v.Polygons()
	require.Len(t, polys, 25)

	nOpen := 0
	for _, p := range polys {
		if p.IsOpen() {
			nOpen++
		}
	}
	// the 16 boundary sites anchor open cells, the 9 interior ones closed
	assert.Equal(t, 16, nOpen)

	// duality: every site is inside exactly its own cell
	for _, s := range sites {
		p := v.ContainingPolygon(s.X, s.Y)
		require.NotNil(t, p)
		assert.True(t, sameSite(p.Vertex(), s))
	}

	// the interior cells of a unit grid are unit squares
	for _, p := range polys {
		if !p.IsOpen() {
			assert.InDelta(t, 1.0, p.Area(), 1e-9)
		}
	}

	// cells tile the bounds
	sum := 0.0
	for _, p := range polys {
		sum += p.Area()
	}
	assert.InDelta(t, v.Bounds().Area(), sum, 1e-6)
}

func TestVoronoiFromMesh(t *testing.T) {
	m := NewMesh(1)
	rng := rand.New(rand.NewSource(5))
	var sites []*Vertex
	for i := 0; i < 40; i++ {
		sites = append(sites, NewVertex(rng.Float64()*10, rng.Float64()*10, 0, i))
	}
	_, err := m.AddVertices(sites, nil)
	require.NoError(t, err)

	v, err := NewVoronoi(m)
	require.NoError(t, err)
	assert.Len(t, v.Polygons(), 40)
	// the mesh survives, unlike the vertex-list constructor's internal one
	assert.True(t, m.IsBootstrapped())

	// circumcenters are the Voronoi vertices
	assert.Equal(t, m.CountTriangles().Count, len(v.VoronoiVertices()))

	sum := 0.0
	for _, p := range v.Polygons() {
		sum += p.Area()
	}
	assert.InDelta(t, v.Bounds().Area(), sum, 1e-6)
}

func TestVoronoiExplicitBounds(t *testing.T) {
	sites := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{2, 0, 0}, [3]float64{1, 2, 0})

	t.Run("bounds too small fails", func(t *testing.T) {
		bad := &Rect{XMin: 0.5, YMin: 0.5, XMax: 1.5, YMax: 1.5}
		_, err := NewVoronoiFromVertices(sites, &VoronoiOptions{Bounds: bad})
		assert.ErrorIs(t, err, ErrBoundsTooSmall)
	})

	t.Run("containing bounds are honored", func(t *testing.T) {
		good := &Rect{XMin: -2, YMin: -2, XMax: 4, YMax: 4}
		v, err := NewVoronoiFromVertices(sites, &VoronoiOptions{Bounds: good})
		require.NoError(t, err)
		assert.Equal(t, *good, v.Bounds())
		sum := 0.0
		for _, p := range v.Polygons() {
			sum += p.Area()
		}
		assert.InDelta(t, good.Area(), sum, 1e-9)
	})
}

// Axis-aligned hull edges produce perimeter rays with a zero component:
// a horizontal hull edge yields a vertical ray (uX == 0) and a vertical
// hull edge a horizontal ray (uY == 0). Both must clip against a single
// border rather than attempting a two-axis clip.
func TestVoronoiAxisAlignedHullRays(t *testing.T) {
	// a square of hull sites around a center: all four hull edges are
	// axis-aligned and all circumcenters lie at the edge midpoints
	sites := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{2, 0, 0},
		[3]float64{2, 2, 0}, [3]float64{0, 2, 0},
		[3]float64{1, 1, 0})
	v, err := NewVoronoiFromVertices(sites, nil)
	require.NoError(t, err)

	// every border endpoint carries a valid perimeter parameter and
	// lands on a border
	b := v.Bounds()
	for _, e := range v.Edges() {
		for _, vert := range [2]*Vertex{e.A(), e.B()} {
			if vert == nil || !vert.IsSynthetic() || math.IsNaN(vert.Z) {
				continue
			}
			assert.True(t, 0 <= vert.Z && vert.Z < 4,
				"synthetic vertex (%g,%g) has perimeter parameter %g", vert.X, vert.Y, vert.Z)
			onBorder := math.Abs(vert.X-b.XMin) < 1e-9 || math.Abs(vert.X-b.XMax) < 1e-9 ||
				math.Abs(vert.Y-b.YMin) < 1e-9 || math.Abs(vert.Y-b.YMax) < 1e-9
			assert.True(t, onBorder, "synthetic vertex (%g,%g) off the border", vert.X, vert.Y)
		}
	}

	// the center's closed cell is the diamond through the circumcenters
	center := sites[4]
	p := v.ContainingPolygon(center.X, center.Y)
	require.NotNil(t, p)
	assert.False(t, p.IsOpen())
	assert.InDelta(t, 2.0, p.Area(), 1e-9)

	sum := 0.0
	for _, pg := range v.Polygons() {
		sum += pg.Area()
	}
	assert.InDelta(t, v.Bounds().Area(), sum, 1e-9)
}

func TestVoronoiInsufficientInput(t *testing.T) {
	_, err := NewVoronoiFromVertices(nil, nil)
	assert.ErrorIs(t, err, ErrNilInput)

	two := newTestVertices([3]float64{0, 0, 0}, [3]float64{1, 0, 0})
	_, err = NewVoronoiFromVertices(two, nil)
	assert.ErrorIs(t, err, ErrInsufficientVertices)

	collinear := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{2, 0, 0})
	_, err = NewVoronoiFromVertices(collinear, nil)
	assert.ErrorIs(t, err, ErrNotBootstrapped)

	m := NewMesh(1)
	_, err = NewVoronoi(m)
	assert.ErrorIs(t, err, ErrNotBootstrapped)
}

func TestVoronoiColorAssignment(t *testing.T) {
	var sites []*Vertex
	id := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			sites = append(sites, NewVertex(float64(x), float64(y), 0, id))
			id++
		}
	}
	v, err := NewVoronoiFromVertices(sites, &VoronoiOptions{
		EnableAutomaticColorAssignment: true,
	})
	require.NoError(t, err)
	for _, p := range v.Polygons() {
		assert.GreaterOrEqual(t, p.Vertex().ColorIndex(), 0)
	}
}

func TestVoronoiDiagnostics(t *testing.T) {
	sites := newTestVertices(
		[3]float64{0, 0, 0}, [3]float64{2, 0, 0}, [3]float64{1, 2, 0})
	v, err := NewVoronoiFromVertices(sites, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	v.PrintDiagnostics(&buf)
	out := buf.String()
	assert.Contains(t, out, "Limited Voronoi Diagram")
	assert.Contains(t, out, "Polygons:")
	assert.Contains(t, out, "Max Circumcircle Radius:")
}
