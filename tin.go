// An incremental Delaunay triangulation package for Go.
//
// This package builds and maintains a Delaunay triangulation of a planar
// point set, supports linear constraints (producing a constrained Delaunay
// triangulation), and derives a bounded Voronoi diagram from the
// triangulation's dual. The implementation lives in the delaunay
// subpackage; this package re-exports the main types and provides the
// common entry points.
package tin

import (
	"math"

	"github.com/osuushi/tin/delaunay"
)

type Vertex = delaunay.Vertex
type Mesh = delaunay.Mesh
type Edge = delaunay.Edge
type Constraint = delaunay.Constraint
type Voronoi = delaunay.Voronoi
type VoronoiOptions = delaunay.VoronoiOptions
type ThiessenPolygon = delaunay.ThiessenPolygon
type Rect = delaunay.Rect
type TriangleCount = delaunay.TriangleCount

// NewVertex creates a vertex at (x, y) with payload z and an arbitrary id.
func NewVertex(x, y, z float64, id int) *Vertex {
	return delaunay.NewVertex(x, y, z, id)
}

// NewMesh creates an empty mesh with thresholds derived from the nominal
// point spacing, an estimate of the typical distance between samples.
func NewMesh(nominalPointSpacing float64) *Mesh {
	return delaunay.NewMesh(nominalPointSpacing)
}

// NewLinearConstraint creates an open polyline constraint.
func NewLinearConstraint(vertices ...*Vertex) *Constraint {
	return delaunay.NewLinearConstraint(vertices...)
}

// NewPolygonConstraint creates a closed polygon constraint that defines a
// data area.
func NewPolygonConstraint(vertices ...*Vertex) *Constraint {
	return delaunay.NewPolygonConstraint(vertices...)
}

// BuildMesh triangulates a list of vertices with a spacing estimated from
// their bounds. It returns an error when the input cannot form a
// triangulation (fewer than three distinct non-collinear points).
func BuildMesh(vertices []*Vertex) (*Mesh, error) {
	if len(vertices) < 3 {
		return nil, delaunay.ErrInsufficientVertices
	}
	bounds := Rect{XMin: vertices[0].X, YMin: vertices[0].Y, XMax: vertices[0].X, YMax: vertices[0].Y}
	for _, v := range vertices {
		bounds.Add(v.X, v.Y)
	}
	spacing := estimateSpacing(bounds, len(vertices))
	mesh := delaunay.NewMesh(spacing)
	if _, err := mesh.AddVertices(vertices, nil); err != nil {
		return nil, err
	}
	if !mesh.IsBootstrapped() {
		return nil, delaunay.ErrNotBootstrapped
	}
	return mesh, nil
}

// NewVoronoi builds the bounded Voronoi diagram dual to a mesh.
func NewVoronoi(mesh *Mesh) (*Voronoi, error) {
	return delaunay.NewVoronoi(mesh)
}

// NewVoronoiFromVertices triangulates the vertices internally and builds
// the bounded Voronoi diagram over them.
func NewVoronoiFromVertices(vertices []*Vertex, options *VoronoiOptions) (*Voronoi, error) {
	return delaunay.NewVoronoiFromVertices(vertices, options)
}

func estimateSpacing(bounds Rect, n int) float64 {
	area := bounds.Width() * bounds.Height()
	if area <= 0 || n == 0 {
		return 1
	}
	// regular hexagonal tessellation density
	return math.Sqrt(area / float64(n) / 0.866)
}
