package delaunay

import (
	"fmt"
	"math"
)

// Status bits for a vertex. The synthetic bit marks vertices that were
// manufactured by the library itself (constraint subdivision midpoints,
// Voronoi circumcenters and border points) rather than supplied by the
// caller. The constraint-member bit marks vertices that belong to at least
// one constraint polyline.
const (
	vertexSynthetic        = 1 << 0
	vertexConstraintMember = 1 << 1
)

// Vertex is a point in the plane with an elevation (or any other scalar
// payload) in Z. Coordinates are immutable once the vertex has been added to
// a mesh; only status bits may change afterward.
//
// Note that vertices are always handled by pointer. Pointer identity is what
// ties a caller's vertex to its position in the mesh, so callers must not
// copy a vertex value after insertion.
type Vertex struct {
	X, Y, Z float64

	index  int32
	status uint8
	color  int8

	// Non-nil when this vertex stands in for a group of coincident
	// vertices. The group's coordinate fields shadow the members.
	group *VertexMergerGroup
}

// NewVertex creates a vertex with the given coordinates and an arbitrary
// integer id. The id is never interpreted by the mesh; it exists so callers
// can trace vertices back to their input records.
func NewVertex(x, y, z float64, index int) *Vertex {
	return &Vertex{X: x, Y: y, Z: z, index: int32(index)}
}

// Index returns the caller-assigned id.
func (v *Vertex) Index() int { return int(v.index) }

// DistanceSq returns the square of the distance from the vertex to (x, y).
func (v *Vertex) DistanceSq(x, y float64) float64 {
	dx := v.X - x
	dy := v.Y - y
	return dx*dx + dy*dy
}

// Distance returns the distance from the vertex to (x, y).
func (v *Vertex) Distance(x, y float64) float64 {
	return math.Sqrt(v.DistanceSq(x, y))
}

// GetZ resolves the z value. For an ordinary vertex this is just Z; for the
// representative of a merger group it is the value produced by the group's
// resolution rule.
func (v *Vertex) GetZ() float64 {
	if v.group != nil {
		return v.group.resolveZ()
	}
	return v.Z
}

func (v *Vertex) IsSynthetic() bool { return v.status&vertexSynthetic != 0 }

func (v *Vertex) SetSynthetic(yes bool) {
	if yes {
		v.status |= vertexSynthetic
	} else {
		v.status &^= vertexSynthetic
	}
}

func (v *Vertex) IsConstraintMember() bool { return v.status&vertexConstraintMember != 0 }

func (v *Vertex) SetConstraintMember(yes bool) {
	if yes {
		v.status |= vertexConstraintMember
	} else {
		v.status &^= vertexConstraintMember
	}
}

// ColorIndex is a small scratch value available to post-processing such as
// the Voronoi builder's outcode stamping and automatic color assignment.
func (v *Vertex) ColorIndex() int     { return int(v.color) }
func (v *Vertex) SetColorIndex(c int) { v.color = int8(c) }

// MergerGroup returns the group this vertex represents, or nil for an
// ordinary vertex.
func (v *Vertex) MergerGroup() *VertexMergerGroup { return v.group }

// Label is a short identifier used in diagnostics.
func (v *Vertex) Label() string {
	if v.group != nil {
		return fmt.Sprintf("g%d", v.index)
	}
	return fmt.Sprintf("%d", v.index)
}

func (v *Vertex) String() string {
	return fmt.Sprintf("%s: (%g, %g, %g)", v.Label(), v.X, v.Y, v.GetZ())
}

// ResolutionRule selects how a merger group combines the z values of its
// coincident members.
type ResolutionRule int

const (
	ResolveMean ResolutionRule = iota
	ResolveMin
	ResolveMax
	ResolveFirst
	ResolveLast
)

// VertexMergerGroup stands in for a set of vertices whose coordinates were
// within the mesh's vertex tolerance of each other. The mesh replaces the
// first occupant of a site with a group, then funnels later coincident
// insertions into it. The group's own Vertex carries the coordinates of the
// first occupant; the mesh links edges to &group.Vertex so the topology sees
// a single vertex.
type VertexMergerGroup struct {
	Vertex
	members []*Vertex
	rule    ResolutionRule
}

// newVertexMergerGroup wraps an existing mesh vertex. The original vertex
// becomes the first member.
func newVertexMergerGroup(first *Vertex, rule ResolutionRule) *VertexMergerGroup {
	g := &VertexMergerGroup{
		Vertex:  Vertex{X: first.X, Y: first.Y, Z: first.Z, index: first.index, status: first.status},
		members: []*Vertex{first},
		rule:    rule,
	}
	g.Vertex.group = g
	return g
}

// AddVertex adds a coincident vertex to the group.
func (g *VertexMergerGroup) AddVertex(v *Vertex) {
	g.members = append(g.members, v)
	g.Z = g.resolveZ()
}

// RemoveVertex removes v from the group, reporting whether it was a member.
func (g *VertexMergerGroup) RemoveVertex(v *Vertex) bool {
	for i, m := range g.members {
		if m == v {
			g.members = append(g.members[:i], g.members[i+1:]...)
			if len(g.members) > 0 {
				g.Z = g.resolveZ()
			}
			return true
		}
	}
	return false
}

// Contains reports whether v is a member of the group.
func (g *VertexMergerGroup) Contains(v *Vertex) bool {
	if v == &g.Vertex {
		return true
	}
	for _, m := range g.members {
		if m == v {
			return true
		}
	}
	return false
}

// Size returns the number of member vertices.
func (g *VertexMergerGroup) Size() int { return len(g.members) }

// Members returns the member list. The slice is live; callers must not
// modify it.
func (g *VertexMergerGroup) Members() []*Vertex { return g.members }

// SetResolutionRule changes the rule and re-resolves the group z value.
func (g *VertexMergerGroup) SetResolutionRule(rule ResolutionRule) {
	g.rule = rule
	if len(g.members) > 0 {
		g.Z = g.resolveZ()
	}
}

func (g *VertexMergerGroup) resolveZ() float64 {
	if len(g.members) == 0 {
		return math.NaN()
	}
	switch g.rule {
	case ResolveMin:
		z := g.members[0].Z
		for _, m := range g.members[1:] {
			if m.Z < z {
				z = m.Z
			}
		}
		return z
	case ResolveMax:
		z := g.members[0].Z
		for _, m := range g.members[1:] {
			if m.Z > z {
				z = m.Z
			}
		}
		return z
	case ResolveFirst:
		return g.members[0].Z
	case ResolveLast:
		return g.members[len(g.members)-1].Z
	default:
		sum := 0.0
		for _, m := range g.members {
			sum += m.Z
		}
		return sum / float64(len(g.members))
	}
}
