package delaunay

import (
	"fmt"
	"math"
)

// An Edge is one half of a quad-edge pair in the style of Guibas and
// Stolfi. The pair represents a single undirected edge of the mesh; each
// half carries the origin vertex for its direction, a forward link (the next
// edge counterclockwise around the face on its left) and a reverse link.
// The two halves are allocated together and permanently wired to each other
// through the dual pointer.
//
// The index field does double duty, following the original layout this
// structure is modeled on. On the base side (side 0) it holds the pool
// allocation index, always even, with the dual's index defined as base+1 so
// that dual indices differ only in the low bit. On the dual side (side 1)
// the field is free for per-pair application data, and is used to pack the
// constraint state: the sign bit flags a constrained edge (allowing a
// branch-free sign test), bit 30 flags constrained-area membership, bit 29
// records which side the area lies on, bit 28 flags synthetic edges built by
// the Voronoi assembler, and the low 20 bits store the constraint index.
//
// A half-edge whose origin is nil is a ghost: its origin is the virtual
// point at infinity used to close the convex hull. Ghost pairs are always
// oriented so the nil origin is on the dual side.
type Edge struct {
	v     *Vertex
	f, r  *Edge
	dual  *Edge
	index int32
	side  int8
}

const (
	// ConstraintIndexMax is the largest storable constraint index, 2^20-1.
	ConstraintIndexMax = 1<<20 - 1

	constraintIndexMask = 0x000fffff
	constraintFlag      = int32(-1 << 31)
	constraintAreaFlag  = int32(1 << 30)
	areaBaseFlag        = int32(1 << 29)
	syntheticEdgeFlag   = int32(1 << 28)
)

// A returns the origin vertex, nil for a ghost half-edge.
func (e *Edge) A() *Vertex { return e.v }

// B returns the terminal vertex (the origin of the dual), nil when the far
// side is the ghost vertex.
func (e *Edge) B() *Vertex { return e.dual.v }

// Dual returns the other half of the pair.
func (e *Edge) Dual() *Edge { return e.dual }

// Forward returns the next edge counterclockwise around the face to the
// left of this edge.
func (e *Edge) Forward() *Edge { return e.f }

// Reverse returns the previous edge around the left face.
func (e *Edge) Reverse() *Edge { return e.r }

// ForwardFromDual is shorthand for e.Dual().Forward().
func (e *Edge) ForwardFromDual() *Edge { return e.dual.f }

// ReverseFromDual is shorthand for e.Dual().Reverse().
func (e *Edge) ReverseFromDual() *Edge { return e.dual.r }

// DualFromReverse is shorthand for e.Reverse().Dual(). Repeated
// application pinwheels through the edges that share this edge's origin.
func (e *Edge) DualFromReverse() *Edge { return e.r.dual }

// Base returns the side-zero half of the pair.
func (e *Edge) Base() *Edge {
	if e.side == 0 {
		return e
	}
	return e.dual
}

// Side reports which half of the pair this is: 0 for the base, 1 for the
// dual.
func (e *Edge) Side() int { return int(e.side) }

// Index returns the half-edge's stable allocation index. The base is even
// and the dual is base^1, so arrays indexed by edge index can address both
// sides of every pair.
func (e *Edge) Index() int {
	if e.side == 0 {
		return int(e.index)
	}
	return int(e.dual.index) + 1
}

// SetForward links f as this edge's forward edge, maintaining the
// reciprocal reverse link.
func (e *Edge) SetForward(f *Edge) {
	e.f = f
	f.r = e
}

// SetReverse links r as this edge's reverse edge, maintaining the
// reciprocal forward link.
func (e *Edge) SetReverse(r *Edge) {
	e.r = r
	r.f = e
}

// SetVertices assigns the origin of this edge and of its dual.
func (e *Edge) SetVertices(a, b *Vertex) {
	e.v = a
	e.dual.v = b
}

func (e *Edge) setA(a *Vertex) { e.v = a }

// Length returns the edge length, or NaN for a ghost edge.
func (e *Edge) Length() float64 {
	if e.v == nil || e.dual.v == nil {
		return math.NaN()
	}
	dx := e.v.X - e.dual.v.X
	dy := e.v.Y - e.dual.v.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// bits returns a pointer to the pair's application-data field, which lives
// on the dual side.
func (e *Edge) bits() *int32 {
	if e.side == 0 {
		return &e.dual.index
	}
	return &e.index
}

// IsConstrained reports whether the pair carries a constraint. Both sides
// answer identically.
func (e *Edge) IsConstrained() bool { return *e.bits() < 0 }

// ConstraintIndex returns the index of the constraint that produced this
// edge (or that owns the area the edge is a member of). Meaningful only
// when IsConstrained or IsConstrainedAreaMember reports true.
func (e *Edge) ConstraintIndex() int {
	return int(*e.bits() & constraintIndexMask)
}

// SetConstrained marks the pair constrained with the given constraint
// index.
func (e *Edge) SetConstrained(constraintIndex int) {
	b := e.bits()
	*b = constraintFlag | (*b &^ constraintIndexMask) | int32(constraintIndex&constraintIndexMask)
}

func (e *Edge) setConstraintIndex(constraintIndex int) {
	b := e.bits()
	*b = (*b &^ constraintIndexMask) | int32(constraintIndex&constraintIndexMask)
}

// IsConstrainedAreaMember reports whether the pair borders or lies inside a
// constrained data area.
func (e *Edge) IsConstrainedAreaMember() bool { return *e.bits()&constraintAreaFlag != 0 }

// IsConstrainedAreaEdge reports whether the pair is a constrained edge of a
// data-area polygon (the area boundary itself).
func (e *Edge) IsConstrainedAreaEdge() bool {
	b := *e.bits()
	return b < 0 && b&constraintAreaFlag != 0
}

// SetConstrainedAreaMemberFlag marks the pair as an area member with the
// area lying on this half-edge's side.
func (e *Edge) SetConstrainedAreaMemberFlag() {
	b := e.bits()
	if e.side == 0 {
		*b |= constraintAreaFlag | areaBaseFlag
	} else {
		*b |= constraintAreaFlag
		*b &^= areaBaseFlag
	}
}

// IsConstraintAreaOnThisSide reports which side of the pair the data area
// lies on. Meaningful only when IsConstrainedAreaMember reports true.
func (e *Edge) IsConstraintAreaOnThisSide() bool {
	onBase := *e.bits()&areaBaseFlag != 0
	if e.side == 0 {
		return onBase
	}
	return !onBase
}

// IsSynthetic reports whether the edge was manufactured by the Voronoi
// assembler rather than derived from mesh topology.
func (e *Edge) IsSynthetic() bool { return *e.bits()&syntheticEdgeFlag != 0 }

// SetSynthetic marks the pair synthetic.
func (e *Edge) SetSynthetic(yes bool) {
	if yes {
		*e.bits() |= syntheticEdgeFlag
	} else {
		*e.bits() &^= syntheticEdgeFlag
	}
}

// Pinwheel calls visit for every edge sharing this edge's origin, in
// rotational order, starting with the receiver. If visit returns false the
// iteration stops early.
func (e *Edge) Pinwheel(visit func(*Edge) bool) {
	p := e
	for {
		if !visit(p) {
			return
		}
		p = p.r.dual
		if p == e {
			return
		}
	}
}

func (e *Edge) name() string {
	c := '+'
	if e.side == 1 {
		c = '-'
	}
	return fmt.Sprintf("%d%c", e.Index()&^1>>1, c)
}

func (e *Edge) String() string {
	a := e.v
	b := e.dual.v
	if a == nil && b == nil {
		return fmt.Sprintf("%9s -- undefined", e.name())
	}
	label := func(v *Vertex) string {
		if v == nil {
			return "gv"
		}
		return v.Label()
	}
	suffix := ""
	if e.IsConstrained() {
		suffix = "    constrained"
	}
	return fmt.Sprintf("%9s  (%9s,%9s)%s", e.name(), label(a), label(b), suffix)
}
