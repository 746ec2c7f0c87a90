package delaunay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgePoolAllocation(t *testing.T) {
	p := NewEdgePool()
	a := NewVertex(0, 0, 0, 0)
	b := NewVertex(1, 0, 0, 1)

	e := p.AllocateEdge(a, b)
	assert.Same(t, a, e.A())
	assert.Same(t, b, e.B())
	assert.Same(t, e, e.Dual().Dual())
	assert.Equal(t, 1, p.Size())

	// indices: base even, dual differs in the low bit
	assert.Equal(t, 0, e.Index()&1)
	assert.Equal(t, e.Index()^1, e.Dual().Index())

	e2 := p.AllocateEdge(b, a)
	assert.NotEqual(t, e.Index(), e2.Index())

	p.DeallocateEdge(e)
	assert.Equal(t, 1, p.Size())
	// the freed slot is recycled
	e3 := p.AllocateEdge(a, nil)
	assert.Equal(t, 2, p.Size())
	assert.Nil(t, e3.B())
	assert.Same(t, a, e3.A())
}

func TestEdgePoolIteration(t *testing.T) {
	p := NewEdgePool()
	a := NewVertex(0, 0, 0, 0)
	b := NewVertex(1, 0, 0, 1)
	for i := 0; i < 10; i++ {
		p.AllocateEdge(a, b)
	}
	seen := 0
	p.Iterate(func(e *Edge) bool {
		seen++
		return true
	})
	assert.Equal(t, 10, seen)
	assert.Len(t, p.Edges(), 10)
}

func TestEdgePoolPreAllocate(t *testing.T) {
	p := NewEdgePool()
	p.PreAllocate(5000)
	a := NewVertex(0, 0, 0, 0)
	b := NewVertex(1, 0, 0, 1)
	pages := len(p.pages)
	for i := 0; i < 5000; i++ {
		p.AllocateEdge(a, b)
	}
	assert.Equal(t, pages, len(p.pages))
}

func TestEdgeConstraintBits(t *testing.T) {
	p := NewEdgePool()
	a := NewVertex(0, 0, 0, 0)
	b := NewVertex(1, 0, 0, 1)
	e := p.AllocateEdge(a, b)

	assert.False(t, e.IsConstrained())
	assert.False(t, e.Dual().IsConstrained())

	e.SetConstrained(37)
	assert.True(t, e.IsConstrained())
	assert.True(t, e.Dual().IsConstrained())
	assert.Equal(t, 37, e.ConstraintIndex())
	assert.Equal(t, 37, e.Dual().ConstraintIndex())

	// the index survives at the top of the storable range
	e.SetConstrained(ConstraintIndexMax)
	assert.Equal(t, ConstraintIndexMax, e.ConstraintIndex())

	// area flags are per side
	e.SetConstrainedAreaMemberFlag()
	assert.True(t, e.IsConstrainedAreaMember())
	assert.True(t, e.Dual().IsConstrainedAreaMember())
	assert.True(t, e.IsConstraintAreaOnThisSide())
	assert.False(t, e.Dual().IsConstraintAreaOnThisSide())

	// deallocation clears the bits
	p.DeallocateEdge(e)
	e2 := p.AllocateEdge(a, b)
	assert.False(t, e2.IsConstrained())
	assert.False(t, e2.IsConstrainedAreaMember())
}

func TestEdgeLinks(t *testing.T) {
	p := NewEdgePool()
	a := NewVertex(0, 0, 0, 0)
	b := NewVertex(1, 0, 0, 1)
	c := NewVertex(0, 1, 0, 2)

	ab := p.AllocateEdge(a, b)
	bc := p.AllocateEdge(b, c)
	ca := p.AllocateEdge(c, a)
	ab.SetForward(bc)
	bc.SetForward(ca)
	ca.SetForward(ab)

	assert.Same(t, ab, bc.Reverse())
	assert.Same(t, ab, ab.Forward().Forward().Forward())
	assert.Same(t, ca.Dual(), ab.DualFromReverse())
}
