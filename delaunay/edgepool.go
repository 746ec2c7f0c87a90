package delaunay

// EdgePool allocates quad-edge pairs out of fixed-size pages and recycles
// freed pairs through a free list. Pages are never released until the pool
// itself is disposed, so every allocated pair keeps a stable address and a
// stable allocation index for its lifetime. Index-keyed scratch arrays
// (mark bitmaps, the Voronoi part table) are sized from MaximumIndex.
type edgePage struct {
	pairs []edgePair
}

type edgePair struct {
	base, partner Edge
	allocated     bool
}

const edgePageSize = 1024

type EdgePool struct {
	pages  []*edgePage
	free   []*Edge // base halves of deallocated pairs
	size   int     // currently allocated pairs
	next   int32   // next never-constructed pair id (page capacity)
	cursor int32   // next never-handed-out pair id
}

func NewEdgePool() *EdgePool {
	return &EdgePool{}
}

func (p *EdgePool) addPage() *edgePage {
	page := &edgePage{pairs: make([]edgePair, edgePageSize)}
	base := p.next
	for i := range page.pairs {
		pr := &page.pairs[i]
		pr.base.dual = &pr.partner
		pr.partner.dual = &pr.base
		pr.base.side = 0
		pr.partner.side = 1
		pr.base.index = (base + int32(i)) * 2
	}
	p.next += int32(len(page.pairs))
	p.pages = append(p.pages, page)
	return page
}

// PreAllocate grows the pool so that at least n pairs can be allocated
// without adding pages.
func (p *EdgePool) PreAllocate(n int) {
	for int(p.next-p.cursor)+len(p.free) < n {
		p.addPage()
	}
}

func (p *EdgePool) pair(e *Edge) *edgePair {
	id := e.Base().index / 2
	return &p.pages[id/edgePageSize].pairs[id%edgePageSize]
}

// AllocateEdge returns a fresh base half-edge from a to b. Pass a nil b to
// create a ghost edge. Links start unset.
func (p *EdgePool) AllocateEdge(a, b *Vertex) *Edge {
	var e *Edge
	if n := len(p.free); n > 0 {
		e = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		if p.cursor == p.next {
			p.addPage()
		}
		id := p.cursor
		p.cursor++
		e = &p.pages[id/edgePageSize].pairs[id%edgePageSize].base
	}
	pr := p.pair(e)
	pr.allocated = true
	e.v = a
	e.dual.v = b
	e.f = nil
	e.r = nil
	e.dual.f = nil
	e.dual.r = nil
	e.dual.index = 0
	p.size++
	return e
}

// DeallocateEdge returns the pair to the free list. The caller must have
// already unlinked it from the topology.
func (p *EdgePool) DeallocateEdge(e *Edge) {
	b := e.Base()
	pr := p.pair(b)
	pr.allocated = false
	b.v = nil
	b.f = nil
	b.r = nil
	b.dual.v = nil
	b.dual.f = nil
	b.dual.r = nil
	b.dual.index = 0
	p.free = append(p.free, b)
	p.size--
}

// reassign repurposes a pair that the insertion loop held back from the
// free list, avoiding a deallocate/allocate round trip.
func (p *EdgePool) reassign(e *Edge, a, b *Vertex) *Edge {
	base := e.Base()
	base.v = a
	base.dual.v = b
	base.f = nil
	base.r = nil
	base.dual.f = nil
	base.dual.r = nil
	base.dual.index = 0
	return base
}

// Size returns the number of currently allocated pairs.
func (p *EdgePool) Size() int { return p.size }

// MaximumIndex returns an exclusive upper bound on half-edge indices ever
// issued by this pool.
func (p *EdgePool) MaximumIndex() int { return int(p.cursor) * 2 }

// StartingEdge returns an arbitrary allocated edge with two real
// endpoints; when there is none, it returns the real-origin half of a
// ghost pair. Returns nil if the pool is empty.
func (p *EdgePool) StartingEdge() *Edge {
	var ghostSide *Edge
	for _, page := range p.pages {
		for i := range page.pairs {
			pr := &page.pairs[i]
			if !pr.allocated {
				continue
			}
			if pr.base.v != nil && pr.partner.v != nil {
				return &pr.base
			}
			if pr.base.v != nil {
				ghostSide = &pr.base
			}
		}
	}
	return ghostSide
}

// StartingGhostEdge returns an arbitrary ghost half-edge (nil origin on the
// dual side), used to seed the perimeter walk.
func (p *EdgePool) StartingGhostEdge() *Edge {
	for _, page := range p.pages {
		for i := range page.pairs {
			pr := &page.pairs[i]
			if pr.allocated && pr.base.v != nil && pr.partner.v == nil {
				return &pr.base
			}
		}
	}
	return nil
}

// Iterate calls visit once for each allocated pair, passing the base half.
// If visit returns false the iteration stops.
func (p *EdgePool) Iterate(visit func(*Edge) bool) {
	for _, page := range p.pages {
		for i := range page.pairs {
			pr := &page.pairs[i]
			if pr.allocated {
				if !visit(&pr.base) {
					return
				}
			}
		}
	}
}

// Edges returns the base halves of all allocated pairs. The edges are live
// references into the pool; callers must not modify them.
func (p *EdgePool) Edges() []*Edge {
	list := make([]*Edge, 0, p.size)
	p.Iterate(func(e *Edge) bool {
		list = append(list, e)
		return true
	})
	return list
}

// Clear returns every pair to the free list, keeping pages for reuse.
func (p *EdgePool) Clear() {
	p.free = p.free[:0]
	for pi := len(p.pages) - 1; pi >= 0; pi-- {
		page := p.pages[pi]
		for i := len(page.pairs) - 1; i >= 0; i-- {
			pr := &page.pairs[i]
			pr.allocated = false
			pr.base.v = nil
			pr.base.f = nil
			pr.base.r = nil
			pr.partner.v = nil
			pr.partner.f = nil
			pr.partner.r = nil
			pr.partner.index = 0
			p.free = append(p.free, &pr.base)
		}
	}
	p.size = 0
	p.cursor = p.next
}

// Dispose drops the pages entirely. The pool is unusable afterward.
func (p *EdgePool) Dispose() {
	p.pages = nil
	p.free = nil
	p.size = 0
	p.next = 0
	p.cursor = 0
}
