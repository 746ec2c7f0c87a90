package delaunay

// Bowyer-Watson style insertion. The walk positions the search edge on the
// triangle containing the new vertex; a pinwheel of edges is spun from the
// vertex to the triangle's corners, and each neighboring triangle is tested
// with the in-circle predicate. Neighbors whose circumcircle contains the
// vertex are non-Delaunay: their shared edge is removed and the cavity
// grows outward. When the cavity boundary is locally Delaunay everywhere,
// the pinwheel closes.
//
// Ghost triangles take part uniformly. Their in-circle test degenerates to
// a half-plane test against the one real edge, which is what lets the hull
// grow monotonically as exterior points arrive.

// inCircleWithGhosts evaluates the pseudo in-circle condition for a ghost
// triangle with real edge AB against the vertex v. A positive result means
// the edge must be replaced (non-Delaunay); negative means it stands. When
// v lies exactly on the line through AB, the sign is decided by where it
// falls on the ray: within segment AB the edge is replaced (+1), behind A
// or beyond B it stands (-1).
func (m *Mesh) inCircleWithGhosts(a, b, v *Vertex) float64 {
	h := (b.X-a.X)*(v.Y-a.Y) - (b.Y-a.Y)*(v.X-a.X)
	t := m.thresholds.halfPlaneThreshold
	if -t < h && h < t {
		h = m.geoOp.HalfPlane(a.X, a.Y, b.X, b.Y, v.X, v.Y)
		if h == 0 {
			ax := v.X - a.X
			ay := v.Y - a.Y
			nx := b.X - a.X
			ny := b.Y - a.Y
			can := ax*nx + ay*ny
			if can < 0 {
				h = -1
			} else if ax*ax+ay*ay > nx*nx+ny*ny {
				h = -1
			} else {
				h = 1
			}
		}
	}
	return h
}

// addWithInsertOrAppend inserts a vertex into a bootstrapped mesh, either
// splitting the containing triangle or extending the hull. Returns false
// when the vertex was coincident with an existing one and was merged.
func (m *Mesh) addWithInsertOrAppend(v *Vertex) bool {
	x := v.X
	y := v.Y

	// The buffer holds one removed edge pair, reused preferentially by the
	// next allocation; pairs removed while it is occupied go straight back
	// to the pool. Insertion removes and adds edges in near lockstep, so a
	// single slot captures most of the traffic without the bookkeeping of
	// a larger scratch set.
	var buffer *Edge
	nReplacements := 0

	m.extendBounds(x, y)

	if m.searchEdge == nil {
		m.searchEdge = m.pool.StartingEdge()
	}
	m.searchEdge = m.walker.FindEnclosing(m.searchEdge, x, y)

	if match, ok := m.matchTriangleVertex(m.searchEdge, x, y); ok {
		m.searchEdge = match
		m.mergeVertexOrIgnore(match, v)
		return false
	}

	anchor := m.searchEdge.A()

	pStart := m.pool.AllocateEdge(v, anchor)
	p := pStart
	p.SetForward(m.searchEdge)
	n1 := m.searchEdge.Forward()
	n2 := n1.Forward()
	n2.SetForward(pStart.Dual())

	c := m.searchEdge
	for {
		n0 := c.Dual()
		n1 := n0.Forward()

		// Delaunay in-circle criterion against the neighbor across c.
		// The neighbor triangle's vertices, in order, are n0.A(),
		// n1.A(), n1.B(); any of them may be the ghost.
		var h float64
		vA := n0.A()
		vB := n1.A()
		vC := n1.B()
		switch {
		case vC == nil:
			h = m.inCircleWithGhosts(vA, vB, v)
		case vA == nil:
			h = m.inCircleWithGhosts(vB, vC, v)
		case vB == nil:
			h = m.inCircleWithGhosts(vC, vA, v)
		default:
			h = m.geoOp.InCircleXY(vA.X, vA.Y, vB.X, vB.Y, vC.X, vC.Y, x, y)
		}

		if h >= 0 {
			// neighbor is non-Delaunay with respect to v: remove the
			// shared edge and absorb the neighbor into the cavity
			n2 := n1.Forward()
			n2.SetForward(c.Forward())
			p.SetForward(n1)
			nReplacements++
			if buffer == nil {
				buffer = c
			} else {
				m.pool.DeallocateEdge(c)
			}
			c = n1
		} else {
			if c.B() == anchor {
				// cavity boundary is Delaunay all the way around;
				// close the pinwheel
				pStart.Dual().SetForward(p)
				m.searchEdge = pStart
				if buffer != nil {
					m.pool.DeallocateEdge(buffer)
				}
				m.nEdgesReplaced += nReplacements
				if nReplacements > m.maxEdgesReplacedByInsert {
					m.maxEdgesReplacedByInsert = nReplacements
				}
				break
			}

			n1 := c.Forward()
			var e *Edge
			if buffer == nil {
				e = m.pool.AllocateEdge(v, c.B())
			} else {
				e = m.pool.reassign(buffer, v, c.B())
				buffer = nil
			}
			e.SetForward(n1)
			e.Dual().SetForward(p)
			c.SetForward(e.Dual())
			p = e
			c = n1
		}
	}
	return true
}

// matchTriangleVertex tests the corners of the triangle at the search edge
// against (x, y). On a match it returns the edge whose origin is the
// matched vertex.
func (m *Mesh) matchTriangleVertex(se *Edge, x, y float64) (*Edge, bool) {
	tol2 := m.thresholds.vertexTolerance2
	if se.A().DistanceSq(x, y) < tol2 {
		return se, true
	}
	if se.B() != nil && se.B().DistanceSq(x, y) < tol2 {
		return se.Forward(), true
	}
	apex := se.Forward().B()
	if apex != nil && apex.DistanceSq(x, y) < tol2 {
		return se.Reverse(), true
	}
	return nil, false
}

// matchTriangleVertexReference repositions the edge so its origin matches
// the given vertex by identity (or by merger-group membership). Used by
// removal, where identity rather than proximity is what counts.
func (m *Mesh) matchTriangleVertexReference(se *Edge, v *Vertex) (*Edge, bool) {
	a := se.A()
	b := se.B()
	c := se.Forward().B()

	if a == v {
		return se, true
	}
	if b == v {
		return se.Forward(), true
	}
	if c == v {
		return se.Reverse(), true
	}

	if a != nil && a.group != nil && a.group.Contains(v) {
		return se, true
	}
	if b != nil && b.group != nil && b.group.Contains(v) {
		return se.Forward(), true
	}
	if c != nil && c.group != nil && c.group.Contains(v) {
		return se.Reverse(), true
	}
	return nil, false
}

// mergeVertexOrIgnore handles a vertex whose coordinates coincide with a
// previously inserted one. The first merge replaces the existing vertex
// with a merger group; later merges just extend the group. Inserting the
// same vertex object twice is ignored outright, which is the common case
// when a bootstrap triple comes back around during a bulk load.
func (m *Mesh) mergeVertexOrIgnore(edge *Edge, v *Vertex) {
	a := edge.A()
	if a == v {
		return
	}
	var group *VertexMergerGroup
	if a.group != nil {
		group = a.group
		if group.Contains(v) {
			return
		}
	} else {
		group = newVertexMergerGroup(a, m.vertexMergeRule)
		m.coincidenceList = append(m.coincidenceList, group)
		// every edge that starts at the target vertex must now start at
		// the group instead
		edge.Pinwheel(func(e *Edge) bool {
			e.setA(&group.Vertex)
			return true
		})
	}
	group.AddVertex(v)
}
