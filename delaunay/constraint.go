package delaunay

import (
	"math"

	"go.uber.org/zap"
)

// Constraint is an ordered polyline or polygon of vertices to be forced
// into the triangulation. A polygon constraint may define a "data area":
// the triangles inside it are flood-tagged with the constraint's index
// once the edges are in place.
type Constraint struct {
	vertices    []*Vertex
	definesArea bool
	index       int
	completed   bool
}

// NewLinearConstraint creates an open polyline constraint.
func NewLinearConstraint(vertices ...*Vertex) *Constraint {
	return &Constraint{vertices: append([]*Vertex(nil), vertices...), index: -1}
}

// NewPolygonConstraint creates a closed polygon constraint that defines a
// data area. The polygon is re-oriented counterclockwise if necessary, so
// the area always lies to the left of the directed edges.
func NewPolygonConstraint(vertices ...*Vertex) *Constraint {
	return &Constraint{
		vertices:    append([]*Vertex(nil), vertices...),
		definesArea: true,
		index:       -1,
	}
}

// Vertices returns the constraint's vertex chain. After processing, the
// chain may contain more vertices than were supplied: collinear mesh
// vertices encountered along a segment are folded in.
func (c *Constraint) Vertices() []*Vertex {
	return c.vertices
}

// DefinesDataArea reports whether the constraint bounds a data area.
func (c *Constraint) DefinesDataArea() bool { return c.definesArea }

// ConstraintIndex returns the index assigned when the constraint was added
// to a mesh, or -1 before that.
func (c *Constraint) ConstraintIndex() int { return c.index }

// complete prepares the constraint for processing: polygons are closed and
// oriented counterclockwise.
func (c *Constraint) complete() {
	if c.completed {
		return
	}
	c.completed = true
	if !c.definesArea || len(c.vertices) < 3 {
		return
	}
	n := len(c.vertices)
	ring := c.vertices
	if c.vertices[0] == c.vertices[n-1] {
		ring = c.vertices[:n-1]
	}
	// shoelace; negative means clockwise
	area := 0.0
	for i, v := range ring {
		w := ring[(i+1)%len(ring)]
		area += v.X*w.Y - w.X*v.Y
	}
	if area < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	c.vertices = append(ring, ring[0])
}

// AddConstraints inserts the constraint chains into the mesh, producing a
// constrained Delaunay triangulation, and locks the mesh against further
// vertex operations. It may be called once per mesh.
//
// When restoreConformity is set, constrained edges that break the local
// Delaunay criterion are subdivided with synthetic midpoint vertices until
// the whole mesh is conforming.
func (m *Mesh) AddConstraints(constraints []*Constraint, restoreConformity bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = handlePanicRecover(r)
		}
	}()
	if m.isLocked {
		if m.isDisposed {
			return ErrDisposed
		}
		if len(m.constraintList) > 0 {
			return ErrConstraintsAdded
		}
		return ErrLocked
	}
	if len(constraints) == 0 {
		return nil
	}
	if len(constraints) > ConstraintIndexMax {
		return ErrTooManyConstraints
	}

	// Step 1: every constraint vertex goes into the mesh through the
	// ordinary insertion path; the merger tolerance applies.
	for _, c := range constraints {
		if c == nil {
			return ErrNilInput
		}
		c.complete()
		vList := append([]*Vertex(nil), c.vertices...)
		// drop exact consecutive duplicates, which a well-formed
		// constraint should not contain but which cost little to filter
		filtered := vList[:0]
		xPrior := math.Inf(1)
		yPrior := math.Inf(1)
		for _, v := range vList {
			if v.X == xPrior && v.Y == yPrior {
				continue
			}
			filtered = append(filtered, v)
			xPrior = v.X
			yPrior = v.Y
		}
		if len(filtered) < 2 {
			return ErrInsufficientVertices
		}
		c.vertices = filtered
		for _, v := range filtered {
			v.SetConstraintMember(true)
		}
		m.constraintList = append(m.constraintList, c)
		if _, err := m.AddVertices(filtered, nil); err != nil {
			return err
		}
	}
	if !m.isBootstrapped {
		return ErrNotBootstrapped
	}

	// Step 2: construct the constraint edges.
	m.isLocked = true
	foundDataAreaDefinition := false
	for k, c := range m.constraintList {
		if c.definesArea {
			foundDataAreaDefinition = true
		}
		c.index = k
		m.processConstraint(c)
	}

	// Step 3: optional conformity restoration.
	if restoreConformity {
		for _, e := range m.pool.Edges() {
			if e.IsConstrained() {
				m.restoreConformity(e)
			}
		}
	}

	// Step 4: flood the data-area membership flags.
	if foundDataAreaDefinition {
		m.fillConstraintDataAreas()
	}

	if m.log != nil {
		m.log.Info("constraints processed",
			zap.Int("constraints", len(m.constraintList)),
			zap.Bool("restoreConformity", restoreConformity),
			zap.Int("syntheticVertices", m.nSyntheticVertices))
	}
	return nil
}

func (m *Mesh) isMatchingVertex(v, vertexFromTin *Vertex) bool {
	if vertexFromTin == nil {
		return false
	}
	if v == vertexFromTin {
		return true
	}
	if vertexFromTin.group != nil {
		return vertexFromTin.group.Contains(v)
	}
	return false
}

func (m *Mesh) setConstrained(edge *Edge, constraint *Constraint) {
	edge.SetConstrained(constraint.index)
	if constraint.definesArea {
		edge.SetConstrainedAreaMemberFlag()
	}
}

// processConstraint forces the edges of one constraint chain into the
// mesh. For each segment it first pinwheels around the start vertex
// looking for an existing edge to the end vertex (marking it constrained
// if found) or for a collinear edge pointing into the segment (folding its
// endpoint into the chain). Failing both, it carves a channel: every edge
// straddling the segment is removed, leaving one cavity on each side, the
// constraint edge is inserted, and the cavities are re-triangulated with
// an ear fill.
func (m *Mesh) processConstraint(constraint *Constraint) {
	cvList := constraint.vertices
	nSegments := len(cvList) - 1

	vTolerance := m.thresholds.vertexTolerance
	v0 := cvList[0]
	x0 := v0.X
	y0 := v0.Y

	if m.searchEdge == nil {
		m.searchEdge = m.pool.StartingEdge()
	}
	m.searchEdge = m.walker.FindEnclosing(m.searchEdge, x0, y0)
	var e0 *Edge
	if m.isMatchingVertex(v0, m.searchEdge.A()) {
		e0 = m.searchEdge
	} else if m.isMatchingVertex(v0, m.searchEdge.B()) {
		e0 = m.searchEdge.Dual()
	} else {
		e0 = m.searchEdge.Reverse()
	}
	if a := e0.A(); a != nil && a.group != nil && a != v0 && a.group.Contains(v0) {
		cvList[0] = a
	}

	// the work below rewrites topology; the cached search edge cannot be
	// trusted to survive it
	m.searchEdge = nil

	for iSegment := 0; iSegment < nSegments; iSegment++ {
		// e0 starts at v0. If some edge of its pinwheel already ends at
		// v1, the segment is present: mark and move on. The pinwheel
		// also notes the re-entry edge for the case where the segment
		// leaves and re-enters the hull neighborhood through ghosts.
		v0 = cvList[iSegment]
		v1 := cvList[iSegment+1]
		if v0 == v1 || (v0.X == v1.X && v0.Y == v1.Y) {
			// a degenerate segment left over from merging
			continue
		}
		e := e0
		matched := false
		{
			priorNull := false
			var reEntry *Edge
			for {
				b := e.B()
				if b == nil {
					priorNull = true
				} else {
					if b == v1 {
						m.setConstrained(e, constraint)
						e0 = e.Dual()
						matched = true
						break
					}
					if b.group != nil && b.group.Contains(v1) {
						cvList[iSegment+1] = b
						m.setConstrained(e, constraint)
						e0 = e.Dual()
						matched = true
						break
					}
					if priorNull {
						reEntry = e
					}
					priorNull = false
				}
				e = e.DualFromReverse()
				if e == e0 {
					break
				}
			}
			if matched {
				continue
			}
			if reEntry != nil {
				e0 = reEntry
			}
		}

		x0 = v0.X
		y0 = v0.Y
		x1 := v1.X
		y1 := v1.Y
		ux := x1 - x0
		uy := y1 - y0
		u := math.Sqrt(ux*ux + uy*uy)
		ux /= u
		uy /= u
		px := -uy // perpendicular
		py := ux

		var h *Edge
		var right0, left0, right1, left1 *Edge

		// Pre-test: is the first pinwheel edge collinear with the ray
		// toward v1 and pointing into it? Then its endpoint becomes part
		// of the constraint and the loop advances to the sub-segment.
		b := e0.B()
		bx := b.X - x0
		by := b.Y - y0
		bh := bx*px + by*py
		if math.Abs(bh) <= vTolerance && bx*ux+by*uy > 0 {
			cvList = insertVertexAt(cvList, iSegment+1, b)
			nSegments++
			m.setConstrained(e0, constraint)
			e0 = e0.Dual()
			constraint.vertices = cvList
			continue
		}

		// pinwheel for the sector whose far edge straddles the segment
		e = e0
		var ax, ay, ah float64
		for {
			ax = bx
			ay = by
			ah = bh
			n := e.Forward() // the edge opposite v0
			b = n.B()
			if b == nil {
				// the re-entry repositioning above is supposed to keep
				// the ghost region out of the sector scan
				fatalf("constraint insertion: sector scan reached the ghost region")
			}
			bx = b.X - x0
			by = b.Y - y0
			bh = bx*px + by*py
			if math.Abs(bh) <= vTolerance {
				// the far vertex is on (or nearly on) the line through
				// the segment; decide with the intersection parameter
				// whether it is in front of the ray
				dx := bx - ax
				dy := by - ay
				t := (ax*dy - ay*dx) / (ux*dy - uy*dx)
				if t > 0 {
					// the collinear edge is (v0, b), reached through
					// the reverse of the current sector edge
					cvList = insertVertexAt(cvList, iSegment+1, b)
					nSegments++
					m.setConstrained(e.Reverse().Dual(), constraint)
					e0 = e.Reverse()
					matched = true
					break
				}
			}

			// does segment (a, b) straddle the line through (v0, v1)?
			if ah*bh <= 0 {
				dx := bx - ax
				dy := by - ay
				t := (ax*dy - ay*dx) / (ux*dy - uy*dx)
				if t > 0 {
					right0 = e
					left0 = e.Reverse()
					h = n.Dual()
					break
				}
			}
			e = e.DualFromReverse()
			if e == e0 {
				break
			}
		}
		if matched {
			constraint.vertices = cvList
			continue
		}

		// h straddles the constraint: vertex a to its right, b to its
		// left. Carve the channel toward v1, deleting straddlers.
		if h == nil {
			fatalf("constraint insertion: no straddle found for segment %d", iSegment)
		}
		var c *Vertex
		for {
			right1 = h.Forward()
			left1 = h.Reverse()
			c = right1.B()
			if c == nil {
				fatalf("constraint insertion: channel reached the ghost region")
			}
			m.removeEdge(h)
			cx := c.X - x0
			cy := c.Y - y0
			ch := cx*px + cy*py
			if math.Abs(ch) < vTolerance && cx*ux+cy*uy > 0 {
				// c lies on the segment: the constraint edge runs from
				// v0 to c, and c joins the chain (unless it already is
				// v1 or a group containing it)
				if c != v1 {
					if c.group != nil && c.group.Contains(v1) {
						cvList[iSegment+1] = c
					} else {
						cvList = insertVertexAt(cvList, iSegment+1, c)
						nSegments++
					}
				}
				break
			}

			hac := ah * ch
			hbc := bh * ch
			if hac == 0 || hbc == 0 {
				fatalf("constraint insertion: degenerate straddle geometry")
			}

			if hac < 0 {
				// branch right
				h = right1.Dual()
				bx = cx
				by = cy
				bh = bx*px + by*py
			} else {
				// branch left
				h = left1.Dual()
				ax = cx
				ay = cy
				ah = ax*px + ay*py
			}
		}

		n := m.pool.AllocateEdge(v0, c)
		m.setConstrained(n, constraint)
		d := n.Dual()
		n.SetForward(left1)
		n.SetReverse(left0)
		d.SetForward(right0)
		d.SetReverse(right1)
		e0 = d

		m.fillCavity(n)
		m.fillCavity(d)

		constraint.vertices = cvList
	}
	constraint.vertices = cvList
}

func insertVertexAt(list []*Vertex, i int, v *Vertex) []*Vertex {
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

// removeEdge unlinks an interior edge, joining the two triangles on either
// side into one face, and returns the pair to the pool.
func (m *Mesh) removeEdge(e *Edge) {
	d := e.Dual()
	dr := d.Reverse()
	df := d.Forward()
	ef := e.Forward()
	er := e.Reverse()

	dr.SetForward(ef)
	df.SetReverse(er)
	m.pool.DeallocateEdge(e)
}

// fillScore sets the cavity-fill score of an ear: the signed area of its
// triangle, with +Inf suppressing reflex ears and ears whose triangle
// would swallow another cavity vertex.
func (m *Mesh) fillScore(ear *devillersEar) {
	ear.score = m.geoOp.Area(ear.v0, ear.v1, ear.v2)
	if ear.score <= 0 {
		ear.score = math.Inf(1)
		return
	}
	x0 := ear.v0.X
	y0 := ear.v0.Y
	x1 := ear.v1.X
	y1 := ear.v1.Y
	x2 := ear.v2.X
	y2 := ear.v2.Y
	for e := ear.next; e != ear.prior; e = e.next {
		if e.v2 != ear.v0 && e.v2 != ear.v1 && e.v2 != ear.v2 {
			x := e.v2.X
			y := e.v2.Y
			if m.geoOp.HalfPlane(x0, y0, x1, y1, x, y) >= 0 &&
				m.geoOp.HalfPlane(x1, y1, x2, y2, x, y) >= 0 &&
				m.geoOp.HalfPlane(x2, y2, x0, y0, x, y) >= 0 {
				ear.score = math.Inf(1)
				return
			}
		}
	}
}

// fillCavity re-triangulates one side of a carved constraint channel. The
// boundary edges are assumed Delaunay or constrained; ears are closed
// smallest-area first, and a bounded flip pass afterward restores the
// Delaunay property on the newly created interior edges. Constraint edges
// are never flipped.
func (m *Mesh) fillCavity(cavityEdge *Edge) {
	n0 := cavityEdge
	n1 := n0.Forward()
	pStart := n0
	firstEar := newDevillersEar(nil, n1, n0)
	priorEar := firstEar

	nEar := 1
	for {
		n0 = n1
		n1 = n1.Forward()
		if n0 == pStart {
			break
		}
		ear := newDevillersEar(priorEar, n1, n0)
		priorEar = ear
		nEar++
	}
	priorEar.next = firstEar
	firstEar.prior = priorEar

	if nEar == 3 {
		return
	}

	m.fillScore(firstEar)
	for eC := firstEar.next; eC != firstEar; eC = eC.next {
		m.fillScore(eC)
	}

	var list []*Edge
	for {
		var earMin *devillersEar
		minScore := math.Inf(1)
		ear := firstEar
		for {
			if ear.score < minScore && ear.score > 0 {
				minScore = ear.score
				earMin = ear
			}
			ear = ear.next
			if ear == firstEar {
				break
			}
		}

		if earMin == nil {
			fatalf("cavity fill: unable to identify a valid ear")
		}

		priorEar = earMin.prior
		nextEar := earMin.next
		e := m.pool.AllocateEdge(earMin.v2, earMin.v0)
		d := e.Dual()
		e.SetForward(earMin.c)
		e.SetReverse(earMin.n)
		d.SetForward(nextEar.n)
		d.SetReverse(priorEar.c)

		list = append(list, e)

		// with four ears left, the edge just added closed the
		// quadrilateral and the cavity is filled
		if nEar == 4 {
			break
		}

		priorEar.next = nextEar
		nextEar.prior = priorEar
		priorEar.v2 = earMin.v2
		priorEar.n = d
		nextEar.c = d
		nextEar.p = priorEar.c
		nextEar.v0 = earMin.v0
		m.fillScore(priorEar)
		m.fillScore(nextEar)

		firstEar = priorEar
		nEar--
	}

	// Flip pass: area-scored filling does not guarantee Delaunay, so
	// sweep the new interior edges until no flip fires. Flipping one
	// edge can perturb its neighbors, hence the bounded outer loop.
	k := len(list)
	for i := 0; i < k*k; i++ {
		flipped := 0
		for _, n := range list {
			d := n.Dual()
			nf := n.Forward()
			df := d.Forward()
			a := n.A()
			b := n.B()
			c := nf.B()
			t := df.B()
			if m.geoOp.InCircle(a, b, c, t) > 0 {
				flipped++
				nr := n.Reverse()
				dr := d.Reverse()
				n.SetVertices(t, c)
				n.SetForward(nr)
				n.SetReverse(df)
				d.SetForward(dr)
				d.SetReverse(nf)
				dr.SetForward(nf)
				nr.SetForward(df)
			}
		}
		if flipped == 0 {
			break
		}
	}
}

// restoreConformity re-establishes the Delaunay criterion around a
// constrained edge. Non-constrained offenders are flipped; constrained
// offenders are subdivided at their midpoint with a synthetic vertex,
// which creates four triangles in place of two. The work propagates
// through an explicit queue rather than recursion: a subdivision or flip
// can expose new offenders on the neighboring edges.
func (m *Mesh) restoreConformity(seed *Edge) {
	stack := []*Edge{seed}
	for len(stack) > 0 {
		ab := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ba := ab.Dual()
		bc := ab.Forward()
		ad := ba.Forward()
		a := ab.A()
		b := ab.B()
		c := bc.B()
		d := ad.B()
		if a == nil || b == nil || c == nil || d == nil {
			continue
		}
		if m.geoOp.InCircle(a, b, c, d) <= 0 {
			continue
		}

		ca := ab.Reverse()
		db := ba.Reverse()

		if ab.IsConstrained() {
			// subdivide the constraint edge to restore conformity
			mx := (a.X + b.X) / 2
			my := (a.Y + b.Y) / 2
			mz := (a.GetZ() + b.GetZ()) / 2
			mid := NewVertex(mx, my, mz, m.nSyntheticVertices)
			m.nSyntheticVertices++
			mid.SetSynthetic(true)
			mid.SetConstraintMember(true)

			// reuse the pair ab as mb
			mb := ab
			bm := ba
			constraintIndex := mb.ConstraintIndex()
			mb.SetVertices(mid, b)

			am := m.pool.AllocateEdge(a, mid)
			cm := m.pool.AllocateEdge(c, mid)
			dm := m.pool.AllocateEdge(d, mid)
			ma := am.Dual()
			mc := cm.Dual()
			md := dm.Dual()

			am.SetConstrained(constraintIndex)

			ma.SetForward(ad)
			ad.SetForward(dm)
			dm.SetForward(ma)

			mb.SetForward(bc)
			bc.SetForward(cm)
			cm.SetForward(mb)

			mc.SetForward(ca)
			ca.SetForward(am)
			am.SetForward(mc)

			md.SetForward(db)
			db.SetForward(bm)
			bm.SetForward(md)

			stack = append(stack, am, mb)
		} else {
			// not constrained: a flip restores Delaunay here
			ab.SetVertices(d, c)
			ab.SetReverse(ad)
			ab.SetForward(ca)
			ba.SetReverse(bc)
			ba.SetForward(db)
			ca.SetForward(ad)
			db.SetForward(bc)
		}

		stack = append(stack, bc.Dual(), ca.Dual(), ad.Dual(), db.Dual())
	}
}

// fillConstraintDataAreas floods the area-member flag from each
// area-defining constraint edge through the adjacent non-constrained
// edges, tagging the interior of every closed data-area polygon.
func (m *Mesh) fillConstraintDataAreas() {
	var stack []*Edge
	m.pool.Iterate(func(e *Edge) bool {
		for _, side := range [2]*Edge{e, e.Dual()} {
			if side.IsConstrainedAreaEdge() && side.IsConstraintAreaOnThisSide() {
				stack = append(stack, side)
			}
		}
		return true
	})
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		index := e.ConstraintIndex()
		f := e.Forward()
		if !f.IsConstrainedAreaMember() {
			f.SetConstrainedAreaMemberFlag()
			f.setConstraintIndex(index)
			stack = append(stack, f.Dual())
		}
		r := e.Reverse()
		if !r.IsConstrainedAreaMember() {
			r.SetConstrainedAreaMemberFlag()
			r.setConstraintIndex(index)
			stack = append(stack, r.Dual())
		}
	}
}
