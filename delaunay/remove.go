package delaunay

import "math"

// Vertex removal after Devillers. The star of the doomed vertex is
// cavitated into a polygon, a ring of candidate ears is built over the
// polygon's edges, and the cavity is refilled by repeatedly closing the
// ear with the lowest power score. Scoring by the power of the removed
// vertex against each ear's circumcircle is what keeps the refilled cavity
// Delaunay without a separate flip pass.
//
// Devillers' paper does not really address removal of a perimeter vertex.
// In that case the ear ring can contain ears that would produce degenerate
// (collinear) triangles and ears that produce ghost triangles. Degenerate
// ears are never selected; ghost-producing ears are selected only when no
// finite-score ear remains, so the hull shrinks cleanly as the cavity
// closes outward.

type devillersEar struct {
	prior, next *devillersEar

	// c is the first cavity-boundary edge of the ear (v0 to v1), n the
	// second (v1 to v2). p tracks the edge before c while the ring is
	// being rewired.
	c, n, p *Edge

	v0, v1, v2 *Vertex

	score float64
}

func newDevillersEar(prior *devillersEar, n, c *Edge) *devillersEar {
	ear := &devillersEar{prior: prior, c: c, n: n}
	ear.v0 = c.A()
	ear.v1 = c.B()
	ear.v2 = n.B()
	if prior != nil {
		prior.next = ear
	}
	return ear
}

// computeScore sets the Devillers power score of the ear relative to the
// vertex being removed. Reflex and degenerate ears score +Inf. Ears
// involving the ghost vertex also score +Inf; they are reachable only
// through the ghost fallback in the selection loop.
func (ear *devillersEar) computeScore(g *GeometricOperations, vRemove *Vertex) {
	if ear.v0 == nil || ear.v1 == nil || ear.v2 == nil {
		ear.score = math.Inf(1)
		return
	}
	area2 := g.Orientation(ear.v0, ear.v1, ear.v2)
	if area2 <= 0 {
		ear.score = math.Inf(1)
		return
	}
	// power of the removed vertex with respect to the ear's circumcircle;
	// the deeper inside the circle, the lower (more negative) the score
	ear.score = -g.InCircle(ear.v0, ear.v1, ear.v2, vRemove) / area2
}

// Remove deletes a vertex from the mesh. If the vertex is a member of a
// merger group with other occupants, it is removed from the group and the
// topology is untouched. The return value reports whether the vertex was
// found.
//
// Removing the final vertices of a mesh (fewer than three remaining) is
// not supported.
func (m *Mesh) Remove(vRemove *Vertex) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = handlePanicRecover(r)
		}
	}()
	if m.isLocked {
		return false, m.lockError()
	}
	if vRemove == nil {
		return false, nil
	}
	if !m.isBootstrapped {
		for i, v := range m.vertexList {
			if v == vRemove {
				m.vertexList = append(m.vertexList[:i], m.vertexList[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	}

	if m.searchEdge == nil {
		m.searchEdge = m.pool.StartingEdge()
	}
	matchEdge := m.walker.FindEnclosing(m.searchEdge, vRemove.X, vRemove.Y)
	matchEdge, ok := m.matchTriangleVertexReference(matchEdge, vRemove)
	if !ok {
		return false, nil
	}

	// special handling for a merger group: removing one member leaves the
	// group (and the mesh) in place unless the group empties out
	matchA := matchEdge.A()
	if matchA.group != nil && vRemove != matchA {
		group := matchA.group
		if !group.RemoveVertex(vRemove) {
			return false, nil
		}
		if group.Size() > 0 {
			return true, nil
		}
		// empty group: fall through and remove the group vertex itself
		vRemove = matchA
	}

	// the removal is going to rewrite the local topology; the cached
	// search edge may not survive it
	n0 := matchEdge
	m.searchEdge = nil

	// Step 1: cavitation. Delete every edge incident to the vertex,
	// patching the forward links so the cavity boundary forms a closed
	// polygon.
	n1 := n0.Forward()
	for {
		n2 := n1.Forward()
		n3 := n2.ForwardFromDual()
		n1.SetForward(n3)
		n1 = n3
		if n2 == n0.Dual() {
			m.pool.DeallocateEdge(n2)
			break
		}
		m.pool.DeallocateEdge(n2)
	}

	// Step 2: ear creation around the cavity boundary.
	b0 := n1
	b1 := b0.Forward()
	pStart := b0
	firstEar := newDevillersEar(nil, b1, b0)
	priorEar := firstEar
	firstEar.computeScore(m.geoOp, vRemove)

	nEar := 1
	for {
		b0 = b1
		b1 = b1.Forward()
		if b0 == pStart {
			break
		}
		ear := newDevillersEar(priorEar, b1, b0)
		ear.computeScore(m.geoOp, vRemove)
		priorEar = ear
		nEar++
	}
	priorEar.next = firstEar
	firstEar.prior = priorEar

	if nEar == 3 {
		// the star reduced to a single triangle, already Delaunay
		m.setSearchEdgeAfterRemoval(firstEar.c)
		return true, nil
	}

	// Step 3: ear closing. Take the lowest-scoring ear, close it with a
	// new edge, splice its neighbors together and rescore them. Repeat
	// until three ears remain.
	for {
		var earMin *devillersEar
		minScore := math.Inf(1)
		ear := firstEar
		for {
			if ear.score < minScore {
				minScore = ear.score
				earMin = ear
			} else if earMin == nil && math.IsInf(minScore, 1) && ear.v0 == nil {
				earMin = ear
			}
			ear = ear.next
			if ear == firstEar {
				break
			}
		}

		if earMin == nil {
			fatalf("vertex removal: unable to identify a valid ear")
		}

		priorEar = earMin.prior
		nextEar := earMin.next
		e := m.pool.AllocateEdge(earMin.v2, earMin.v0)
		e.SetForward(earMin.c)
		earMin.n.SetForward(e)

		// cavity-side links; temporary until the cavity is filled, final
		// when this is the closing edge
		d := e.Dual()
		d.SetForward(nextEar.n)
		priorEar.c.SetForward(d)

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

		priorEar.computeScore(m.geoOp, vRemove)
		nextEar.computeScore(m.geoOp, vRemove)

		firstEar = priorEar
		nEar--
	}

	m.setSearchEdgeAfterRemoval(firstEar.c)
	return true, nil
}

// setSearchEdgeAfterRemoval re-establishes the cached search edge. The
// walk requires a non-ghost start, but removal can leave a ghost edge as
// the last thing touched.
func (m *Mesh) setSearchEdgeAfterRemoval(e *Edge) {
	b := e.Base()
	if b.B() == nil {
		b = b.Reverse()
	}
	m.searchEdge = b
}
