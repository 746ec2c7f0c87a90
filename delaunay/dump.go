package delaunay

import (
	"fmt"
	"io"

	"github.com/osuushi/tin/dbg"
)

// DumpTopology writes a human-readable listing of every allocated edge
// pair, both sides, with vertices shown under readable debug names. This
// is for debugging purposes only: the output is nondeterministic between
// runs (the names are), and on a large mesh it is enormous.
func (m *Mesh) DumpTopology(w io.Writer) {
	m.pool.Iterate(func(e *Edge) bool {
		dumpHalfEdge(w, e)
		dumpHalfEdge(w, e.Dual())
		return true
	})
}

func dumpHalfEdge(w io.Writer, e *Edge) {
	suffix := ""
	if e.IsConstrained() {
		suffix = fmt.Sprintf("   constrained(%d)", e.ConstraintIndex())
	}
	fmt.Fprintf(w, "%9s  %s -> %s   fwd %s  rev %s%s\n",
		e.name(),
		dumpVertexName(e.A()),
		dumpVertexName(e.B()),
		e.Forward().name(),
		e.Reverse().name(),
		suffix)
}

func dumpVertexName(v *Vertex) string {
	if v == nil {
		return dbg.Name(nil)
	}
	return dbg.Named(v, v.Label())
}
