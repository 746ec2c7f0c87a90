package delaunay

import "github.com/pkg/errors"

// Threading error returns through the walk, insertion and cavity-fill loops
// would complicate code whose control flow is already delicate. Instead,
// internal invariant violations panic with a distinct error type and the
// public API recovers, converting the panic into a returned error. A panic
// of any other type is not ours and is re-raised.

// InternalError marks a broken internal invariant: a straddle walk that
// found no straddle, an ear selection that found no ear. These indicate an
// implementation bug, not bad input, and the mesh that raised one should be
// considered unusable.
type InternalError struct {
	err error
}

func (e *InternalError) Error() string { return e.err.Error() }
func (e *InternalError) Unwrap() error { return e.err }

// fatalf panics with an InternalError.
func fatalf(format string, args ...interface{}) {
	panic(&InternalError{err: errors.Errorf(format, args...)})
}

func handlePanicRecover(r interface{}) error {
	if r != nil {
		if internalError, ok := r.(*InternalError); ok {
			return internalError
		}
		panic(r)
	}
	return nil
}

// Precondition errors. These are ordinary returned errors; test for them
// with errors.Is.
var (
	// ErrLocked is returned when a vertex operation is attempted after
	// constraints have been added.
	ErrLocked = errors.New("delaunay: mesh is locked, no further vertex operations allowed")

	// ErrDisposed is returned for any operation on a disposed mesh.
	ErrDisposed = errors.New("delaunay: operation on disposed mesh")

	// ErrConstraintsAdded is returned when AddConstraints is called a
	// second time.
	ErrConstraintsAdded = errors.New("delaunay: constraints have already been added")

	// ErrNotBootstrapped is returned when a Voronoi structure is requested
	// from a mesh without sufficient non-collinear input.
	ErrNotBootstrapped = errors.New("delaunay: mesh is not bootstrapped")

	// ErrNilInput is returned for nil vertices, constraints, or meshes.
	ErrNilInput = errors.New("delaunay: nil input")

	// ErrTooManyConstraints is returned when the constraint count exceeds
	// the storable index range.
	ErrTooManyConstraints = errors.New("delaunay: too many constraints")

	// ErrInsufficientVertices is returned when fewer than three vertices
	// are supplied where a triangulation is required, and when a
	// constraint has fewer than two distinct vertices.
	ErrInsufficientVertices = errors.New("delaunay: too few vertices")

	// ErrBoundsTooSmall is returned when explicit Voronoi bounds do not
	// contain the sample set.
	ErrBoundsTooSmall = errors.New("delaunay: bounds do not contain the sample points")
)
