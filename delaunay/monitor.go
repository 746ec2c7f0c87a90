package delaunay

// ProgressMonitor receives progress reports during bulk vertex loading. The
// engine polls between individual insertions, never mid-operation, so a
// cancelled load always leaves the mesh consistent.
type ProgressMonitor interface {
	// ReportProgress is called with a completion percentage in [0, 100].
	ReportProgress(percent int)
	// ReportingIntervalPercent returns the approximate interval between
	// reports, in percent of total work.
	ReportingIntervalPercent() int
	// IsCanceled reports whether the caller has requested cancellation.
	// The engine finishes the vertex in flight and returns.
	IsCanceled() bool
}
