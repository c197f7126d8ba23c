// Package graph provides the slice of the computation-graph surface the
// operators depend on: selecting a sample range out of a node's value or
// gradient buffer, and pooling the transient scratch matrices an operator
// borrows for one forward-then-backward cycle.
package graph

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/matrix"
)

// FrameRange selects the samples (batch columns) a forward or backward call
// operates on. The zero value selects all frames; a bounded range appears
// when the surrounding graph evaluates one time step at a time, e.g. inside
// a recurrent loop.
type FrameRange struct {
	start, count int
	bounded      bool
}

// AllFrames selects the entire batch.
func AllFrames() FrameRange {
	return FrameRange{}
}

// Frames selects columns [start, start+count).
func Frames(start, count int) FrameRange {
	if start < 0 || count < 0 {
		panic(fmt.Sprintf("graph: invalid frame range [%d, %d)", start, start+count))
	}
	return FrameRange{start: start, count: count, bounded: true}
}

// IsAllFrames reports whether the range spans the whole batch.
func (fr FrameRange) IsAllFrames() bool { return !fr.bounded }

// String returns a short descriptor.
func (fr FrameRange) String() string {
	if fr.bounded {
		return fmt.Sprintf("frames[%d, %d)", fr.start, fr.start+fr.count)
	}
	return "frames[all]"
}

// ColumnsFor returns the view of m selected by fr: m itself for all-frames,
// otherwise a borrowed column-slice view.
func ColumnsFor[T matrix.Float](m *matrix.Matrix[T], fr FrameRange) *matrix.Matrix[T] {
	if fr.IsAllFrames() {
		return m
	}
	return m.ColumnSlice(fr.start, fr.count)
}
