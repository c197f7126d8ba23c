package graph

import "github.com/lattice-ml/lattice/internal/matrix"

// MatrixPool hands out transient scratch matrices. An operator requests its
// packed buffer before forward evaluation and releases it once the backward
// pass for the minibatch completes; released matrices are reused to avoid
// reallocating the (large) packed representation every minibatch.
//
// The pool is not safe for concurrent use: the surrounding executor
// evaluates one minibatch fully before starting the next.
type MatrixPool[T matrix.Float] struct {
	device matrix.Device
	free   []*matrix.Matrix[T]
}

// NewMatrixPool creates a pool whose matrices live on device.
func NewMatrixPool[T matrix.Float](device matrix.Device) *MatrixPool[T] {
	return &MatrixPool[T]{device: device}
}

// Request returns a scratch matrix, reusing a released one when available.
// Callers size it via Resize before use.
func (p *MatrixPool[T]) Request() *matrix.Matrix[T] {
	if n := len(p.free); n > 0 {
		m := p.free[n-1]
		p.free = p.free[:n-1]
		return m
	}
	return matrix.NewDense[T](0, 0, p.device)
}

// Release returns a matrix to the pool.
func (p *MatrixPool[T]) Release(m *matrix.Matrix[T]) {
	if m == nil {
		return
	}
	p.free = append(p.free, m)
}
