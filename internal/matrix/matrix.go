package matrix

import "fmt"

// Float is the set of element types supported by Matrix.
type Float interface {
	float32 | float64
}

// Device represents the compute device a matrix is placed on.
type Device int

// Supported compute devices. GPU is a placement tag used for execution-path
// selection; kernels in this package run on the host.
const (
	CPU Device = iota
	GPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	default:
		return "Unknown"
	}
}

// Format describes the storage format of a matrix.
type Format int

// Supported storage formats.
const (
	Dense Format = iota
	SparseCSC
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case Dense:
		return "Dense"
	case SparseCSC:
		return "SparseCSC"
	default:
		return "Unknown"
	}
}

// Matrix is a column-major matrix whose columns are independent samples.
//
// Dense matrices store elements contiguously, column by column:
// element (r, c) lives at data[r + c*rows]. A column slice is therefore a
// zero-copy view over a contiguous sub-range of the backing storage, which
// is what makes sub-batch tiling cheap.
//
// SparseCSC matrices store only nonzeros in compressed-sparse-column form
// (see sparse.go).
type Matrix[T Float] struct {
	rows, cols int
	format     Format
	device     Device

	// Dense storage (format == Dense).
	data []T

	// CSC storage (format == SparseCSC). Nonzeros of column j are
	// values[colPtr[j]:colPtr[j+1]] at rows rowIndex[colPtr[j]:colPtr[j+1]].
	values   []T
	rowIndex []int
	colPtr   []int
}

// NewDense creates a zero-initialized dense matrix.
func NewDense[T Float](rows, cols int, device Device) *Matrix[T] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix: invalid dimensions [%d, %d]", rows, cols))
	}
	return &Matrix[T]{
		rows:   rows,
		cols:   cols,
		format: Dense,
		device: device,
		data:   make([]T, rows*cols),
	}
}

// FromColMajor wraps an existing column-major slice as a dense matrix.
// The matrix takes ownership of data; len(data) must equal rows*cols.
func FromColMajor[T Float](rows, cols int, data []T, device Device) *Matrix[T] {
	if len(data) != rows*cols {
		panic(fmt.Sprintf("matrix: data length %d != rows*cols %d", len(data), rows*cols))
	}
	return &Matrix[T]{
		rows:   rows,
		cols:   cols,
		format: Dense,
		device: device,
		data:   data,
	}
}

// Rows returns the number of rows.
func (m *Matrix[T]) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix[T]) Cols() int { return m.cols }

// Device returns the placement tag.
func (m *Matrix[T]) Device() Device { return m.device }

// Format returns the storage format.
func (m *Matrix[T]) Format() Format { return m.format }

// NumElements returns the logical element count (rows*cols).
func (m *Matrix[T]) NumElements() int { return m.rows * m.cols }

// Data returns the dense column-major backing slice.
func (m *Matrix[T]) Data() []T {
	m.mustBeDense("Data")
	return m.data
}

// At returns element (r, c).
func (m *Matrix[T]) At(r, c int) T {
	m.boundsCheck(r, c)
	if m.format == Dense {
		return m.data[r+c*m.rows]
	}
	return m.sparseAt(r, c)
}

// Set assigns element (r, c) of a dense matrix.
func (m *Matrix[T]) Set(r, c int, v T) {
	m.mustBeDense("Set")
	m.boundsCheck(r, c)
	m.data[r+c*m.rows] = v
}

// ColumnSlice returns a view over columns [start, start+num).
// The view shares storage with m; writes through a dense view are visible
// in the parent.
func (m *Matrix[T]) ColumnSlice(start, num int) *Matrix[T] {
	if start < 0 || num < 0 || start+num > m.cols {
		panic(fmt.Sprintf("matrix: column slice [%d, %d) out of range for %d columns", start, start+num, m.cols))
	}
	if m.format == Dense {
		return &Matrix[T]{
			rows:   m.rows,
			cols:   num,
			format: Dense,
			device: m.device,
			data:   m.data[start*m.rows : (start+num)*m.rows],
		}
	}
	return &Matrix[T]{
		rows:     m.rows,
		cols:     num,
		format:   SparseCSC,
		device:   m.device,
		values:   m.values,
		rowIndex: m.rowIndex,
		colPtr:   m.colPtr[start : start+num+1],
	}
}

// Reshape reinterprets the extents of a dense matrix in place. The backing
// storage is untouched; rows*cols must be preserved.
func (m *Matrix[T]) Reshape(rows, cols int) {
	m.mustBeDense("Reshape")
	if rows*cols != m.rows*m.cols {
		panic(fmt.Sprintf("matrix: reshape [%d, %d] -> [%d, %d] changes element count", m.rows, m.cols, rows, cols))
	}
	m.rows, m.cols = rows, cols
}

// Resize sets the extents of a dense matrix, reusing the backing slice when
// capacity allows. Element values after a growing resize are zero.
func (m *Matrix[T]) Resize(rows, cols int) {
	m.mustBeDense("Resize")
	n := rows * cols
	if cap(m.data) >= n {
		m.data = m.data[:n]
		for i := range m.data {
			m.data[i] = 0
		}
	} else {
		m.data = make([]T, n)
	}
	m.rows, m.cols = rows, cols
}

// Zero sets every element of a dense matrix to zero.
func (m *Matrix[T]) Zero() {
	m.mustBeDense("Zero")
	for i := range m.data {
		m.data[i] = 0
	}
}

// Clone returns a deep copy.
func (m *Matrix[T]) Clone() *Matrix[T] {
	out := &Matrix[T]{
		rows:   m.rows,
		cols:   m.cols,
		format: m.format,
		device: m.device,
	}
	if m.format == Dense {
		out.data = append([]T(nil), m.data...)
		return out
	}
	out.values = append([]T(nil), m.values...)
	out.rowIndex = append([]int(nil), m.rowIndex...)
	out.colPtr = append([]int(nil), m.colPtr...)
	return out
}

// ToDense returns m unchanged when already dense, otherwise a densified
// copy on the same device.
func (m *Matrix[T]) ToDense() *Matrix[T] {
	if m.format == Dense {
		return m
	}
	out := NewDense[T](m.rows, m.cols, m.device)
	for j := 0; j < m.cols; j++ {
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			out.data[m.rowIndex[k]+j*m.rows] = m.values[k]
		}
	}
	return out
}

// String returns a short descriptor, not the element values.
func (m *Matrix[T]) String() string {
	return fmt.Sprintf("Matrix[%d x %d, %s, %s]", m.rows, m.cols, m.format, m.device)
}

func (m *Matrix[T]) mustBeDense(op string) {
	if m.format != Dense {
		panic(fmt.Sprintf("matrix: %s requires a dense matrix, got %s", op, m.format))
	}
}

func (m *Matrix[T]) boundsCheck(r, c int) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Sprintf("matrix: index (%d, %d) out of range for [%d, %d]", r, c, m.rows, m.cols))
	}
}
