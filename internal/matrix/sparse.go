package matrix

import (
	"fmt"
	"sort"
)

// FromCSC wraps compressed-sparse-column arrays as a sparse matrix.
// colPtr must have cols+1 entries; rowIndex and values share their length.
// Row indices within a column must be strictly increasing.
func FromCSC[T Float](rows, cols int, colPtr, rowIndex []int, values []T, device Device) *Matrix[T] {
	if len(colPtr) != cols+1 {
		panic(fmt.Sprintf("matrix: colPtr length %d != cols+1 %d", len(colPtr), cols+1))
	}
	if len(rowIndex) != len(values) {
		panic(fmt.Sprintf("matrix: rowIndex length %d != values length %d", len(rowIndex), len(values)))
	}
	if nnz := colPtr[cols] - colPtr[0]; nnz > len(values) {
		panic(fmt.Sprintf("matrix: colPtr references %d nonzeros, have %d", nnz, len(values)))
	}
	return &Matrix[T]{
		rows:     rows,
		cols:     cols,
		format:   SparseCSC,
		device:   device,
		values:   values,
		rowIndex: rowIndex,
		colPtr:   colPtr,
	}
}

// ToSparseCSC converts a dense matrix to CSC form, dropping zeros.
// Returns m unchanged when already sparse.
func (m *Matrix[T]) ToSparseCSC() *Matrix[T] {
	if m.format == SparseCSC {
		return m
	}
	out := &Matrix[T]{
		rows:   m.rows,
		cols:   m.cols,
		format: SparseCSC,
		device: m.device,
		colPtr: make([]int, m.cols+1),
	}
	for j := 0; j < m.cols; j++ {
		out.colPtr[j] = len(out.values)
		col := m.data[j*m.rows : (j+1)*m.rows]
		for r, v := range col {
			if v != 0 {
				out.values = append(out.values, v)
				out.rowIndex = append(out.rowIndex, r)
			}
		}
	}
	out.colPtr[m.cols] = len(out.values)
	return out
}

// NumNonzeros returns the stored nonzero count of a sparse matrix, or the
// element count of a dense one.
func (m *Matrix[T]) NumNonzeros() int {
	if m.format == Dense {
		return m.NumElements()
	}
	return m.colPtr[m.cols] - m.colPtr[0]
}

// sparseAt looks up element (r, c) in CSC storage by binary search over the
// column's row indices.
func (m *Matrix[T]) sparseAt(r, c int) T {
	lo, hi := m.colPtr[c], m.colPtr[c+1]
	rows := m.rowIndex[lo:hi]
	k := sort.SearchInts(rows, r)
	if k < len(rows) && rows[k] == r {
		return m.values[lo+k]
	}
	var zero T
	return zero
}
