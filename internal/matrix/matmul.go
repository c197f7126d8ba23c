package matrix

import "fmt"

// Multiply computes c = op(a) * op(b), overwriting c, where op is the
// identity or the transpose as selected per operand.
// All three matrices must be dense; c must already have the result extents.
func Multiply[T Float](a *Matrix[T], transA bool, b *Matrix[T], transB bool, c *Matrix[T]) {
	gemm(a, transA, b, transB, c, false)
}

// MultiplyAndAdd computes c += op(a) * op(b). Accumulating variant of
// Multiply, used for gradient writes that must never overwrite previously
// accumulated gradient.
func MultiplyAndAdd[T Float](a *Matrix[T], transA bool, b *Matrix[T], transB bool, c *Matrix[T]) {
	gemm(a, transA, b, transB, c, true)
}

// gemm is a naive column-major O(m*n*k) multiply shared by both entry
// points. The inner loops walk op(a) rows via explicit strides so the four
// transpose combinations share one body.
func gemm[T Float](a *Matrix[T], transA bool, b *Matrix[T], transB bool, c *Matrix[T], accumulate bool) {
	m, k := a.rows, a.cols
	if transA {
		m, k = a.cols, a.rows
	}
	kAlt, n := b.rows, b.cols
	if transB {
		kAlt, n = b.cols, b.rows
	}

	if k != kAlt {
		panic(fmt.Sprintf("matrix: multiply shape mismatch [%d, %d] x [%d, %d]", m, k, kAlt, n))
	}
	if c.rows != m || c.cols != n {
		panic(fmt.Sprintf("matrix: multiply result must be [%d, %d], got [%d, %d]", m, n, c.rows, c.cols))
	}
	a.mustBeDense("Multiply")
	b.mustBeDense("Multiply")
	c.mustBeDense("Multiply")

	// Element (i, j) strides: op(a)[i, p] and op(b)[p, j] in column-major
	// storage. For a non-transposed operand rows advance by 1 and columns
	// by the leading dimension; a transpose swaps the two.
	aRowStride, aColStride := 1, a.rows
	if transA {
		aRowStride, aColStride = a.rows, 1
	}
	bRowStride, bColStride := 1, b.rows
	if transB {
		bRowStride, bColStride = b.rows, 1
	}

	for j := 0; j < n; j++ {
		cCol := c.data[j*c.rows : (j+1)*c.rows]
		for i := 0; i < m; i++ {
			var sum T
			ai := i * aRowStride
			bi := j * bColStride
			for p := 0; p < k; p++ {
				sum += a.data[ai] * b.data[bi]
				ai += aColStride
				bi += bRowStride
			}
			if accumulate {
				cCol[i] += sum
			} else {
				cCol[i] = sum
			}
		}
	}
}
