// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package matrix is the public surface of the minibatch matrix capability:
// column-major matrices whose columns are samples, with dense and
// compressed-sparse-column storage, zero-copy column views, in-place
// reshape, and the packing/pooling primitives the operators build on.
package matrix

import (
	"github.com/lattice-ml/lattice/internal/matrix"
)

// Float is the set of element types supported by Matrix.
type Float = matrix.Float

// Device represents the compute device a matrix is placed on.
type Device = matrix.Device

// Supported compute devices.
const (
	CPU = matrix.CPU
	GPU = matrix.GPU
)

// Format describes the storage format of a matrix.
type Format = matrix.Format

// Supported storage formats.
const (
	Dense     = matrix.Dense
	SparseCSC = matrix.SparseCSC
)

// Matrix is a column-major matrix whose columns are independent samples.
type Matrix[T Float] = matrix.Matrix[T]

// NewDense creates a zero-initialized dense matrix.
func NewDense[T Float](rows, cols int, device Device) *Matrix[T] {
	return matrix.NewDense[T](rows, cols, device)
}

// FromColMajor wraps an existing column-major slice as a dense matrix.
func FromColMajor[T Float](rows, cols int, data []T, device Device) *Matrix[T] {
	return matrix.FromColMajor(rows, cols, data, device)
}

// FromCSC wraps compressed-sparse-column arrays as a sparse matrix.
func FromCSC[T Float](rows, cols int, colPtr, rowIndex []int, values []T, device Device) *Matrix[T] {
	return matrix.FromCSC(rows, cols, colPtr, rowIndex, values, device)
}

// Multiply computes c = op(a) * op(b), overwriting c.
func Multiply[T Float](a *Matrix[T], transA bool, b *Matrix[T], transB bool, c *Matrix[T]) {
	matrix.Multiply(a, transA, b, transB, c)
}

// MultiplyAndAdd computes c += op(a) * op(b).
func MultiplyAndAdd[T Float](a *Matrix[T], transA bool, b *Matrix[T], transB bool, c *Matrix[T]) {
	matrix.MultiplyAndAdd(a, transA, b, transB, c)
}

// ConvolveAndWeightedAdd computes output = alpha*conv(weight, input) +
// beta*output fused over sparse height-1 input.
func ConvolveAndWeightedAdd[T Float](alpha T, weight, input *Matrix[T], beta T, output *Matrix[T], channels, stride int, zeroPad bool) {
	matrix.ConvolveAndWeightedAdd(alpha, weight, input, beta, output, channels, stride, zeroPad)
}
