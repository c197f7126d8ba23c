// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn is the public surface of the convolution and pooling
// operators: shape inference, validation, im2col-style forward and
// backward passes with memory-bounded sub-batch tiling, and windowed
// max/average pooling.
//
// A typical setup validates the operator against its input layout before
// any propagation:
//
//	conv := nn.NewConvolution[float32]("conv1", 5, 5, 16, 1, 1, false, 0)
//	if err := conv.Validate(nn.ImageLayout{Width: 28, Height: 28, Channels: 1}); err != nil {
//		...
//	}
package nn

import (
	"github.com/lattice-ml/lattice/internal/matrix"
	"github.com/lattice-ml/lattice/internal/nn"
)

// ImageLayout describes the sample shape of an operator input or output.
type ImageLayout = nn.ImageLayout

// Convolution is the 2-D convolution operator.
type Convolution[T matrix.Float] = nn.Convolution[T]

// PoolKind selects the pooling reduction.
type PoolKind = nn.PoolKind

// Pooling variants.
const (
	MaxPool     = nn.MaxPool
	AveragePool = nn.AveragePool
)

// Pooling is the windowed max/average pooling operator.
type Pooling[T matrix.Float] = nn.Pooling[T]

// NewConvolution creates a convolution operator. Statically invalid
// parameters panic; graph-dependent checks happen in Validate.
func NewConvolution[T matrix.Float](name string, kernelWidth, kernelHeight, outChannels, hStride, vStride int, zeroPadding bool, maxTempMemSamples int) *Convolution[T] {
	return nn.NewConvolution[T](name, kernelWidth, kernelHeight, outChannels, hStride, vStride, zeroPadding, maxTempMemSamples)
}

// NewMaxPooling creates a max-pooling operator.
func NewMaxPooling[T matrix.Float](name string, windowWidth, windowHeight, hStride, vStride int) *Pooling[T] {
	return nn.NewMaxPooling[T](name, windowWidth, windowHeight, hStride, vStride)
}

// NewAveragePooling creates an average-pooling operator.
func NewAveragePooling[T matrix.Float](name string, windowWidth, windowHeight, hStride, vStride int) *Pooling[T] {
	return nn.NewAveragePooling[T](name, windowWidth, windowHeight, hStride, vStride)
}
