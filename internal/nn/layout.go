// Package nn implements the convolution and pooling operators of the
// computation graph: shape inference and validation, the im2col-style
// forward/backward passes with memory-bounded sub-batch tiling, and the
// windowed pooling reductions.
package nn

import "fmt"

// ImageLayout describes the sample shape of an operator input or output.
// A sample is one flattened image forming one column of a batch matrix;
// Width*Height*Channels equals that column's row count.
type ImageLayout struct {
	Width    int
	Height   int
	Channels int
}

// Elements returns the flat per-sample dimension.
func (l ImageLayout) Elements() int {
	return l.Width * l.Height * l.Channels
}

// String returns the layout as "WxHxC".
func (l ImageLayout) String() string {
	return fmt.Sprintf("%dx%dx%d", l.Width, l.Height, l.Channels)
}
