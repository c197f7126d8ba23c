package matrix

import "fmt"

// ConvolveAndWeightedAdd computes output = alpha * conv(weight, input) +
// beta * output for height-1 samples, fused over sparse input — no packed
// intermediate is materialized. Each input column is a 1-D sequence of
// channel-interleaved steps; weight is [outChannels, kernelW*channels] with
// column c + channels*kx addressing channel c at kernel offset kx; each
// output column holds outChannels*outW elements laid out cOut +
// outChannels*ox.
//
// input must be SparseCSC: the kernel iterates nonzeros and scatters each
// into every output position whose receptive field covers it.
func ConvolveAndWeightedAdd[T Float](alpha T, weight, input *Matrix[T], beta T, output *Matrix[T], channels, stride int, zeroPad bool) {
	if input.format != SparseCSC {
		panic(fmt.Sprintf("matrix: ConvolveAndWeightedAdd requires sparse input, got %s", input.format))
	}
	weight.mustBeDense("ConvolveAndWeightedAdd")
	output.mustBeDense("ConvolveAndWeightedAdd")
	if weight.cols%channels != 0 {
		panic(fmt.Sprintf("matrix: weight columns %d not a multiple of channels %d", weight.cols, channels))
	}
	kernelW := weight.cols / channels
	outChannels := weight.rows
	if output.rows%outChannels != 0 {
		panic(fmt.Sprintf("matrix: output rows %d not a multiple of output channels %d", output.rows, outChannels))
	}
	outW := output.rows / outChannels
	if input.cols != output.cols {
		panic(fmt.Sprintf("matrix: batch mismatch: input %d columns, output %d", input.cols, output.cols))
	}

	pad := 0
	if zeroPad {
		pad = kernelW / 2
	}

	if beta == 0 {
		output.Zero()
	} else if beta != 1 {
		for i := range output.data {
			output.data[i] *= beta
		}
	}

	for s := 0; s < input.cols; s++ {
		outCol := output.data[s*output.rows : (s+1)*output.rows]
		for k := input.colPtr[s]; k < input.colPtr[s+1]; k++ {
			r := input.rowIndex[k]
			v := alpha * input.values[k]
			x := r / channels
			c := r % channels

			// Output positions ox whose window [ox*stride-pad,
			// ox*stride-pad+kernelW) covers x.
			oxLo := ceilDiv(x+pad-kernelW+1, stride)
			if oxLo < 0 {
				oxLo = 0
			}
			oxHi := (x + pad) / stride
			if oxHi > outW-1 {
				oxHi = outW - 1
			}
			for ox := oxLo; ox <= oxHi; ox++ {
				kx := x - ox*stride + pad
				wCol := weight.data[(c+channels*kx)*outChannels : (c+channels*kx+1)*outChannels]
				dst := outCol[ox*outChannels : (ox+1)*outChannels]
				for cOut := range dst {
					dst[cOut] += wCol[cOut] * v
				}
			}
		}
	}
}

// ceilDiv returns ceil(a/b) for b > 0 and any sign of a.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b > 0 {
		q++
	}
	return q
}
