package matrix

import "fmt"

// Patch packing turns a batch of flattened image samples into the matrix
// that makes convolution a single multiply.
//
// Samples are column-major with interleaved channels: element (x, y, c) of
// a width*height*channels image lives at flat row c + channels*(y + height*x)
// of its sample column.
//
// The packed matrix is [kernelW*kernelH*channels, outW*outH*batch]:
// row c + channels*(ky + kernelH*kx) of column (oy + outH*ox) + outH*outW*s
// holds input element (x0+kx, y0+ky, c) of sample s, where (x0, y0) is the
// receptive-field origin of output position (ox, oy). Positions outside the
// input are zero, which can only occur under zero padding.

// AssignPackedPatches fills m (the packed matrix) from every receptive
// field of input. m must be pre-sized to [kernelW*kernelH*channels,
// outW*outH*batch]; input must be dense.
func (m *Matrix[T]) AssignPackedPatches(input *Matrix[T], inW, inH, channels, outW, outH, kernelW, kernelH, hStride, vStride int, zeroPad bool) {
	batch := input.cols
	checkPatchExtents(m, input, inW, inH, channels, outW, outH, kernelW, kernelH, batch)
	input.mustBeDense("AssignPackedPatches")
	m.mustBeDense("AssignPackedPatches")

	padX, padY := patchPadding(kernelW, kernelH, zeroPad)
	inRows := input.rows
	outPerSample := outW * outH

	for s := 0; s < batch; s++ {
		inCol := input.data[s*inRows : (s+1)*inRows]
		for ox := 0; ox < outW; ox++ {
			x0 := ox*hStride - padX
			for oy := 0; oy < outH; oy++ {
				y0 := oy*vStride - padY
				pcol := oy + outH*ox + outPerSample*s
				dst := m.data[pcol*m.rows : (pcol+1)*m.rows]
				prow := 0
				for kx := 0; kx < kernelW; kx++ {
					x := x0 + kx
					for ky := 0; ky < kernelH; ky++ {
						y := y0 + ky
						if x >= 0 && x < inW && y >= 0 && y < inH {
							src := channels * (y + inH*x)
							copy(dst[prow:prow+channels], inCol[src:src+channels])
						} else {
							for c := 0; c < channels; c++ {
								dst[prow+c] = 0
							}
						}
						prow += channels
					}
				}
			}
		}
	}
}

// UnpackPatchesAdd scatter-adds m (a gradient over the packed matrix) back
// onto inputGrad. Receptive fields overlap whenever stride < kernel, so
// contributions to the same input element are summed. inputGrad is
// accumulated into, never overwritten.
func (m *Matrix[T]) UnpackPatchesAdd(inputGrad *Matrix[T], inW, inH, channels, outW, outH, kernelW, kernelH, hStride, vStride int, zeroPad bool) {
	batch := inputGrad.cols
	checkPatchExtents(m, inputGrad, inW, inH, channels, outW, outH, kernelW, kernelH, batch)
	inputGrad.mustBeDense("UnpackPatchesAdd")
	m.mustBeDense("UnpackPatchesAdd")

	padX, padY := patchPadding(kernelW, kernelH, zeroPad)
	inRows := inputGrad.rows
	outPerSample := outW * outH

	for s := 0; s < batch; s++ {
		gradCol := inputGrad.data[s*inRows : (s+1)*inRows]
		for ox := 0; ox < outW; ox++ {
			x0 := ox*hStride - padX
			for oy := 0; oy < outH; oy++ {
				y0 := oy*vStride - padY
				pcol := oy + outH*ox + outPerSample*s
				src := m.data[pcol*m.rows : (pcol+1)*m.rows]
				prow := 0
				for kx := 0; kx < kernelW; kx++ {
					x := x0 + kx
					for ky := 0; ky < kernelH; ky++ {
						y := y0 + ky
						if x >= 0 && x < inW && y >= 0 && y < inH {
							dst := channels * (y + inH*x)
							for c := 0; c < channels; c++ {
								gradCol[dst+c] += src[prow+c]
							}
						}
						prow += channels
					}
				}
			}
		}
	}
}

// patchPadding returns the receptive-field origin offset. Centered for odd
// kernels; even kernels keep the floor(kernel/2) offset of the original
// formulation (asymmetric, documented as-is).
func patchPadding(kernelW, kernelH int, zeroPad bool) (padX, padY int) {
	if !zeroPad {
		return 0, 0
	}
	return kernelW / 2, kernelH / 2
}

func checkPatchExtents[T Float](packed, samples *Matrix[T], inW, inH, channels, outW, outH, kernelW, kernelH, batch int) {
	packedRows := kernelW * kernelH * channels
	packedCols := outW * outH * batch
	if packed.rows != packedRows || packed.cols != packedCols {
		panic(fmt.Sprintf("matrix: packed matrix must be [%d, %d], got [%d, %d]",
			packedRows, packedCols, packed.rows, packed.cols))
	}
	if samples.rows != inW*inH*channels {
		panic(fmt.Sprintf("matrix: sample matrix has %d rows, want inW*inH*channels = %d",
			samples.rows, inW*inH*channels))
	}
}
