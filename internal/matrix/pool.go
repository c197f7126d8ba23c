package matrix

import "fmt"

// Pooling primitives reduce each window of a sample directly, without a
// packing step. Sample layout matches pack.go: element (x, y, c) at flat
// row c + channels*(y + height*x). Pooling never pads, so every window is
// fully inside the input.

// AssignMaxPooling writes into m (the output batch) the maximum over each
// pooling window of input. Ties resolve to the first maximal element in
// scan order (x-major, then y); AddMaxPoolingGradient repeats the same scan
// so gradient routing always agrees with the forward selection.
func (m *Matrix[T]) AssignMaxPooling(input *Matrix[T], channels, inW, inH, inSize, outW, outH, outSize, windowW, windowH, hStride, vStride int) {
	checkPoolExtents(m, input, channels, inW, inH, inSize, outW, outH, outSize)

	for s := 0; s < input.cols; s++ {
		inCol := input.data[s*inSize : (s+1)*inSize]
		outCol := m.data[s*outSize : (s+1)*outSize]
		for c := 0; c < channels; c++ {
			for ox := 0; ox < outW; ox++ {
				x0 := ox * hStride
				for oy := 0; oy < outH; oy++ {
					y0 := oy * vStride
					maxVal := inCol[c+channels*(y0+inH*x0)]
					for wx := 0; wx < windowW; wx++ {
						x := x0 + wx
						for wy := 0; wy < windowH; wy++ {
							y := y0 + wy
							if v := inCol[c+channels*(y+inH*x)]; v > maxVal {
								maxVal = v
							}
						}
					}
					outCol[c+channels*(oy+outH*ox)] = maxVal
				}
			}
		}
	}
}

// AddMaxPoolingGradient accumulates outGrad into m (the input-gradient
// batch), routing each output position's gradient to the input element the
// forward pass selected. Overlapping windows may route to the same element;
// contributions add.
func (m *Matrix[T]) AddMaxPoolingGradient(outGrad, input *Matrix[T], channels, inW, inH, inSize, outW, outH, outSize, windowW, windowH, hStride, vStride int) {
	checkPoolExtents(outGrad, m, channels, inW, inH, inSize, outW, outH, outSize)
	checkPoolExtents(outGrad, input, channels, inW, inH, inSize, outW, outH, outSize)

	for s := 0; s < input.cols; s++ {
		inCol := input.data[s*inSize : (s+1)*inSize]
		gradCol := m.data[s*inSize : (s+1)*inSize]
		outGradCol := outGrad.data[s*outSize : (s+1)*outSize]
		for c := 0; c < channels; c++ {
			for ox := 0; ox < outW; ox++ {
				x0 := ox * hStride
				for oy := 0; oy < outH; oy++ {
					y0 := oy * vStride
					// Same scan as AssignMaxPooling: strict > keeps the
					// first maximal element.
					argmax := c + channels*(y0+inH*x0)
					maxVal := inCol[argmax]
					for wx := 0; wx < windowW; wx++ {
						x := x0 + wx
						for wy := 0; wy < windowH; wy++ {
							y := y0 + wy
							idx := c + channels*(y+inH*x)
							if inCol[idx] > maxVal {
								maxVal = inCol[idx]
								argmax = idx
							}
						}
					}
					gradCol[argmax] += outGradCol[c+channels*(oy+outH*ox)]
				}
			}
		}
	}
}

// AssignAveragePooling writes into m the mean over each pooling window of
// input.
func (m *Matrix[T]) AssignAveragePooling(input *Matrix[T], channels, inW, inH, inSize, outW, outH, outSize, windowW, windowH, hStride, vStride int) {
	checkPoolExtents(m, input, channels, inW, inH, inSize, outW, outH, outSize)

	windowSize := T(windowW * windowH)
	for s := 0; s < input.cols; s++ {
		inCol := input.data[s*inSize : (s+1)*inSize]
		outCol := m.data[s*outSize : (s+1)*outSize]
		for c := 0; c < channels; c++ {
			for ox := 0; ox < outW; ox++ {
				x0 := ox * hStride
				for oy := 0; oy < outH; oy++ {
					y0 := oy * vStride
					var sum T
					for wx := 0; wx < windowW; wx++ {
						x := x0 + wx
						for wy := 0; wy < windowH; wy++ {
							y := y0 + wy
							sum += inCol[c+channels*(y+inH*x)]
						}
					}
					outCol[c+channels*(oy+outH*ox)] = sum / windowSize
				}
			}
		}
	}
}

// AddAveragePoolingGradient accumulates outGrad into m (the input-gradient
// batch): every element of a window receives outputGrad/windowSize, so the
// gradient mass scattered per window equals the output gradient exactly.
func (m *Matrix[T]) AddAveragePoolingGradient(outGrad *Matrix[T], channels, inW, inH, inSize, outW, outH, outSize, windowW, windowH, hStride, vStride int) {
	checkPoolExtents(outGrad, m, channels, inW, inH, inSize, outW, outH, outSize)

	windowSize := T(windowW * windowH)
	for s := 0; s < m.cols; s++ {
		gradCol := m.data[s*inSize : (s+1)*inSize]
		outGradCol := outGrad.data[s*outSize : (s+1)*outSize]
		for c := 0; c < channels; c++ {
			for ox := 0; ox < outW; ox++ {
				x0 := ox * hStride
				for oy := 0; oy < outH; oy++ {
					y0 := oy * vStride
					share := outGradCol[c+channels*(oy+outH*ox)] / windowSize
					for wx := 0; wx < windowW; wx++ {
						x := x0 + wx
						for wy := 0; wy < windowH; wy++ {
							y := y0 + wy
							gradCol[c+channels*(y+inH*x)] += share
						}
					}
				}
			}
		}
	}
}

// checkPoolExtents validates the output-batch and input-batch extents of a
// pooling call against the explicit layout parameters.
func checkPoolExtents[T Float](output, input *Matrix[T], channels, inW, inH, inSize, outW, outH, outSize int) {
	if inSize != inW*inH*channels {
		panic(fmt.Sprintf("matrix: pooling input size %d != inW*inH*channels %d", inSize, inW*inH*channels))
	}
	if outSize != outW*outH*channels {
		panic(fmt.Sprintf("matrix: pooling output size %d != outW*outH*channels %d", outSize, outW*outH*channels))
	}
	input.mustBeDense("pooling")
	output.mustBeDense("pooling")
	if input.rows != inSize {
		panic(fmt.Sprintf("matrix: pooling input has %d rows, want %d", input.rows, inSize))
	}
	if output.rows != outSize {
		panic(fmt.Sprintf("matrix: pooling output has %d rows, want %d", output.rows, outSize))
	}
	if input.cols != output.cols {
		panic(fmt.Sprintf("matrix: pooling batch mismatch: input %d columns, output %d", input.cols, output.cols))
	}
}
