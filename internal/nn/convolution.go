package nn

import (
	"fmt"
	"strings"

	"github.com/lattice-ml/lattice/internal/graph"
	"github.com/lattice-ml/lattice/internal/matrix"
	"github.com/lattice-ml/lattice/internal/modelfile"
)

// Convolution computes a 2-D convolution over a minibatch of samples by
// unrolling every receptive field into a packed matrix and reducing the
// operation to a dense multiply: output = weight x packedInput, with weight
// shaped [outputChannels, kernelWidth*kernelHeight*inputChannels].
//
// This follows "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla, Puri, Simard, 2006).
//
// The packed matrix multiplies the batch size by kernelWidth*kernelHeight,
// so packing is tiled over sub-batches of at most maxTempMemSamples samples
// (0 = unbounded). Three execution paths exist:
//
//  1. dense (or densified) input: pack, then multiply;
//  2. sparse 1-D input on an accelerator (input height 1): a fused
//     convolve-and-accumulate over the sparse columns, no packing;
//  3. sparse input otherwise: the sub-batch slice is densified, then path 1.
type Convolution[T matrix.Float] struct {
	name string

	kernelWidth  int
	kernelHeight int
	outChannels  int
	hStride      int // horizontal subsampling step
	vStride      int // vertical subsampling step
	zeroPadding  bool

	// maxTempMemSamples bounds the packed buffer, in samples. May be
	// adjusted at runtime via SetMaxTempMemSamples.
	maxTempMemSamples int

	inLayout  ImageLayout
	outLayout ImageLayout
	validated bool

	// sparseFastPath records whether the last forward pass took the fused
	// sparse kernel; the weight-gradient pass must not reuse the packed
	// buffer in that case, because none was produced.
	sparseFastPath bool
}

// NewConvolution creates a convolution operator. Graph-dependent checks
// (input layout, weight shape) happen later in Validate; statically invalid
// parameters panic here.
func NewConvolution[T matrix.Float](name string, kernelWidth, kernelHeight, outChannels, hStride, vStride int, zeroPadding bool, maxTempMemSamples int) *Convolution[T] {
	if kernelWidth <= 0 || kernelHeight <= 0 {
		panic(fmt.Sprintf("convolution %s: invalid kernel size %dx%d", name, kernelWidth, kernelHeight))
	}
	if outChannels <= 0 {
		panic(fmt.Sprintf("convolution %s: invalid output channels %d", name, outChannels))
	}
	if hStride <= 0 || vStride <= 0 {
		panic(fmt.Sprintf("convolution %s: invalid stride %dx%d", name, hStride, vStride))
	}
	if maxTempMemSamples < 0 {
		panic(fmt.Sprintf("convolution %s: invalid max temp memory %d samples", name, maxTempMemSamples))
	}
	return &Convolution[T]{
		name:              name,
		kernelWidth:       kernelWidth,
		kernelHeight:      kernelHeight,
		outChannels:       outChannels,
		hStride:           hStride,
		vStride:           vStride,
		zeroPadding:       zeroPadding,
		maxTempMemSamples: maxTempMemSamples,
	}
}

// Name returns the operator name.
func (c *Convolution[T]) Name() string { return c.name }

// InputLayout returns the validated input sample layout.
func (c *Convolution[T]) InputLayout() ImageLayout { return c.inLayout }

// OutputLayout returns the inferred output sample layout.
func (c *Convolution[T]) OutputLayout() ImageLayout { return c.outLayout }

// SetMaxTempMemSamples adjusts the packed-buffer budget; it may change
// between minibatches.
func (c *Convolution[T]) SetMaxTempMemSamples(n int) {
	if n < 0 {
		panic(fmt.Sprintf("convolution %s: invalid max temp memory %d samples", c.name, n))
	}
	c.maxTempMemSamples = n
}

// UsedSparseFastPath reports whether the last forward pass took the fused
// sparse 1-D kernel.
func (c *Convolution[T]) UsedSparseFastPath() bool { return c.sparseFastPath }

// Validate checks the operator configuration against the input layout and
// infers the output layout. Configuration errors abort graph construction.
//
// Without padding the output is (in - kernel)/stride + 1 per dimension.
// With zero padding the adjustment is kernel mod 2, which centers the
// receptive field for odd kernels; even-kernel behavior is asymmetric and
// preserved as-is.
func (c *Convolution[T]) Validate(input ImageLayout) error {
	if c.hStride > c.kernelWidth || c.vStride > c.kernelHeight {
		return fmt.Errorf("convolution %s: horizontal stride %d must be <= kernel width %d and vertical stride %d <= kernel height %d",
			c.name, c.hStride, c.kernelWidth, c.vStride, c.kernelHeight)
	}
	if input.Width < c.kernelWidth || input.Height < c.kernelHeight {
		return fmt.Errorf("convolution %s: input %s smaller than kernel %dx%d",
			c.name, input, c.kernelWidth, c.kernelHeight)
	}
	if input.Channels <= 0 {
		return fmt.Errorf("convolution %s: input %s has no channels", c.name, input)
	}

	c.inLayout = input
	if c.zeroPadding {
		c.outLayout = ImageLayout{
			Width:    (input.Width-c.kernelWidth%2)/c.hStride + 1,
			Height:   (input.Height-c.kernelHeight%2)/c.vStride + 1,
			Channels: c.outChannels,
		}
	} else {
		c.outLayout = ImageLayout{
			Width:    (input.Width-c.kernelWidth)/c.hStride + 1,
			Height:   (input.Height-c.kernelHeight)/c.vStride + 1,
			Channels: c.outChannels,
		}
	}
	c.validated = true
	return nil
}

// ValidateWeight checks the weight operand shape. operand names the weight
// node for the error message.
func (c *Convolution[T]) ValidateWeight(operand string, w *matrix.Matrix[T]) error {
	c.mustBeValidated()
	wantCols := c.kernelWidth * c.kernelHeight * c.inLayout.Channels
	if w.Rows() != c.outChannels || w.Cols() != wantCols {
		return fmt.Errorf("convolution %s: weight %s must have dimension [%d, %d] which is [outputChannels, kernelWidth*kernelHeight*inputChannels], got [%d, %d]",
			c.name, operand, c.outChannels, wantCols, w.Rows(), w.Cols())
	}
	return nil
}

// ValidateInput checks the per-sample dimension of the input operand.
func (c *Convolution[T]) ValidateInput(operand string, rows int) error {
	c.mustBeValidated()
	if rows != c.inLayout.Elements() {
		return fmt.Errorf("convolution %s: each column of input %s is a sample and must have dimension %d, which is inputWidth*inputHeight*inputChannels",
			c.name, operand, c.inLayout.Elements())
	}
	return nil
}

// ForwardProp computes the convolution over the samples selected by fr,
// writing into the matching columns of output. packed is the transient
// scratch matrix; it retains the packed input of the last sub-batch, which
// BackpropWeight may reuse.
func (c *Convolution[T]) ForwardProp(fr graph.FrameRange, output, weight, input, packed *matrix.Matrix[T]) {
	c.mustBeValidated()
	out := graph.ColumnsFor(output, fr)
	in := graph.ColumnsFor(input, fr)

	packedRows := c.kernelWidth * c.kernelHeight * c.inLayout.Channels
	outPerChannel := c.outLayout.Width * c.outLayout.Height
	batch := in.Cols()

	if weight.Rows() != c.outChannels || weight.Cols() != packedRows {
		panic(fmt.Sprintf("convolution %s: weight is [%d, %d], want [%d, %d]",
			c.name, weight.Rows(), weight.Cols(), c.outChannels, packedRows))
	}
	if out.Rows() != c.outChannels*outPerChannel || out.Cols() != batch {
		panic(fmt.Sprintf("convolution %s: output is [%d, %d], want [%d, %d]",
			c.name, out.Rows(), out.Cols(), c.outChannels*outPerChannel, batch))
	}

	// Accelerator-resident sparse 1-D input takes the fused kernel; the
	// packing trick and its reshape are skipped entirely.
	c.sparseFastPath = c.inLayout.Height == 1 &&
		in.Format() == matrix.SparseCSC &&
		in.Device() == matrix.GPU

	if !c.sparseFastPath {
		out.Reshape(c.outChannels, batch*outPerChannel)
	}

	subSize, _ := subBatchPlan(batch, c.maxTempMemSamples)
	forEachSubBatch(batch, subSize, func(start, count int) {
		inputSub := in.ColumnSlice(start, count)
		if c.sparseFastPath {
			if c.kernelWidth*c.inLayout.Channels != weight.Cols() {
				panic(fmt.Sprintf("convolution %s: kernel width and weight matrix dimensions don't match", c.name))
			}
			outputSub := out.ColumnSlice(start, count)
			matrix.ConvolveAndWeightedAdd(T(1), weight, inputSub, T(0), outputSub,
				c.inLayout.Channels, c.hStride, c.zeroPadding)
			return
		}
		dense := inputSub.ToDense()
		packed.Resize(packedRows, outPerChannel*count)
		packed.AssignPackedPatches(dense,
			c.inLayout.Width, c.inLayout.Height, c.inLayout.Channels,
			c.outLayout.Width, c.outLayout.Height,
			c.kernelWidth, c.kernelHeight, c.hStride, c.vStride, c.zeroPadding)
		outputSub := out.ColumnSlice(start*outPerChannel, count*outPerChannel)
		matrix.Multiply(weight, false, packed, false, outputSub)
	})

	if !c.sparseFastPath {
		out.Reshape(c.outChannels*outPerChannel, batch) // each sample becomes a column again
	}
}

// BackpropWeight accumulates the weight gradient: weightGrad +=
// dOutput_reshaped x packedInput^T, summed over sub-batches.
//
// The packed input retained by the forward pass is reused only when all
// three hold: the batch was a single sub-batch, the call is not inside a
// recurrent loop (fr spans all frames), and the forward pass did not take
// the sparse fast path. Otherwise the packing is recomputed per sub-batch
// from the unmutated input.
func (c *Convolution[T]) BackpropWeight(fr graph.FrameRange, weightGrad, outputGrad, input, packed *matrix.Matrix[T]) {
	c.mustBeValidated()
	outGrad := graph.ColumnsFor(outputGrad, fr)
	in := graph.ColumnsFor(input, fr)
	inLoop := !fr.IsAllFrames()

	packedRows := c.kernelWidth * c.kernelHeight * c.inLayout.Channels
	outPerChannel := c.outLayout.Width * c.outLayout.Height
	batch := in.Cols()

	outGrad.Reshape(c.outChannels, batch*outPerChannel)

	subSize, numSub := subBatchPlan(batch, c.maxTempMemSamples)
	reuse := numSub == 1 && !inLoop && !c.sparseFastPath
	if reuse {
		matrix.MultiplyAndAdd(outGrad, false, packed, true, weightGrad)
	} else {
		forEachSubBatch(batch, subSize, func(start, count int) {
			outGradSub := outGrad.ColumnSlice(start*outPerChannel, count*outPerChannel)
			dense := in.ColumnSlice(start, count).ToDense()
			packed.Resize(packedRows, outPerChannel*count)
			packed.AssignPackedPatches(dense,
				c.inLayout.Width, c.inLayout.Height, c.inLayout.Channels,
				c.outLayout.Width, c.outLayout.Height,
				c.kernelWidth, c.kernelHeight, c.hStride, c.vStride, c.zeroPadding)
			matrix.MultiplyAndAdd(outGradSub, false, packed, true, weightGrad)
		})
	}

	outGrad.Reshape(c.outChannels*outPerChannel, batch)
}

// BackpropInput accumulates the input gradient: per sub-batch, packedGrad =
// weight^T x dOutput_reshaped, then the packed gradient is scatter-added
// back onto the receptive-field positions of inputGrad.
func (c *Convolution[T]) BackpropInput(fr graph.FrameRange, inputGrad, outputGrad, weight, packed *matrix.Matrix[T]) {
	c.mustBeValidated()
	outGrad := graph.ColumnsFor(outputGrad, fr)
	inGrad := graph.ColumnsFor(inputGrad, fr)

	packedRows := c.kernelWidth * c.kernelHeight * c.inLayout.Channels
	outPerChannel := c.outLayout.Width * c.outLayout.Height
	batch := inGrad.Cols()

	outGrad.Reshape(c.outChannels, batch*outPerChannel)

	subSize, _ := subBatchPlan(batch, c.maxTempMemSamples)
	forEachSubBatch(batch, subSize, func(start, count int) {
		packed.Resize(packedRows, outPerChannel*count)
		outGradSub := outGrad.ColumnSlice(start*outPerChannel, count*outPerChannel)
		matrix.Multiply(weight, true, outGradSub, false, packed)

		inGradSub := inGrad.ColumnSlice(start, count)
		packed.UnpackPatchesAdd(inGradSub,
			c.inLayout.Width, c.inLayout.Height, c.inLayout.Channels,
			c.outLayout.Width, c.outLayout.Height,
			c.kernelWidth, c.kernelHeight, c.hStride, c.vStride, c.zeroPadding)
	})

	outGrad.Reshape(c.outChannels*outPerChannel, batch)
}

// Save writes the operator parameters. Field order is the file-format
// contract: kernel width, kernel height, horizontal stride, vertical
// stride, output channels, zero padding, max temp memory in samples.
func (c *Convolution[T]) Save(w *modelfile.Writer) error {
	for _, v := range []uint64{
		uint64(c.kernelWidth), uint64(c.kernelHeight),
		uint64(c.hStride), uint64(c.vStride),
		uint64(c.outChannels),
	} {
		if err := w.WriteUint64(v); err != nil {
			return err
		}
	}
	if err := w.WriteBool(c.zeroPadding); err != nil {
		return err
	}
	return w.WriteUint64(uint64(c.maxTempMemSamples))
}

// Load reads the operator parameters in the order Save wrote them. The
// operator must be re-validated against its input layout afterwards.
func (c *Convolution[T]) Load(r *modelfile.Reader) error {
	fields := []*int{&c.kernelWidth, &c.kernelHeight, &c.hStride, &c.vStride, &c.outChannels}
	for _, f := range fields {
		v, err := r.ReadUint64()
		if err != nil {
			return err
		}
		*f = int(v)
	}
	zeroPad, err := r.ReadBool()
	if err != nil {
		return err
	}
	c.zeroPadding = zeroPad
	maxTemp, err := r.ReadUint64()
	if err != nil {
		return err
	}
	c.maxTempMemSamples = int(maxTemp)
	c.validated = false
	return nil
}

// DumpInfo returns a human-readable parameter summary.
func (c *Convolution[T]) DumpInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Input[Width:%d, Height:%d, Channels:%d]\n", c.inLayout.Width, c.inLayout.Height, c.inLayout.Channels)
	fmt.Fprintf(&b, "Kernel[Width:%d, Height:%d]  SubSample[Horizontal:%d, Vertical:%d]\n", c.kernelWidth, c.kernelHeight, c.hStride, c.vStride)
	fmt.Fprintf(&b, "Output[Width:%d, Height:%d, Channels:%d]\n", c.outLayout.Width, c.outLayout.Height, c.outLayout.Channels)
	fmt.Fprintf(&b, "ZeroPadding=%v  maxTempMemSizeInSamples=%d\n", c.zeroPadding, c.maxTempMemSamples)
	return b.String()
}

func (c *Convolution[T]) mustBeValidated() {
	if !c.validated {
		panic(fmt.Sprintf("convolution %s: used before validation", c.name))
	}
}
