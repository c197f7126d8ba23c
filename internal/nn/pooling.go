package nn

import (
	"fmt"
	"strings"

	"github.com/lattice-ml/lattice/internal/graph"
	"github.com/lattice-ml/lattice/internal/matrix"
	"github.com/lattice-ml/lattice/internal/modelfile"
)

// PoolKind selects the pooling reduction. The set is closed: validation,
// shape inference and serialization are shared, and forward/backward
// dispatch on the kind.
type PoolKind int

// Pooling variants.
const (
	MaxPool PoolKind = iota
	AveragePool
)

// String returns the variant name.
func (k PoolKind) String() string {
	switch k {
	case MaxPool:
		return "MaxPooling"
	case AveragePool:
		return "AveragePooling"
	default:
		return "Unknown"
	}
}

// Pooling computes a windowed reduction over each sample: the maximum or
// the mean of every pooling window, per channel. Unlike convolution there
// is no packing step and no weight operand; the reduction scans each
// window directly.
type Pooling[T matrix.Float] struct {
	name string
	kind PoolKind

	windowWidth  int
	windowHeight int
	hStride      int // horizontal subsampling step
	vStride      int // vertical subsampling step

	inLayout  ImageLayout
	outLayout ImageLayout

	// Cached per-sample flat sizes, set by Validate.
	inSize  int
	outSize int

	validated bool
}

// NewMaxPooling creates a max-pooling operator.
func NewMaxPooling[T matrix.Float](name string, windowWidth, windowHeight, hStride, vStride int) *Pooling[T] {
	return newPooling[T](name, MaxPool, windowWidth, windowHeight, hStride, vStride)
}

// NewAveragePooling creates an average-pooling operator.
func NewAveragePooling[T matrix.Float](name string, windowWidth, windowHeight, hStride, vStride int) *Pooling[T] {
	return newPooling[T](name, AveragePool, windowWidth, windowHeight, hStride, vStride)
}

func newPooling[T matrix.Float](name string, kind PoolKind, windowWidth, windowHeight, hStride, vStride int) *Pooling[T] {
	if windowWidth <= 0 || windowHeight <= 0 {
		panic(fmt.Sprintf("%s %s: invalid window size %dx%d", kind, name, windowWidth, windowHeight))
	}
	if hStride <= 0 || vStride <= 0 {
		panic(fmt.Sprintf("%s %s: invalid stride %dx%d", kind, name, hStride, vStride))
	}
	return &Pooling[T]{
		name:         name,
		kind:         kind,
		windowWidth:  windowWidth,
		windowHeight: windowHeight,
		hStride:      hStride,
		vStride:      vStride,
	}
}

// Name returns the operator name.
func (p *Pooling[T]) Name() string { return p.name }

// Kind returns the pooling variant.
func (p *Pooling[T]) Kind() PoolKind { return p.kind }

// InputLayout returns the validated input sample layout.
func (p *Pooling[T]) InputLayout() ImageLayout { return p.inLayout }

// OutputLayout returns the inferred output sample layout.
func (p *Pooling[T]) OutputLayout() ImageLayout { return p.outLayout }

// Validate checks the configuration against the input layout and infers
// the output layout: (in - window)/stride + 1 per spatial dimension,
// channels unchanged. Pooling has no padding option.
func (p *Pooling[T]) Validate(input ImageLayout) error {
	if p.hStride > p.windowWidth || p.vStride > p.windowHeight {
		return fmt.Errorf("%s %s: horizontal stride %d must be <= window width %d and vertical stride %d <= window height %d",
			p.kind, p.name, p.hStride, p.windowWidth, p.vStride, p.windowHeight)
	}
	if input.Width < p.windowWidth || input.Height < p.windowHeight {
		return fmt.Errorf("%s %s: input %s smaller than window %dx%d",
			p.kind, p.name, input, p.windowWidth, p.windowHeight)
	}
	if input.Channels <= 0 {
		return fmt.Errorf("%s %s: input %s has no channels", p.kind, p.name, input)
	}

	p.inLayout = input
	p.outLayout = ImageLayout{
		Width:    (input.Width-p.windowWidth)/p.hStride + 1,
		Height:   (input.Height-p.windowHeight)/p.vStride + 1,
		Channels: input.Channels,
	}
	p.inSize = p.inLayout.Elements()
	p.outSize = p.outLayout.Elements()
	p.validated = true
	return nil
}

// ValidateInput checks the per-sample dimension of the input operand.
func (p *Pooling[T]) ValidateInput(operand string, rows int) error {
	p.mustBeValidated()
	if rows != p.inSize {
		return fmt.Errorf("%s %s: each column of input %s is a sample and must have dimension %d, which is inputWidth*inputHeight*inputChannels",
			p.kind, p.name, operand, p.inSize)
	}
	return nil
}

// ForwardProp computes the pooling reduction over the samples selected by
// fr, writing into the matching columns of output.
func (p *Pooling[T]) ForwardProp(fr graph.FrameRange, output, input *matrix.Matrix[T]) {
	p.mustBeValidated()
	out := graph.ColumnsFor(output, fr)
	in := graph.ColumnsFor(input, fr)

	switch p.kind {
	case MaxPool:
		out.AssignMaxPooling(in, p.inLayout.Channels,
			p.inLayout.Width, p.inLayout.Height, p.inSize,
			p.outLayout.Width, p.outLayout.Height, p.outSize,
			p.windowWidth, p.windowHeight, p.hStride, p.vStride)
	case AveragePool:
		out.AssignAveragePooling(in, p.inLayout.Channels,
			p.inLayout.Width, p.inLayout.Height, p.inSize,
			p.outLayout.Width, p.outLayout.Height, p.outSize,
			p.windowWidth, p.windowHeight, p.hStride, p.vStride)
	default:
		panic(fmt.Sprintf("pooling %s: unknown kind %d", p.name, p.kind))
	}
}

// BackpropInput accumulates the input gradient for the samples selected by
// fr. Max pooling routes each output gradient to the input element the
// forward pass selected (it needs the input values to re-derive the
// selection); average pooling spreads 1/windowElements of it across the
// window. Both add into inputGrad.
func (p *Pooling[T]) BackpropInput(fr graph.FrameRange, inputGrad, outputGrad, input *matrix.Matrix[T]) {
	p.mustBeValidated()
	outGrad := graph.ColumnsFor(outputGrad, fr)
	inGrad := graph.ColumnsFor(inputGrad, fr)

	switch p.kind {
	case MaxPool:
		in := graph.ColumnsFor(input, fr)
		inGrad.AddMaxPoolingGradient(outGrad, in, p.inLayout.Channels,
			p.inLayout.Width, p.inLayout.Height, p.inSize,
			p.outLayout.Width, p.outLayout.Height, p.outSize,
			p.windowWidth, p.windowHeight, p.hStride, p.vStride)
	case AveragePool:
		inGrad.AddAveragePoolingGradient(outGrad, p.inLayout.Channels,
			p.inLayout.Width, p.inLayout.Height, p.inSize,
			p.outLayout.Width, p.outLayout.Height, p.outSize,
			p.windowWidth, p.windowHeight, p.hStride, p.vStride)
	default:
		panic(fmt.Sprintf("pooling %s: unknown kind %d", p.name, p.kind))
	}
}

// Save writes the operator parameters: the variant tag, then window width,
// window height, horizontal stride, vertical stride — the window fields in
// that exact legacy order.
func (p *Pooling[T]) Save(w *modelfile.Writer) error {
	for _, v := range []uint64{
		uint64(p.kind),
		uint64(p.windowWidth), uint64(p.windowHeight),
		uint64(p.hStride), uint64(p.vStride),
	} {
		if err := w.WriteUint64(v); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the operator parameters in the order Save wrote them. The
// operator must be re-validated against its input layout afterwards.
func (p *Pooling[T]) Load(r *modelfile.Reader) error {
	kind, err := r.ReadUint64()
	if err != nil {
		return err
	}
	if PoolKind(kind) != MaxPool && PoolKind(kind) != AveragePool {
		return fmt.Errorf("pooling %s: unknown variant tag %d", p.name, kind)
	}
	p.kind = PoolKind(kind)

	fields := []*int{&p.windowWidth, &p.windowHeight, &p.hStride, &p.vStride}
	for _, f := range fields {
		v, err := r.ReadUint64()
		if err != nil {
			return err
		}
		*f = int(v)
	}
	p.validated = false
	return nil
}

// DumpInfo returns a human-readable parameter summary.
func (p *Pooling[T]) DumpInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Input[Width:%d, Height:%d, Channels:%d]\n", p.inLayout.Width, p.inLayout.Height, p.inLayout.Channels)
	fmt.Fprintf(&b, "PoolingWindow[Width:%d, Height:%d]  SubSampling[Horizontal:%d, Vertical:%d]\n", p.windowWidth, p.windowHeight, p.hStride, p.vStride)
	fmt.Fprintf(&b, "Output[Width:%d, Height:%d, Channels:%d]\n", p.outLayout.Width, p.outLayout.Height, p.outLayout.Channels)
	fmt.Fprintf(&b, "TotalSizePerSample[Input:%d, Output:%d]\n", p.inSize, p.outSize)
	return b.String()
}

func (p *Pooling[T]) mustBeValidated() {
	if !p.validated {
		panic(fmt.Sprintf("%s %s: used before validation", p.kind, p.name))
	}
}
