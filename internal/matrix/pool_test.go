package matrix

import (
	"testing"
)

// 4x4 single-channel sample used across the pooling tests: element (x, y)
// at row y + 4x holds y + 4x + 1.
func poolInput() *Matrix[float32] {
	m := NewDense[float32](16, 1, CPU)
	for i := range m.Data() {
		m.Data()[i] = float32(i + 1)
	}
	return m
}

// TestAssignMaxPooling_KnownValues pools 2x2 windows with stride 2.
func TestAssignMaxPooling_KnownValues(t *testing.T) {
	input := poolInput()
	out := NewDense[float32](4, 1, CPU)
	out.AssignMaxPooling(input, 1, 4, 4, 16, 2, 2, 4, 2, 2, 2, 2)

	// Output (ox, oy) at row oy + 2*ox; each window's max is its
	// bottom-right corner under this fill.
	want := []float32{6, 8, 14, 16}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

// TestAssignAveragePooling_KnownValues pools 2x2 windows with stride 2.
func TestAssignAveragePooling_KnownValues(t *testing.T) {
	input := poolInput()
	out := NewDense[float32](4, 1, CPU)
	out.AssignAveragePooling(input, 1, 4, 4, 16, 2, 2, 4, 2, 2, 2, 2)

	want := []float32{3.5, 5.5, 11.5, 13.5}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

// TestAddMaxPoolingGradient_RoutesToSelected verifies each output gradient
// lands on exactly the element the forward pass selected.
func TestAddMaxPoolingGradient_RoutesToSelected(t *testing.T) {
	input := poolInput()
	outGrad := NewDense[float32](4, 1, CPU)
	copy(outGrad.Data(), []float32{10, 20, 30, 40})

	inGrad := NewDense[float32](16, 1, CPU)
	inGrad.AddMaxPoolingGradient(outGrad, input, 1, 4, 4, 16, 2, 2, 4, 2, 2, 2, 2)

	// Window maxima sit at rows 5, 7, 13, 15.
	want := make([]float32, 16)
	want[5], want[7], want[13], want[15] = 10, 20, 30, 40
	for i, v := range inGrad.Data() {
		if v != want[i] {
			t.Errorf("inGrad[%d] = %v, want %v", i, v, want[i])
		}
	}
}

// TestAddMaxPoolingGradient_TiesPickFirstInScanOrder verifies that with
// all-equal inputs the gradient goes to each window's origin, the first
// element visited by the x-major scan, matching the forward selection.
func TestAddMaxPoolingGradient_TiesPickFirstInScanOrder(t *testing.T) {
	input := NewDense[float32](9, 1, CPU)
	for i := range input.Data() {
		input.Data()[i] = 1
	}
	outGrad := NewDense[float32](4, 1, CPU)
	for i := range outGrad.Data() {
		outGrad.Data()[i] = 1
	}

	// 3x3 input, 2x2 windows, stride 1: 2x2 output, window origins at
	// rows 0, 1, 3, 4.
	inGrad := NewDense[float32](9, 1, CPU)
	inGrad.AddMaxPoolingGradient(outGrad, input, 1, 3, 3, 9, 2, 2, 4, 2, 2, 1, 1)

	want := []float32{1, 1, 0, 1, 1, 0, 0, 0, 0}
	for i, v := range inGrad.Data() {
		if v != want[i] {
			t.Errorf("inGrad[%d] = %v, want %v", i, v, want[i])
		}
	}
}

// TestAddMaxPoolingGradient_Accumulates verifies the gradient adds onto
// whatever is already in the buffer.
func TestAddMaxPoolingGradient_Accumulates(t *testing.T) {
	input := poolInput()
	outGrad := NewDense[float32](4, 1, CPU)
	for i := range outGrad.Data() {
		outGrad.Data()[i] = 1
	}

	inGrad := NewDense[float32](16, 1, CPU)
	inGrad.AddMaxPoolingGradient(outGrad, input, 1, 4, 4, 16, 2, 2, 4, 2, 2, 2, 2)
	inGrad.AddMaxPoolingGradient(outGrad, input, 1, 4, 4, 16, 2, 2, 4, 2, 2, 2, 2)

	if got := inGrad.At(15, 0); got != 2 {
		t.Errorf("inGrad[15] = %v after two passes, want 2", got)
	}
}

// TestAddAveragePoolingGradient_ConservesMass verifies the scattered
// gradient sums to the output gradient, window by window and in total.
func TestAddAveragePoolingGradient_ConservesMass(t *testing.T) {
	outGrad := NewDense[float64](4, 1, CPU)
	copy(outGrad.Data(), []float64{1, 2, 3, 4})

	inGrad := NewDense[float64](16, 1, CPU)
	inGrad.AddAveragePoolingGradient(outGrad, 1, 4, 4, 16, 2, 2, 4, 2, 2, 2, 2)

	var inSum, outSum float64
	for _, v := range inGrad.Data() {
		inSum += v
	}
	for _, v := range outGrad.Data() {
		outSum += v
	}
	if inSum != outSum {
		t.Errorf("input gradient mass %v != output gradient mass %v", inSum, outSum)
	}

	// Every element of the first window gets 1/4.
	for _, row := range []int{0, 1, 4, 5} {
		if got := inGrad.At(row, 0); got != 0.25 {
			t.Errorf("inGrad[%d] = %v, want 0.25", row, got)
		}
	}
}

// TestPooling_OverlappingWindows uses stride 1 so adjacent windows share
// elements; a shared maximum must collect gradient from every window that
// selects it.
func TestPooling_OverlappingWindows(t *testing.T) {
	// 3x3 input with one dominant element at the center (row 4).
	input := NewDense[float32](9, 1, CPU)
	input.Data()[4] = 100

	outGrad := NewDense[float32](4, 1, CPU)
	for i := range outGrad.Data() {
		outGrad.Data()[i] = 1
	}

	inGrad := NewDense[float32](9, 1, CPU)
	inGrad.AddMaxPoolingGradient(outGrad, input, 1, 3, 3, 9, 2, 2, 4, 2, 2, 1, 1)

	// The center lies in all four 2x2 windows.
	if got := inGrad.At(4, 0); got != 4 {
		t.Errorf("center gradient = %v, want 4", got)
	}
	var total float32
	for _, v := range inGrad.Data() {
		total += v
	}
	if total != 4 {
		t.Errorf("total gradient = %v, want 4", total)
	}
}
