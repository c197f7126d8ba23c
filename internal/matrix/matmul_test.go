package matrix

import (
	"testing"
)

// TestMultiply_TransposeCombinations checks all four op(a) x op(b) variants
// against hand-computed products.
//
//	a = |1 2|   b = |5 6|
//	    |3 4|       |7 8|
func TestMultiply_TransposeCombinations(t *testing.T) {
	a := FromColMajor(2, 2, []float32{1, 3, 2, 4}, CPU)
	b := FromColMajor(2, 2, []float32{5, 7, 6, 8}, CPU)

	cases := []struct {
		name           string
		transA, transB bool
		want           []float32 // column-major
	}{
		{"NN", false, false, []float32{19, 43, 22, 50}},
		{"TN", true, false, []float32{26, 38, 30, 44}},
		{"NT", false, true, []float32{17, 39, 23, 53}},
		{"TT", true, true, []float32{23, 34, 31, 46}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewDense[float32](2, 2, CPU)
			Multiply(a, tc.transA, b, tc.transB, c)
			for i, v := range c.Data() {
				if v != tc.want[i] {
					t.Errorf("c[%d] = %v, want %v", i, v, tc.want[i])
				}
			}
		})
	}
}

// TestMultiply_NonSquare exercises the stride handling with distinct
// dimensions: [2x3] x [3x2] and its transposed formulation.
func TestMultiply_NonSquare(t *testing.T) {
	// a = |1 2 3|    b = |1 4|
	//     |4 5 6|        |2 5|
	//                    |3 6|
	a := FromColMajor(2, 3, []float64{1, 4, 2, 5, 3, 6}, CPU)
	b := FromColMajor(3, 2, []float64{1, 2, 3, 4, 5, 6}, CPU)

	c := NewDense[float64](2, 2, CPU)
	Multiply(a, false, b, false, c)
	want := []float64{14, 32, 32, 77}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("a*b[%d] = %v, want %v", i, v, want[i])
		}
	}

	// aT stored as [3x2] must give the same product when transposed back.
	aT := FromColMajor(3, 2, []float64{1, 2, 3, 4, 5, 6}, CPU)
	c2 := NewDense[float64](2, 2, CPU)
	Multiply(aT, true, b, false, c2)
	for i, v := range c2.Data() {
		if v != want[i] {
			t.Errorf("aT'*b[%d] = %v, want %v", i, v, want[i])
		}
	}
}

// TestMultiplyAndAdd_Accumulates verifies the accumulating variant adds
// onto the previous contents instead of overwriting.
func TestMultiplyAndAdd_Accumulates(t *testing.T) {
	a := FromColMajor(2, 2, []float32{1, 3, 2, 4}, CPU)
	b := FromColMajor(2, 2, []float32{5, 7, 6, 8}, CPU)

	c := NewDense[float32](2, 2, CPU)
	MultiplyAndAdd(a, false, b, false, c)
	MultiplyAndAdd(a, false, b, false, c)

	want := []float32{38, 86, 44, 100} // 2 * (a*b)
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("c[%d] = %v, want %v", i, v, want[i])
		}
	}
}

// TestMultiply_PanicsOnShapeMismatch verifies inner-dimension checking.
func TestMultiply_PanicsOnShapeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("mismatched multiply did not panic")
		}
	}()
	a := NewDense[float32](2, 3, CPU)
	b := NewDense[float32](2, 2, CPU)
	c := NewDense[float32](2, 2, CPU)
	Multiply(a, false, b, false, c)
}
