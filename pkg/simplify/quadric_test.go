package simplify

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPlaneQuadricDistance(t *testing.T) {
	// Plane y = 2 spanned by the x and z axes.
	q := PlaneQuadric([]float64{1, 0, 0}, []float64{0, 0, 1}, []float64{0, 2, 0})

	tests := []struct {
		name string
		v    []float64
		want float64
	}{
		{"on plane", []float64{5, 2, -3}, 0},
		{"above", []float64{0, 5, 0}, 9},
		{"below", []float64{1, -1, 1}, 9},
		{"origin", []float64{0, 0, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.Eval(tt.v); !approxEqual(got, tt.want, 1e-12) {
				t.Errorf("Eval(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestPlaneQuadricTexturedAxes(t *testing.T) {
	// A 2D subspace in 5D: the spatial x axis paired with u, and z paired with v.
	s := 1 / math.Sqrt2
	t1 := []float64{s, 0, 0, s, 0}
	t2 := []float64{0, 0, s, 0, s}
	q := PlaneQuadric(t1, t2, make([]float64, 5))

	if got := q.Eval([]float64{1, 0, 0, 1, 0}); !approxEqual(got, 0, 1e-12) {
		t.Errorf("expected point in subspace to cost 0, got %v", got)
	}
	// Same position, wrong texture coordinate.
	if got := q.Eval([]float64{1, 0, 0, 0, 0}); !approxEqual(got, 0.5, 1e-12) {
		t.Errorf("expected texture deviation to cost 0.5, got %v", got)
	}
	if got := q.Eval([]float64{0, 3, 0, 0, 0}); !approxEqual(got, 9, 1e-12) {
		t.Errorf("expected height deviation to cost 9, got %v", got)
	}
}

func TestQuadricAddScale(t *testing.T) {
	a := PlaneQuadric([]float64{1, 0, 0}, []float64{0, 0, 1}, []float64{0, 0, 0})
	b := PlaneQuadric([]float64{0, 1, 0}, []float64{0, 0, 1}, []float64{1, 0, 0})
	v := []float64{2, 3, 4}

	wantA, wantB := a.Eval(v), b.Eval(v)

	sum := a.Clone()
	sum.Add(&b)
	if got := sum.Eval(v); !approxEqual(got, wantA+wantB, 1e-12) {
		t.Errorf("(a+b).Eval = %v, want %v", got, wantA+wantB)
	}

	sum.Scale(0.5)
	if got := sum.Eval(v); !approxEqual(got, (wantA+wantB)/2, 1e-12) {
		t.Errorf("(0.5(a+b)).Eval = %v, want %v", got, (wantA+wantB)/2)
	}

	// Clone must not alias.
	if got := a.Eval(v); got != wantA {
		t.Errorf("a changed after operating on its clone: %v, want %v", got, wantA)
	}
}

func TestQuadricPackedLayout(t *testing.T) {
	for axes, want := range map[int]int{3: 6, 5: 15} {
		q := NewQuadric(axes)
		if len(q.A) != want {
			t.Errorf("NewQuadric(%d) has %d matrix entries, want %d", axes, len(q.A), want)
		}
		if q.Axes() != axes {
			t.Errorf("Axes() = %d, want %d", q.Axes(), axes)
		}
	}
}
