package simplify

import "gonum.org/v1/gonum/floats"

// Quadric is an error functional Q(v) = vᵗAv + 2·b·v + c over an
// N-dimensional attribute space. A is symmetric and stored as its upper
// triangle, row by row.
type Quadric struct {
	A []float64
	B []float64
	C float64
}

// NewQuadric returns the zero quadric over the given number of axes.
func NewQuadric(axes int) Quadric {
	return Quadric{
		A: make([]float64, packedSize(axes)),
		B: make([]float64, axes),
	}
}

func packedSize(axes int) int {
	return axes * (axes + 1) / 2
}

// PlaneQuadric builds the fundamental quadric of the affine subspace spanned
// by the orthonormal vectors t1 and t2 through p. Evaluated at v it gives the
// squared distance from v to that subspace.
func PlaneQuadric(t1, t2, p []float64) Quadric {
	n := len(p)
	q := NewQuadric(n)

	k := 0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a := -t1[i]*t1[j] - t2[i]*t2[j]
			if i == j {
				a++
			}
			q.A[k] = a
			k++
		}
	}

	pt1 := floats.Dot(p, t1)
	pt2 := floats.Dot(p, t2)
	for i := 0; i < n; i++ {
		q.B[i] = pt1*t1[i] + pt2*t2[i] - p[i]
	}
	q.C = floats.Dot(p, p) - pt1*pt1 - pt2*pt2
	return q
}

// Axes returns the dimensionality of the quadric.
func (q *Quadric) Axes() int {
	return len(q.B)
}

// Add adds o to q componentwise.
func (q *Quadric) Add(o *Quadric) {
	floats.Add(q.A, o.A)
	floats.Add(q.B, o.B)
	q.C += o.C
}

// Scale multiplies every component of q by s.
func (q *Quadric) Scale(s float64) {
	floats.Scale(s, q.A)
	floats.Scale(s, q.B)
	q.C *= s
}

// Eval returns Q(v).
func (q *Quadric) Eval(v []float64) float64 {
	n := len(q.B)
	var sum float64
	k := 0
	for i := 0; i < n; i++ {
		sum += q.A[k] * v[i] * v[i]
		k++
		for j := i + 1; j < n; j++ {
			sum += 2 * q.A[k] * v[i] * v[j]
			k++
		}
	}
	return sum + 2*floats.Dot(q.B, v) + q.C
}

// Clone returns a deep copy of q.
func (q *Quadric) Clone() Quadric {
	c := Quadric{
		A: make([]float64, len(q.A)),
		B: make([]float64, len(q.B)),
		C: q.C,
	}
	copy(c.A, q.A)
	copy(c.B, q.B)
	return c
}

// set overwrites q with o without allocating.
func (q *Quadric) set(o *Quadric) {
	copy(q.A, o.A)
	copy(q.B, o.B)
	q.C = o.C
}
