package simplify

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// evaluate recomputes the contraction cost and target of edge ei. The
// survivor is whichever endpoint gives the lower combined quadric error. A
// locked endpoint always survives; an edge between two locked vertices gets
// an infinite cost and is never contracted.
func (m *Mesh) evaluate(ei int32) {
	e := &m.edges[ei]
	a, b := e.v[0], e.v[1]
	va, vb := &m.verts[a], &m.verts[b]

	if va.locked && vb.locked {
		e.cost = math.Inf(1)
		e.flip = false
		copy(e.target, va.pos)
		return
	}

	m.combined.set(&va.q)
	m.combined.Add(&vb.q)

	costA := math.Inf(1)
	if !vb.locked {
		costA = m.combined.Eval(va.pos) + m.inversionPenalty(a, b)
		if math.Abs(costA) < m.opts.Epsilon {
			e.cost = 0
			e.flip = false
			copy(e.target, va.pos)
			return
		}
	}

	costB := math.Inf(1)
	if !va.locked {
		costB = m.combined.Eval(vb.pos) + m.inversionPenalty(b, a)
	}
	if costB < costA {
		e.cost = costB
		e.flip = true
		copy(e.target, vb.pos)
		return
	}
	e.cost = costA
	e.flip = false
	copy(e.target, va.pos)
}

// inversionPenalty returns the penalty for moving removed onto survivor:
// every triangle around removed that does not also contain survivor and
// would change handedness adds InversionPenalty.
//
// A triangle counts as flipped when its 3D normal reverses or when its
// tangent frame changes handedness, which also catches folds in UV space that
// leave the 3D face alone.
func (m *Mesh) inversionPenalty(survivor, removed int32) float64 {
	if m.opts.InversionPenalty == 0 {
		return 0
	}

	var penalty float64
	for _, ti := range m.verts[removed].tris {
		t := &m.tris[ti]
		if t.culled || t.has(survivor) {
			continue
		}
		k := 0
		for t.v[k] != removed {
			k++
		}
		x, y := t.v[(k+1)%3], t.v[(k+2)%3]
		if m.flips(m.verts[removed].pos, m.verts[survivor].pos, m.verts[x].pos, m.verts[y].pos) {
			penalty += m.opts.InversionPenalty
		}
	}
	return penalty
}

// flips reports whether replacing corner from with to in triangle
// (from, x, y) reverses its orientation.
func (m *Mesh) flips(from, to, x, y []float64) bool {
	before := faceNormal(from, x, y)
	after := faceNormal(to, x, y)

	if r3.Dot(before, after) < 0 {
		return true
	}
	if m.axes == SpatialAxes {
		return false
	}

	hb, okb := handedness(from, x, y, before)
	ha, oka := handedness(to, x, y, before)
	return okb && oka && hb != ha
}

func faceNormal(p0, p1, p2 []float64) r3.Vec {
	return r3.Cross(r3.Sub(spatial(p1), spatial(p0)), r3.Sub(spatial(p2), spatial(p0)))
}

// handedness computes the tangent and bitangent of triangle (p0, p1, p2)
// from its spatial and texture deltas and reports whether (T, B, normal)
// is right-handed. ok is false when the UV mapping is degenerate.
func handedness(p0, p1, p2 []float64, normal r3.Vec) (right, ok bool) {
	dp1 := r3.Sub(spatial(p1), spatial(p0))
	dp2 := r3.Sub(spatial(p2), spatial(p0))
	du1, dv1 := p1[3]-p0[3], p1[4]-p0[4]
	du2, dv2 := p2[3]-p0[3], p2[4]-p0[4]

	det := du1*dv2 - du2*dv1
	if math.Abs(det) < degenerate {
		return false, false
	}
	r := 1 / det
	tangent := r3.Scale(r, r3.Sub(r3.Scale(dv2, dp1), r3.Scale(dv1, dp2)))
	bitangent := r3.Scale(r, r3.Sub(r3.Scale(du1, dp2), r3.Scale(du2, dp1)))

	return r3.Dot(r3.Cross(tangent, bitangent), normal) > 0, true
}
