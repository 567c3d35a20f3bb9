package simplify

import (
	"math"
	"testing"
)

// cube returns the 8-vertex, 12-triangle box [-1,1]³ with outward winding.
func cube() Buffers {
	var pos []float32
	for i := 0; i < 8; i++ {
		p := [3]float32{-1, -1, -1}
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				p[k] = 1
			}
		}
		pos = append(pos, p[:]...)
	}
	return Buffers{
		Positions: pos,
		Indices: []uint32{
			0, 2, 1, 1, 2, 3, // -z
			4, 5, 6, 5, 7, 6, // +z
			0, 1, 4, 1, 5, 4, // -y
			2, 6, 3, 3, 6, 7, // +y
			0, 4, 2, 2, 4, 6, // -x
			1, 3, 5, 3, 7, 5, // +x
		},
	}
}

// quad returns a flat 4x4 square in the y = 0 plane split into two triangles.
func quad(textured bool) Buffers {
	b := Buffers{
		Positions: []float32{0, 0, 0, 4, 0, 0, 4, 0, 4, 0, 0, 4},
		Indices:   []uint32{0, 2, 1, 0, 3, 2},
	}
	if textured {
		b.TexCoords = []float32{0, 0, 1, 0, 1, 1, 0, 1}
	}
	return b
}

// fan returns a triangle fan around vertex 0 in the y = 0 plane. Ring vertex
// i+1 sits at angle 2πi/n and distance radii[i]; every face points to +y.
func fan(radii []float64) Buffers {
	n := len(radii)
	b := Buffers{Positions: []float32{0, 0, 0}}
	for i, r := range radii {
		a := 2 * math.Pi * float64(i) / float64(n)
		b.Positions = append(b.Positions, float32(r*math.Cos(a)), 0, float32(r*math.Sin(a)))
	}
	for i := 0; i < n; i++ {
		b.Indices = append(b.Indices, 0, uint32(1+(i+1)%n), uint32(1+i))
	}
	return b
}

// grid returns a w×h vertex height field with 10-unit cells, per-vertex UVs
// and two triangles per cell.
func grid(w, h int, height func(col, row int) float32) Buffers {
	var b Buffers
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			b.Positions = append(b.Positions, float32(col)*10, height(col, row), float32(row)*10)
			b.TexCoords = append(b.TexCoords, float32(col)/float32(w-1), float32(row)/float32(h-1))
		}
	}
	for row := 0; row < h-1; row++ {
		for col := 0; col < w-1; col++ {
			tl := uint32(row*w + col)
			tr := tl + 1
			bl := tl + uint32(w)
			br := bl + 1
			b.Indices = append(b.Indices, bl, br, tl, tl, br, tr)
		}
	}
	return b
}

func mustNew(t *testing.T, buf Buffers) *Mesh {
	t.Helper()
	m, err := New(buf, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

// checkInvariants verifies the adjacency graph and heap bookkeeping.
func checkInvariants(t *testing.T, m *Mesh) {
	t.Helper()

	if err := m.heap.Verify(); err != nil {
		t.Fatalf("heap: %v", err)
	}

	liveEdges := 0
	for ei := range m.edges {
		e := &m.edges[ei]
		if e.culled {
			continue
		}
		liveEdges++
		if e.v[0] >= e.v[1] {
			t.Fatalf("edge %d not canonical: %v", ei, e.v)
		}
		for _, v := range e.v {
			if m.verts[v].culled {
				t.Fatalf("edge %d references culled vertex %d", ei, v)
			}
			if n := count(m.verts[v].edges, int32(ei)); n != 1 {
				t.Fatalf("edge %d listed %d times at vertex %d", ei, n, v)
			}
		}
		if m.heap.Items()[e.heapIdx] != int32(ei) {
			t.Fatalf("edge %d caches heap index %d", ei, e.heapIdx)
		}
	}
	if liveEdges != m.heap.Len() {
		t.Fatalf("heap holds %d edges, %d are live", m.heap.Len(), liveEdges)
	}

	live := 0
	for ti := range m.tris {
		tri := &m.tris[ti]
		if tri.culled {
			continue
		}
		live++
		if tri.v[0] == tri.v[1] || tri.v[1] == tri.v[2] || tri.v[0] == tri.v[2] {
			t.Fatalf("triangle %d repeats a vertex: %v", ti, tri.v)
		}
		for _, v := range tri.v {
			if m.verts[v].culled {
				t.Fatalf("triangle %d references culled vertex %d", ti, v)
			}
			if n := count(m.verts[v].tris, int32(ti)); n != 1 {
				t.Fatalf("triangle %d listed %d times at vertex %d", ti, n, v)
			}
		}
	}
	if live != m.LiveTriangles() {
		t.Fatalf("counted %d live triangles, tracking %d", live, m.LiveTriangles())
	}

	liveVerts := 0
	for vi := range m.verts {
		v := &m.verts[vi]
		if v.culled {
			continue
		}
		liveVerts++
		if len(v.tris) == 0 {
			t.Fatalf("live vertex %d has no triangles", vi)
		}
	}
	if liveVerts != m.LiveVertices() {
		t.Fatalf("counted %d live vertices, tracking %d", liveVerts, m.LiveVertices())
	}
}

func count(s []int32, x int32) int {
	n := 0
	for _, y := range s {
		if y == x {
			n++
		}
	}
	return n
}

// bounds returns the axis-aligned box of a flat position buffer.
func bounds(pos []float32) (lo, hi [3]float32) {
	lo = [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi = [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := 0; i+2 < len(pos); i += 3 {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], pos[i+k])
			hi[k] = max(hi[k], pos[i+k])
		}
	}
	return lo, hi
}

// orientationY returns the y component of the face normal of triangle i.
func orientationY(b *Buffers, i int) float64 {
	p := func(k int) [3]float64 {
		v := b.Indices[3*i+k]
		return [3]float64{float64(b.Positions[3*v]), float64(b.Positions[3*v+1]), float64(b.Positions[3*v+2])}
	}
	a, c, d := p(0), p(1), p(2)
	u := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	w := [3]float64{d[0] - a[0], d[1] - a[1], d[2] - a[2]}
	return u[2]*w[0] - u[0]*w[2]
}
