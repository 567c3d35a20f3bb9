package simplify

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// Step performs at most one contraction. The cheapest edge is contracted if
// it is free (cost below Epsilon) or if more than target triangles are
// still live. It reports whether a contraction happened; once only edges
// between locked vertices remain it reports false even above target.
func (m *Mesh) Step(target int) bool {
	if m.closed {
		return false
	}
	root, ok := m.heap.Peek()
	if !ok {
		return false
	}
	cost := m.edges[root].cost
	if math.IsInf(cost, 1) || (math.Abs(cost) >= m.opts.Epsilon && m.live <= target) {
		return false
	}
	m.contract(root)
	return true
}

// Run steps until Step reports false and returns the number of contractions.
func (m *Mesh) Run(target int) int {
	start := time.Now()
	before := m.live

	n := 0
	for m.Step(target) {
		n++
	}

	m.log.Info("mesh simplified",
		zap.Int("triangles_before", before),
		zap.Int("triangles", m.live),
		zap.Int("target", target),
		zap.Int("contractions", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return n
}

// contract collapses edge ei into its surviving endpoint.
func (m *Mesh) contract(ei int32) {
	e := &m.edges[ei]
	a, b := e.v[0], e.v[1]
	if e.flip {
		a, b = b, a
	}
	va, vb := &m.verts[a], &m.verts[b]

	va.q.Add(&vb.q)

	m.heap.Remove(ei)
	m.unlinkEdge(a, ei)
	m.unlinkEdge(b, ei)
	e.culled = true

	// Move b's edges onto a, dropping any that would duplicate an edge a
	// already has.
	for _, bi := range vb.edges {
		be := &m.edges[bi]
		c := be.other(b)
		if m.findEdge(a, c) >= 0 {
			m.heap.Remove(bi)
			m.unlinkEdge(c, bi)
			be.culled = true
			continue
		}
		if a < c {
			be.v = [2]int32{a, c}
		} else {
			be.v = [2]int32{c, a}
		}
		be.moved = true
		va.edges = append(va.edges, bi)
	}
	vb.edges = nil

	m.orphans = m.orphans[:0]
	for _, ti := range vb.tris {
		t := &m.tris[ti]
		if t.has(a) {
			t.culled = true
			m.live--
			for _, u := range t.v {
				if u != b {
					m.unlinkTriangle(u, ti)
					m.orphans = append(m.orphans, u)
				}
			}
			continue
		}
		for k := range t.v {
			if t.v[k] == b {
				t.v[k] = a
			}
		}
		va.tris = append(va.tris, ti)
	}
	vb.tris = nil

	// A vertex whose last triangle just collapsed would be emitted unused.
	for _, u := range m.orphans {
		if !m.verts[u].culled && len(m.verts[u].tris) == 0 {
			m.cullVertex(u)
		}
	}

	copy(va.pos, e.target)

	for _, ai := range va.edges {
		m.refresh(ai)
		ae := &m.edges[ai]
		if !ae.moved {
			continue
		}
		ae.moved = false
		c := ae.other(a)
		for _, ci := range m.verts[c].edges {
			if ci != ai {
				m.refresh(ci)
			}
		}
	}

	vb.culled = true
	m.liveVerts--
	m.contractions++
}

// cullVertex removes v and its remaining edges from the mesh.
func (m *Mesh) cullVertex(v int32) {
	vv := &m.verts[v]
	for _, ei := range vv.edges {
		m.heap.Remove(ei)
		m.unlinkEdge(m.edges[ei].other(v), ei)
		m.edges[ei].culled = true
	}
	vv.edges = nil
	vv.culled = true
	m.liveVerts--
}

// refresh re-evaluates edge ei and restores its heap position.
func (m *Mesh) refresh(ei int32) {
	m.heap.Remove(ei)
	m.evaluate(ei)
	m.heap.Push(ei)
}

func (m *Mesh) unlinkEdge(v, ei int32) {
	m.verts[v].edges = remove(m.verts[v].edges, ei)
}

func (m *Mesh) unlinkTriangle(v, ti int32) {
	m.verts[v].tris = remove(m.verts[v].tris, ti)
}

// remove deletes the first occurrence of x from s without preserving order.
func remove(s []int32, x int32) []int32 {
	for i, y := range s {
		if y == x {
			last := len(s) - 1
			s[i] = s[last]
			return s[:last]
		}
	}
	panic("simplify: adjacency list is missing an expected entry")
}
