package simplify

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-lod/pkg/indexheap"
)

// degenerate is the length/area below which geometry is treated as collapsed.
const degenerate = 1e-12

type vertex struct {
	pos    []float64
	q      Quadric
	edges  []int32 // incident live edges
	tris   []int32 // incident live triangles
	culled bool
	locked bool // never removed by a contraction
}

type edge struct {
	v       [2]int32 // v[0] < v[1]
	target  []float64
	cost    float64
	heapIdx int
	border  bool
	culled  bool
	flip    bool // v[1] survives the contraction
	moved   bool // an endpoint was re-pointed; neighbours need re-evaluation
}

func (e *edge) other(v int32) int32 {
	if e.v[0] == v {
		return e.v[1]
	}
	return e.v[0]
}

type triangle struct {
	v      [3]int32
	culled bool
}

func (t *triangle) has(v int32) bool {
	return t.v[0] == v || t.v[1] == v || t.v[2] == v
}

// Mesh is a simplification session over one triangle mesh.
type Mesh struct {
	opts Options
	log  *zap.Logger
	axes int

	verts []vertex
	edges []edge
	tris  []triangle
	heap  *indexheap.Heap[int32]

	// Every axis is stored as (p - center) / scale.
	center [TexturedAxes]float64
	scale  float64

	live         int // live triangles
	liveVerts    int
	contractions int
	closed       bool

	combined Quadric // scratch for candidate evaluation
	orphans  []int32 // scratch for contract
}

// New builds the adjacency graph, vertex quadrics and contraction heap for
// the mesh in buf. The buffers are copied; the caller keeps ownership.
//
// Triangles that repeat a vertex are dropped, and vertices that no triangle
// references are not part of the output.
func New(buf Buffers, opts Options) (*Mesh, error) {
	if err := validate(&buf); err != nil {
		return nil, err
	}

	axes := SpatialAxes
	if len(buf.TexCoords) > 0 && !opts.IgnoreTexCoords {
		axes = TexturedAxes
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := &Mesh{
		opts:     opts,
		log:      log,
		axes:     axes,
		verts:    make([]vertex, buf.VertexCount()),
		tris:     make([]triangle, 0, buf.TriangleCount()),
		edges:    make([]edge, 0, 3*buf.TriangleCount()),
		combined: NewQuadric(axes),
	}

	m.loadVertices(&buf)
	m.loadTriangles(buf.Indices)
	for i := range m.tris {
		m.accumulate(int32(i))
	}

	for i := range m.verts {
		v := &m.verts[i]
		if len(v.tris) == 0 {
			v.culled = true
			continue
		}
		m.liveVerts++
	}

	m.heap = indexheap.New(m.compareEdges, m.setHeapIndex, m.heapIndex)
	items := make([]int32, len(m.edges))
	for i := range m.edges {
		m.evaluate(int32(i))
		items[i] = int32(i)
	}
	m.heap.Init(items)

	borders := 0
	for i := range m.edges {
		if m.edges[i].border {
			borders++
		}
	}
	m.log.Debug("mesh built",
		zap.Int("axes", m.axes),
		zap.Int("vertices", m.liveVerts),
		zap.Int("edges", len(m.edges)),
		zap.Int("border_edges", borders),
		zap.Int("triangles", m.live),
	)

	return m, nil
}

func validate(buf *Buffers) error {
	if len(buf.Positions) == 0 || len(buf.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats", ErrInvalidBuffers, len(buf.Positions))
	}
	n := buf.VertexCount()
	if len(buf.TexCoords) != 0 && len(buf.TexCoords) != 2*n {
		return fmt.Errorf("%w: %d texcoord floats for %d vertices", ErrInvalidBuffers, len(buf.TexCoords), n)
	}
	if len(buf.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrInvalidBuffers, len(buf.Indices))
	}
	if n > math.MaxInt32 {
		return fmt.Errorf("%w: %d vertices", ErrInvalidBuffers, n)
	}
	for i, idx := range buf.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index %d at %d, %d vertices", ErrIndexOutOfRange, idx, i, n)
		}
	}
	return nil
}

// loadVertices copies positions and texcoords into attribute vectors and
// rescales them into [-1, 1] by the largest extent over all axes, so the
// aspect ratio between every pair of axes is kept.
func (m *Mesh) loadVertices(buf *Buffers) {
	n := len(m.verts)
	backing := make([]float64, n*m.axes)

	for i := 0; i < n; i++ {
		pos := backing[i*m.axes : (i+1)*m.axes : (i+1)*m.axes]
		for k := 0; k < 3; k++ {
			pos[k] = float64(buf.Positions[3*i+k])
		}
		if m.axes == TexturedAxes {
			pos[3] = float64(buf.TexCoords[2*i])
			pos[4] = float64(buf.TexCoords[2*i+1])
		}
	}

	extent := 0.0
	for k := 0; k < m.axes; k++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			lo = math.Min(lo, backing[i*m.axes+k])
			hi = math.Max(hi, backing[i*m.axes+k])
		}
		m.center[k] = (lo + hi) / 2
		extent = math.Max(extent, hi-lo)
	}
	m.scale = extent / 2
	if m.scale == 0 {
		m.scale = 1
	}

	for i := 0; i < n; i++ {
		pos := backing[i*m.axes : (i+1)*m.axes : (i+1)*m.axes]
		for k := range pos {
			pos[k] = (pos[k] - m.center[k]) / m.scale
		}
		m.verts[i] = vertex{
			pos: pos,
			q:   NewQuadric(m.axes),
		}
	}
}

// loadTriangles creates triangles and discovers their edges. An edge seen a
// second time is no longer a border.
func (m *Mesh) loadTriangles(indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := int32(indices[i]), int32(indices[i+1]), int32(indices[i+2])
		if a == b || b == c || a == c {
			continue
		}

		ti := int32(len(m.tris))
		m.tris = append(m.tris, triangle{v: [3]int32{a, b, c}})
		m.live++

		for k := 0; k < 3; k++ {
			u, w := m.tris[ti].v[k], m.tris[ti].v[(k+1)%3]
			if ei := m.findEdge(u, w); ei >= 0 {
				m.edges[ei].border = false
			} else {
				m.addEdge(u, w)
			}
			m.verts[u].tris = append(m.verts[u].tris, ti)
		}
	}
}

func (m *Mesh) addEdge(a, b int32) int32 {
	if b < a {
		a, b = b, a
	}
	ei := int32(len(m.edges))
	m.edges = append(m.edges, edge{
		v:       [2]int32{a, b},
		target:  make([]float64, m.axes),
		heapIdx: -1,
		border:  true,
	})
	m.verts[a].edges = append(m.verts[a].edges, ei)
	m.verts[b].edges = append(m.verts[b].edges, ei)
	return ei
}

// findEdge returns the live edge joining a and b, or -1. It scans the
// adjacency of the lower-indexed endpoint.
func (m *Mesh) findEdge(a, b int32) int32 {
	if b < a {
		a, b = b, a
	}
	for _, ei := range m.verts[a].edges {
		e := &m.edges[ei]
		if e.v[0] == a && e.v[1] == b {
			return ei
		}
	}
	return -1
}

// accumulate adds the quadrics of triangle ti to its corners: the face
// quadric weighted by area and corner angle, plus a perpendicular plane
// along every border edge.
func (m *Mesh) accumulate(ti int32) {
	t := &m.tris[ti]
	p0 := m.verts[t.v[0]].pos
	p1 := m.verts[t.v[1]].pos
	p2 := m.verts[t.v[2]].pos

	e1 := floats.SubTo(make([]float64, m.axes), p1, p0)
	e2 := floats.SubTo(make([]float64, m.axes), p2, p0)

	n := r3.Cross(spatial(e1), spatial(e2))
	area := r3.Norm(n) / 2
	if area < degenerate {
		return
	}
	normal := r3.Unit(n)

	t1, t2, ok := orthonormalize(e1, e2)
	if !ok {
		return
	}
	face := PlaneQuadric(t1, t2, p0)

	for k := 0; k < 3; k++ {
		corner := t.v[k]
		b, c := t.v[(k+1)%3], t.v[(k+2)%3]
		pa, pb, pc := spatial(m.verts[corner].pos), spatial(m.verts[b].pos), spatial(m.verts[c].pos)

		angle := math.Acos(clamp(r3.Cos(r3.Sub(pb, pa), r3.Sub(pc, pa)), -1, 1))
		q := face.Clone()
		q.Scale(area * angle / math.Pi)
		m.verts[corner].q.Add(&q)

		ei := m.findEdge(b, c)
		if ei < 0 || !m.edges[ei].border {
			continue
		}
		bq, ok := m.borderQuadric(b, c, normal)
		if !ok {
			continue
		}
		m.verts[b].q.Add(&bq)
		m.verts[c].q.Add(&bq)
	}
}

// borderQuadric returns the quadric of the plane through edge (b, c) that is
// perpendicular to the face with the given normal, scaled by the squared
// edge length.
func (m *Mesh) borderQuadric(b, c int32, normal r3.Vec) (Quadric, bool) {
	pb, pc := m.verts[b].pos, m.verts[c].pos
	dir := floats.SubTo(make([]float64, m.axes), pc, pb)

	length2 := r3.Norm2(spatial(dir))
	norm := floats.Norm(dir, 2)
	if length2 < degenerate || norm < degenerate {
		return Quadric{}, false
	}
	floats.Scale(1/norm, dir)

	n := make([]float64, m.axes)
	n[0], n[1], n[2] = normal.X, normal.Y, normal.Z

	q := PlaneQuadric(dir, n, pb)
	q.Scale(length2)
	return q, true
}

// orthonormalize runs Gram-Schmidt over two edge vectors.
func orthonormalize(e1, e2 []float64) (t1, t2 []float64, ok bool) {
	n1 := floats.Norm(e1, 2)
	if n1 < degenerate {
		return nil, nil, false
	}
	t1 = make([]float64, len(e1))
	floats.ScaleTo(t1, 1/n1, e1)

	t2 = make([]float64, len(e2))
	floats.AddScaledTo(t2, e2, -floats.Dot(e2, t1), t1)
	n2 := floats.Norm(t2, 2)
	if n2 < degenerate {
		return nil, nil, false
	}
	floats.Scale(1/n2, t2)
	return t1, t2, true
}

func spatial(p []float64) r3.Vec {
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Axes returns the dimensionality of the attribute space (3 or 5).
func (m *Mesh) Axes() int {
	return m.axes
}

// LiveTriangles returns the number of triangles not yet collapsed.
func (m *Mesh) LiveTriangles() int {
	return m.live
}

// LiveVertices returns the number of vertices not yet merged away.
func (m *Mesh) LiveVertices() int {
	return m.liveVerts
}

// Contractions returns the number of edge contractions performed so far.
func (m *Mesh) Contractions() int {
	return m.contractions
}

// Lock pins the given input vertices: a contraction may move a neighbour
// onto a locked vertex but never removes or moves the locked vertex itself.
// Chunked meshes lock their shared borders so neighbours keep matching
// edges. Call Lock before stepping.
func (m *Mesh) Lock(vertices ...int) error {
	if m.closed {
		return ErrClosed
	}
	for _, v := range vertices {
		if v < 0 || v >= len(m.verts) {
			return fmt.Errorf("%w: lock vertex %d, %d vertices", ErrIndexOutOfRange, v, len(m.verts))
		}
	}
	for _, v := range vertices {
		vv := &m.verts[v]
		if vv.locked || vv.culled {
			continue
		}
		vv.locked = true
		for _, ei := range vv.edges {
			m.refresh(ei)
		}
	}
	return nil
}

// Close releases the session's storage. Further steps report false.
func (m *Mesh) Close() {
	m.verts = nil
	m.edges = nil
	m.tris = nil
	m.heap = nil
	m.closed = true
}

func (m *Mesh) compareEdges(a, b int32) int {
	ca, cb := m.edges[a].cost, m.edges[b].cost
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	}
	return int(a - b)
}

func (m *Mesh) setHeapIndex(ei int32, i int) {
	m.edges[ei].heapIdx = i
}

func (m *Mesh) heapIndex(ei int32) int {
	return m.edges[ei].heapIdx
}
