package simplify

import (
	"fmt"

	"go.uber.org/zap"
)

// Reconstruct emits the simplified mesh and ends the session. Every live
// vertex is given a dense output index; culled vertices and triangles are
// skipped. Positions and texcoords are returned in the input frame.
func (m *Mesh) Reconstruct() (*Buffers, error) {
	if m.closed {
		return nil, ErrClosed
	}

	out := m.emit(make([]int32, len(m.verts)))

	m.log.Debug("mesh reconstructed",
		zap.Int("vertices", out.VertexCount()),
		zap.Int("triangles", out.TriangleCount()),
	)
	m.Close()
	return out, nil
}

// Snapshot emits the current state of the mesh without ending the session;
// further calls to Step remain valid.
func (m *Mesh) Snapshot() *Buffers {
	if m.closed {
		return &Buffers{}
	}
	return m.emit(make([]int32, len(m.verts)))
}

// emit writes live vertices and triangles into fresh buffers, recording each
// vertex's output index in remap (-1 for culled vertices).
func (m *Mesh) emit(remap []int32) *Buffers {
	out := &Buffers{
		Positions: make([]float32, 0, 3*m.liveVerts),
		Indices:   make([]uint32, 0, 3*m.live),
	}
	if m.axes == TexturedAxes {
		out.TexCoords = make([]float32, 0, 2*m.liveVerts)
	}

	next := int32(0)
	for i := range m.verts {
		v := &m.verts[i]
		if v.culled {
			remap[i] = -1
			continue
		}
		remap[i] = next
		next++
		for k := 0; k < 3; k++ {
			out.Positions = append(out.Positions, float32(v.pos[k]*m.scale+m.center[k]))
		}
		if m.axes == TexturedAxes {
			out.TexCoords = append(out.TexCoords,
				float32(v.pos[3]*m.scale+m.center[3]),
				float32(v.pos[4]*m.scale+m.center[4]),
			)
		}
	}

	for i := range m.tris {
		t := &m.tris[i]
		if t.culled {
			continue
		}
		for _, v := range t.v {
			idx := remap[v]
			if idx < 0 {
				panic(fmt.Sprintf("simplify: live triangle %d references culled vertex %d", i, v))
			}
			out.Indices = append(out.Indices, uint32(idx))
		}
	}

	if int(next) != m.liveVerts || out.TriangleCount() != m.live {
		panic(fmt.Sprintf("simplify: emitted %d vertices and %d triangles, tracking %d and %d",
			next, out.TriangleCount(), m.liveVerts, m.live))
	}
	return out
}
