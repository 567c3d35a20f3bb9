package viewer

import (
	"fmt"

	"github.com/Faultbox/midgard-lod/internal/terrain"
	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// Session drives a simplification interactively and keeps the latest
// snapshot ready for drawing. It does not touch OpenGL.
type Session struct {
	mesh   *simplify.Mesh
	target int
	steps  int

	start   int
	frame   *simplify.Buffers
	normals []float32
	bounds  terrain.Bounds
	dirty   bool
	done    bool
}

// NewSession wraps m. Each Advance performs up to steps contractions
// toward target.
func NewSession(m *simplify.Mesh, target, steps int) *Session {
	s := &Session{
		mesh:   m,
		target: target,
		steps:  max(steps, 1),
		start:  m.LiveTriangles(),
	}
	s.refresh()
	s.bounds = terrain.ComputeBounds(s.frame.Positions)
	return s
}

// Advance performs up to one batch of contractions and returns how many
// happened.
func (s *Session) Advance() int {
	n := 0
	for ; n < s.steps; n++ {
		if !s.mesh.Step(s.target) {
			s.done = true
			break
		}
	}
	if n > 0 {
		s.refresh()
	}
	return n
}

// Finish runs to the target and returns the number of contractions.
func (s *Session) Finish() int {
	n := s.mesh.Run(s.target)
	s.done = true
	if n > 0 {
		s.refresh()
	}
	return n
}

// Done reports whether the engine has declined a contraction.
func (s *Session) Done() bool {
	return s.done
}

// Frame returns the latest snapshot, its vertex normals and whether it
// changed since the last call.
func (s *Session) Frame() (buf *simplify.Buffers, normals []float32, changed bool) {
	changed = s.dirty
	s.dirty = false
	return s.frame, s.normals, changed
}

// Bounds returns the bounding box of the mesh when the session started.
func (s *Session) Bounds() terrain.Bounds {
	return s.bounds
}

// Status is a one-line summary for the window title.
func (s *Session) Status() string {
	return fmt.Sprintf("%d/%d triangles, %d vertices, %d contractions (target %d)",
		s.mesh.LiveTriangles(), s.start, s.mesh.LiveVertices(), s.mesh.Contractions(), s.target)
}

func (s *Session) refresh() {
	s.frame = s.mesh.Snapshot()
	s.normals = terrain.ComputeNormals(s.frame)
	s.dirty = true
}
