// Package simplify reduces triangle meshes with quadric error metrics.
//
// A Mesh is built once from flat vertex/index buffers, then edges are
// contracted cheapest-first until a target triangle count is reached. Costs
// are measured over position and, when texture coordinates are supplied,
// texture space as well, so seams in UV space are preserved alongside the
// silhouette.
//
// Basic usage:
//
//	m, err := simplify.New(buf, simplify.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	m.Run(target)
//	out, err := m.Reconstruct()
//
// A Mesh is not safe for concurrent use. Independent meshes share no state
// and may be simplified on separate goroutines.
package simplify

import (
	"errors"

	"go.uber.org/zap"
)

// Default tuning values.
const (
	// DefaultEpsilon is the cost below which a contraction is considered free.
	DefaultEpsilon = 1e-7

	// DefaultInversionPenalty is added to a contraction's cost for every
	// triangle whose orientation it would flip. It discourages inversions
	// without ruling them out.
	DefaultInversionPenalty = 1000.0
)

// Attribute space sizes.
const (
	SpatialAxes  = 3
	TexturedAxes = 5
)

// Mesh construction errors.
var (
	ErrInvalidBuffers  = errors.New("invalid mesh buffers")
	ErrIndexOutOfRange = errors.New("triangle index out of range")
	ErrClosed          = errors.New("mesh already reconstructed or closed")
)

// Buffers holds a flat triangle mesh.
type Buffers struct {
	Positions []float32 // xyz per vertex
	TexCoords []float32 // st per vertex, optional
	Indices   []uint32  // three per triangle
}

// VertexCount returns the number of vertices in b.
func (b *Buffers) VertexCount() int {
	return len(b.Positions) / 3
}

// TriangleCount returns the number of triangles in b.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// Options controls the simplifier.
type Options struct {
	// Epsilon is the free-contraction threshold. Edges cheaper than this are
	// contracted even once the target has been reached.
	Epsilon float64

	// InversionPenalty is the cost added per flipped triangle. Zero disables
	// the check.
	InversionPenalty float64

	// IgnoreTexCoords builds a position-only (3 axis) mesh even when the
	// buffers carry texture coordinates. They are dropped from the output.
	IgnoreTexCoords bool

	// Logger receives build and progress messages. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the options used by the terrain pipeline.
func DefaultOptions() Options {
	return Options{
		Epsilon:          DefaultEpsilon,
		InversionPenalty: DefaultInversionPenalty,
	}
}
