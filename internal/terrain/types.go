// Package terrain turns heightmaps into grid meshes and simplifies them in
// parallel chunks.
package terrain

import (
	"time"

	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// Heightmap is a grid of height samples in [0, 1], row-major.
type Heightmap struct {
	Width   int
	Height  int
	Samples []float32
}

// At returns the sample at column col, row row.
func (h *Heightmap) At(col, row int) float32 {
	return h.Samples[row*h.Width+col]
}

// Cells returns the number of grid cells along each axis.
func (h *Heightmap) Cells() (cols, rows int) {
	return h.Width - 1, h.Height - 1
}

// ChunkCoord identifies a chunk by integer grid coordinates.
type ChunkCoord struct {
	X, Z int
}

// Region is a rectangle of grid cells. A region of Cols×Rows cells covers
// (Cols+1)×(Rows+1) samples; neighbouring regions share their edge samples.
type Region struct {
	Coord ChunkCoord
	Col   int
	Row   int
	Cols  int
	Rows  int
}

// Triangles returns the triangle count of the region's full-resolution grid.
func (r Region) Triangles() int {
	return 2 * r.Cols * r.Rows
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Params controls grid generation and simplification.
type Params struct {
	TileSize    float32 // world units between samples
	HeightScale float32 // world height of a sample of 1
	ChunkSize   int     // cells per chunk side, 0 = one chunk
	Workers     int     // 0 = GOMAXPROCS

	Options simplify.Options

	// Target returns the triangle target for a chunk with the given
	// full-resolution triangle count.
	Target func(triangles int) int
}

// Chunk is one simplified region.
type Chunk struct {
	Region  Region
	Mesh    *simplify.Buffers
	Normals []float32 // xyz per vertex
	Bounds  Bounds

	TrianglesBefore int
	Contractions    int
	SeamVertices    int // locked vertices shared with neighbours
	Elapsed         time.Duration
}
