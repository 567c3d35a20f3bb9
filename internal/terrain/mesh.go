package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// BuildGrid creates the full-resolution mesh of region r. Each cell becomes
// two triangles sharing the BR-TL diagonal, wound so faces point to +Y.
// Texture coordinates span the whole heightmap so neighbouring chunks agree
// along their shared edge.
func BuildGrid(hm *Heightmap, r Region, p Params) *simplify.Buffers {
	w, h := r.Cols+1, r.Rows+1
	buf := &simplify.Buffers{
		Positions: make([]float32, 0, 3*w*h),
		TexCoords: make([]float32, 0, 2*w*h),
		Indices:   make([]uint32, 0, 6*r.Cols*r.Rows),
	}

	du := 1 / float32(hm.Width-1)
	dv := 1 / float32(hm.Height-1)
	for z := 0; z < h; z++ {
		row := r.Row + z
		for x := 0; x < w; x++ {
			col := r.Col + x
			buf.Positions = append(buf.Positions,
				float32(col)*p.TileSize,
				hm.At(col, row)*p.HeightScale,
				float32(row)*p.TileSize,
			)
			buf.TexCoords = append(buf.TexCoords, float32(col)*du, float32(row)*dv)
		}
	}

	for z := 0; z < r.Rows; z++ {
		for x := 0; x < r.Cols; x++ {
			tl := uint32(z*w + x)
			tr := tl + 1
			bl := tl + uint32(w)
			br := bl + 1
			buf.Indices = append(buf.Indices,
				bl, br, tl,
				tl, br, tr,
			)
		}
	}
	return buf
}

// SeamVertices returns the indices, in BuildGrid order, of the samples of r
// that lie on an edge shared with a neighbouring region of hm. Locking them
// keeps adjacent chunks' borders identical after simplification. Edges on
// the border of the map are not seams.
func SeamVertices(hm *Heightmap, r Region) []int {
	cols, rows := hm.Cells()
	w, h := r.Cols+1, r.Rows+1

	left, right := r.Col > 0, r.Col+r.Cols < cols
	top, bottom := r.Row > 0, r.Row+r.Rows < rows

	var seams []int
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			if (left && x == 0) || (right && x == w-1) || (top && z == 0) || (bottom && z == h-1) {
				seams = append(seams, z*w+x)
			}
		}
	}
	return seams
}

// ComputeBounds returns the bounding box of a flat position buffer.
func ComputeBounds(positions []float32) Bounds {
	b := Bounds{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for i := 0; i+2 < len(positions); i += 3 {
		for k := 0; k < 3; k++ {
			b.Min[k] = min(b.Min[k], positions[i+k])
			b.Max[k] = max(b.Max[k], positions[i+k])
		}
	}
	return b
}

// Union grows b to contain o.
func (b *Bounds) Union(o Bounds) {
	for k := 0; k < 3; k++ {
		b.Min[k] = min(b.Min[k], o.Min[k])
		b.Max[k] = max(b.Max[k], o.Max[k])
	}
}

// Center returns the midpoint of b.
func (b Bounds) Center() mgl32.Vec3 {
	return mgl32.Vec3{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the extent of b along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return mgl32.Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// ComputeNormals returns area-weighted vertex normals for buf. Vertices with
// no usable faces get +Y.
func ComputeNormals(buf *simplify.Buffers) []float32 {
	n := buf.VertexCount()
	sums := make([]mgl32.Vec3, n)

	for i := 0; i+2 < len(buf.Indices); i += 3 {
		a, b, c := buf.Indices[i], buf.Indices[i+1], buf.Indices[i+2]
		pa, pb, pc := position(buf, a), position(buf, b), position(buf, c)
		// Unnormalised cross product: twice the area.
		face := pb.Sub(pa).Cross(pc.Sub(pa))
		sums[a] = sums[a].Add(face)
		sums[b] = sums[b].Add(face)
		sums[c] = sums[c].Add(face)
	}

	normals := make([]float32, 0, 3*n)
	for _, s := range sums {
		nv := normalize(s)
		normals = append(normals, nv[0], nv[1], nv[2])
	}
	return normals
}

// SmoothSeams averages normals of vertices that share a position across
// chunks, so chunk borders do not show as hard edges.
func SmoothSeams(chunks []Chunk) {
	const epsilon float32 = 0.001

	type ref struct {
		chunk, vertex int
	}

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]ref)
	for ci := range chunks {
		pos := chunks[ci].Mesh.Positions
		for v := 0; v < len(pos)/3; v++ {
			key := [3]int32{
				int32(pos[3*v] / epsilon),
				int32(pos[3*v+1] / epsilon),
				int32(pos[3*v+2] / epsilon),
			}
			posMap[key] = append(posMap[key], ref{ci, v})
		}
	}

	for _, refs := range posMap {
		if len(refs) < 2 {
			continue
		}

		var sum mgl32.Vec3
		for _, r := range refs {
			nrm := chunks[r.chunk].Normals[3*r.vertex : 3*r.vertex+3]
			sum = sum.Add(mgl32.Vec3{nrm[0], nrm[1], nrm[2]})
		}

		avg := normalize(sum)
		for _, r := range refs {
			copy(chunks[r.chunk].Normals[3*r.vertex:3*r.vertex+3], avg[:])
		}
	}
}

func position(buf *simplify.Buffers, i uint32) mgl32.Vec3 {
	return mgl32.Vec3{buf.Positions[3*i], buf.Positions[3*i+1], buf.Positions[3*i+2]}
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 1e-6 {
		return mgl32.Vec3{0, 1, 0}
	}
	return v.Normalize()
}
