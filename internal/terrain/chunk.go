package terrain

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// cancelCheckInterval is how many contractions run between context checks.
const cancelCheckInterval = 1024

// NewParams builds simplification parameters from the loaded config.
func NewParams(cfg *config.Config, log *zap.Logger) Params {
	return Params{
		TileSize:    cfg.Terrain.TileSize,
		HeightScale: cfg.Terrain.HeightScale,
		ChunkSize:   cfg.Terrain.ChunkSize,
		Workers:     cfg.Terrain.Workers,
		Options:     cfg.Simplify.Options(log),
		Target:      cfg.Simplify.TargetFor,
	}
}

// Chunks splits the heightmap's cells into regions of at most size×size
// cells, row by row. A size of 0 or larger than the map yields one region.
func Chunks(hm *Heightmap, size int) []Region {
	cols, rows := hm.Cells()
	if size <= 0 {
		size = max(cols, rows)
	}

	var regions []Region
	for z, row := 0, 0; row < rows; z, row = z+1, row+size {
		for x, col := 0, 0; col < cols; x, col = x+1, col+size {
			regions = append(regions, Region{
				Coord: ChunkCoord{X: x, Z: z},
				Col:   col,
				Row:   row,
				Cols:  min(size, cols-col),
				Rows:  min(size, rows-row),
			})
		}
	}
	return regions
}

// Simplify builds and simplifies every chunk of hm on a pool of workers.
// Each worker owns its meshes. Vertices on edges shared between chunks are
// locked, so neighbouring chunks meet without cracks. Chunks that fail are
// left out of the result and their errors are combined; cancelling ctx stops
// the remaining work and returns ctx's error.
func Simplify(ctx context.Context, hm *Heightmap, p Params) ([]Chunk, error) {
	regions := Chunks(hm, p.ChunkSize)

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(regions))

	log := p.Options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	// Per-chunk engine logs stay at debug level; the pool reports the summary.
	opts := p.Options
	opts.Logger = log.Named("simplify")

	log.Info("simplifying terrain",
		zap.Int("width", hm.Width),
		zap.Int("height", hm.Height),
		zap.Int("chunks", len(regions)),
		zap.Int("workers", workers),
	)
	start := time.Now()

	jobs := make(chan int)
	results := make([]*Chunk, len(regions))

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				chunk, err := simplifyRegion(ctx, hm, regions[i], p, opts)
				if err != nil {
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("chunk %d,%d: %w", regions[i].Coord.X, regions[i].Coord.Z, err))
					mu.Unlock()
					continue
				}
				results[i] = chunk
				log.Debug("chunk simplified",
					zap.Int("x", chunk.Region.Coord.X),
					zap.Int("z", chunk.Region.Coord.Z),
					zap.Int("triangles_before", chunk.TrianglesBefore),
					zap.Int("triangles", chunk.Mesh.TriangleCount()),
					zap.Int("seam_vertices", chunk.SeamVertices),
					zap.Duration("elapsed", chunk.Elapsed),
				)
			}
		}()
	}

feed:
	for i := range regions {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(regions))
	before, after := 0, 0
	for _, c := range results {
		if c == nil {
			continue
		}
		chunks = append(chunks, *c)
		before += c.TrianglesBefore
		after += c.Mesh.TriangleCount()
	}

	log.Info("terrain simplified",
		zap.Int("chunks", len(chunks)),
		zap.Int("triangles_before", before),
		zap.Int("triangles", after),
		zap.Duration("elapsed", time.Since(start)),
	)
	return chunks, errs
}

// simplifyRegion runs one chunk through the engine. An engine invariant
// failure is reported as that chunk's error instead of taking down the pool.
func simplifyRegion(ctx context.Context, hm *Heightmap, r Region, p Params, opts simplify.Options) (chunk *Chunk, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			chunk, err = nil, fmt.Errorf("panic during simplification: %v", rec)
		}
	}()

	start := time.Now()

	buf := BuildGrid(hm, r, p)
	m, err := simplify.New(*buf, opts)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	seams := SeamVertices(hm, r)
	if err := m.Lock(seams...); err != nil {
		return nil, err
	}

	target := r.Triangles()
	if p.Target != nil {
		target = p.Target(target)
	}

	for n := 1; m.Step(target); n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	contractions := m.Contractions()

	out, err := m.Reconstruct()
	if err != nil {
		return nil, err
	}

	return &Chunk{
		Region:          r,
		Mesh:            out,
		Normals:         ComputeNormals(out),
		Bounds:          ComputeBounds(out.Positions),
		TrianglesBefore: r.Triangles(),
		Contractions:    contractions,
		SeamVertices:    len(seams),
		Elapsed:         time.Since(start),
	}, nil
}
