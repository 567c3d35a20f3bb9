// terrainlod converts heightmaps into simplified terrain meshes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/export"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/terrain"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.Config{Level: cfg.Logging.Level, Console: true}
	if cfg.Logging.LogFile != "" {
		logCfg.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	log := logger.Init(logCfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, config.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
		} else {
			log.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `terrainlod - heightmap to simplified terrain mesh

Usage:
  terrainlod [flags] <command> [args]

Commands:
  simplify <heightmap> <out.obj>   Build, simplify and export the terrain
  info <heightmap>                 Show grid and chunk statistics
  config [out.yaml]                Write the effective configuration
                                   (default: the user config directory)

Flags:
  -config <file>   Config file (default ./lod.yaml)
  -ratio <f>       Fraction of triangles to keep per chunk
  -target <n>      Triangle target per chunk, overrides -ratio
  -chunk <n>       Cells per chunk side, 0 for a single chunk
  -workers <n>     Parallel chunk workers
  -debug           Debug logging
  -log <file>      Also log to a rotating file

Heightmaps may be PNG, BMP or TIFF; colour images are reduced to luminance.`)
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	command, args := args[0], args[1:]
	switch command {
	case "simplify":
		if len(args) != 2 {
			return errUsage
		}
		return cmdSimplify(ctx, cfg, log, args[0], args[1], out)
	case "info":
		if len(args) != 1 {
			return errUsage
		}
		return cmdInfo(cfg, args[0], out)
	case "config":
		switch len(args) {
		case 0:
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(out, "Wrote %s\n", config.DefaultPath())
		case 1:
			if err := cfg.SaveTo(args[0]); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(out, "Wrote %s\n", args[0])
		default:
			return errUsage
		}
		return nil
	case "help":
		return errUsage
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func cmdSimplify(ctx context.Context, cfg *config.Config, log *zap.Logger, in, outPath string, out io.Writer) error {
	hm, err := terrain.LoadHeightmap(in)
	if err != nil {
		return err
	}

	chunks, err := terrain.Simplify(ctx, hm, terrain.NewParams(cfg, log))
	if err != nil {
		if len(chunks) == 0 {
			return err
		}
		// Partial results are still worth writing.
		log.Warn("some chunks failed", zap.Error(err))
	}
	terrain.SmoothSeams(chunks)

	meshes := make([]export.Named, 0, len(chunks))
	before, after := 0, 0
	for _, c := range chunks {
		meshes = append(meshes, export.Named{
			Name:    fmt.Sprintf("chunk_%d_%d", c.Region.Coord.X, c.Region.Coord.Z),
			Mesh:    c.Mesh,
			Normals: c.Normals,
		})
		before += c.TrianglesBefore
		after += c.Mesh.TriangleCount()
	}

	if err := export.SaveOBJ(outPath, meshes...); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d chunks, %d -> %d triangles (%.1f%%)\n",
		outPath, len(chunks), before, after, 100*float64(after)/float64(max(before, 1)))
	return err
}

func cmdInfo(cfg *config.Config, in string, out io.Writer) error {
	hm, err := terrain.LoadHeightmap(in)
	if err != nil {
		return err
	}

	lo, hi := hm.Samples[0], hm.Samples[0]
	for _, s := range hm.Samples {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	cols, rows := hm.Cells()
	regions := terrain.Chunks(hm, cfg.Terrain.ChunkSize)
	full, target := 0, 0
	for _, r := range regions {
		full += r.Triangles()
		target += cfg.Simplify.TargetFor(r.Triangles())
	}

	fmt.Fprintf(out, "Heightmap:  %dx%d samples (%dx%d cells)\n", hm.Width, hm.Height, cols, rows)
	fmt.Fprintf(out, "Heights:    %.4f .. %.4f (world %.2f .. %.2f)\n", lo, hi, lo*cfg.Terrain.HeightScale, hi*cfg.Terrain.HeightScale)
	fmt.Fprintf(out, "Extent:     %.2f x %.2f world units\n", float32(cols)*cfg.Terrain.TileSize, float32(rows)*cfg.Terrain.TileSize)
	fmt.Fprintf(out, "Chunks:     %d\n", len(regions))
	fmt.Fprintf(out, "Triangles:  %d full, ~%d target\n", full, target)
	return nil
}
