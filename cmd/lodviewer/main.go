// lodviewer steps through the simplification of a heightmap interactively.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/terrain"
	"github.com/Faultbox/midgard-lod/internal/viewer"
	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// maxViewerCells caps the grid side so the viewer stays interactive on
// large heightmaps; the top-left region is shown.
const maxViewerCells = 256

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	args := config.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodviewer [flags] <heightmap>")
		os.Exit(1)
	}

	logCfg := logger.Config{Level: cfg.Logging.Level, Console: true}
	if cfg.Logging.LogFile != "" {
		logCfg.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	log := logger.Init(logCfg)
	defer logger.Sync()

	log.Info("=== Midgard LOD Viewer ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, args[0]); err != nil {
		log.Error("viewer failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, path string) error {
	hm, err := terrain.LoadHeightmap(path)
	if err != nil {
		return err
	}

	cols, rows := hm.Cells()
	region := terrain.Region{Cols: min(cols, maxViewerCells), Rows: min(rows, maxViewerCells)}
	if region.Cols < cols || region.Rows < rows {
		log.Warn("heightmap cropped for viewing",
			zap.Int("cols", region.Cols),
			zap.Int("rows", region.Rows),
		)
	}

	params := terrain.NewParams(cfg, log)
	buf := terrain.BuildGrid(hm, region, params)
	mesh, err := simplify.New(*buf, params.Options)
	if err != nil {
		return err
	}
	defer mesh.Close()

	session := viewer.NewSession(mesh, params.Target(region.Triangles()), cfg.Viewer.StepsPerFrame)

	v, err := viewer.New(viewer.WindowConfig{
		Width:  cfg.Viewer.Width,
		Height: cfg.Viewer.Height,
		VSync:  cfg.Viewer.VSync,
	}, session, log)
	if err != nil {
		return err
	}
	defer v.Close()

	return v.Run(ctx)
}
