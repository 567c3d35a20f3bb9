// Package config handles tool configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// Config holds all settings shared by the command line tool and the viewer.
type Config struct {
	Simplify SimplifyConfig `yaml:"simplify"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SimplifyConfig holds edge contraction settings.
type SimplifyConfig struct {
	Ratio            float64 `yaml:"ratio"`  // fraction of triangles to keep
	Target           int     `yaml:"target"` // absolute per-mesh target, overrides ratio when > 0
	Epsilon          float64 `yaml:"epsilon"`
	InversionPenalty float64 `yaml:"inversion_penalty"`
	TexCoords        bool    `yaml:"texcoords"`
}

// TerrainConfig holds heightmap to mesh conversion settings.
type TerrainConfig struct {
	TileSize    float32 `yaml:"tile_size"`    // world units between samples
	HeightScale float32 `yaml:"height_scale"` // world height of a white sample
	ChunkSize   int     `yaml:"chunk_size"`   // cells per chunk side, 0 = one chunk
	Workers     int     `yaml:"workers"`      // 0 = GOMAXPROCS
}

// ViewerConfig holds display settings for the step-through viewer.
type ViewerConfig struct {
	Width         int  `yaml:"width"`
	Height        int  `yaml:"height"`
	VSync         bool `yaml:"vsync"`
	StepsPerFrame int  `yaml:"steps_per_frame"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simplify: SimplifyConfig{
			Ratio:            0.25,
			Target:           0,
			Epsilon:          simplify.DefaultEpsilon,
			InversionPenalty: simplify.DefaultInversionPenalty,
			TexCoords:        true,
		},
		Terrain: TerrainConfig{
			TileSize:    10,
			HeightScale: 100,
			ChunkSize:   64,
			Workers:     0,
		},
		Viewer: ViewerConfig{
			Width:         1280,
			Height:        720,
			VSync:         true,
			StepsPerFrame: 16,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.Simplify.Ratio > 0 && c.Simplify.Ratio <= 1, "simplify.ratio must be in (0, 1], got %v", c.Simplify.Ratio)
	check(c.Simplify.Target >= 0, "simplify.target must not be negative, got %d", c.Simplify.Target)
	check(c.Simplify.Epsilon > 0, "simplify.epsilon must be positive, got %v", c.Simplify.Epsilon)
	check(c.Simplify.InversionPenalty >= 0, "simplify.inversion_penalty must not be negative, got %v", c.Simplify.InversionPenalty)

	check(c.Terrain.TileSize > 0, "terrain.tile_size must be positive, got %v", c.Terrain.TileSize)
	check(c.Terrain.HeightScale >= 0, "terrain.height_scale must not be negative, got %v", c.Terrain.HeightScale)
	check(c.Terrain.ChunkSize >= 0, "terrain.chunk_size must not be negative, got %d", c.Terrain.ChunkSize)
	check(c.Terrain.Workers >= 0, "terrain.workers must not be negative, got %d", c.Terrain.Workers)

	check(c.Viewer.Width > 0 && c.Viewer.Height > 0, "viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height)
	check(c.Viewer.StepsPerFrame > 0, "viewer.steps_per_frame must be positive, got %d", c.Viewer.StepsPerFrame)

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		check(false, "logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	return err
}

// Options converts the simplify section to engine options.
func (c SimplifyConfig) Options(log *zap.Logger) simplify.Options {
	return simplify.Options{
		Epsilon:          c.Epsilon,
		InversionPenalty: c.InversionPenalty,
		IgnoreTexCoords:  !c.TexCoords,
		Logger:           log,
	}
}

// TargetFor returns the triangle target for a mesh of the given size.
func (c SimplifyConfig) TargetFor(triangles int) int {
	if c.Target > 0 {
		return c.Target
	}
	return int(float64(triangles) * c.Ratio)
}
