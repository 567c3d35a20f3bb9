package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagLog     = flag.String("log", "", "Write logs to this file")
	flagRatio   = flag.Float64("ratio", 0, "Fraction of triangles to keep")
	flagTarget  = flag.Int("target", 0, "Triangle target per chunk (overrides -ratio)")
	flagChunk   = flag.Int("chunk", -1, "Cells per chunk side (0 = whole map)")
	flagWorkers = flag.Int("workers", 0, "Parallel chunk workers")
	flagWidth   = flag.Int("width", 0, "Viewer window width")
	flagHeight  = flag.Int("height", 0, "Viewer window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLog != "" {
		cfg.Logging.LogFile = *flagLog
	}
	if *flagRatio > 0 {
		cfg.Simplify.Ratio = *flagRatio
	}
	if *flagTarget > 0 {
		cfg.Simplify.Target = *flagTarget
	}
	if *flagChunk >= 0 {
		cfg.Terrain.ChunkSize = *flagChunk
	}
	if *flagWorkers > 0 {
		cfg.Terrain.Workers = *flagWorkers
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
