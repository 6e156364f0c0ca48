package config

import (
	"os"
	"strconv"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvLogLevel     = "INKWELL_LOG_LEVEL"
	EnvCanvasWidth  = "INKWELL_CANVAS_WIDTH"
	EnvCanvasHeight = "INKWELL_CANVAS_HEIGHT"
	EnvBackground   = "INKWELL_BACKGROUND"
	EnvBrush        = "INKWELL_BRUSH"
	EnvMaxSnapshots = "INKWELL_MAX_SNAPSHOTS"
	EnvScript       = "INKWELL_SCRIPT"
)

// ApplyEnv overrides cfg fields from the environment. Unset variables
// leave the config untouched; unparseable numbers are ignored.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvBackground); ok {
		cfg.Canvas.Background = v
	}
	if v, ok := os.LookupEnv(EnvBrush); ok {
		cfg.Canvas.Brush = v
	}
	if v, ok := os.LookupEnv(EnvScript); ok {
		cfg.Script.Path = v
	}
	if n, ok := lookupInt(EnvCanvasWidth); ok {
		cfg.Canvas.Width = n
	}
	if n, ok := lookupInt(EnvCanvasHeight); ok {
		cfg.Canvas.Height = n
	}
	if n, ok := lookupInt(EnvMaxSnapshots); ok {
		cfg.History.MaxSnapshots = n
	}
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
