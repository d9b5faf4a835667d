package heap

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the heap's compile-time parameters, made runtime-overridable
// via an optional YAML file so a host isn't stuck with hardcoded constants.
type Config struct {
	HeapSize        uintptr `yaml:"heap_size"`
	FreeThresh      int     `yaml:"free_thresh"`
	LogFolder       string  `yaml:"log_folder"`
	ProfilerEnabled bool    `yaml:"profiler_enabled"`
}

// DefaultConfig mirrors the documented HEAP_SIZE/FREE_THRESH defaults: a
// 64KiB region and a free-list threshold chosen to keep the freed list
// small before it's drained.
func DefaultConfig() Config {
	return Config{
		HeapSize:        65536,
		FreeThresh:      32,
		LogFolder:       "./gclogs",
		ProfilerEnabled: false,
	}
}

// LoadConfig reads a YAML config file and overlays it onto DefaultConfig.
// Zero-valued fields in the file fall back to the default; a missing file
// is not an error and yields the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, err
	}

	if overlay.HeapSize != 0 {
		cfg.HeapSize = overlay.HeapSize
	}
	if overlay.FreeThresh != 0 {
		cfg.FreeThresh = overlay.FreeThresh
	}
	if overlay.LogFolder != "" {
		cfg.LogFolder = overlay.LogFolder
	}
	cfg.ProfilerEnabled = overlay.ProfilerEnabled

	return cfg, nil
}
