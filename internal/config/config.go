// Package config loads cmd/poolserver's configuration from an optional
// YAML file overlaid with command-line flags, the convention the wider
// retrieval pack uses (sdcio-data-server, gcsfuse) rather than the
// teacher's own apollo-config (a remote config-center client with no
// fit here — this demo server has no config center to talk to).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is cmd/poolserver's full configuration surface.
type Config struct {
	Variant     string `yaml:"variant"`
	WorkerCount int    `yaml:"workerCount"`
	Listen      string `yaml:"listen"`
	Seed        int64  `yaml:"seed"`
}

// Default returns the configuration used when no file and no flags
// override it.
func Default() Config {
	return Config{
		Variant: "spin-shared",
		Listen:  ":8080",
	}
}

// Load reads path as YAML into a Config seeded with Default(). A
// missing file is not an error — Default() alone is used.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
