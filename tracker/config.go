package tracker

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the tracker service.
type Config struct {
	// DBPath is the meal database file.
	DBPath string `yaml:"db_path"`

	// ListenAddr is the HTTP API bind address.
	ListenAddr string `yaml:"listen_addr"`

	// ReferenceURL points at the nutrition reference JSON document.
	// Empty means offline: the embedded fallback table is used.
	ReferenceURL string `yaml:"reference_url"`

	// ReferenceTimeout bounds the reference fetch.
	ReferenceTimeout time.Duration `yaml:"reference_timeout"`

	// StartupTimeout bounds how long startup waits for stored data before
	// proceeding with empty meals and default settings.
	StartupTimeout time.Duration `yaml:"startup_timeout"`

	// ClassifyTimeout bounds one image classification attempt.
	ClassifyTimeout time.Duration `yaml:"classify_timeout"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "data/platewise.db"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}
	if c.ReferenceTimeout <= 0 {
		c.ReferenceTimeout = 10 * time.Second
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = 3 * time.Second
	}
	if c.ClassifyTimeout <= 0 {
		c.ClassifyTimeout = 30 * time.Second
	}
}

// LoadConfig reads a YAML config file and applies defaults. A missing path
// yields the pure defaults, so running without a config file just works.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("tracker: read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("tracker: parse config: %w", err)
		}
	}
	cfg.defaults()
	return cfg, nil
}
