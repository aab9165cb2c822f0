// Package config loads the YAML settings shared by the command-line tools.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TrevorS/dbscan"
)

type Config struct {
	Clustering ClusteringConfig `yaml:"clustering"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	KDist      KDistConfig      `yaml:"kdist"`
}

type ClusteringConfig struct {
	Eps          float64 `yaml:"eps"`
	MinPts       int     `yaml:"min_pts"`
	Engine       string  `yaml:"engine"`        // auto, reference, rtree, kdtree or balltree
	NodeCapacity int     `yaml:"node_capacity"` // R-tree fan-out
	LeafSize     int     `yaml:"leaf_size"`     // KD-tree and ball tree leaf bucket
	Verify       bool    `yaml:"verify"`        // re-check the result with Validate
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

type MetricsConfig struct {
	File string `yaml:"file"` // Prometheus textfile written after a run
}

type KDistConfig struct {
	K       int `yaml:"k"`
	Workers int `yaml:"workers"`
}

// SearchPaths are tried in order when Load is given an empty path.
var SearchPaths = []string{"configs/dbscan.yaml", "dbscan.yaml"}

// Default returns the settings used when no file is found.
func Default() *Config {
	d := dbscan.DefaultConfig()
	return &Config{
		Clustering: ClusteringConfig{
			Eps:          d.Eps,
			MinPts:       d.MinPts,
			Engine:       string(d.Engine),
			NodeCapacity: d.NodeCapacity,
			LeafSize:     d.LeafSize,
		},
		Logging: LoggingConfig{Level: "info"},
		KDist:   KDistConfig{K: 4},
	}
}

// Load reads configPath over the defaults. An empty path searches
// SearchPaths and falls back to the defaults when none exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range SearchPaths {
			data, err := os.ReadFile(p)
			if err == nil {
				return cfg, parse(cfg, p, data)
			}
		}
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	return cfg, parse(cfg, configPath, data)
}

func parse(cfg *Config, path string, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: config %s: %w", dbscan.ErrInvalidInput, path, err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	d := dbscan.DefaultConfig()
	if cfg.Clustering.Engine == "" {
		cfg.Clustering.Engine = string(d.Engine)
	}
	if cfg.Clustering.NodeCapacity <= 0 {
		cfg.Clustering.NodeCapacity = d.NodeCapacity
	}
	if cfg.Clustering.LeafSize <= 0 {
		cfg.Clustering.LeafSize = d.LeafSize
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.KDist.K <= 0 {
		cfg.KDist.K = 4
	}
}

// Validate rejects values that cannot be mapped onto dbscan settings.
func (c *Config) Validate() error {
	if _, err := dbscan.ParseEngineKind(c.Clustering.Engine); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.KDist.Workers < 0 {
		return fmt.Errorf("%w: kdist.workers must be >= 0, got %d", dbscan.ErrInvalidInput, c.KDist.Workers)
	}
	return nil
}

// ParseLevel maps a level name onto a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", dbscan.ErrInvalidInput, s)
	}
}

// DBSCAN returns the clustering settings as a dbscan.Config. Logger and
// Metrics are left for the caller.
func (c *Config) DBSCAN() dbscan.Config {
	kind, _ := dbscan.ParseEngineKind(c.Clustering.Engine)
	return dbscan.Config{
		Eps:          c.Clustering.Eps,
		MinPts:       c.Clustering.MinPts,
		Engine:       kind,
		NodeCapacity: c.Clustering.NodeCapacity,
		LeafSize:     c.Clustering.LeafSize,
	}
}
