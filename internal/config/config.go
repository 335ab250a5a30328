// Package config loads and persists memgraph configuration.
// Configuration lives in a YAML file; every field has a working default so
// an empty or missing file yields a usable setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/normanking/memgraph/internal/graph"
)

// Config holds all memgraph configuration.
type Config struct {
	Graph   GraphConfig   `mapstructure:"graph" yaml:"graph"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// GraphConfig mirrors graph.Options in file form.
type GraphConfig struct {
	// SimilarityThreshold is the minimum score for similarity auto-edges.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`

	// PageRankDamping is the PageRank damping factor.
	PageRankDamping float64 `mapstructure:"pagerank_damping" yaml:"pagerank_damping"`

	// PageRankIterations caps PageRank power iteration.
	PageRankIterations int `mapstructure:"pagerank_iterations" yaml:"pagerank_iterations"`

	// PageRankConvergence is the convergence tolerance.
	PageRankConvergence float64 `mapstructure:"pagerank_convergence" yaml:"pagerank_convergence"`

	// MaxNodes caps the graph's node count.
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`

	// EnableAutoEdges gates similarity edge building.
	EnableAutoEdges bool `mapstructure:"enable_auto_edges" yaml:"enable_auto_edges"`

	// CommunityAlgorithm is "label-propagation" or "louvain".
	CommunityAlgorithm string `mapstructure:"community_algorithm" yaml:"community_algorithm"`
}

// StoreConfig configures the SQLite backing store.
type StoreConfig struct {
	// DBPath is the SQLite database file path.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{
			SimilarityThreshold: graph.DefaultSimilarityThreshold,
			PageRankDamping:     graph.DefaultPageRankDamping,
			PageRankIterations:  graph.DefaultPageRankIterations,
			PageRankConvergence: graph.DefaultPageRankConvergence,
			MaxNodes:            graph.DefaultMaxNodes,
			EnableAutoEdges:     true,
			CommunityAlgorithm:  graph.AlgorithmLabelPropagation,
		},
		Store: StoreConfig{
			DBPath: "memgraph.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GraphOptions converts the file form into graph.Options.
func (c *Config) GraphOptions() graph.Options {
	return graph.Options{
		SimilarityThreshold: c.Graph.SimilarityThreshold,
		PageRankDamping:     c.Graph.PageRankDamping,
		PageRankIterations:  c.Graph.PageRankIterations,
		PageRankConvergence: c.Graph.PageRankConvergence,
		MaxNodes:            c.Graph.MaxNodes,
		EnableAutoEdges:     c.Graph.EnableAutoEdges,
		CommunityAlgorithm:  c.Graph.CommunityAlgorithm,
	}
}

// Validate checks value ranges after loading.
func (c *Config) Validate() error {
	if c.Graph.PageRankDamping <= 0 || c.Graph.PageRankDamping >= 1 {
		return fmt.Errorf("pagerank_damping must be in (0,1), got %v", c.Graph.PageRankDamping)
	}
	if c.Graph.SimilarityThreshold < 0 || c.Graph.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0,1], got %v", c.Graph.SimilarityThreshold)
	}
	if c.Graph.MaxNodes <= 0 {
		return fmt.Errorf("max_nodes must be positive, got %d", c.Graph.MaxNodes)
	}
	switch c.Graph.CommunityAlgorithm {
	case graph.AlgorithmLabelPropagation, graph.AlgorithmLouvain:
	default:
		return fmt.Errorf("unknown community_algorithm %q", c.Graph.CommunityAlgorithm)
	}
	return nil
}

// LoadFromPath reads configuration from a YAML file. A missing file is
// created with defaults first, so first runs are self-configuring.
func LoadFromPath(path string) (*Config, error) {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := Default()
	v.SetDefault("graph.similarity_threshold", defaults.Graph.SimilarityThreshold)
	v.SetDefault("graph.pagerank_damping", defaults.Graph.PageRankDamping)
	v.SetDefault("graph.pagerank_iterations", defaults.Graph.PageRankIterations)
	v.SetDefault("graph.pagerank_convergence", defaults.Graph.PageRankConvergence)
	v.SetDefault("graph.max_nodes", defaults.Graph.MaxNodes)
	v.SetDefault("graph.enable_auto_edges", defaults.Graph.EnableAutoEdges)
	v.SetDefault("graph.community_algorithm", defaults.Graph.CommunityAlgorithm)
	v.SetDefault("store.db_path", defaults.Store.DBPath)
	v.SetDefault("logging.level", defaults.Logging.Level)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveToPath writes the configuration to a YAML file.
func (c *Config) SaveToPath(path string) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

func writeConfigFile(path string, cfg *Config) error {
	var sb strings.Builder
	sb.WriteString("# memgraph configuration\n")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	sb.Write(data)

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
