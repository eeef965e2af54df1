package neorm

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the .neorm.yaml configuration file.
type Config struct {
	// Neo4j holds the connection settings.
	Neo4j *Neo4jConfig `yaml:"neo4j,omitempty"`

	// Models declares schema for models by name, for config-driven use
	// (the neorm CLI builds Models from these and applies their schema).
	Models map[string]*ModelConfig `yaml:"models,omitempty"`
}

// Neo4jConfig holds Neo4j connection settings.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// ModelConfig declares a model's labels and schema directives.
type ModelConfig struct {
	// Labels are additional mapped labels beyond the model name.
	Labels []string `yaml:"labels,omitempty"`

	// Identity names the identity property (defaults to "id").
	Identity string `yaml:"id,omitempty"`

	// Index lists properties to back with a plain index.
	Index []string `yaml:"index,omitempty"`

	// Unique lists properties to back with a uniqueness constraint.
	Unique []string `yaml:"unique,omitempty"`
}

// Model builds a Model from the declaration. Index and constraint
// directives are issued immediately (queued on the gate until bound).
func (mc *ModelConfig) Model(name string, opts ...Option) *Model {
	if mc.Identity != "" {
		opts = append(opts, WithIdentity(mc.Identity))
	}

	if len(mc.Labels) > 0 {
		opts = append(opts, WithLabels(mc.Labels...))
	}

	m := NewModel(name, opts...)

	for _, p := range mc.Index {
		m.DeclareProperty(p)
		m.Index(p)
	}

	for _, p := range mc.Unique {
		m.DeclareProperty(p)
		m.Constraint(p, Unique())
	}

	return m
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".neorm.yaml", ".neorm.yml", "neorm.yaml", "neorm.yml"}

// LoadConfig finds and loads the nearest .neorm.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
