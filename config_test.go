package neorm_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rlch/neorm"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `neo4j:
  uri: bolt://localhost:7687
  username: neo4j
  password: secret
  database: movies
models:
  User:
    labels: [Person]
    id: uuid
    index: [name]
    unique: [email]
`

func writeConfig(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), ".neorm.yaml")

	cfg, err := neorm.LoadConfigFile(path)
	require.NoError(t, err)

	want := &neorm.Config{
		Neo4j: &neorm.Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Password: "secret",
			Database: "movies",
		},
		Models: map[string]*neorm.ModelConfig{
			"User": {
				Labels:   []string{"Person"},
				Identity: "uuid",
				Index:    []string{"name"},
				Unique:   []string{"email"},
			},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, ".neorm.yaml")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	cfg, err := neorm.LoadConfig(nested)
	require.NoError(t, err)

	if cfg.Neo4j == nil || cfg.Neo4j.Database != "movies" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_NotFound(t *testing.T) {
	t.Parallel()

	_, err := neorm.LoadConfig(t.TempDir())
	require.ErrorIs(t, err, neorm.ErrConfigNotFound)
}

func TestModelConfig_BuildsModel(t *testing.T) {
	t.Parallel()

	mc := &neorm.ModelConfig{
		Labels:   []string{"Person"},
		Identity: "uuid",
		Index:    []string{"name"},
		Unique:   []string{"email"},
	}

	gate := neorm.NewGate()
	m := mc.Model("User", neorm.WithGate(gate))

	if diff := cmp.Diff([]string{"User", "Person"}, m.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	if got := m.Identity(); got != "uuid" {
		t.Errorf("Identity() = %q, want %q", got, "uuid")
	}

	sess := newFakeSession()
	gate.Bind(context.Background(), sess)
	require.NoError(t, m.Wait(context.Background()))

	if !sess.graph.hasIndex("User", "name") || !sess.graph.hasIndex("Person", "name") {
		t.Error("declared index should cover all mapped labels")
	}

	if !sess.graph.hasConstraint("User", "email") {
		t.Error("declared unique property should be constraint-backed")
	}
}
