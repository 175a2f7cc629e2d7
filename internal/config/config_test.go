package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "keyword_synonyms.json", cfg.Input.SynonymsPath)
	assert.Equal(t, "Unknown keywords", cfg.Input.Sentinel)
	assert.Equal(t, 350*time.Millisecond, cfg.Mesh.Delay)
	assert.Equal(t, "Label", cfg.Mesh.TitleColumn)
	assert.Equal(t, 0.99, cfg.Embedding.Threshold)
	assert.Equal(t, 300, cfg.Embedding.Iterations)
	assert.False(t, cfg.Quiet)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("KWCANON_OUTPUT_DIR", "/tmp/out")
	t.Setenv("KWCANON_TOP_N", "5")
	t.Setenv("KWCANON_MESH_DELAY", "1s")
	t.Setenv("KWCANON_SIMILARITY_THRESHOLD", "0.95")
	t.Setenv("KWCANON_QUIET", "true")
	t.Setenv("KWCANON_TSNE_ITERATIONS", "not a number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 5, cfg.Weigh.TopN)
	assert.Equal(t, time.Second, cfg.Mesh.Delay)
	assert.Equal(t, 0.95, cfg.Embedding.Threshold)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, 300, cfg.Embedding.Iterations, "invalid values fall back to the default")
}

func TestDefaultClusters(t *testing.T) {
	c := DefaultClusters()

	assert.Equal(t, []string{"1", "2", "5", "6", "7", "10", "11", "12", "15"}, c.IDs())
	assert.True(t, c.Known("5"))
	assert.True(t, c.Known("5.0"))
	assert.False(t, c.Known("3"))

	assert.Equal(t, "Basic: Basal Ganglia", c.Label("5"))
	assert.Equal(t, "Applied: Feedback and\ntraining scheduling", c.Label("7"))
	assert.Equal(t, "Modularity_3", c.Label("3"))

	assert.Equal(t, "#32AC7C", c.Color("5"))
	assert.Equal(t, DefaultColor, c.Color("3"))
}

func TestLoadClusters(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "clusters.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clusters:\n  - id: 4\n    label: Motor Memory\n"), 0o644))

	c, err := LoadClusters(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, c.IDs())
	assert.Equal(t, "Motor Memory", c.Label("4"))
	assert.Equal(t, DefaultColor, c.Color("4"))

	c, err = LoadClusters("")
	require.NoError(t, err)
	assert.Len(t, c.IDs(), 9)

	_, err = LoadClusters(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("clusters:\n  - id: 1\n  - id: \"1\"\n"), 0o644))
	_, err = LoadClusters(dup)
	assert.Error(t, err)
}
