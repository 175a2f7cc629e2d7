package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chriscorrea/kwcanon/internal/graph"
)

//go:embed clusters.yaml
var defaultClustersYAML []byte

// DefaultColor is used for clusters without a configured color.
const DefaultColor = "#1f77b4"

// Cluster is the curated metadata of one modularity class.
type Cluster struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Color string `yaml:"color"`
}

// Clusters is the curated set of known clusters.
type Clusters struct {
	list []Cluster
	byID map[string]Cluster
}

type clustersFile struct {
	Clusters []Cluster `yaml:"clusters"`
}

// DefaultClusters returns the embedded cluster metadata.
func DefaultClusters() *Clusters {
	c, err := parseClusters(defaultClustersYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded clusters.yaml is invalid: %v", err))
	}
	return c
}

// LoadClusters reads cluster metadata from a YAML file. An empty path
// selects the embedded default.
func LoadClusters(path string) (*Clusters, error) {
	if path == "" {
		return DefaultClusters(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster metadata %q: %w", path, err)
	}
	c, err := parseClusters(data)
	if err != nil {
		return nil, fmt.Errorf("invalid cluster metadata %q: %w", path, err)
	}
	return c, nil
}

func parseClusters(data []byte) (*Clusters, error) {
	var f clustersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	c := &Clusters{byID: make(map[string]Cluster, len(f.Clusters))}
	for i, cl := range f.Clusters {
		cl.ID = graph.ClusterKey(cl.ID)
		if cl.ID == "" {
			return nil, fmt.Errorf("cluster %d has no id", i)
		}
		if _, dup := c.byID[cl.ID]; dup {
			return nil, fmt.Errorf("cluster %s defined twice", cl.ID)
		}
		c.byID[cl.ID] = cl
		c.list = append(c.list, cl)
	}
	return c, nil
}

// IDs returns the known cluster ids in file order.
func (c *Clusters) IDs() []string {
	ids := make([]string, len(c.list))
	for i, cl := range c.list {
		ids[i] = cl.ID
	}
	return ids
}

// Known reports whether id is a curated cluster.
func (c *Clusters) Known(id string) bool {
	_, ok := c.byID[graph.ClusterKey(id)]
	return ok
}

// Label returns the curated label of id, or Modularity_<id> for clusters
// outside the curated set.
func (c *Clusters) Label(id string) string {
	if cl, ok := c.byID[graph.ClusterKey(id)]; ok && cl.Label != "" {
		return cl.Label
	}
	return "Modularity_" + id
}

// Color returns the curated color of id or DefaultColor.
func (c *Clusters) Color(id string) string {
	if cl, ok := c.byID[graph.ClusterKey(id)]; ok && cl.Color != "" {
		return cl.Color
	}
	return DefaultColor
}
