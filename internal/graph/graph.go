// Package graph reads attributed graphs in GEXF format.
//
// Only nodes and their attribute values are kept. Attribute values are keyed
// by the declared attribute title, falling back to the raw id when a value
// references an undeclared attribute, so callers can look up "keywords" or
// "modularity_class" regardless of how the exporting tool numbered them.
package graph

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrEmptyGraph is returned when a GEXF document contains no nodes.
	ErrEmptyGraph = errors.New("graph has no nodes")
	// ErrNoClusterAttribute is returned when no node attribute can serve as
	// the cluster assignment.
	ErrNoClusterAttribute = errors.New("no cluster attribute found")
)

// Attribute candidates, in order of preference.
var (
	KeywordAttributes = []string{"keywords", "Keywords", "KEYWORDS"}
	MeshAttributes    = []string{"mesh", "MESH", "Mesh"}
	ClusterAttributes = []string{
		"modularity_class",
		"modularity class",
		"community",
		"mod",
		"partition",
		"community_id",
		"communityId",
	}
)

// Node is a graph node with its attribute values.
type Node struct {
	ID    string
	Label string
	Attrs map[string]string
}

// Attr returns the value of the first candidate attribute that is present and
// non-empty after trimming.
func (n Node) Attr(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if v, ok := n.Attrs[c]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// Keywords returns the raw keyword field of n.
func (n Node) Keywords() (string, bool) {
	return n.Attr(KeywordAttributes...)
}

// Mesh returns the raw MeSH field of n.
func (n Node) Mesh() (string, bool) {
	return n.Attr(MeshAttributes...)
}

// Graph is the node list of a GEXF document in document order.
type Graph struct {
	Nodes []Node
	// Attributes lists declared node attribute titles in declaration order.
	Attributes []string
}

type gexfDoc struct {
	Graph struct {
		Attributes []struct {
			Class string `xml:"class,attr"`
			Attrs []struct {
				ID    string `xml:"id,attr"`
				Title string `xml:"title,attr"`
				Type  string `xml:"type,attr"`
			} `xml:"attribute"`
		} `xml:"attributes"`
		Nodes struct {
			Nodes []struct {
				ID        string `xml:"id,attr"`
				Label     string `xml:"label,attr"`
				AttValues struct {
					Values []struct {
						For   string `xml:"for,attr"`
						ID    string `xml:"id,attr"`
						Value string `xml:"value,attr"`
					} `xml:"attvalue"`
				} `xml:"attvalues"`
			} `xml:"node"`
		} `xml:"nodes"`
	} `xml:"graph"`
}

// ReadFile reads a GEXF file.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph %q: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %q: %w", path, err)
	}
	return g, nil
}

// Read decodes a GEXF document from r.
func Read(r io.Reader) (*Graph, error) {
	var doc gexfDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid GEXF: %w", err)
	}

	titles := make(map[string]string)
	g := &Graph{}
	for _, block := range doc.Graph.Attributes {
		if block.Class != "" && block.Class != "node" {
			continue
		}
		for _, a := range block.Attrs {
			title := a.Title
			if title == "" {
				title = a.ID
			}
			titles[a.ID] = title
			g.Attributes = append(g.Attributes, title)
		}
	}

	for _, xn := range doc.Graph.Nodes.Nodes {
		n := Node{
			ID:    xn.ID,
			Label: xn.Label,
			Attrs: make(map[string]string, len(xn.AttValues.Values)),
		}
		for _, av := range xn.AttValues.Values {
			ref := av.For
			if ref == "" {
				ref = av.ID
			}
			key, ok := titles[ref]
			if !ok {
				key = ref
			}
			n.Attrs[key] = av.Value
		}
		g.Nodes = append(g.Nodes, n)
	}

	if len(g.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	slog.Debug("Read graph", "nodes", len(g.Nodes), "attributes", len(g.Attributes))
	return g, nil
}

// ClusterAttribute returns the attribute that holds cluster assignments: the
// first known candidate present on any node, else the first attribute whose
// values are all integers.
func (g *Graph) ClusterAttribute() (string, error) {
	present := make(map[string]bool)
	var order []string
	for _, a := range g.Attributes {
		if !present[a] {
			present[a] = true
			order = append(order, a)
		}
	}
	for _, n := range g.Nodes {
		for k := range n.Attrs {
			if !present[k] {
				present[k] = true
				order = append(order, k)
			}
		}
	}

	for _, c := range ClusterAttributes {
		if present[c] {
			return c, nil
		}
	}

	for _, a := range order {
		if g.intValued(a) {
			slog.Debug("Using integer attribute as cluster", "attribute", a)
			return a, nil
		}
	}
	return "", ErrNoClusterAttribute
}

// intValued reports whether attr is set on at least one node and every
// non-empty value parses as an integer.
func (g *Graph) intValued(attr string) bool {
	seen := false
	for _, n := range g.Nodes {
		v, ok := n.Attrs[attr]
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if _, isInt := parseInt(v); !isInt {
			return false
		}
		seen = true
	}
	return seen
}

// ClusterKey normalizes a cluster attribute value. Integral values, including
// float spellings such as "3.0", become their decimal integer form; anything
// else is returned trimmed.
func ClusterKey(v string) string {
	v = strings.TrimSpace(v)
	if i, ok := parseInt(v); ok {
		return strconv.FormatInt(i, 10)
	}
	return v
}

func parseInt(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
