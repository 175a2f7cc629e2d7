// Package app contains the pipeline behind each kwcanon command.
// It wires the keyword, synonym, corpus, weighting and report packages
// together and is kept separate from CLI concerns.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chriscorrea/kwcanon/internal/config"
	"github.com/chriscorrea/kwcanon/internal/corpus"
	"github.com/chriscorrea/kwcanon/internal/fetch"
	"github.com/chriscorrea/kwcanon/internal/graph"
	"github.com/chriscorrea/kwcanon/internal/spinner"
	"github.com/chriscorrea/kwcanon/internal/synonym"
)

// GraphInput holds the options shared by commands that read a graph.
type GraphInput struct {
	Source           string           // GEXF path, URL or "-" for stdin
	SynonymsPath     string           // synonym dictionary JSON, optional
	Clusters         *config.Clusters // curated clusters; nil selects the embedded default
	Sentinel         string           // keyword value of papers without keywords
	ClusterAttribute string           // overrides cluster attribute detection
}

// Result lists the files a command wrote.
type Result struct {
	Files []string
}

// progress is where spinners draw.
var progress io.Writer = os.Stderr

// step runs fn behind a spinner unless quiet.
func step(ctx context.Context, quiet bool, message string, fn func(*spinner.Spinner) error) error {
	return spinner.Step(ctx, progress, quiet, message, fn)
}

// openSource opens a pipeline input and reports what it is for on failure.
func openSource(ctx context.Context, what, source string) (io.ReadCloser, error) {
	if source == "" {
		return nil, fmt.Errorf("no %s given", what)
	}
	r, err := fetch.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", what, err)
	}
	return r, nil
}

// loadCorpus reads the graph and builds canonical documents.
//
// Processing Pipeline:
// 1. read the GEXF graph from in.Source
// 2. load the synonym dictionary and build the canonical map
// 3. split, normalize and canonicalize every node's keywords
func loadCorpus(ctx context.Context, in GraphInput, excludeUnmapped bool) (*corpus.Corpus, *config.Clusters, error) {
	clusters := in.Clusters
	if clusters == nil {
		clusters = config.DefaultClusters()
	}

	// step 1: read the graph
	r, err := openSource(ctx, "graph", in.Source)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	g, err := graph.Read(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read graph %q: %w", in.Source, err)
	}

	// step 2: canonical map; a missing dictionary disables merging
	canon := synonym.NewMap(synonym.LoadDictionaryLenient(in.SynonymsPath))
	slog.Debug("Canonical map ready", "classes", canon.Len())

	// step 3: documents
	c, err := corpus.Build(g, canon, corpus.Options{
		Sentinel:         in.Sentinel,
		KnownClusters:    clusters.IDs(),
		ExcludeUnmapped:  excludeUnmapped,
		ClusterAttribute: in.ClusterAttribute,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(c.Papers) == 0 {
		slog.Warn("No paper has usable keywords", "nodes", c.Stats.Total, "sentinel", c.Stats.Sentinel)
	}
	return c, clusters, nil
}

// clusterOrder lists the clusters of c: curated clusters in their configured
// order first, then the others in key order.
func clusterOrder(c *corpus.Corpus, clusters *config.Clusters) []string {
	present := make(map[string]bool)
	for _, id := range c.ClusterIDs() {
		present[id] = true
	}

	var order []string
	for _, id := range clusters.IDs() {
		if present[id] {
			order = append(order, id)
			delete(present, id)
		}
	}
	var rest []string
	for id := range present {
		rest = append(rest, id)
	}
	corpus.SortKeys(rest)
	return append(order, rest...)
}
