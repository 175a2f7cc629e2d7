package app

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/chriscorrea/kwcanon/internal/classify"
	"github.com/chriscorrea/kwcanon/internal/corpus"
	"github.com/chriscorrea/kwcanon/internal/report"
)

// CountConfig configures RunCount.
type CountConfig struct {
	Input       GraphInput
	OutputDir   string
	MappingPath string // keyword,categories CSV written by classify
}

// CountResult is the outcome of RunCount.
type CountResult struct {
	Result
	Corpus *corpus.Corpus
	// Unclassified are canonical keywords missing from the category CSV.
	Unclassified []string
}

// RunCount writes per-cluster frequency reports: canonical keyword counts,
// broad category counts and MeSH term counts, along with the QA listings of
// every canonical keyword and MeSH term seen. Clusters outside the curated
// set are reported under Modularity_<id>.
func RunCount(ctx context.Context, cfg CountConfig) (*CountResult, error) {
	c, clusters, err := loadCorpus(ctx, cfg.Input, false)
	if err != nil {
		return nil, err
	}
	order := clusterOrder(c, clusters)

	mappingPath := cfg.MappingPath
	if mappingPath == "" {
		mappingPath = report.ClassificationFile
	}
	mapping, err := classify.LoadMapping(mappingPath)
	if err != nil {
		return nil, err
	}

	w, err := report.NewWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	res := &CountResult{Corpus: c}
	add := func(paths []string, err error) error {
		res.Files = append(res.Files, paths...)
		return err
	}
	addOne := func(path string, err error) error {
		if path != "" {
			res.Files = append(res.Files, path)
		}
		return err
	}

	if err := add(w.KeywordCounts(c.KeywordCounts(), order, clusters)); err != nil {
		return nil, err
	}

	categories, missing := c.CategoryCounts(mapping)
	res.Unclassified = missing
	if err := add(w.CategoryCounts(categories, order, clusters)); err != nil {
		return nil, err
	}
	if err := addOne(w.UnclassifiedTerms(missing, filepath.Base(mappingPath))); err != nil {
		return nil, err
	}

	meshCounts := c.MeshCounts()
	if err := add(w.MeshCounts(meshCounts, order, clusters)); err != nil {
		return nil, err
	}
	if err := addOne(w.MeshTerms(distinctTerms(meshCounts))); err != nil {
		return nil, err
	}

	if err := addOne(w.CanonicalKeywords(c.Vocabulary())); err != nil {
		return nil, err
	}
	if err := addOne(w.CanonicalMapping(c.RawToCanonical)); err != nil {
		return nil, err
	}

	return res, nil
}

func distinctTerms(counts map[string]corpus.Counts) []string {
	seen := make(map[string]struct{})
	for _, c := range counts {
		for t := range c {
			seen[t] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
