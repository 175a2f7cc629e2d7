package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chriscorrea/kwcanon/internal/corpus"
	"github.com/chriscorrea/kwcanon/internal/report"
	"github.com/chriscorrea/kwcanon/internal/spinner"
	"github.com/chriscorrea/kwcanon/internal/tfidf"
)

// Granularity selects the documents TF-IDF is computed over.
type Granularity int

const (
	// one document per paper, averaged per cluster (default)
	PaperGranularity Granularity = iota
	// one concatenated document per cluster
	ClusterGranularity
)

// String returns the flag value of g.
func (g Granularity) String() string {
	switch g {
	case PaperGranularity:
		return "paper"
	case ClusterGranularity:
		return "cluster"
	default:
		return "unknown"
	}
}

// ParseGranularity parses a --granularity flag value.
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "", "paper":
		return PaperGranularity, nil
	case "cluster":
		return ClusterGranularity, nil
	default:
		return 0, fmt.Errorf("unknown granularity %q (want paper or cluster)", s)
	}
}

// WeighConfig configures RunWeigh.
type WeighConfig struct {
	Input       GraphInput
	OutputDir   string
	TopN        int         // terms per cluster in the combined ranking
	Granularity Granularity // paper (default) or cluster documents
	AllClusters bool        // also weigh clusters outside the curated set
	Quiet       bool
}

// WeighResult is the outcome of RunWeigh.
type WeighResult struct {
	Result
	Corpus *corpus.Corpus
	Scores *tfidf.ClusterScores
}

// RunWeigh computes per-cluster keyword importance and writes one score file
// per cluster plus the combined top-N ranking.
func RunWeigh(ctx context.Context, cfg WeighConfig) (*WeighResult, error) {
	c, clusters, err := loadCorpus(ctx, cfg.Input, !cfg.AllClusters)
	if err != nil {
		return nil, err
	}

	var scores *tfidf.ClusterScores
	err = step(ctx, cfg.Quiet, "Weighing keywords", func(*spinner.Spinner) error {
		scores = Weigh(c, clusterOrder(c, clusters), cfg.Granularity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	w, err := report.NewWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	files, err := w.ClusterWeights(scores, clusters)
	if err != nil {
		return nil, err
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = report.TopPerCluster
	}
	top, err := w.TopKeywords(scores, clusters, topN)
	if err != nil {
		return nil, err
	}

	return &WeighResult{
		Result: Result{Files: append(files, top)},
		Corpus: c,
		Scores: scores,
	}, nil
}

// Weigh computes the cluster x term importance of c for the given clusters.
// With paper granularity every paper is a TF-IDF document and a cluster's
// vector is the mean of its papers' rows. With cluster granularity each
// cluster's concatenated tokens form one document.
func Weigh(c *corpus.Corpus, order []string, g Granularity) *tfidf.ClusterScores {
	if g == ClusterGranularity {
		byCluster := make(map[string][]string)
		for _, d := range c.Clusters() {
			byCluster[d.Cluster] = d.Tokens
		}
		docs := make([][]string, len(order))
		for i, id := range order {
			docs[i] = byCluster[id]
		}
		return tfidf.FitTransform(docs).PerRow(order)
	}

	m := tfidf.FitTransform(c.Docs())
	rows := c.ClusterRows()
	groups := make([]tfidf.Group, len(order))
	for i, id := range order {
		groups[i] = tfidf.Group{Name: id, Rows: rows[id]}
	}

	n, v := m.Dims()
	slog.Debug("Weighed papers", "papers", n, "terms", v, "clusters", len(groups))
	return m.Aggregate(groups)
}
