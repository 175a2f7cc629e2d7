package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chriscorrea/kwcanon/internal/embedding"
	"github.com/chriscorrea/kwcanon/internal/report"
	"github.com/chriscorrea/kwcanon/internal/spinner"
	"github.com/chriscorrea/kwcanon/internal/synonym"
)

// EmbeddingInput names an embedding table and its columns.
type EmbeddingInput struct {
	Source       string // TSV path, URL or "-"
	TextColumn   string
	VectorColumn string // empty selects TextColumn + embedding.VectorSuffix
}

func readEmbeddings(ctx context.Context, in EmbeddingInput) (*embedding.Set, error) {
	r, err := openSource(ctx, "embeddings", in.Source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s, err := embedding.ReadTSV(r, in.TextColumn, in.VectorColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings %q: %w", in.Source, err)
	}
	return s, nil
}

// SynonymsConfig configures RunSynonyms.
type SynonymsConfig struct {
	Input      EmbeddingInput
	Threshold  float64 // cosine similarity a pair must exceed
	Transitive bool    // write the transitive closure
	Lexical    bool    // also link keywords sharing their word stems
	OutputPath string
	Quiet      bool
}

// SynonymsResult is the outcome of RunSynonyms.
type SynonymsResult struct {
	Result
	Dictionary synonym.Dictionary
}

// RunSynonyms writes a synonym dictionary linking keywords whose embeddings
// are more similar than the threshold.
func RunSynonyms(ctx context.Context, cfg SynonymsConfig) (*SynonymsResult, error) {
	s, err := readEmbeddings(ctx, cfg.Input)
	if err != nil {
		return nil, err
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = embedding.DefaultThreshold
	}

	var d synonym.Dictionary
	err = step(ctx, cfg.Quiet, "Comparing keyword embeddings", func(*spinner.Spinner) error {
		d = embedding.SimilarPairs(s, threshold)
		if cfg.Lexical {
			d = mergeDictionaries(d, synonym.LexicalDictionary(s.Texts))
		}
		if cfg.Transitive {
			d = synonym.Close(d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := synonym.WriteDictionary(cfg.OutputPath, d); err != nil {
		return nil, err
	}
	slog.Debug("Synonym dictionary written", "path", cfg.OutputPath, "entries", len(d))
	return &SynonymsResult{Result: Result{Files: []string{cfg.OutputPath}}, Dictionary: d}, nil
}

// mergeDictionaries returns the union of the links of a and b.
func mergeDictionaries(a, b synonym.Dictionary) synonym.Dictionary {
	out := make(synonym.Dictionary, len(a)+len(b))
	for _, d := range []synonym.Dictionary{a, b} {
		for k, vs := range d {
			out[k] = append(out[k], vs...)
		}
	}
	return out
}

// ProjectConfig configures RunProject.
type ProjectConfig struct {
	Input      EmbeddingInput
	Options    embedding.ProjectOptions
	OutputPath string
	Quiet      bool
}

// RunProject writes 2-D t-SNE coordinates of every embedded keyword.
func RunProject(ctx context.Context, cfg ProjectConfig) (*Result, error) {
	s, err := readEmbeddings(ctx, cfg.Input)
	if err != nil {
		return nil, err
	}

	var points []embedding.Point
	err = step(ctx, cfg.Quiet, "Projecting embeddings", func(*spinner.Spinner) error {
		var err error
		points, err = embedding.Project(s, cfg.Options)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := report.Projection(cfg.OutputPath, points); err != nil {
		return nil, err
	}
	return &Result{Files: []string{cfg.OutputPath}}, nil
}

// NearestConfig configures RunNearest.
type NearestConfig struct {
	Keywords   EmbeddingInput
	Categories EmbeddingInput
	Exclude    []string // category names that are never assigned
	OutputPath string
}

// NearestResult is the outcome of RunNearest.
type NearestResult struct {
	Result
	Assignments []embedding.Assignment
}

// RunNearest assigns every keyword to the category whose embedding is most
// similar to its own.
func RunNearest(ctx context.Context, cfg NearestConfig) (*NearestResult, error) {
	kw, err := readEmbeddings(ctx, cfg.Keywords)
	if err != nil {
		return nil, err
	}
	cats, err := readEmbeddings(ctx, cfg.Categories)
	if err != nil {
		return nil, err
	}

	as, err := embedding.Nearest(kw, cats, cfg.Exclude...)
	if err != nil {
		return nil, err
	}
	if err := report.Assignments(cfg.OutputPath, as); err != nil {
		return nil, err
	}
	return &NearestResult{Result: Result{Files: []string{cfg.OutputPath}}, Assignments: as}, nil
}
