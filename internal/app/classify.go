package app

import (
	"context"
	"fmt"

	"github.com/chriscorrea/kwcanon/internal/classify"
	"github.com/chriscorrea/kwcanon/internal/corpus"
	"github.com/chriscorrea/kwcanon/internal/report"
	"github.com/chriscorrea/kwcanon/internal/spinner"
)

// ClassifyConfig configures RunClassify.
type ClassifyConfig struct {
	Source         string // keyword list, one per line
	SchemePath     string // category scheme YAML; empty selects the built-in scheme
	UnknownLogPath string // unmatched keywords are appended here; empty disables the log
	CacheSize      int
	OutputDir      string
	Quiet          bool
}

// ClassifyResult is the outcome of RunClassify.
type ClassifyResult struct {
	Result
	Rows      []report.Classification
	Unmatched int
	Totals    corpus.Counts
}

// RunClassify assigns broad categories to every keyword of a list and writes
// the classification CSV and the per-category totals.
func RunClassify(ctx context.Context, cfg ClassifyConfig) (*ClassifyResult, error) {
	scheme := classify.DefaultScheme()
	if cfg.SchemePath != "" {
		var err error
		if scheme, err = classify.LoadScheme(cfg.SchemePath); err != nil {
			return nil, err
		}
	}
	classifier := classify.NewClassifier(scheme)
	cached, err := classify.NewCachedClassifier(classifier, cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	r, err := openSource(ctx, "keyword list", cfg.Source)
	if err != nil {
		return nil, err
	}
	keywords, err := report.ReadKeywordList(r)
	r.Close()
	if err != nil {
		return nil, err
	}

	res := &ClassifyResult{}
	err = step(ctx, cfg.Quiet, "Classifying keywords", func(s *spinner.Spinner) error {
		res.Rows, res.Unmatched = classifyAll(ctx, cached, classify.NewUnknownLog(cfg.UnknownLogPath), keywords, s.Progress)
		return ctx.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("classification interrupted: %w", err)
	}

	w, err := report.NewWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	path, err := w.Classifications(res.Rows)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, path)

	totals, path, err := w.CategoryTotals(res.Rows, classifier.Categories())
	if err != nil {
		return nil, err
	}
	res.Totals = totals
	res.Files = append(res.Files, path)
	return res, nil
}

// classifyAll classifies keywords in order, recording unmatched ones in log.
// It stops early when ctx is done.
func classifyAll(ctx context.Context, d classify.Decider, log *classify.UnknownLog, keywords []string, progress func(done, total int)) ([]report.Classification, int) {
	rows := make([]report.Classification, 0, len(keywords))
	unmatched := 0
	for i, kw := range keywords {
		if ctx.Err() != nil {
			break
		}
		r := d.Classify(kw)
		log.Record(kw, r)
		if r.Unmatched {
			unmatched++
		}
		rows = append(rows, report.Classification{Keyword: kw, Categories: r.Categories})
		progress(i+1, len(keywords))
	}
	return rows, unmatched
}
