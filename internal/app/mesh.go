package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chriscorrea/kwcanon/internal/graph"
	"github.com/chriscorrea/kwcanon/internal/mesh"
	"github.com/chriscorrea/kwcanon/internal/report"
	"github.com/chriscorrea/kwcanon/internal/spinner"
)

// MeshConfig configures RunMesh.
type MeshConfig struct {
	Source          string        // paper table CSV
	TitleColumn     string        // column holding paper titles
	OutputPath      string        // annotated table; also the checkpoint file
	ErrorsPath      string        // rows without descriptors, optional
	CheckpointEvery int           // rows between checkpoints, 0 disables them
	BaseURL         string        // E-utilities endpoint, empty for PubMed
	APIKey          string        // NCBI API key, optional
	Delay           time.Duration // minimum time between requests
	Fetcher         mesh.Fetcher  // nil selects the E-utilities client
	Quiet           bool
}

// MeshResult is the outcome of RunMesh.
type MeshResult struct {
	Result
	Stats mesh.BatchStats
}

// RunMesh adds MESH and MESH_ID columns to a paper table by looking every
// title up in PubMed. Rows that already carry descriptors are kept, so an
// interrupted run can be resumed from its output. The table is saved when
// the run is interrupted.
func RunMesh(ctx context.Context, cfg MeshConfig) (*MeshResult, error) {
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("no output path given")
	}

	r, err := openSource(ctx, "paper table", cfg.Source)
	if err != nil {
		return nil, err
	}
	table, err := mesh.ReadTable(r)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read paper table %q: %w", cfg.Source, err)
	}

	f := cfg.Fetcher
	if f == nil {
		f = mesh.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Delay)
	}

	save := func(t *mesh.Table) error { return writeTable(cfg.OutputPath, t) }

	var stats mesh.BatchStats
	runErr := step(ctx, cfg.Quiet, "Fetching MeSH descriptors", func(s *spinner.Spinner) error {
		var err error
		stats, err = mesh.Annotate(ctx, f, table, mesh.BatchOptions{
			TitleColumn:     cfg.TitleColumn,
			CheckpointEvery: cfg.CheckpointEvery,
			Checkpoint:      save,
			Progress:        s.Progress,
		})
		return err
	})

	// keep what was fetched even when the run was interrupted
	if err := save(table); err != nil {
		return nil, err
	}
	res := &MeshResult{Result: Result{Files: []string{cfg.OutputPath}}, Stats: stats}
	if runErr != nil {
		return res, fmt.Errorf("MeSH run stopped after %d lookups: %w", stats.Processed, runErr)
	}

	if cfg.ErrorsPath != "" && len(stats.Missing) > 0 {
		if err := writeTable(cfg.ErrorsPath, table.Subset(stats.Missing)); err != nil {
			return res, err
		}
		res.Files = append(res.Files, cfg.ErrorsPath)
	}

	slog.Debug("MeSH run finished",
		"processed", stats.Processed,
		"found", stats.Found,
		"skipped", stats.Skipped,
		"missing", len(stats.Missing))
	return res, nil
}

// writeTable atomically replaces path with t.
func writeTable(path string, t *mesh.Table) error {
	return writeAtomic(path, t.Write)
}

// writeAtomic replaces path with what write produces, leaving path untouched
// when write fails.
func writeAtomic(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %q: %w", path, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %q: %w", path, err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}

// MeshGraphConfig configures RunMeshGraph.
type MeshGraphConfig struct {
	GraphSource   string // GEXF graph
	TableSource   string // paper table annotated by RunMesh
	TitleColumn   string
	OutputPath    string // annotated graph
	UnmatchedPath string // nodes without a matching row, optional
}

// MeshGraphResult is the outcome of RunMeshGraph.
type MeshGraphResult struct {
	Result
	Stats mesh.TransferStats
}

// RunMeshGraph copies the MeSH columns of an annotated paper table into the
// mesh and mesh_id attributes of the matching graph nodes.
func RunMeshGraph(ctx context.Context, cfg MeshGraphConfig) (*MeshGraphResult, error) {
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("no output path given")
	}

	r, err := openSource(ctx, "graph", cfg.GraphSource)
	if err != nil {
		return nil, err
	}
	src, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %q: %w", cfg.GraphSource, err)
	}
	g, err := graph.Read(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %q: %w", cfg.GraphSource, err)
	}

	r, err = openSource(ctx, "paper table", cfg.TableSource)
	if err != nil {
		return nil, err
	}
	table, err := mesh.ReadTable(r)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read paper table %q: %w", cfg.TableSource, err)
	}

	values, stats, err := mesh.Transfer(g, table, cfg.TitleColumn)
	if err != nil {
		return nil, err
	}

	err = writeAtomic(cfg.OutputPath, func(w io.Writer) error {
		return graph.SetAttributes(src, w, values)
	})
	if err != nil {
		return nil, err
	}
	res := &MeshGraphResult{Result: Result{Files: []string{cfg.OutputPath}}, Stats: stats}

	if cfg.UnmatchedPath != "" && len(stats.Unmatched) > 0 {
		rows := make([][]string, len(stats.Unmatched))
		for i, n := range stats.Unmatched {
			doi, _ := n.Attr(mesh.DOIAttributes...)
			rows[i] = []string{n.ID, n.Label, doi}
		}
		if err := report.WriteCSV(cfg.UnmatchedPath, []string{"node_id", "label", "doi"}, rows); err != nil {
			return res, err
		}
		res.Files = append(res.Files, cfg.UnmatchedPath)
	}

	slog.Debug("MeSH terms transferred to graph",
		"nodes", stats.Total,
		"annotated", stats.Annotated,
		"doi", stats.Matched[mesh.ByDOI],
		"title", stats.Matched[mesh.ByTitle],
		"normalized", stats.Matched[mesh.ByNormalizedTitle],
		"unmatched", len(stats.Unmatched))
	return res, nil
}
