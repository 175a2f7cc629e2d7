package mesh

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Column names added to annotated tables.
const (
	DescriptorColumn = "MESH"
	IDColumn         = "MESH_ID"
)

// Table is a CSV table with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a comma separated table with a header row. Rows are padded
// or cut to the header width.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV has no header")
	}

	t := &Table{Header: records[0]}
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, fit(rec, len(t.Header)))
	}
	return t, nil
}

// Write writes t as CSV.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Column returns the index of name, adding an empty column when create is set.
func (t *Table) Column(name string, create bool) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	if !create {
		return -1
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = fit(t.Rows[i], len(t.Header))
	}
	return len(t.Header) - 1
}

// fit pads or truncates rec to n fields.
func fit(rec []string, n int) []string {
	if len(rec) > n {
		return rec[:n:n]
	}
	for len(rec) < n {
		rec = append(rec, "")
	}
	return rec
}

// BatchOptions configure Annotate.
type BatchOptions struct {
	// TitleColumn holds the paper titles.
	TitleColumn string
	// CheckpointEvery calls Checkpoint after that many looked-up rows.
	CheckpointEvery int
	Checkpoint      func(*Table) error
	// Progress is called after every row.
	Progress func(done, total int)
}

// BatchStats summarize an Annotate run.
type BatchStats struct {
	Processed int
	Found     int
	Skipped   int
	// Missing lists the rows, as indices into Table.Rows, without descriptors.
	Missing []int
}

// Annotate fills the MESH and MESH_ID columns of t for every row whose MESH
// cell is empty. Descriptor names and ids are joined with "; " since names
// may contain commas. Lookup failures are logged and the row is reported as
// missing. Cancelling ctx stops the run and returns the stats so far along
// with the context error.
func Annotate(ctx context.Context, f Fetcher, t *Table, opts BatchOptions) (BatchStats, error) {
	var stats BatchStats

	titleIdx := t.Column(opts.TitleColumn, false)
	if titleIdx < 0 {
		return stats, fmt.Errorf("title column %q not found", opts.TitleColumn)
	}
	meshIdx := t.Column(DescriptorColumn, true)
	idIdx := t.Column(IDColumn, true)

	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if strings.TrimSpace(row[meshIdx]) != "" {
			stats.Skipped++
			report(opts.Progress, i+1, len(t.Rows))
			continue
		}

		title := row[titleIdx]
		descs, err := f.Fetch(ctx, title)
		stats.Processed++
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			slog.Warn("MeSH lookup failed", "row", i, "error", err)
		}

		if len(descs) == 0 {
			stats.Missing = append(stats.Missing, i)
		} else {
			names := make([]string, len(descs))
			ids := make([]string, len(descs))
			for k, d := range descs {
				names[k] = d.Name
				ids[k] = d.UI
			}
			row[meshIdx] = strings.Join(names, "; ")
			row[idIdx] = strings.Join(ids, "; ")
			stats.Found++
		}

		report(opts.Progress, i+1, len(t.Rows))

		if opts.Checkpoint != nil && opts.CheckpointEvery > 0 && stats.Processed%opts.CheckpointEvery == 0 {
			if err := opts.Checkpoint(t); err != nil {
				return stats, fmt.Errorf("checkpoint failed: %w", err)
			}
			slog.Debug("Checkpoint saved", "processed", stats.Processed)
		}
	}
	return stats, nil
}

func report(fn func(int, int), done, total int) {
	if fn != nil {
		fn(done, total)
	}
}

// Subset returns a table with t's header and the given rows.
func (t *Table) Subset(rows []int) *Table {
	out := &Table{Header: t.Header}
	for _, i := range rows {
		if i >= 0 && i < len(t.Rows) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}
