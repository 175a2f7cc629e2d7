// Package embedding works with precomputed keyword embeddings: it reads them
// from TSV exports, proposes synonyms by cosine similarity, assigns keywords to
// the nearest category embedding and projects them to two dimensions.
package embedding

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/viterin/vek/vek32"
)

// VectorSuffix is appended to the text column name to find the vector column
// when none is given.
const VectorSuffix = "_embedding_Vector"

var errNoRows = errors.New("no embeddings found")

// Set is a list of texts with one embedding each.
type Set struct {
	Texts   []string
	Vectors [][]float32

	norms []float64
}

// Len returns the number of embeddings.
func (s *Set) Len() int {
	return len(s.Texts)
}

// Dim returns the embedding dimension.
func (s *Set) Dim() int {
	if len(s.Vectors) == 0 {
		return 0
	}
	return len(s.Vectors[0])
}

func (s *Set) norm(i int) float64 {
	if s.norms == nil {
		s.norms = make([]float64, len(s.Vectors))
		for k, v := range s.Vectors {
			s.norms[k] = math.Sqrt(float64(vek32.Dot(v, v)))
		}
	}
	return s.norms[i]
}

// ReadFile reads a tab separated embedding export.
func ReadFile(path, textColumn, vectorColumn string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embeddings %q: %w", path, err)
	}
	defer f.Close()

	s, err := ReadTSV(f, textColumn, vectorColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings %q: %w", path, err)
	}
	return s, nil
}

// ReadTSV reads embeddings from a tab separated table with a header row.
// Vectors are written as "[v1 v2 ...]". An empty vectorColumn defaults to
// textColumn + VectorSuffix. All vectors must have the same dimension.
func ReadTSV(r io.Reader, textColumn, vectorColumn string) (*Set, error) {
	if vectorColumn == "" {
		vectorColumn = textColumn + VectorSuffix
	}

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	textIdx, vecIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case textColumn:
			textIdx = i
		case vectorColumn:
			vecIdx = i
		}
	}
	if textIdx < 0 || vecIdx < 0 {
		return nil, fmt.Errorf("columns %q and %q are required", textColumn, vectorColumn)
	}

	s := &Set{}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		if textIdx >= len(rec) || vecIdx >= len(rec) {
			slog.Warn("Skipping short embedding row", "line", line)
			continue
		}

		vec, err := ParseVector(rec[vecIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(s.Vectors) > 0 && len(vec) != len(s.Vectors[0]) {
			return nil, fmt.Errorf("line %d: dimension %d, want %d", line, len(vec), len(s.Vectors[0]))
		}
		s.Texts = append(s.Texts, rec[textIdx])
		s.Vectors = append(s.Vectors, vec)
	}

	if len(s.Texts) == 0 {
		return nil, errNoRows
	}
	slog.Debug("Read embeddings", "rows", len(s.Texts), "dim", s.Dim())
	return s, nil
}

// ParseVector parses a whitespace separated vector, optionally enclosed in
// square brackets.
func ParseVector(v string) ([]float32, error) {
	v = strings.Trim(strings.TrimSpace(v), "[]")
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return nil, errors.New("empty vector")
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", f, err)
		}
		out[i] = float32(x)
	}
	return out, nil
}

// Cosine returns the cosine similarity of rows i of a and j of b, or 0 when
// either vector has zero norm.
func Cosine(a *Set, i int, b *Set, j int) float64 {
	na, nb := a.norm(i), b.norm(j)
	if na == 0 || nb == 0 {
		return 0
	}
	return float64(vek32.Dot(a.Vectors[i], b.Vectors[j])) / (na * nb)
}
