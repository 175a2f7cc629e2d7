// Package tfidf weights canonical keywords with TF-IDF (Term Frequency-Inverse
// Document Frequency) and aggregates paper weights into cluster importance.
//
// Documents are sequences of already-canonical tokens and are never re-split:
// a canonical term may contain spaces. Weights follow the smoothed convention
// of common TF-IDF implementations:
//   - Term Frequency (TF): raw count of the term in the document
//   - Inverse Document Frequency (IDF): ln((1+N)/(1+df)) + 1
//
// Each row is then L2-normalized. The vocabulary is sorted, so identical input
// yields identical matrices and rankings.
//
// Usage Example:
//
//	m := tfidf.FitTransform(corpus.Docs())
//	scores := m.Aggregate(groups)
//	top := scores.Top("1", 20)
package tfidf

import (
	"log/slog"
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
)

// Matrix is a document x term TF-IDF matrix. It is read-only once built.
type Matrix struct {
	// Vocabulary lists the terms in column order.
	Vocabulary []string
	// IDF holds the inverse document frequency of each column.
	IDF []float64

	index   map[string]int
	rows    int
	weights *sparse.CSR
}

// FitTransform learns the vocabulary and IDF of docs and returns their
// weighted rows.
//
// Parameters:
//   - docs: one token sequence per document
//
// Returns:
//   - *Matrix: len(docs) rows over the sorted vocabulary
//
// An empty corpus, or one without any token, yields a matrix with no columns
// rather than an error.
func FitTransform(docs [][]string) *Matrix {
	m := &Matrix{
		Vocabulary: []string{},
		IDF:        []float64{},
		index:      map[string]int{},
		rows:       len(docs),
	}

	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, tok := range doc {
			if tok == "" {
				continue
			}
			if counts[i][tok] == 0 {
				df[tok]++
			}
			counts[i][tok]++
		}
	}

	if len(df) == 0 {
		slog.Debug("Empty vocabulary, returning empty matrix", "documents", len(docs))
		return m
	}

	for term := range df {
		m.Vocabulary = append(m.Vocabulary, term)
	}
	sort.Strings(m.Vocabulary)

	n := float64(len(docs))
	m.IDF = make([]float64, len(m.Vocabulary))
	for j, term := range m.Vocabulary {
		m.index[term] = j
		m.IDF[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	dok := sparse.NewDOK(len(docs), len(m.Vocabulary))
	for i, tc := range counts {
		var sumSq float64
		for term, c := range tc {
			w := float64(c) * m.IDF[m.index[term]]
			sumSq += w * w
		}
		if sumSq == 0 {
			continue
		}
		norm := math.Sqrt(sumSq)
		for term, c := range tc {
			j := m.index[term]
			dok.Set(i, j, float64(c)*m.IDF[j]/norm)
		}
	}
	m.weights = dok.ToCSR()

	slog.Debug("TF-IDF matrix built", "documents", m.rows, "terms", len(m.Vocabulary), "nonzero", m.weights.NNZ())
	return m
}

// Dims returns the number of documents and terms.
func (m *Matrix) Dims() (int, int) {
	return m.rows, len(m.Vocabulary)
}

// Weight returns the weight of term in row i, or 0 when either is unknown.
func (m *Matrix) Weight(i int, term string) float64 {
	j, ok := m.index[term]
	if !ok || i < 0 || i >= m.rows || m.weights == nil {
		return 0
	}
	return m.weights.At(i, j)
}

// Row returns a dense copy of row i.
func (m *Matrix) Row(i int) []float64 {
	row := make([]float64, len(m.Vocabulary))
	if i < 0 || i >= m.rows || m.weights == nil {
		return row
	}
	for j := range row {
		row[j] = m.weights.At(i, j)
	}
	return row
}

// doNonZero calls fn for every stored weight.
func (m *Matrix) doNonZero(fn func(i, j int, v float64)) {
	if m.weights == nil {
		return
	}
	m.weights.DoNonZero(fn)
}

// Cosine returns the cosine similarity of two equally sized vectors, or 0 when
// either has zero norm.
func Cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
