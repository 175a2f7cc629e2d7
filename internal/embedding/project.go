package embedding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
)

// ProjectOptions configure the t-SNE projection.
type ProjectOptions struct {
	Perplexity   float64
	LearningRate float64
	Iterations   int
}

// DefaultProjectOptions mirror the usual t-SNE defaults.
func DefaultProjectOptions() ProjectOptions {
	return ProjectOptions{Perplexity: 30, LearningRate: 200, Iterations: 300}
}

// Point is one projected text.
type Point struct {
	Text string
	X, Y float64
}

var errTooFew = errors.New("at least 4 embeddings are needed for a projection")

// Project embeds s into two dimensions with t-SNE. Perplexity is lowered
// when it is too large for the number of points.
func Project(s *Set, opts ProjectOptions) ([]Point, error) {
	n := s.Len()
	if n < 4 {
		return nil, errTooFew
	}
	if opts.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", opts.Iterations)
	}

	perplexity := opts.Perplexity
	if limit := float64(n-1) / 3; perplexity <= 0 || perplexity > limit {
		slog.Debug("Lowering perplexity for small input", "requested", opts.Perplexity, "used", limit)
		perplexity = limit
	}

	dim := s.Dim()
	data := make([]float64, 0, n*dim)
	for _, v := range s.Vectors {
		for _, x := range v {
			data = append(data, float64(x))
		}
	}
	X := mat.NewDense(n, dim, data)

	t := tsne.NewTSNE(2, perplexity, opts.LearningRate, opts.Iterations, false)
	t.EmbedData(X, nil)

	points := make([]Point, n)
	for i := range points {
		points[i] = Point{Text: s.Texts[i], X: t.Y.At(i, 0), Y: t.Y.At(i, 1)}
	}
	return points, nil
}
