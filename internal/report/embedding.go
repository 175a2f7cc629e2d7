package report

import (
	"github.com/chriscorrea/kwcanon/internal/embedding"
)

// Projection writes the 2-D coordinates of projected keywords to path.
func Projection(path string, points []embedding.Point) error {
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{p.Text, formatScore(p.X), formatScore(p.Y)}
	}
	return WriteCSV(path, []string{"keyword", "x", "y"}, rows)
}

// Assignments writes the nearest category of every keyword to path.
func Assignments(path string, as []embedding.Assignment) error {
	rows := make([][]string, len(as))
	for i, a := range as {
		score := ""
		if a.Category != "" {
			score = formatScore(a.Score)
		}
		rows[i] = []string{a.Text, a.Category, score}
	}
	return WriteCSV(path, []string{"keyword", "predicted_category", "similarity_score"}, rows)
}
