package embedding

import (
	"fmt"
	"log/slog"

	"github.com/chriscorrea/kwcanon/internal/synonym"
)

// DefaultThreshold is the cosine similarity above which two keywords are
// treated as synonyms.
const DefaultThreshold = 0.99

// SimilarPairs links every pair of texts whose cosine similarity is strictly
// greater than threshold. A text is never its own synonym, including when it
// appears on several rows. The result is symmetric but not closed; use
// synonym.Close for transitive classes.
func SimilarPairs(s *Set, threshold float64) synonym.Dictionary {
	d := make(synonym.Dictionary)
	seen := make(map[string]map[string]struct{})

	link := func(a, b string) {
		if seen[a] == nil {
			seen[a] = make(map[string]struct{})
		}
		if _, ok := seen[a][b]; ok {
			return
		}
		seen[a][b] = struct{}{}
		d[a] = append(d[a], b)
	}

	n := s.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if s.Texts[i] == s.Texts[j] {
				continue
			}
			if Cosine(s, i, s, j) > threshold {
				link(s.Texts[i], s.Texts[j])
				link(s.Texts[j], s.Texts[i])
			}
		}
	}

	slog.Debug("Similar pairs", "texts", n, "threshold", threshold, "linked", len(d))
	return d
}

// Assignment is the nearest category of one text.
type Assignment struct {
	Text     string
	Category string
	Score    float64
}

// Nearest assigns each text of keywords to the category embedding with the
// highest cosine similarity. Categories named in exclude are not candidates.
// Texts are left without category when no candidate remains.
func Nearest(keywords, categories *Set, exclude ...string) ([]Assignment, error) {
	if keywords.Len() > 0 && categories.Len() > 0 && keywords.Dim() != categories.Dim() {
		return nil, fmt.Errorf("keyword dimension %d does not match category dimension %d", keywords.Dim(), categories.Dim())
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}

	out := make([]Assignment, keywords.Len())
	for i := range out {
		out[i] = Assignment{Text: keywords.Texts[i]}
		best := -1
		for j, cat := range categories.Texts {
			if _, ok := skip[cat]; ok {
				continue
			}
			sim := Cosine(keywords, i, categories, j)
			if best < 0 || sim > out[i].Score {
				best = j
				out[i].Score = sim
			}
		}
		if best >= 0 {
			out[i].Category = categories.Texts[best]
		}
	}
	return out, nil
}
