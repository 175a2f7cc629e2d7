package tfidf

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Group names a set of matrix rows, typically the papers of one cluster.
type Group struct {
	Name string
	Rows []int
}

// TermScore is one ranked term of a cluster.
type TermScore struct {
	Term  string
	Score float64
}

// ClusterScores is a cluster x term importance matrix.
type ClusterScores struct {
	Clusters   []string
	Vocabulary []string

	index  map[string]int
	scores *mat.Dense
}

// Aggregate averages the rows of each group: a cluster's importance vector is
// the arithmetic mean of its papers' TF-IDF rows. Groups without rows score
// zero everywhere. Out-of-range rows are ignored.
func (m *Matrix) Aggregate(groups []Group) *ClusterScores {
	cs := &ClusterScores{
		Clusters:   make([]string, len(groups)),
		Vocabulary: m.Vocabulary,
		index:      make(map[string]int, len(groups)),
	}
	for g, grp := range groups {
		cs.Clusters[g] = grp.Name
		cs.index[grp.Name] = g
	}
	if len(groups) == 0 || len(m.Vocabulary) == 0 {
		return cs
	}

	rowGroups := make(map[int][]int)
	sizes := make([]int, len(groups))
	for g, grp := range groups {
		for _, r := range grp.Rows {
			if r < 0 || r >= m.rows {
				continue
			}
			rowGroups[r] = append(rowGroups[r], g)
			sizes[g]++
		}
	}

	sums := mat.NewDense(len(groups), len(m.Vocabulary), nil)
	m.doNonZero(func(i, j int, v float64) {
		for _, g := range rowGroups[i] {
			sums.Set(g, j, sums.At(g, j)+v)
		}
	})

	for g, size := range sizes {
		if size == 0 {
			continue
		}
		row := sums.RawRowView(g)
		for j := range row {
			row[j] /= float64(size)
		}
	}
	cs.scores = sums

	slog.Debug("Aggregated TF-IDF by cluster", "clusters", len(groups), "terms", len(m.Vocabulary))
	return cs
}

// PerRow treats every row as its own cluster, named by names. It is used when
// the documents already are cluster concatenations.
func (m *Matrix) PerRow(names []string) *ClusterScores {
	groups := make([]Group, len(names))
	for i, name := range names {
		groups[i] = Group{Name: name, Rows: []int{i}}
	}
	return m.Aggregate(groups)
}

// Score returns the importance of term in cluster, or 0 when either is unknown.
func (s *ClusterScores) Score(cluster, term string) float64 {
	row := s.Vector(cluster)
	if row == nil {
		return 0
	}
	j := sort.SearchStrings(s.Vocabulary, term)
	if j == len(s.Vocabulary) || s.Vocabulary[j] != term {
		return 0
	}
	return row[j]
}

// Vector returns the importance vector of cluster over Vocabulary, or nil when
// the cluster is unknown. The slice must not be modified.
func (s *ClusterScores) Vector(cluster string) []float64 {
	g, ok := s.index[cluster]
	if !ok {
		return nil
	}
	if s.scores == nil {
		return make([]float64, len(s.Vocabulary))
	}
	return s.scores.RawRowView(g)
}

// Top returns the n highest scoring terms of cluster with a positive score,
// by score descending then term ascending. n <= 0 returns all of them.
func (s *ClusterScores) Top(cluster string, n int) []TermScore {
	row := s.Vector(cluster)
	var ranked []TermScore
	for j, v := range row {
		if v > 0 {
			ranked = append(ranked, TermScore{Term: s.Vocabulary[j], Score: v})
		}
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		return ranked[a].Term < ranked[b].Term
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
